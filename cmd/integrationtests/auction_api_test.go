package integrationtests

import (
	"context"
	"net/http"
	"testing"
	"time"

	model "auction-house/internal/models"

	"github.com/stretchr/testify/require"
)

// Registration and login flow
func TestUserRegistrationAndLogin(t *testing.T) {
	env := SetupTestEnv(t)

	userID, tok := env.RegisterUser(t, "Alice", "alice@example.com")
	require.NotEmpty(t, userID)
	require.NotEmpty(t, tok)

	t.Run("duplicate_registration_conflicts", func(t *testing.T) {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/users", "", map[string]any{
			"name":     "Alice Again",
			"email":    "alice@example.com",
			"password": "integration-pass",
		})
		require.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login_returns_token", func(t *testing.T) {
		resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/users/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "integration-pass",
		})
		require.Equal(t, http.StatusOK, w.Code)
		require.NotEmpty(t, resp["data"].(map[string]any)["token"])
	})

	t.Run("wrong_password_unauthorized", func(t *testing.T) {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/users/login", "", map[string]any{
			"email":    "alice@example.com",
			"password": "wrong-password",
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// Bid placement requires a valid bearer token
func TestBiddingRequiresAuth(t *testing.T) {
	env := SetupTestEnv(t)

	_, sellerTok := env.RegisterUser(t, "Sam", "sam@example.com")
	end := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	auctionID := env.CreateAuction(t, sellerTok, 100, end)

	t.Run("missing_token", func(t *testing.T) {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+auctionID+"/bids", "", map[string]any{"amount": 150})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage_token", func(t *testing.T) {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/"+auctionID+"/bids", "not-a-real-token", map[string]any{"amount": 150})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("create_auction_requires_token", func(t *testing.T) {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions", "", map[string]any{
			"name": "x", "starting_bid": 10, "end_time": end,
		})
		require.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

// Full bidding flow: accept, reject-too-low, overtake, self-bid
func TestBiddingFlow(t *testing.T) {
	env := SetupTestEnv(t)

	_, sellerTok := env.RegisterUser(t, "Sam", "sam@example.com")
	bidder1ID, bidder1Tok := env.RegisterUser(t, "Uma", "uma@example.com")
	bidder2ID, bidder2Tok := env.RegisterUser(t, "Vera", "vera@example.com")

	end := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	auctionID := env.CreateAuction(t, sellerTok, 100, end)

	bidURL := "/auctions/" + auctionID + "/bids"

	// bidder1 bids 150: accepted
	resp, w := env.ExecuteRequestAndParse(t, http.MethodPost, bidURL, bidder1Tok, map[string]any{"amount": 150})
	require.Equal(t, http.StatusCreated, w.Code)
	require.Equal(t, bidder1ID, resp["data"].(map[string]any)["bidder_id"])

	// bidder2 bids 120: rejected
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, bidURL, bidder2Tok, map[string]any{"amount": 120})
	require.Equal(t, http.StatusConflict, w.Code)

	// bidder2 bids 200: accepted and takes the tentative lead
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, bidURL, bidder2Tok, map[string]any{"amount": 200})
	require.Equal(t, http.StatusCreated, w.Code)

	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/"+auctionID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, 200.0, data["current_bid"])
	require.Equal(t, true, data["is_active"])
	require.Equal(t, bidder2ID, data["winner"].(map[string]any)["user_id"])

	// the seller cannot bid on their own auction
	_, w = env.ExecuteRequestAndParse(t, http.MethodPost, bidURL, sellerTok, map[string]any{"amount": 500})
	require.Equal(t, http.StatusForbidden, w.Code)

	// the auction shows up in the public list
	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, resp["data"].([]any), 1)
}

// Leaderboard: deduplicated by bidder, ordered by amount descending
func TestLeaderboard(t *testing.T) {
	env := SetupTestEnv(t)

	_, sellerTok := env.RegisterUser(t, "Sam", "sam@example.com")
	bidder1ID, bidder1Tok := env.RegisterUser(t, "Uma", "uma@example.com")
	bidder2ID, bidder2Tok := env.RegisterUser(t, "Vera", "vera@example.com")

	end := time.Now().UTC().Add(time.Hour).Format(time.RFC3339)
	auctionID := env.CreateAuction(t, sellerTok, 100, end)
	bidURL := "/auctions/" + auctionID + "/bids"

	// Uma bids three times, Vera once in between
	for _, step := range []struct {
		tok    string
		amount float64
	}{
		{bidder1Tok, 110},
		{bidder2Tok, 130},
		{bidder1Tok, 140},
		{bidder1Tok, 160},
	} {
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, bidURL, step.tok, map[string]any{"amount": step.amount})
		require.Equal(t, http.StatusCreated, w.Code)
	}

	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, bidURL, "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	entries := resp["data"].([]any)
	require.Len(t, entries, 2) // two distinct bidders despite four bids

	first := entries[0].(map[string]any)
	require.Equal(t, 1.0, first["rank"])
	require.Equal(t, 160.0, first["amount"])
	require.Equal(t, bidder1ID, first["bidder"].(map[string]any)["user_id"])
	require.Equal(t, "Uma", first["bidder"].(map[string]any)["name"])
	require.Equal(t, true, first["is_leading"])

	second := entries[1].(map[string]any)
	require.Equal(t, 130.0, second["amount"])
	require.Equal(t, bidder2ID, second["bidder"].(map[string]any)["user_id"])
	require.Equal(t, false, second["is_leading"])

	t.Run("empty_leaderboard", func(t *testing.T) {
		otherID := env.CreateAuction(t, sellerTok, 50, end)
		resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/"+otherID+"/bids", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Empty(t, resp["data"].([]any))
	})
}

// Winner resolution triggers on the first read after end time
func TestWinnerResolutionOnRead(t *testing.T) {
	env := SetupTestEnv(t)
	ctx := context.Background()

	sellerID, _ := env.RegisterUser(t, "Sam", "sam@example.com")
	bidder1ID, _ := env.RegisterUser(t, "Uma", "uma@example.com")
	bidder2ID, _ := env.RegisterUser(t, "Vera", "vera@example.com")

	now := time.Now().UTC()

	// seed an already-ended, unfinalized auction directly in the store
	require.NoError(t, env.Repo.CreateAuction(ctx, model.Auction{
		AuctionID:   "ended-auction",
		Name:        "ended auction",
		StartingBid: 100,
		CurrentBid:  200,
		EndTime:     now.Add(-time.Minute),
		SellerID:    sellerID,
		WinnerID:    bidder2ID, // tentative
		IsActive:    true,
		CreatedAt:   now.Add(-time.Hour),
	}))
	require.NoError(t, env.Repo.RecordBid(ctx, model.Bid{
		BidID: "bid1", AuctionID: "ended-auction", BidderID: bidder1ID, Amount: 150, CreatedAt: now.Add(-30 * time.Minute),
	}))
	require.NoError(t, env.Repo.RecordBid(ctx, model.Bid{
		BidID: "bid2", AuctionID: "ended-auction", BidderID: bidder2ID, Amount: 200, CreatedAt: now.Add(-20 * time.Minute),
	}))

	// first read finalizes
	resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/ended-auction", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := resp["data"].(map[string]any)
	require.Equal(t, false, data["is_active"])
	require.Equal(t, bidder2ID, data["winner"].(map[string]any)["user_id"])
	require.Equal(t, "Vera", data["winner"].(map[string]any)["name"])

	// repeat reads return the same winner
	resp, w = env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/ended-auction", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, bidder2ID, resp["data"].(map[string]any)["winner"].(map[string]any)["user_id"])

	t.Run("zero_bids_ends_without_winner", func(t *testing.T) {
		require.NoError(t, env.Repo.CreateAuction(ctx, model.Auction{
			AuctionID:   "empty-auction",
			Name:        "no takers",
			StartingBid: 100,
			CurrentBid:  100,
			EndTime:     now.Add(-time.Minute),
			SellerID:    sellerID,
			IsActive:    true,
			CreatedAt:   now.Add(-time.Hour),
		}))

		resp, w := env.ExecuteRequestAndParse(t, http.MethodGet, "/auctions/empty-auction", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := resp["data"].(map[string]any)
		require.Equal(t, false, data["is_active"])
		_, hasWinner := data["winner"]
		require.False(t, hasWinner)
	})

	t.Run("bid_after_end_rejected", func(t *testing.T) {
		_, bidderTok := env.RegisterUser(t, "Late", "late@example.com")
		_, w := env.ExecuteRequestAndParse(t, http.MethodPost, "/auctions/ended-auction/bids", bidderTok, map[string]any{"amount": 9999})
		require.Equal(t, http.StatusConflict, w.Code)
	})
}
