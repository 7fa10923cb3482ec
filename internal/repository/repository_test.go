package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"

	"github.com/stretchr/testify/require"
)

// Helper to create a new Auction
func newAuction(auctionID, sellerID string, startingBid float64, endTime time.Time) model.Auction {
	return model.Auction{
		AuctionID:   auctionID,
		Name:        fmt.Sprintf("auction %s", auctionID),
		Description: fmt.Sprintf("%s description", auctionID),
		StartingBid: startingBid,
		CurrentBid:  startingBid,
		EndTime:     endTime,
		SellerID:    sellerID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
}

// Helper to create a new Bid
func newBid(bidID, auctionID, bidderID string, amount float64, createdAt time.Time) model.Bid {
	return model.Bid{
		BidID:     bidID,
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: createdAt,
	}
}

// Test user storage
func TestMemoryRepo_Users(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	alice := model.User{UserID: "user1", Name: "Alice", Email: "alice@example.com", PasswordHash: "hash1"}
	require.NoError(t, repo.CreateUser(ctx, alice))

	t.Run("duplicate_email_rejected", func(t *testing.T) {
		dup := model.User{UserID: "user2", Name: "Other Alice", Email: "alice@example.com"}
		err := repo.CreateUser(ctx, dup)
		require.Error(t, err)
		require.True(t, errors.Is(err, auctionerrors.ErrEmailTaken))
	})

	t.Run("get_by_email", func(t *testing.T) {
		got, err := repo.GetUserByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		require.Equal(t, alice, got)
	})

	t.Run("get_by_id", func(t *testing.T) {
		got, err := repo.GetUserByID(ctx, "user1")
		require.NoError(t, err)
		require.Equal(t, alice, got)
	})

	t.Run("missing_user", func(t *testing.T) {
		_, err := repo.GetUserByID(ctx, "ghost")
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))

		_, err = repo.GetUserByEmail(ctx, "ghost@example.com")
		require.True(t, errors.Is(err, auctionerrors.ErrUserNotFound))
	})
}

// Test RecordBid
func TestMemoryRepo_RecordBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	end := time.Now().Add(time.Hour)

	tests := []struct {
		name            string
		bid             model.Bid
		wantError       bool
		wantCurrentBid  float64
		wantTentativeID string
	}{
		{
			name:            "higher_bid_updates_summary",
			bid:             newBid("bid1", "auction1", "user1", 150, time.Now()),
			wantCurrentBid:  150,
			wantTentativeID: "user1",
		},
		{
			name:            "lower_bid_appends_without_update",
			bid:             newBid("bid2", "auction1", "user2", 80, time.Now()),
			wantCurrentBid:  100,
			wantTentativeID: "",
		},
		{
			name:      "auction_not_found",
			bid:       newBid("bid3", "missing", "user1", 200, time.Now()),
			wantError: true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMemoryRepo()
			require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 100, end)))

			err := repo.RecordBid(ctx, tc.bid)
			if tc.wantError {
				require.Error(t, err)
				require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
				return
			}

			require.NoError(t, err)

			bids, err := repo.GetBidsByAuction(ctx, tc.bid.AuctionID)
			require.NoError(t, err)
			require.Contains(t, bids, tc.bid)

			auction, err := repo.GetAuction(ctx, tc.bid.AuctionID)
			require.NoError(t, err)
			require.Equal(t, tc.wantCurrentBid, auction.CurrentBid)
			require.Equal(t, tc.wantTentativeID, auction.WinnerID)
		})
	}

	// currentBid never decreases, regardless of commit order
	t.Run("current_bid_monotonic", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 100, end)))

		require.NoError(t, repo.RecordBid(ctx, newBid("bid1", "auction1", "user1", 300, time.Now())))
		require.NoError(t, repo.RecordBid(ctx, newBid("bid2", "auction1", "user2", 200, time.Now())))

		auction, err := repo.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		require.Equal(t, 300.0, auction.CurrentBid)
		require.Equal(t, "user1", auction.WinnerID)
	})

	// concurrency test
	t.Run("concurrent_bids", func(t *testing.T) {
		t.Parallel()

		repo := NewMemoryRepo()
		require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 50, end)))

		var wg sync.WaitGroup
		concurrentCount := 50

		for i := 0; i < concurrentCount; i++ {
			wg.Add(1)
			i := i
			go func() {
				defer wg.Done()
				bid := newBid(
					fmt.Sprintf("bid_%d", i),
					"auction1",
					fmt.Sprintf("user_%d", i),
					float64(100+i),
					time.Now(),
				)
				require.NoError(t, repo.RecordBid(ctx, bid))
			}()
		}
		wg.Wait()

		bids, err := repo.GetBidsByAuction(ctx, "auction1")
		require.NoError(t, err)
		require.Len(t, bids, concurrentCount)

		auction, err := repo.GetAuction(ctx, "auction1")
		require.NoError(t, err)
		require.Equal(t, float64(100+concurrentCount-1), auction.CurrentBid)
		require.GreaterOrEqual(t, auction.CurrentBid, auction.StartingBid)
	})
}

// Test GetBidsByAuction ordering
func TestMemoryRepo_GetBidsByAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 10, now.Add(time.Hour))))

	// Appended out of order on purpose
	require.NoError(t, repo.RecordBid(ctx, newBid("bid1", "auction1", "user1", 100, now)))
	require.NoError(t, repo.RecordBid(ctx, newBid("bid2", "auction1", "user2", 300, now.Add(2*time.Second))))
	require.NoError(t, repo.RecordBid(ctx, newBid("bid3", "auction1", "user3", 200, now.Add(time.Second))))
	require.NoError(t, repo.RecordBid(ctx, newBid("bid4", "auction1", "user4", 200, now.Add(3*time.Second))))

	bids, err := repo.GetBidsByAuction(ctx, "auction1")
	require.NoError(t, err)

	// amount descending, ties broken by earliest created_at
	gotIDs := make([]string, 0, len(bids))
	for _, b := range bids {
		gotIDs = append(gotIDs, b.BidID)
	}
	require.Equal(t, []string{"bid2", "bid3", "bid4", "bid1"}, gotIDs)

	t.Run("no_bids", func(t *testing.T) {
		require.NoError(t, repo.CreateAuction(ctx, newAuction("auction2", "seller1", 10, now.Add(time.Hour))))
		_, err := repo.GetBidsByAuction(ctx, "auction2")
		require.True(t, errors.Is(err, auctionerrors.ErrNoBids))
	})
}

// Test GetWinningBid
func TestMemoryRepo_GetWinningBid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()
	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 10, now.Add(time.Hour))))

	require.NoError(t, repo.RecordBid(ctx, newBid("bid1", "auction1", "user1", 500, now.Add(time.Second))))
	require.NoError(t, repo.RecordBid(ctx, newBid("bid2", "auction1", "user2", 500, now)))
	require.NoError(t, repo.RecordBid(ctx, newBid("bid3", "auction1", "user3", 400, now)))

	// equal amounts: the earlier bid wins
	winning, err := repo.GetWinningBid(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, "bid2", winning.BidID)

	t.Run("no_bids", func(t *testing.T) {
		require.NoError(t, repo.CreateAuction(ctx, newAuction("auction2", "seller1", 10, now.Add(time.Hour))))
		_, err := repo.GetWinningBid(ctx, "auction2")
		require.True(t, errors.Is(err, auctionerrors.ErrNoBids))
	})
}

// Test FinalizeAuction
func TestMemoryRepo_FinalizeAuction(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()
	require.NoError(t, repo.CreateAuction(ctx, newAuction("auction1", "seller1", 100, time.Now())))

	require.NoError(t, repo.FinalizeAuction(ctx, "auction1", "user9"))

	auction, err := repo.GetAuction(ctx, "auction1")
	require.NoError(t, err)
	require.False(t, auction.IsActive)
	require.Equal(t, "user9", auction.WinnerID)

	// idempotent: a second finalize with a different winner changes nothing
	require.NoError(t, repo.FinalizeAuction(ctx, "auction1", "someone-else"))
	auction, err = repo.GetAuction(ctx, "auction1")
	require.NoError(t, err)
	require.Equal(t, "user9", auction.WinnerID)

	t.Run("missing_auction", func(t *testing.T) {
		err := repo.FinalizeAuction(ctx, "missing", "user1")
		require.True(t, errors.Is(err, auctionerrors.ErrAuctionNotFound))
	})
}

// Test ListAuctions ordering
func TestMemoryRepo_ListAuctions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryRepo()

	older := newAuction("auction1", "seller1", 10, time.Now().Add(time.Hour))
	older.CreatedAt = time.Now().Add(-time.Hour)
	newer := newAuction("auction2", "seller1", 10, time.Now().Add(time.Hour))

	require.NoError(t, repo.CreateAuction(ctx, older))
	require.NoError(t, repo.CreateAuction(ctx, newer))

	auctions, err := repo.ListAuctions(ctx)
	require.NoError(t, err)
	require.Len(t, auctions, 2)
	require.Equal(t, "auction2", auctions[0].AuctionID)
	require.Equal(t, "auction1", auctions[1].AuctionID)
}
