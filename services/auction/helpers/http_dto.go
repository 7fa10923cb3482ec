package helpers

import (
	"time"

	auction "auction-house/internal/auctionService"
	model "auction-house/internal/models"
)

// Request/Response DTOs
type CreateAuctionRequest struct {
	Name        string    `json:"name" binding:"required"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	StartingBid float64   `json:"starting_bid" binding:"required,gt=0"`
	EndTime     time.Time `json:"end_time" binding:"required"`
}

type PlaceBidRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type UserSummary struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type BidResponse struct {
	BidID     string  `json:"bid_id"`
	AuctionID string  `json:"auction_id"`
	BidderID  string  `json:"bidder_id"`
	Amount    float64 `json:"amount"`
	CreatedAt string  `json:"created_at"`
}

type AuctionResponse struct {
	AuctionID   string       `json:"auction_id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	ImageURL    string       `json:"image_url,omitempty"`
	StartingBid float64      `json:"starting_bid"`
	CurrentBid  float64      `json:"current_bid"`
	EndTime     string       `json:"end_time"`
	Seller      UserSummary  `json:"seller"`
	Winner      *UserSummary `json:"winner,omitempty"`
	IsActive    bool         `json:"is_active"`
	CreatedAt   string       `json:"created_at"`
}

type LeaderboardEntryResponse struct {
	Rank      int         `json:"rank"`
	BidID     string      `json:"bid_id"`
	Amount    float64     `json:"amount"`
	CreatedAt string      `json:"created_at"`
	Bidder    UserSummary `json:"bidder"`
	IsLeading bool        `json:"is_leading"`
}

// NewBidResponse builds the wire representation of a bid
func NewBidResponse(bid model.Bid) BidResponse {
	return BidResponse{
		BidID:     bid.BidID,
		AuctionID: bid.AuctionID,
		BidderID:  bid.BidderID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func newUserSummary(userID string, user model.User) UserSummary {
	summary := UserSummary{UserID: userID}
	if user.UserID != "" {
		summary.Name = user.Name
		summary.AvatarURL = user.AvatarURL
	}
	return summary
}

// NewAuctionResponse builds the wire representation of an auction with
// its seller/winner display data
func NewAuctionResponse(detail auction.AuctionDetail) AuctionResponse {
	a := detail.Auction
	resp := AuctionResponse{
		AuctionID:   a.AuctionID,
		Name:        a.Name,
		Description: a.Description,
		ImageURL:    a.ImageURL,
		StartingBid: a.StartingBid,
		CurrentBid:  a.CurrentBid,
		EndTime:     a.EndTime.UTC().Format(time.RFC3339),
		Seller:      newUserSummary(a.SellerID, detail.Seller),
		IsActive:    a.IsActive,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
	if a.WinnerID != "" {
		var winner model.User
		if detail.Winner != nil {
			winner = *detail.Winner
		}
		summary := newUserSummary(a.WinnerID, winner)
		resp.Winner = &summary
	}
	return resp
}

// NewLeaderboardResponse builds the wire representation of a ranking
func NewLeaderboardResponse(entries []auction.LeaderboardEntry) []LeaderboardEntryResponse {
	resp := make([]LeaderboardEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, LeaderboardEntryResponse{
			Rank:      e.Rank,
			BidID:     e.Bid.BidID,
			Amount:    e.Bid.Amount,
			CreatedAt: e.Bid.CreatedAt.UTC().Format(time.RFC3339),
			Bidder:    newUserSummary(e.Bid.BidderID, e.Bidder),
			IsLeading: e.IsLeading,
		})
	}
	return resp
}
