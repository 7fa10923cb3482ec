package models

import "time"

// User represents a registered participant in the marketplace
type User struct {
	UserID       string `json:"user_id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	AvatarURL    string `json:"avatar_url,omitempty"`
}

// Auction represents a timed listing accepting bids until its end time
type Auction struct {
	AuctionID   string    `json:"auction_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url,omitempty"`
	StartingBid float64   `json:"starting_bid"`
	CurrentBid  float64   `json:"current_bid"`
	EndTime     time.Time `json:"end_time"`
	SellerID    string    `json:"seller_id"`
	WinnerID    string    `json:"winner_id,omitempty"` // tentative while active, final once inactive
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Ended reports whether the auction's end time has passed at the given instant.
func (a Auction) Ended(now time.Time) bool {
	return now.After(a.EndTime)
}

// Bid represents a user's bid on an auction. Bids are immutable once recorded.
type Bid struct {
	BidID     string    `json:"bid_id"`
	AuctionID string    `json:"auction_id"`
	BidderID  string    `json:"bidder_id"`
	Amount    float64   `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// Beats reports whether b ranks above other: higher amount wins,
// equal amounts go to the earlier bid.
func (b Bid) Beats(other Bid) bool {
	if b.Amount != other.Amount {
		return b.Amount > other.Amount
	}
	return b.CreatedAt.Before(other.CreatedAt)
}
