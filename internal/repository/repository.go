package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mock_repository.go -package=repository

// AuctionDB defines the storage interface for the auction marketplace.
// Bids form an append-only ledger; auction records carry the mutable
// current-price/tentative-winner summary derived from it.
type AuctionDB interface {
	CreateUser(ctx context.Context, user model.User) error
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	GetUserByID(ctx context.Context, userID string) (model.User, error)

	CreateAuction(ctx context.Context, auction model.Auction) error
	GetAuction(ctx context.Context, auctionID string) (model.Auction, error)
	ListAuctions(ctx context.Context) ([]model.Auction, error)

	// RecordBid appends the bid to the ledger and, when the amount exceeds
	// the auction's current bid, updates current bid and tentative winner.
	// Both writes happen atomically.
	RecordBid(ctx context.Context, bid model.Bid) error
	// GetBidsByAuction returns the auction's bids ordered by amount
	// descending, then creation time ascending.
	GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error)
	GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error)
	// FinalizeAuction marks the auction inactive and records its winner.
	// A no-op when the auction is already inactive.
	FinalizeAuction(ctx context.Context, auctionID, winnerID string) error
}

// MemoryRepo is a concurrency-safe in-memory implementation of AuctionDB
type MemoryRepo struct {
	mu       sync.RWMutex
	users    map[string]model.User  // key: userID
	emails   map[string]string      // key: email -> userID
	auctions map[string]model.Auction
	bids     map[string][]model.Bid // key: auctionID -> ledger, append order
}

// NewMemoryRepo creates a new in-memory repository instance
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		users:    make(map[string]model.User),
		emails:   make(map[string]string),
		auctions: make(map[string]model.Auction),
		bids:     make(map[string][]model.Bid),
	}
}

// CreateUser stores a new user, rejecting duplicate email addresses
func (r *MemoryRepo) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.emails[user.Email]; taken {
		return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailTaken)
	}
	r.users[user.UserID] = user
	r.emails[user.Email] = user.UserID
	return nil
}

// GetUserByEmail returns the user registered under the given email
func (r *MemoryRepo) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	userID, ok := r.emails[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	return r.users[userID], nil
}

// GetUserByID returns the user with the given id
func (r *MemoryRepo) GetUserByID(_ context.Context, userID string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[userID]
	if !ok {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	return user, nil
}

// CreateAuction stores a new auction record
func (r *MemoryRepo) CreateAuction(_ context.Context, auction model.Auction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.auctions[auction.AuctionID] = auction
	return nil
}

// GetAuction returns the auction record with the given id
func (r *MemoryRepo) GetAuction(_ context.Context, auctionID string) (model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	return auction, nil
}

// ListAuctions returns all auction records, newest first
func (r *MemoryRepo) ListAuctions(_ context.Context) ([]model.Auction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	auctions := make([]model.Auction, 0, len(r.auctions))
	for _, a := range r.auctions {
		auctions = append(auctions, a)
	}
	sort.Slice(auctions, func(i, j int) bool {
		return auctions[i].CreatedAt.After(auctions[j].CreatedAt)
	})
	return auctions, nil
}

// RecordBid appends a bid to the ledger and updates the auction summary
// in the same critical section, so no reader can observe the bid without
// the matching current-bid update.
func (r *MemoryRepo) RecordBid(_ context.Context, bid model.Bid) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[bid.AuctionID]
	if !ok {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}

	r.bids[bid.AuctionID] = append(r.bids[bid.AuctionID], bid)

	// The guard keeps current bid monotonic even if a lower bid slips in.
	if bid.Amount > auction.CurrentBid {
		auction.CurrentBid = bid.Amount
		auction.WinnerID = bid.BidderID
		r.auctions[bid.AuctionID] = auction
	}
	return nil
}

// GetBidsByAuction returns the auction's bids sorted by amount descending,
// then creation time ascending for ties
func (r *MemoryRepo) GetBidsByAuction(_ context.Context, auctionID string) ([]model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ledger, ok := r.bids[auctionID]
	if !ok || len(ledger) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	bids := append([]model.Bid(nil), ledger...)
	sort.SliceStable(bids, func(i, j int) bool {
		return bids[i].Beats(bids[j])
	})
	return bids, nil
}

// GetWinningBid returns the highest bid for an auction, earliest bid
// winning ties at equal amount
func (r *MemoryRepo) GetWinningBid(_ context.Context, auctionID string) (model.Bid, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ledger, ok := r.bids[auctionID]
	if !ok || len(ledger) == 0 {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}

	winning := ledger[0]
	for _, b := range ledger[1:] {
		if b.Beats(winning) {
			winning = b
		}
	}
	return winning, nil
}

// FinalizeAuction closes an auction and records its winner. Idempotent:
// once inactive, further calls leave the record untouched.
func (r *MemoryRepo) FinalizeAuction(_ context.Context, auctionID, winnerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	auction, ok := r.auctions[auctionID]
	if !ok {
		return fmt.Errorf("finalize auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if !auction.IsActive {
		return nil
	}

	auction.IsActive = false
	auction.WinnerID = winnerID
	r.auctions[auctionID] = auction
	return nil
}
