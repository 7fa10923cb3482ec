package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/utils"
)

// DefaultLeaderboardSize is the number of distinct bidders returned when
// the caller does not ask for a specific limit.
const DefaultLeaderboardSize = 5

// AuctionService implements the marketplace business rules: bid
// acceptance, lazy winner resolution and the leaderboard projection.
type AuctionService struct {
	repo repository.AuctionDB

	// one mutex per auction serializes read-validate-commit, so two
	// concurrent bids on the same auction never validate against the
	// same stale current bid
	locks sync.Map // auctionID -> *sync.Mutex
}

// NewAuctionService creates a new AuctionService instance
func NewAuctionService(repo repository.AuctionDB) *AuctionService {
	return &AuctionService{repo: repo}
}

func (s *AuctionService) lockFor(auctionID string) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(auctionID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// CreateAuctionParams carries the seller-supplied fields of a new listing
type CreateAuctionParams struct {
	Name        string
	Description string
	ImageURL    string
	StartingBid float64
	EndTime     time.Time
}

// CreateAuction creates a new listing for the given seller. The current
// bid starts at the starting bid and the end time must lie in the future.
func (s *AuctionService) CreateAuction(ctx context.Context, sellerID string, params CreateAuctionParams) (models.Auction, error) {
	if sellerID == "" || params.Name == "" {
		return models.Auction{}, fmt.Errorf("service: %w - missing seller or name", auctionerrors.ErrInvalidInput)
	}
	if params.StartingBid <= 0 {
		return models.Auction{}, fmt.Errorf("service: %w - non-positive starting bid", auctionerrors.ErrInvalidInput)
	}
	if !params.EndTime.After(time.Now().UTC()) {
		return models.Auction{}, fmt.Errorf("service: %w - end time must be in the future", auctionerrors.ErrInvalidInput)
	}

	auction := models.Auction{
		AuctionID:   utils.GenerateID(),
		Name:        params.Name,
		Description: params.Description,
		ImageURL:    params.ImageURL,
		StartingBid: params.StartingBid,
		CurrentBid:  params.StartingBid,
		EndTime:     params.EndTime.UTC(),
		SellerID:    sellerID,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.CreateAuction(ctx, auction); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to create auction for seller %s: %w", sellerID, err)
	}
	return auction, nil
}

// PlaceBid validates and records a user's bid on an auction.
// Preconditions are checked in order: the auction must exist, must not
// have ended, the amount must exceed the current bid, and the bidder must
// not be the seller. The ledger append and the auction-record update are
// committed atomically by the store.
func (s *AuctionService) PlaceBid(ctx context.Context, auctionID, bidderID string, amount float64) (models.Bid, error) {
	if auctionID == "" || bidderID == "" {
		return models.Bid{}, fmt.Errorf("service: %w - missing auctionID or bidderID", auctionerrors.ErrInvalidInput)
	}
	if amount <= 0 {
		return models.Bid{}, fmt.Errorf("service: %w - non-positive bid amount", auctionerrors.ErrInvalidInput)
	}

	mu := s.lockFor(auctionID)
	mu.Lock()
	defer mu.Unlock()

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	now := time.Now().UTC()
	if auction.Ended(now) {
		return models.Bid{}, fmt.Errorf("service: %w - ended at %s", auctionerrors.ErrAuctionEnded, auction.EndTime.Format(time.RFC3339))
	}
	if amount <= auction.CurrentBid {
		return models.Bid{}, fmt.Errorf("service: %w - current bid is %.2f", auctionerrors.ErrBidTooLow, auction.CurrentBid)
	}
	if bidderID == auction.SellerID {
		return models.Bid{}, fmt.Errorf("service: %w", auctionerrors.ErrSelfBidForbidden)
	}

	bid := models.Bid{
		BidID:     utils.GenerateID(),
		AuctionID: auctionID,
		BidderID:  bidderID,
		Amount:    amount,
		CreatedAt: now,
	}

	if err := s.repo.RecordBid(ctx, bid); err != nil {
		return models.Bid{}, fmt.Errorf("service: failed to record bid on auction %s by user %s: %w", auctionID, bidderID, err)
	}

	return bid, nil
}

// AuctionDetail is an auction record with seller and winner display data
// attached for rendering.
type AuctionDetail struct {
	Auction models.Auction
	Seller  models.User
	Winner  *models.User
}

// GetAuction fetches an auction and lazily finalizes its winner. When the
// end time has passed and the auction is still marked active, the winner
// is recomputed from the bid ledger (highest amount, earliest bid on
// ties) and persisted. The ledger is immutable after end time, so
// concurrent readers converge on the same outcome.
func (s *AuctionService) GetAuction(ctx context.Context, auctionID string) (AuctionDetail, error) {
	if auctionID == "" {
		return AuctionDetail{}, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return AuctionDetail{}, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	if auction.Ended(time.Now().UTC()) && auction.IsActive {
		auction, err = s.finalize(ctx, auctionID)
		if err != nil {
			return AuctionDetail{}, err
		}
	}

	return s.attachIdentities(ctx, auction)
}

// finalize computes the definitive winner from the ledger and persists
// the closed state, then re-reads the record. Safe to run from multiple
// readers at once: FinalizeAuction is a no-op on an inactive auction.
func (s *AuctionService) finalize(ctx context.Context, auctionID string) (models.Auction, error) {
	winnerID := ""
	winning, err := s.repo.GetWinningBid(ctx, auctionID)
	switch {
	case err == nil:
		winnerID = winning.BidderID
	case errors.Is(err, auctionerrors.ErrNoBids):
		// ended with no bids: close without a winner
	default:
		return models.Auction{}, fmt.Errorf("service: failed to resolve winner for auction %s: %w", auctionID, err)
	}

	if err := s.repo.FinalizeAuction(ctx, auctionID, winnerID); err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to finalize auction %s: %w", auctionID, err)
	}

	utils.Info("auction finalized", map[string]any{
		"auction_id": auctionID,
		"winner_id":  winnerID,
	})

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return models.Auction{}, fmt.Errorf("service: failed to reload auction %s: %w", auctionID, err)
	}
	return auction, nil
}

func (s *AuctionService) attachIdentities(ctx context.Context, auction models.Auction) (AuctionDetail, error) {
	detail := AuctionDetail{Auction: auction}

	// display data is best effort; a missing profile never fails the read
	if seller, err := s.repo.GetUserByID(ctx, auction.SellerID); err == nil {
		detail.Seller = seller
	}
	if auction.WinnerID != "" {
		if winner, err := s.repo.GetUserByID(ctx, auction.WinnerID); err == nil {
			detail.Winner = &winner
		}
	}
	return detail, nil
}

// ListAuctions returns all listings with seller display data attached
func (s *AuctionService) ListAuctions(ctx context.Context) ([]AuctionDetail, error) {
	auctions, err := s.repo.ListAuctions(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list auctions: %w", err)
	}

	details := make([]AuctionDetail, 0, len(auctions))
	for _, a := range auctions {
		detail, err := s.attachIdentities(ctx, a)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	return details, nil
}

// LeaderboardEntry is one row of the deduplicated top-bidder ranking
type LeaderboardEntry struct {
	Bid       models.Bid
	Bidder    models.User
	Rank      int
	IsLeading bool
}

// TopBidders projects the auction's bid ledger into a ranking of up to
// limit distinct bidders. Bids are walked in amount-descending order
// (earliest first on ties) and only the first bid seen per bidder is
// kept, so a bidder appearing many times in the ledger is represented by
// their best bid. Recomputed fresh on every call.
func (s *AuctionService) TopBidders(ctx context.Context, auctionID string, limit int) ([]LeaderboardEntry, error) {
	if auctionID == "" {
		return nil, fmt.Errorf("service: %w - empty auction ID", auctionerrors.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	auction, err := s.repo.GetAuction(ctx, auctionID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load auction %s: %w", auctionID, err)
	}

	bids, err := s.repo.GetBidsByAuction(ctx, auctionID)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrNoBids) {
			return []LeaderboardEntry{}, nil
		}
		return nil, fmt.Errorf("service: failed to get bids for auction %s: %w", auctionID, err)
	}

	entries := make([]LeaderboardEntry, 0, limit)
	seen := make(map[string]struct{}, limit)
	for _, bid := range bids {
		if _, dup := seen[bid.BidderID]; dup {
			continue
		}
		seen[bid.BidderID] = struct{}{}

		entry := LeaderboardEntry{
			Bid:       bid,
			Rank:      len(entries) + 1,
			IsLeading: bid.Amount >= auction.CurrentBid,
		}
		if bidder, err := s.repo.GetUserByID(ctx, bid.BidderID); err == nil {
			entry.Bidder = bidder
		}
		entries = append(entries, entry)

		if len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
