package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"auction-house/internal/auctionerrors"
	model "auction-house/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	user_id       TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar_url    TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS auctions (
	auction_id   TEXT PRIMARY KEY,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL,
	image_url    TEXT NOT NULL DEFAULT '',
	starting_bid DOUBLE PRECISION NOT NULL,
	current_bid  DOUBLE PRECISION NOT NULL,
	end_time     TIMESTAMPTZ NOT NULL,
	seller_id    TEXT NOT NULL REFERENCES users(user_id),
	winner_id    TEXT NOT NULL DEFAULT '',
	is_active    BOOLEAN NOT NULL DEFAULT TRUE,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS bids (
	bid_id     TEXT PRIMARY KEY,
	auction_id TEXT NOT NULL REFERENCES auctions(auction_id),
	bidder_id  TEXT NOT NULL REFERENCES users(user_id),
	amount     DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_bids_auction_ranked
	ON bids (auction_id, amount DESC, created_at ASC);
`

// PostgresRepo is a pgx-backed implementation of AuctionDB
type PostgresRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresRepo connects to Postgres, verifies the connection and
// ensures the schema exists.
func NewPostgresRepo(ctx context.Context, dsn string) (*PostgresRepo, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ensure schema: %w", err)
	}

	return &PostgresRepo{pool: pool}, nil
}

// Close releases the connection pool
func (r *PostgresRepo) Close() {
	r.pool.Close()
}

// CreateUser stores a new user, rejecting duplicate email addresses
func (r *PostgresRepo) CreateUser(ctx context.Context, user model.User) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO users (user_id, name, email, password_hash, avatar_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO NOTHING`,
		user.UserID, user.Name, user.Email, user.PasswordHash, user.AvatarURL)
	if err != nil {
		return fmt.Errorf("create user %s: %w", user.Email, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("create user %s: %w", user.Email, auctionerrors.ErrEmailTaken)
	}
	return nil
}

// GetUserByEmail returns the user registered under the given email
func (r *PostgresRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, name, email, password_hash, avatar_url
		FROM users WHERE email = $1`, email).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user by email: %w", auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetUserByID returns the user with the given id
func (r *PostgresRepo) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, name, email, password_hash, avatar_url
		FROM users WHERE user_id = $1`, userID).
		Scan(&u.UserID, &u.Name, &u.Email, &u.PasswordHash, &u.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, auctionerrors.ErrUserNotFound)
	}
	if err != nil {
		return model.User{}, fmt.Errorf("get user %s: %w", userID, err)
	}
	return u, nil
}

// CreateAuction stores a new auction record
func (r *PostgresRepo) CreateAuction(ctx context.Context, a model.Auction) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO auctions (auction_id, name, description, image_url,
			starting_bid, current_bid, end_time, seller_id, winner_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.AuctionID, a.Name, a.Description, a.ImageURL,
		a.StartingBid, a.CurrentBid, a.EndTime, a.SellerID, a.WinnerID, a.IsActive, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create auction %s: %w", a.AuctionID, err)
	}
	return nil
}

const auctionColumns = `auction_id, name, description, image_url,
	starting_bid, current_bid, end_time, seller_id, winner_id, is_active, created_at`

func scanAuction(row pgx.Row) (model.Auction, error) {
	var a model.Auction
	err := row.Scan(&a.AuctionID, &a.Name, &a.Description, &a.ImageURL,
		&a.StartingBid, &a.CurrentBid, &a.EndTime, &a.SellerID, &a.WinnerID, &a.IsActive, &a.CreatedAt)
	return a, err
}

// GetAuction returns the auction record with the given id
func (r *PostgresRepo) GetAuction(ctx context.Context, auctionID string) (model.Auction, error) {
	a, err := scanAuction(r.pool.QueryRow(ctx,
		`SELECT `+auctionColumns+` FROM auctions WHERE auction_id = $1`, auctionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return model.Auction{}, fmt.Errorf("get auction %s: %w", auctionID, err)
	}
	return a, nil
}

// ListAuctions returns all auction records, newest first
func (r *PostgresRepo) ListAuctions(ctx context.Context) ([]model.Auction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+auctionColumns+` FROM auctions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer rows.Close()

	var auctions []model.Auction
	for rows.Next() {
		a, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("list auctions: %w", err)
		}
		auctions = append(auctions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	return auctions, nil
}

// RecordBid appends a bid to the ledger and updates the auction summary
// in one transaction. The row lock on the auction serializes concurrent
// commits, and the amount guard keeps the current bid monotonic.
func (r *PostgresRepo) RecordBid(ctx context.Context, bid model.Bid) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("record bid: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var current float64
	err = tx.QueryRow(ctx,
		`SELECT current_bid FROM auctions WHERE auction_id = $1 FOR UPDATE`,
		bid.AuctionID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, auctionerrors.ErrAuctionNotFound)
	}
	if err != nil {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO bids (bid_id, auction_id, bidder_id, amount, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		bid.BidID, bid.AuctionID, bid.BidderID, bid.Amount, bid.CreatedAt)
	if err != nil {
		return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
	}

	if bid.Amount > current {
		_, err = tx.Exec(ctx, `
			UPDATE auctions SET current_bid = $2, winner_id = $3
			WHERE auction_id = $1 AND current_bid < $2`,
			bid.AuctionID, bid.Amount, bid.BidderID)
		if err != nil {
			return fmt.Errorf("record bid for auction %s: %w", bid.AuctionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("record bid for auction %s: commit: %w", bid.AuctionID, err)
	}
	return nil
}

// GetBidsByAuction returns the auction's bids sorted by amount descending,
// then creation time ascending for ties
func (r *PostgresRepo) GetBidsByAuction(ctx context.Context, auctionID string) ([]model.Bid, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bid_id, auction_id, bidder_id, amount, created_at
		FROM bids WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC`, auctionID)
	if err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	defer rows.Close()

	var bids []model.Bid
	for rows.Next() {
		var b model.Bid
		if err := rows.Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
		}
		bids = append(bids, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, err)
	}
	if len(bids) == 0 {
		return nil, fmt.Errorf("get bids for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	return bids, nil
}

// GetWinningBid returns the highest bid for an auction, earliest bid
// winning ties at equal amount
func (r *PostgresRepo) GetWinningBid(ctx context.Context, auctionID string) (model.Bid, error) {
	var b model.Bid
	err := r.pool.QueryRow(ctx, `
		SELECT bid_id, auction_id, bidder_id, amount, created_at
		FROM bids WHERE auction_id = $1
		ORDER BY amount DESC, created_at ASC
		LIMIT 1`, auctionID).
		Scan(&b.BidID, &b.AuctionID, &b.BidderID, &b.Amount, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, auctionerrors.ErrNoBids)
	}
	if err != nil {
		return model.Bid{}, fmt.Errorf("get winning bid for auction %s: %w", auctionID, err)
	}
	return b, nil
}

// FinalizeAuction closes an auction and records its winner. The is_active
// guard makes it idempotent under concurrent resolvers.
func (r *PostgresRepo) FinalizeAuction(ctx context.Context, auctionID, winnerID string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE auctions SET is_active = FALSE, winner_id = $2
		WHERE auction_id = $1 AND is_active = TRUE`,
		auctionID, winnerID)
	if err != nil {
		return fmt.Errorf("finalize auction %s: %w", auctionID, err)
	}
	if tag.RowsAffected() == 0 {
		// Either already finalized (fine) or missing.
		var exists bool
		if err := r.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM auctions WHERE auction_id = $1)`, auctionID).
			Scan(&exists); err != nil {
			return fmt.Errorf("finalize auction %s: %w", auctionID, err)
		}
		if !exists {
			return fmt.Errorf("finalize auction %s: %w", auctionID, auctionerrors.ErrAuctionNotFound)
		}
	}
	return nil
}
