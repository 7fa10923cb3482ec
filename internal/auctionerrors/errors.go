package auctionerrors

import "errors"

// Repository-level errors
var (
	ErrAuctionNotFound = errors.New("auction not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrNoBids          = errors.New("no bids found for auction")
	ErrEmailTaken      = errors.New("user already exists")
)

// business logic errors
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrBidTooLow          = errors.New("bid amount too low")
	ErrAuctionEnded       = errors.New("auction has ended")
	ErrSelfBidForbidden   = errors.New("seller cannot bid on their own auction")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("missing or invalid credentials")
)
