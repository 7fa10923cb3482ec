package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"auction-house/internal/auctionerrors"
	"auction-house/internal/models"
	"auction-house/internal/repository"
	"auction-house/internal/token"
	"auction-house/utils"
)

// UserService handles registration, login and credential issuance
type UserService struct {
	repo   repository.AuctionDB
	tokens *token.Manager
}

// NewUserService creates a new UserService instance
func NewUserService(repo repository.AuctionDB, tokens *token.Manager) *UserService {
	return &UserService{repo: repo, tokens: tokens}
}

// RegisterParams carries the fields of a registration request
type RegisterParams struct {
	Name      string
	Email     string
	Password  string
	AvatarURL string
}

// Register creates a new user with a bcrypt-hashed password and issues a
// bearer token for the fresh account. Duplicate emails are rejected.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (models.User, string, error) {
	if params.Name == "" || params.Email == "" || params.Password == "" {
		return models.User{}, "", fmt.Errorf("service: %w - missing name, email or password", auctionerrors.ErrInvalidInput)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, "", fmt.Errorf("service: failed to hash password: %w", err)
	}

	user := models.User{
		UserID:       utils.GenerateID(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		AvatarURL:    params.AvatarURL,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return models.User{}, "", fmt.Errorf("service: failed to create user: %w", err)
	}

	signed, err := s.tokens.Generate(user.UserID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("service: failed to issue token: %w", err)
	}

	utils.Info("user registered", map[string]any{"user_id": user.UserID})
	return user, signed, nil
}

// Login verifies the credentials and issues a bearer token. The error
// never reveals whether the email or the password was wrong.
func (s *UserService) Login(ctx context.Context, email, password string) (models.User, string, error) {
	if email == "" || password == "" {
		return models.User{}, "", fmt.Errorf("service: %w - missing email or password", auctionerrors.ErrInvalidInput)
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, auctionerrors.ErrUserNotFound) {
			return models.User{}, "", fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
		}
		return models.User{}, "", fmt.Errorf("service: failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.User{}, "", fmt.Errorf("service: %w", auctionerrors.ErrInvalidCredentials)
	}

	signed, err := s.tokens.Generate(user.UserID)
	if err != nil {
		return models.User{}, "", fmt.Errorf("service: failed to issue token: %w", err)
	}

	return user, signed, nil
}
