package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenDuration is how long an issued credential stays valid
const TokenDuration = 24 * time.Hour

// ContextUserIDKey is the gin context key under which the verified
// bidder/seller id is stored by the auth middleware.
const ContextUserIDKey = "auth_user_id"

// UserClaims is the payload of an issued bearer token
type UserClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Manager issues and validates HS256-signed bearer tokens bound to a
// user id. The rest of the system trusts the id it extracts and never
// re-validates credentials itself.
type Manager struct {
	secret []byte
}

// NewManager creates a token manager with the given signing secret
func NewManager(secret string) (*Manager, error) {
	if secret == "" {
		return nil, fmt.Errorf("token: signing secret must not be empty")
	}
	return &Manager{secret: []byte(secret)}, nil
}

// Generate issues a signed token bound to the given user id
func (m *Manager) Generate(userID string) (string, error) {
	now := time.Now()
	claims := UserClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Validate verifies a token string and returns its claims
func (m *Manager) Validate(tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Method.Alg())
		}
		return m.secret, nil
	})
	if err != nil || !tok.Valid {
		return nil, fmt.Errorf("token: invalid token: %w", err)
	}
	return claims, nil
}
