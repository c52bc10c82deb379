package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInactiveAccount    = errors.New("store account is deactivated")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (string, error)
	// Authenticate verifies a token and returns the store account it was issued to.
	// Tokens of accounts deactivated after login are refused.
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}
