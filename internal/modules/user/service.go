package user

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the interface for store account business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	// Deactivate closes the store account. Its tokens stop working on the next request.
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// RegisterRequest is the payload for opening a store account.
type RegisterRequest struct {
	StoreName string `json:"store_name" validate:"required,min=2,max=100"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,max=72"`
}
