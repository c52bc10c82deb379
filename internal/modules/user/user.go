package user

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("store account not found")
	ErrEmailTaken   = errors.New("email is already registered")
	ErrInvalidInput = errors.New("invalid input")
)

// User is a store account. Its ID partitions every product and sale the store owns.
type User struct {
	ID           uuid.UUID `json:"id"`
	StoreName    string    `json:"store_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository defines store account storage.
type Repository interface {
	CreateUser(ctx context.Context, user *User) error
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*User, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
}
