// Package session carries the authenticated store identity through a request context.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotAuthenticated means no store account is bound to the context.
var ErrNotAuthenticated = errors.New("not authenticated")

type ownerKey struct{}

// WithOwner binds the store account ID to ctx.
func WithOwner(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerID)
}

// Owner returns the store account bound to ctx. A missing or nil ID is ErrNotAuthenticated.
func Owner(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(ownerKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, ErrNotAuthenticated
	}
	return id, nil
}
