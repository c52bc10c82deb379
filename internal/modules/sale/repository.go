package sale

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("sale not found")

// Repository is the read side of the sale ledger. Sales are only ever appended by checkout.
type Repository interface {
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Sale, error)
	// List returns sales created in [from, to), newest first. Zero bounds are open.
	List(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*Sale, error)
}
