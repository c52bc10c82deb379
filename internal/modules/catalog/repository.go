package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound         = errors.New("product not found")
	ErrDuplicateBarcode = errors.New("a product with this barcode already exists")
	ErrInvalidInput     = errors.New("invalid input")
)

// Repository defines owner-scoped product storage. Every method only sees the owner's products.
type Repository interface {
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	SetStock(ctx context.Context, ownerID, id uuid.UUID, qty int) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Product, error)
	GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*Product, error)
	List(ctx context.Context, ownerID uuid.UUID, f Filter) ([]*Product, error)
}
