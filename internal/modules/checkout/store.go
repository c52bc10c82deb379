package checkout

import (
	"context"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/google/uuid"
)

// Store runs the read-verify-write of a checkout as one isolated unit.
//
// Atomically calls fn with a Tx scoped to ownerID. Writes made through the Tx become
// visible only if fn returns nil and the unit commits; otherwise none of them do.
// While fn runs, no other unit may change the stock of the products fn locked.
//
// Implementations return *UnavailableError with OutcomeUnknown when the final commit
// itself fails, since the store may or may not have applied it.
type Store interface {
	Atomically(ctx context.Context, ownerID uuid.UUID, fn func(tx Tx) error) error
}

// Tx is the view of the store inside one atomic unit.
type Tx interface {
	// FindSaleByKey returns sale.ErrNotFound when no sale carries key.
	FindSaleByKey(ctx context.Context, key string) (*sale.Sale, error)
	// LockProducts reads the authoritative rows for ids and holds them until the unit
	// ends. Products that do not exist are absent from the map.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error
	InsertSale(ctx context.Context, s *sale.Sale) error
}
