package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/georgemunganga/tindahan-pos/internal/modules/cart"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/google/uuid"
)

var (
	ErrEmptyCart         = cart.ErrEmptyCart
	ErrInvalidCart       = errors.New("invalid cart")
	ErrNotAuthenticated  = session.ErrNotAuthenticated
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrStoreUnavailable  = errors.New("store unavailable")

	// ErrSaleExists is returned by a Tx when another commit already recorded a sale
	// under the same idempotency key.
	ErrSaleExists = errors.New("sale with this idempotency key already exists")

	// ErrKeyReused means the idempotency key belongs to a recorded sale whose items
	// differ from the cart being committed.
	ErrKeyReused = errors.New("idempotency key was already used for a different cart")
)

// Shortage describes one cart line the store cannot cover.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Available int       `json:"available"`
	Requested int       `json:"requested"`
}

// InsufficientStockError lists every failing line. The first one is also exposed
// through the top-level fields.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Available int
	Requested int
	Lines     []Shortage
}

func newInsufficientStockError(lines []Shortage) *InsufficientStockError {
	return &InsufficientStockError{
		ProductID: lines[0].ProductID,
		Available: lines[0].Available,
		Requested: lines[0].Requested,
		Lines:     lines,
	}
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Lines))
	for _, l := range e.Lines {
		parts = append(parts, fmt.Sprintf("%s (only %d left, %d requested)", l.Name, l.Available, l.Requested))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// Outcome tells the caller whether a failed commit may have been applied.
type Outcome string

const (
	// OutcomeRolledBack means nothing was written; retrying is safe.
	OutcomeRolledBack Outcome = "rolled_back"
	// OutcomeUnknown means the store failed while committing. Retry with the same
	// idempotency key to either get the recorded sale back or commit it once.
	OutcomeUnknown Outcome = "unknown"
)

// UnavailableError reports an infrastructure failure (driver error, timeout, lock
// contention). errors.Is(err, ErrStoreUnavailable) holds for it.
type UnavailableError struct {
	Outcome Outcome
	Err     error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("store unavailable (%s): %v", e.Outcome, e.Err)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrStoreUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(outcome Outcome, err error) *UnavailableError {
	return &UnavailableError{Outcome: outcome, Err: err}
}
