package cart

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrDuplicateLine   = errors.New("cart has more than one line for a product")
	ErrLineNotFound    = errors.New("product is not in the cart")

	// ErrInsufficientStockHint is advisory: it compares against the stock seen when the
	// product was added, not the live count. Checkout performs the real check.
	ErrInsufficientStockHint = errors.New("requested quantity exceeds known stock")
)

// StockHintError names the product whose requested quantity exceeds its stock snapshot.
type StockHintError struct {
	ProductID uuid.UUID
	Name      string
	Snapshot  int
	Requested int
}

func (e *StockHintError) Error() string {
	return fmt.Sprintf("not enough stock for %s: only %d available, %d requested", e.Name, e.Snapshot, e.Requested)
}

func (e *StockHintError) Unwrap() error { return ErrInsufficientStockHint }

// Line is one product in a cart. Name, Category, UnitPrice and UnitCost are snapshots
// taken when the product was first added. StockSnapshotAtAdd only drives the advisory limit.
type Line struct {
	ProductID          uuid.UUID       `json:"product_id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	UnitCost           decimal.Decimal `json:"unit_cost"`
	Quantity           int             `json:"quantity"`
	StockSnapshotAtAdd int             `json:"stock_snapshot_at_add"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the in-progress sale of one session. It holds at most one line per product,
// in the order products were first added. Not safe for concurrent use.
type Cart struct {
	OwnerID   uuid.UUID
	SessionID string
	lines     []Line
}

func New(ownerID uuid.UUID, sessionID string) *Cart {
	return &Cart{OwnerID: ownerID, SessionID: sessionID}
}

func (c *Cart) index(productID uuid.UUID) int {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddLine adds quantity units of p, merging into an existing line for the same product.
// The merged quantity may not exceed the freshest stock snapshot; on rejection the cart is unchanged.
func (c *Cart) AddLine(p *catalog.Product, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	if i := c.index(p.ID); i >= 0 {
		l := &c.lines[i]
		requested := l.Quantity + quantity
		if requested > p.StockQuantity {
			return &StockHintError{ProductID: p.ID, Name: l.Name, Snapshot: p.StockQuantity, Requested: requested}
		}
		l.Quantity = requested
		l.StockSnapshotAtAdd = p.StockQuantity
		return nil
	}
	if quantity > p.StockQuantity {
		return &StockHintError{ProductID: p.ID, Name: p.Name, Snapshot: p.StockQuantity, Requested: quantity}
	}
	c.lines = append(c.lines, Line{
		ProductID:          p.ID,
		Name:               p.Name,
		Category:           string(p.Category),
		UnitPrice:          p.SellingPrice,
		UnitCost:           p.UnitCost,
		Quantity:           quantity,
		StockSnapshotAtAdd: p.StockQuantity,
	})
	return nil
}

// IncrementLine adds one unit, bounded by the line's stock snapshot.
func (c *Cart) IncrementLine(productID uuid.UUID) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	l := &c.lines[i]
	if l.Quantity+1 > l.StockSnapshotAtAdd {
		return &StockHintError{ProductID: productID, Name: l.Name, Snapshot: l.StockSnapshotAtAdd, Requested: l.Quantity + 1}
	}
	l.Quantity++
	return nil
}

// DecrementLine removes one unit; the last unit removes the line.
func (c *Cart) DecrementLine(productID uuid.UUID) error {
	i := c.index(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if c.lines[i].Quantity <= 1 {
		c.removeAt(i)
		return nil
	}
	c.lines[i].Quantity--
	return nil
}

// RemoveLine drops the product's line and reports whether one existed.
func (c *Cart) RemoveLine(productID uuid.UUID) bool {
	i := c.index(productID)
	if i < 0 {
		return false
	}
	c.removeAt(i)
	return true
}

func (c *Cart) removeAt(i int) {
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
}

// Total is recomputed from the lines on every call.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	return append([]Line(nil), c.lines...)
}

func (c *Cart) Line(productID uuid.UUID) (Line, bool) {
	if i := c.index(productID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func (c *Cart) Len() int { return len(c.lines) }

func (c *Cart) Clear() { c.lines = nil }

// Validate checks what can be checked without I/O: non-empty, positive quantities, one line per product.
func (c *Cart) Validate() error {
	if len(c.lines) == 0 {
		return ErrEmptyCart
	}
	seen := make(map[uuid.UUID]struct{}, len(c.lines))
	for _, l := range c.lines {
		if l.Quantity < 1 {
			return fmt.Errorf("%w: %s has quantity %d", ErrInvalidQuantity, l.Name, l.Quantity)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateLine, l.Name)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

type draft struct {
	OwnerID   uuid.UUID `json:"owner_id"`
	SessionID string    `json:"session_id"`
	Lines     []Line    `json:"lines"`
}

func (c *Cart) MarshalJSON() ([]byte, error) {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	return json.Marshal(draft{OwnerID: c.OwnerID, SessionID: c.SessionID, Lines: lines})
}

// UnmarshalJSON restores a draft and rejects one that breaks the line invariants.
func (c *Cart) UnmarshalJSON(data []byte) error {
	var d draft
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	restored := Cart{OwnerID: d.OwnerID, SessionID: d.SessionID, lines: d.Lines}
	if len(restored.lines) > 0 {
		if err := restored.Validate(); err != nil {
			return err
		}
	}
	*c = restored
	return nil
}
