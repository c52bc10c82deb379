package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/modules/cart"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Invalidator is told which products changed stock after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context, ownerID uuid.UUID, ids ...uuid.UUID)
}

type Request struct {
	Cart *cart.Cart
	// IdempotencyKey identifies the checkout attempt. Empty means a fresh key is generated
	// and the attempt cannot be safely replayed.
	IdempotencyKey string
}

type Result struct {
	Sale *sale.Sale
	// Replayed is true when the key matched an already recorded sale and nothing was written.
	Replayed bool
}

// Committer turns a cart into a recorded sale and the matching stock decrements,
// all or nothing.
type Committer struct {
	store       Store
	timeout     time.Duration
	logger      *zap.Logger
	invalidator Invalidator
	now         func() time.Time
}

func NewCommitter(store Store, timeout time.Duration, logger *zap.Logger) *Committer {
	return &Committer{store: store, timeout: timeout, logger: logger, now: time.Now}
}

// WithInvalidator registers a cache to clear after every successful commit.
func (c *Committer) WithInvalidator(inv Invalidator) *Committer {
	c.invalidator = inv
	return c
}

func (c *Committer) Commit(ctx context.Context, req Request) (*sale.Sale, error) {
	res, err := c.Checkout(ctx, req)
	if err != nil {
		return nil, err
	}
	return res.Sale, nil
}

// Checkout is Commit that also reports whether the sale was a replay.
func (c *Committer) Checkout(ctx context.Context, req Request) (Result, error) {
	ctx, span := otel.Tracer("tindahan.checkout").Start(ctx, "checkout.Commit")
	defer span.End()

	res, err := c.checkout(ctx, req)

	span.SetAttributes(attribute.Bool("replayed", res.Replayed))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (c *Committer) checkout(ctx context.Context, req Request) (Result, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return Result{}, ErrNotAuthenticated
	}
	if req.Cart == nil {
		return Result{}, ErrEmptyCart
	}
	if req.Cart.OwnerID != ownerID {
		return Result{}, fmt.Errorf("%w: cart belongs to another store", ErrInvalidCart)
	}
	if err := req.Cart.Validate(); err != nil {
		if errors.Is(err, cart.ErrEmptyCart) {
			return Result{}, ErrEmptyCart
		}
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidCart, err)
	}

	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}
	lines := req.Cart.Lines()

	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("owner_id", ownerID.String()),
		attribute.Int("lines", len(lines)),
	)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var res Result
	err = c.store.Atomically(ctx, ownerID, func(tx Tx) error {
		res = Result{}
		return c.apply(ctx, tx, ownerID, key, lines, &res)
	})
	if errors.Is(err, ErrSaleExists) {
		res, err = c.replay(ctx, ownerID, key)
	}
	if err == nil && res.Replayed && !sameItems(res.Sale, lines) {
		err = ErrKeyReused
	}
	if err != nil {
		err = classify(ctx, err)
		c.logFailure(ownerID, key, err)
		return Result{}, err
	}

	if res.Replayed {
		c.logger.Info("checkout replayed",
			zap.String("owner_id", ownerID.String()),
			zap.String("sale_id", res.Sale.ID.String()),
			zap.String("idempotency_key", key))
		return res, nil
	}

	if c.invalidator != nil {
		ids := make([]uuid.UUID, 0, len(lines))
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
		c.invalidator.Invalidate(context.WithoutCancel(ctx), ownerID, ids...)
	}
	c.logger.Info("checkout committed",
		zap.String("owner_id", ownerID.String()),
		zap.String("sale_id", res.Sale.ID.String()),
		zap.Int("lines", len(res.Sale.Items)),
		zap.String("total", res.Sale.TotalAmount().String()))
	return res, nil
}

// apply is the body of the atomic unit: replay check, authoritative read, verify, write.
func (c *Committer) apply(ctx context.Context, tx Tx, ownerID uuid.UUID, key string, lines []cart.Line, res *Result) error {
	existing, err := tx.FindSaleByKey(ctx, key)
	switch {
	case err == nil:
		*res = Result{Sale: existing, Replayed: true}
		return nil
	case !errors.Is(err, sale.ErrNotFound):
		return err
	}

	ids := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	stock, err := tx.LockProducts(ctx, ids)
	if err != nil {
		return err
	}

	var short []Shortage
	for _, l := range lines {
		available := 0
		if p, ok := stock[l.ProductID]; ok {
			available = p.StockQuantity
		}
		if l.Quantity > available {
			short = append(short, Shortage{ProductID: l.ProductID, Name: l.Name, Available: available, Requested: l.Quantity})
		}
	}
	if len(short) > 0 {
		return newInsufficientStockError(short)
	}

	s := &sale.Sale{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		IdempotencyKey: key,
		CreatedAt:      c.now().UTC(),
		Items:          make([]sale.Item, 0, len(lines)),
	}
	for _, l := range lines {
		if err := tx.DecrementStock(ctx, l.ProductID, l.Quantity); err != nil {
			return err
		}
		s.Items = append(s.Items, sale.Item{
			ProductID: l.ProductID,
			Name:      l.Name,
			Category:  l.Category,
			UnitPrice: l.UnitPrice,
			UnitCost:  stock[l.ProductID].UnitCost,
			Quantity:  l.Quantity,
		})
	}
	if err := tx.InsertSale(ctx, s); err != nil {
		return err
	}
	*res = Result{Sale: s}
	return nil
}

// Replay returns the sale already recorded under key for the store bound to ctx, or
// sale.ErrNotFound. It lets a client whose cart was already cleared by a successful
// commit recover the receipt it never received.
func (c *Committer) Replay(ctx context.Context, key string) (*sale.Sale, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	res, err := c.replay(ctx, ownerID, key)
	if err != nil {
		if errors.Is(err, sale.ErrNotFound) {
			return nil, err
		}
		return nil, classify(ctx, err)
	}
	return res.Sale, nil
}

// replay fetches the sale a concurrent commit recorded under key.
func (c *Committer) replay(ctx context.Context, ownerID uuid.UUID, key string) (Result, error) {
	var res Result
	err := c.store.Atomically(ctx, ownerID, func(tx Tx) error {
		s, err := tx.FindSaleByKey(ctx, key)
		if err != nil {
			return err
		}
		res = Result{Sale: s, Replayed: true}
		return nil
	})
	return res, err
}

// sameItems reports whether s sold exactly the products and quantities in lines.
func sameItems(s *sale.Sale, lines []cart.Line) bool {
	if len(s.Items) != len(lines) {
		return false
	}
	want := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		want[l.ProductID] = l.Quantity
	}
	for _, it := range s.Items {
		if qty, ok := want[it.ProductID]; !ok || qty != it.Quantity {
			return false
		}
	}
	return true
}

// classify leaves domain errors alone and turns everything else into *UnavailableError.
func classify(ctx context.Context, err error) error {
	var unavailableErr *UnavailableError
	switch {
	case errors.Is(err, ErrInsufficientStock), errors.Is(err, ErrKeyReused), errors.As(err, &unavailableErr):
		return err
	case ctx.Err() != nil:
		return unavailable(OutcomeRolledBack, fmt.Errorf("commit timed out: %w", err))
	default:
		return unavailable(OutcomeRolledBack, err)
	}
}

func (c *Committer) logFailure(ownerID uuid.UUID, key string, err error) {
	fields := []zap.Field{
		zap.String("owner_id", ownerID.String()),
		zap.String("idempotency_key", key),
		zap.Error(err),
	}
	var unavailableErr *UnavailableError
	if errors.As(err, &unavailableErr) {
		c.logger.Error("checkout failed", append(fields, zap.String("outcome", string(unavailableErr.Outcome)))...)
		return
	}
	c.logger.Info("checkout rejected", fields...)
}
