package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrInvalidSession = errors.New("session_id is required")
	// ErrDraftUnavailable means the draft store could not be reached. The saved cart is
	// left as it was and the request can be retried.
	ErrDraftUnavailable = errors.New("cart storage unavailable")
)

// Lookup resolves a scanned barcode or tapped product into a product snapshot.
type Lookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*catalog.Product, error)
}

// ProductRef identifies the product to add; exactly one field is set.
type ProductRef struct {
	ProductID uuid.UUID
	Barcode   string
}

// Service manages the session carts of the store bound to ctx. Mutations of one
// session are applied one at a time in arrival order.
type Service interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	AddProduct(ctx context.Context, sessionID string, ref ProductRef, quantity int) (*Cart, error)
	Increment(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error)
	Decrement(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error)
	Remove(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error)
	// Discard abandons the cart. Nothing was written to inventory, so this only drops the draft.
	Discard(ctx context.Context, sessionID string) error
	// Finalize runs commit on the session cart while holding the session. The cart is
	// cleared only when commit returns nil; otherwise it is kept for correction and retry.
	Finalize(ctx context.Context, sessionID string, commit func(ctx context.Context, c *Cart) error) error
}

type service struct {
	lookup Lookup
	drafts DraftStore
	locks  *keyedMutex
	logger *zap.Logger
}

func NewService(lookup Lookup, drafts DraftStore, logger *zap.Logger) Service {
	return &service{lookup: lookup, drafts: drafts, locks: newKeyedMutex(), logger: logger}
}

func (s *service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	var out *Cart
	err := s.withCart(ctx, sessionID, func(c *Cart) (bool, error) {
		out = c
		return false, nil
	})
	return out, err
}

func (s *service) AddProduct(ctx context.Context, sessionID string, ref ProductRef, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		p, err := s.resolve(ctx, ref)
		if err != nil {
			return err
		}
		return c.AddLine(p, quantity)
	})
}

func (s *service) Increment(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error { return c.IncrementLine(productID) })
}

func (s *service) Decrement(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error { return c.DecrementLine(productID) })
}

func (s *service) Remove(ctx context.Context, sessionID string, productID uuid.UUID) (*Cart, error) {
	return s.mutate(ctx, sessionID, func(c *Cart) error {
		c.RemoveLine(productID)
		return nil
	})
}

func (s *service) Discard(ctx context.Context, sessionID string) error {
	return s.withCart(ctx, sessionID, func(c *Cart) (bool, error) {
		c.Clear()
		if err := s.drafts.Delete(ctx, c.OwnerID, c.SessionID); err != nil {
			return false, fmt.Errorf("%w: %v", ErrDraftUnavailable, err)
		}
		return false, nil
	})
}

func (s *service) Finalize(ctx context.Context, sessionID string, commit func(ctx context.Context, c *Cart) error) error {
	return s.withCart(ctx, sessionID, func(c *Cart) (bool, error) {
		if err := commit(ctx, c); err != nil {
			return false, err
		}
		c.Clear()
		if err := s.drafts.Delete(ctx, c.OwnerID, c.SessionID); err != nil {
			// The sale is committed; a leftover draft must not turn that into a failure.
			s.logger.Error("failed to delete cart draft after checkout",
				zap.String("owner_id", c.OwnerID.String()),
				zap.String("session_id", c.SessionID),
				zap.Error(err))
		}
		return false, nil
	})
}

func (s *service) resolve(ctx context.Context, ref ProductRef) (*catalog.Product, error) {
	switch {
	case ref.ProductID != uuid.Nil:
		return s.lookup.FindByID(ctx, ref.ProductID)
	case strings.TrimSpace(ref.Barcode) != "":
		return s.lookup.FindByBarcode(ctx, ref.Barcode)
	default:
		return nil, fmt.Errorf("%w: product_id or barcode is required", catalog.ErrInvalidInput)
	}
}

// mutate applies fn and saves the cart only if fn succeeded.
func (s *service) mutate(ctx context.Context, sessionID string, fn func(c *Cart) error) (*Cart, error) {
	var out *Cart
	err := s.withCart(ctx, sessionID, func(c *Cart) (bool, error) {
		if err := fn(c); err != nil {
			return false, err
		}
		out = c
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// withCart loads the session cart under the session lock and saves it when fn asks to.
func (s *service) withCart(ctx context.Context, sessionID string, fn func(c *Cart) (save bool, err error)) error {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return err
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return ErrInvalidSession
	}

	unlock := s.locks.Lock(draftKey(ownerID, sessionID))
	defer unlock()

	c, err := s.drafts.Load(ctx, ownerID, sessionID)
	switch {
	case errors.Is(err, ErrNoDraft):
		c = New(ownerID, sessionID)
	case errors.Is(err, ErrCorruptDraft):
		s.logger.Warn("discarding unreadable cart draft",
			zap.String("owner_id", ownerID.String()),
			zap.String("session_id", sessionID),
			zap.Error(err))
		c = New(ownerID, sessionID)
	case err != nil:
		return fmt.Errorf("%w: %v", ErrDraftUnavailable, err)
	}

	save, err := fn(c)
	if err != nil {
		return err
	}
	if save {
		if err := s.drafts.Save(ctx, c); err != nil {
			return fmt.Errorf("%w: %v", ErrDraftUnavailable, err)
		}
	}
	return nil
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*refMutex)}
}

func (k *keyedMutex) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
