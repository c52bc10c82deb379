// Package memstore is the in-process backend for STORE_BACKEND=memory and for tests.
// One Store holds products and sales for every account, so catalog edits, sale reads
// and checkout all see the same stock.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/checkout"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/google/uuid"
)

// Store serializes all work of one owner behind that owner's mutex. Different owners
// never block each other.
type Store struct {
	mu     sync.Mutex
	owners map[uuid.UUID]*ownerData
	now    func() time.Time
}

type ownerData struct {
	mu       sync.Mutex
	products map[uuid.UUID]catalog.Product
	sales    []*sale.Sale
	byKey    map[string]*sale.Sale
}

func New() *Store {
	return &Store{owners: make(map[uuid.UUID]*ownerData), now: time.Now}
}

var (
	_ checkout.Store     = (*Store)(nil)
	_ catalog.Repository = (*Products)(nil)
	_ sale.Repository    = (*Sales)(nil)
)

func (s *Store) owner(id uuid.UUID) *ownerData {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.owners[id]
	if !ok {
		o = &ownerData{products: make(map[uuid.UUID]catalog.Product), byKey: make(map[string]*sale.Sale)}
		s.owners[id] = o
	}
	return o
}

// Products is the catalog view of the store.
func (s *Store) Products() *Products { return &Products{store: s} }

// Sales is the ledger view of the store.
func (s *Store) Sales() *Sales { return &Sales{store: s} }

// ── checkout.Store ────────────────────────────────────────────────────────────

// Atomically holds the owner lock for the whole of fn. Writes are staged on the Tx and
// applied only when fn returns nil and ctx is still live.
func (s *Store) Atomically(ctx context.Context, ownerID uuid.UUID, fn func(tx checkout.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	o := s.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()

	tx := &memTx{owner: o, decrements: make(map[uuid.UUID]int)}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now().UTC()
	for id, qty := range tx.decrements {
		p := o.products[id]
		p.StockQuantity -= qty
		p.UpdatedAt = now
		o.products[id] = p
	}
	for _, sl := range tx.sales {
		o.sales = append(o.sales, sl)
		o.byKey[sl.IdempotencyKey] = sl
	}
	return nil
}

type memTx struct {
	owner      *ownerData
	decrements map[uuid.UUID]int
	sales      []*sale.Sale
}

func (t *memTx) FindSaleByKey(_ context.Context, key string) (*sale.Sale, error) {
	if sl, ok := t.owner.byKey[key]; ok {
		return sl.Clone(), nil
	}
	return nil, sale.ErrNotFound
}

// LockProducts reports stock net of decrements already staged in this unit.
func (t *memTx) LockProducts(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	for _, id := range ids {
		p, ok := t.owner.products[id]
		if !ok {
			continue
		}
		p.StockQuantity -= t.decrements[id]
		out[id] = &p
	}
	return out, nil
}

func (t *memTx) DecrementStock(_ context.Context, productID uuid.UUID, qty int) error {
	p, ok := t.owner.products[productID]
	if !ok || p.StockQuantity-t.decrements[productID] < qty {
		return checkout.ErrInsufficientStock
	}
	t.decrements[productID] += qty
	return nil
}

func (t *memTx) InsertSale(_ context.Context, s *sale.Sale) error {
	if _, exists := t.owner.byKey[s.IdempotencyKey]; exists {
		return checkout.ErrSaleExists
	}
	t.sales = append(t.sales, s.Clone())
	return nil
}

// ── catalog.Repository ────────────────────────────────────────────────────────

type Products struct{ store *Store }

func (r *Products) Create(_ context.Context, p *catalog.Product) error {
	o := r.store.owner(p.OwnerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	if barcodeTaken(o, p.Barcode, uuid.Nil) {
		return catalog.ErrDuplicateBarcode
	}
	now := r.store.now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	o.products[p.ID] = *p
	return nil
}

func (r *Products) Update(_ context.Context, p *catalog.Product) error {
	o := r.store.owner(p.OwnerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	old, ok := o.products[p.ID]
	if !ok {
		return catalog.ErrNotFound
	}
	if barcodeTaken(o, p.Barcode, p.ID) {
		return catalog.ErrDuplicateBarcode
	}
	p.CreatedAt = old.CreatedAt
	p.UpdatedAt = r.store.now().UTC()
	o.products[p.ID] = *p
	return nil
}

func (r *Products) SetStock(_ context.Context, ownerID, id uuid.UUID, qty int) error {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.products[id]
	if !ok {
		return catalog.ErrNotFound
	}
	p.StockQuantity = qty
	p.UpdatedAt = r.store.now().UTC()
	o.products[id] = p
	return nil
}

func (r *Products) Delete(_ context.Context, ownerID, id uuid.UUID) error {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(o.products, id)
	return nil
}

func (r *Products) GetByID(_ context.Context, ownerID, id uuid.UUID) (*catalog.Product, error) {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (r *Products) GetByBarcode(_ context.Context, ownerID uuid.UUID, barcode string) (*catalog.Product, error) {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.products {
		if p.Barcode == barcode {
			cp := p
			return &cp, nil
		}
	}
	return nil, catalog.ErrNotFound
}

func (r *Products) List(_ context.Context, ownerID uuid.UUID, f catalog.Filter) ([]*catalog.Product, error) {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	needle := strings.ToLower(f.NameContains)
	var out []*catalog.Product
	for _, p := range o.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if f.MaxStock != nil && p.StockQuantity > *f.MaxStock {
			continue
		}
		cp := p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func barcodeTaken(o *ownerData, barcode string, except uuid.UUID) bool {
	for id, p := range o.products {
		if id != except && p.Barcode == barcode {
			return true
		}
	}
	return false
}

// ── sale.Repository ───────────────────────────────────────────────────────────

type Sales struct{ store *Store }

func (r *Sales) GetByID(_ context.Context, ownerID, id uuid.UUID) (*sale.Sale, error) {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, sl := range o.sales {
		if sl.ID == id {
			return sl.Clone(), nil
		}
	}
	return nil, sale.ErrNotFound
}

func (r *Sales) List(_ context.Context, ownerID uuid.UUID, from, to time.Time) ([]*sale.Sale, error) {
	o := r.store.owner(ownerID)
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []*sale.Sale
	for i := len(o.sales) - 1; i >= 0; i-- {
		sl := o.sales[i]
		if !from.IsZero() && sl.CreatedAt.Before(from) {
			continue
		}
		if !to.IsZero() && !sl.CreatedAt.Before(to) {
			continue
		}
		out = append(out, sl.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
