package checkout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/georgemunganga/tindahan-pos/internal/platform/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore runs each checkout in a serializable transaction. Touched product rows
// are locked in id order, so commits that share products queue up and commits on
// disjoint products run side by side.
type PostgresStore struct{ db *sql.DB }

func NewPostgresStore(db *sql.DB) *PostgresStore { return &PostgresStore{db: db} }

func (s *PostgresStore) Atomically(ctx context.Context, ownerID uuid.UUID, fn func(tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return unavailable(OutcomeRolledBack, err)
	}
	defer tx.Rollback()

	if err := fn(&pgTx{tx: tx, ownerID: ownerID}); err != nil {
		if database.IsContention(err) {
			return unavailable(OutcomeRolledBack, err)
		}
		return err
	}
	if err := ctx.Err(); err != nil {
		return unavailable(OutcomeRolledBack, err)
	}
	if err := tx.Commit(); err != nil {
		if database.IsContention(err) {
			return unavailable(OutcomeRolledBack, err)
		}
		return unavailable(OutcomeUnknown, err)
	}
	return nil
}

type pgTx struct {
	tx      *sql.Tx
	ownerID uuid.UUID
}

func (t *pgTx) FindSaleByKey(ctx context.Context, key string) (*sale.Sale, error) {
	s := &sale.Sale{}
	err := t.tx.QueryRowContext(ctx, `
		SELECT id, owner_id, idempotency_key, created_at
		FROM sales WHERE owner_id=$1 AND idempotency_key=$2`, t.ownerID, key).
		Scan(&s.ID, &s.OwnerID, &s.IdempotencyKey, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sale.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := t.tx.QueryContext(ctx, `
		SELECT product_id, name, category, unit_price, unit_cost, quantity
		FROM sale_items WHERE sale_id=$1 ORDER BY line_no`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var it sale.Item
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Category, &it.UnitPrice, &it.UnitCost, &it.Quantity); err != nil {
			return nil, err
		}
		s.Items = append(s.Items, it)
	}
	return s, rows.Err()
}

func (t *pgTx) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, id.String())
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT id, owner_id, name, category, barcode, unit_cost, selling_price, stock_quantity, created_at, updated_at
		FROM products WHERE owner_id=$1 AND id = ANY($2::uuid[])
		ORDER BY id
		FOR UPDATE`, t.ownerID, pq.Array(keys))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID]*catalog.Product, len(ids))
	for rows.Next() {
		p := &catalog.Product{}
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Category, &p.Barcode,
			&p.UnitCost, &p.SellingPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (t *pgTx) DecrementStock(ctx context.Context, productID uuid.UUID, qty int) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE products SET stock_quantity = stock_quantity - $3, updated_at = NOW()
		WHERE id=$1 AND owner_id=$2 AND stock_quantity >= $3`, productID, t.ownerID, qty)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		// Rows are locked by LockProducts, so this only happens if the caller skipped it.
		return fmt.Errorf("decrement of product %s did not apply", productID)
	}
	return nil
}

func (t *pgTx) InsertSale(ctx context.Context, s *sale.Sale) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO sales (id, owner_id, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4)`, s.ID, t.ownerID, s.IdempotencyKey, s.CreatedAt)
	if database.IsUniqueViolation(err) {
		return ErrSaleExists
	}
	if err != nil {
		return err
	}

	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO sale_items (sale_id, line_no, product_id, name, category, unit_price, unit_cost, quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, it := range s.Items {
		if _, err := stmt.ExecContext(ctx, s.ID, i+1, it.ProductID, it.Name, it.Category,
			it.UnitPrice, it.UnitCost, it.Quantity); err != nil {
			return err
		}
	}
	return nil
}
