package sale

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Sale, error) {
	s := &Sale{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, idempotency_key, created_at
		FROM sales WHERE id=$1 AND owner_id=$2`, id, ownerID).
		Scan(&s.ID, &s.OwnerID, &s.IdempotencyKey, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, []*Sale{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*Sale, error) {
	query := `SELECT id, owner_id, idempotency_key, created_at FROM sales WHERE owner_id=$1`
	args := []interface{}{ownerID}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(` AND created_at >= $%d`, len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(` AND created_at < $%d`, len(args))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sales []*Sale
	for rows.Next() {
		s := &Sale{}
		if err := rows.Scan(&s.ID, &s.OwnerID, &s.IdempotencyKey, &s.CreatedAt); err != nil {
			return nil, err
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// attachItems loads the lines of every sale in one round trip.
func (r *postgresRepo) attachItems(ctx context.Context, sales []*Sale) error {
	if len(sales) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*Sale, len(sales))
	ids := make([]string, 0, len(sales))
	for _, s := range sales {
		byID[s.ID] = s
		ids = append(ids, s.ID.String())
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT sale_id, product_id, name, category, unit_price, unit_cost, quantity
		FROM sale_items WHERE sale_id = ANY($1::uuid[])
		ORDER BY sale_id, line_no`, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var saleID uuid.UUID
		var it Item
		if err := rows.Scan(&saleID, &it.ProductID, &it.Name, &it.Category,
			&it.UnitPrice, &it.UnitCost, &it.Quantity); err != nil {
			return err
		}
		if s, ok := byID[saleID]; ok {
			s.Items = append(s.Items, it)
		}
	}
	return rows.Err()
}
