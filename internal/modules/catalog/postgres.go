package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/georgemunganga/tindahan-pos/internal/platform/database"
	"github.com/google/uuid"
)

type postgresRepo struct{ db *sql.DB }

func NewPostgresRepository(db *sql.DB) Repository { return &postgresRepo{db: db} }

const productColumns = `id,owner_id,name,category,barcode,unit_cost,selling_price,stock_quantity,created_at,updated_at`

func (r *postgresRepo) Create(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO products
		  (id, owner_id, name, category, barcode, unit_cost, selling_price, stock_quantity)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING created_at, updated_at`,
		p.ID, p.OwnerID, p.Name, p.Category, p.Barcode,
		p.UnitCost, p.SellingPrice, p.StockQuantity).Scan(&p.CreatedAt, &p.UpdatedAt)
	if database.IsUniqueViolation(err) {
		return ErrDuplicateBarcode
	}
	return err
}

func (r *postgresRepo) Update(ctx context.Context, p *Product) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE products
		SET name=$3, category=$4, barcode=$5, unit_cost=$6, selling_price=$7,
		    stock_quantity=$8, updated_at=NOW()
		WHERE id=$1 AND owner_id=$2
		RETURNING updated_at`,
		p.ID, p.OwnerID, p.Name, p.Category, p.Barcode,
		p.UnitCost, p.SellingPrice, p.StockQuantity).Scan(&p.UpdatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ErrNotFound
	case database.IsUniqueViolation(err):
		return ErrDuplicateBarcode
	}
	return err
}

func (r *postgresRepo) SetStock(ctx context.Context, ownerID, id uuid.UUID, qty int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE products SET stock_quantity=$1, updated_at=NOW() WHERE id=$2 AND owner_id=$3`,
		qty, id, ownerID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *postgresRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func (r *postgresRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*Product, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id=$1 AND owner_id=$2`, id, ownerID))
}

func (r *postgresRepo) GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*Product, error) {
	return r.scan(r.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE barcode=$1 AND owner_id=$2`, barcode, ownerID))
}

func (r *postgresRepo) List(ctx context.Context, ownerID uuid.UUID, f Filter) ([]*Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id=$1`
	args := []interface{}{ownerID}
	if f.Category != "" {
		args = append(args, f.Category)
		query += fmt.Sprintf(` AND category=$%d`, len(args))
	}
	if f.NameContains != "" {
		args = append(args, "%"+f.NameContains+"%")
		query += fmt.Sprintf(` AND name ILIKE $%d`, len(args))
	}
	if f.MaxStock != nil {
		args = append(args, *f.MaxStock)
		query += fmt.Sprintf(` AND stock_quantity <= $%d`, len(args))
	}
	query += ` ORDER BY name ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var products []*Product
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ── scanner ───────────────────────────────────────────────────────────────────

type rowScanner interface{ Scan(dest ...interface{}) error }

func (r *postgresRepo) scan(row rowScanner) (*Product, error) {
	p := &Product{}
	err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Category, &p.Barcode,
		&p.UnitCost, &p.SellingPrice, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
