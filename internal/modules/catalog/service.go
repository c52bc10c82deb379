package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Service is the catalog lookup plus the owner's inventory edit path.
// Every call is scoped to the store account bound to ctx.
type Service interface {
	AddProduct(ctx context.Context, req ProductRequest) (*Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error)
	SetStock(ctx context.Context, id uuid.UUID, qty int) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByBarcode(ctx context.Context, barcode string) (*Product, error)
	ListAll(ctx context.Context) ([]*Product, error)
	ListByCategory(ctx context.Context, category Category) ([]*Product, error)
	Search(ctx context.Context, query string) ([]*Product, error)
	// LowStock returns products at or below threshold, emptiest first.
	LowStock(ctx context.Context, threshold int) ([]*Product, error)
}

type service struct{ repo Repository }

func NewService(repo Repository) Service { return &service{repo: repo} }

func (s *service) AddProduct(ctx context.Context, req ProductRequest) (*Product, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	category, err := checkRequest(&req)
	if err != nil {
		return nil, err
	}
	p := &Product{
		ID:            uuid.New(),
		OwnerID:       ownerID,
		Name:          req.Name,
		Category:      category,
		Barcode:       req.Barcode,
		UnitCost:      req.UnitCost,
		SellingPrice:  req.SellingPrice,
		StockQuantity: req.StockQuantity,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) UpdateProduct(ctx context.Context, id uuid.UUID, req ProductRequest) (*Product, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	category, err := checkRequest(&req)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	p.Name = req.Name
	p.Category = category
	p.Barcode = req.Barcode
	p.UnitCost = req.UnitCost
	p.SellingPrice = req.SellingPrice
	p.StockQuantity = req.StockQuantity
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *service) SetStock(ctx context.Context, id uuid.UUID, qty int) error {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return err
	}
	if qty < 0 {
		return fmt.Errorf("%w: stock_quantity cannot be negative", ErrInvalidInput)
	}
	return s.repo.SetStock(ctx, ownerID, id, qty)
}

func (s *service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, ownerID, id)
}

func (s *service) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, ownerID, id)
}

func (s *service) FindByBarcode(ctx context.Context, barcode string) (*Product, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, fmt.Errorf("%w: barcode is required", ErrInvalidInput)
	}
	return s.repo.GetByBarcode(ctx, ownerID, barcode)
}

func (s *service) ListAll(ctx context.Context) ([]*Product, error) {
	return s.list(ctx, Filter{})
}

func (s *service) ListByCategory(ctx context.Context, category Category) ([]*Product, error) {
	c, ok := ParseCategory(string(category))
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrInvalidInput, category)
	}
	return s.list(ctx, Filter{Category: c})
}

func (s *service) Search(ctx context.Context, query string) ([]*Product, error) {
	return s.list(ctx, Filter{NameContains: strings.TrimSpace(query)})
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]*Product, error) {
	if threshold < 0 {
		return nil, fmt.Errorf("%w: threshold cannot be negative", ErrInvalidInput)
	}
	products, err := s.list(ctx, Filter{MaxStock: &threshold})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].StockQuantity < products[j].StockQuantity
	})
	return products, nil
}

func (s *service) list(ctx context.Context, f Filter) ([]*Product, error) {
	ownerID, err := session.Owner(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, ownerID, f)
}

// checkRequest normalises req in place and returns its parsed category.
func checkRequest(req *ProductRequest) (Category, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Barcode = strings.TrimSpace(req.Barcode)

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			switch verrs[0].Field() {
			case "Name":
				return "", fmt.Errorf("%w: name is required (max 100 characters)", ErrInvalidInput)
			case "Barcode":
				return "", fmt.Errorf("%w: barcode is required (max 64 characters)", ErrInvalidInput)
			case "StockQuantity":
				return "", fmt.Errorf("%w: stock_quantity cannot be negative", ErrInvalidInput)
			case "Category":
				return "", fmt.Errorf("%w: category is required", ErrInvalidInput)
			}
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	category, ok := ParseCategory(req.Category)
	if !ok {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, req.Category)
	}
	if req.UnitCost.IsNegative() || req.SellingPrice.IsNegative() {
		return "", fmt.Errorf("%w: unit_cost and selling_price cannot be negative", ErrInvalidInput)
	}
	return category, nil
}
