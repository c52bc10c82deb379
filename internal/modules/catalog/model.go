package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Category is one of the fixed shelf categories a sari-sari store sells.
type Category string

const (
	CategoryCookingEssentials Category = "Cooking Essentials"
	CategorySnacks            Category = "Snacks"
	CategoryDrinks            Category = "Drinks"
	CategoryCannedGoods       Category = "Canned Goods"
	CategoryInstantFood       Category = "Instant Food"
	CategoryHygiene           Category = "Hygiene"
	CategoryMiscellaneous     Category = "Miscellaneous"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryCookingEssentials,
	CategorySnacks,
	CategoryDrinks,
	CategoryCannedGoods,
	CategoryInstantFood,
	CategoryHygiene,
	CategoryMiscellaneous,
}

// ParseCategory matches s case-insensitively against the known categories.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

// Product is an item on a store's shelf. StockQuantity is the authoritative count only
// when read from the store; copies held elsewhere are snapshots.
type Product struct {
	ID            uuid.UUID       `json:"id"`
	OwnerID       uuid.UUID       `json:"owner_id"`
	Name          string          `json:"name"`
	Category      Category        `json:"category"`
	Barcode       string          `json:"barcode"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ProductRequest holds the editable fields of a product.
type ProductRequest struct {
	Name          string          `json:"name" validate:"required,max=100"`
	Category      string          `json:"category" validate:"required"`
	Barcode       string          `json:"barcode" validate:"required,max=64"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	StockQuantity int             `json:"stock_quantity" validate:"min=0"`
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Category     Category
	NameContains string
	MaxStock     *int
}
