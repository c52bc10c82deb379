package sale

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is a frozen copy of one cart line at the moment the sale committed.
// UnitCost is the product cost at commit time so historical profit never drifts.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Quantity  int             `json:"quantity"`
}

func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (i Item) Profit() decimal.Decimal {
	return i.UnitPrice.Sub(i.UnitCost).Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Sale is an immutable record of a committed checkout.
type Sale struct {
	ID             uuid.UUID `json:"id"`
	OwnerID        uuid.UUID `json:"owner_id"`
	IdempotencyKey string    `json:"idempotency_key"`
	Items          []Item    `json:"items"`
	CreatedAt      time.Time `json:"created_at"`
}

func (s *Sale) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (s *Sale) TotalProfit() decimal.Decimal {
	total := decimal.Zero
	for _, it := range s.Items {
		total = total.Add(it.Profit())
	}
	return total
}

// ItemCount is the number of units sold, not the number of lines.
func (s *Sale) ItemCount() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Clone returns a deep copy so callers cannot mutate a stored sale.
func (s *Sale) Clone() *Sale {
	c := *s
	c.Items = append([]Item(nil), s.Items...)
	return &c
}

// View is the JSON shape returned to clients: the record plus its derived totals.
type View struct {
	*Sale
	TotalAmount        decimal.Decimal `json:"total_amount"`
	TotalProfit        decimal.Decimal `json:"total_profit"`
	ItemCount          int             `json:"item_count"`
	TotalAmountDisplay string          `json:"total_amount_display"`
	Replayed           bool            `json:"replayed,omitempty"`
}

// NewView derives the presentation totals. Rounding happens only here.
func NewView(s *Sale) View {
	total := s.TotalAmount()
	return View{
		Sale:               s,
		TotalAmount:        total,
		TotalProfit:        s.TotalProfit(),
		ItemCount:          s.ItemCount(),
		TotalAmountDisplay: total.StringFixed(2),
	}
}
