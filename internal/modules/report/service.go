package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/shopspring/decimal"
)

// Summary aggregates the sales of one period.
type Summary struct {
	Period         Period          `json:"period"`
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Revenue        decimal.Decimal `json:"revenue"`
	Profit         decimal.Decimal `json:"profit"`
	SaleCount      int             `json:"sale_count"`
	ItemsSold      int             `json:"items_sold"`
	RevenueDisplay string          `json:"revenue_display"`
	ProfitDisplay  string          `json:"profit_display"`
}

type CategoryTotal struct {
	Category       string          `json:"category"`
	Revenue        decimal.Decimal `json:"revenue"`
	ItemsSold      int             `json:"items_sold"`
	RevenueDisplay string          `json:"revenue_display"`
}

type TrendPoint struct {
	Bucket
	Revenue decimal.Decimal `json:"revenue"`
	Profit  decimal.Decimal `json:"profit"`
}

// Service computes dashboard figures from the sale ledger. Profit always uses the unit
// cost frozen on each sale item, so later cost edits never rewrite history.
type Service interface {
	Summary(ctx context.Context, p Period) (*Summary, error)
	TopCategories(ctx context.Context, p Period, limit int) ([]CategoryTotal, error)
	Trend(ctx context.Context, p Period) ([]TrendPoint, error)
	LowStock(ctx context.Context, threshold int) ([]*catalog.Product, error)
}

type service struct {
	sales     sale.Service
	products  catalog.Service
	loc       *time.Location
	threshold int
	now       func() time.Time
}

// NewService reports in loc. A negative threshold passed to LowStock means defaultThreshold.
func NewService(sales sale.Service, products catalog.Service, loc *time.Location, defaultThreshold int) Service {
	return &service{sales: sales, products: products, loc: loc, threshold: defaultThreshold, now: time.Now}
}

func (s *service) window(ctx context.Context, p Period) (time.Time, time.Time, []*sale.Sale, error) {
	from, to := Window(p, s.now().In(s.loc))
	sales, err := s.sales.ListSales(ctx, from, to)
	if err != nil {
		return from, to, nil, err
	}
	return from, to, sales, nil
}

func (s *service) Summary(ctx context.Context, p Period) (*Summary, error) {
	from, to, sales, err := s.window(ctx, p)
	if err != nil {
		return nil, err
	}
	sum := &Summary{Period: p, From: from, To: to, Revenue: decimal.Zero, Profit: decimal.Zero}
	for _, sl := range sales {
		sum.Revenue = sum.Revenue.Add(sl.TotalAmount())
		sum.Profit = sum.Profit.Add(sl.TotalProfit())
		sum.ItemsSold += sl.ItemCount()
		sum.SaleCount++
	}
	sum.RevenueDisplay = sum.Revenue.StringFixed(2)
	sum.ProfitDisplay = sum.Profit.StringFixed(2)
	return sum, nil
}

// TopCategories ranks categories by revenue, highest first. limit <= 0 returns all.
func (s *service) TopCategories(ctx context.Context, p Period, limit int) ([]CategoryTotal, error) {
	_, _, sales, err := s.window(ctx, p)
	if err != nil {
		return nil, err
	}
	byCategory := make(map[string]*CategoryTotal)
	for _, sl := range sales {
		for _, it := range sl.Items {
			ct, ok := byCategory[it.Category]
			if !ok {
				ct = &CategoryTotal{Category: it.Category, Revenue: decimal.Zero}
				byCategory[it.Category] = ct
			}
			ct.Revenue = ct.Revenue.Add(it.Subtotal())
			ct.ItemsSold += it.Quantity
		}
	}

	out := make([]CategoryTotal, 0, len(byCategory))
	for _, ct := range byCategory {
		ct.RevenueDisplay = ct.Revenue.StringFixed(2)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Revenue.Cmp(out[j].Revenue); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *service) Trend(ctx context.Context, p Period) ([]TrendPoint, error) {
	from, to, sales, err := s.window(ctx, p)
	if err != nil {
		return nil, err
	}
	buckets := Buckets(p, from, to)
	points := make([]TrendPoint, len(buckets))
	for i, b := range buckets {
		points[i] = TrendPoint{Bucket: b, Revenue: decimal.Zero, Profit: decimal.Zero}
	}
	for _, sl := range sales {
		i := sort.Search(len(buckets), func(i int) bool { return sl.CreatedAt.Before(buckets[i].To) })
		if i == len(buckets) {
			continue
		}
		points[i].Revenue = points[i].Revenue.Add(sl.TotalAmount())
		points[i].Profit = points[i].Profit.Add(sl.TotalProfit())
	}
	return points, nil
}

func (s *service) LowStock(ctx context.Context, threshold int) ([]*catalog.Product, error) {
	if threshold < 0 {
		threshold = s.threshold
	}
	products, err := s.products.LowStock(ctx, threshold)
	if err != nil {
		return nil, fmt.Errorf("low stock: %w", err)
	}
	return products, nil
}
