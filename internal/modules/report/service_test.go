package report

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/modules/checkout"
	"github.com/georgemunganga/tindahan-pos/internal/modules/sale"
	"github.com/georgemunganga/tindahan-pos/internal/platform/memstore"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var manila = time.FixedZone("PHT", 8*60*60)

type fixture struct {
	store *memstore.Store
	owner uuid.UUID
	ctx   context.Context
	svc   *service
}

func newFixture(now time.Time) *fixture {
	st := memstore.New()
	owner := uuid.New()
	svc := NewService(sale.NewService(st.Sales()), catalog.NewService(st.Products()), manila, 5).(*service)
	svc.now = func() time.Time { return now }
	return &fixture{store: st, owner: owner, ctx: session.WithOwner(context.Background(), owner), svc: svc}
}

func (f *fixture) record(t *testing.T, at time.Time, items ...sale.Item) {
	t.Helper()
	require.NoError(t, f.store.Atomically(context.Background(), f.owner, func(tx checkout.Tx) error {
		return tx.InsertSale(context.Background(), &sale.Sale{
			ID: uuid.New(), OwnerID: f.owner, IdempotencyKey: uuid.NewString(), CreatedAt: at, Items: items,
		})
	}))
}

func item(category, price, cost string, qty int) sale.Item {
	return sale.Item{ProductID: uuid.New(), Name: category, Category: category, UnitPrice: d(price), UnitCost: d(cost), Quantity: qty}
}

func TestSummary_CountsOnlyThePeriod(t *testing.T) {
	now := time.Date(2026, 8, 13, 15, 0, 0, 0, manila)
	f := newFixture(now)
	f.record(t, time.Date(2026, 8, 13, 8, 0, 0, 0, manila), item("Snacks", "18.50", "15.25", 3))
	f.record(t, time.Date(2026, 8, 13, 9, 0, 0, 0, manila), item("Drinks", "20", "16.10", 2))
	f.record(t, time.Date(2026, 8, 12, 23, 59, 0, 0, manila), item("Drinks", "20", "16.10", 5))

	daily, err := f.svc.Summary(f.ctx, PeriodDaily)
	require.NoError(t, err)
	assert.Equal(t, 2, daily.SaleCount)
	assert.Equal(t, 5, daily.ItemsSold)
	assert.Equal(t, "95.50", daily.RevenueDisplay)
	assert.Equal(t, "17.55", daily.ProfitDisplay)

	weekly, err := f.svc.Summary(f.ctx, PeriodWeekly)
	require.NoError(t, err)
	assert.Equal(t, 3, weekly.SaleCount)
	assert.True(t, weekly.Revenue.Equal(d("195.50")))
}

func TestSummary_EmptyPeriod(t *testing.T) {
	f := newFixture(time.Date(2026, 8, 13, 15, 0, 0, 0, manila))
	sum, err := f.svc.Summary(f.ctx, PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.SaleCount)
	assert.Equal(t, "0.00", sum.RevenueDisplay)
}

func TestTopCategories(t *testing.T) {
	now := time.Date(2026, 8, 13, 15, 0, 0, 0, manila)
	f := newFixture(now)
	f.record(t, now.Add(-time.Hour), item("Snacks", "10", "8", 3), item("Drinks", "20", "16", 2))
	f.record(t, now.Add(-2*time.Hour), item("Hygiene", "45", "38", 1), item("Snacks", "12", "9", 1))

	all, err := f.svc.TopCategories(f.ctx, PeriodDaily, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Hygiene", all[0].Category)
	assert.Equal(t, "Snacks", all[1].Category)
	assert.Equal(t, "42.00", all[1].RevenueDisplay)
	assert.Equal(t, 4, all[1].ItemsSold)
	assert.Equal(t, "Drinks", all[2].Category)

	top, err := f.svc.TopCategories(f.ctx, PeriodDaily, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestTrend_PutsSalesInTheirBucket(t *testing.T) {
	now := time.Date(2026, 8, 13, 15, 0, 0, 0, manila)
	f := newFixture(now)
	f.record(t, time.Date(2026, 8, 13, 8, 15, 0, 0, manila), item("Snacks", "10", "8", 1))
	f.record(t, time.Date(2026, 8, 13, 8, 45, 0, 0, manila), item("Snacks", "10", "8", 2))
	f.record(t, time.Date(2026, 8, 13, 14, 0, 0, 0, manila), item("Drinks", "20", "16", 1))

	points, err := f.svc.Trend(f.ctx, PeriodDaily)
	require.NoError(t, err)
	require.Len(t, points, 24)
	assert.Equal(t, "08:00", points[8].Label)
	assert.True(t, points[8].Revenue.Equal(d("30")))
	assert.True(t, points[8].Profit.Equal(d("6")))
	assert.True(t, points[14].Revenue.Equal(d("20")))
	assert.True(t, points[0].Revenue.IsZero())
}

func TestLowStock_DefaultsThreshold(t *testing.T) {
	f := newFixture(time.Now())
	for name, stock := range map[string]int{"Piattos": 5, "Nova": 0, "Zesto": 12} {
		require.NoError(t, f.store.Products().Create(context.Background(), &catalog.Product{
			ID: uuid.New(), OwnerID: f.owner, Name: name, Category: catalog.CategorySnacks,
			Barcode: name, StockQuantity: stock,
		}))
	}

	low, err := f.svc.LowStock(f.ctx, -1)
	require.NoError(t, err)
	require.Len(t, low, 2)
	assert.Equal(t, "Nova", low[0].Name)
	assert.Equal(t, "Piattos", low[1].Name)

	none, err := f.svc.LowStock(f.ctx, 0)
	require.NoError(t, err)
	assert.Len(t, none, 1)
}

func TestHandler(t *testing.T) {
	f := newFixture(time.Date(2026, 8, 13, 15, 0, 0, 0, manila))
	r := chi.NewRouter()
	NewHandler(f.svc).RegisterRoutes(r)

	serve := func(path string, ctx context.Context) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil).WithContext(ctx))
		return rec
	}

	assert.Equal(t, http.StatusOK, serve("/api/v1/reports/summary?period=monthly", f.ctx).Code)
	assert.Equal(t, http.StatusBadRequest, serve("/api/v1/reports/summary?period=hourly", f.ctx).Code)
	assert.Equal(t, http.StatusBadRequest, serve("/api/v1/reports/top-categories?limit=x", f.ctx).Code)
	assert.Equal(t, http.StatusUnauthorized, serve("/api/v1/reports/trend", context.Background()).Code)

	rec := serve("/api/v1/reports/low-stock", f.ctx)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}
