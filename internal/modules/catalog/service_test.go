package catalog_test

import (
	"context"
	"testing"

	"github.com/georgemunganga/tindahan-pos/internal/modules/catalog"
	"github.com/georgemunganga/tindahan-pos/internal/platform/memstore"
	"github.com/georgemunganga/tindahan-pos/internal/platform/session"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func request(name, category, barcode string, stock int) catalog.ProductRequest {
	return catalog.ProductRequest{
		Name:          name,
		Category:      category,
		Barcode:       barcode,
		UnitCost:      d("15.25"),
		SellingPrice:  d("18.50"),
		StockQuantity: stock,
	}
}

func newService() (catalog.Service, context.Context) {
	return catalog.NewService(memstore.New().Products()), session.WithOwner(context.Background(), uuid.New())
}

func TestAddProduct_NormalisesAndStores(t *testing.T) {
	svc, ctx := newService()

	p, err := svc.AddProduct(ctx, request("  Lucky Me Pancit Canton ", "instant food", " 4807770 ", 24))
	require.NoError(t, err)
	assert.Equal(t, "Lucky Me Pancit Canton", p.Name)
	assert.Equal(t, catalog.CategoryInstantFood, p.Category)
	assert.Equal(t, "4807770", p.Barcode)

	got, err := svc.FindByBarcode(ctx, "4807770")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.True(t, got.SellingPrice.Equal(d("18.50")))
}

func TestAddProduct_Validation(t *testing.T) {
	svc, ctx := newService()

	negative := request("Nova", "Snacks", "1", 1)
	negative.UnitCost = d("-1")

	cases := map[string]catalog.ProductRequest{
		"missing name":     request(" ", "Snacks", "1", 1),
		"unknown category": request("Nova", "Frozen", "1", 1),
		"missing barcode":  request("Nova", "Snacks", "", 1),
		"negative stock":   request("Nova", "Snacks", "1", -1),
		"negative cost":    negative,
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.AddProduct(ctx, req)
			assert.ErrorIs(t, err, catalog.ErrInvalidInput)
		})
	}
}

func TestAddProduct_DuplicateBarcode(t *testing.T) {
	svc, ctx := newService()
	_, err := svc.AddProduct(ctx, request("Nova", "Snacks", "4800016", 1))
	require.NoError(t, err)

	_, err = svc.AddProduct(ctx, request("Nova BBQ", "Snacks", "4800016", 1))
	assert.ErrorIs(t, err, catalog.ErrDuplicateBarcode)
}

func TestUpdateAndSetStock(t *testing.T) {
	svc, ctx := newService()
	p, err := svc.AddProduct(ctx, request("Nova", "Snacks", "1", 3))
	require.NoError(t, err)

	upd := request("Nova Country Cheddar", "Snacks", "1", 3)
	upd.SellingPrice = d("19")
	got, err := svc.UpdateProduct(ctx, p.ID, upd)
	require.NoError(t, err)
	assert.Equal(t, "Nova Country Cheddar", got.Name)

	require.NoError(t, svc.SetStock(ctx, p.ID, 40))
	got, err = svc.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.StockQuantity)

	assert.ErrorIs(t, svc.SetStock(ctx, p.ID, -1), catalog.ErrInvalidInput)
	assert.ErrorIs(t, svc.SetStock(ctx, uuid.New(), 1), catalog.ErrNotFound)

	_, err = svc.UpdateProduct(ctx, uuid.New(), upd)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestListings(t *testing.T) {
	svc, ctx := newService()
	for _, r := range []catalog.ProductRequest{
		request("Coke Mismo", "Drinks", "1", 10),
		request("C2 Apple", "Drinks", "2", 2),
		request("Safeguard", "Hygiene", "3", 0),
		request("Piattos", "Snacks", "4", 5),
	} {
		_, err := svc.AddProduct(ctx, r)
		require.NoError(t, err)
	}

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	drinks, err := svc.ListByCategory(ctx, "drinks")
	require.NoError(t, err)
	assert.Len(t, drinks, 2)

	_, err = svc.ListByCategory(ctx, "Frozen")
	assert.ErrorIs(t, err, catalog.ErrInvalidInput)

	found, err := svc.Search(ctx, "c2")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "C2 Apple", found[0].Name)

	low, err := svc.LowStock(ctx, 5)
	require.NoError(t, err)
	require.Len(t, low, 3)
	assert.Equal(t, []int{0, 2, 5}, []int{low[0].StockQuantity, low[1].StockQuantity, low[2].StockQuantity})
}

func TestOwnersDoNotSeeEachOther(t *testing.T) {
	store := memstore.New()
	svc := catalog.NewService(store.Products())
	a := session.WithOwner(context.Background(), uuid.New())
	b := session.WithOwner(context.Background(), uuid.New())

	p, err := svc.AddProduct(a, request("Nova", "Snacks", "1", 3))
	require.NoError(t, err)

	_, err = svc.FindByID(b, p.ID)
	assert.ErrorIs(t, err, catalog.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteProduct(b, p.ID), catalog.ErrNotFound)

	_, err = svc.ListAll(context.Background())
	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
}
