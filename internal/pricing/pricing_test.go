package pricing

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hivemarket/hivemarket/internal/models"
)

type stubCatalog struct {
	products map[int]*models.Product
}

func (s *stubCatalog) GetProduct(ctx context.Context, productID int) (*models.Product, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	return p, nil
}

func newCatalog(prices map[int]string) *stubCatalog {
	c := &stubCatalog{products: make(map[int]*models.Product)}
	for id, price := range prices {
		c.products[id] = &models.Product{
			ID:    id,
			Price: decimal.RequireFromString(price),
		}
	}
	return c
}

func TestPrice_ExactTotal(t *testing.T) {
	engine := NewEngine(newCatalog(map[int]string{
		1: "10.00",
		2: "5.00",
	}))

	items, total, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.True(t, total.Equal(decimal.RequireFromString("25.00")), "total = %s", total)
	assert.True(t, items[0].Price.Equal(decimal.RequireFromString("10.00")))
	assert.Equal(t, 2, items[0].Quantity)
	assert.True(t, items[1].Price.Equal(decimal.RequireFromString("5.00")))
}

func TestPrice_NoFloatDrift(t *testing.T) {
	// 0.10 * 3 is exactly 0.30 in decimal arithmetic.
	engine := NewEngine(newCatalog(map[int]string{1: "0.10"}))

	_, total, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
		{ProductID: 1, Quantity: 3},
	})
	require.NoError(t, err)
	assert.Equal(t, "0.30", total.StringFixed(2))
}

func TestPrice_ProductNotFound(t *testing.T) {
	engine := NewEngine(newCatalog(map[int]string{1: "10.00"}))

	_, _, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
		{ProductID: 1, Quantity: 1},
		{ProductID: 99, Quantity: 1},
	})
	assert.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestPrice_InvalidQuantity(t *testing.T) {
	engine := NewEngine(newCatalog(map[int]string{1: "10.00"}))

	for _, quantity := range []int{0, -1} {
		_, _, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
			{ProductID: 1, Quantity: quantity},
		})
		assert.ErrorIs(t, err, models.ErrInvalidQuantity, "quantity %d", quantity)
	}
}

func TestPrice_QuantityCheckedBeforeLookup(t *testing.T) {
	engine := NewEngine(newCatalog(nil))

	// Unknown product, but the bad quantity is reported first.
	_, _, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
		{ProductID: 42, Quantity: 0},
	})
	assert.ErrorIs(t, err, models.ErrInvalidQuantity)
}

func TestPrice_SnapshotsCatalogPrice(t *testing.T) {
	catalog := newCatalog(map[int]string{1: "20.00"})
	engine := NewEngine(catalog)

	items, _, err := engine.Price(context.Background(), []models.CreateOrderItemRequest{
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)

	// A later catalog price change must not touch the priced line.
	catalog.products[1].Price = decimal.RequireFromString("99.00")
	assert.Equal(t, "20.00", items[0].Price.StringFixed(2))
}

func TestPrice_EmptyLines(t *testing.T) {
	engine := NewEngine(newCatalog(nil))

	items, total, err := engine.Price(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, total.IsZero())
}
