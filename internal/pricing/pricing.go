package pricing

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/hivemarket/hivemarket/internal/models"
)

// CatalogReader is the catalog lookup the engine prices against.
type CatalogReader interface {
	GetProduct(ctx context.Context, productID int) (*models.Product, error)
}

// Engine turns requested (product, quantity) pairs into priced order lines.
// It snapshots the catalog's current unit price per line and sums exactly in
// decimal; it never checks or reserves stock and has no side effects, so a
// failed pricing run is safe to retry.
type Engine struct {
	catalog CatalogReader
}

func NewEngine(catalog CatalogReader) *Engine {
	return &Engine{catalog: catalog}
}

// Price resolves and prices every line, returning the lines with their
// price snapshots and the exact total. Quantity is validated before the
// catalog lookup, so a bad quantity fails fast even for unknown products.
func (e *Engine) Price(ctx context.Context, lines []models.CreateOrderItemRequest) ([]models.OrderItem, decimal.Decimal, error) {
	items := make([]models.OrderItem, 0, len(lines))
	total := decimal.Zero

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, decimal.Zero, fmt.Errorf("product %d: %w", line.ProductID, models.ErrInvalidQuantity)
		}

		product, err := e.catalog.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, decimal.Zero, err
		}

		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			Price:     product.Price,
		})
		total = total.Add(product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	return items, total, nil
}
