package cart

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

// DefaultQuantity is what every cart row is created with.
const DefaultQuantity = "1"

// Item is one cart row. Product is nil when the joined product no longer
// exists; such rows are still counted but weigh and cost nothing.
type Item struct {
	ID           int              `json:"id"`
	UserID       int              `json:"user_id"`
	ProductID    int              `json:"product_id"`
	CategoryName string           `json:"category_name"`
	Quantity     string           `json:"quantity"`
	CreatedAt    time.Time        `json:"created_at"`
	Product      *product.Product `json:"products"`
}

type Totals struct {
	Count            int             `json:"count"`
	TotalWeightGrams float64         `json:"total_weight"`
	TotalPrice       decimal.Decimal `json:"total_price"`
}

// View is the cart page payload.
type View struct {
	Items  []Item `json:"items"`
	Count  int    `json:"count"`
	Totals Totals `json:"totals"`
}

// ComputeTotals sums weight and price over items. Price is taken once per
// row regardless of quantity.
func ComputeTotals(items []Item) Totals {
	var weight float64
	price := decimal.Zero
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		weight += it.Product.WeightGrams()
		price = price.Add(it.Product.PriceOrZero())
	}
	return Totals{
		Count:            len(items),
		TotalWeightGrams: math.Round(weight*10) / 10,
		TotalPrice:       price,
	}
}
