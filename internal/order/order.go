package order

import (
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

const UnknownProductName = "Unknown Product"

// Item is the denormalized copy of one cart row taken when the order is
// placed. It never changes afterwards, even if the product does.
type Item struct {
	ID              int             `json:"id"`
	ProductID       int             `json:"product_id"`
	ProductName     string          `json:"product_name"`
	CategoryName    string          `json:"category_name"`
	Quantity        string          `json:"quantity"`
	Weight          string          `json:"weight"`
	Price           decimal.Decimal `json:"price"`
	ProductImageURL string          `json:"product_image_url"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Qty is the item's quantity as a number, see ParseQuantity.
func (i Item) Qty() int {
	return ParseQuantity(i.Quantity)
}

// Customer is the ordering user as shown to admins.
type Customer struct {
	ID    int    `json:"id"`
	Name  string `json:"user_name"`
	Phone string `json:"phone_number"`
}

// Order represents a confirmed booking. Orders are never updated.
type Order struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Items     []Item    `json:"items"`
	TotalItem int       `json:"total_item"`
	CreatedAt time.Time `json:"created_at"`
	Customer  *Customer `json:"users,omitempty"`
}

// Summary is an order with its rollups for the history page.
type Summary struct {
	Order
	TotalWeight float64         `json:"total_weight"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// Summarize computes weight and price totals, both multiplied by quantity.
// Weight is rounded to one decimal.
func Summarize(o Order) Summary {
	var weight float64
	price := decimal.Zero
	for _, it := range o.Items {
		qty := it.Qty()
		weight += product.ParseWeight(it.Weight) * float64(qty)
		price = price.Add(it.Price.Mul(decimal.NewFromInt(int64(qty))))
	}
	return Summary{Order: o, TotalWeight: math.Round(weight*10) / 10, TotalPrice: price}
}

// ParseQuantity reads the leading integer of raw. Anything that does not
// start with a positive integer counts as 1.
func ParseQuantity(raw string) int {
	s := strings.TrimSpace(raw)
	if s != "" && s[0] == '+' {
		s = s[1:]
	}
	n, digits := 0, 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
		digits++
		if n > math.MaxInt32 {
			break
		}
	}
	if digits == 0 || n <= 0 {
		return 1
	}
	return n
}

// TotalItems sums ParseQuantity over items.
func TotalItems(items []Item) int {
	total := 0
	for _, it := range items {
		total += it.Qty()
	}
	return total
}

// HistoryEntry is one booked piece as the customer's order list shows it
// right after checkout.
type HistoryEntry struct {
	JewelleryName string    `json:"jewelleryName"`
	Category      string    `json:"category"`
	Quantity      string    `json:"quantity"`
	Weight        string    `json:"weight"`
	BookingDate   time.Time `json:"bookingDate"`
	Status        string    `json:"status"`
	Image         string    `json:"image"`
	OrderID       int       `json:"order_id"`
}
