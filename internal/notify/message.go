package notify

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// localTimeLayout renders like the en-IN locale, e.g. "5/3/2026, 10:15:30 am".
const localTimeLayout = "2/1/2006, 3:04:05 pm"

// ItemLine is one row of a placed order as the notification sees it.
type ItemLine struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// OrderSummary carries what the admin alert needs about a freshly placed
// order. It is built by the order flow and owns no references into it.
type OrderSummary struct {
	OrderID      int             `json:"order_id"`
	CustomerName string          `json:"customer_name"`
	TotalItems   int             `json:"total_items"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Items        []ItemLine      `json:"items"`
	PlacedAt     time.Time       `json:"placed_at"`
}

// FormatMessage builds the SMS body. The timestamp is shown in loc.
func FormatMessage(s OrderSummary, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return fmt.Sprintf("🛍️ NEW ORDER ALERT!\nOrder ID: #%d\nItems: %d\nTime: %s\nCheck dashboard for details.",
		s.OrderID, s.TotalItems, s.PlacedAt.In(loc).Format(localTimeLayout))
}
