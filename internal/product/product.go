package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusPending   = "pending"
	StatusBooked    = "booked"
	StatusAvailable = "available"
)

// Product is one photographed piece of jewellery. Status is nil while the
// piece is on display; it becomes "booked" once an order claims it.
type Product struct {
	ID           int                 `json:"id"`
	CategoryID   *int                `json:"category_id,omitempty"`
	CategoryName string              `json:"category_name"`
	Name         string              `json:"product_name"`
	ImageURL     string              `json:"product_image_url"`
	Weight       string              `json:"weight"`
	Melting      *string             `json:"melting,omitempty"`
	Size         *string             `json:"size,omitempty"`
	Price        decimal.NullDecimal `json:"price"`
	Status       *string             `json:"status"`
	BookingDate  *string             `json:"booking_date,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

func (p Product) IsBooked() bool {
	return p.Status != nil && *p.Status == StatusBooked
}

// IsListed reports whether the product still counts towards its category
// being shown in the catalog.
func (p Product) IsListed() bool {
	return p.Status == nil || *p.Status == StatusPending
}

// WeightGrams is ParseWeight applied to the stored weight text.
func (p Product) WeightGrams() float64 {
	return ParseWeight(p.Weight)
}

// PriceOrZero treats a missing price as zero.
func (p Product) PriceOrZero() decimal.Decimal {
	if !p.Price.Valid {
		return decimal.Zero
	}
	return p.Price.Decimal
}
