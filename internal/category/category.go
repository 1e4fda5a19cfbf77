package category

import "time"

// Category groups products by name. Products reference a category by its
// name and, when it could be resolved at upload time, by id.
type Category struct {
	ID          int       `json:"id"`
	Name        string    `json:"category_name"`
	ImageURL    string    `json:"image_url"`
	HasProducts bool      `json:"has_products"`
	CreatedAt   time.Time `json:"created_at"`
}
