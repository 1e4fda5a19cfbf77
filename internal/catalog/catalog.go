package catalog

import (
	"context"

	"github.com/wichananm65/jewel-shop-backend/internal/category"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

type CategoryLister interface {
	List(ctx context.Context) []category.Category
}

type ProductReader interface {
	ListAvailableByCategory(ctx context.Context, categoryName string) ([]product.Product, error)
}

// Service is the read side the storefront browses. It never fails: read
// errors are logged and turn into empty results.
type Service struct {
	categories CategoryLister
	products   ProductReader
	log        *logger.Logger
}

func NewService(categories CategoryLister, products ProductReader, log *logger.Logger) *Service {
	return &Service{categories: categories, products: products, log: log}
}

// ListCategories hides categories that have nothing left on display.
func (s *Service) ListCategories(ctx context.Context) []category.Category {
	all := s.categories.List(ctx)
	out := make([]category.Category, 0, len(all))
	for _, c := range all {
		if c.HasProducts {
			out = append(out, c)
		}
	}
	return out
}

// ListProducts returns the category's unbooked products, newest first.
func (s *Service) ListProducts(ctx context.Context, categoryName string) []product.Product {
	products, err := s.products.ListAvailableByCategory(ctx, categoryName)
	if err != nil {
		s.log.Error(s.log.WithField(ctx, "category", categoryName), "list products failed", err)
		return []product.Product{}
	}
	return products
}
