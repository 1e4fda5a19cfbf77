package product

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/storage"
)

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, "product not found")
	ErrCategoryMissing = apperr.New(apperr.KindValidation, "category is required")
)

// CategoryResolver finds the id of a category by name. A nil id with a nil
// error means no category matched.
type CategoryResolver interface {
	ResolveID(ctx context.Context, name string) (*int, error)
}

type Service struct {
	repo       Repository
	categories CategoryResolver
	store      storage.Store
	log        *logger.Logger
	now        func() time.Time
}

func NewService(repo Repository, categories CategoryResolver, store storage.Store, log *logger.Logger) *Service {
	return &Service{repo: repo, categories: categories, store: store, log: log, now: time.Now}
}

// AddPhotoInput is what the admin "add photo" form submits.
type AddPhotoInput struct {
	CategoryName string
	Weight       string
	Melting      string
	Size         string
	Price        decimal.NullDecimal
	Image        []byte
}

// List returns products for the admin grid. Read errors degrade to an empty list.
func (s *Service) List(ctx context.Context, sess session.Session, categoryName string) ([]Product, error) {
	if err := sess.CheckAdmin(); err != nil {
		return nil, err
	}
	products, err := s.repo.List(ctx, categoryName)
	if err != nil {
		s.log.Error(ctx, "list products failed", err)
		return []Product{}, nil
	}
	return products, nil
}

func (s *Service) GetByID(ctx context.Context, id int) (Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, apperr.Wrap(apperr.KindStoreRead, err, "could not load product")
	}
	return p, nil
}

// AddPhoto uploads the image into the category folder and inserts a product
// that starts out on display (status null). The product name defaults to the
// category name.
func (s *Service) AddPhoto(ctx context.Context, sess session.Session, in AddPhotoInput) (Product, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Product{}, err
	}
	category := strings.TrimSpace(in.CategoryName)
	if category == "" {
		return Product{}, ErrCategoryMissing
	}

	objectPath := storage.ObjectName(category, s.now().Unix(), in.Image)
	url, err := s.store.Upload(ctx, storage.BucketProductImages, objectPath, in.Image)
	if err != nil {
		if apperr.As(err) != nil {
			return Product{}, err
		}
		s.log.Error(ctx, "product image upload failed", err)
		return Product{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to upload image")
	}

	p := Product{
		CategoryName: category,
		Name:         category,
		ImageURL:     url,
		Weight:       strings.TrimSpace(in.Weight),
		Melting:      optional(in.Melting),
		Size:         optional(in.Size),
		Price:        in.Price,
	}
	if s.categories != nil {
		id, err := s.categories.ResolveID(ctx, category)
		if err != nil {
			s.log.Warn(s.log.WithField(ctx, "category", category), "category id lookup failed; inserting without id")
		}
		p.CategoryID = id
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		s.log.Error(s.log.WithField(ctx, "image_url", url), "insert product failed; uploaded image is orphaned", err)
		return Product{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to save product")
	}
	return created, nil
}

// ToggleStatus flips a product between booked and on display.
func (s *Service) ToggleStatus(ctx context.Context, sess session.Session, id int) (Product, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Product{}, err
	}
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if p.IsBooked() {
		err = s.repo.ReleaseBooked(ctx, []int{id})
	} else {
		_, err = s.repo.MarkBooked(ctx, []int{id}, s.now().UTC().Format(time.DateOnly))
	}
	if err != nil {
		return Product{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to update product status")
	}
	return s.GetByID(ctx, id)
}

func (s *Service) Names(ctx context.Context, ids []int) ([]string, error) {
	return s.repo.NamesByIDs(ctx, ids)
}

func (s *Service) DeleteMany(ctx context.Context, ids []int) error {
	return s.repo.DeleteMany(ctx, ids)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
