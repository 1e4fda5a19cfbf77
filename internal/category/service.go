package category

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/storage"
)

var (
	ErrDuplicateName = apperr.New(apperr.KindDuplicate, "A category with this name already exists!")
	ErrNameRequired  = apperr.New(apperr.KindValidation, "category name is required")
	ErrImageRequired = apperr.New(apperr.KindValidation, "category image is required")
)

// ProductCounter reports how many listed products each category name has.
type ProductCounter interface {
	CountListedByCategory(ctx context.Context) (map[string]int, error)
}

// Service provides business logic for categories.
type Service struct {
	repo     Repository
	products ProductCounter
	store    storage.Store
	log      *logger.Logger
	now      func() time.Time
}

func NewService(r Repository, products ProductCounter, store storage.Store, log *logger.Logger) *Service {
	return &Service{repo: r, products: products, store: store, log: log, now: time.Now}
}

// List returns every category with HasProducts filled in. Read failures are
// logged and produce an empty slice.
func (s *Service) List(ctx context.Context) []Category {
	items, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "list categories failed", err)
		return []Category{}
	}
	if s.products == nil {
		return items
	}
	counts, err := s.products.CountListedByCategory(ctx)
	if err != nil {
		s.log.Error(ctx, "count products per category failed", err)
		return []Category{}
	}
	for i := range items {
		items[i].HasProducts = counts[items[i].Name] > 0
	}
	return items
}

// Create rejects a case-insensitive duplicate before uploading anything, then
// uploads the cover image and inserts the row. If the insert fails after a
// successful upload the file is left behind and logged.
func (s *Service) Create(ctx context.Context, sess session.Session, name string, image []byte) (Category, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Category{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Category{}, ErrNameRequired
	}
	if len(image) == 0 {
		return Category{}, ErrImageRequired
	}

	exists, err := s.repo.ExistsByName(ctx, name)
	if err != nil {
		return Category{}, apperr.Wrap(apperr.KindStoreRead, err, "could not check category name")
	}
	if exists {
		return Category{}, ErrDuplicateName
	}

	url, err := s.store.Upload(ctx, storage.BucketCategoryImages, storage.ObjectName("", s.now().Unix(), image), image)
	if err != nil {
		if apperr.As(err) != nil {
			return Category{}, err
		}
		s.log.Error(ctx, "category image upload failed", err)
		return Category{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to upload image")
	}

	created, err := s.repo.Create(ctx, Category{Name: name, ImageURL: url})
	if err != nil {
		s.log.Error(s.log.WithField(ctx, "image_url", url), "insert category failed; uploaded image is orphaned", err)
		if errors.Is(err, ErrNameTaken) {
			return Category{}, ErrDuplicateName
		}
		return Category{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to save category")
	}
	return created, nil
}

// ResolveID returns nil when no category matches name.
func (s *Service) ResolveID(ctx context.Context, name string) (*int, error) {
	id, err := s.repo.FindIDByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &id, nil
}

func (s *Service) Names(ctx context.Context, ids []int) ([]string, error) {
	return s.repo.NamesByIDs(ctx, ids)
}

func (s *Service) DeleteMany(ctx context.Context, ids []int) error {
	return s.repo.DeleteMany(ctx, ids)
}
