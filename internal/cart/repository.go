package cart

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/product"
)

var (
	ErrAlreadyInCart = errors.New("product already in cart")
)

// Repository provides access to cart rows. A (user, product) pair appears at
// most once.
type Repository interface {
	// List returns the user's rows joined with their products, newest first.
	List(ctx context.Context, userID int) ([]Item, error)
	Exists(ctx context.Context, userID, productID int) (bool, error)
	// Insert returns ErrAlreadyInCart when the pair is already present.
	Insert(ctx context.Context, it Item) (Item, error)
	Delete(ctx context.Context, userID, productID int) error
	DeleteAll(ctx context.Context, userID int) error
	Count(ctx context.Context, userID int) (int, error)
}

// ProductReader looks up the product a cart row points at.
type ProductReader interface {
	GetByID(ctx context.Context, id int) (product.Product, error)
}

// InMemoryRepository is used for tests and local scenarios. Products are
// joined through the given reader at read time.
type InMemoryRepository struct {
	mu       sync.RWMutex
	items    []Item
	nextID   int
	products ProductReader
	now      func() time.Time

	// FailInsert, FailList and FailDeleteAll make the matching call fail (tests).
	FailInsert    error
	FailList      error
	FailDeleteAll error
}

func NewInMemoryRepository(products ProductReader, seed []Item) *InMemoryRepository {
	r := &InMemoryRepository{
		items:    make([]Item, 0, len(seed)),
		nextID:   1,
		products: products,
		now:      time.Now,
	}
	for _, it := range seed {
		if it.ID >= r.nextID {
			r.nextID = it.ID + 1
		}
		r.items = append(r.items, it)
	}
	return r
}

func (r *InMemoryRepository) List(ctx context.Context, userID int) ([]Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.FailList != nil {
		return nil, r.FailList
	}

	out := make([]Item, 0)
	for _, it := range r.items {
		if it.UserID != userID {
			continue
		}
		it.Product = nil
		if r.products != nil {
			if p, err := r.products.GetByID(ctx, it.ProductID); err == nil {
				it.Product = &p
			}
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) Exists(ctx context.Context, userID, productID int) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.indexOf(userID, productID) >= 0, nil
}

func (r *InMemoryRepository) Insert(ctx context.Context, it Item) (Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailInsert != nil {
		return Item{}, r.FailInsert
	}
	if r.indexOf(it.UserID, it.ProductID) >= 0 {
		return Item{}, ErrAlreadyInCart
	}
	it.ID = r.nextID
	r.nextID++
	if it.CreatedAt.IsZero() {
		it.CreatedAt = r.now()
	}
	it.Product = nil
	r.items = append(r.items, it)
	return it, nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, userID, productID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i := r.indexOf(userID, productID); i >= 0 {
		r.items = append(r.items[:i], r.items[i+1:]...)
	}
	return nil
}

func (r *InMemoryRepository) DeleteAll(ctx context.Context, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailDeleteAll != nil {
		return r.FailDeleteAll
	}
	kept := r.items[:0]
	for _, it := range r.items {
		if it.UserID != userID {
			kept = append(kept, it)
		}
	}
	r.items = kept
	return nil
}

func (r *InMemoryRepository) Count(ctx context.Context, userID int) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, it := range r.items {
		if it.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryRepository) indexOf(userID, productID int) int {
	for i, it := range r.items {
		if it.UserID == userID && it.ProductID == productID {
			return i
		}
	}
	return -1
}
