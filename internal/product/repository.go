package product

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("product not found")
)

type Repository interface {
	// ListAvailableByCategory returns products of the category whose status
	// is null, newest first.
	ListAvailableByCategory(ctx context.Context, categoryName string) ([]Product, error)
	// CountListedByCategory counts products with status null or pending per
	// category name.
	CountListedByCategory(ctx context.Context) (map[string]int, error)
	// List returns every product, optionally limited to one category, newest first.
	List(ctx context.Context, categoryName string) ([]Product, error)
	GetByID(ctx context.Context, id int) (Product, error)
	Create(ctx context.Context, p Product) (Product, error)
	DeleteMany(ctx context.Context, ids []int) error
	NamesByIDs(ctx context.Context, ids []int) ([]string, error)
	// MarkBooked sets status "booked" and booking_date in one call on the
	// products that are not booked yet, and returns the ids it changed.
	MarkBooked(ctx context.Context, ids []int, bookingDate string) ([]int, error)
	// ReleaseBooked clears status and booking_date of booked products.
	ReleaseBooked(ctx context.Context, ids []int) error
}

// InMemoryRepository is a simple in-memory implementation useful for tests and
// local runs without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	storage []Product
	nextID  int
	now     func() time.Time

	// FailMarkBooked makes MarkBooked return this error (tests).
	FailMarkBooked error
}

func NewInMemoryRepository(seed []Product) *InMemoryRepository {
	r := &InMemoryRepository{
		storage: make([]Product, 0, len(seed)),
		nextID:  1,
		now:     time.Now,
	}

	maxID := 0
	for _, p := range seed {
		r.storage = append(r.storage, p)
		if p.ID > maxID {
			maxID = p.ID
		}
	}

	r.nextID = maxID + 1
	return r
}

func (r *InMemoryRepository) ListAvailableByCategory(ctx context.Context, categoryName string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0)
	for _, p := range r.storage {
		if p.CategoryName == categoryName && p.Status == nil {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) CountListedByCategory(ctx context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, p := range r.storage {
		if p.IsListed() {
			counts[p.CategoryName]++
		}
	}
	return counts, nil
}

func (r *InMemoryRepository) List(ctx context.Context, categoryName string) ([]Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Product, 0, len(r.storage))
	for _, p := range r.storage {
		if categoryName == "" || p.CategoryName == categoryName {
			out = append(out, p)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.storage {
		if p.ID == id {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, p Product) (Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		p.ID = r.nextID
		r.nextID++
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = r.now()
	}
	r.storage = append(r.storage, p)
	return p, nil
}

func (r *InMemoryRepository) DeleteMany(ctx context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := idSet(ids)
	kept := r.storage[:0]
	for _, p := range r.storage {
		if !set[p.ID] {
			kept = append(kept, p)
		}
	}
	r.storage = kept
	return nil
}

func (r *InMemoryRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := idSet(ids)
	names := make([]string, 0, len(ids))
	for _, p := range r.storage {
		if set[p.ID] {
			names = append(names, displayName(p))
		}
	}
	return names, nil
}

func (r *InMemoryRepository) MarkBooked(ctx context.Context, ids []int, bookingDate string) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailMarkBooked != nil {
		return nil, r.FailMarkBooked
	}
	set := idSet(ids)
	booked := make([]int, 0, len(ids))
	for i, p := range r.storage {
		if set[p.ID] && !p.IsBooked() {
			status, date := StatusBooked, bookingDate
			p.Status = &status
			p.BookingDate = &date
			r.storage[i] = p
			booked = append(booked, p.ID)
		}
	}
	return booked, nil
}

func (r *InMemoryRepository) ReleaseBooked(ctx context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := idSet(ids)
	for i, p := range r.storage {
		if set[p.ID] && p.IsBooked() {
			p.Status = nil
			p.BookingDate = nil
			r.storage[i] = p
		}
	}
	return nil
}

func idSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func sortNewestFirst(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		if products[i].CreatedAt.Equal(products[j].CreatedAt) {
			return products[i].ID > products[j].ID
		}
		return products[i].CreatedAt.After(products[j].CreatedAt)
	})
}

func displayName(p Product) string {
	if p.Name != "" {
		return p.Name
	}
	return p.CategoryName
}
