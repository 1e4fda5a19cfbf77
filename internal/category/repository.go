package category

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound  = errors.New("category not found")
	ErrNameTaken = errors.New("category name already exists")
)

// Repository provides access to category rows.
type Repository interface {
	// List returns all categories, newest first.
	List(ctx context.Context) ([]Category, error)
	// ExistsByName compares names case-insensitively.
	ExistsByName(ctx context.Context, name string) (bool, error)
	// FindIDByName tries an exact match first, then a case-insensitive
	// substring match.
	FindIDByName(ctx context.Context, name string) (int, error)
	Create(ctx context.Context, c Category) (Category, error)
	DeleteMany(ctx context.Context, ids []int) error
	NamesByIDs(ctx context.Context, ids []int) ([]string, error)
}

// InMemoryRepository is used for tests and local scenarios.
type InMemoryRepository struct {
	mu     sync.RWMutex
	items  []Category
	nextID int
}

func NewInMemoryRepository(seed []Category) *InMemoryRepository {
	r := &InMemoryRepository{items: make([]Category, 0, len(seed)), nextID: 1}
	for _, c := range seed {
		r.items = append(r.items, c)
		if c.ID >= r.nextID {
			r.nextID = c.ID + 1
		}
	}
	return r
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Category, len(r.items))
	copy(out, r.items)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *InMemoryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if strings.EqualFold(c.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r *InMemoryRepository) FindIDByName(ctx context.Context, name string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.items {
		if c.Name == name {
			return c.ID, nil
		}
	}
	lower := strings.ToLower(name)
	for _, c := range r.items {
		if strings.Contains(strings.ToLower(c.Name), lower) {
			return c.ID, nil
		}
	}
	return 0, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, c Category) (Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if strings.EqualFold(existing.Name, c.Name) {
			return Category{}, ErrNameTaken
		}
	}
	c.ID = r.nextID
	r.nextID++
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.items = append(r.items, c)
	return c, nil
}

func (r *InMemoryRepository) DeleteMany(ctx context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	kept := r.items[:0]
	for _, c := range r.items {
		if !set[c.ID] {
			kept = append(kept, c)
		}
	}
	r.items = kept
	return nil
}

func (r *InMemoryRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	names := make([]string, 0, len(ids))
	for _, c := range r.items {
		if set[c.ID] {
			names = append(names, c.Name)
		}
	}
	return names, nil
}
