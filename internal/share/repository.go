package share

import (
	"context"
	"sync"
	"time"
)

// Repository stores the append-only share list.
type Repository interface {
	// Insert saves all entries or none.
	Insert(ctx context.Context, entries []Entry) ([]Entry, error)
	// List returns entries newest first.
	List(ctx context.Context) ([]Entry, error)
}

type InMemoryRepository struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
	now     func() time.Time

	FailInsert error
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{nextID: 1, now: time.Now}
}

func (r *InMemoryRepository) Insert(ctx context.Context, entries []Entry) ([]Entry, error) {
	if r.FailInsert != nil {
		return nil, r.FailInsert
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	saved := make([]Entry, len(entries))
	for i, e := range entries {
		e.ID = r.nextID
		r.nextID++
		e.CreatedAt = r.now().UTC()
		saved[i] = e
	}
	r.entries = append(r.entries, saved...)
	return saved, nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}
