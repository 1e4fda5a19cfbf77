package order

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	ErrNotFound = errors.New("order not found")
)

// Repository defines persistence operations for orders. Orders are insert
// only.
type Repository interface {
	Create(ctx context.Context, o Order) (Order, error)
	// ListByUser returns the user's orders, newest first.
	ListByUser(ctx context.Context, userID int) ([]Order, error)
	// ListAll returns every order joined with its customer, newest first.
	ListAll(ctx context.Context) ([]Order, error)
	GetByID(ctx context.Context, id int) (Order, error)
}

// InMemoryRepository is used for tests and local runs.
type InMemoryRepository struct {
	mu        sync.RWMutex
	orders    []Order
	customers map[int]Customer
	nextID    int
	now       func() time.Time

	// FailCreate makes Create return this error (tests).
	FailCreate error
}

func NewInMemoryRepository(seed []Order, customers []Customer) *InMemoryRepository {
	r := &InMemoryRepository{
		orders:    make([]Order, 0, len(seed)),
		customers: make(map[int]Customer, len(customers)),
		nextID:    1,
		now:       time.Now,
	}
	for _, o := range seed {
		if o.ID >= r.nextID {
			r.nextID = o.ID + 1
		}
		r.orders = append(r.orders, o)
	}
	for _, c := range customers {
		r.customers[c.ID] = c
	}
	return r
}

func (r *InMemoryRepository) Create(ctx context.Context, o Order) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailCreate != nil {
		return Order{}, r.FailCreate
	}
	o.ID = r.nextID
	r.nextID++
	if o.CreatedAt.IsZero() {
		o.CreatedAt = r.now()
	}
	o.Customer = nil
	r.orders = append(r.orders, o)
	return o, nil
}

func (r *InMemoryRepository) ListByUser(ctx context.Context, userID int) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0)
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) ListAll(ctx context.Context) ([]Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, r.withCustomer(o))
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			return r.withCustomer(o), nil
		}
	}
	return Order{}, ErrNotFound
}

func (r *InMemoryRepository) withCustomer(o Order) Order {
	if c, ok := r.customers[o.UserID]; ok {
		o.Customer = &c
	}
	return o
}

func sortNewestFirst(orders []Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		if orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].ID > orders[j].ID
		}
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
