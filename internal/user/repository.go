package user

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = errors.New("user not found")

type Repository interface {
	// List returns users newest first; an empty role means every role.
	List(ctx context.Context, role string) ([]User, error)
	GetByID(ctx context.Context, id int) (User, error)
	GetByPhone(ctx context.Context, phone string) (User, error)
	Create(ctx context.Context, u User) (User, error)
	Update(ctx context.Context, id int, in Update) (User, error)
	SetStatus(ctx context.Context, id int, status string) error
	DeleteMany(ctx context.Context, ids []int) error
	NamesByIDs(ctx context.Context, ids []int) ([]string, error)
}

type InMemoryRepository struct {
	mu     sync.RWMutex
	users  []User
	nextID int

	// SetStatusHook runs inside SetStatus before the write, letting tests
	// hold a toggle in flight.
	SetStatusHook func()
}

func NewInMemoryRepository(seed []User) *InMemoryRepository {
	repo := &InMemoryRepository{
		users:  make([]User, 0, len(seed)),
		nextID: 1,
	}

	maxID := 0
	for _, u := range seed {
		repo.users = append(repo.users, u)
		if u.ID > maxID {
			maxID = u.ID
		}
	}

	repo.nextID = maxID + 1
	return repo
}

func (r *InMemoryRepository) List(ctx context.Context, role string) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for _, u := range r.users {
		if u.Name == "" || (role != "" && u.Role != role) {
			continue
		}
		users = append(users, u)
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID > users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})
	return users, nil
}

func (r *InMemoryRepository) GetByID(ctx context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.ID == id {
			return u, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) GetByPhone(ctx context.Context, phone string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Phone == phone {
			return u, nil
		}
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) Create(ctx context.Context, u User) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == 0 {
		u.ID = r.nextID
		r.nextID++
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.users = append(r.users, u)
	return u, nil
}

func (r *InMemoryRepository) Update(ctx context.Context, id int, in Update) (User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, u := range r.users {
		if u.ID != id {
			continue
		}
		if in.Name != nil {
			u.Name = *in.Name
		}
		if in.Role != nil {
			u.Role = *in.Role
		}
		if in.Phone != nil {
			u.Phone = *in.Phone
		}
		r.users[i] = u
		return u, nil
	}

	return User{}, ErrNotFound
}

func (r *InMemoryRepository) SetStatus(ctx context.Context, id int, status string) error {
	if r.SetStatusHook != nil {
		r.SetStatusHook()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Status = status
			return nil
		}
	}

	return ErrNotFound
}

func (r *InMemoryRepository) DeleteMany(ctx context.Context, ids []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := r.users[:0]
	for _, u := range r.users {
		if !drop[u.ID] {
			kept = append(kept, u)
		}
	}
	r.users = kept
	return nil
}

func (r *InMemoryRepository) NamesByIDs(ctx context.Context, ids []int) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		for _, u := range r.users {
			if u.ID == id {
				names = append(names, u.Name)
				break
			}
		}
	}
	return names, nil
}
