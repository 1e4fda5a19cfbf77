package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/redis"
)

var ErrTokenNotFound = errors.New("confirmation token not found")

// Pending is a bulk delete waiting for the admin to confirm it.
type Pending struct {
	Entity   string `json:"entity"`
	IDs      []int  `json:"ids"`
	IssuedBy int    `json:"issued_by"`
}

// TokenStore holds pending deletes. Take removes the token, so each token
// can be redeemed once.
type TokenStore interface {
	Put(ctx context.Context, token string, p Pending, ttl time.Duration) error
	Take(ctx context.Context, token string) (Pending, error)
}

type memoryEntry struct {
	pending   Pending
	expiresAt time.Time
}

type MemoryTokenStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	return &MemoryTokenStore{entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryTokenStore) Put(ctx context.Context, token string, p Pending, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, k)
		}
	}
	m.entries[token] = memoryEntry{pending: p, expiresAt: now.Add(ttl)}
	return nil
}

func (m *MemoryTokenStore) Take(ctx context.Context, token string) (Pending, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[token]
	if !ok {
		return Pending{}, ErrTokenNotFound
	}
	delete(m.entries, token)
	if m.now().After(e.expiresAt) {
		return Pending{}, ErrTokenNotFound
	}
	return e.pending, nil
}

type redisStore interface {
	Key(parts ...string) string
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	GetDel(ctx context.Context, key string) (string, error)
}

// RedisTokenStore shares pending deletes across instances. Expiry is left
// to redis.
type RedisTokenStore struct {
	client redisStore
}

func NewRedisTokenStore(client redisStore) *RedisTokenStore {
	return &RedisTokenStore{client: client}
}

func (r *RedisTokenStore) Put(ctx context.Context, token string, p Pending, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.client.Key("confirm", token), string(payload), ttl)
}

func (r *RedisTokenStore) Take(ctx context.Context, token string) (Pending, error) {
	raw, err := r.client.GetDel(ctx, r.client.Key("confirm", token))
	if err != nil {
		if redis.IsNil(err) {
			return Pending{}, ErrTokenNotFound
		}
		return Pending{}, err
	}
	var p Pending
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Pending{}, err
	}
	return p, nil
}
