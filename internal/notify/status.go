package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/redis"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

var (
	ErrStatusNotFound = errors.New("notification status not found")
)

// ToastFor is the message shown to the customer once the alert outcome is
// known. Pending has no toast.
func ToastFor(s Status) string {
	switch s {
	case StatusSent:
		return "Order confirmed & SMS sent to admin!"
	case StatusFailed:
		return "Order confirmed! (SMS notification failed)"
	default:
		return ""
	}
}

// Event is published whenever an order's notification status changes.
type Event struct {
	OrderID int       `json:"order_id"`
	Status  Status    `json:"status"`
	At      time.Time `json:"at"`
}

// StatusStore remembers the latest notification status per order.
type StatusStore interface {
	Set(ctx context.Context, ev Event) error
	Get(ctx context.Context, orderID int) (Status, error)
}

// MemoryStatusStore keeps statuses in process.
type MemoryStatusStore struct {
	mu       sync.RWMutex
	statuses map[int]Status
}

func NewMemoryStatusStore() *MemoryStatusStore {
	return &MemoryStatusStore{statuses: make(map[int]Status)}
}

func (m *MemoryStatusStore) Set(ctx context.Context, ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[ev.OrderID] = ev.Status
	return nil
}

func (m *MemoryStatusStore) Get(ctx context.Context, orderID int) (Status, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.statuses[orderID]
	if !ok {
		return "", ErrStatusNotFound
	}
	return s, nil
}

type redisStore interface {
	Key(parts ...string) string
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Publish(ctx context.Context, channel string, message any) error
}

// RedisStatusStore keeps statuses in redis with a TTL and publishes every
// change on channel so other instances and consumers can follow along.
type RedisStatusStore struct {
	client  redisStore
	ttl     time.Duration
	channel string
}

func NewRedisStatusStore(client redisStore, ttl time.Duration, channel string) *RedisStatusStore {
	return &RedisStatusStore{client: client, ttl: ttl, channel: channel}
}

func (r *RedisStatusStore) key(orderID int) string {
	return r.client.Key("order", strconv.Itoa(orderID), "notification")
}

func (r *RedisStatusStore) Set(ctx context.Context, ev Event) error {
	if err := r.client.Set(ctx, r.key(ev.OrderID), string(ev.Status), r.ttl); err != nil {
		return err
	}
	if r.channel == "" {
		return nil
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload)
}

func (r *RedisStatusStore) Get(ctx context.Context, orderID int) (Status, error) {
	v, err := r.client.Get(ctx, r.key(orderID))
	if err != nil {
		if redis.IsNil(err) {
			return "", ErrStatusNotFound
		}
		return "", err
	}
	return Status(v), nil
}
