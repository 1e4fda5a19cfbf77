package notify

import (
	"context"
	"sync"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/metrics"
)

const defaultQueueSize = 64

// OrderNotifier delivers one order alert and reports success.
type OrderNotifier interface {
	Notify(ctx context.Context, s OrderSummary) bool
}

// Dispatcher hands order alerts to a single background worker so that
// placing an order never waits on SMS delivery.
type Dispatcher struct {
	notifier OrderNotifier
	store    StatusStore
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time

	queue chan OrderSummary
	done  chan struct{}

	mu      sync.RWMutex
	closed  bool
	started bool

	subMu       sync.Mutex
	subscribers []func(Event)
}

func NewDispatcher(notifier OrderNotifier, store StatusStore, queueSize int, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if store == nil {
		store = NewMemoryStatusStore()
	}
	return &Dispatcher{
		notifier: notifier,
		store:    store,
		log:      log,
		metrics:  m,
		now:      time.Now,
		queue:    make(chan OrderSummary, queueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the worker. ctx bounds every delivery attempt; cancelling it
// makes pending sends fail fast but the queue is still drained.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started {
		d.mu.Unlock()
		return
	}
	d.started = true
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		for s := range d.queue {
			d.deliver(ctx, s)
		}
	}()
}

// Subscribe registers fn to be called for every status change. Pending and
// dropped events fire on the enqueuing goroutine, outcomes on the worker.
func (d *Dispatcher) Subscribe(fn func(Event)) {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	d.subscribers = append(d.subscribers, fn)
}

// Enqueue records the order as pending and queues it. It never blocks: a
// full or closed queue marks the notification failed and returns false.
func (d *Dispatcher) Enqueue(ctx context.Context, s OrderSummary) bool {
	d.record(ctx, s.OrderID, StatusPending)

	queued, closed := false, false
	d.mu.RLock()
	if d.closed {
		closed = true
	} else {
		select {
		case d.queue <- s:
			queued = true
		default:
		}
	}
	d.mu.RUnlock()

	if queued {
		return true
	}
	if !closed {
		d.log.Warn(d.log.WithOrderID(ctx, s.OrderID), "notification queue full")
		d.metrics.Notification("dropped")
	}
	d.record(ctx, s.OrderID, StatusFailed)
	return false
}

func (d *Dispatcher) Status(ctx context.Context, orderID int) (Status, error) {
	return d.store.Get(ctx, orderID)
}

// Close stops accepting work and waits for queued alerts to finish or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	started := d.started
	close(d.queue)
	d.mu.Unlock()

	if !started {
		return nil
	}
	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) deliver(ctx context.Context, s OrderSummary) {
	if d.notifier != nil && d.notifier.Notify(ctx, s) {
		d.metrics.Notification("sent")
		d.record(ctx, s.OrderID, StatusSent)
		return
	}
	d.metrics.Notification("failed")
	d.record(ctx, s.OrderID, StatusFailed)
}

func (d *Dispatcher) record(ctx context.Context, orderID int, status Status) {
	ev := Event{OrderID: orderID, Status: status, At: d.now()}
	if err := d.store.Set(ctx, ev); err != nil {
		d.log.Error(d.log.WithOrderID(ctx, orderID), "store notification status failed", err)
	}

	d.subMu.Lock()
	subs := append([]func(Event){}, d.subscribers...)
	d.subMu.Unlock()
	for _, fn := range subs {
		fn(ev)
	}
}
