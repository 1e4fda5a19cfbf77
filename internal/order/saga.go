package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/cart"
	"github.com/wichananm65/jewel-shop-backend/internal/lock"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/metrics"
	"github.com/wichananm65/jewel-shop-backend/internal/notify"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

type State string

const (
	StateIdle             State = "idle"
	StateReading          State = "reading"
	StateUpdatingProducts State = "updating_products"
	StateWritingOrder     State = "writing_order"
	StateNotifying        State = "notifying"
	StateClearingCart     State = "clearing_cart"
	StateDone             State = "done"
	StateAborted          State = "aborted"
)

const (
	ReasonEmptyCart   = "empty-cart"
	ReasonReadFailed  = "read-failed"
	ReasonWriteFailed = "write-failed"
	ReasonUnavailable = "unavailable"
)

const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

const (
	MsgEmptyCart   = "Your cart is empty!"
	MsgLoadFailed  = "Failed to load cart"
	MsgOrderFailed = "Failed to create order"
	MsgPlaced      = "Order placed successfully!"
	MsgUnavailable = "The items in your cart are no longer available."

	ActionViewOrders       = "view_orders"
	ActionContinueShopping = "continue_shopping"

	guestCustomerName = "Guest Customer"
	bookingDateLayout = "2006-01-02"
)

var (
	ErrCartReadFailed   = apperr.New(apperr.KindStoreRead, MsgLoadFailed)
	ErrOrderWriteFailed = apperr.New(apperr.KindStoreWrite, MsgOrderFailed)
)

// Result describes how a confirmation ended and what the client should show.
type Result struct {
	State        State          `json:"state"`
	Reason       string         `json:"reason,omitempty"`
	Order        *Order         `json:"order,omitempty"`
	History      []HistoryEntry `json:"history,omitempty"`
	JustPlaced   bool           `json:"order_just_placed"`
	Message      string         `json:"message"`
	Level        string         `json:"level"`
	Actions      []string       `json:"actions,omitempty"`
	Notification notify.Status  `json:"notification,omitempty"`
	Unavailable  []int          `json:"unavailable,omitempty"`
	Transitions  []State        `json:"-"`
}

func (r *Result) enter(s State) {
	r.State = s
	r.Transitions = append(r.Transitions, s)
}

func (r *Result) abort(reason, level, msg string) Result {
	r.enter(StateAborted)
	r.Reason = reason
	r.Level = level
	r.Message = msg
	return *r
}

// CartStore is the part of the cart the confirmation reads and clears.
type CartStore interface {
	List(ctx context.Context, userID int) ([]cart.Item, error)
	DeleteAll(ctx context.Context, userID int) error
}

// ProductBooker flips products in and out of the booked state in bulk.
type ProductBooker interface {
	MarkBooked(ctx context.Context, ids []int, bookingDate string) ([]int, error)
	ReleaseBooked(ctx context.Context, ids []int) error
}

// Notifier accepts an order alert without waiting for delivery.
type Notifier interface {
	Enqueue(ctx context.Context, s notify.OrderSummary) bool
}

// Saga turns a user's cart into an order. Steps run strictly one after the
// other on the caller's goroutine; only the admin alert happens elsewhere.
type Saga struct {
	orders   Repository
	carts    CartStore
	products ProductBooker
	notifier Notifier
	locks    lock.Keyed
	log      *logger.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewSaga(orders Repository, carts CartStore, products ProductBooker, notifier Notifier, locks lock.Keyed, log *logger.Logger, m *metrics.Metrics) *Saga {
	if locks == nil {
		locks = lock.NewMemory()
	}
	return &Saga{
		orders:   orders,
		carts:    carts,
		products: products,
		notifier: notifier,
		locks:    locks,
		log:      log,
		metrics:  m,
		now:      time.Now,
	}
}

// Confirm runs the whole checkout. An empty cart aborts without an error and
// without any write. Rows whose product is already booked, by an earlier
// order or by a concurrent one, are left out of the order and reported in
// Result.Unavailable. Failing to read the cart or to insert the order aborts
// with an error; a failed insert releases only the products this call booked.
// Booking and cart-clearing failures are logged and do not stop the order.
func (s *Saga) Confirm(ctx context.Context, sess session.Session) (Result, error) {
	res := Result{State: StateIdle, Transitions: []State{StateIdle}}
	if err := sess.Check(); err != nil {
		return res, err
	}
	ctx = s.log.WithUserID(ctx, sess.UserID)

	unlock, err := s.locks.Lock(ctx, cart.LockKey(sess.UserID))
	if err != nil {
		return res, apperr.Wrap(apperr.KindInternal, err, MsgOrderFailed)
	}
	defer unlock()

	res.enter(StateReading)
	items, err := s.carts.List(ctx, sess.UserID)
	if err != nil {
		s.log.Error(ctx, "read cart for order failed", err)
		s.metrics.OrderConfirm(ReasonReadFailed)
		return res.abort(ReasonReadFailed, LevelError, MsgLoadFailed), apperr.Wrap(apperr.KindStoreRead, err, MsgLoadFailed)
	}
	if len(items) == 0 {
		s.metrics.OrderConfirm(ReasonEmptyCart)
		return res.abort(ReasonEmptyCart, LevelWarning, MsgEmptyCart), nil
	}

	items, res.Unavailable = splitBooked(items)
	if len(items) == 0 {
		s.metrics.OrderConfirm(ReasonUnavailable)
		return res.abort(ReasonUnavailable, LevelWarning, MsgUnavailable), nil
	}

	now := s.now().UTC()

	res.enter(StateUpdatingProducts)
	var booked []int
	if ids := productIDs(items); len(ids) > 0 {
		flipped, err := s.products.MarkBooked(ctx, ids, now.Format(bookingDateLayout))
		if err != nil {
			s.log.Error(ctx, "mark products booked failed", err)
		} else {
			booked = flipped
			var lost []int
			items, lost = keepBooked(items, flipped)
			res.Unavailable = append(res.Unavailable, lost...)
		}
	}
	if len(res.Unavailable) > 0 {
		s.log.Warn(s.log.WithField(ctx, "product_ids", res.Unavailable), "cart rows skipped, products already booked")
	}
	if len(items) == 0 {
		s.metrics.OrderConfirm(ReasonUnavailable)
		return res.abort(ReasonUnavailable, LevelWarning, MsgUnavailable), nil
	}

	res.enter(StateWritingOrder)
	snapshot := Snapshot(items)
	created, err := s.orders.Create(ctx, Order{
		UserID:    sess.UserID,
		Items:     snapshot,
		TotalItem: TotalItems(snapshot),
		CreatedAt: now,
	})
	if err != nil {
		s.log.Error(ctx, "insert order failed", err)
		if len(booked) > 0 {
			if rerr := s.products.ReleaseBooked(ctx, booked); rerr != nil {
				s.log.Error(ctx, "release booked products after failed order failed", rerr)
			}
		}
		s.metrics.OrderConfirm(ReasonWriteFailed)
		return res.abort(ReasonWriteFailed, LevelError, MsgOrderFailed), apperr.Wrap(apperr.KindStoreWrite, err, MsgOrderFailed)
	}
	ctx = s.log.WithOrderID(ctx, created.ID)

	res.enter(StateNotifying)
	res.Notification = notify.StatusFailed
	if s.notifier != nil && s.notifier.Enqueue(ctx, s.summary(sess, created)) {
		res.Notification = notify.StatusPending
	}

	res.enter(StateClearingCart)
	if err := s.carts.DeleteAll(ctx, sess.UserID); err != nil {
		s.log.Error(ctx, "clear cart after order failed", err)
	}

	res.enter(StateDone)
	res.Order = &created
	res.History = History(created, now)
	res.JustPlaced = true
	res.Message = MsgPlaced
	res.Level = LevelSuccess
	res.Actions = []string{ActionViewOrders, ActionContinueShopping}
	s.metrics.OrderConfirm("placed")
	s.log.Info(ctx, "order placed")
	return res, nil
}

func (s *Saga) summary(sess session.Session, o Order) notify.OrderSummary {
	name := sess.Name
	if name == "" {
		name = guestCustomerName
	}
	lines := make([]notify.ItemLine, 0, len(o.Items))
	total := decimal.Zero
	for _, it := range o.Items {
		lines = append(lines, notify.ItemLine{Name: it.ProductName, Quantity: it.Qty()})
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Qty()))))
	}
	return notify.OrderSummary{
		OrderID:      o.ID,
		CustomerName: name,
		TotalItems:   o.TotalItem,
		TotalAmount:  total,
		Items:        lines,
		PlacedAt:     o.CreatedAt,
	}
}

// Snapshot copies cart rows into order items, filling gaps left by
// products that no longer exist.
func Snapshot(items []cart.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, ci := range items {
		it := Item{
			ID:           ci.ID,
			ProductID:    ci.ProductID,
			ProductName:  UnknownProductName,
			CategoryName: ci.CategoryName,
			Quantity:     ci.Quantity,
			Price:        decimal.Zero,
			CreatedAt:    ci.CreatedAt,
		}
		if p := ci.Product; p != nil {
			if p.Name != "" {
				it.ProductName = p.Name
			}
			if it.CategoryName == "" {
				it.CategoryName = p.CategoryName
			}
			it.Weight = p.Weight
			it.Price = p.PriceOrZero()
			it.ProductImageURL = p.ImageURL
		}
		out = append(out, it)
	}
	return out
}

// History builds the entries the customer's order list gains immediately.
func History(o Order, bookedAt time.Time) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, HistoryEntry{
			JewelleryName: it.ProductName,
			Category:      it.CategoryName,
			Quantity:      it.Quantity,
			Weight:        it.Weight,
			BookingDate:   bookedAt,
			Status:        product.StatusBooked,
			Image:         it.ProductImageURL,
			OrderID:       o.ID,
		})
	}
	return out
}

// splitBooked drops rows whose joined product is already booked and returns
// their product ids. Rows without a product are kept.
func splitBooked(items []cart.Item) ([]cart.Item, []int) {
	kept := make([]cart.Item, 0, len(items))
	var skipped []int
	for _, it := range items {
		if it.Product != nil && it.Product.IsBooked() {
			skipped = append(skipped, it.ProductID)
			continue
		}
		kept = append(kept, it)
	}
	return kept, skipped
}

// keepBooked keeps the rows whose product this confirmation booked. A row
// with a joined product that was not flipped lost it to another order.
func keepBooked(items []cart.Item, booked []int) ([]cart.Item, []int) {
	set := make(map[int]bool, len(booked))
	for _, id := range booked {
		set[id] = true
	}
	kept := make([]cart.Item, 0, len(items))
	var lost []int
	for _, it := range items {
		if it.Product != nil && !set[it.ProductID] {
			lost = append(lost, it.ProductID)
			continue
		}
		kept = append(kept, it)
	}
	return kept, lost
}

// productIDs returns the distinct non-zero product ids in cart order.
func productIDs(items []cart.Item) []int {
	seen := make(map[int]bool, len(items))
	ids := make([]int, 0, len(items))
	for _, it := range items {
		if it.ProductID == 0 || seen[it.ProductID] {
			continue
		}
		seen[it.ProductID] = true
		ids = append(ids, it.ProductID)
	}
	return ids
}
