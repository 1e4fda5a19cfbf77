package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/jewel-shop-backend/internal/cart"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/notify"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

var buyer = session.Session{UserID: 42, Name: "Asha", Role: session.RoleUser}

type recordingProducts struct {
	*product.InMemoryRepository
	marked   [][]int
	released [][]int
}

func (r *recordingProducts) MarkBooked(ctx context.Context, ids []int, date string) ([]int, error) {
	r.marked = append(r.marked, ids)
	return r.InMemoryRepository.MarkBooked(ctx, ids, date)
}

func (r *recordingProducts) ReleaseBooked(ctx context.Context, ids []int) error {
	r.released = append(r.released, ids)
	return r.InMemoryRepository.ReleaseBooked(ctx, ids)
}

type recordingCarts struct {
	*cart.InMemoryRepository
	cleared int
}

func (r *recordingCarts) DeleteAll(ctx context.Context, userID int) error {
	r.cleared++
	return r.InMemoryRepository.DeleteAll(ctx, userID)
}

type fakeNotifier struct {
	accept    bool
	summaries []notify.OrderSummary
}

func (f *fakeNotifier) Enqueue(ctx context.Context, s notify.OrderSummary) bool {
	f.summaries = append(f.summaries, s)
	return f.accept
}

type sagaFixture struct {
	saga     *Saga
	orders   *InMemoryRepository
	products *recordingProducts
	carts    *recordingCarts
	notifier *fakeNotifier
}

func newSagaFixture(t *testing.T, cartItems []cart.Item) *sagaFixture {
	t.Helper()
	products := &recordingProducts{InMemoryRepository: product.NewInMemoryRepository([]product.Product{
		{ID: 1, CategoryName: "Rings", Name: "Ruby Ring", Weight: "5g", Price: decimal.NullDecimal{Decimal: decimal.NewFromInt(50), Valid: true}},
		{ID: 2, CategoryName: "Chains", Name: "Gold Chain", Weight: "10g", Price: decimal.NullDecimal{Decimal: decimal.NewFromInt(100), Valid: true}},
	})}
	carts := &recordingCarts{InMemoryRepository: cart.NewInMemoryRepository(products, cartItems)}
	orders := NewInMemoryRepository(nil, nil)
	notifier := &fakeNotifier{accept: true}
	saga := NewSaga(orders, carts, products, notifier, nil, logger.Nop(), nil)
	saga.now = func() time.Time { return time.Date(2026, 10, 16, 2, 0, 0, 0, time.FixedZone("IST", 5*3600+1800)) }
	return &sagaFixture{saga: saga, orders: orders, products: products, carts: carts, notifier: notifier}
}

func twoItemCart() []cart.Item {
	return []cart.Item{
		{ID: 10, UserID: 42, ProductID: 1, CategoryName: "Rings", Quantity: "1"},
		{ID: 11, UserID: 42, ProductID: 2, CategoryName: "Chains", Quantity: "1"},
	}
}

func TestConfirmEmptyCartWritesNothing(t *testing.T) {
	f := newSagaFixture(t, nil)

	res, err := f.saga.Confirm(context.Background(), buyer)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, ReasonEmptyCart, res.Reason)
	assert.Equal(t, LevelWarning, res.Level)
	assert.Equal(t, "Your cart is empty!", res.Message)

	assert.Empty(t, f.products.marked)
	assert.Zero(t, f.carts.cleared)
	assert.Empty(t, f.notifier.summaries)
	all, _ := f.orders.ListAll(context.Background())
	assert.Empty(t, all)
}

func TestConfirmTwoItemCart(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	ctx := context.Background()

	res, err := f.saga.Confirm(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []State{StateIdle, StateReading, StateUpdatingProducts, StateWritingOrder, StateNotifying, StateClearingCart, StateDone}, res.Transitions)
	assert.Equal(t, "Order placed successfully!", res.Message)
	assert.True(t, res.JustPlaced)
	assert.Equal(t, []string{ActionViewOrders, ActionContinueShopping}, res.Actions)
	assert.Equal(t, notify.StatusPending, res.Notification)

	for _, id := range []int{1, 2} {
		p, err := f.products.GetByID(ctx, id)
		require.NoError(t, err)
		assert.True(t, p.IsBooked(), "product %d should be booked", id)
		require.NotNil(t, p.BookingDate)
		assert.Equal(t, "2026-10-15", *p.BookingDate, "booking date is the UTC day")
	}
	require.Len(t, f.products.marked, 1, "one bulk update")

	orders, _ := f.orders.ListByUser(ctx, buyer.UserID)
	require.Len(t, orders, 1)
	assert.Len(t, orders[0].Items, 2)
	assert.Equal(t, 2, orders[0].TotalItem)

	n, _ := f.carts.Count(ctx, buyer.UserID)
	assert.Zero(t, n)

	require.Len(t, res.History, 2)
	assert.Equal(t, "booked", res.History[0].Status)
	assert.Equal(t, orders[0].ID, res.History[0].OrderID)

	require.Len(t, f.notifier.summaries, 1)
	sum := f.notifier.summaries[0]
	assert.Equal(t, orders[0].ID, sum.OrderID)
	assert.Equal(t, "Asha", sum.CustomerName)
	assert.Equal(t, 2, sum.TotalItems)
	assert.True(t, sum.TotalAmount.Equal(decimal.NewFromInt(150)))
}

func TestConfirmOrderInsertFailureReleasesProducts(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	f.orders.FailCreate = errors.New("insert failed")
	ctx := context.Background()

	res, err := f.saga.Confirm(ctx, buyer)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrderWriteFailed))
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, "Failed to create order", res.Message)

	require.Len(t, f.products.released, 1)
	assert.ElementsMatch(t, []int{1, 2}, f.products.released[0])
	for _, id := range []int{1, 2} {
		p, _ := f.products.GetByID(ctx, id)
		assert.Nil(t, p.Status)
		assert.Nil(t, p.BookingDate)
	}
	assert.Empty(t, f.notifier.summaries)
	assert.Zero(t, f.carts.cleared)
	n, _ := f.carts.Count(ctx, buyer.UserID)
	assert.Equal(t, 2, n)
}

func TestConfirmInsertFailureKeepsEarlierOrdersBooked(t *testing.T) {
	items := append(twoItemCart(), cart.Item{ID: 12, UserID: 7, ProductID: 1, CategoryName: "Rings", Quantity: "1"})
	f := newSagaFixture(t, items)
	ctx := context.Background()

	first, err := f.saga.Confirm(ctx, session.Session{UserID: 7, Name: "Ravi", Role: session.RoleUser})
	require.NoError(t, err)
	require.Equal(t, StateDone, first.State)

	f.orders.FailCreate = errors.New("insert failed")
	_, err = f.saga.Confirm(ctx, buyer)
	require.True(t, errors.Is(err, ErrOrderWriteFailed))

	require.Len(t, f.products.released, 1)
	assert.Equal(t, []int{2}, f.products.released[0], "only the product this confirmation booked is released")
	p, _ := f.products.GetByID(ctx, 1)
	assert.True(t, p.IsBooked(), "product 1 belongs to the first order")
	require.NotNil(t, p.BookingDate)
	p, _ = f.products.GetByID(ctx, 2)
	assert.Nil(t, p.Status)
}

func TestConfirmSkipsProductsAlreadyBooked(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	ctx := context.Background()
	_, err := f.products.InMemoryRepository.MarkBooked(ctx, []int{1}, "2026-10-01")
	require.NoError(t, err)

	res, err := f.saga.Confirm(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, []int{1}, res.Unavailable)
	require.Len(t, f.products.marked, 1)
	assert.Equal(t, []int{2}, f.products.marked[0])

	orders, _ := f.orders.ListByUser(ctx, buyer.UserID)
	require.Len(t, orders, 1)
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 2, orders[0].Items[0].ProductID)

	p, _ := f.products.GetByID(ctx, 1)
	require.NotNil(t, p.BookingDate)
	assert.Equal(t, "2026-10-01", *p.BookingDate, "earlier booking date is kept")
}

func TestConfirmAbortsWhenEverythingIsBooked(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	ctx := context.Background()
	_, err := f.products.InMemoryRepository.MarkBooked(ctx, []int{1, 2}, "2026-10-01")
	require.NoError(t, err)

	res, err := f.saga.Confirm(ctx, buyer)
	require.NoError(t, err)
	assert.Equal(t, StateAborted, res.State)
	assert.Equal(t, ReasonUnavailable, res.Reason)
	assert.Equal(t, MsgUnavailable, res.Message)
	assert.ElementsMatch(t, []int{1, 2}, res.Unavailable)
	assert.Empty(t, f.products.marked)
	assert.Empty(t, f.notifier.summaries)
	all, _ := f.orders.ListAll(ctx)
	assert.Empty(t, all)
}

// staleCarts returns rows whose joined products were read before another
// order booked them.
type staleCarts struct {
	items []cart.Item
}

func (s staleCarts) List(ctx context.Context, userID int) ([]cart.Item, error) {
	return s.items, nil
}

func (s staleCarts) DeleteAll(ctx context.Context, userID int) error {
	return nil
}

func TestConfirmDropsProductsBookedConcurrently(t *testing.T) {
	products := &recordingProducts{InMemoryRepository: product.NewInMemoryRepository([]product.Product{
		{ID: 1, CategoryName: "Rings", Name: "Ruby Ring", Weight: "5g"},
		{ID: 2, CategoryName: "Chains", Name: "Gold Chain", Weight: "10g"},
	})}
	ctx := context.Background()
	p1, _ := products.GetByID(ctx, 1)
	p2, _ := products.GetByID(ctx, 2)
	_, err := products.InMemoryRepository.MarkBooked(ctx, []int{1}, "2026-10-01")
	require.NoError(t, err)

	orders := NewInMemoryRepository(nil, nil)
	orders.FailCreate = errors.New("insert failed")
	saga := NewSaga(orders, staleCarts{items: []cart.Item{
		{ID: 10, UserID: 42, ProductID: 1, Quantity: "1", Product: &p1},
		{ID: 11, UserID: 42, ProductID: 2, Quantity: "1", Product: &p2},
	}}, products, &fakeNotifier{accept: true}, nil, logger.Nop(), nil)

	res, err := saga.Confirm(ctx, buyer)
	require.True(t, errors.Is(err, ErrOrderWriteFailed))
	assert.Equal(t, []int{1}, res.Unavailable)
	require.Len(t, products.released, 1)
	assert.Equal(t, []int{2}, products.released[0])

	p, _ := products.GetByID(ctx, 1)
	assert.True(t, p.IsBooked())
}

func TestConfirmContinuesPastBookingAndClearFailures(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	f.products.FailMarkBooked = errors.New("update failed")
	f.carts.FailDeleteAll = errors.New("delete failed")
	f.notifier.accept = false

	res, err := f.saga.Confirm(context.Background(), buyer)
	require.NoError(t, err)
	assert.Equal(t, StateDone, res.State)
	assert.Equal(t, notify.StatusFailed, res.Notification)
	orders, _ := f.orders.ListByUser(context.Background(), buyer.UserID)
	assert.Len(t, orders, 1)
}

func TestConfirmCartReadFailure(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())
	f.carts.FailList = errors.New("read failed")

	res, err := f.saga.Confirm(context.Background(), buyer)
	assert.True(t, errors.Is(err, ErrCartReadFailed))
	assert.Equal(t, ReasonReadFailed, res.Reason)
	assert.Empty(t, f.products.marked)
}

func TestConfirmRequiresSession(t *testing.T) {
	f := newSagaFixture(t, twoItemCart())

	_, err := f.saga.Confirm(context.Background(), session.Session{})
	assert.True(t, errors.Is(err, session.ErrNotAuthenticated))
	assert.Empty(t, f.products.marked)
}
