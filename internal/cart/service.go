package cart

import (
	"context"
	"errors"
	"strconv"

	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/lock"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/metrics"
	"github.com/wichananm65/jewel-shop-backend/internal/product"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

var (
	ErrProductNotFound = apperr.New(apperr.KindNotFound, "product not found")
)

// AddResult is the outcome of AddToCart. A duplicate or a product that is
// already booked is not an error: it comes back with Success false and a
// message for the user.
type AddResult struct {
	Success  bool   `json:"success"`
	ItemName string `json:"itemName"`
	Message  string `json:"message"`
}

// Service orchestrates cart operations. Mutations for one user are
// serialized through locks.
type Service struct {
	repo     Repository
	products ProductReader
	locks    lock.Keyed
	log      *logger.Logger
	metrics  *metrics.Metrics
}

func NewService(repo Repository, products ProductReader, locks lock.Keyed, log *logger.Logger, m *metrics.Metrics) *Service {
	if locks == nil {
		locks = lock.NewMemory()
	}
	return &Service{repo: repo, products: products, locks: locks, log: log, metrics: m}
}

func (s *Service) AddToCart(ctx context.Context, sess session.Session, productID int) (AddResult, error) {
	if err := sess.Check(); err != nil {
		return AddResult{}, err
	}
	ctx = s.log.WithUserID(ctx, sess.UserID)

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return AddResult{}, ErrProductNotFound
		}
		return AddResult{}, apperr.Wrap(apperr.KindStoreRead, err, "Failed to add item to cart")
	}
	name := p.Name
	if name == "" {
		name = p.CategoryName
	}
	if p.IsBooked() {
		s.metrics.CartAdd("unavailable")
		return unavailable(name), nil
	}

	unlock, err := s.locks.Lock(ctx, LockKey(sess.UserID))
	if err != nil {
		return AddResult{}, apperr.Wrap(apperr.KindInternal, err, "Failed to add item to cart")
	}
	defer unlock()

	exists, err := s.repo.Exists(ctx, sess.UserID, productID)
	if err != nil {
		s.metrics.CartAdd("error")
		return AddResult{}, apperr.Wrap(apperr.KindStoreRead, err, "Failed to add item to cart")
	}
	if exists {
		s.metrics.CartAdd("duplicate")
		return duplicate(name), nil
	}

	_, err = s.repo.Insert(ctx, Item{
		UserID:       sess.UserID,
		ProductID:    productID,
		CategoryName: p.CategoryName,
		Quantity:     DefaultQuantity,
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyInCart) {
			s.metrics.CartAdd("duplicate")
			return duplicate(name), nil
		}
		s.metrics.CartAdd("error")
		s.log.Error(ctx, "insert cart item failed", err)
		return AddResult{}, apperr.Wrap(apperr.KindStoreWrite, err, "Failed to add item to cart")
	}

	s.metrics.CartAdd("added")
	return AddResult{Success: true, ItemName: name, Message: name + " added to cart!"}, nil
}

// RemoveFromCart reports true whenever the delete call succeeded, whether or
// not a row existed.
func (s *Service) RemoveFromCart(ctx context.Context, sess session.Session, productID int) (bool, error) {
	if err := sess.Check(); err != nil {
		return false, err
	}
	unlock, err := s.locks.Lock(ctx, LockKey(sess.UserID))
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, err, "Failed to remove item from cart")
	}
	defer unlock()

	if err := s.repo.Delete(ctx, sess.UserID, productID); err != nil {
		s.log.Error(s.log.WithUserID(ctx, sess.UserID), "delete cart item failed", err)
		return false, apperr.Wrap(apperr.KindStoreWrite, err, "Failed to remove item from cart")
	}
	return true, nil
}

func (s *Service) ClearCart(ctx context.Context, sess session.Session) (bool, error) {
	if err := sess.Check(); err != nil {
		return false, err
	}
	unlock, err := s.locks.Lock(ctx, LockKey(sess.UserID))
	if err != nil {
		return false, apperr.Wrap(apperr.KindInternal, err, "Failed to clear cart")
	}
	defer unlock()

	if err := s.repo.DeleteAll(ctx, sess.UserID); err != nil {
		s.log.Error(s.log.WithUserID(ctx, sess.UserID), "clear cart failed", err)
		return false, apperr.Wrap(apperr.KindStoreWrite, err, "Failed to clear cart")
	}
	return true, nil
}

// Items returns the user's cart rows joined with their products.
func (s *Service) Items(ctx context.Context, sess session.Session) ([]Item, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	items, err := s.repo.List(ctx, sess.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreRead, err, "Failed to load cart")
	}
	return items, nil
}

// View reads the cart fresh from the store.
func (s *Service) View(ctx context.Context, sess session.Session) (View, error) {
	items, err := s.Items(ctx, sess)
	if err != nil {
		return View{}, err
	}
	return View{Items: items, Count: len(items), Totals: ComputeTotals(items)}, nil
}

func (s *Service) Count(ctx context.Context, sess session.Session) (int, error) {
	if err := sess.Check(); err != nil {
		return 0, err
	}
	n, err := s.repo.Count(ctx, sess.UserID)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindStoreRead, err, "Failed to count cart items")
	}
	return n, nil
}

func unavailable(name string) AddResult {
	return AddResult{Success: false, ItemName: name, Message: name + " is no longer available."}
}

func duplicate(name string) AddResult {
	return AddResult{Success: false, ItemName: name, Message: name + " is already in your cart!"}
}

// LockKey is the lock.Keyed key guarding one user's cart. Anything else that
// rewrites the cart, such as order confirmation, takes the same key.
func LockKey(userID int) string {
	return "cart:" + strconv.Itoa(userID)
}
