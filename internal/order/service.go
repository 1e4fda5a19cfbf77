package order

import (
	"context"
	"errors"

	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

var (
	ErrOrderNotFound = apperr.New(apperr.KindNotFound, "order not found")
)

// Service provides the read side of orders.
type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(r Repository, log *logger.Logger) *Service {
	return &Service{repo: r, log: log}
}

// History returns the caller's orders, newest first, with rollups. A read
// failure is logged and yields an empty history.
func (s *Service) History(ctx context.Context, sess session.Session) ([]Summary, error) {
	if err := sess.Check(); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListByUser(ctx, sess.UserID)
	if err != nil {
		s.log.Error(s.log.WithUserID(ctx, sess.UserID), "list orders failed", err)
		return []Summary{}, nil
	}
	return summarizeAll(orders), nil
}

// ListAll is the admin bookings view.
func (s *Service) ListAll(ctx context.Context, sess session.Session) ([]Summary, error) {
	if err := sess.CheckAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		s.log.Error(ctx, "list all orders failed", err)
		return []Summary{}, nil
	}
	return summarizeAll(orders), nil
}

// Export returns every order for the spreadsheet download. Unlike ListAll a
// read failure is an error: an empty file would look like a real export.
func (s *Service) Export(ctx context.Context, sess session.Session) ([]Order, error) {
	if err := sess.CheckAdmin(); err != nil {
		return nil, err
	}
	orders, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreRead, err, "failed to load orders")
	}
	return orders, nil
}

// Get returns one order to its owner or to an admin. Other users get
// ErrOrderNotFound so order ids cannot be enumerated.
func (s *Service) Get(ctx context.Context, sess session.Session, id int) (Order, error) {
	if err := sess.Check(); err != nil {
		return Order{}, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, apperr.Wrap(apperr.KindStoreRead, err, "failed to load order")
	}
	if o.UserID != sess.UserID && !sess.IsAdmin() {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func summarizeAll(orders []Order) []Summary {
	out := make([]Summary, 0, len(orders))
	for _, o := range orders {
		out = append(out, Summarize(o))
	}
	return out
}
