package share

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/user"
)

const UnnamedUser = "Unnamed User"

var ErrNoRecipients = apperr.New(apperr.KindValidation, "select at least one user to share with")

// Entry is one row of the share list. It copies the user's name and phone at
// share time and is never updated.
type Entry struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone_number"`
	CreatedAt time.Time `json:"created_at"`
}

// UserDirectory lists accounts by role.
type UserDirectory interface {
	List(ctx context.Context, sess session.Session, role string) ([]user.User, error)
}

type Result struct {
	Entries []Entry `json:"entries"`
	Message string  `json:"message"`
}

type Service struct {
	repo  Repository
	users UserDirectory
	log   *logger.Logger
}

func NewService(repo Repository, users UserDirectory, log *logger.Logger) *Service {
	return &Service{repo: repo, users: users, log: log}
}

// Recipients returns the customers a catalog can be shared with, by name.
func (s *Service) Recipients(ctx context.Context, sess session.Session) ([]user.User, error) {
	users, err := s.users.List(ctx, sess, session.RoleUser)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].Name) < strings.ToLower(users[j].Name)
	})
	return users, nil
}

// Share appends a snapshot of each selected customer to the share list.
// Ids that are not customers are ignored.
func (s *Service) Share(ctx context.Context, sess session.Session, userIDs []int) (Result, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Result{}, err
	}
	if len(userIDs) == 0 {
		return Result{}, ErrNoRecipients
	}
	users, err := s.users.List(ctx, sess, session.RoleUser)
	if err != nil {
		return Result{}, err
	}

	selected := make(map[int]bool, len(userIDs))
	for _, id := range userIDs {
		selected[id] = true
	}
	entries := make([]Entry, 0, len(userIDs))
	for _, u := range users {
		if !selected[u.ID] {
			continue
		}
		name := strings.TrimSpace(u.Name)
		if name == "" {
			name = UnnamedUser
		}
		entries = append(entries, Entry{Name: name, Phone: u.Phone})
	}
	if len(entries) == 0 {
		return Result{}, ErrNoRecipients
	}

	saved, err := s.repo.Insert(ctx, entries)
	if err != nil {
		s.log.Error(ctx, "insert share list failed", err)
		return Result{}, apperr.Wrap(apperr.KindStoreWrite, err, "Error sharing categories")
	}
	s.log.Info(s.log.WithField(ctx, "recipients", len(saved)), "categories shared")
	return Result{
		Entries: saved,
		Message: fmt.Sprintf("Categories shared with %d user(s)!", len(saved)),
	}, nil
}

func (s *Service) List(ctx context.Context, sess session.Session) ([]Entry, error) {
	if err := sess.CheckAdmin(); err != nil {
		return nil, err
	}
	entries, err := s.repo.List(ctx)
	if err != nil {
		s.log.Error(ctx, "list share entries failed", err)
		return []Entry{}, nil
	}
	return entries, nil
}
