package confirm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

const (
	EntityCategories = "categories"
	EntityProducts   = "products"
	EntityUsers      = "users"
)

var (
	ErrUnknownEntity = apperr.New(apperr.KindNotFound, "unknown entity")
	ErrNoIDs         = apperr.New(apperr.KindValidation, "select at least one item to delete")
	ErrNothingFound  = apperr.New(apperr.KindNotFound, "none of the selected items exist")
	ErrInvalidToken  = apperr.New(apperr.KindConflict, "confirmation expired or already used, please preview again")
)

// Target is a table that supports bulk deletes by id.
type Target interface {
	Names(ctx context.Context, ids []int) ([]string, error)
	DeleteMany(ctx context.Context, ids []int) error
}

type Preview struct {
	Entity    string    `json:"entity"`
	Token     string    `json:"token"`
	Names     []string  `json:"names"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expires_at"`
	Message   string    `json:"message"`
}

type Result struct {
	Entity  string `json:"entity"`
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// Service runs bulk deletes in two steps: Preview names what would go and
// hands out a single-use token, Execute redeems it and issues one delete.
type Service struct {
	targets map[string]Target
	tokens  TokenStore
	ttl     time.Duration
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

func NewService(targets map[string]Target, tokens TokenStore, ttl time.Duration, log *logger.Logger) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{targets: targets, tokens: tokens, ttl: ttl, log: log, now: time.Now, newID: uuid.NewString}
}

func (s *Service) Preview(ctx context.Context, sess session.Session, entity string, ids []int) (Preview, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Preview{}, err
	}
	target, ok := s.targets[entity]
	if !ok {
		return Preview{}, ErrUnknownEntity
	}
	ids = dedupe(ids)
	if len(ids) == 0 {
		return Preview{}, ErrNoIDs
	}

	names, err := target.Names(ctx, ids)
	if err != nil {
		return Preview{}, apperr.Wrap(apperr.KindStoreRead, err, "failed to load the selected items")
	}
	if len(names) == 0 {
		return Preview{}, ErrNothingFound
	}

	token := s.newID()
	if err := s.tokens.Put(ctx, storeKey(entity, sess.UserID, token), Pending{Entity: entity, IDs: ids, IssuedBy: sess.UserID}, s.ttl); err != nil {
		return Preview{}, apperr.Wrap(apperr.KindStoreWrite, err, "failed to start delete confirmation")
	}

	return Preview{
		Entity:    entity,
		Token:     token,
		Names:     names,
		Count:     len(ids),
		ExpiresAt: s.now().Add(s.ttl).UTC(),
		Message: fmt.Sprintf("Are you sure you want to delete the following %d %s?\n\n%s\n\nThis action cannot be undone.",
			len(ids), entity, strings.Join(names, ", ")),
	}, nil
}

// Execute deletes what the token's preview named. A token only works once,
// for the admin it was issued to and for the same entity. A call with the
// wrong entity or admin does not find the token, so it stays redeemable.
func (s *Service) Execute(ctx context.Context, sess session.Session, entity, token string) (Result, error) {
	if err := sess.CheckAdmin(); err != nil {
		return Result{}, err
	}
	target, ok := s.targets[entity]
	if !ok {
		return Result{}, ErrUnknownEntity
	}

	p, err := s.tokens.Take(ctx, storeKey(entity, sess.UserID, token))
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return Result{}, ErrInvalidToken
		}
		return Result{}, apperr.Wrap(apperr.KindStoreRead, err, "failed to read delete confirmation")
	}
	if p.Entity != entity || p.IssuedBy != sess.UserID {
		return Result{}, ErrInvalidToken
	}

	ctx = s.log.WithFields(ctx, map[string]any{"entity": entity, "ids": p.IDs})
	if err := target.DeleteMany(ctx, p.IDs); err != nil {
		s.log.Error(ctx, "bulk delete failed", err)
		return Result{}, apperr.Wrap(apperr.KindStoreWrite, err, fmt.Sprintf("Error deleting %s. Please try again.", entity))
	}
	s.log.Info(ctx, "bulk delete done")

	return Result{
		Entity:  entity,
		Deleted: len(p.IDs),
		Message: fmt.Sprintf("Successfully deleted %d %s!", len(p.IDs), entity),
	}, nil
}

// storeKey scopes a token to the entity and admin of its preview.
func storeKey(entity string, issuedBy int, token string) string {
	return entity + ":" + strconv.Itoa(issuedBy) + ":" + token
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
