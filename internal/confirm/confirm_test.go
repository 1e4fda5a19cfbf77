package confirm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wichananm65/jewel-shop-backend/internal/category"
	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

var admin = session.Session{UserID: 1, Role: session.RoleAdmin}

type failingTarget struct {
	names []string
}

func (f failingTarget) Names(ctx context.Context, ids []int) ([]string, error) {
	return f.names, nil
}

func (f failingTarget) DeleteMany(ctx context.Context, ids []int) error {
	return errors.New("delete failed")
}

func newFixture(t *testing.T) (*Service, *category.InMemoryRepository) {
	t.Helper()
	categories := category.NewInMemoryRepository([]category.Category{
		{ID: 1, Name: "Rings"},
		{ID: 2, Name: "Chains"},
		{ID: 3, Name: "Bangles"},
	})
	svc := NewService(map[string]Target{
		EntityCategories: category.NewService(categories, nil, nil, logger.Nop()),
		EntityProducts:   failingTarget{names: []string{"Ruby Ring"}},
	}, NewMemoryTokenStore(), time.Minute, logger.Nop())
	return svc, categories
}

func TestPreviewThenExecute(t *testing.T) {
	ctx := context.Background()
	svc, categories := newFixture(t)

	p, err := svc.Preview(ctx, admin, EntityCategories, []int{1, 3, 3})
	require.NoError(t, err)
	assert.Equal(t, []string{"Rings", "Bangles"}, p.Names)
	assert.Equal(t, 2, p.Count)
	assert.NotEmpty(t, p.Token)
	assert.Contains(t, p.Message, "Rings, Bangles")

	left, _ := categories.List(ctx)
	assert.Len(t, left, 3, "preview deletes nothing")

	res, err := svc.Execute(ctx, admin, EntityCategories, p.Token)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Deleted)
	assert.Equal(t, "Successfully deleted 2 categories!", res.Message)

	left, _ = categories.List(ctx)
	require.Len(t, left, 1)
	assert.Equal(t, 2, left[0].ID)

	_, err = svc.Execute(ctx, admin, EntityCategories, p.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken), "tokens are single use")
}

func TestExecuteRejectsMismatchedToken(t *testing.T) {
	ctx := context.Background()
	svc, categories := newFixture(t)

	p, err := svc.Preview(ctx, admin, EntityCategories, []int{1})
	require.NoError(t, err)
	_, err = svc.Execute(ctx, admin, EntityProducts, p.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))
	_, err = svc.Execute(ctx, session.Session{UserID: 9, Role: session.RoleAdmin}, EntityCategories, p.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken), "token is bound to the admin who previewed")

	left, _ := categories.List(ctx)
	assert.Len(t, left, 3)

	res, err := svc.Execute(ctx, admin, EntityCategories, p.Token)
	require.NoError(t, err, "a mismatched attempt must not use up the token")
	assert.Equal(t, 1, res.Deleted)
}

func TestPreviewValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t)

	_, err := svc.Preview(ctx, admin, "orders", []int{1})
	assert.True(t, errors.Is(err, ErrUnknownEntity))
	_, err = svc.Preview(ctx, admin, EntityCategories, []int{0, -1})
	assert.True(t, errors.Is(err, ErrNoIDs))
	_, err = svc.Preview(ctx, admin, EntityCategories, []int{42})
	assert.True(t, errors.Is(err, ErrNothingFound))
	_, err = svc.Preview(ctx, session.Session{UserID: 2, Role: session.RoleUser}, EntityCategories, []int{1})
	assert.True(t, errors.Is(err, session.ErrForbidden))
}

func TestExecuteStoreFailure(t *testing.T) {
	ctx := context.Background()
	svc, _ := newFixture(t)

	p, err := svc.Preview(ctx, admin, EntityProducts, []int{5})
	require.NoError(t, err)
	_, err = svc.Execute(ctx, admin, EntityProducts, p.Token)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error deleting products")
}

func TestMemoryTokenStoreExpires(t *testing.T) {
	store := NewMemoryTokenStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Put(context.Background(), "tok", Pending{Entity: EntityUsers, IDs: []int{1}}, time.Minute))
	now = now.Add(2 * time.Minute)
	_, err := store.Take(context.Background(), "tok")
	assert.True(t, errors.Is(err, ErrTokenNotFound))
}

type fakeRedis struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func (f *fakeRedis) Key(parts ...string) string {
	return "test:" + strings.Join(parts, ":")
}

func (f *fakeRedis) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeRedis) GetDel(ctx context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	delete(f.values, key)
	return v, nil
}

func TestRedisTokenStore(t *testing.T) {
	client := &fakeRedis{values: map[string]string{}, ttls: map[string]time.Duration{}}
	store := NewRedisTokenStore(client)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "abc", Pending{Entity: EntityUsers, IDs: []int{4, 5}, IssuedBy: 1}, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, client.ttls["test:confirm:abc"])

	p, err := store.Take(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, []int{4, 5}, p.IDs)

	_, err = store.Take(ctx, "abc")
	assert.True(t, errors.Is(err, ErrTokenNotFound))
}

func TestConfirmRoutes(t *testing.T) {
	svc, _ := newFixture(t)
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if v := c.Get("X-User-ID"); v != "" {
			if id, err := strconv.Atoi(v); err == nil {
				c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{"user_id": id, "role": c.Get("X-Role")}})
			}
		}
		return c.Next()
	})
	NewHandler(svc).RegisterAdminRoutes(app.Group("/api/v1/admin", session.RequireAdmin()))

	post := func(path, body string) (int, []byte) {
		req := httptest.NewRequest("POST", path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "1")
		req.Header.Set("X-Role", session.RoleAdmin)
		res, err := app.Test(req)
		if err != nil {
			t.Fatalf("POST %s failed: %v", path, err)
		}
		b, _ := io.ReadAll(res.Body)
		return res.StatusCode, b
	}

	status, body := post("/api/v1/admin/categories/delete-preview", `{"ids":[2]}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var p Preview
	if err := json.Unmarshal(body, &p); err != nil || p.Token == "" {
		t.Fatalf("unexpected preview %s", body)
	}

	status, _ = post("/api/v1/admin/categories/delete", `{"token":"`+p.Token+`"}`)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 on delete, got %d", status)
	}
	status, _ = post("/api/v1/admin/categories/delete", `{"token":"`+p.Token+`"}`)
	if status != fiber.StatusConflict {
		t.Fatalf("expected 409 on reused token, got %d", status)
	}
	status, _ = post("/api/v1/admin/categories/delete", `{}`)
	if status != fiber.StatusBadRequest {
		t.Fatalf("expected 400 without token, got %d", status)
	}
}
