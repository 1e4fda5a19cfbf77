package apperr

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = New(KindDuplicate, "already there")

func TestWrapKeepsCauseAndKind(t *testing.T) {
	cause := errors.New("pq: duplicate key")
	err := Wrap(KindStoreWrite, cause, "could not save")

	assert.True(t, errors.Is(err, cause))
	assert.True(t, IsKind(err, KindStoreWrite))
	assert.Equal(t, "could not save", As(err).Message())
}

func TestSentinelMatchesThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("adding: %w", errSentinel)
	assert.True(t, errors.Is(err, errSentinel))
	assert.Equal(t, KindDuplicate, As(err).Kind())
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, fiber.StatusUnauthorized, StatusFor(KindNotAuthenticated))
	assert.Equal(t, fiber.StatusConflict, StatusFor(KindDuplicate))
	assert.Equal(t, fiber.StatusInternalServerError, StatusFor(Kind("unknown")))
}

func TestRespond(t *testing.T) {
	app := fiber.New()
	app.Get("/typed", func(c *fiber.Ctx) error {
		return Respond(c, New(KindNotFound, "order not found"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return Respond(c, errors.New("secret detail"))
	})

	res, err := app.Test(httptest.NewRequest("GET", "/typed", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, res.StatusCode)
	body, _ := io.ReadAll(res.Body)
	assert.Contains(t, string(body), "order not found")

	res, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, res.StatusCode)
	body, _ = io.ReadAll(res.Body)
	assert.False(t, strings.Contains(string(body), "secret detail"))
}

func TestErrorHandlerUsesMessageKey(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler, BodyLimit: 8})
	app.Post("/echo", func(c *fiber.Ctx) error {
		return c.Send(c.Body())
	})
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	for _, tc := range []struct {
		req    *http.Request
		status int
	}{
		{httptest.NewRequest("GET", "/nope", nil), fiber.StatusNotFound},
		{httptest.NewRequest("POST", "/echo", strings.NewReader("far more than eight bytes")), fiber.StatusRequestEntityTooLarge},
		{httptest.NewRequest("GET", "/boom", nil), fiber.StatusTeapot},
	} {
		res, err := app.Test(tc.req)
		require.NoError(t, err)
		assert.Equal(t, tc.status, res.StatusCode, tc.req.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
		assert.NotEmpty(t, body["message"], tc.req.URL.Path)
		assert.NotContains(t, body, "error")
	}
}
