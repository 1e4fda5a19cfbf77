package session

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

var (
	ErrNotAuthenticated = apperr.New(apperr.KindNotAuthenticated, "please log in to continue")
	ErrForbidden        = apperr.New(apperr.KindForbidden, "admin access required")
)

// Session is the identity of the caller. It is decoded once per request and
// handed to every cart, order and admin operation explicitly.
type Session struct {
	UserID int    `json:"id"`
	Name   string `json:"user_name"`
	Phone  string `json:"phone_number"`
	Role   string `json:"role"`
}

func (s Session) Valid() bool {
	return s.UserID > 0
}

func (s Session) IsAdmin() bool {
	return s.Valid() && s.Role == RoleAdmin
}

// Check fails with ErrNotAuthenticated when no identity is present.
func (s Session) Check() error {
	if !s.Valid() {
		return ErrNotAuthenticated
	}
	return nil
}

// CheckAdmin additionally requires the admin role.
func (s Session) CheckAdmin() error {
	if err := s.Check(); err != nil {
		return err
	}
	if s.Role != RoleAdmin {
		return ErrForbidden
	}
	return nil
}

// Issuer signs session tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (i *Issuer) Issue(s Session) (string, error) {
	claims := jwt.MapClaims{
		"user_id": s.UserID,
		"name":    s.Name,
		"phone":   s.Phone,
		"role":    s.Role,
		"exp":     i.now().Add(i.ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

const refreshedKey = "session"

// FromCtx returns the session Refresh stored for this request, or rebuilds
// it from the token the jwt middleware stored under "user". An absent or
// malformed token yields ErrNotAuthenticated.
func FromCtx(c *fiber.Ctx) (Session, error) {
	if s, ok := c.Locals(refreshedKey).(Session); ok && s.Valid() {
		return s, nil
	}
	tok, ok := c.Locals("user").(*jwt.Token)
	if !ok || tok == nil {
		return Session{}, ErrNotAuthenticated
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, ErrNotAuthenticated
	}
	id, ok := intClaim(claims["user_id"])
	if !ok || id <= 0 {
		return Session{}, ErrNotAuthenticated
	}
	s := Session{UserID: id, Role: RoleUser}
	if v, ok := claims["name"].(string); ok {
		s.Name = v
	}
	if v, ok := claims["phone"].(string); ok {
		s.Phone = v
	}
	if v, ok := claims["role"].(string); ok && v != "" {
		s.Role = v
	}
	return s, nil
}

func intClaim(raw any) (int, bool) {
	switch v := raw.(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case string:
		id, err := strconv.Atoi(v)
		return id, err == nil
	default:
		return 0, false
	}
}

// RequireAdmin rejects non-admin callers before the route handler runs.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := FromCtx(c)
		if err == nil {
			err = s.CheckAdmin()
		}
		if err != nil {
			return apperr.Respond(c, err)
		}
		return c.Next()
	}
}

// Checker reloads the account behind a session. It fails when the account
// is gone or disabled and returns the session with the stored role.
type Checker interface {
	CheckSession(ctx context.Context, s Session) (Session, error)
}

// Refresh re-reads the caller's account on every request, so a role change
// or a deactivation applies before the token expires. Later FromCtx calls
// in the same request see the refreshed session.
func Refresh(checker Checker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := FromCtx(c)
		if err == nil {
			s, err = checker.CheckSession(c.UserContext(), s)
		}
		if err != nil {
			return apperr.Respond(c, err)
		}
		c.Locals(refreshedKey, s)
		return c.Next()
	}
}
