package user

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

// TokenIssuer signs the session token returned on sign-in.
type TokenIssuer interface {
	Issue(s session.Session) (string, error)
}

type Handler struct {
	service *Service
	tokens  TokenIssuer
}

type loginRequest struct {
	Username string `json:"username"`
	Phone    string `json:"phone_number"`
	Password string `json:"password"`
}

// identifier prefers the explicit phone field; older clients send the phone
// number as username.
func (r loginRequest) identifier() string {
	if strings.TrimSpace(r.Phone) != "" {
		return r.Phone
	}
	return r.Username
}

func NewHandler(service *Service, tokens TokenIssuer) *Handler {
	return &Handler{service: service, tokens: tokens}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.login)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
}

// RegisterAdminRoutes expects r to already be guarded by session.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/users", h.getUsers)
	r.Post("/users", h.createUser)
	r.Put("/users/:id", h.updateUser)
	r.Patch("/users/:id", h.updateUser)
	r.Post("/users/:id/toggle-status", h.toggleStatus)
}

func (h *Handler) login(c *fiber.Ctx) error {
	payload := new(loginRequest)
	if err := c.BodyParser(payload); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindValidation, err, "invalid request body"))
	}

	u, err := h.service.Authenticate(c.UserContext(), payload.identifier(), payload.Password)
	if err != nil {
		return apperr.Respond(c, err)
	}

	token, err := h.tokens.Issue(u.Session())
	if err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, err, "failed to generate token"))
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    u,
		"token":   token,
	})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	u, err := h.service.Profile(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(u)
}

func (h *Handler) getUsers(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	users, err := h.service.List(c.UserContext(), sess, c.Query("role"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) createUser(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in CreateInput
	if err := request.Parse(c, &in); err != nil {
		return apperr.Respond(c, err)
	}
	created, err := h.service.Create(c.UserContext(), sess, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": `User "` + created.Name + `" added successfully!`,
		"user":    created,
	})
}

func (h *Handler) updateUser(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := request.IntParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	var in Update
	if err := request.Parse(c, &in); err != nil {
		return apperr.Respond(c, err)
	}
	updated, err := h.service.Update(c.UserContext(), sess, id, in)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(updated)
}

func (h *Handler) toggleStatus(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := request.IntParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	u, err := h.service.ToggleStatus(c.UserContext(), sess, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(u)
}
