package share

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterAdminRoutes expects r to already be guarded by session.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/share/recipients", h.getRecipients)
	r.Get("/share", h.getEntries)
	r.Post("/share", h.share)
}

type shareRequest struct {
	UserIDs []int `json:"user_ids" validate:"required,min=1,dive,gt=0"`
}

func (h *Handler) getRecipients(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	users, err := h.service.Recipients(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(users)
}

func (h *Handler) getEntries(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	entries, err := h.service.List(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(entries)
}

func (h *Handler) share(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req shareRequest
	if err := request.Parse(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	res, err := h.service.Share(c.UserContext(), sess, req.UserIDs)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}
