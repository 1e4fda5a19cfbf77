package confirm

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

type previewRequest struct {
	IDs []int `json:"ids" validate:"required,min=1,dive,gt=0"`
}

type deleteRequest struct {
	Token string `json:"token" validate:"required"`
}

// RegisterAdminRoutes expects r to already be guarded by session.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Post("/:entity/delete-preview", h.preview)
	r.Post("/:entity/delete", h.execute)
}

func (h *Handler) preview(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req previewRequest
	if err := request.Parse(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.service.Preview(c.UserContext(), sess, c.Params("entity"), req.IDs)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) execute(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var req deleteRequest
	if err := request.Parse(c, &req); err != nil {
		return apperr.Respond(c, err)
	}
	res, err := h.service.Execute(c.UserContext(), sess, c.Params("entity"), req.Token)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(res)
}
