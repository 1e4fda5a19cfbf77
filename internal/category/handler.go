package category

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/storage"
)

type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(s *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: s, maxUploadBytes: maxUploadBytes}
}

// RegisterAdminRoutes expects r to already be guarded by session.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/categories", h.listCategories)
	r.Post("/categories", h.createCategory)
}

func (h *Handler) listCategories(c *fiber.Ctx) error {
	return c.JSON(h.service.List(c.UserContext()))
}

func (h *Handler) createCategory(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	var data []byte
	if fh, err := c.FormFile("image"); err == nil {
		data, err = storage.ReadFormFile(fh, h.maxUploadBytes)
		if err != nil {
			return apperr.Respond(c, err)
		}
	}
	created, err := h.service.Create(c.UserContext(), sess, c.FormValue("category_name"), data)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}
