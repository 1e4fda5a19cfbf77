package product

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
	"github.com/wichananm65/jewel-shop-backend/internal/storage"
)

type Handler struct {
	service        *Service
	maxUploadBytes int64
}

func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products/:id<int>", h.getProduct)
}

// RegisterAdminRoutes expects r to already be guarded by session.RequireAdmin.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/products", h.listProducts)
	r.Post("/products", h.addPhoto)
	r.Patch("/products/:id/status", h.toggleStatus)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := request.IntParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	p, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	products, err := h.service.List(c.UserContext(), sess, c.Query("category"))
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(products)
}

func (h *Handler) addPhoto(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "image file is required"})
	}
	data, err := storage.ReadFormFile(fh, h.maxUploadBytes)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var price decimal.NullDecimal
	if raw := strings.TrimSpace(c.FormValue("price")); raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil || d.IsNegative() {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid price"})
		}
		price = decimal.NewNullDecimal(d)
	}

	created, err := h.service.AddPhoto(c.UserContext(), sess, AddPhotoInput{
		CategoryName: c.FormValue("category_name"),
		Weight:       c.FormValue("weight"),
		Melting:      c.FormValue("melting"),
		Size:         c.FormValue("size"),
		Price:        price,
		Image:        data,
	})
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
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
	p, err := h.service.ToggleStatus(c.UserContext(), sess, id)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(p)
}
