package catalog

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/categories", h.getCategories)
	app.Get("/api/v1/categories/:name/products", h.getProducts)
}

func (h *Handler) getCategories(c *fiber.Ctx) error {
	return c.JSON(h.service.ListCategories(c.UserContext()))
}

// getProducts accepts ?minWeight=&maxWeight=&sort=weight|weight-desc|name|name-desc.
func (h *Handler) getProducts(c *fiber.Ctx) error {
	minWeight, err := request.OptionalFloatQuery(c, "minWeight")
	if err != nil {
		return apperr.Respond(c, err)
	}
	maxWeight, err := request.OptionalFloatQuery(c, "maxWeight")
	if err != nil {
		return apperr.Respond(c, err)
	}

	name, err := request.PathParam(c, "name")
	if err != nil {
		return apperr.Respond(c, err)
	}

	products := h.service.ListProducts(c.UserContext(), name)
	return c.JSON(FilterAndSort(products, Filter{
		MinWeight: minWeight,
		MaxWeight: maxWeight,
		Sort:      SortKey(c.Query("sort")),
	}))
}
