package cart

import (
	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

// Handler delegates cart operations to the cart service. Every mutation
// answers with the cart as re-read from the store.
type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Get("/api/v1/cart/count", h.getCount)
	app.Post("/api/v1/cart", h.addToCart)
	app.Delete("/api/v1/cart/:productId", h.removeFromCart)
	app.Delete("/api/v1/cart", h.clearCart)
}

type addRequest struct {
	ProductID int `json:"product_id" validate:"required,gt=0"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	view, err := h.service.View(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(view)
}

func (h *Handler) getCount(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	n, err := h.service.Count(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"count": n})
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	payload := new(addRequest)
	if err := request.Parse(c, payload); err != nil {
		return apperr.Respond(c, err)
	}

	result, err := h.service.AddToCart(c.UserContext(), sess, payload.ProductID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	view, err := h.service.View(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}

	status := fiber.StatusCreated
	if !result.Success {
		status = fiber.StatusConflict
	}
	return c.Status(status).JSON(fiber.Map{
		"success":  result.Success,
		"itemName": result.ItemName,
		"message":  result.Message,
		"cart":     view,
	})
}

func (h *Handler) removeFromCart(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	productID, err := request.IntParam(c, "productId")
	if err != nil {
		return apperr.Respond(c, err)
	}

	ok, err := h.service.RemoveFromCart(c.UserContext(), sess, productID)
	if err != nil {
		return apperr.Respond(c, err)
	}
	view, err := h.service.View(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": ok, "cart": view})
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	ok, err := h.service.ClearCart(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	view, err := h.service.View(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(fiber.Map{"success": ok, "cart": view})
}
