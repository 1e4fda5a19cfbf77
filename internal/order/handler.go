package order

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/wichananm65/jewel-shop-backend/internal/apperr"
	"github.com/wichananm65/jewel-shop-backend/internal/notify"
	"github.com/wichananm65/jewel-shop-backend/internal/request"
	"github.com/wichananm65/jewel-shop-backend/internal/session"
)

// NotificationStatus reports how an order's admin alert went.
type NotificationStatus interface {
	Status(ctx context.Context, orderID int) (notify.Status, error)
}

// ReceiptRenderer writes a printable receipt for one order.
type ReceiptRenderer interface {
	Render(ctx context.Context, o Order, w io.Writer) error
}

// Handler exposes checkout, history, receipts and the admin bookings view.
type Handler struct {
	saga     *Saga
	service  *Service
	statuses NotificationStatus
	receipts ReceiptRenderer
}

func NewHandler(saga *Saga, service *Service, statuses NotificationStatus, receipts ReceiptRenderer) *Handler {
	return &Handler{saga: saga, service: service, statuses: statuses, receipts: receipts}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/orders/confirm", h.confirm)
	app.Get("/api/v1/orders", h.getOrders)
	app.Get("/api/v1/orders/:id/notification", h.getNotification)
	app.Get("/api/v1/orders/:id/receipt", h.getReceipt)
}

// RegisterAdminRoutes mounts under a router that already enforces the admin role.
func (h *Handler) RegisterAdminRoutes(r fiber.Router) {
	r.Get("/orders", h.getAllOrders)
	r.Get("/orders/export", h.exportOrders)
	r.Get("/orders/:id/receipt", h.getReceipt)
}

func (h *Handler) confirm(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	res, err := h.saga.Confirm(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	if res.State == StateAborted {
		return c.Status(fiber.StatusBadRequest).JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

func (h *Handler) getOrders(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	orders, err := h.service.History(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) getNotification(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := request.IntParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	if _, err := h.service.Get(c.UserContext(), sess, id); err != nil {
		return apperr.Respond(c, err)
	}
	if h.statuses == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "notification status not found"})
	}

	status, err := h.statuses.Status(c.UserContext(), id)
	if err != nil {
		if errors.Is(err, notify.ErrStatusNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "notification status not found"})
		}
		return apperr.Respond(c, apperr.Wrap(apperr.KindStoreRead, err, "failed to load notification status"))
	}
	return c.JSON(fiber.Map{
		"order_id": id,
		"status":   status,
		"toast":    notify.ToastFor(status),
	})
}

func (h *Handler) getReceipt(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	id, err := request.IntParam(c, "id")
	if err != nil {
		return apperr.Respond(c, err)
	}
	o, err := h.service.Get(c.UserContext(), sess, id)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var buf bytes.Buffer
	if err := h.receipts.Render(c.UserContext(), o, &buf); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, err, "Failed to generate PDF"))
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=order-%d.pdf", o.ID))
	return c.Send(buf.Bytes())
}

func (h *Handler) getAllOrders(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	orders, err := h.service.ListAll(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}
	return c.JSON(orders)
}

func (h *Handler) exportOrders(c *fiber.Ctx) error {
	sess, err := session.FromCtx(c)
	if err != nil {
		return apperr.Respond(c, err)
	}
	orders, err := h.service.Export(c.UserContext(), sess)
	if err != nil {
		return apperr.Respond(c, err)
	}

	var buf bytes.Buffer
	if err := WriteXLSX(orders, &buf); err != nil {
		return apperr.Respond(c, apperr.Wrap(apperr.KindInternal, err, "Failed to write Excel file"))
	}
	c.Set(fiber.HeaderContentType, XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, "attachment; filename=orders.xlsx")
	return c.Send(buf.Bytes())
}
