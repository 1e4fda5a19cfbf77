package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records storefront business counters. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	cartAdds      *prometheus.CounterVec
	orders        *prometheus.CounterVec
	notifications *prometheus.CounterVec
}

// New registers the storefront counters on the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		return &Metrics{}
	}
	cartAdds := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_add_total",
		Help: "Add-to-cart attempts by result.",
	}, []string{"result"})
	orders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_confirm_total",
		Help: "Order confirmations by terminal state.",
	}, []string{"outcome"})
	notifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_notification_total",
		Help: "Admin order notifications by delivery result.",
	}, []string{"result"})
	reg.MustRegister(cartAdds, orders, notifications)
	return &Metrics{cartAdds: cartAdds, orders: orders, notifications: notifications}
}

func (m *Metrics) CartAdd(result string) {
	if m == nil || m.cartAdds == nil {
		return
	}
	m.cartAdds.WithLabelValues(normalizeLabel(result)).Inc()
}

func (m *Metrics) OrderConfirm(outcome string) {
	if m == nil || m.orders == nil {
		return
	}
	m.orders.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func (m *Metrics) Notification(result string) {
	if m == nil || m.notifications == nil {
		return
	}
	m.notifications.WithLabelValues(normalizeLabel(result)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func Handler(g prometheus.Gatherer) fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
