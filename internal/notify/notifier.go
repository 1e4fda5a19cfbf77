package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/wichananm65/jewel-shop-backend/internal/logger"
	"golang.org/x/sync/errgroup"
)

// Notifier alerts every configured admin number about a new order.
type Notifier struct {
	sender     Sender
	recipients []string
	loc        *time.Location
	log        *logger.Logger
}

func NewNotifier(sender Sender, recipients []string, loc *time.Location, log *logger.Logger) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{sender: sender, recipients: recipients, loc: loc, log: log}
}

// Notify sends to all recipients concurrently and reports whether at least
// one delivery succeeded. Failures are logged, never returned.
func (n *Notifier) Notify(ctx context.Context, s OrderSummary) bool {
	ctx = n.log.WithOrderID(ctx, s.OrderID)
	if n.sender == nil || len(n.recipients) == 0 {
		n.log.Warn(ctx, "order notification skipped: no sender or recipients configured")
		return false
	}

	body := FormatMessage(s, n.loc)
	var delivered atomic.Int32
	var g errgroup.Group
	for _, to := range n.recipients {
		g.Go(func() error {
			if err := n.sender.Send(ctx, to, body); err != nil {
				n.log.Error(n.log.WithField(ctx, "recipient", to), "order sms failed", err)
				return nil
			}
			delivered.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	sent := int(delivered.Load())
	n.log.Info(n.log.WithFields(ctx, map[string]any{"sent": sent, "recipients": len(n.recipients)}), "order sms dispatched")
	return sent > 0
}
