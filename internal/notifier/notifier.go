// Package notifier delivers fire-and-forget notifications about order and payment events.
// Delivery failures are logged and never surface to the caller.
package notifier

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

const (
	EventOrderCreated  = "order.created"
	EventOrderPaid     = "order.paid"
	EventPaymentFailed = "payment.failed"

	// EventRefundRequired is sent when money was captured for an order that cannot take it,
	// either because another payment already settled it or because it was cancelled.
	EventRefundRequired = "payment.refund_required"
)

type Event struct {
	Type       string    `json:"type"`
	OrderID    uint      `json:"order_id"`
	UserID     uint      `json:"user_id"`
	Reference  string    `json:"reference,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Notifier interface {
	Notify(ctx context.Context, event Event)
	Close() error
}

type logNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier(logger zerolog.Logger) Notifier {
	return &logNotifier{logger: logger}
}

func (n *logNotifier) Notify(ctx context.Context, event Event) {
	n.logger.Info().
		Str("event", event.Type).
		Uint("order_id", event.OrderID).
		Uint("user_id", event.UserID).
		Str("reference", event.Reference).
		Str("amount", event.Amount).
		Msg("notification")
}

func (n *logNotifier) Close() error {
	return nil
}
