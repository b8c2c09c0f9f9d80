package notification

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"transport-booking/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const publishTimeout = 10 * time.Second

const (
	EventBookingCreated   = "booking.created"
	EventBookingPaid      = "booking.paid"
	EventBookingFailed    = "booking.failed"
	EventBookingCancelled = "booking.cancelled"
	EventBookingRefunded  = "booking.refunded"
)

type Email struct {
	To       string            `json:"to"`
	Subject  string            `json:"subject"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data,omitempty"`
}

type BookingEvent struct {
	Type        string    `json:"type"`
	BookingID   uuid.UUID `json:"booking_id"`
	OrderRef    string    `json:"order_ref"`
	UserID      uuid.UUID `json:"user_id"`
	Status      string    `json:"status"`
	AmountCents int64     `json:"amount_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier delivers best-effort side effects. Failures never reach the caller.
type Notifier interface {
	SendEmail(ctx context.Context, email Email)
	PublishBookingEvent(ctx context.Context, event BookingEvent)
}

type MessageSender interface {
	SendMessage(ctx context.Context, key, value []byte) error
}

type KafkaNotifier struct {
	emails MessageSender
	events MessageSender
	log    *zap.Logger
	wg     sync.WaitGroup
}

func NewKafkaNotifier(emails, events MessageSender, log *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		emails: emails,
		events: events,
		log:    log.With(zap.String("component", "notifier")),
	}
}

func (n *KafkaNotifier) SendEmail(ctx context.Context, email Email) {
	if email.To == "" {
		n.log.Warn("Skipping email without recipient", zap.String("template", email.Template))
		return
	}
	n.publish(ctx, n.emails, email.To, email)
}

func (n *KafkaNotifier) PublishBookingEvent(ctx context.Context, event BookingEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	n.publish(ctx, n.events, event.BookingID.String(), event)
}

// Wait blocks until in-flight publishes have finished.
func (n *KafkaNotifier) Wait() {
	n.wg.Wait()
}

func (n *KafkaNotifier) publish(ctx context.Context, sender MessageSender, key string, msg any) {
	payload, err := json.Marshal(msg)
	if err != nil {
		n.log.Error("Failed to encode notification", zap.Error(err), zap.String("key", key))
		metrics.NotificationErrorsTotal.Inc()
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()

		if err := sender.SendMessage(sendCtx, []byte(key), payload); err != nil {
			n.log.Error("Failed to publish notification", zap.Error(err), zap.String("key", key))
			metrics.NotificationErrorsTotal.Inc()
		}
	}()
}
