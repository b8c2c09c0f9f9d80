package repository

import (
	"context"
	"fmt"

	"transport-booking/internal/data/entity"
	"transport-booking/pkg/database"

	"go.uber.org/zap"
)

type WebhookEventRepository interface {
	// Record stores the event id and reports false when it was already consumed.
	Record(ctx context.Context, event *entity.WebhookEvent) (bool, error)
}

type webhookEventRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewWebhookEventRepository(db database.PgxIface, log *zap.Logger) WebhookEventRepository {
	return &webhookEventRepository{
		db:  db,
		log: log.With(zap.String("repository", "webhook_event")),
	}
}

func (r *webhookEventRepository) Record(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type, booking_id, received_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (event_id) DO NOTHING
	`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		event.EventID,
		event.EventType,
		event.BookingID,
		event.ReceivedAt,
	)
	if err != nil {
		r.log.Error("Failed to record webhook event",
			zap.Error(err),
			zap.String("event_id", event.EventID),
		)
		return false, fmt.Errorf("record webhook event %s: %w", event.EventID, err)
	}

	return result.RowsAffected() == 1, nil
}
