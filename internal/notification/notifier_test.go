package notification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordedMessage struct {
	key    string
	value  []byte
	// ctxErr is captured during the send; the context is cancelled afterwards.
	ctxErr error
}

type recordingSender struct {
	mu       sync.Mutex
	messages []recordedMessage
	err      error
}

func (s *recordingSender) SendMessage(ctx context.Context, key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, recordedMessage{key: string(key), value: value, ctxErr: ctx.Err()})
	return s.err
}

func TestKafkaNotifier_PublishBookingEvent(t *testing.T) {
	emails, events := &recordingSender{}, &recordingSender{}
	n := NewKafkaNotifier(emails, events, zap.NewNop())

	bookingID := uuid.New()
	n.PublishBookingEvent(context.Background(), BookingEvent{
		Type:      EventBookingPaid,
		BookingID: bookingID,
		OrderRef:  "TRIP-1",
		Status:    "paid",
	})
	n.Wait()

	require.Len(t, events.messages, 1)
	assert.Empty(t, emails.messages)
	assert.Equal(t, bookingID.String(), events.messages[0].key)

	var decoded BookingEvent
	require.NoError(t, json.Unmarshal(events.messages[0].value, &decoded))
	assert.Equal(t, EventBookingPaid, decoded.Type)
	assert.False(t, decoded.OccurredAt.IsZero())
}

func TestKafkaNotifier_SurvivesCancelledRequestContext(t *testing.T) {
	emails := &recordingSender{}
	n := NewKafkaNotifier(emails, &recordingSender{}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	n.SendEmail(ctx, BookingConfirmedEmail("rider@example.com", "TRIP-1", 2550, "eur", []string{"1A"}))
	cancel()
	n.Wait()

	require.Len(t, emails.messages, 1)
	assert.Equal(t, "rider@example.com", emails.messages[0].key)
	assert.NoError(t, emails.messages[0].ctxErr)
}

func TestKafkaNotifier_SendFailureIsSwallowed(t *testing.T) {
	emails := &recordingSender{err: errors.New("broker down")}
	n := NewKafkaNotifier(emails, &recordingSender{}, zap.NewNop())

	assert.NotPanics(t, func() {
		n.SendEmail(context.Background(), BookingCancelledEmail("rider@example.com", "TRIP-2", true))
		n.Wait()
	})
	assert.Len(t, emails.messages, 1)
}

func TestKafkaNotifier_SkipsEmailWithoutRecipient(t *testing.T) {
	emails := &recordingSender{}
	n := NewKafkaNotifier(emails, &recordingSender{}, zap.NewNop())

	n.SendEmail(context.Background(), Email{Template: "booking_confirmed"})
	n.Wait()

	assert.Empty(t, emails.messages)
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "25.50 EUR", FormatAmount(2550, "eur"))
	assert.Equal(t, "0.05 EUR", FormatAmount(5, "eur"))
	assert.Equal(t, "-1.00 USD", FormatAmount(-100, "usd"))
}
