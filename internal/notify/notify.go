package notify

import (
	"context"
	"fmt"

	"github.com/Domenick1991/bnbchat/internal/kafka"
	"go.uber.org/zap"
)

// Sender turns booking events into guest-facing notifications. Delivery is a
// structured log line until a mail provider is configured.
type Sender struct {
	logger *zap.Logger
}

func NewSender(logger *zap.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	text, err := Render(event)
	if err != nil {
		s.logger.Warn("skipping notification", zap.String("event_id", event.ID), zap.Error(err))
		return nil
	}
	s.logger.Info("guest notification",
		zap.String("event_id", event.ID),
		zap.Int64("booking_id", event.BookingID),
		zap.String("text", text),
	)
	return nil
}

func Render(event kafka.BookingEvent) (string, error) {
	switch event.Type {
	case "booking_confirmed":
		return fmt.Sprintf("Booking #%d confirmed: %s to %s (%d nights). Check-in starts at 3 PM.",
			event.BookingID, event.CheckIn, event.CheckOut, event.Nights), nil
	default:
		return "", fmt.Errorf("unsupported event type %q", event.Type)
	}
}
