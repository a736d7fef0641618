package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/Domenick1991/bnbchat/internal/kafka"
	"github.com/Domenick1991/bnbchat/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	IsAvailable(ctx context.Context, r domain.DateRange) (bool, error)
	CreateBooking(ctx context.Context, r domain.DateRange) (*domain.Booking, error)
	ListBookings(ctx context.Context) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	bookings           repository.BookingRepository
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	publishTimeout     time.Duration
	logger             *zap.Logger
	now                func() time.Time
}

// defaultPublishTimeout bounds event delivery so an unreachable broker cannot
// stall the confirmation reply.
const defaultPublishTimeout = 3 * time.Second

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithPublishTimeout(timeout time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		if timeout > 0 {
			s.publishTimeout = timeout
		}
	}
}

func WithLogger(logger *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.logger = logger
	}
}

// NewBookingService builds the availability service. producer may be nil, in
// which case no events are published.
func NewBookingService(
	bookings repository.BookingRepository,
	producer Producer,
	bookingTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:       bookings,
		producer:       producer,
		bookingTopic:   bookingTopic,
		publishTimeout: defaultPublishTimeout,
		logger:         zap.NewNop(),
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) IsAvailable(ctx context.Context, r domain.DateRange) (bool, error) {
	if err := r.Validate(); err != nil {
		return false, err
	}
	ok, err := s.bookings.IsAvailable(ctx, r)
	if err != nil {
		return false, fmt.Errorf("check availability: %w", err)
	}
	return ok, nil
}

// CreateBooking commits the range. The repository re-checks overlap
// atomically, so a range taken since the quote yields domain.ErrUnavailable.
func (s *BookingService) CreateBooking(ctx context.Context, r domain.DateRange) (*domain.Booking, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	booking := &domain.Booking{
		CheckIn:  r.CheckIn,
		CheckOut: r.CheckOut,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		if domain.KindOf(err) == domain.KindUnavailable {
			return nil, err
		}
		return nil, fmt.Errorf("create booking: %w", err)
	}

	s.logger.Info("booking confirmed",
		zap.Int64("booking_id", booking.ID),
		zap.String("range", r.String()),
	)
	if err := s.publish(ctx, "booking_confirmed", booking); err != nil {
		s.logger.Warn("failed to publish booking_confirmed event",
			zap.Int64("booking_id", booking.ID),
			zap.Error(err),
		)
	}
	return booking, nil
}

func (s *BookingService) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		BookingID:  booking.ID,
		CheckIn:    booking.CheckIn.Format(domain.DateLayout),
		CheckOut:   booking.CheckOut.Format(domain.DateLayout),
		Nights:     booking.Range().Nights(),
		Status:     string(booking.Status),
		OccurredAt: s.now(),
	}
	key := strconv.FormatInt(booking.ID, 10)

	ctx, cancel := context.WithTimeout(ctx, s.publishTimeout)
	defer cancel()

	if err := s.producer.Publish(ctx, s.bookingTopic, key, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, key, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)
