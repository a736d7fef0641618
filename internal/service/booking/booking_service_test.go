package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/Domenick1991/bnbchat/internal/kafka"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBookingRepository struct {
	mock.Mock
}

func (m *MockBookingRepository) IsAvailable(ctx context.Context, r domain.DateRange) (bool, error) {
	args := m.Called(ctx, r)
	return args.Bool(0), args.Error(1)
}

func (m *MockBookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *MockBookingRepository) List(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// boundedCtx matches the publish context, which must carry a deadline.
var boundedCtx = mock.MatchedBy(func(ctx context.Context) bool {
	_, ok := ctx.Deadline()
	return ok
})

func dateRange(t *testing.T, in, out string) domain.DateRange {
	t.Helper()
	r, err := domain.ParseDateRange(in, out)
	require.NoError(t, err)
	return r
}

func TestBookingService_IsAvailable(t *testing.T) {
	repo := &MockBookingRepository{}
	service := NewBookingService(repo, nil, "")
	ctx := context.Background()
	r := dateRange(t, "2024-02-01", "2024-02-05")

	repo.On("IsAvailable", ctx, r).Return(true, nil).Once()

	ok, err := service.IsAvailable(ctx, r)

	assert.NoError(t, err)
	assert.True(t, ok)
	repo.AssertExpectations(t)
}

func TestBookingService_IsAvailable_RejectsInvalidRange(t *testing.T) {
	repo := &MockBookingRepository{}
	service := NewBookingService(repo, nil, "")
	in, _ := domain.ParseDate("2024-02-05")

	_, err := service.IsAvailable(context.Background(), domain.DateRange{CheckIn: in, CheckOut: in})

	assert.ErrorIs(t, err, domain.ErrInvalidRange)
	repo.AssertNotCalled(t, "IsAvailable", mock.Anything, mock.Anything)
}

func TestBookingService_IsAvailable_RepositoryError(t *testing.T) {
	repo := &MockBookingRepository{}
	service := NewBookingService(repo, nil, "")
	ctx := context.Background()
	r := dateRange(t, "2024-02-01", "2024-02-05")

	repo.On("IsAvailable", ctx, r).Return(false, errors.New("connection refused")).Once()

	_, err := service.IsAvailable(ctx, r)

	assert.EqualError(t, err, "check availability: connection refused")
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))
}

func TestBookingService_CreateBooking_Success(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := NewBookingService(repo, producer, "bookings", WithNotificationsTopic("notifications"))
	service.now = func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	r := dateRange(t, "2024-02-01", "2024-02-05")

	repo.On("Create", ctx, mock.AnythingOfType("*domain.Booking")).
		Run(func(args mock.Arguments) {
			b := args.Get(1).(*domain.Booking)
			b.ID = 42
			b.Status = domain.BookingStatusConfirmed
		}).
		Return(nil).Once()

	isConfirmedEvent := mock.MatchedBy(func(e kafka.BookingEvent) bool {
		return e.Type == "booking_confirmed" &&
			e.BookingID == 42 &&
			e.CheckIn == "2024-02-01" &&
			e.CheckOut == "2024-02-05" &&
			e.Nights == 4 &&
			e.ID != ""
	})
	producer.On("Publish", boundedCtx, "bookings", "42", isConfirmedEvent).Return(nil).Once()
	producer.On("Publish", boundedCtx, "notifications", "42", isConfirmedEvent).Return(nil).Once()

	booking, err := service.CreateBooking(ctx, r)

	require.NoError(t, err)
	assert.Equal(t, int64(42), booking.ID)
	assert.Equal(t, r, booking.Range())
	repo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_Unavailable(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := NewBookingService(repo, producer, "bookings")
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(domain.ErrUnavailable).Once()

	booking, err := service.CreateBooking(ctx, dateRange(t, "2024-02-01", "2024-02-05"))

	assert.Nil(t, booking)
	assert.ErrorIs(t, err, domain.ErrUnavailable)
	producer.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBookingService_CreateBooking_RepositoryError(t *testing.T) {
	repo := &MockBookingRepository{}
	service := NewBookingService(repo, nil, "bookings")
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(errors.New("tx aborted")).Once()

	_, err := service.CreateBooking(ctx, dateRange(t, "2024-02-01", "2024-02-05"))

	assert.EqualError(t, err, "create booking: tx aborted")
}

func TestBookingService_CreateBooking_PublishFailureIsNotFatal(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := NewBookingService(repo, producer, "bookings")
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	producer.On("Publish", boundedCtx, "bookings", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	booking, err := service.CreateBooking(ctx, dateRange(t, "2024-02-01", "2024-02-05"))

	assert.NoError(t, err)
	assert.NotNil(t, booking)
	producer.AssertExpectations(t)
}

func TestBookingService_CreateBooking_SlowBrokerIsBounded(t *testing.T) {
	repo := &MockBookingRepository{}
	producer := &MockProducer{}
	service := NewBookingService(repo, producer, "bookings",
		WithNotificationsTopic("notifications"),
		WithPublishTimeout(20*time.Millisecond),
	)
	ctx := context.Background()

	repo.On("Create", ctx, mock.Anything).Return(nil).Once()
	producer.On("Publish", boundedCtx, "bookings", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(context.DeadlineExceeded).Once()

	start := time.Now()
	booking, err := service.CreateBooking(ctx, dateRange(t, "2024-02-01", "2024-02-05"))

	require.NoError(t, err)
	assert.NotNil(t, booking)
	assert.Less(t, time.Since(start), 2*time.Second)
	producer.AssertNumberOfCalls(t, "Publish", 1)
}

func TestBookingService_ListBookings(t *testing.T) {
	repo := &MockBookingRepository{}
	service := NewBookingService(repo, nil, "")
	ctx := context.Background()
	expected := []domain.Booking{{ID: 1}, {ID: 2}}

	repo.On("List", ctx).Return(expected, nil).Once()

	list, err := service.ListBookings(ctx)

	assert.NoError(t, err)
	assert.Equal(t, expected, list)
}
