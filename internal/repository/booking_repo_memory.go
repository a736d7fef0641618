package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
)

// MemoryBookingRepository keeps committed bookings in process. It backs local
// runs with database.driver=memory and the dialogue tests.
type MemoryBookingRepository struct {
	mu       sync.RWMutex
	bookings []domain.Booking
	nextID   int64
	now      func() time.Time
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{nextID: 1, now: time.Now}
}

func (r *MemoryBookingRepository) IsAvailable(_ context.Context, rng domain.DateRange) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.freeLocked(rng), nil
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *domain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.freeLocked(booking.Range()) {
		return domain.ErrUnavailable
	}

	booking.ID = r.nextID
	booking.Status = domain.BookingStatusConfirmed
	booking.CreatedAt = r.now()
	r.nextID++
	r.bookings = append(r.bookings, *booking)
	return nil
}

func (r *MemoryBookingRepository) List(_ context.Context) ([]domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Booking, len(r.bookings))
	copy(out, r.bookings)
	sort.Slice(out, func(i, j int) bool { return out[i].CheckIn.Before(out[j].CheckIn) })
	return out, nil
}

func (r *MemoryBookingRepository) freeLocked(rng domain.DateRange) bool {
	for _, b := range r.bookings {
		if b.Range().Overlaps(rng) {
			return false
		}
	}
	return true
}

var _ BookingRepository = (*MemoryBookingRepository)(nil)
