package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the only date format guests are asked to use.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
)

// DateRange is a half-open stay [CheckIn, CheckOut) at day granularity.
type DateRange struct {
	CheckIn  time.Time `json:"check_in"`
	CheckOut time.Time `json:"check_out"`
}

type Booking struct {
	ID        int64
	CheckIn   time.Time
	CheckOut  time.Time
	Status    BookingStatus
	CreatedAt time.Time
}

func (b Booking) Range() DateRange {
	return DateRange{CheckIn: b.CheckIn, CheckOut: b.CheckOut}
}

// ParseDate reads a YYYY-MM-DD token as a UTC calendar date.
func ParseDate(token string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(token))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, token)
	}
	return d, nil
}

// ParseDateRange parses both tokens and requires check-out to fall after check-in.
func ParseDateRange(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	r := DateRange{CheckIn: in, CheckOut: out}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) Validate() error {
	if r.Nights() <= 0 {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts calendar days between check-in and check-out.
func (r DateRange) Nights() int {
	in := truncateDay(r.CheckIn)
	out := truncateDay(r.CheckOut)
	return int(out.Sub(in).Hours() / 24)
}

// Overlaps reports whether two half-open ranges share at least one night.
func (r DateRange) Overlaps(other DateRange) bool {
	return !(!r.CheckOut.After(other.CheckIn) || !r.CheckIn.Before(other.CheckOut))
}

func (r DateRange) String() string {
	return r.CheckIn.Format(DateLayout) + " to " + r.CheckOut.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
