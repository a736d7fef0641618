package pricing

import (
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
)

const DefaultNightlyRate = 120.0

// CalculatePrice returns nights × nightlyRate, rejecting stays of zero or fewer nights.
func CalculatePrice(checkIn, checkOut time.Time, nightlyRate float64) (float64, error) {
	r := domain.DateRange{CheckIn: checkIn, CheckOut: checkOut}
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return float64(r.Nights()) * nightlyRate, nil
}

type Calculator struct {
	nightlyRate float64
}

func NewCalculator(nightlyRate float64) *Calculator {
	if nightlyRate <= 0 {
		nightlyRate = DefaultNightlyRate
	}
	return &Calculator{nightlyRate: nightlyRate}
}

func (c *Calculator) Quote(r domain.DateRange) (float64, error) {
	return CalculatePrice(r.CheckIn, r.CheckOut, c.nightlyRate)
}

func (c *Calculator) NightlyRate() float64 {
	return c.nightlyRate
}
