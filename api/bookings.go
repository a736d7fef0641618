package api

import (
	"net/http"
	"time"

	"github.com/Domenick1991/bnbchat/internal/domain"
	"github.com/Domenick1991/bnbchat/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type Quoter interface {
	Quote(r domain.DateRange) (float64, error)
}

type BookingHandler struct {
	service booking.BookingUseCase
	quoter  Quoter
}

type bookingResponse struct {
	ID        int64  `json:"id"`
	CheckIn   string `json:"check_in"`
	CheckOut  string `json:"check_out"`
	Nights    int    `json:"nights"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

type availabilityResponse struct {
	CheckIn   string  `json:"check_in"`
	CheckOut  string  `json:"check_out"`
	Available bool    `json:"available"`
	Nights    int     `json:"nights"`
	Price     float64 `json:"price"`
}

func NewBookingHandler(service booking.BookingUseCase, quoter Quoter) *BookingHandler {
	return &BookingHandler{service: service, quoter: quoter}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.availability)
	router.GET("/bookings", h.list)
}

func (h *BookingHandler) availability(c *gin.Context) {
	rng, err := domain.ParseDateRange(c.Query("check_in"), c.Query("check_out"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	available, err := h.service.IsAvailable(c.Request.Context(), rng)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	price, err := h.quoter.Quote(rng)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, availabilityResponse{
		CheckIn:   rng.CheckIn.Format(domain.DateLayout),
		CheckOut:  rng.CheckOut.Format(domain.DateLayout),
		Available: available,
		Nights:    rng.Nights(),
		Price:     price,
	})
}

func (h *BookingHandler) list(c *gin.Context) {
	bookings, err := h.service.ListBookings(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for _, b := range bookings {
		resp = append(resp, bookingResponse{
			ID:        b.ID,
			CheckIn:   b.CheckIn.Format(domain.DateLayout),
			CheckOut:  b.CheckOut.Format(domain.DateLayout),
			Nights:    b.Range().Nights(),
			Status:    string(b.Status),
			CreatedAt: b.CreatedAt.Format(time.RFC3339),
		})
	}
	c.JSON(http.StatusOK, resp)
}
