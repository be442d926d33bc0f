package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// BookingHandler serves booking creation, cancellation and listing.
// JWT authentication and role checks have already run by the time a
// method is invoked.
type BookingHandler struct {
	svc *service.BookingService
}

// NewBookingHandler constructs a BookingHandler over the given service.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc}
}

type createBookingRequest struct {
	MovieID             uint64   `json:"movie_id"`
	ScreenID            uint64   `json:"screen_id"`
	Seats               []string `json:"seats"`
	BookingDate         string   `json:"booking_date"`
	ShowTime            string   `json:"show_time"`
	PaymentMethod       string   `json:"payment_method"`
	PaymentStatus       string   `json:"payment_status"`
	OfferCode           *string  `json:"offer_code"`
	ConvenienceFeeCents int64    `json:"convenience_fee_cents"`
}

type bookingResponse struct {
	ID                  uint64   `json:"id"`
	MovieID             uint64   `json:"movie_id"`
	ScreenID            uint64   `json:"screen_id"`
	ShowtimeID          uint64   `json:"showtime_id"`
	Seats               []string `json:"seats"`
	BookingDate         string   `json:"booking_date"`
	ShowTime            string   `json:"show_time"`
	PaymentStatus       string   `json:"payment_status"`
	PaymentMethod       string   `json:"payment_method"`
	TotalPriceCents     int64    `json:"total_price_cents"`
	ConvenienceFeeCents int64    `json:"convenience_fee_cents"`
}

// Create handles POST /v1/bookings.  The seats named in the request are
// sold to the caller in a single transaction; when any of them cannot
// be taken the booking fails as a whole with 409 and the offending
// labels.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if msg := validateCreate(&body); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), service.CreateBookingInput{
		UserID:              userID,
		MovieID:             body.MovieID,
		ScreenID:            body.ScreenID,
		Seats:               body.Seats,
		BookingDate:         body.BookingDate,
		ShowTime:            body.ShowTime,
		PaymentMethod:       body.PaymentMethod,
		PaymentStatus:       body.PaymentStatus,
		OfferCode:           body.OfferCode,
		ConvenienceFeeCents: body.ConvenienceFeeCents,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusCreated, toBookingResponse(booking, body.Seats))
}

// Cancel handles POST /v1/bookings/:id/cancel.  The booked seats return
// to the pool and, when the booking had completed payment, the full
// total is refunded to the caller's wallet.
func (h *BookingHandler) Cancel(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || bookingID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	booking, refund, err := h.svc.CancelBooking(c.Request().Context(), userID, bookingID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":             booking.ID,
		"payment_status": booking.PaymentStatus,
		"refund_cents":   refund,
	})
}

// List handles GET /v1/bookings, returning the caller's bookings
// newest first with movie and theater context.
func (h *BookingHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.svc.ListBookings(c.Request().Context(), userID)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

func validateCreate(b *createBookingRequest) string {
	switch {
	case b.MovieID == 0:
		return "movie_id is required"
	case b.ScreenID == 0:
		return "screen_id is required"
	case len(b.Seats) == 0:
		return "seats is required"
	case !validDate(b.BookingDate):
		return "booking_date must be YYYY-MM-DD"
	case !validTime(b.ShowTime):
		return "show_time must be HH:MM"
	case b.PaymentMethod != model.MethodWallet && b.PaymentMethod != model.MethodCard:
		return "payment_method must be wallet or card"
	case b.ConvenienceFeeCents < 0:
		return "convenience_fee_cents must not be negative"
	}
	return ""
}

func toBookingResponse(b *model.Booking, seats []string) bookingResponse {
	normalized := make([]string, 0, len(seats))
	seen := map[string]bool{}
	for _, s := range seats {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" && !seen[s] {
			seen[s] = true
			normalized = append(normalized, s)
		}
	}
	return bookingResponse{
		ID:                  b.ID,
		MovieID:             b.MovieID,
		ScreenID:            b.ScreenID,
		ShowtimeID:          b.ShowtimeID,
		Seats:               normalized,
		BookingDate:         b.BookingDate,
		ShowTime:            b.ShowTime,
		PaymentStatus:       b.PaymentStatus,
		PaymentMethod:       b.PaymentMethod,
		TotalPriceCents:     b.TotalPriceCents,
		ConvenienceFeeCents: b.ConvenienceFeeCents,
	}
}
