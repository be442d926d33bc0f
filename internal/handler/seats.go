package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// SeatHandler serves seat holds/releases during checkout and the
// public seat map.
type SeatHandler struct {
	svc *service.BookingService
}

// NewSeatHandler constructs a SeatHandler over the given service.
func NewSeatHandler(svc *service.BookingService) *SeatHandler {
	if svc == nil {
		panic("nil service passed to NewSeatHandler")
	}
	return &SeatHandler{svc: svc}
}

type updateSeatsRequest struct {
	ShowTime string   `json:"show_time"`
	Seats    []string `json:"seats"`
	Hold     bool     `json:"hold"`
}

// UpdateSeats handles POST /v1/schedules/:id/seats.  With hold=true the
// named seats are held for the caller until the hold window lapses;
// holding seats the caller already holds refreshes the window.  With
// hold=false the caller's holds on those seats are released.
func (h *SeatHandler) UpdateSeats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || scheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	var body updateSeatsRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if !validTime(body.ShowTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_time must be HH:MM"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	ctx := c.Request().Context()
	if body.Hold {
		res, err := h.svc.HoldSeats(ctx, userID, scheduleID, body.ShowTime, body.Seats)
		if err != nil {
			return serviceError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"held":       res.Labels,
			"expires_at": res.ExpiresAt.Format(time.RFC3339),
		})
	}
	released, err := h.svc.ReleaseSeats(ctx, userID, scheduleID, body.ShowTime, body.Seats)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

type seatView struct {
	Label      string `json:"label"`
	Status     string `json:"status"`
	PriceCents int64  `json:"price_cents"`
}

// SeatMap handles GET /v1/schedules/:id/seats?time=HH:MM, returning the
// showtime's seat grid grouped by row.  Expired holds are reported as
// available even before a sweep reclaims them.
func (h *SeatHandler) SeatMap(c echo.Context) error {
	scheduleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || scheduleID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid schedule id"})
	}
	showTime := c.QueryParam("time")
	if !validTime(showTime) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "time must be HH:MM"})
	}

	showtime, seats, err := h.svc.SeatMap(c.Request().Context(), scheduleID, showTime)
	if err != nil {
		return serviceError(c, err)
	}

	now := time.Now().UTC()
	rows := make(map[string][]seatView)
	for i := range seats {
		seat := &seats[i]
		status := seat.Status
		if seat.HoldExpired(now) {
			status = model.SeatAvailable
		}
		row := model.RowLabel(int(seat.RowIdx))
		rows[row] = append(rows[row], seatView{
			Label:      seat.Label,
			Status:     status,
			PriceCents: seat.PriceCents,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"showtime_id": showtime.ID,
		"movie_id":    showtime.MovieID,
		"movie_title": showtime.MovieTitle,
		"show_time":   showtime.ShowTime,
		"rows":        rows,
	})
}
