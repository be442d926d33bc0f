// Package handler exposes the booking subsystem over HTTP.  Handlers
// bind and validate requests, delegate to the service layer and map
// domain errors onto HTTP statuses.
package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// getUserID extracts the authenticated user's numeric id from the
// context.  JWTAuth stores the raw "sub" claim, which arrives as a
// string or a JSON number depending on the issuer.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return 0, fmt.Errorf("invalid user id claim %q", v)
		}
		return id, nil
	case float64:
		if v <= 0 {
			return 0, fmt.Errorf("invalid user id claim %v", v)
		}
		return uint64(v), nil
	default:
		return 0, errors.New("missing user id claim")
	}
}

// validDate reports whether s is a calendar date in "2006-01-02" form.
func validDate(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// validTime reports whether s is a time of day in "15:04" form.
func validTime(s string) bool {
	_, err := time.Parse("15:04", s)
	return err == nil
}

// serviceError translates domain errors into JSON error responses.
func serviceError(c echo.Context, err error) error {
	var unavailable *service.SeatUnavailableError
	if errors.As(err, &unavailable) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "seats unavailable",
			"seats": unavailable.Labels,
		})
	}
	switch {
	case errors.Is(err, service.ErrScheduleNotFound),
		errors.Is(err, service.ErrShowtimeNotFound),
		errors.Is(err, service.ErrScreenNotFound),
		errors.Is(err, service.ErrMovieNotFound),
		errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrWalletNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting booking state"})
	case errors.Is(err, service.ErrInsufficientFunds):
		return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "insufficient wallet balance"})
	case errors.Is(err, service.ErrNoLayoutTemplate):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "screen has no seat layout"})
	default:
		c.Logger().Errorf("internal error: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
