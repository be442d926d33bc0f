package service

import "errors"

// Sentinel errors shared by the storage implementations and the
// booking flows. Handlers translate them into HTTP statuses:
// not-found values become 404, ErrForbidden 403, ErrConflict 409 and
// ErrInsufficientFunds 402.
var (
	// ErrScheduleNotFound indicates no schedule exists for a screen/date pair.
	ErrScheduleNotFound = errors.New("schedule not found")

	// ErrShowtimeNotFound indicates a schedule has no showtime at the
	// requested time of day.
	ErrShowtimeNotFound = errors.New("showtime not found")

	// ErrNoLayoutTemplate is returned when a showtime must be created
	// lazily but the screen has no prior showtime whose layout could be
	// cloned. Screens must be seeded with at least one showtime before
	// bookings can materialise new ones.
	ErrNoLayoutTemplate = errors.New("no layout template for screen")

	// ErrScreenNotFound indicates the referenced screen does not exist.
	ErrScreenNotFound = errors.New("screen not found")

	// ErrMovieNotFound indicates the referenced movie does not exist.
	ErrMovieNotFound = errors.New("movie not found")

	// ErrBookingNotFound indicates the booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrWalletNotFound indicates the user has no wallet row yet.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrForbidden is returned when the caller attempts an operation on
	// a resource they do not own.
	ErrForbidden = errors.New("forbidden")

	// ErrConflict is returned when a state transition cannot be
	// performed, such as cancelling an already cancelled booking.
	ErrConflict = errors.New("conflict")

	// ErrInsufficientFunds is returned when a wallet debit would drive
	// the balance negative.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
)
