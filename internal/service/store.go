package service

import (
	"context"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// Tx is the set of storage operations a booking flow may perform
// inside one transaction.  The SQL implementation backs each method
// with conditional statements whose WHERE clauses re-check the
// expected seat state, so concurrent transactions cannot both take
// the same seat.
type Tx interface {
	// Catalog lookups.
	Screen(ctx context.Context, id uint64) (*model.Screen, error)
	Movie(ctx context.Context, id uint64) (*model.Movie, error)

	// Schedules and showtimes.
	Schedule(ctx context.Context, screenID uint64, showDate string) (*model.Schedule, error)
	CreateSchedule(ctx context.Context, s *model.Schedule) error
	Showtime(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, error)
	CreateShowtime(ctx context.Context, st *model.Showtime) error
	TemplateShowtime(ctx context.Context, screenID uint64) (*model.Showtime, error)

	// Seat state.
	SeatsByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowtimeSeat, error)
	SeatsByLabels(ctx context.Context, showtimeID uint64, labels []string) ([]model.ShowtimeSeat, error)
	InsertSeats(ctx context.Context, seats []model.ShowtimeSeat) error
	HoldSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64, token string, expiresAt time.Time) (int64, error)
	ReleaseSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64) (int64, error)
	SellSeats(ctx context.Context, showtimeID uint64, labels []string, userID, bookingID uint64) (int64, error)
	RestoreSeats(ctx context.Context, showtimeID, bookingID uint64) (int64, error)
	ExpireShowtimeHolds(ctx context.Context, showtimeID uint64, now time.Time) (int64, error)
	ExpireAllHolds(ctx context.Context, now time.Time) (int64, error)

	// Bookings.
	InsertBooking(ctx context.Context, b *model.Booking) error
	InsertBookingSeats(ctx context.Context, seats []model.BookingSeat) error
	Booking(ctx context.Context, id uint64) (*model.Booking, error)
	BookingSeats(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error)
	UpdateBookingStatus(ctx context.Context, id uint64, to string, from ...string) (int64, error)

	// Wallet.
	Wallet(ctx context.Context, userID uint64) (*model.Wallet, error)
	UpdateWalletBalance(ctx context.Context, walletID uint64, balanceCents int64) error
	AppendWalletTransaction(ctx context.Context, t *model.WalletTransaction) error
}

// Store is the storage port of the booking service.  WithTx runs the
// given function inside one transaction, committing when it returns
// nil and rolling back otherwise.  The remaining methods are plain
// reads used by listing endpoints.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error)
	WalletStatement(ctx context.Context, userID uint64) (*model.Wallet, []model.WalletTransaction, error)
	ShowtimeSeatMap(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, []model.ShowtimeSeat, error)
}
