// Package repository implements MySQL persistence for the booking
// domain: catalog reads, schedules and showtimes, per-showtime seat
// state, bookings and wallets.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// Store bundles the per-aggregate repositories behind the booking
// service's storage port.  WithTx owns the transaction lifecycle so
// the service layer never sees *sql.Tx.
type Store struct {
	db       *sql.DB
	catalog  *CatalogRepo
	schedule *ScheduleRepo
	seats    *SeatRepo
	bookings *BookingRepo
	wallets  *WalletRepo
}

// NewStore wires all repositories over one *sql.DB.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:       db,
		catalog:  NewCatalogRepo(db),
		schedule: NewScheduleRepo(db),
		seats:    NewSeatRepo(db),
		bookings: NewBookingRepo(db),
		wallets:  NewWalletRepo(db),
	}
}

// WithTx begins a transaction, runs fn with a transactional view of
// the store, and commits when fn returns nil.  Any error from fn or
// from commit rolls the transaction back.
func (s *Store) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(&storeTx{tx: tx, s: s}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ListBookings returns the user's bookings, newest first.
func (s *Store) ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.bookings.ListByUser(ctx, userID)
}

// WalletStatement returns the user's wallet and ledger.
func (s *Store) WalletStatement(ctx context.Context, userID uint64) (*model.Wallet, []model.WalletTransaction, error) {
	return s.wallets.Statement(ctx, userID)
}

// ShowtimeSeatMap resolves a schedule/time pair to its showtime and
// full seat grid.  Plain reads, no row locks.
func (s *Store) ShowtimeSeatMap(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, []model.ShowtimeSeat, error) {
	st, err := s.schedule.GetShowtime(ctx, scheduleID, showTime)
	if err != nil {
		return nil, nil, err
	}
	seats, err := s.seats.ListByShowtime(ctx, st.ID)
	if err != nil {
		return nil, nil, err
	}
	return st, seats, nil
}

// storeTx adapts one *sql.Tx to the service transaction port by
// delegating to the repositories' Tx methods.
type storeTx struct {
	tx *sql.Tx
	s  *Store
}

func (t *storeTx) Screen(ctx context.Context, id uint64) (*model.Screen, error) {
	return t.s.catalog.GetScreenTx(ctx, t.tx, id)
}

func (t *storeTx) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	return t.s.catalog.GetMovieTx(ctx, t.tx, id)
}

func (t *storeTx) Schedule(ctx context.Context, screenID uint64, showDate string) (*model.Schedule, error) {
	return t.s.schedule.GetByScreenDateTx(ctx, t.tx, screenID, showDate)
}

func (t *storeTx) CreateSchedule(ctx context.Context, sc *model.Schedule) error {
	return t.s.schedule.CreateTx(ctx, t.tx, sc)
}

func (t *storeTx) Showtime(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, error) {
	return t.s.schedule.GetShowtimeTx(ctx, t.tx, scheduleID, showTime)
}

func (t *storeTx) CreateShowtime(ctx context.Context, st *model.Showtime) error {
	return t.s.schedule.CreateShowtimeTx(ctx, t.tx, st)
}

func (t *storeTx) TemplateShowtime(ctx context.Context, screenID uint64) (*model.Showtime, error) {
	return t.s.schedule.TemplateShowtimeTx(ctx, t.tx, screenID)
}

func (t *storeTx) SeatsByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowtimeSeat, error) {
	return t.s.seats.ListByShowtimeTx(ctx, t.tx, showtimeID)
}

func (t *storeTx) SeatsByLabels(ctx context.Context, showtimeID uint64, labels []string) ([]model.ShowtimeSeat, error) {
	return t.s.seats.ListByLabelsTx(ctx, t.tx, showtimeID, labels)
}

func (t *storeTx) InsertSeats(ctx context.Context, seats []model.ShowtimeSeat) error {
	return t.s.seats.CreateBulkTx(ctx, t.tx, seats)
}

func (t *storeTx) HoldSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64, token string, expiresAt time.Time) (int64, error) {
	return t.s.seats.HoldTx(ctx, t.tx, showtimeID, labels, userID, token, expiresAt)
}

func (t *storeTx) ReleaseSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64) (int64, error) {
	return t.s.seats.ReleaseTx(ctx, t.tx, showtimeID, labels, userID)
}

func (t *storeTx) SellSeats(ctx context.Context, showtimeID uint64, labels []string, userID, bookingID uint64) (int64, error) {
	return t.s.seats.SellTx(ctx, t.tx, showtimeID, labels, userID, bookingID)
}

func (t *storeTx) RestoreSeats(ctx context.Context, showtimeID, bookingID uint64) (int64, error) {
	return t.s.seats.RestoreByBookingTx(ctx, t.tx, showtimeID, bookingID)
}

func (t *storeTx) ExpireShowtimeHolds(ctx context.Context, showtimeID uint64, now time.Time) (int64, error) {
	return t.s.seats.ExpireHoldsTx(ctx, t.tx, showtimeID, now)
}

func (t *storeTx) ExpireAllHolds(ctx context.Context, now time.Time) (int64, error) {
	return t.s.seats.ExpireAllHoldsTx(ctx, t.tx, now)
}

func (t *storeTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	return t.s.bookings.CreateTx(ctx, t.tx, b)
}

func (t *storeTx) InsertBookingSeats(ctx context.Context, seats []model.BookingSeat) error {
	return t.s.bookings.CreateSeatsBulkTx(ctx, t.tx, seats)
}

func (t *storeTx) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	return t.s.bookings.GetByIDTx(ctx, t.tx, id)
}

func (t *storeTx) BookingSeats(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error) {
	return t.s.bookings.SeatsByBookingTx(ctx, t.tx, bookingID)
}

func (t *storeTx) UpdateBookingStatus(ctx context.Context, id uint64, to string, from ...string) (int64, error) {
	return t.s.bookings.UpdateStatusTx(ctx, t.tx, id, to, from...)
}

func (t *storeTx) Wallet(ctx context.Context, userID uint64) (*model.Wallet, error) {
	return t.s.wallets.EnsureTx(ctx, t.tx, userID)
}

func (t *storeTx) UpdateWalletBalance(ctx context.Context, walletID uint64, balanceCents int64) error {
	return t.s.wallets.UpdateBalanceTx(ctx, t.tx, walletID, balanceCents)
}

func (t *storeTx) AppendWalletTransaction(ctx context.Context, wt *model.WalletTransaction) error {
	return t.s.wallets.AppendTransactionTx(ctx, t.tx, wt)
}

var _ service.Store = (*Store)(nil)
