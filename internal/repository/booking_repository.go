package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// BookingRepo provides persistence for bookings and their seat lists.
// Seats bought under a booking are stored in booking_seats; they are
// the authoritative record of what a cancellation must restore.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateTx inserts a new booking within the provided transaction and
// populates the generated ID on the passed record.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	const q = `INSERT INTO bookings
	           (user_id, movie_id, theater_id, screen_id, showtime_id, offer_code,
	            booking_date, show_time, payment_status, payment_method,
	            total_price_cents, convenience_fee_cents)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.UserID, b.MovieID, b.TheaterID, b.ScreenID, b.ShowtimeID, b.OfferCode,
		b.BookingDate, b.ShowTime, b.PaymentStatus, b.PaymentMethod,
		b.TotalPriceCents, b.ConvenienceFeeCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	return nil
}

// CreateSeatsBulkTx inserts the booking's seat labels in one statement.
// Passing an empty slice has no effect and returns nil.
func (r *BookingRepo) CreateSeatsBulkTx(ctx context.Context, tx *sql.Tx, seats []model.BookingSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, showtime_id, label, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.BookingID, s.ShowtimeID, s.Label, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByIDTx loads a booking by ID inside the provided transaction,
// locking the row so concurrent cancellations serialise on it.  It
// returns service.ErrBookingNotFound when no row matches.
func (r *BookingRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Booking, error) {
	const q = `SELECT id, user_id, movie_id, theater_id, screen_id, showtime_id, offer_code,
	                  DATE_FORMAT(booking_date, '%Y-%m-%d'), show_time, payment_status, payment_method,
	                  total_price_cents, convenience_fee_cents
	           FROM bookings WHERE id = ? FOR UPDATE`
	var b model.Booking
	var offer sql.NullString
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&b.ID, &b.UserID, &b.MovieID, &b.TheaterID, &b.ScreenID, &b.ShowtimeID, &offer,
		&b.BookingDate, &b.ShowTime, &b.PaymentStatus, &b.PaymentMethod,
		&b.TotalPriceCents, &b.ConvenienceFeeCents)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if offer.Valid {
		o := offer.String
		b.OfferCode = &o
	}
	return &b, nil
}

// SeatsByBookingTx loads the seat labels bought under a booking.
func (r *BookingRepo) SeatsByBookingTx(ctx context.Context, tx *sql.Tx, bookingID uint64) ([]model.BookingSeat, error) {
	const q = `SELECT id, booking_id, showtime_id, label, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY id`
	rows, err := tx.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.BookingSeat
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.ID, &s.BookingID, &s.ShowtimeID, &s.Label, &s.PriceCents); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// UpdateStatusTx transitions a booking's payment status, guarded by the
// set of statuses the booking is allowed to move from.  Returns the
// number of rows changed; zero means the booking was not in any of the
// expected states and the caller should treat the transition as a
// conflict.
func (r *BookingRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, to string, from ...string) (int64, error) {
	if len(from) == 0 {
		return 0, nil
	}
	query := `UPDATE bookings SET payment_status = ? WHERE id = ? AND payment_status IN (` + placeholders(len(from)) + `)`
	args := []interface{}{to, id}
	for _, f := range from {
		args = append(args, f)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListByUser returns all bookings made by a user, newest first, joined
// with movie, theater and screen names and the seat labels of each
// booking.  Seats are fetched in a second query and stitched in.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	const q = `SELECT b.id, b.movie_id, m.title, b.theater_id, t.name, b.screen_id, sc.name,
	                  DATE_FORMAT(b.booking_date, '%Y-%m-%d'), b.show_time, b.payment_status, b.payment_method,
	                  b.total_price_cents, b.convenience_fee_cents, b.created_at
	           FROM bookings b
	           JOIN movies m ON m.id = b.movie_id
	           JOIN theaters t ON t.id = b.theater_id
	           JOIN screens sc ON sc.id = b.screen_id
	           WHERE b.user_id = ?
	           ORDER BY b.created_at DESC, b.id DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	details := []model.BookingDetail{}
	index := map[uint64]int{}
	for rows.Next() {
		var d model.BookingDetail
		var createdAt time.Time
		if err := rows.Scan(&d.ID, &d.MovieID, &d.MovieTitle, &d.TheaterID, &d.TheaterName,
			&d.ScreenID, &d.ScreenName, &d.BookingDate, &d.ShowTime, &d.PaymentStatus,
			&d.PaymentMethod, &d.TotalPriceCents, &d.ConvenienceFeeCents, &createdAt); err != nil {
			return nil, err
		}
		d.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		d.Seats = []string{}
		index[d.ID] = len(details)
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(details) == 0 {
		return details, nil
	}
	// Second pass: seat labels for all bookings at once.
	ids := make([]interface{}, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ID)
	}
	sq := `SELECT booking_id, label FROM booking_seats WHERE booking_id IN (` + placeholders(len(ids)) + `) ORDER BY id`
	srows, err := r.db.QueryContext(ctx, sq, ids...)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	for srows.Next() {
		var bid uint64
		var label string
		if err := srows.Scan(&bid, &label); err != nil {
			return nil, err
		}
		if i, ok := index[bid]; ok {
			details[i].Seats = append(details[i].Seats, label)
		}
	}
	return details, srows.Err()
}
