package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// SeatRepo encapsulates database operations on showtime_seats, the
// per-showtime seat state table.  All state changes are conditional
// UPDATEs whose WHERE clause re-checks the expected current state, so
// two concurrent transactions cannot both take the same seat: the
// second sees zero affected rows and the caller rolls back.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo given a DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

const seatColumns = `id, showtime_id, row_idx, label, status, price_cents,
	hold_user_id, hold_token, hold_expires_at, booking_id, version`

func scanSeat(row interface{ Scan(...any) error }) (model.ShowtimeSeat, error) {
	var s model.ShowtimeSeat
	var holdUser, bookingID sql.NullInt64
	var holdToken sql.NullString
	var holdExpires sql.NullTime
	err := row.Scan(&s.ID, &s.ShowtimeID, &s.RowIdx, &s.Label, &s.Status, &s.PriceCents,
		&holdUser, &holdToken, &holdExpires, &bookingID, &s.Version)
	if err != nil {
		return s, err
	}
	if holdUser.Valid {
		u := uint64(holdUser.Int64)
		s.HoldUserID = &u
	}
	if holdToken.Valid {
		t := holdToken.String
		s.HoldToken = &t
	}
	if holdExpires.Valid {
		e := holdExpires.Time.UTC()
		s.HoldExpiresAt = &e
	}
	if bookingID.Valid {
		b := uint64(bookingID.Int64)
		s.BookingID = &b
	}
	return s, nil
}

// placeholders returns a "?, ?, ?" list for n parameters.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?, ", n-1) + "?"
}

// CreateBulkTx inserts multiple seat rows in one statement.  Only
// showtime_id, row_idx, label, status and price_cents are written;
// holds and booking references start empty.  Passing an empty slice
// has no effect and returns nil.
func (r *SeatRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, seats []model.ShowtimeSeat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO showtime_seats (showtime_id, row_idx, label, status, price_cents) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.ShowtimeID, s.RowIdx, s.Label, s.Status, s.PriceCents)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByLabelsTx loads the seat rows with the given labels for a
// showtime, locking them for the duration of the transaction so the
// availability check and the subsequent conditional update see the
// same state.  Labels with no matching row are simply absent from the
// result; the caller detects them by comparing lengths.
func (r *SeatRepo) ListByLabelsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string) ([]model.ShowtimeSeat, error) {
	if len(labels) == 0 {
		return nil, nil
	}
	query := `SELECT ` + seatColumns + ` FROM showtime_seats WHERE showtime_id = ? AND label IN (` + placeholders(len(labels)) + `) FOR UPDATE`
	args := make([]interface{}, 0, len(labels)+1)
	args = append(args, showtimeID)
	for _, l := range labels {
		args = append(args, l)
	}
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowtimeSeat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListByShowtimeTx loads every seat row of a showtime inside the
// provided transaction, ordered by grid position.  Used when cloning a
// layout template.
func (r *SeatRepo) ListByShowtimeTx(ctx context.Context, tx *sql.Tx, showtimeID uint64) ([]model.ShowtimeSeat, error) {
	const q = `SELECT ` + seatColumns + ` FROM showtime_seats WHERE showtime_id = ? ORDER BY row_idx, id`
	rows, err := tx.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowtimeSeat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ListByShowtime is the non-transactional variant of ListByShowtimeTx,
// used by the public availability view.
func (r *SeatRepo) ListByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowtimeSeat, error) {
	const q = `SELECT ` + seatColumns + ` FROM showtime_seats WHERE showtime_id = ? ORDER BY row_idx, id`
	rows, err := r.db.QueryContext(ctx, q, showtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.ShowtimeSeat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// HoldTx places or refreshes a hold on the given seats for a user.  A
// seat is holdable when it is AVAILABLE, already held by the same user
// (the hold is refreshed, making repeated hold requests idempotent) or
// held by someone else whose hold has expired.  Returns the number of
// seats transitioned.
func (r *SeatRepo) HoldTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string, userID uint64, token string, expiresAt time.Time) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	query := `UPDATE showtime_seats
	          SET status = ?, hold_user_id = ?, hold_token = ?, hold_expires_at = ?, version = version + 1
	          WHERE showtime_id = ? AND label IN (` + placeholders(len(labels)) + `)
	          AND (status = ? OR (status = ? AND (hold_user_id = ? OR hold_expires_at <= ?)))`
	args := []interface{}{model.SeatHeld, userID, token, expiresAt.UTC(), showtimeID}
	for _, l := range labels {
		args = append(args, l)
	}
	args = append(args, model.SeatAvailable, model.SeatHeld, userID, time.Now().UTC())
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ReleaseTx releases holds owned by the given user on the given seats.
// Seats held by other users or already sold are left untouched.
func (r *SeatRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string, userID uint64) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	query := `UPDATE showtime_seats
	          SET status = ?, hold_user_id = NULL, hold_token = NULL, hold_expires_at = NULL, version = version + 1
	          WHERE showtime_id = ? AND label IN (` + placeholders(len(labels)) + `)
	          AND status = ? AND hold_user_id = ?`
	args := []interface{}{model.SeatAvailable, showtimeID}
	for _, l := range labels {
		args = append(args, l)
	}
	args = append(args, model.SeatHeld, userID)
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// SellTx marks the given seats SOLD under a booking.  A seat is
// sellable when it is AVAILABLE, held by the purchasing user, or
// carries an expired foreign hold.  The caller must verify that the
// affected-row count equals the number of requested seats and roll the
// transaction back otherwise.
func (r *SeatRepo) SellTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, labels []string, userID, bookingID uint64) (int64, error) {
	if len(labels) == 0 {
		return 0, nil
	}
	query := `UPDATE showtime_seats
	          SET status = ?, booking_id = ?, hold_user_id = NULL, hold_token = NULL, hold_expires_at = NULL, version = version + 1
	          WHERE showtime_id = ? AND label IN (` + placeholders(len(labels)) + `)
	          AND (status = ? OR (status = ? AND (hold_user_id = ? OR hold_expires_at <= ?)))`
	args := []interface{}{model.SeatSold, bookingID, showtimeID}
	for _, l := range labels {
		args = append(args, l)
	}
	args = append(args, model.SeatAvailable, model.SeatHeld, userID, time.Now().UTC())
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// RestoreByBookingTx returns all seats sold under a booking to
// AVAILABLE.  Used on cancellation; the affected-row count lets the
// caller verify every booked seat was restored.
func (r *SeatRepo) RestoreByBookingTx(ctx context.Context, tx *sql.Tx, showtimeID, bookingID uint64) (int64, error) {
	const q = `UPDATE showtime_seats
	           SET status = ?, booking_id = NULL, version = version + 1
	           WHERE showtime_id = ? AND booking_id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, model.SeatAvailable, showtimeID, bookingID, model.SeatSold)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpireHoldsTx reclaims expired holds for one showtime inside the
// provided transaction.  Called before availability checks so stale
// holds never block a purchase.
func (r *SeatRepo) ExpireHoldsTx(ctx context.Context, tx *sql.Tx, showtimeID uint64, now time.Time) (int64, error) {
	const q = `UPDATE showtime_seats
	           SET status = ?, hold_user_id = NULL, hold_token = NULL, hold_expires_at = NULL, version = version + 1
	           WHERE showtime_id = ? AND status = ? AND hold_expires_at <= ?`
	res, err := tx.ExecContext(ctx, q, model.SeatAvailable, showtimeID, model.SeatHeld, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ExpireAllHoldsTx reclaims expired holds across all showtimes.  The
// background sweeper calls this on a fixed interval so abandoned
// checkouts release their seats even when no later request touches the
// showtime.
func (r *SeatRepo) ExpireAllHoldsTx(ctx context.Context, tx *sql.Tx, now time.Time) (int64, error) {
	const q = `UPDATE showtime_seats
	           SET status = ?, hold_user_id = NULL, hold_token = NULL, hold_expires_at = NULL, version = version + 1
	           WHERE status = ? AND hold_expires_at <= ?`
	res, err := tx.ExecContext(ctx, q, model.SeatAvailable, model.SeatHeld, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
