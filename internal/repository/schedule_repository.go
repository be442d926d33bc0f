package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// ScheduleRepo manages persistence for schedules and their showtimes.
// A schedule groups the showtimes of one screen on one calendar date;
// ShowDate is stored as a DATE column and exchanged as "2006-01-02"
// strings, ShowTime as "15:04".
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo constructs a ScheduleRepo with the given DB handle.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

// GetByScreenDateTx loads the schedule for a screen/date pair inside
// the provided transaction.  It returns service.ErrScheduleNotFound when no
// schedule exists yet for that combination.
func (r *ScheduleRepo) GetByScreenDateTx(ctx context.Context, tx *sql.Tx, screenID uint64, showDate string) (*model.Schedule, error) {
	const q = `SELECT id, screen_id, DATE_FORMAT(show_date, '%Y-%m-%d') FROM schedules WHERE screen_id = ? AND show_date = ?`
	var s model.Schedule
	err := tx.QueryRowContext(ctx, q, screenID, showDate).Scan(&s.ID, &s.ScreenID, &s.ShowDate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrScheduleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateTx inserts a new schedule within the provided transaction and
// populates the generated ID on the passed record.  The caller must
// commit or roll back the transaction.
func (r *ScheduleRepo) CreateTx(ctx context.Context, tx *sql.Tx, s *model.Schedule) error {
	const q = `INSERT INTO schedules (screen_id, show_date) VALUES (?, ?)`
	res, err := tx.ExecContext(ctx, q, s.ScreenID, s.ShowDate)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetShowtimeTx loads the showtime of a schedule at the given time of
// day inside the provided transaction.  It returns service.ErrShowtimeNotFound
// when the schedule has no screening at that time.
func (r *ScheduleRepo) GetShowtimeTx(ctx context.Context, tx *sql.Tx, scheduleID uint64, showTime string) (*model.Showtime, error) {
	const q = `SELECT id, schedule_id, movie_id, movie_title, show_time FROM showtimes WHERE schedule_id = ? AND show_time = ?`
	var st model.Showtime
	err := tx.QueryRowContext(ctx, q, scheduleID, showTime).Scan(&st.ID, &st.ScheduleID, &st.MovieID, &st.MovieTitle, &st.ShowTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// GetShowtime is the non-transactional variant of GetShowtimeTx, used
// by read-only availability views.
func (r *ScheduleRepo) GetShowtime(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, error) {
	const q = `SELECT id, schedule_id, movie_id, movie_title, show_time FROM showtimes WHERE schedule_id = ? AND show_time = ?`
	var st model.Showtime
	err := r.db.QueryRowContext(ctx, q, scheduleID, showTime).Scan(&st.ID, &st.ScheduleID, &st.MovieID, &st.MovieTitle, &st.ShowTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrShowtimeNotFound
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// CreateShowtimeTx inserts a showtime within the provided transaction
// and populates the generated ID on the passed record.
func (r *ScheduleRepo) CreateShowtimeTx(ctx context.Context, tx *sql.Tx, st *model.Showtime) error {
	const q = `INSERT INTO showtimes (schedule_id, movie_id, movie_title, show_time) VALUES (?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, st.ScheduleID, st.MovieID, st.MovieTitle, st.ShowTime)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	st.ID = uint64(id)
	return nil
}

// TemplateShowtimeTx returns the oldest existing showtime on any
// schedule of the given screen.  Lazy showtime creation clones its seat
// layout.  When the screen has never had a showtime there is nothing to
// clone and service.ErrNoLayoutTemplate is returned.
func (r *ScheduleRepo) TemplateShowtimeTx(ctx context.Context, tx *sql.Tx, screenID uint64) (*model.Showtime, error) {
	const q = `SELECT st.id, st.schedule_id, st.movie_id, st.movie_title, st.show_time
	           FROM showtimes st
	           JOIN schedules s ON s.id = st.schedule_id
	           WHERE s.screen_id = ?
	           ORDER BY st.id
	           LIMIT 1`
	var st model.Showtime
	err := tx.QueryRowContext(ctx, q, screenID).Scan(&st.ID, &st.ScheduleID, &st.MovieID, &st.MovieTitle, &st.ShowTime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrNoLayoutTemplate
	}
	if err != nil {
		return nil, err
	}
	return &st, nil
}
