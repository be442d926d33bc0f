package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cinebook/movie-ticket-booking/internal/model"
)

// SeedDemo inserts a small demo catalog when the database is empty:
// a few movies, one theater with two screens, and one template
// showtime per screen so lazy showtime creation has a layout to clone.
// Running against a non-empty database is a no-op.
func SeedDemo(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM movies`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	movies := []struct {
		title    string
		duration uint32
	}{
		{"Interstellar", 169},
		{"The Grand Budapest Hotel", 99},
		{"Spirited Away", 125},
	}
	movieIDs := make([]uint64, 0, len(movies))
	for _, m := range movies {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO movies (title, duration_min) VALUES (?, ?)`, m.title, m.duration)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		movieIDs = append(movieIDs, uint64(id))
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO theaters (name, location) VALUES (?, ?)`, "CineBook Central", "12 Harbor Street")
	if err != nil {
		return err
	}
	theaterID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	screens := []struct {
		name       string
		rows, cols uint32
		price      int64
	}{
		{"Screen 1", 8, 10, 1200},
		{"Screen 2", 6, 8, 1500},
	}
	for i, sc := range screens {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO screens (theater_id, name, seat_rows, seat_cols) VALUES (?, ?, ?, ?)`,
			theaterID, sc.name, sc.rows, sc.cols)
		if err != nil {
			return err
		}
		screenID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		if err := seedTemplateShowtime(ctx, tx, uint64(screenID), movieIDs[i%len(movieIDs)], movies[i%len(movies)].title, sc.rows, sc.cols, sc.price); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// seedTemplateShowtime creates one schedule/showtime with a full seat
// grid for a screen.  Later showtimes on the screen clone this layout.
func seedTemplateShowtime(ctx context.Context, tx *sql.Tx, screenID, movieID uint64, movieTitle string, rows, cols uint32, priceCents int64) error {
	res, err := tx.ExecContext(ctx,
		`INSERT INTO schedules (screen_id, show_date) VALUES (?, CURDATE())`, screenID)
	if err != nil {
		return err
	}
	scheduleID, err := res.LastInsertId()
	if err != nil {
		return err
	}
	res, err = tx.ExecContext(ctx,
		`INSERT INTO showtimes (schedule_id, movie_id, movie_title, show_time) VALUES (?, ?, ?, ?)`,
		scheduleID, movieID, movieTitle, "18:00")
	if err != nil {
		return err
	}
	showtimeID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	seats := model.BuildLayout(uint64(showtimeID), rows, cols, priceCents)
	var (
		sb   strings.Builder
		args []any
	)
	sb.WriteString(`INSERT INTO showtime_seats (showtime_id, row_idx, label, status, price_cents) VALUES `)
	for i, seat := range seats {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?, ?, ?)")
		args = append(args, seat.ShowtimeID, seat.RowIdx, seat.Label, seat.Status, seat.PriceCents)
	}
	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("seed seats for showtime %d: %w", showtimeID, err)
	}
	return nil
}
