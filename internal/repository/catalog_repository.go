package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// CatalogRepo provides read access to the movie/theater/screen catalog.
// The booking subsystem never mutates the catalog; rows are created by
// seeding or an out-of-band admin surface.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo constructs a CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

// GetScreenTx loads a screen by ID within the provided transaction.
// It returns service.ErrScreenNotFound when no row matches.
func (r *CatalogRepo) GetScreenTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Screen, error) {
	const q = `SELECT id, theater_id, name, seat_rows, seat_cols FROM screens WHERE id = ?`
	var s model.Screen
	err := tx.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.TheaterID, &s.Name, &s.SeatRows, &s.SeatCols)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetMovieTx loads a movie by ID within the provided transaction.  It
// returns service.ErrMovieNotFound when no row matches.
func (r *CatalogRepo) GetMovieTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Movie, error) {
	const q = `SELECT id, title, duration_min FROM movies WHERE id = ?`
	var m model.Movie
	err := tx.QueryRowContext(ctx, q, id).Scan(&m.ID, &m.Title, &m.DurationMin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, service.ErrMovieNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
