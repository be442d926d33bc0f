package model

import "time"

// Movie is a catalog entry referenced by showtimes and bookings.
// The booking subsystem only reads movies; catalog management is
// handled out of band (seeding or a separate admin surface).
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title of the movie.
//  DurationMin – running time in minutes.
//  CreatedAt   – creation timestamp.
//  UpdatedAt   – last update timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	DurationMin uint32    // movies.duration_min
	CreatedAt   time.Time // movies.created_at
	UpdatedAt   time.Time // movies.updated_at
}
