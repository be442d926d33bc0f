package model

import "time"

// Screen is an auditorium inside a theater.  Its SeatRows and SeatCols
// describe the physical seat grid; every showtime scheduled on the
// screen materialises its own copy of that grid as showtime seats.
//
// Fields:
//  ID        – primary key identifier.
//  TheaterID – theater that owns this screen.
//  Name      – screen name, unique per theater.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  CreatedAt – creation timestamp.
//  UpdatedAt – last update timestamp.
type Screen struct {
	ID        uint64    // screens.id
	TheaterID uint64    // screens.theater_id
	Name      string    // screens.name
	SeatRows  uint32    // screens.seat_rows
	SeatCols  uint32    // screens.seat_cols
	CreatedAt time.Time // screens.created_at
	UpdatedAt time.Time // screens.updated_at
}
