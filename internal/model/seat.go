package model

import "time"

// Seat status values for a showtime seat.  The state is tagged rather
// than a boolean: a held seat carries its holder, hold token and expiry,
// and a sold seat carries the booking that bought it.
const (
	SeatAvailable = "AVAILABLE"
	SeatHeld      = "HELD"
	SeatSold      = "SOLD"
)

// ShowtimeSeat is the state of one physical seat for one showtime.
// There is exactly one row per (showtime, label) pair.  RowIdx records
// the zero-based row the seat sits in so that a showtime's grid shape
// can be reproduced when cloning a layout.
//
// Fields:
//  ID            – primary key identifier.
//  ShowtimeID    – showtime this seat instance belongs to.
//  RowIdx        – zero-based row index within the grid.
//  Label         – seat label such as "A1", unique per showtime.
//  Status        – AVAILABLE, HELD or SOLD.
//  PriceCents    – price of this seat in cents.
//  HoldUserID    – holder of the seat while Status is HELD.
//  HoldToken     – opaque token returned to the holding client.
//  HoldExpiresAt – when a HELD seat falls back to AVAILABLE.
//  BookingID     – booking that bought the seat while Status is SOLD.
//  Version       – bumped on every status change.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type ShowtimeSeat struct {
	ID            uint64     // showtime_seats.id
	ShowtimeID    uint64     // showtime_seats.showtime_id
	RowIdx        uint32     // showtime_seats.row_idx
	Label         string     // showtime_seats.label
	Status        string     // showtime_seats.status
	PriceCents    int64      // showtime_seats.price_cents
	HoldUserID    *uint64    // showtime_seats.hold_user_id (nullable)
	HoldToken     *string    // showtime_seats.hold_token (nullable)
	HoldExpiresAt *time.Time // showtime_seats.hold_expires_at (nullable)
	BookingID     *uint64    // showtime_seats.booking_id (nullable)
	Version       uint32     // showtime_seats.version
	CreatedAt     time.Time  // showtime_seats.created_at
	UpdatedAt     time.Time  // showtime_seats.updated_at
}

// HeldBy reports whether the seat is currently held by the given user
// and the hold has not yet expired at the supplied instant.
func (s *ShowtimeSeat) HeldBy(userID uint64, now time.Time) bool {
	if s.Status != SeatHeld || s.HoldUserID == nil {
		return false
	}
	if *s.HoldUserID != userID {
		return false
	}
	return s.HoldExpiresAt == nil || s.HoldExpiresAt.After(now)
}

// HoldExpired reports whether the seat is a HELD seat whose expiry has
// passed.  Expired holds are reclaimed lazily inside transactions and
// by the background sweeper.
func (s *ShowtimeSeat) HoldExpired(now time.Time) bool {
	return s.Status == SeatHeld && s.HoldExpiresAt != nil && !s.HoldExpiresAt.After(now)
}

// Sellable reports whether the given user may buy the seat right now:
// either the seat is free, or the user themselves is holding it.  A seat
// with an expired foreign hold is also sellable since the hold no longer
// protects it.
func (s *ShowtimeSeat) Sellable(userID uint64, now time.Time) bool {
	switch s.Status {
	case SeatAvailable:
		return true
	case SeatHeld:
		return s.HeldBy(userID, now) || s.HoldExpired(now)
	default:
		return false
	}
}
