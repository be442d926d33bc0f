package model

import "time"

// Payment status values for a booking.  pending is the only
// non-terminal state apart from the completed->cancelled refund path.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentCancelled = "cancelled"
	PaymentFailed    = "failed"
)

// Payment methods recognised by the booking flow.  Wallet payments
// settle synchronously inside the booking transaction; any other
// method records the gateway outcome reported at creation time.
const (
	MethodWallet = "wallet"
	MethodCard   = "card"
)

// CanTransition reports whether a booking's payment status may move
// from one state to another.  pending may settle, fail or cancel;
// completed may only cancel (the refund path).  cancelled and failed
// are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case PaymentPending:
		return to == PaymentCompleted || to == PaymentCancelled || to == PaymentFailed
	case PaymentCompleted:
		return to == PaymentCancelled
	default:
		return false
	}
}

// Booking records a user's purchase of one or more seats for a
// showtime.  The seat labels bought under the booking live in
// booking_seats; the showtime's seat rows reference the booking back
// via their booking_id while SOLD.
//
// Fields:
//  ID                  – primary key identifier.
//  UserID              – purchasing user.
//  MovieID             – movie booked.
//  TheaterID           – theater of the screen (denormalised from screen).
//  ScreenID            – screen of the showtime.
//  ShowtimeID          – showtime the seats belong to.
//  OfferCode           – optional promotional code passed through at checkout.
//  BookingDate         – calendar date of the show ("2006-01-02").
//  ShowTime            – start time of day ("15:04").
//  PaymentStatus       – pending, completed, cancelled or failed.
//  PaymentMethod       – wallet, card, ...
//  TotalPriceCents     – sum of seat prices plus convenience fee.
//  ConvenienceFeeCents – fee charged on top of the seat prices.
//  CreatedAt           – creation timestamp.
//  UpdatedAt           – last update timestamp.
type Booking struct {
	ID                  uint64    // bookings.id
	UserID              uint64    // bookings.user_id
	MovieID             uint64    // bookings.movie_id
	TheaterID           uint64    // bookings.theater_id
	ScreenID            uint64    // bookings.screen_id
	ShowtimeID          uint64    // bookings.showtime_id
	OfferCode           *string   // bookings.offer_code (nullable)
	BookingDate         string    // bookings.booking_date ("YYYY-MM-DD")
	ShowTime            string    // bookings.show_time ("HH:MM")
	PaymentStatus       string    // bookings.payment_status
	PaymentMethod       string    // bookings.payment_method
	TotalPriceCents     int64     // bookings.total_price_cents
	ConvenienceFeeCents int64     // bookings.convenience_fee_cents
	CreatedAt           time.Time // bookings.created_at
	UpdatedAt           time.Time // bookings.updated_at
}

// BookingSeat pins one purchased seat label to a booking.  The labels
// recorded here are exactly the seats restored on cancellation.
type BookingSeat struct {
	ID         uint64    // booking_seats.id
	BookingID  uint64    // booking_seats.booking_id
	ShowtimeID uint64    // booking_seats.showtime_id
	Label      string    // booking_seats.label
	PriceCents int64     // booking_seats.price_cents
	CreatedAt  time.Time // booking_seats.created_at
}

// BookingDetail is a booking joined with its movie and theater context
// for customer-facing listings.
type BookingDetail struct {
	ID                  uint64   `json:"id"`
	MovieID             uint64   `json:"movie_id"`
	MovieTitle          string   `json:"movie_title"`
	TheaterID           uint64   `json:"theater_id"`
	TheaterName         string   `json:"theater_name"`
	ScreenID            uint64   `json:"screen_id"`
	ScreenName          string   `json:"screen_name"`
	BookingDate         string   `json:"booking_date"`
	ShowTime            string   `json:"show_time"`
	Seats               []string `json:"seats"`
	PaymentStatus       string   `json:"payment_status"`
	PaymentMethod       string   `json:"payment_method"`
	TotalPriceCents     int64    `json:"total_price_cents"`
	ConvenienceFeeCents int64    `json:"convenience_fee_cents"`
	CreatedAt           string   `json:"created_at"`
}
