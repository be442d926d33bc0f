// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names used for booking lifecycle events.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
)

// BookingConfirmedEvent is published when a booking settles with
// completed payment.  It carries enough information for downstream
// consumers to log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID       uint64   `json:"booking_id"`
	UserID          uint64   `json:"user_id"`
	MovieID         uint64   `json:"movie_id"`
	MovieTitle      string   `json:"movie_title"`
	ScreenID        uint64   `json:"screen_id"`
	BookingDate     string   `json:"booking_date"`
	ShowTime        string   `json:"show_time"`
	SeatLabels      []string `json:"seats"`
	TotalPriceCents int64    `json:"total_price_cents"`
	PaymentMethod   string   `json:"payment_method"`
	ConfirmedAt     string   `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled and
// its seats released.  RefundCents is zero when the booking had not
// been paid.
type BookingCancelledEvent struct {
	BookingID   uint64   `json:"booking_id"`
	UserID      uint64   `json:"user_id"`
	SeatLabels  []string `json:"seats"`
	RefundCents int64    `json:"refund_cents"`
	CancelledAt string   `json:"cancelled_at"`
}
