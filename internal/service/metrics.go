package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	bookingsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cinebook_bookings_created_total",
		Help: "Bookings created, by payment method.",
	}, []string{"method"})

	bookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_bookings_cancelled_total",
		Help: "Bookings cancelled.",
	})

	holdsExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cinebook_seat_holds_expired_total",
		Help: "Seat holds reclaimed after their expiry passed.",
	})
)
