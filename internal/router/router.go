// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/cinebook/movie-ticket-booking/internal/config"
	"github.com/cinebook/movie-ticket-booking/internal/handler"
	"github.com/cinebook/movie-ticket-booking/internal/middleware"
)

// Handlers bundles the HTTP handlers registered on the API.
type Handlers struct {
	Booking *handler.BookingHandler
	Seats   *handler.SeatHandler
	Wallet  *handler.WalletHandler
}

// Register wires every route of the API onto the Echo instance.
//
// Public surface: the health probe, Prometheus metrics and the seat
// map (cached in Redis with a short TTL).  Everything that mutates
// state or exposes per-user data lives under /v1 behind JWT auth and
// the CUSTOMER role.  The rate limiter covers the whole API.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.Use(middleware.Metrics())
	e.Use(middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	e.GET("/v1/schedules/:id/seats", h.Seats.SeatMap, cache)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret), middleware.RequireRole("CUSTOMER"))
	auth.POST("/bookings", h.Booking.Create)
	auth.GET("/bookings", h.Booking.List)
	auth.POST("/bookings/:id/cancel", h.Booking.Cancel)
	auth.POST("/schedules/:id/seats", h.Seats.UpdateSeats)
	auth.GET("/wallet", h.Wallet.Statement)
}
