// Package jobs contains background workers that run alongside the API.
package jobs

import (
	"context"
	"log"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// HoldSweeper reclaims expired seat holds on a fixed interval.  Holds
// are also expired lazily inside booking and hold transactions; the
// sweeper bounds how long an abandoned hold can keep a seat off the
// public seat map.
type HoldSweeper struct {
	svc      *service.BookingService
	interval time.Duration
	done     chan struct{}
}

// NewHoldSweeper builds a sweeper running every interval.
func NewHoldSweeper(svc *service.BookingService, interval time.Duration) *HoldSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HoldSweeper{svc: svc, interval: interval, done: make(chan struct{})}
}

// Start launches the sweep loop in its own goroutine.
func (s *HoldSweeper) Start() {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Stop terminates the sweep loop.  Safe to call once.
func (s *HoldSweeper) Stop() {
	close(s.done)
}

func (s *HoldSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	n, err := s.svc.ExpireDueHolds(ctx)
	if err != nil {
		log.Printf("hold sweeper: %v", err)
		return
	}
	if n > 0 {
		log.Printf("hold sweeper: released %d expired holds", n)
	}
}
