package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	q "github.com/cinebook/movie-ticket-booking/internal/queue"
)

// Options tune the booking flows.  Zero values fall back to defaults:
// a five minute hold window and 10% wallet cashback.
type Options struct {
	HoldTTL         time.Duration
	CashbackPercent int64
}

// BookingService implements the seat-booking flows: holding and
// releasing seats during checkout, creating bookings with a final seat
// lock and wallet settlement, cancelling with refund, and reclaiming
// expired holds.  Every flow runs inside a single storage transaction;
// events are published only after the transaction has committed.
type BookingService struct {
	store  Store
	events EventPublisher
	opts   Options
}

// NewBookingService constructs a BookingService.  store must be
// non-nil; a nil events publisher is replaced with NopPublisher.
func NewBookingService(store Store, events EventPublisher, opts Options) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	if events == nil {
		events = NopPublisher{}
	}
	if opts.HoldTTL <= 0 {
		opts.HoldTTL = 5 * time.Minute
	}
	if opts.CashbackPercent < 0 {
		opts.CashbackPercent = 0
	} else if opts.CashbackPercent == 0 {
		opts.CashbackPercent = 10
	}
	return &BookingService{store: store, events: events, opts: opts}
}

// SeatUnavailableError reports seat labels that could not be taken:
// they are sold, held by someone else, or do not exist in the
// showtime's layout.
type SeatUnavailableError struct {
	Labels []string
}

func (e *SeatUnavailableError) Error() string {
	return "seats unavailable: " + strings.Join(e.Labels, ", ")
}

// CreateBookingInput carries everything the booking creator needs.
// PaymentStatus is only honoured for non-wallet methods, where it
// records the gateway outcome; wallet payments settle inside the
// booking transaction and ignore it.
type CreateBookingInput struct {
	UserID              uint64
	MovieID             uint64
	ScreenID            uint64
	Seats               []string
	BookingDate         string // "2006-01-02"
	ShowTime            string // "15:04"
	PaymentMethod       string
	PaymentStatus       string
	OfferCode           *string
	ConvenienceFeeCents int64
}

// CreateBooking locates or lazily creates the showtime for the
// requested screen/date/time, sells the requested seats and inserts
// the booking record, all in one transaction.  A seat is sold only
// when it is AVAILABLE or held by the purchasing user; any other state
// fails the whole booking with SeatUnavailableError.  When the payment
// method is wallet the total is debited and cashback credited before
// the transaction commits, so an insufficient balance leaves no trace.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*model.Booking, error) {
	labels := dedupeLabels(in.Seats)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no seats requested")
	}

	var booking *model.Booking
	var movieTitle string
	err := s.store.WithTx(ctx, func(tx Tx) error {
		screen, err := tx.Screen(ctx, in.ScreenID)
		if err != nil {
			return err
		}
		movie, err := tx.Movie(ctx, in.MovieID)
		if err != nil {
			return err
		}
		movieTitle = movie.Title

		showtime, err := s.resolveShowtime(ctx, tx, screen.ID, movie, in.BookingDate, in.ShowTime)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if _, err := tx.ExpireShowtimeHolds(ctx, showtime.ID, now); err != nil {
			return err
		}

		seats, err := tx.SeatsByLabels(ctx, showtime.ID, labels)
		if err != nil {
			return err
		}
		if unavailable := unsellable(labels, seats, in.UserID, now); len(unavailable) > 0 {
			return &SeatUnavailableError{Labels: unavailable}
		}

		var seatTotal int64
		for _, seat := range seats {
			seatTotal += seat.PriceCents
		}
		total := seatTotal + in.ConvenienceFeeCents

		booking = &model.Booking{
			UserID:              in.UserID,
			MovieID:             movie.ID,
			TheaterID:           screen.TheaterID,
			ScreenID:            screen.ID,
			ShowtimeID:          showtime.ID,
			OfferCode:           in.OfferCode,
			BookingDate:         in.BookingDate,
			ShowTime:            in.ShowTime,
			PaymentStatus:       initialStatus(in.PaymentMethod, in.PaymentStatus),
			PaymentMethod:       in.PaymentMethod,
			TotalPriceCents:     total,
			ConvenienceFeeCents: in.ConvenienceFeeCents,
		}
		if err := tx.InsertBooking(ctx, booking); err != nil {
			return err
		}

		bookingSeats := make([]model.BookingSeat, 0, len(seats))
		for _, seat := range seats {
			bookingSeats = append(bookingSeats, model.BookingSeat{
				BookingID:  booking.ID,
				ShowtimeID: showtime.ID,
				Label:      seat.Label,
				PriceCents: seat.PriceCents,
			})
		}
		if err := tx.InsertBookingSeats(ctx, bookingSeats); err != nil {
			return err
		}

		sold, err := tx.SellSeats(ctx, showtime.ID, labels, in.UserID, booking.ID)
		if err != nil {
			return err
		}
		if sold != int64(len(labels)) {
			// The rows were locked above, so a mismatch means another
			// transaction got there first.
			return &SeatUnavailableError{Labels: labels}
		}

		if in.PaymentMethod == model.MethodWallet {
			if err := s.settleWallet(ctx, tx, booking); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	bookingsCreated.WithLabelValues(booking.PaymentMethod).Inc()
	if booking.PaymentStatus == model.PaymentCompleted {
		ev := q.BookingConfirmedEvent{
			BookingID:       booking.ID,
			UserID:          booking.UserID,
			MovieID:         booking.MovieID,
			MovieTitle:      movieTitle,
			ScreenID:        booking.ScreenID,
			BookingDate:     booking.BookingDate,
			ShowTime:        booking.ShowTime,
			SeatLabels:      labels,
			TotalPriceCents: booking.TotalPriceCents,
			PaymentMethod:   booking.PaymentMethod,
			ConfirmedAt:     time.Now().UTC().Format(time.RFC3339),
		}
		if err := s.events.PublishBookingConfirmed(ctx, ev); err != nil {
			log.Printf("booking %d: publish confirmed event failed: %v", booking.ID, err)
		}
	}
	return booking, nil
}

// resolveShowtime finds the showtime for a screen/date/time, creating
// the schedule and showtime when absent.  A new showtime's seat grid is
// cloned from the screen's oldest existing showtime; when the screen
// has no showtime at all there is no layout to clone and the booking
// fails with ErrNoLayoutTemplate.
func (s *BookingService) resolveShowtime(ctx context.Context, tx Tx, screenID uint64, movie *model.Movie, showDate, showTime string) (*model.Showtime, error) {
	schedule, err := tx.Schedule(ctx, screenID, showDate)
	if err == ErrScheduleNotFound {
		schedule = &model.Schedule{ScreenID: screenID, ShowDate: showDate}
		if err := tx.CreateSchedule(ctx, schedule); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	showtime, err := tx.Showtime(ctx, schedule.ID, showTime)
	if err == nil {
		return showtime, nil
	}
	if err != ErrShowtimeNotFound {
		return nil, err
	}

	template, err := tx.TemplateShowtime(ctx, screenID)
	if err != nil {
		return nil, err
	}
	layout, err := tx.SeatsByShowtime(ctx, template.ID)
	if err != nil {
		return nil, err
	}
	showtime = &model.Showtime{
		ScheduleID: schedule.ID,
		MovieID:    movie.ID,
		MovieTitle: movie.Title,
		ShowTime:   showTime,
	}
	if err := tx.CreateShowtime(ctx, showtime); err != nil {
		return nil, err
	}
	if err := tx.InsertSeats(ctx, model.CloneLayout(showtime.ID, layout)); err != nil {
		return nil, err
	}
	return showtime, nil
}

// settleWallet debits the booking total from the purchaser's wallet,
// credits cashback, and moves the booking to completed.  Runs inside
// the booking transaction so a failed debit rolls back the seat sale.
func (s *BookingService) settleWallet(ctx context.Context, tx Tx, b *model.Booking) error {
	wallet, err := tx.Wallet(ctx, b.UserID)
	if err != nil {
		return err
	}
	if wallet.BalanceCents < b.TotalPriceCents {
		return ErrInsufficientFunds
	}
	balance := wallet.BalanceCents - b.TotalPriceCents
	if err := tx.UpdateWalletBalance(ctx, wallet.ID, balance); err != nil {
		return err
	}
	if err := tx.AppendWalletTransaction(ctx, &model.WalletTransaction{
		WalletID:    wallet.ID,
		BookingID:   &b.ID,
		AmountCents: b.TotalPriceCents,
		Type:        model.TxnDebit,
		Status:      model.TxnCompleted,
		Description: fmt.Sprintf("Ticket purchase for booking #%d", b.ID),
	}); err != nil {
		return err
	}

	if cashback := b.TotalPriceCents * s.opts.CashbackPercent / 100; cashback > 0 {
		balance += cashback
		if err := tx.UpdateWalletBalance(ctx, wallet.ID, balance); err != nil {
			return err
		}
		if err := tx.AppendWalletTransaction(ctx, &model.WalletTransaction{
			WalletID:    wallet.ID,
			BookingID:   &b.ID,
			AmountCents: cashback,
			Type:        model.TxnCredit,
			Status:      model.TxnCompleted,
			Description: fmt.Sprintf("Cashback on booking #%d", b.ID),
		}); err != nil {
			return err
		}
	}

	n, err := tx.UpdateBookingStatus(ctx, b.ID, model.PaymentCompleted, model.PaymentPending)
	if err != nil {
		return err
	}
	if n != 1 {
		return ErrConflict
	}
	b.PaymentStatus = model.PaymentCompleted
	return nil
}

// CancelBooking cancels a booking owned by the given user: the booked
// seats return to AVAILABLE in their showtime, the booking moves to
// cancelled, and when the booking had completed payment the full total
// is credited back to the user's wallet.  Cancelling a booking that is
// already cancelled or failed returns ErrConflict.
func (s *BookingService) CancelBooking(ctx context.Context, userID, bookingID uint64) (*model.Booking, int64, error) {
	var booking *model.Booking
	var refund int64
	var labels []string
	err := s.store.WithTx(ctx, func(tx Tx) error {
		b, err := tx.Booking(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.UserID != userID {
			return ErrForbidden
		}
		if !model.CanTransition(b.PaymentStatus, model.PaymentCancelled) {
			return ErrConflict
		}
		wasPaid := b.PaymentStatus == model.PaymentCompleted

		seats, err := tx.BookingSeats(ctx, bookingID)
		if err != nil {
			return err
		}
		restored, err := tx.RestoreSeats(ctx, b.ShowtimeID, b.ID)
		if err != nil {
			return err
		}
		if restored != int64(len(seats)) {
			return fmt.Errorf("restored %d of %d seats for booking %d", restored, len(seats), b.ID)
		}

		n, err := tx.UpdateBookingStatus(ctx, b.ID, model.PaymentCancelled, model.PaymentPending, model.PaymentCompleted)
		if err != nil {
			return err
		}
		if n != 1 {
			return ErrConflict
		}
		b.PaymentStatus = model.PaymentCancelled

		if wasPaid {
			wallet, err := tx.Wallet(ctx, userID)
			if err != nil {
				return err
			}
			if err := tx.UpdateWalletBalance(ctx, wallet.ID, wallet.BalanceCents+b.TotalPriceCents); err != nil {
				return err
			}
			if err := tx.AppendWalletTransaction(ctx, &model.WalletTransaction{
				WalletID:    wallet.ID,
				BookingID:   &b.ID,
				AmountCents: b.TotalPriceCents,
				Type:        model.TxnCredit,
				Status:      model.TxnCompleted,
				Description: fmt.Sprintf("Refund for booking #%d", b.ID),
			}); err != nil {
				return err
			}
			refund = b.TotalPriceCents
		}

		booking = b
		labels = make([]string, 0, len(seats))
		for _, seat := range seats {
			labels = append(labels, seat.Label)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}

	bookingsCancelled.Inc()
	ev := q.BookingCancelledEvent{
		BookingID:   booking.ID,
		UserID:      booking.UserID,
		SeatLabels:  labels,
		RefundCents: refund,
		CancelledAt: time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.PublishBookingCancelled(ctx, ev); err != nil {
		log.Printf("booking %d: publish cancelled event failed: %v", booking.ID, err)
	}
	return booking, refund, nil
}

// HoldResult reports the outcome of a hold request: the labels now
// held by the user and when the hold lapses.
type HoldResult struct {
	Labels    []string
	ExpiresAt time.Time
}

// HoldSeats places a temporary hold on the given seats of a showtime
// for the duration of the checkout window.  Seats already held by the
// same user are refreshed rather than rejected, so repeated hold
// requests are idempotent.  Seats sold or held by another user fail
// the whole request with SeatUnavailableError.
func (s *BookingService) HoldSeats(ctx context.Context, userID, scheduleID uint64, showTime string, seatLabels []string) (*HoldResult, error) {
	labels := dedupeLabels(seatLabels)
	if len(labels) == 0 {
		return nil, fmt.Errorf("no seats requested")
	}
	token, err := randomToken(32)
	if err != nil {
		return nil, err
	}

	var result *HoldResult
	err = s.store.WithTx(ctx, func(tx Tx) error {
		showtime, err := tx.Showtime(ctx, scheduleID, showTime)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		if _, err := tx.ExpireShowtimeHolds(ctx, showtime.ID, now); err != nil {
			return err
		}
		seats, err := tx.SeatsByLabels(ctx, showtime.ID, labels)
		if err != nil {
			return err
		}
		unavailable := make([]string, 0)
		found := make(map[string]bool, len(seats))
		for _, seat := range seats {
			found[seat.Label] = true
			if seat.Status == model.SeatSold || (seat.Status == model.SeatHeld && !seat.HeldBy(userID, now) && !seat.HoldExpired(now)) {
				unavailable = append(unavailable, seat.Label)
			}
		}
		for _, l := range labels {
			if !found[l] {
				unavailable = append(unavailable, l)
			}
		}
		if len(unavailable) > 0 {
			sort.Strings(unavailable)
			return &SeatUnavailableError{Labels: unavailable}
		}

		expiresAt := now.Add(s.opts.HoldTTL)
		held, err := tx.HoldSeats(ctx, showtime.ID, labels, userID, token, expiresAt)
		if err != nil {
			return err
		}
		if held != int64(len(labels)) {
			return &SeatUnavailableError{Labels: labels}
		}
		result = &HoldResult{Labels: labels, ExpiresAt: expiresAt}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseSeats releases the caller's holds on the given seats.  Seats
// the user does not hold are skipped, so releasing is idempotent and
// cannot disturb other users' holds or sold seats.  Returns the number
// of seats actually released.
func (s *BookingService) ReleaseSeats(ctx context.Context, userID, scheduleID uint64, showTime string, seatLabels []string) (int64, error) {
	labels := dedupeLabels(seatLabels)
	if len(labels) == 0 {
		return 0, nil
	}
	var released int64
	err := s.store.WithTx(ctx, func(tx Tx) error {
		showtime, err := tx.Showtime(ctx, scheduleID, showTime)
		if err != nil {
			return err
		}
		released, err = tx.ReleaseSeats(ctx, showtime.ID, labels, userID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

// ExpireDueHolds reclaims every hold whose expiry has passed, across
// all showtimes.  The background sweeper calls this on a fixed
// interval; the same reclaim also happens lazily inside hold and
// booking transactions.
func (s *BookingService) ExpireDueHolds(ctx context.Context) (int64, error) {
	var n int64
	err := s.store.WithTx(ctx, func(tx Tx) error {
		var err error
		n, err = tx.ExpireAllHolds(ctx, time.Now().UTC())
		return err
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		holdsExpired.Add(float64(n))
	}
	return n, nil
}

// ListBookings returns the user's bookings with movie/theater context.
func (s *BookingService) ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	return s.store.ListBookings(ctx, userID)
}

// WalletStatement returns the user's wallet and its ledger.
func (s *BookingService) WalletStatement(ctx context.Context, userID uint64) (*model.Wallet, []model.WalletTransaction, error) {
	return s.store.WalletStatement(ctx, userID)
}

// SeatMap returns the showtime and seat grid for a schedule/time pair.
func (s *BookingService) SeatMap(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, []model.ShowtimeSeat, error) {
	return s.store.ShowtimeSeatMap(ctx, scheduleID, showTime)
}

// initialStatus decides the payment status a booking starts in.  Wallet
// bookings always start pending and settle inside the transaction.
// Other methods record the gateway outcome reported by the checkout,
// restricted to known states.
func initialStatus(method, reported string) string {
	if method == model.MethodWallet {
		return model.PaymentPending
	}
	switch reported {
	case model.PaymentCompleted, model.PaymentFailed, model.PaymentPending:
		return reported
	default:
		return model.PaymentPending
	}
}

// unsellable returns the labels the user cannot buy right now, either
// because the seat row is missing or because its state forbids it.
func unsellable(labels []string, seats []model.ShowtimeSeat, userID uint64, now time.Time) []string {
	bad := make([]string, 0)
	found := make(map[string]bool, len(seats))
	for _, seat := range seats {
		found[seat.Label] = true
		if !seat.Sellable(userID, now) {
			bad = append(bad, seat.Label)
		}
	}
	for _, l := range labels {
		if !found[l] {
			bad = append(bad, l)
		}
	}
	sort.Strings(bad)
	return bad
}

// dedupeLabels normalises and deduplicates seat labels, preserving
// first-seen order.
func dedupeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.ToUpper(strings.TrimSpace(l))
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}

// randomToken generates a random hexadecimal string of n bytes (2n
// characters).  Hold tokens use it for client-side correlation.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
