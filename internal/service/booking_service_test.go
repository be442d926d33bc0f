package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/queue"
	"github.com/cinebook/movie-ticket-booking/internal/service"
	"github.com/cinebook/movie-ticket-booking/internal/service/servicetest"
)

// capturePublisher records published events for assertions.
type capturePublisher struct {
	confirmed []queue.BookingConfirmedEvent
	cancelled []queue.BookingCancelledEvent
}

func (p *capturePublisher) PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error {
	p.confirmed = append(p.confirmed, ev)
	return nil
}

func (p *capturePublisher) PublishBookingCancelled(ctx context.Context, ev queue.BookingCancelledEvent) error {
	p.cancelled = append(p.cancelled, ev)
	return nil
}

type fixture struct {
	store    *servicetest.MemStore
	svc      *service.BookingService
	events   *capturePublisher
	movieID  uint64
	screenID uint64
	schedule uint64
	showtime uint64
}

const (
	showDate  = "2026-09-05"
	showStart = "18:00"
	seatPrice = int64(1200)
)

func newFixture(t *testing.T, opts service.Options) *fixture {
	t.Helper()
	store := servicetest.NewMemStore()
	movieID := store.AddMovie("Interstellar", 169)
	theaterID := store.AddTheater("CineBook Central", "12 Harbor Street")
	screenID := store.AddScreen(theaterID, "Screen 1", 3, 4)
	scheduleID, showtimeID := store.AddShowtime(screenID, showDate, showStart, movieID, seatPrice)
	events := &capturePublisher{}
	return &fixture{
		store:    store,
		svc:      service.NewBookingService(store, events, opts),
		events:   events,
		movieID:  movieID,
		screenID: screenID,
		schedule: scheduleID,
		showtime: showtimeID,
	}
}

func (f *fixture) createInput(userID uint64, seats ...string) service.CreateBookingInput {
	return service.CreateBookingInput{
		UserID:              userID,
		MovieID:             f.movieID,
		ScreenID:            f.screenID,
		Seats:               seats,
		BookingDate:         showDate,
		ShowTime:            showStart,
		PaymentMethod:       model.MethodWallet,
		ConvenienceFeeCents: 100,
	}
}

func TestCreateBookingWalletHappyPath(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)

	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1", "A2"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, booking.PaymentStatus)
	assert.Equal(t, int64(2*seatPrice+100), booking.TotalPriceCents)

	for _, label := range []string{"A1", "A2"} {
		seat, ok := f.store.Seat(f.showtime, label)
		require.True(t, ok)
		assert.Equal(t, model.SeatSold, seat.Status)
		require.NotNil(t, seat.BookingID)
		assert.Equal(t, booking.ID, *seat.BookingID)
	}

	// debit of the total, then 10% cashback credit
	wallet, _, err := f.store.WalletStatement(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(50_000-2500+250), wallet.BalanceCents)
	txns := f.store.Transactions(1)
	require.Len(t, txns, 2)
	assert.Equal(t, model.TxnDebit, txns[0].Type)
	assert.Equal(t, int64(2500), txns[0].AmountCents)
	assert.Equal(t, model.TxnCredit, txns[1].Type)
	assert.Equal(t, int64(250), txns[1].AmountCents)
	require.NotNil(t, txns[0].BookingID)
	assert.Equal(t, booking.ID, *txns[0].BookingID)

	require.Len(t, f.events.confirmed, 1)
	assert.Equal(t, booking.ID, f.events.confirmed[0].BookingID)
	assert.ElementsMatch(t, []string{"A1", "A2"}, f.events.confirmed[0].SeatLabels)
}

func TestCreateBookingRejectsTakenSeats(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)
	f.store.SetWalletBalance(2, 50_000)

	_, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "B1", "B2"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(context.Background(), f.createInput(2, "B2", "B3"))
	var unavailable *service.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"B2"}, unavailable.Labels)

	// the whole request failed, so B3 was not sold either
	seat, ok := f.store.Seat(f.showtime, "B3")
	require.True(t, ok)
	assert.Equal(t, model.SeatAvailable, seat.Status)
}

func TestCreateBookingUnknownSeatLabel(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)

	_, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "Z99"))
	var unavailable *service.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"Z99"}, unavailable.Labels)
}

func TestCreateBookingInsufficientFundsLeavesNoTrace(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 200)

	_, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1"))
	require.ErrorIs(t, err, service.ErrInsufficientFunds)

	seat, ok := f.store.Seat(f.showtime, "A1")
	require.True(t, ok)
	assert.Equal(t, model.SeatAvailable, seat.Status)
	assert.Nil(t, seat.BookingID)

	wallet, _, err := f.store.WalletStatement(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(200), wallet.BalanceCents)
	assert.Empty(t, f.store.Transactions(1))
	assert.Empty(t, f.events.confirmed)
}

func TestCreateBookingCardRecordsGatewayOutcome(t *testing.T) {
	f := newFixture(t, service.Options{})

	in := f.createInput(1, "C1")
	in.PaymentMethod = model.MethodCard
	in.PaymentStatus = model.PaymentCompleted
	booking, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, booking.PaymentStatus)
	assert.Empty(t, f.store.Transactions(1), "card bookings never touch the wallet")
	require.Len(t, f.events.confirmed, 1)

	in = f.createInput(1, "C2")
	in.PaymentMethod = model.MethodCard
	in.PaymentStatus = "garbage"
	booking, err = f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentPending, booking.PaymentStatus)
	assert.Len(t, f.events.confirmed, 1, "pending bookings are not announced")
}

func TestHoldBlocksOtherUsersAndRefreshes(t *testing.T) {
	f := newFixture(t, service.Options{HoldTTL: time.Minute})
	f.store.SetWalletBalance(2, 50_000)

	res, err := f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"A1", "A2"}, res.Labels)
	firstExpiry := res.ExpiresAt

	// another user can neither hold nor buy the held seats
	_, err = f.svc.HoldSeats(context.Background(), 2, f.schedule, showStart, []string{"A2"})
	var unavailable *service.SeatUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, []string{"A2"}, unavailable.Labels)

	_, err = f.svc.CreateBooking(context.Background(), f.createInput(2, "A1"))
	require.ErrorAs(t, err, &unavailable)

	// re-holding refreshes the window for the holder
	time.Sleep(2 * time.Millisecond)
	res, err = f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1", "A2"})
	require.NoError(t, err)
	assert.False(t, res.ExpiresAt.Before(firstExpiry))

	// the holder can buy their held seats
	f.store.SetWalletBalance(1, 50_000)
	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1", "A2"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, booking.PaymentStatus)
}

func TestReleaseSeatsOnlyOwnHolds(t *testing.T) {
	f := newFixture(t, service.Options{HoldTTL: time.Minute})

	_, err := f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1"})
	require.NoError(t, err)

	released, err := f.svc.ReleaseSeats(context.Background(), 2, f.schedule, showStart, []string{"A1"})
	require.NoError(t, err)
	assert.Zero(t, released)
	seat, _ := f.store.Seat(f.showtime, "A1")
	assert.Equal(t, model.SeatHeld, seat.Status)

	released, err = f.svc.ReleaseSeats(context.Background(), 1, f.schedule, showStart, []string{"A1"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	seat, _ = f.store.Seat(f.showtime, "A1")
	assert.Equal(t, model.SeatAvailable, seat.Status)
}

func TestExpiredHoldIsReclaimed(t *testing.T) {
	f := newFixture(t, service.Options{HoldTTL: time.Millisecond})
	f.store.SetWalletBalance(2, 50_000)

	_, err := f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	// lazily: another user can buy straight through the expired hold
	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(2, "A1"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, booking.PaymentStatus)
}

func TestSweeperReleasesExpiredHolds(t *testing.T) {
	f := newFixture(t, service.Options{HoldTTL: time.Millisecond})

	_, err := f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1", "B1"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)

	n, err := f.svc.ExpireDueHolds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	for _, label := range []string{"A1", "B1"} {
		seat, _ := f.store.Seat(f.showtime, label)
		assert.Equal(t, model.SeatAvailable, seat.Status)
	}
}

func TestCancelBookingRefundsAndRestoresSeats(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 10_000)

	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1", "A2"))
	require.NoError(t, err)
	total := booking.TotalPriceCents

	cancelled, refund, err := f.svc.CancelBooking(context.Background(), 1, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCancelled, cancelled.PaymentStatus)
	assert.Equal(t, total, refund, "refund is the full total, cashback is kept")

	for _, label := range []string{"A1", "A2"} {
		seat, _ := f.store.Seat(f.showtime, label)
		assert.Equal(t, model.SeatAvailable, seat.Status)
		assert.Nil(t, seat.BookingID)
	}

	// balance: -total, +10% cashback, +total refund
	wallet, _, err := f.store.WalletStatement(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 10_000+total/10, wallet.BalanceCents)

	require.Len(t, f.events.cancelled, 1)
	assert.Equal(t, booking.ID, f.events.cancelled[0].BookingID)
	assert.Equal(t, total, f.events.cancelled[0].RefundCents)
}

func TestCancelBookingGuards(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 10_000)

	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1"))
	require.NoError(t, err)

	_, _, err = f.svc.CancelBooking(context.Background(), 2, booking.ID)
	require.ErrorIs(t, err, service.ErrForbidden)

	_, _, err = f.svc.CancelBooking(context.Background(), 1, booking.ID)
	require.NoError(t, err)

	_, _, err = f.svc.CancelBooking(context.Background(), 1, booking.ID)
	require.ErrorIs(t, err, service.ErrConflict, "cancelling twice must fail")

	_, _, err = f.svc.CancelBooking(context.Background(), 1, 9999)
	require.ErrorIs(t, err, service.ErrBookingNotFound)
}

func TestCancelPendingBookingRefundsNothing(t *testing.T) {
	f := newFixture(t, service.Options{})

	in := f.createInput(1, "A1")
	in.PaymentMethod = model.MethodCard
	booking, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, model.PaymentPending, booking.PaymentStatus)

	_, refund, err := f.svc.CancelBooking(context.Background(), 1, booking.ID)
	require.NoError(t, err)
	assert.Zero(t, refund)
	assert.Empty(t, f.store.Transactions(1))
}

func TestCreateBookingMaterialisesShowtimeFromTemplate(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)

	in := f.createInput(1, "A1")
	in.ShowTime = "21:30"
	booking, err := f.svc.CreateBooking(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, f.showtime, booking.ShowtimeID, "a new showtime is created for the new time")

	// both showtimes now sell A1 independently
	seat, ok := f.store.Seat(booking.ShowtimeID, "A1")
	require.True(t, ok)
	assert.Equal(t, model.SeatSold, seat.Status)
	seat, _ = f.store.Seat(f.showtime, "A1")
	assert.Equal(t, model.SeatAvailable, seat.Status)
}

func TestCreateBookingWithoutLayoutTemplate(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)
	bare := f.store.AddScreen(f.store.AddTheater("Annex", ""), "Bare", 2, 2)

	in := f.createInput(1, "A1")
	in.ScreenID = bare
	_, err := f.svc.CreateBooking(context.Background(), in)
	require.ErrorIs(t, err, service.ErrNoLayoutTemplate)
}

func TestListBookingsIncludesSeats(t *testing.T) {
	f := newFixture(t, service.Options{})
	f.store.SetWalletBalance(1, 50_000)

	booking, err := f.svc.CreateBooking(context.Background(), f.createInput(1, "A1", "B2"))
	require.NoError(t, err)

	list, err := f.svc.ListBookings(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, booking.ID, list[0].ID)
	assert.Equal(t, "Interstellar", list[0].MovieTitle)
	assert.Equal(t, "CineBook Central", list[0].TheaterName)
	assert.ElementsMatch(t, []string{"A1", "B2"}, list[0].Seats)

	other, err := f.svc.ListBookings(context.Background(), 2)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSeatMapReportsExpiredHoldsAsAvailable(t *testing.T) {
	f := newFixture(t, service.Options{HoldTTL: time.Minute})

	_, err := f.svc.HoldSeats(context.Background(), 1, f.schedule, showStart, []string{"A1"})
	require.NoError(t, err)

	showtime, seats, err := f.svc.SeatMap(context.Background(), f.schedule, showStart)
	require.NoError(t, err)
	assert.Equal(t, f.showtime, showtime.ID)
	require.Len(t, seats, 12)

	byLabel := map[string]model.ShowtimeSeat{}
	for _, s := range seats {
		byLabel[s.Label] = s
	}
	assert.Equal(t, model.SeatHeld, byLabel["A1"].Status)
	assert.Equal(t, model.SeatAvailable, byLabel["A2"].Status)
}
