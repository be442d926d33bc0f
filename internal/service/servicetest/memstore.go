// Package servicetest provides an in-memory implementation of the
// booking service's storage port for tests, mirroring the transactional
// semantics of the SQL store: a failed transaction leaves no trace.
package servicetest

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/cinebook/movie-ticket-booking/internal/model"
	"github.com/cinebook/movie-ticket-booking/internal/service"
)

// MemStore is a transactional fake of service.Store.  WithTx runs the
// callback against a deep copy of the state and swaps the copy in only
// on success, so rollbacks behave like the real database.
type MemStore struct {
	mu sync.Mutex
	st *state
}

type state struct {
	nextID uint64

	movies    map[uint64]model.Movie
	theaters  map[uint64]model.Theater
	screens   map[uint64]model.Screen
	schedules map[uint64]model.Schedule
	showtimes map[uint64]model.Showtime
	seats     map[uint64]model.ShowtimeSeat

	bookings     map[uint64]model.Booking
	bookingSeats []model.BookingSeat

	wallets map[uint64]model.Wallet // keyed by user id
	txns    []model.WalletTransaction
}

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	return &MemStore{st: &state{
		movies:    map[uint64]model.Movie{},
		theaters:  map[uint64]model.Theater{},
		screens:   map[uint64]model.Screen{},
		schedules: map[uint64]model.Schedule{},
		showtimes: map[uint64]model.Showtime{},
		seats:     map[uint64]model.ShowtimeSeat{},
		bookings:  map[uint64]model.Booking{},
		wallets:   map[uint64]model.Wallet{},
	}}
}

func (s *state) clone() *state {
	c := &state{
		nextID:       s.nextID,
		movies:       map[uint64]model.Movie{},
		theaters:     map[uint64]model.Theater{},
		screens:      map[uint64]model.Screen{},
		schedules:    map[uint64]model.Schedule{},
		showtimes:    map[uint64]model.Showtime{},
		seats:        map[uint64]model.ShowtimeSeat{},
		bookings:     map[uint64]model.Booking{},
		bookingSeats: append([]model.BookingSeat(nil), s.bookingSeats...),
		wallets:      map[uint64]model.Wallet{},
		txns:         append([]model.WalletTransaction(nil), s.txns...),
	}
	for k, v := range s.movies {
		c.movies[k] = v
	}
	for k, v := range s.theaters {
		c.theaters[k] = v
	}
	for k, v := range s.screens {
		c.screens[k] = v
	}
	for k, v := range s.schedules {
		c.schedules[k] = v
	}
	for k, v := range s.showtimes {
		c.showtimes[k] = v
	}
	for k, v := range s.seats {
		if v.HoldUserID != nil {
			u := *v.HoldUserID
			v.HoldUserID = &u
		}
		if v.HoldToken != nil {
			t := *v.HoldToken
			v.HoldToken = &t
		}
		if v.HoldExpiresAt != nil {
			e := *v.HoldExpiresAt
			v.HoldExpiresAt = &e
		}
		if v.BookingID != nil {
			b := *v.BookingID
			v.BookingID = &b
		}
		c.seats[k] = v
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.wallets {
		c.wallets[k] = v
	}
	return c
}

func (s *state) id() uint64 {
	s.nextID++
	return s.nextID
}

// WithTx implements service.Store.
func (m *MemStore) WithTx(ctx context.Context, fn func(tx service.Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := m.st.clone()
	if err := fn(&memTx{st: next}); err != nil {
		return err
	}
	m.st = next
	return nil
}

// ListBookings implements service.Store.
func (m *MemStore) ListBookings(ctx context.Context, userID uint64) ([]model.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st
	details := []model.BookingDetail{}
	for _, b := range st.bookings {
		if b.UserID != userID {
			continue
		}
		d := model.BookingDetail{
			ID:                  b.ID,
			MovieID:             b.MovieID,
			MovieTitle:          st.movies[b.MovieID].Title,
			TheaterID:           b.TheaterID,
			TheaterName:         st.theaters[b.TheaterID].Name,
			ScreenID:            b.ScreenID,
			ScreenName:          st.screens[b.ScreenID].Name,
			BookingDate:         b.BookingDate,
			ShowTime:            b.ShowTime,
			PaymentStatus:       b.PaymentStatus,
			PaymentMethod:       b.PaymentMethod,
			TotalPriceCents:     b.TotalPriceCents,
			ConvenienceFeeCents: b.ConvenienceFeeCents,
			CreatedAt:           b.CreatedAt.UTC().Format(time.RFC3339),
		}
		for _, bs := range st.bookingSeats {
			if bs.BookingID == b.ID {
				d.Seats = append(d.Seats, bs.Label)
			}
		}
		details = append(details, d)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ID > details[j].ID })
	return details, nil
}

// WalletStatement implements service.Store.
func (m *MemStore) WalletStatement(ctx context.Context, userID uint64) (*model.Wallet, []model.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.st.wallets[userID]
	if !ok {
		return nil, nil, service.ErrWalletNotFound
	}
	var entries []model.WalletTransaction
	for _, t := range m.st.txns {
		if t.WalletID == w.ID {
			entries = append(entries, t)
		}
	}
	// newest first, matching the SQL statement query
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return &w, entries, nil
}

// ShowtimeSeatMap implements service.Store.
func (m *MemStore) ShowtimeSeatMap(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, []model.ShowtimeSeat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &memTx{st: m.st}
	st, err := tx.Showtime(ctx, scheduleID, showTime)
	if err != nil {
		return nil, nil, err
	}
	seats, err := tx.SeatsByShowtime(ctx, st.ID)
	if err != nil {
		return nil, nil, err
	}
	return st, seats, nil
}

// Seeding helpers, usable without a transaction.

// AddMovie inserts a movie and returns its id.
func (m *MemStore) AddMovie(title string, durationMin uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.st.id()
	m.st.movies[id] = model.Movie{ID: id, Title: title, DurationMin: durationMin}
	return id
}

// AddTheater inserts a theater and returns its id.
func (m *MemStore) AddTheater(name, location string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.st.id()
	m.st.theaters[id] = model.Theater{ID: id, Name: name, Location: location}
	return id
}

// AddScreen inserts a screen and returns its id.
func (m *MemStore) AddScreen(theaterID uint64, name string, rows, cols uint32) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.st.id()
	m.st.screens[id] = model.Screen{ID: id, TheaterID: theaterID, Name: name, SeatRows: rows, SeatCols: cols}
	return id
}

// AddShowtime creates a schedule (unless one exists for the screen and
// date), a showtime at the given time and a full seat grid priced
// uniformly.  It returns the schedule and showtime ids.
func (m *MemStore) AddShowtime(screenID uint64, showDate, showTime string, movieID uint64, priceCents int64) (scheduleID, showtimeID uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := m.st
	for _, sch := range st.schedules {
		if sch.ScreenID == screenID && sch.ShowDate == showDate {
			scheduleID = sch.ID
			break
		}
	}
	if scheduleID == 0 {
		scheduleID = st.id()
		st.schedules[scheduleID] = model.Schedule{ID: scheduleID, ScreenID: screenID, ShowDate: showDate}
	}
	showtimeID = st.id()
	st.showtimes[showtimeID] = model.Showtime{
		ID:         showtimeID,
		ScheduleID: scheduleID,
		MovieID:    movieID,
		MovieTitle: st.movies[movieID].Title,
		ShowTime:   showTime,
	}
	screen := st.screens[screenID]
	for _, seat := range model.BuildLayout(showtimeID, screen.SeatRows, screen.SeatCols, priceCents) {
		seat.ID = st.id()
		st.seats[seat.ID] = seat
	}
	return scheduleID, showtimeID
}

// SetWalletBalance creates or overwrites the user's wallet balance.
func (m *MemStore) SetWalletBalance(userID uint64, cents int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.st.wallets[userID]
	if !ok {
		w = model.Wallet{ID: m.st.id(), UserID: userID}
	}
	w.BalanceCents = cents
	m.st.wallets[userID] = w
}

// Seat returns a copy of the named seat's current state.
func (m *MemStore) Seat(showtimeID uint64, label string) (model.ShowtimeSeat, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, seat := range m.st.seats {
		if seat.ShowtimeID == showtimeID && seat.Label == label {
			return seat, true
		}
	}
	return model.ShowtimeSeat{}, false
}

// Booking returns a copy of the booking's current state.
func (m *MemStore) Booking(id uint64) (model.Booking, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.st.bookings[id]
	return b, ok
}

// Transactions returns the wallet ledger entries of a user, oldest
// first.
func (m *MemStore) Transactions(userID uint64) []model.WalletTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.st.wallets[userID]
	if !ok {
		return nil
	}
	var out []model.WalletTransaction
	for _, t := range m.st.txns {
		if t.WalletID == w.ID {
			out = append(out, t)
		}
	}
	return out
}

// memTx applies operations directly to a cloned state.
type memTx struct {
	st *state
}

func (t *memTx) Screen(ctx context.Context, id uint64) (*model.Screen, error) {
	s, ok := t.st.screens[id]
	if !ok {
		return nil, service.ErrScreenNotFound
	}
	return &s, nil
}

func (t *memTx) Movie(ctx context.Context, id uint64) (*model.Movie, error) {
	m, ok := t.st.movies[id]
	if !ok {
		return nil, service.ErrMovieNotFound
	}
	return &m, nil
}

func (t *memTx) Schedule(ctx context.Context, screenID uint64, showDate string) (*model.Schedule, error) {
	for _, sch := range t.st.schedules {
		if sch.ScreenID == screenID && sch.ShowDate == showDate {
			return &sch, nil
		}
	}
	return nil, service.ErrScheduleNotFound
}

func (t *memTx) CreateSchedule(ctx context.Context, s *model.Schedule) error {
	s.ID = t.st.id()
	t.st.schedules[s.ID] = *s
	return nil
}

func (t *memTx) Showtime(ctx context.Context, scheduleID uint64, showTime string) (*model.Showtime, error) {
	for _, st := range t.st.showtimes {
		if st.ScheduleID == scheduleID && st.ShowTime == showTime {
			return &st, nil
		}
	}
	return nil, service.ErrShowtimeNotFound
}

func (t *memTx) CreateShowtime(ctx context.Context, st *model.Showtime) error {
	st.ID = t.st.id()
	t.st.showtimes[st.ID] = *st
	return nil
}

func (t *memTx) TemplateShowtime(ctx context.Context, screenID uint64) (*model.Showtime, error) {
	var best *model.Showtime
	for id := range t.st.showtimes {
		st := t.st.showtimes[id]
		sch, ok := t.st.schedules[st.ScheduleID]
		if !ok || sch.ScreenID != screenID {
			continue
		}
		if best == nil || st.ID < best.ID {
			cp := st
			best = &cp
		}
	}
	if best == nil {
		return nil, service.ErrNoLayoutTemplate
	}
	return best, nil
}

func (t *memTx) SeatsByShowtime(ctx context.Context, showtimeID uint64) ([]model.ShowtimeSeat, error) {
	var out []model.ShowtimeSeat
	for _, seat := range t.st.seats {
		if seat.ShowtimeID == showtimeID {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RowIdx != out[j].RowIdx {
			return out[i].RowIdx < out[j].RowIdx
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (t *memTx) SeatsByLabels(ctx context.Context, showtimeID uint64, labels []string) ([]model.ShowtimeSeat, error) {
	want := map[string]bool{}
	for _, l := range labels {
		want[l] = true
	}
	all, _ := t.SeatsByShowtime(ctx, showtimeID)
	var out []model.ShowtimeSeat
	for _, seat := range all {
		if want[seat.Label] {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (t *memTx) InsertSeats(ctx context.Context, seats []model.ShowtimeSeat) error {
	for _, seat := range seats {
		seat.ID = t.st.id()
		t.st.seats[seat.ID] = seat
	}
	return nil
}

func (t *memTx) HoldSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64, token string, expiresAt time.Time) (int64, error) {
	now := time.Now().UTC()
	var n int64
	t.eachSeat(showtimeID, labels, func(seat *model.ShowtimeSeat) {
		ok := seat.Status == model.SeatAvailable ||
			(seat.Status == model.SeatHeld && (seat.HeldBy(userID, now) || seat.HoldExpired(now)))
		if !ok {
			return
		}
		seat.Status = model.SeatHeld
		seat.HoldUserID = &userID
		tok := token
		seat.HoldToken = &tok
		exp := expiresAt
		seat.HoldExpiresAt = &exp
		seat.Version++
		n++
	})
	return n, nil
}

func (t *memTx) ReleaseSeats(ctx context.Context, showtimeID uint64, labels []string, userID uint64) (int64, error) {
	now := time.Now().UTC()
	var n int64
	t.eachSeat(showtimeID, labels, func(seat *model.ShowtimeSeat) {
		if !seat.HeldBy(userID, now) {
			return
		}
		clearHold(seat)
		seat.Status = model.SeatAvailable
		seat.Version++
		n++
	})
	return n, nil
}

func (t *memTx) SellSeats(ctx context.Context, showtimeID uint64, labels []string, userID, bookingID uint64) (int64, error) {
	now := time.Now().UTC()
	var n int64
	t.eachSeat(showtimeID, labels, func(seat *model.ShowtimeSeat) {
		if !seat.Sellable(userID, now) {
			return
		}
		clearHold(seat)
		seat.Status = model.SeatSold
		id := bookingID
		seat.BookingID = &id
		seat.Version++
		n++
	})
	return n, nil
}

func (t *memTx) RestoreSeats(ctx context.Context, showtimeID, bookingID uint64) (int64, error) {
	var n int64
	for id := range t.st.seats {
		seat := t.st.seats[id]
		if seat.ShowtimeID != showtimeID || seat.Status != model.SeatSold {
			continue
		}
		if seat.BookingID == nil || *seat.BookingID != bookingID {
			continue
		}
		seat.Status = model.SeatAvailable
		seat.BookingID = nil
		seat.Version++
		t.st.seats[id] = seat
		n++
	}
	return n, nil
}

func (t *memTx) ExpireShowtimeHolds(ctx context.Context, showtimeID uint64, now time.Time) (int64, error) {
	return t.expire(&showtimeID, now), nil
}

func (t *memTx) ExpireAllHolds(ctx context.Context, now time.Time) (int64, error) {
	return t.expire(nil, now), nil
}

func (t *memTx) expire(showtimeID *uint64, now time.Time) int64 {
	var n int64
	for id := range t.st.seats {
		seat := t.st.seats[id]
		if showtimeID != nil && seat.ShowtimeID != *showtimeID {
			continue
		}
		if !seat.HoldExpired(now) {
			continue
		}
		clearHold(&seat)
		seat.Status = model.SeatAvailable
		seat.Version++
		t.st.seats[id] = seat
		n++
	}
	return n
}

func (t *memTx) InsertBooking(ctx context.Context, b *model.Booking) error {
	b.ID = t.st.id()
	b.CreatedAt = time.Now().UTC()
	t.st.bookings[b.ID] = *b
	return nil
}

func (t *memTx) InsertBookingSeats(ctx context.Context, seats []model.BookingSeat) error {
	for _, seat := range seats {
		seat.ID = t.st.id()
		t.st.bookingSeats = append(t.st.bookingSeats, seat)
	}
	return nil
}

func (t *memTx) Booking(ctx context.Context, id uint64) (*model.Booking, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return nil, service.ErrBookingNotFound
	}
	return &b, nil
}

func (t *memTx) BookingSeats(ctx context.Context, bookingID uint64) ([]model.BookingSeat, error) {
	var out []model.BookingSeat
	for _, seat := range t.st.bookingSeats {
		if seat.BookingID == bookingID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, id uint64, to string, from ...string) (int64, error) {
	b, ok := t.st.bookings[id]
	if !ok {
		return 0, nil
	}
	allowed := len(from) == 0
	for _, f := range from {
		if b.PaymentStatus == f {
			allowed = true
		}
	}
	if !allowed {
		return 0, nil
	}
	b.PaymentStatus = to
	t.st.bookings[id] = b
	return 1, nil
}

func (t *memTx) Wallet(ctx context.Context, userID uint64) (*model.Wallet, error) {
	w, ok := t.st.wallets[userID]
	if !ok {
		w = model.Wallet{ID: t.st.id(), UserID: userID}
		t.st.wallets[userID] = w
	}
	return &w, nil
}

func (t *memTx) UpdateWalletBalance(ctx context.Context, walletID uint64, balanceCents int64) error {
	for userID, w := range t.st.wallets {
		if w.ID == walletID {
			w.BalanceCents = balanceCents
			t.st.wallets[userID] = w
			return nil
		}
	}
	return service.ErrWalletNotFound
}

func (t *memTx) AppendWalletTransaction(ctx context.Context, wt *model.WalletTransaction) error {
	if wt.ID == "" {
		wt.ID = "txn-" + strconv.FormatUint(t.st.id(), 10)
	}
	wt.CreatedAt = time.Now().UTC()
	t.st.txns = append(t.st.txns, *wt)
	return nil
}

func (t *memTx) eachSeat(showtimeID uint64, labels []string, fn func(*model.ShowtimeSeat)) {
	want := map[string]bool{}
	for _, l := range labels {
		want[l] = true
	}
	for id := range t.st.seats {
		seat := t.st.seats[id]
		if seat.ShowtimeID != showtimeID || !want[seat.Label] {
			continue
		}
		fn(&seat)
		t.st.seats[id] = seat
	}
}

func clearHold(seat *model.ShowtimeSeat) {
	seat.HoldUserID = nil
	seat.HoldToken = nil
	seat.HoldExpiresAt = nil
}

var _ service.Store = (*MemStore)(nil)
var _ service.Tx = (*memTx)(nil)
