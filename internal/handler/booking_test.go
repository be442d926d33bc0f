package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cinebook/movie-ticket-booking/internal/handler"
	"github.com/cinebook/movie-ticket-booking/internal/router"
	"github.com/cinebook/movie-ticket-booking/internal/service"
	"github.com/cinebook/movie-ticket-booking/internal/service/servicetest"
	"github.com/cinebook/movie-ticket-booking/internal/utils"
)

const testSecret = "test-secret"

type api struct {
	e     *echo.Echo
	store *servicetest.MemStore

	scheduleID uint64
	showtimeID uint64
	movieID    uint64
	screenID   uint64
}

// newAPI wires the full router over the in-memory store, with no Redis
// so rate limiting and caching are disabled.
func newAPI(t *testing.T) *api {
	t.Helper()
	store := servicetest.NewMemStore()
	movieID := store.AddMovie("Spirited Away", 125)
	theaterID := store.AddTheater("CineBook Central", "12 Harbor Street")
	screenID := store.AddScreen(theaterID, "Screen 1", 2, 4)
	scheduleID, showtimeID := store.AddShowtime(screenID, "2026-09-05", "18:00", movieID, 1500)

	svc := service.NewBookingService(store, service.NopPublisher{}, service.Options{})
	e := echo.New()
	router.Register(e, router.Handlers{
		Booking: handler.NewBookingHandler(svc),
		Seats:   handler.NewSeatHandler(svc),
		Wallet:  handler.NewWalletHandler(svc),
	}, testSecret, nil)

	return &api{e: e, store: store, scheduleID: scheduleID, showtimeID: showtimeID, movieID: movieID, screenID: screenID}
}

func (a *api) request(t *testing.T, method, path, body string, userID uint64) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if userID != 0 {
		tok, err := utils.NewAccessToken(testSecret, userID, "CUSTOMER", time.Minute)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (a *api) createBody(seats ...string) string {
	b, _ := json.Marshal(map[string]any{
		"movie_id":              a.movieID,
		"screen_id":             a.screenID,
		"seats":                 seats,
		"booking_date":          "2026-09-05",
		"show_time":             "18:00",
		"payment_method":        "wallet",
		"convenience_fee_cents": 50,
	})
	return string(b)
}

func TestCreateBookingEndpoint(t *testing.T) {
	a := newAPI(t)
	a.store.SetWalletBalance(1, 100_000)

	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1", "A2"), 1)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "completed", body["payment_status"])
	assert.EqualValues(t, 2*1500+50, body["total_price_cents"])
	assert.ElementsMatch(t, []any{"A1", "A2"}, body["seats"])
}

func TestCreateBookingEndpointRequiresAuth(t *testing.T) {
	a := newAPI(t)
	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1"), 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateBookingEndpointValidation(t *testing.T) {
	a := newAPI(t)
	rec := a.request(t, http.MethodPost, "/v1/bookings",
		`{"movie_id":1,"screen_id":2,"seats":["A1"],"booking_date":"05-09-2026","show_time":"18:00","payment_method":"wallet"}`, 1)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "booking_date")
}

func TestCreateBookingEndpointSeatConflict(t *testing.T) {
	a := newAPI(t)
	a.store.SetWalletBalance(1, 100_000)
	a.store.SetWalletBalance(2, 100_000)

	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1"), 1)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1"), 2)
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, []any{"A1"}, body["seats"])
}

func TestCreateBookingEndpointInsufficientFunds(t *testing.T) {
	a := newAPI(t)
	a.store.SetWalletBalance(1, 10)
	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1"), 1)
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
}

func TestCancelBookingEndpoint(t *testing.T) {
	a := newAPI(t)
	a.store.SetWalletBalance(1, 100_000)

	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("B1"), 1)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := strconv.FormatUint(uint64(decode(t, rec)["id"].(float64)), 10)
	cancelPath := "/v1/bookings/" + id + "/cancel"

	// a stranger cannot cancel it
	rec = a.request(t, http.MethodPost, cancelPath, "", 2)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.request(t, http.MethodPost, cancelPath, "", 1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "cancelled", body["payment_status"])
	assert.EqualValues(t, 1550, body["refund_cents"])

	// cancelling again conflicts
	rec = a.request(t, http.MethodPost, cancelPath, "", 1)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSeatHoldEndpoint(t *testing.T) {
	a := newAPI(t)

	path := "/v1/schedules/" + strconv.FormatUint(a.scheduleID, 10) + "/seats"
	rec := a.request(t, http.MethodPost, path, `{"show_time":"18:00","seats":["A3","A4"],"hold":true}`, 1)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.ElementsMatch(t, []any{"A3", "A4"}, body["held"])
	assert.NotEmpty(t, body["expires_at"])

	// a different user cannot hold the same seats
	rec = a.request(t, http.MethodPost, path, `{"show_time":"18:00","seats":["A3"],"hold":true}`, 2)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// release
	rec = a.request(t, http.MethodPost, path, `{"show_time":"18:00","seats":["A3","A4"],"hold":false}`, 1)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["released"])
}

func TestSeatMapEndpointIsPublic(t *testing.T) {
	a := newAPI(t)

	base := "/v1/schedules/" + strconv.FormatUint(a.scheduleID, 10) + "/seats"
	rec := a.request(t, http.MethodGet, base+"?time=18:00", "", 0)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "Spirited Away", body["movie_title"])
	rows, ok := body["rows"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, rows, 2)
	assert.Len(t, rows["A"], 4)

	rec = a.request(t, http.MethodGet, base+"?time=23:59", "", 0)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWalletEndpoint(t *testing.T) {
	a := newAPI(t)

	// unknown wallet reads as zero balance
	rec := a.request(t, http.MethodGet, "/v1/wallet", "", 5)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, decode(t, rec)["balance_cents"])

	a.store.SetWalletBalance(1, 100_000)
	rec = a.request(t, http.MethodPost, "/v1/bookings", a.createBody("A1"), 1)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.request(t, http.MethodGet, "/v1/wallet", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	// 100000 - 1550 + 155 cashback
	assert.EqualValues(t, 98_605, body["balance_cents"])
	txns, ok := body["transactions"].([]any)
	require.True(t, ok)
	assert.Len(t, txns, 2)
}

func TestListBookingsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.store.SetWalletBalance(1, 100_000)

	rec := a.request(t, http.MethodPost, "/v1/bookings", a.createBody("B2"), 1)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = a.request(t, http.MethodGet, "/v1/bookings", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	bookings, ok := body["bookings"].([]any)
	require.True(t, ok)
	require.Len(t, bookings, 1)
	first := bookings[0].(map[string]any)
	assert.Equal(t, "Spirited Away", first["movie_title"])
	assert.Equal(t, []any{"B2"}, first["seats"])
}

func TestHealthEndpoint(t *testing.T) {
	a := newAPI(t)
	rec := a.request(t, http.MethodGet, "/healthz", "", 0)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
