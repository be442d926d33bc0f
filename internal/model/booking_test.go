package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{PaymentPending, PaymentCompleted, true},
		{PaymentPending, PaymentCancelled, true},
		{PaymentPending, PaymentFailed, true},
		{PaymentCompleted, PaymentCancelled, true},
		{PaymentCompleted, PaymentPending, false},
		{PaymentCompleted, PaymentFailed, false},
		{PaymentCancelled, PaymentCompleted, false},
		{PaymentCancelled, PaymentCancelled, false},
		{PaymentFailed, PaymentCompleted, false},
		{PaymentFailed, PaymentCancelled, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestSeatSellable(t *testing.T) {
	now := time.Now().UTC()
	user := uint64(7)
	other := uint64(8)
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	free := ShowtimeSeat{Status: SeatAvailable}
	assert.True(t, free.Sellable(user, now))

	heldByUser := ShowtimeSeat{Status: SeatHeld, HoldUserID: &user, HoldExpiresAt: &future}
	assert.True(t, heldByUser.Sellable(user, now))
	assert.False(t, heldByUser.Sellable(other, now))

	expired := ShowtimeSeat{Status: SeatHeld, HoldUserID: &other, HoldExpiresAt: &past}
	assert.True(t, expired.Sellable(user, now), "expired hold no longer protects the seat")
	assert.True(t, expired.HoldExpired(now))

	bookingID := uint64(3)
	sold := ShowtimeSeat{Status: SeatSold, BookingID: &bookingID}
	assert.False(t, sold.Sellable(user, now))
}
