package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRowLabel(t *testing.T) {
	cases := map[int]string{
		0:  "A",
		1:  "B",
		25: "Z",
		26: "AA",
		27: "AB",
		51: "AZ",
		52: "BA",
	}
	for idx, want := range cases {
		assert.Equal(t, want, RowLabel(idx), "row %d", idx)
	}
	assert.Equal(t, "", RowLabel(-1))
}

func TestParseLabel(t *testing.T) {
	row, num, ok := ParseLabel("B12")
	require.True(t, ok)
	assert.Equal(t, 1, row)
	assert.Equal(t, 12, num)

	row, num, ok = ParseLabel(" aa3 ")
	require.True(t, ok)
	assert.Equal(t, 26, row)
	assert.Equal(t, 3, num)

	for _, bad := range []string{"", "A", "12", "A0", "A-1", "1A"} {
		_, _, ok := ParseLabel(bad)
		assert.False(t, ok, "label %q should not parse", bad)
	}
}

func TestParseLabelRoundTrip(t *testing.T) {
	for row := 0; row < 60; row++ {
		for num := 1; num <= 12; num++ {
			gotRow, gotNum, ok := ParseLabel(SeatLabel(row, num))
			require.True(t, ok)
			assert.Equal(t, row, gotRow)
			assert.Equal(t, num, gotNum)
		}
	}
}

func TestBuildLayout(t *testing.T) {
	seats := BuildLayout(7, 2, 3, 1200)
	require.Len(t, seats, 6)
	labels := make([]string, 0, len(seats))
	for _, s := range seats {
		labels = append(labels, s.Label)
		assert.Equal(t, SeatAvailable, s.Status)
		assert.Equal(t, uint64(7), s.ShowtimeID)
		assert.Equal(t, int64(1200), s.PriceCents)
	}
	assert.Equal(t, []string{"A1", "A2", "A3", "B1", "B2", "B3"}, labels)
	assert.Equal(t, uint32(0), seats[0].RowIdx)
	assert.Equal(t, uint32(1), seats[3].RowIdx)
}

func TestCloneLayoutResetsState(t *testing.T) {
	template := BuildLayout(1, 1, 2, 900)
	userID := uint64(42)
	bookingID := uint64(9)
	template[0].Status = SeatSold
	template[0].BookingID = &bookingID
	template[1].Status = SeatHeld
	template[1].HoldUserID = &userID

	seats := CloneLayout(2, template)
	require.Len(t, seats, 2)
	for i, s := range seats {
		assert.Equal(t, uint64(2), s.ShowtimeID)
		assert.Equal(t, SeatAvailable, s.Status)
		assert.Nil(t, s.BookingID)
		assert.Nil(t, s.HoldUserID)
		assert.Equal(t, template[i].Label, s.Label)
		assert.Equal(t, template[i].PriceCents, s.PriceCents)
	}
}
