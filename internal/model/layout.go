package model

import (
	"strconv"
	"strings"
)

// RowLabel converts a zero-based row index to an alphabetical label
// such as A, B, ..., Z, AA, AB.
func RowLabel(i int) string {
	if i < 0 {
		return ""
	}
	var res []rune
	for {
		res = append(res, rune('A'+i%26))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// SeatLabel builds the canonical label for a seat at the given
// zero-based row and one-based seat number, e.g. (0, 1) -> "A1".
func SeatLabel(rowIdx, seatNum int) string {
	return RowLabel(rowIdx) + strconv.Itoa(seatNum)
}

// ParseLabel splits a seat label like "B12" into its zero-based row
// index and one-based seat number.  The second return value is false
// when the label is not of the letter-prefix digit-suffix form.
func ParseLabel(label string) (rowIdx, seatNum int, ok bool) {
	s := strings.ToUpper(strings.TrimSpace(label))
	i := 0
	for i < len(s) && s[i] >= 'A' && s[i] <= 'Z' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, 0, false
	}
	n := 0
	for _, ch := range []byte(s[:i]) {
		n = n*26 + int(ch-'A'+1)
	}
	num, err := strconv.Atoi(s[i:])
	if err != nil || num <= 0 {
		return 0, 0, false
	}
	return n - 1, num, true
}

// BuildLayout materialises a fresh seat grid of rows x cols for a
// showtime.  Every seat starts AVAILABLE at the given price.  Labels
// are "A1".."A<cols>" for the first row, "B1".. for the second and so
// on.
func BuildLayout(showtimeID uint64, rows, cols uint32, priceCents int64) []ShowtimeSeat {
	seats := make([]ShowtimeSeat, 0, rows*cols)
	for r := uint32(0); r < rows; r++ {
		for c := uint32(1); c <= cols; c++ {
			seats = append(seats, ShowtimeSeat{
				ShowtimeID: showtimeID,
				RowIdx:     r,
				Label:      SeatLabel(int(r), int(c)),
				Status:     SeatAvailable,
				PriceCents: priceCents,
			})
		}
	}
	return seats
}

// CloneLayout derives the seat grid for a new showtime from an existing
// showtime's seats.  Row indexes, labels and prices carry over; all
// state (status, holds, booking references) is reset so every seat in
// the new showtime starts AVAILABLE.
func CloneLayout(showtimeID uint64, template []ShowtimeSeat) []ShowtimeSeat {
	seats := make([]ShowtimeSeat, 0, len(template))
	for _, t := range template {
		seats = append(seats, ShowtimeSeat{
			ShowtimeID: showtimeID,
			RowIdx:     t.RowIdx,
			Label:      t.Label,
			Status:     SeatAvailable,
			PriceCents: t.PriceCents,
		})
	}
	return seats
}
