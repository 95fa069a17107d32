package store

import (
	"fmt"
	"math"
	"time"

	"hotel-desk-backend/internal/model"
)

// Overlaps reports whether the closed intervals [aIn, aOut] and [bIn, bOut]
// share any instant. Touching endpoints count as overlap.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return !aIn.After(bOut) && !bIn.After(aOut)
}

// FormatReference renders a booking reference such as HTL0042.
func FormatReference(prefix string, counter int64) string {
	return fmt.Sprintf("%s%04d", prefix, counter)
}

// SelectPrice picks the room rate for the AC and walk-in/online combination.
func SelectPrice(room model.Room, isAC, isOnline bool) float64 {
	switch {
	case isAC && isOnline:
		return room.OnlinePriceAC
	case isAC:
		return room.PriceAC
	case isOnline:
		return room.OnlinePriceNonAC
	default:
		return room.PriceNonAC
	}
}

// ComputeTax applies percentage to the room price and to the extra-bed price
// separately and sums the two rounded amounts.
func ComputeTax(price, extraBedPrice, percentage float64) float64 {
	return round2(price*percentage/100) + round2(extraBedPrice*percentage/100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
