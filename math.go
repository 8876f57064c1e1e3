package impactor

import (
	"math"
)

const (
	deg2rad = math.Pi / 180
)

// NormalizeDegrees maps any finite angle into [0, 360).
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	if a >= 360 {
		// -tiny + 360 rounds up to 360.
		a = 0
	}
	return a
}

// Deg2rad converts degrees to radians, and enforced only positive numbers.
func Deg2rad(a float64) float64 {
	return NormalizeDegrees(a) / 180 * math.Pi
}

// Rad2deg converts radians to degrees, and enforced only positive numbers.
func Rad2deg(a float64) float64 {
	return NormalizeDegrees(a / deg2rad)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
