package impactor

import (
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 149597870.7
	// SecondsPerDay is the length of a day in seconds.
	SecondsPerDay = 86400.0
	// DaysPerJulianCentury is used to scale secular element rates.
	DaysPerJulianCentury = 36525.0
	// GMSun is the heliocentric gravitational parameter in AU³/day².
	GMSun = 0.0002959122
)

// J2000 is the reference epoch of every element set (2000-01-01 12:00 UTC).
var J2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// DaysSinceJ2000 returns the (possibly negative) number of days elapsed between J2000 and t.
func DaysSinceJ2000(t time.Time) float64 {
	return julian.TimeToJD(t) - base.J2000
}

// JulianCenturies returns the number of Julian centuries elapsed since J2000.
func JulianCenturies(t time.Time) float64 {
	return DaysSinceJ2000(t) / DaysPerJulianCentury
}

// AUPerDayToKmPerSec converts a speed from AU/day to km/s.
func AUPerDayToKmPerSec(v float64) float64 {
	return v * AU / SecondsPerDay
}
