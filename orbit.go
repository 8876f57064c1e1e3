package impactor

import (
	"fmt"
	"math"
	"time"
)

// OrbitalElements defines a heliocentric ellipse on the J2000 epoch.
// Angles are in degrees. Values are never mutated once built; see At for secular drift.
type OrbitalElements struct {
	SemiMajorAxis         float64 // a, AU
	Eccentricity          float64 // e, [0, 1)
	Period                float64 // P, days
	MeanLongitude         float64 // L0 at J2000, degrees
	LongitudeOfPerihelion float64 // ϖ, degrees
	Orientation           *Orientation
	Rates                 *SecularRates
}

// Orientation is the optional 3D extension of an element set.
type Orientation struct {
	Inclination   float64 // i, degrees
	AscendingNode float64 // Ω, degrees
}

// Validate checks the elements against their domain.
func (o OrbitalElements) Validate() error {
	if !finite(o.SemiMajorAxis) || o.SemiMajorAxis <= 0 {
		return invalid("semi-major axis", o.SemiMajorAxis, "must be a positive number of AU")
	}
	if err := checkEccentricity(o.Eccentricity); err != nil {
		return err
	}
	if !finite(o.Period) || o.Period <= 0 {
		return invalid("period", o.Period, "must be a positive number of days")
	}
	if !finite(o.MeanLongitude) {
		return invalid("mean longitude", o.MeanLongitude, "must be finite")
	}
	if !finite(o.LongitudeOfPerihelion) {
		return invalid("longitude of perihelion", o.LongitudeOfPerihelion, "must be finite")
	}
	if o.Orientation != nil {
		if !finite(o.Orientation.Inclination) {
			return invalid("inclination", o.Orientation.Inclination, "must be finite")
		}
		if !finite(o.Orientation.AscendingNode) {
			return invalid("ascending node", o.Orientation.AscendingNode, "must be finite")
		}
	}
	return nil
}

// MeanMotion returns n = 360/P in degrees per day.
func (o OrbitalElements) MeanMotion() float64 {
	return 360 / o.Period
}

// SemiParameter returns the semi-latus rectum p = a(1-e²).
func (o OrbitalElements) SemiParameter() float64 {
	return o.SemiMajorAxis * (1 - o.Eccentricity*o.Eccentricity)
}

// Perihelion returns the closest distance to the Sun in AU.
func (o OrbitalElements) Perihelion() float64 {
	return o.SemiMajorAxis * (1 - o.Eccentricity)
}

// Aphelion returns the farthest distance to the Sun in AU.
func (o OrbitalElements) Aphelion() float64 {
	return o.SemiMajorAxis * (1 + o.Eccentricity)
}

// ArgumentOfPerihelion returns ω = ϖ - Ω in degrees, or ϖ when there is no orientation.
func (o OrbitalElements) ArgumentOfPerihelion() float64 {
	if o.Orientation == nil {
		return NormalizeDegrees(o.LongitudeOfPerihelion)
	}
	return NormalizeDegrees(o.LongitudeOfPerihelion - o.Orientation.AscendingNode)
}

// MeanAnomalyAt returns M = normalize(L0 + n·Δt - ϖ) in degrees for the given instant.
func (o OrbitalElements) MeanAnomalyAt(t time.Time) float64 {
	L := o.MeanLongitude + o.MeanMotion()*DaysSinceJ2000(t)
	return NormalizeDegrees(L - o.LongitudeOfPerihelion)
}

// String implements the stringer interface (hence the value receiver)
func (o OrbitalElements) String() string {
	s := fmt.Sprintf("a=%.6f AU e=%.6f P=%.3f d L0=%.3f ϖ=%.3f", o.SemiMajorAxis, o.Eccentricity, o.Period, o.MeanLongitude, o.LongitudeOfPerihelion)
	if o.Orientation != nil {
		s += fmt.Sprintf(" i=%.3f Ω=%.3f", o.Orientation.Inclination, o.Orientation.AscendingNode)
	}
	return s
}

// PeriodFromAxis returns the sidereal period in days of a heliocentric orbit with
// semi-major axis a (AU), via Kepler's third law.
func PeriodFromAxis(a float64) (float64, error) {
	if !finite(a) || a <= 0 {
		return 0, invalid("semi-major axis", a, "must be a positive number of AU")
	}
	return 2 * math.Pi * math.Sqrt(a*a*a/GMSun), nil
}

// OrbitalState is the position and speed of a body along its ellipse at one instant.
type OrbitalState struct {
	MeanAnomaly      float64 `json:"mean_anomaly_deg"`      // M, degrees in [0, 360)
	EccentricAnomaly float64 `json:"eccentric_anomaly_rad"` // E, radians
	TrueAnomaly      float64 `json:"true_anomaly_deg"`      // ν, degrees in [0, 360)
	Distance         float64 `json:"distance_au"`           // r, AU
	Speed            float64 `json:"speed_km_s"`            // km/s
	Iterations       int     `json:"iterations"`            // Newton iterations used by the Kepler solve

	e float64 // kept for the flight path angle
}

// FlightPathAngle returns the angle between the velocity and the local horizontal, in radians.
// WARNING: As per Vallado page 105, this uses atan2 to avoid a quadrant problem.
func (s OrbitalState) FlightPathAngle() float64 {
	sinν, cosν := math.Sincos(Deg2rad(s.TrueAnomaly))
	return math.Atan2(s.e*sinν, 1+s.e*cosν)
}

// TangentialSpeed returns the component of the speed perpendicular to the radius, in km/s.
func (s OrbitalState) TangentialSpeed() float64 {
	return s.Speed * math.Cos(s.FlightPathAngle())
}

// AngularMomentum returns v_t·r in AU·km/s. It is constant along one orbit.
func (s OrbitalState) AngularMomentum() float64 {
	return s.TangentialSpeed() * s.Distance
}

// String implements the Stringer interface.
func (s OrbitalState) String() string {
	return fmt.Sprintf("M=%.4f° E=%.6f rad ν=%.4f° r=%.6f AU v=%.4f km/s", s.MeanAnomaly, s.EccentricAnomaly, s.TrueAnomaly, s.Distance, s.Speed)
}

// ComputeState returns the orbital state of the body described by o at instant t.
// Secular rates, if any, are applied before propagation.
func ComputeState(o OrbitalElements, t time.Time) (OrbitalState, error) {
	if o.Rates != nil {
		var err error
		if o, err = o.At(t); err != nil {
			return OrbitalState{}, err
		}
	}
	if err := o.Validate(); err != nil {
		return OrbitalState{}, err
	}
	return StateAtMeanAnomaly(o, o.MeanAnomalyAt(t))
}

// StateAtMeanAnomaly returns the orbital state for a mean anomaly in degrees.
// A Kepler non-convergence fails the whole state.
func StateAtMeanAnomaly(o OrbitalElements, meanAnomalyDeg float64) (OrbitalState, error) {
	if err := o.Validate(); err != nil {
		return OrbitalState{}, err
	}
	a, e := o.SemiMajorAxis, o.Eccentricity
	M := NormalizeDegrees(meanAnomalyDeg)
	E, iters, err := SolveKepler(M, e)
	if err != nil {
		return OrbitalState{}, fmt.Errorf("orbital state at M=%.6f°: %w", M, err)
	}

	r := a * (1 - e*math.Cos(E))

	var ν float64
	if e == 0 {
		// Circular: uniform motion, true anomaly is the mean anomaly.
		ν = M
	} else {
		sinHalfE, cosHalfE := math.Sincos(E / 2)
		ν = Rad2deg(2 * math.Atan2(math.Sqrt(1+e)*sinHalfE, math.Sqrt(1-e)*cosHalfE))
	}

	v, err := visViva(r, a)
	if err != nil {
		return OrbitalState{}, err
	}

	return OrbitalState{
		MeanAnomaly:      M,
		EccentricAnomaly: E,
		TrueAnomaly:      ν,
		Distance:         r,
		Speed:            v,
		Iterations:       iters,
		e:                e,
	}, nil
}

// visViva returns the heliocentric speed in km/s at distance r (AU) on an orbit of semi-major axis a (AU).
func visViva(r, a float64) (float64, error) {
	if r <= 0 {
		return 0, domainErr("vis-viva distance", r)
	}
	operand := GMSun * (2/r - 1/a)
	if !(operand > 0) {
		return 0, domainErr("sqrt", operand)
	}
	return AUPerDayToKmPerSec(math.Sqrt(operand)), nil
}
