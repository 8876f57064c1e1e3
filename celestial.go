package impactor

import (
	"fmt"
	"strings"
	"time"
)

const (
	// EarthRadius is the mean radius of the Earth in km.
	EarthRadius = 6371.0
)

// SecularRates are linear drifts of the elements per Julian century from J2000.
type SecularRates struct {
	SemiMajorAxis         float64 // AU/century
	Eccentricity          float64 // 1/century
	Inclination           float64 // deg/century
	LongitudeOfPerihelion float64 // deg/century
	AscendingNode         float64 // deg/century
}

// At returns a copy of the elements with the secular rates applied for instant t.
// The mean longitude is not drifted: the mean motion already comes from the period.
// The returned elements carry no rates, so applying At twice is a no-op.
func (o OrbitalElements) At(t time.Time) (OrbitalElements, error) {
	if o.Rates == nil {
		return o, nil
	}
	T := JulianCenturies(t)
	rates := *o.Rates
	drifted := o
	drifted.Rates = nil
	drifted.SemiMajorAxis += rates.SemiMajorAxis * T
	drifted.Eccentricity += rates.Eccentricity * T
	drifted.LongitudeOfPerihelion += rates.LongitudeOfPerihelion * T
	if o.Orientation != nil {
		orientation := *o.Orientation
		orientation.Inclination += rates.Inclination * T
		orientation.AscendingNode += rates.AscendingNode * T
		drifted.Orientation = &orientation
	}
	if err := drifted.Validate(); err != nil {
		return OrbitalElements{}, fmt.Errorf("elements drifted out of domain at %s: %w", t.Format(time.RFC3339), err)
	}
	return drifted, nil
}

// Body is a named heliocentric body with its J2000 elements.
type Body struct {
	Name     string
	Radius   float64 // km
	Mass     float64 // kg
	Elements OrbitalElements
}

// String implements the Stringer interface.
func (b Body) String() string {
	return b.Name + " body"
}

// Equals returns whether the provided body is the same.
func (b Body) Equals(o Body) bool {
	return b.Name == o.Name && b.Radius == o.Radius && b.Elements.SemiMajorAxis == o.Elements.SemiMajorAxis && b.Elements.Eccentricity == o.Elements.Eccentricity
}

// State returns the orbital state of this body at t.
func (b Body) State(t time.Time) (OrbitalState, error) {
	s, err := ComputeState(b.Elements, t)
	if err != nil {
		return OrbitalState{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	return s, nil
}

// Position returns the heliocentric ecliptic position of this body at t.
func (b Body) Position(t time.Time) (Vector3, OrbitalState, error) {
	o, err := b.Elements.At(t)
	if err != nil {
		return Vector3{}, OrbitalState{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	s, err := ComputeState(o, t)
	if err != nil {
		return Vector3{}, OrbitalState{}, fmt.Errorf("%s: %w", b.Name, err)
	}
	R, err := HeliocentricPosition(o, s)
	if err != nil {
		return Vector3{}, s, fmt.Errorf("%s: %w", b.Name, err)
	}
	return R, s, nil
}

// BodyFromString returns the planet from its name
func BodyFromString(name string) (Body, error) {
	for _, b := range planets {
		if strings.EqualFold(b.Name, strings.TrimSpace(name)) {
			return b, nil
		}
	}
	return Body{}, fmt.Errorf("undefined body '%s'", name)
}

// Planets returns the eight planets, from Mercury outward.
func Planets() []Body {
	out := make([]Body, len(planets))
	copy(out, planets)
	return out
}

/* Definitions: JPL approximate elements on J2000. */

// Mercury has the strongest perihelion drift, hence the only rates.
var Mercury = Body{"Mercury", 2439.7, 3.3011e23, OrbitalElements{0.38709927, 0.20563593, 87.9691, 252.25032350, 77.45779628,
	&Orientation{7.00497902, 48.33076593},
	&SecularRates{0.00000037, 0.00001906, -0.00594749, 0.16047689, -0.12534081}}}

// Venus is poisonous.
var Venus = Body{"Venus", 6051.8, 4.8675e24, OrbitalElements{0.72333566, 0.00677672, 224.701, 181.97909950, 131.60246718,
	&Orientation{3.39467605, 76.67984255}, nil}}

// Earth is home.
var Earth = Body{"Earth", EarthRadius, 5.97237e24, OrbitalElements{1.00000261, 0.01671123, 365.256, 100.46457166, 102.93768193,
	&Orientation{-0.00001531, 0.0}, nil}}

// Mars is the vacation place.
var Mars = Body{"Mars", 3389.5, 6.4171e23, OrbitalElements{1.52371034, 0.09339410, 686.980, -4.55343205, -23.94362959,
	&Orientation{1.84969142, 49.55953891}, nil}}

// Jupiter is big.
var Jupiter = Body{"Jupiter", 69911, 1.8982e27, OrbitalElements{5.20288700, 0.04838624, 4332.589, 34.39644051, 14.72847983,
	&Orientation{1.30439695, 100.47390909}, nil}}

// Saturn floats and that's really cool.
var Saturn = Body{"Saturn", 58232, 5.6834e26, OrbitalElements{9.53667594, 0.05386179, 10759.22, 49.95424423, 92.59887831,
	&Orientation{2.48599187, 113.66242448}, nil}}

// Uranus is no joke.
var Uranus = Body{"Uranus", 25362, 8.6810e25, OrbitalElements{19.18916464, 0.04725744, 30688.5, 313.23810451, 170.95427630,
	&Orientation{0.77263783, 74.01692503}, nil}}

// Neptune is the last one.
var Neptune = Body{"Neptune", 24622, 1.02413e26, OrbitalElements{30.06992276, 0.00859048, 60182, -55.12002969, 44.96476227,
	&Orientation{1.77004347, 131.78422574}, nil}}

var planets = []Body{Mercury, Venus, Earth, Mars, Jupiter, Saturn, Uranus, Neptune}
