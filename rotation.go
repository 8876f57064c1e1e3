package impactor

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Vector3 is a heliocentric ecliptic vector.
type Vector3 struct {
	X, Y, Z float64
}

// Norm returns the length of the vector.
func (v Vector3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Scale returns k·v.
func (v Vector3) Scale(k float64) Vector3 {
	return Vector3{k * v.X, k * v.Y, k * v.Z}
}

// Dot returns the dot product of v and w.
func (v Vector3) Dot(w Vector3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Sub returns v - w.
func (v Vector3) Sub(w Vector3) Vector3 {
	return Vector3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// String implements the Stringer interface.
func (v Vector3) String() string {
	return fmt.Sprintf("[%.6f %.6f %.6f]", v.X, v.Y, v.Z)
}

// R3R1R3 performs a 3-1-3 Euler parameter rotation.
// From Schaub and Junkins (the one in Vallado is wrong... surprinsingly, right? =/)
func R3R1R3(θ1, θ2, θ3 float64) *mat.Dense {
	sθ1, cθ1 := math.Sincos(θ1)
	sθ2, cθ2 := math.Sincos(θ2)
	sθ3, cθ3 := math.Sincos(θ3)
	return mat.NewDense(3, 3, []float64{cθ3*cθ1 - sθ3*cθ2*sθ1, cθ3*sθ1 + sθ3*cθ2*cθ1, sθ3 * sθ2,
		-sθ3*cθ1 - cθ3*cθ2*sθ1, -sθ3*sθ1 + cθ3*cθ2*cθ1, cθ3 * sθ2,
		sθ2 * sθ1, -sθ2 * cθ1, cθ2})
}

// PQW2Ecliptic converts a perifocal vector into the heliocentric ecliptic frame.
// Angles are in radians.
func PQW2Ecliptic(i, ω, Ω float64, v []float64) []float64 {
	// The 3-1-3 DCM maps ecliptic to perifocal; its transpose goes the other way.
	return MxV33(R3R1R3(Ω, i, ω).T(), v)
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m mat.Matrix, v []float64) []float64 {
	var rVec mat.VecDense
	rVec.MulVec(m, mat.NewVecDense(len(v), v))
	return []float64{rVec.AtVec(0), rVec.AtVec(1), rVec.AtVec(2)}
}

// HeliocentricPosition returns the ecliptic position of the body for a state computed from o.
// It is an opt-in capability: the elements must carry an Orientation.
func HeliocentricPosition(o OrbitalElements, s OrbitalState) (Vector3, error) {
	sinν, cosν := math.Sincos(Deg2rad(s.TrueAnomaly))
	return perifocalToEcliptic(o, []float64{s.Distance * cosν, s.Distance * sinν, 0})
}

// HeliocentricVelocity returns the ecliptic velocity in km/s, with the same requirement.
func HeliocentricVelocity(o OrbitalElements, s OrbitalState) (Vector3, error) {
	sinν, cosν := math.Sincos(Deg2rad(s.TrueAnomaly))
	k := AUPerDayToKmPerSec(math.Sqrt(GMSun / o.SemiParameter()))
	return perifocalToEcliptic(o, []float64{-k * sinν, k * (o.Eccentricity + cosν), 0})
}

func perifocalToEcliptic(o OrbitalElements, pqw []float64) (Vector3, error) {
	if o.Orientation == nil {
		return Vector3{}, ErrNoOrientation
	}
	// Inclinations may be slightly negative (Earth's J2000 set), so no normalization here.
	i := o.Orientation.Inclination * deg2rad
	ω := Deg2rad(o.ArgumentOfPerihelion())
	Ω := Deg2rad(o.Orientation.AscendingNode)
	r := PQW2Ecliptic(i, ω, Ω, pqw)
	return Vector3{r[0], r[1], r[2]}, nil
}
