package impactor

import (
	"math"
)

const (
	// KeplerTolerance is the step size |E_{n+1} - E_n| (radians) below which the solver stops.
	KeplerTolerance = 1e-6
	// KeplerMaxIterations caps the Newton-Raphson loop.
	KeplerMaxIterations = 100
)

var keplerIterationCap = KeplerMaxIterations

// SolveKepler solves Kepler's equation M = E - e·sin(E) for the eccentric anomaly E (radians).
// The mean anomaly is given in degrees and is normalized into [0, 360) first.
// It also returns the number of Newton iterations performed.
//
// If the iteration cap is reached, E holds the iterate with the smallest residual
// |E - e·sin(E) - M| and err is a *NonConvergenceError carrying it too.
func SolveKepler(meanAnomalyDeg, e float64) (E float64, iterations int, err error) {
	if !finite(meanAnomalyDeg) {
		return 0, 0, invalid("mean anomaly", meanAnomalyDeg, "must be finite")
	}
	if err = checkEccentricity(e); err != nil {
		return 0, 0, err
	}
	Mdeg := NormalizeDegrees(meanAnomalyDeg)
	M := Deg2rad(Mdeg)
	E = M
	best, bestResidual := E, keplerResidual(E, e, M)
	var ΔE float64
	for iterations < keplerIterationCap {
		iterations++
		sinE, cosE := math.Sincos(E)
		ΔE = (E - e*sinE - M) / (1 - e*cosE)
		E -= ΔE
		if math.Abs(ΔE) < KeplerTolerance {
			return E, iterations, nil
		}
		if r := keplerResidual(E, e, M); r < bestResidual {
			best, bestResidual = E, r
		}
	}
	// Newton can wander far off near e → 1; hand back the closest iterate, in [0, 2π).
	best = math.Mod(best, 2*math.Pi)
	if best < 0 {
		best += 2 * math.Pi
	}
	if best >= 2*math.Pi {
		best = 0
	}
	return best, iterations, &NonConvergenceError{
		MeanAnomaly:  Mdeg,
		Eccentricity: e,
		Estimate:     best,
		Iterations:   iterations,
		LastStep:     math.Abs(ΔE),
	}
}

func keplerResidual(E, e, M float64) float64 {
	r := math.Abs(E - e*math.Sin(E) - M)
	if math.IsNaN(r) {
		return math.Inf(1)
	}
	return r
}

// checkEccentricity rejects anything outside the elliptical domain [0, 1). Never clamps.
func checkEccentricity(e float64) error {
	switch {
	case !finite(e):
		return invalid("eccentricity", e, "must be finite")
	case e < 0:
		return invalid("eccentricity", e, "must be non-negative")
	case e >= 1:
		return invalid("eccentricity", e, "must be < 1 (only elliptical orbits are supported)")
	}
	return nil
}
