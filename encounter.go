package impactor

import (
	"fmt"
	"math"
)

// DefaultEncounterSamples is the number of mean anomaly samples per orbit.
const DefaultEncounterSamples = 360

// RiskLevel is the encounter risk derived from the impact probability.
type RiskLevel uint8

const (
	// RiskNone means no significant threat.
	RiskNone RiskLevel = iota + 1
	// RiskLow means local damage is possible.
	RiskLow
	// RiskModerate means regional devastation is likely.
	RiskModerate
	// RiskHigh means a continental-scale catastrophe.
	RiskHigh
	// RiskExtreme means a global extinction event.
	RiskExtreme
)

func (r RiskLevel) String() string {
	switch r {
	case RiskNone:
		return "None"
	case RiskLow:
		return "Low"
	case RiskModerate:
		return "Moderate"
	case RiskHigh:
		return "High"
	case RiskExtreme:
		return "Extreme"
	default:
		panic(fmt.Errorf("unknown risk level %d", uint8(r)))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (r RiskLevel) MarshalText() ([]byte, error) {
	if r < RiskNone || r > RiskExtreme {
		return nil, fmt.Errorf("unknown risk level %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// Description returns the expected damage for this risk level.
func (r RiskLevel) Description() string {
	switch r {
	case RiskNone:
		return "No significant threat"
	case RiskLow:
		return "Local damage possible"
	case RiskModerate:
		return "Regional devastation likely"
	case RiskHigh:
		return "Continental-scale catastrophe"
	default:
		return "Global extinction event"
	}
}

// riskLevels is scanned from the top; a row applies when the probability (percent) exceeds its floor.
var riskLevels = []struct {
	floor float64
	level RiskLevel
}{
	{50, RiskExtreme},
	{25, RiskHigh},
	{10, RiskModerate},
	{1, RiskLow},
}

// RiskFromProbability maps an impact probability in percent to a risk level.
func RiskFromProbability(p float64) RiskLevel {
	for _, r := range riskLevels {
		if p > r.floor {
			return r.level
		}
	}
	return RiskNone
}

// MinimumOrbitDistance samples both orbits over samples×samples mean anomaly pairs
// and returns the smallest separation found, in km. Both element sets need an Orientation.
func MinimumOrbitDistance(a, b OrbitalElements, samples int) (float64, error) {
	if samples < 1 {
		return 0, invalid("samples", float64(samples), "must be at least 1")
	}
	pa, err := sampleOrbit(a, samples)
	if err != nil {
		return 0, fmt.Errorf("first orbit: %w", err)
	}
	pb, err := sampleOrbit(b, samples)
	if err != nil {
		return 0, fmt.Errorf("second orbit: %w", err)
	}
	minDist := math.Inf(1)
	for _, ra := range pa {
		for _, rb := range pb {
			if d := ra.Sub(rb).Norm(); d < minDist {
				minDist = d
			}
		}
	}
	return minDist * AU, nil
}

func sampleOrbit(o OrbitalElements, samples int) ([]Vector3, error) {
	if o.Orientation == nil {
		return nil, ErrNoOrientation
	}
	pts := make([]Vector3, samples)
	step := 360 / float64(samples)
	for i := range pts {
		s, err := StateAtMeanAnomaly(o, float64(i)*step)
		if err != nil {
			return nil, err
		}
		if pts[i], err = HeliocentricPosition(o, s); err != nil {
			return nil, err
		}
	}
	return pts, nil
}

// EncounterAnalysis is the close-approach assessment of a body against the Earth.
type EncounterAnalysis struct {
	ClosestApproach           float64       `json:"closest_approach_km"`
	ClosestApproachAU         float64       `json:"closest_approach_au"`
	ClosestApproachEarthRadii float64       `json:"closest_approach_earth_radii"`
	ImpactProbability         float64       `json:"impact_probability_percent"`
	Risk                      RiskLevel     `json:"risk_level"`
	EstimatedDamage           string        `json:"estimated_damage"`
	Impact                    *ImpactResult `json:"impact,omitempty"`
}

// AssessEncounter compares the orbit of body with the orbit of earth. When an impactor
// spec is given, the impact it would produce is attached to the analysis.
func AssessEncounter(body, earth OrbitalElements, samples int, impactor *ImpactorSpec) (EncounterAnalysis, error) {
	d, err := MinimumOrbitDistance(body, earth, samples)
	if err != nil {
		return EncounterAnalysis{}, err
	}
	var p float64
	if limit := 10 * EarthRadius; d < limit {
		p = math.Max(0, 100*(1-d/limit))
	}
	risk := RiskFromProbability(p)
	analysis := EncounterAnalysis{
		ClosestApproach:           d,
		ClosestApproachAU:         d / AU,
		ClosestApproachEarthRadii: d / EarthRadius,
		ImpactProbability:         p,
		Risk:                      risk,
		EstimatedDamage:           risk.Description(),
	}
	if impactor != nil {
		r, err := ComputeImpact(*impactor)
		if err != nil {
			return EncounterAnalysis{}, fmt.Errorf("impactor: %w", err)
		}
		analysis.Impact = &r
	}
	return analysis, nil
}
