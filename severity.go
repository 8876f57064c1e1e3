package impactor

import (
	"fmt"
	"math"
	"strings"
)

// Severity is the discrete damage tier of an impact, ordered by ascending energy.
type Severity uint8

const (
	// Minor is a local event (below 0.1 MT).
	Minor Severity = iota + 1
	// Moderate is a city-scale event (below 10 MT).
	Moderate
	// Severe is a regional event (below 1000 MT).
	Severe
	// Catastrophic is a continental event (below 1e6 MT).
	Catastrophic
	// Extinction is a global event.
	Extinction
)

func (s Severity) String() string {
	switch s {
	case Minor:
		return "minor"
	case Moderate:
		return "moderate"
	case Severe:
		return "severe"
	case Catastrophic:
		return "catastrophic"
	case Extinction:
		return "extinction"
	default:
		panic(fmt.Errorf("unknown severity %d", uint8(s)))
	}
}

// MarshalText implements encoding.TextMarshaler so results serialize as labels.
func (s Severity) MarshalText() ([]byte, error) {
	if s < Minor || s > Extinction {
		return nil, fmt.Errorf("unknown severity %d", uint8(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	v, err := SeverityFromString(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SeverityFromString returns the severity from its label.
func SeverityFromString(name string) (Severity, error) {
	for s := Minor; s <= Extinction; s++ {
		if strings.EqualFold(name, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("undefined severity '%s'", name)
}

// Severities returns every tier in ascending order.
func Severities() []Severity {
	return []Severity{Minor, Moderate, Severe, Catastrophic, Extinction}
}

// Classification is one row of the energy classification table.
// A row applies to energies in [previous UpperBound, UpperBound).
//
// The table merges two ladders: the coarse severity tiers and the finer
// historical comparisons. A comparison changes only at a row boundary, so one
// tier can carry several comparisons (Minor runs from the small bomb through
// Hiroshima to Chelyabinsk) and one comparison can straddle tiers:
// Chelyabinsk covers [0.015, 0.5) Mt, Minor below 0.1 Mt and Moderate above,
// and Chicxulub covers [1e5, 1e7) Mt, Catastrophic below 1e6 Mt and
// Extinction above.
type Classification struct {
	UpperBound float64 // megatons TNT, exclusive
	Tier       Severity
	Comparison string
}

const (
	comparisonSmallBomb   = "Comparable to a small bomb"
	comparisonHiroshima   = "Similar to Hiroshima atomic bomb (15 kilotons)"
	comparisonChelyabinsk = "Similar to Chelyabinsk meteor (2013)"
	comparisonTunguska    = "Similar to Tunguska event (1908)"
	comparisonNuclear     = "Similar to largest nuclear weapons tested"
	comparisonRegional    = "Regional devastation event"
	comparisonChicxulub   = "Similar to Chicxulub impact (dinosaur extinction)"
	comparisonGlobal      = "Global extinction level event"
)

// classifications merges the severity ladder (0.1, 10, 1e3, 1e6) and the comparison
// ladder (0.001, 0.015, 0.5, 10, 1e3, 1e5, 1e7) into one strictly ascending table.
var classifications = []Classification{
	{0.001, Minor, comparisonSmallBomb},
	{0.015, Minor, comparisonHiroshima},
	{0.1, Minor, comparisonChelyabinsk},
	{0.5, Moderate, comparisonChelyabinsk},
	{10, Moderate, comparisonTunguska},
	{1000, Severe, comparisonNuclear},
	{100000, Catastrophic, comparisonRegional},
	{1000000, Catastrophic, comparisonChicxulub},
	{10000000, Extinction, comparisonChicxulub},
	{math.Inf(1), Extinction, comparisonGlobal},
}

// Classifications returns a copy of the classification table.
func Classifications() []Classification {
	out := make([]Classification, len(classifications))
	copy(out, classifications)
	return out
}

// Classify returns the table row for a non-negative energy in megatons TNT.
func Classify(energyMT float64) (Classification, error) {
	if math.IsNaN(energyMT) || energyMT < 0 {
		return Classification{}, invalid("energy", energyMT, "must be a non-negative number of megatons")
	}
	for _, c := range classifications {
		if energyMT < c.UpperBound {
			return c, nil
		}
	}
	// Only +Inf lands here; the last row is open-ended.
	return classifications[len(classifications)-1], nil
}
