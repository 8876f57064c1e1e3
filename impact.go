package impactor

import (
	"fmt"
	"math"
)

// Engine-wide calibration constants of the simplified impact scaling laws.
// They are reproduced as published, not re-fit.
const (
	JoulesPerMegaton = 4.184e15

	DefaultDensity    = 2600.0 // kg/m³, rocky asteroid
	DefaultAngle      = 45.0   // degrees from horizontal
	DefaultWaterDepth = 4000.0 // m, also the tsunami reference depth

	craterK      = 0.07 // km
	craterExp    = 0.33
	craterAspect = 7.0 // diameter / depth
	airblastK    = 2.2 // km
	airblastExp  = 0.33
	thermalK     = 3.5 // km
	thermalExp   = 0.41
	seismicSlope = 0.67
	seismicBase  = 3.87
	tsunamiK     = 0.1 // m
)

// ImpactorSpec describes a hypothetical impactor: diameter in km, velocity in km/s,
// density in kg/m³ and entry angle in degrees from horizontal, within (0, 90].
// Density and Angle are optional: nil means omitted and the documented default applies.
// An explicit zero is a value, and is rejected.
type ImpactorSpec struct {
	Diameter float64  `json:"diameter" yaml:"diameter"`
	Velocity float64  `json:"velocity" yaml:"velocity"`
	Density  *float64 `json:"density,omitempty" yaml:"density,omitempty"`
	Angle    *float64 `json:"angle,omitempty" yaml:"angle,omitempty"`
}

// Float returns a pointer to v, for the optional ImpactorSpec fields.
func Float(v float64) *float64 {
	return &v
}

// WithDefaults returns the density and angle to use, substituting the defaults for omitted fields.
func (s ImpactorSpec) WithDefaults() (density, angle float64) {
	density, angle = DefaultDensity, DefaultAngle
	if s.Density != nil {
		density = *s.Density
	}
	if s.Angle != nil {
		angle = *s.Angle
	}
	return
}

// Validate checks every field against its domain. Nothing is clamped.
func (s ImpactorSpec) Validate() error {
	if !finite(s.Diameter) || s.Diameter <= 0 {
		return invalid("diameter", s.Diameter, "must be a positive number of km")
	}
	if !finite(s.Velocity) || s.Velocity <= 0 {
		return invalid("velocity", s.Velocity, "must be a positive number of km/s")
	}
	density, angle := s.WithDefaults()
	if !finite(density) || density <= 0 {
		return invalid("density", density, "must be a positive number of kg/m³")
	}
	if !finite(angle) || angle <= 0 || angle > 90 {
		return invalid("angle", angle, "must be in (0, 90] degrees")
	}
	return nil
}

// String implements the Stringer interface.
func (s ImpactorSpec) String() string {
	density, angle := s.WithDefaults()
	return fmt.Sprintf("d=%g km v=%g km/s ρ=%g kg/m³ θ=%g°", s.Diameter, s.Velocity, density, angle)
}

// Energy is the kinetic energy released by an impact.
type Energy struct {
	Joules      float64 `json:"joules"`
	MegatonsTNT float64 `json:"megatons_tnt"`
}

// Crater is the simple-crater geometry, in km.
type Crater struct {
	Diameter float64 `json:"diameter_km"`
	Depth    float64 `json:"depth_km"`
}

// Damage holds the damage radii (km) and the seismic magnitude.
type Damage struct {
	AirblastRadius   float64  `json:"airblast_radius_km"`
	ThermalRadius    float64  `json:"thermal_radius_km"`
	SeismicMagnitude float64  `json:"seismic_magnitude"`
	TsunamiHeight    *float64 `json:"tsunami_height_m,omitempty"` // only set for ocean impacts
}

// ImpactResult is the full outcome of an impact evaluation.
type ImpactResult struct {
	Mass       float64  `json:"mass_kg"`
	Energy     Energy   `json:"energy"`
	Crater     Crater   `json:"crater"`
	Damage     Damage   `json:"damage"`
	Severity   Severity `json:"severity"`
	Comparison string   `json:"comparison"`
}

// String implements the Stringer interface.
func (r ImpactResult) String() string {
	return fmt.Sprintf("%.4g MT (%s): crater %.3f km, airblast %.2f km, thermal %.2f km, M%.1f - %s",
		r.Energy.MegatonsTNT, r.Severity, r.Crater.Diameter, r.Damage.AirblastRadius, r.Damage.ThermalRadius, r.Damage.SeismicMagnitude, r.Comparison)
}

// ComputeImpact evaluates the energy, crater, damage and severity of an impact.
func ComputeImpact(spec ImpactorSpec) (ImpactResult, error) {
	if err := spec.Validate(); err != nil {
		return ImpactResult{}, err
	}
	density, angle := spec.WithDefaults()

	mass := sphereMass(spec.Diameter, density)
	joules := 0.5 * mass * math.Pow(spec.Velocity*1000, 2)
	mt := joules / JoulesPerMegaton
	if !finite(mt) || mt <= 0 {
		return ImpactResult{}, domainErr("energy", mt)
	}

	seismic, err := seismicMagnitude(mt)
	if err != nil {
		return ImpactResult{}, err
	}
	class, err := Classify(mt)
	if err != nil {
		return ImpactResult{}, err
	}

	craterDiameter := craterK * math.Pow(mt, craterExp) * math.Sin(angle*deg2rad)
	return ImpactResult{
		Mass:   mass,
		Energy: Energy{Joules: joules, MegatonsTNT: mt},
		Crater: Crater{Diameter: craterDiameter, Depth: craterDiameter / craterAspect},
		Damage: Damage{
			AirblastRadius:   airblastK * math.Pow(mt, airblastExp),
			ThermalRadius:    thermalK * math.Pow(mt, thermalExp),
			SeismicMagnitude: seismic,
		},
		Severity:   class.Tier,
		Comparison: class.Comparison,
	}, nil
}

// ComputeOceanImpact is ComputeImpact for an ocean target of the given depth (m).
// The result additionally carries the tsunami height.
func ComputeOceanImpact(spec ImpactorSpec, waterDepth float64) (ImpactResult, error) {
	if !finite(waterDepth) || waterDepth <= 0 {
		return ImpactResult{}, invalid("water depth", waterDepth, "must be a positive number of meters")
	}
	r, err := ComputeImpact(spec)
	if err != nil {
		return ImpactResult{}, err
	}
	h, err := TsunamiHeight(r.Energy.MegatonsTNT, waterDepth)
	if err != nil {
		return ImpactResult{}, err
	}
	r.Damage.TsunamiHeight = &h
	return r, nil
}

// TsunamiHeight returns the wave height (m) of an ocean impact of energyMT at waterDepth (m).
func TsunamiHeight(energyMT, waterDepth float64) (float64, error) {
	if !finite(energyMT) || energyMT <= 0 {
		return 0, domainErr("sqrt", energyMT)
	}
	if !finite(waterDepth) || waterDepth <= 0 {
		return 0, domainErr("sqrt", waterDepth/DefaultWaterDepth)
	}
	return tsunamiK * math.Sqrt(energyMT) * math.Sqrt(waterDepth/DefaultWaterDepth), nil
}

func sphereMass(diameterKm, density float64) float64 {
	radius := diameterKm * 1000 / 2
	return 4.0 / 3.0 * math.Pi * radius * radius * radius * density
}

func seismicMagnitude(energyMT float64) (float64, error) {
	if !finite(energyMT) || energyMT <= 0 {
		return 0, domainErr("log10", energyMT)
	}
	return seismicSlope*math.Log10(energyMT) + seismicBase, nil
}
