package impactor

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestChelyabinskScale(t *testing.T) {
	r, err := ComputeImpact(ImpactorSpec{Diameter: 0.01, Velocity: 15, Density: Float(3300), Angle: Float(45)})
	if err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		name     string
		got, exp float64
	}{
		{"mass", r.Mass, 1727875.96},
		{"energy MT", r.Energy.MegatonsTNT, 0.0464594},
		{"crater", r.Crater.Diameter, 0.0179770},
		{"depth", r.Crater.Depth, 0.0179770 / 7},
		{"airblast", r.Damage.AirblastRadius, 0.799019},
		{"thermal", r.Damage.ThermalRadius, 0.994416},
		{"seismic", r.Damage.SeismicMagnitude, 2.976939},
	} {
		if !scalar.EqualWithinRel(tc.got, tc.exp, 1e-5) {
			t.Fatalf("%s=%.7g, want %.7g", tc.name, tc.got, tc.exp)
		}
	}
	if !scalar.EqualWithinRel(r.Energy.Joules, r.Energy.MegatonsTNT*JoulesPerMegaton, 1e-12) {
		t.Fatal("joules and megatons disagree")
	}
	if r.Severity != Minor || r.Comparison != comparisonChelyabinsk {
		t.Fatalf("classified as %s / %q", r.Severity, r.Comparison)
	}
	if r.Damage.TsunamiHeight != nil {
		t.Fatal("land impact has no tsunami")
	}
}

func TestImpactDefaults(t *testing.T) {
	omitted, err := ComputeImpact(ImpactorSpec{Diameter: 0.5, Velocity: 18})
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := ComputeImpact(ImpactorSpec{Diameter: 0.5, Velocity: 18, Density: Float(DefaultDensity), Angle: Float(DefaultAngle)})
	if err != nil {
		t.Fatal(err)
	}
	if omitted != explicit {
		t.Fatalf("defaults differ:\n%+v\n%+v", omitted, explicit)
	}
	density, angle := ImpactorSpec{}.WithDefaults()
	if density != 2600 || angle != 45 {
		t.Fatalf("defaults %f %f", density, angle)
	}
}

func TestImpactInvalidInput(t *testing.T) {
	for _, spec := range []ImpactorSpec{
		{Diameter: 1, Velocity: 20, Angle: Float(0)},
		{Diameter: 1, Velocity: 20, Density: Float(0)},
		{Diameter: 0, Velocity: 20},
		{Diameter: 1, Velocity: 0},
		{Diameter: -1, Velocity: 20},
		{Diameter: 1, Velocity: -20},
		{Diameter: 1, Velocity: 20, Angle: Float(90.0001)},
		{Diameter: 1, Velocity: 20, Angle: Float(-10)},
		{Diameter: 1, Velocity: 20, Density: Float(-3000)},
		{Diameter: math.NaN(), Velocity: 20},
		{Diameter: 1, Velocity: math.Inf(1)},
		{Diameter: 1, Velocity: 20, Angle: Float(math.NaN())},
	} {
		_, err := ComputeImpact(spec)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", spec, err)
		}
	}
	// Vertical impacts are allowed.
	if _, err := ComputeImpact(ImpactorSpec{Diameter: 1, Velocity: 20, Angle: Float(90)}); err != nil {
		t.Fatal(err)
	}
}

func TestCraterScalesWithAngle(t *testing.T) {
	prev := 0.0
	for angle := 5.0; angle <= 90; angle += 5 {
		r, err := ComputeImpact(ImpactorSpec{Diameter: 0.2, Velocity: 17, Angle: Float(angle)})
		if err != nil {
			t.Fatal(err)
		}
		if r.Crater.Diameter <= prev {
			t.Fatalf("crater at %f° (%f km) not larger than at shallower angle", angle, r.Crater.Diameter)
		}
		prev = r.Crater.Diameter
	}
}

func TestOceanImpact(t *testing.T) {
	spec := ImpactorSpec{Diameter: 1, Velocity: 20}
	land, err := ComputeImpact(spec)
	if err != nil {
		t.Fatal(err)
	}
	ocean, err := ComputeOceanImpact(spec, DefaultWaterDepth)
	if err != nil {
		t.Fatal(err)
	}
	if ocean.Damage.TsunamiHeight == nil {
		t.Fatal("ocean impact without tsunami height")
	}
	exp := 0.1 * math.Sqrt(land.Energy.MegatonsTNT)
	if !scalar.EqualWithinRel(*ocean.Damage.TsunamiHeight, exp, 1e-12) {
		t.Fatalf("h=%f, want %f at the reference depth", *ocean.Damage.TsunamiHeight, exp)
	}
	ocean.Damage.TsunamiHeight = nil
	if ocean != land {
		t.Fatal("ocean impact changed the land results")
	}
	shallow, err := TsunamiHeight(land.Energy.MegatonsTNT, 1000)
	if err != nil || !scalar.EqualWithinRel(shallow, exp/2, 1e-12) {
		t.Fatalf("h(1000 m)=%f %v", shallow, err)
	}
	if _, err := ComputeOceanImpact(spec, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero depth should be invalid input, got %v", err)
	}
	if _, err := TsunamiHeight(0, 4000); !errors.Is(err, ErrDomain) {
		t.Fatalf("zero energy should be a domain error, got %v", err)
	}
}

func TestSeismicDomainGuard(t *testing.T) {
	for _, mt := range []float64{0, -1, math.NaN()} {
		if _, err := seismicMagnitude(mt); !errors.Is(err, ErrDomain) {
			t.Fatalf("seismicMagnitude(%f) err=%v", mt, err)
		}
	}
	// Energies below 1 MT give magnitudes below the constant term.
	if m, err := seismicMagnitude(1); err != nil || m != seismicBase {
		t.Fatalf("M(1 MT)=%f %v", m, err)
	}
}

func TestImpactUnderflowIsDomainError(t *testing.T) {
	// Valid but vanishingly small inputs underflow to zero energy.
	_, err := ComputeImpact(ImpactorSpec{Diameter: 1e-120, Velocity: 1e-120, Density: Float(1e-120)})
	if !errors.Is(err, ErrDomain) {
		t.Fatalf("expected a domain error, got %v", err)
	}
}
