package impactor

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestBodyFromString(t *testing.T) {
	for _, name := range []string{"Earth", "earth", " MARS ", "neptune"} {
		b, err := BodyFromString(name)
		if err != nil {
			t.Fatalf("%q: %s", name, err)
		}
		if b.Radius <= 0 || b.Mass <= 0 {
			t.Fatalf("%s has no physical data", b)
		}
	}
	if b, _ := BodyFromString("EARTH"); !b.Equals(Earth) {
		t.Fatal("Earth lookup returned another body")
	}
	if _, err := BodyFromString("Pluto"); err == nil {
		t.Fatal("Pluto is not a planet")
	}
}

func TestPlanets(t *testing.T) {
	ps := Planets()
	if len(ps) != 8 || ps[0].Name != "Mercury" || ps[7].Name != "Neptune" {
		t.Fatalf("unexpected planets %v", ps)
	}
	for i, b := range ps {
		if err := b.Elements.Validate(); err != nil {
			t.Fatalf("%s: %s", b, err)
		}
		if b.Elements.Orientation == nil {
			t.Fatalf("%s has no orientation", b)
		}
		if i > 0 && b.Elements.SemiMajorAxis <= ps[i-1].Elements.SemiMajorAxis {
			t.Fatalf("%s is not beyond %s", b, ps[i-1])
		}
	}
	ps[2].Name = "Terra"
	if Planets()[2].Name != "Earth" {
		t.Fatal("Planets returned the internal slice")
	}
	if Earth.Equals(Mars) || !Mars.Equals(Mars) {
		t.Fatal("Equals is wrong")
	}
	if Venus.String() != "Venus body" {
		t.Fatalf("String()=%s", Venus)
	}
}

func TestSecularRates(t *testing.T) {
	century := J2000.Add(time.Duration(DaysPerJulianCentury*24) * time.Hour)
	o, err := Mercury.Elements.At(century)
	if err != nil {
		t.Fatal(err)
	}
	if o.Rates != nil {
		t.Fatal("drifted elements still carry rates")
	}
	rates := Mercury.Elements.Rates
	if !scalar.EqualWithinAbs(o.SemiMajorAxis, Mercury.Elements.SemiMajorAxis+rates.SemiMajorAxis, 1e-9) {
		t.Fatalf("a=%.9f", o.SemiMajorAxis)
	}
	if !scalar.EqualWithinAbs(o.LongitudeOfPerihelion, Mercury.Elements.LongitudeOfPerihelion+rates.LongitudeOfPerihelion, 1e-9) {
		t.Fatalf("ϖ=%.9f", o.LongitudeOfPerihelion)
	}
	if !scalar.EqualWithinAbs(o.Orientation.AscendingNode, Mercury.Elements.Orientation.AscendingNode+rates.AscendingNode, 1e-9) {
		t.Fatalf("Ω=%.9f", o.Orientation.AscendingNode)
	}
	if o.MeanLongitude != Mercury.Elements.MeanLongitude {
		t.Fatal("mean longitude drifted")
	}
	// The original elements are untouched.
	if Mercury.Elements.Orientation.AscendingNode != 48.33076593 {
		t.Fatal("At modified the receiver orientation")
	}
	again, err := o.At(century.Add(1000 * 24 * time.Hour))
	if err != nil || again.SemiMajorAxis != o.SemiMajorAxis {
		t.Fatal("At on drifted elements should be a no-op")
	}
	// No rates, no change.
	if e, _ := Earth.Elements.At(century); e.SemiMajorAxis != Earth.Elements.SemiMajorAxis {
		t.Fatal("Earth has no rates")
	}
	// Enough centuries push the eccentricity out of its domain.
	bad := Mercury.Elements
	bad.Rates = &SecularRates{Eccentricity: 1}
	if _, err := bad.At(century); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestBodyState(t *testing.T) {
	s, err := Earth.State(J2000)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(s.Distance, 0.9833, 1e-3) {
		t.Fatalf("Earth at J2000 r=%f", s.Distance)
	}
	R, ps, err := Earth.Position(J2000)
	if err != nil {
		t.Fatal(err)
	}
	if ps != s {
		t.Fatal("Position and State disagree")
	}
	if !scalar.EqualWithinAbs(R.Norm(), s.Distance, 1e-12) {
		t.Fatalf("|R|=%f, want %f", R.Norm(), s.Distance)
	}
	// The Sun is near longitude 280° at J2000, the Earth opposite.
	lon := Rad2deg(math.Atan2(R.Y, R.X))
	if !scalar.EqualWithinAbs(lon, 100.5, 1.5) {
		t.Fatalf("Earth longitude %f", lon)
	}
	broken := Body{Name: "Broken", Elements: OrbitalElements{SemiMajorAxis: -1, Period: 1}}
	if _, err := broken.State(J2000); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	flat := Body{Name: "Flat", Elements: OrbitalElements{SemiMajorAxis: 1, Period: 365}}
	if _, _, err := flat.Position(J2000); !errors.Is(err, ErrNoOrientation) {
		t.Fatalf("expected ErrNoOrientation, got %v", err)
	}
}
