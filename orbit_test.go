package impactor

import (
	"errors"
	"math"
	"testing"
	"time"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCircularOrbit(t *testing.T) {
	o := OrbitalElements{SemiMajorAxis: 1.5, Eccentricity: 0, Period: 687, MeanLongitude: 30, LongitudeOfPerihelion: 10}
	vc := AUPerDayToKmPerSec(math.Sqrt(GMSun / o.SemiMajorAxis))
	for M := 0.0; M < 360; M += 5 {
		s, err := StateAtMeanAnomaly(o, M)
		if err != nil {
			t.Fatal(err)
		}
		if s.Distance != o.SemiMajorAxis {
			t.Fatalf("M=%f: r=%.17f != a", M, s.Distance)
		}
		if s.TrueAnomaly != s.MeanAnomaly {
			t.Fatalf("M=%f: ν=%.17f != M=%.17f", M, s.TrueAnomaly, s.MeanAnomaly)
		}
		if !scalar.EqualWithinRel(s.Speed, vc, 1e-12) {
			t.Fatalf("M=%f: v=%f, want circular speed %f", M, s.Speed, vc)
		}
		if s.FlightPathAngle() != 0 {
			t.Fatalf("circular flight path angle %f", s.FlightPathAngle())
		}
	}
}

func TestAngularMomentumConserved(t *testing.T) {
	for _, b := range Planets() {
		o := b.Elements
		peri, err := StateAtMeanAnomaly(o, 0)
		if err != nil {
			t.Fatal(err)
		}
		apo, err := StateAtMeanAnomaly(o, 180)
		if err != nil {
			t.Fatal(err)
		}
		if !scalar.EqualWithinAbs(peri.Distance, o.Perihelion(), 1e-12) || !scalar.EqualWithinAbs(apo.Distance, o.Aphelion(), 1e-12) {
			t.Fatalf("%s: apsides r_p=%f r_a=%f", b.Name, peri.Distance, apo.Distance)
		}
		h0 := peri.AngularMomentum()
		if !scalar.EqualWithinRel(h0, apo.AngularMomentum(), 1e-4) {
			t.Fatalf("%s: h_p=%f h_a=%f", b.Name, h0, apo.AngularMomentum())
		}
		// Any other point of the orbit as well.
		for M := 10.0; M < 360; M += 35 {
			s, err := StateAtMeanAnomaly(o, M)
			if err != nil {
				t.Fatal(err)
			}
			if !scalar.EqualWithinRel(h0, s.AngularMomentum(), 1e-4) {
				t.Fatalf("%s M=%f: h=%f, want %f", b.Name, M, s.AngularMomentum(), h0)
			}
		}
	}
}

func TestTrueAnomalyQuadrants(t *testing.T) {
	o := OrbitalElements{SemiMajorAxis: 2, Eccentricity: 0.6, Period: 1033, MeanLongitude: 0, LongitudeOfPerihelion: 0}
	prev := -1.0
	for M := 0.0; M < 360; M += 1 {
		s, err := StateAtMeanAnomaly(o, M)
		if err != nil {
			t.Fatal(err)
		}
		if s.TrueAnomaly < 0 || s.TrueAnomaly >= 360 {
			t.Fatalf("M=%f: ν=%f out of [0, 360)", M, s.TrueAnomaly)
		}
		if s.TrueAnomaly <= prev {
			t.Fatalf("M=%f: ν=%f is not increasing (previous %f)", M, s.TrueAnomaly, prev)
		}
		prev = s.TrueAnomaly
		// The true anomaly leads the mean anomaly on the outbound half.
		if M > 0 && M < 180 && s.TrueAnomaly <= M {
			t.Fatalf("M=%f: ν=%f should lead", M, s.TrueAnomaly)
		}
		if s.Distance < o.Perihelion()-1e-12 || s.Distance > o.Aphelion()+1e-12 {
			t.Fatalf("M=%f: r=%f out of [q, Q]", M, s.Distance)
		}
	}
	if s, _ := StateAtMeanAnomaly(o, 180); !scalar.EqualWithinAbs(s.TrueAnomaly, 180, 1e-9) {
		t.Fatalf("ν at aphelion = %.17f", s.TrueAnomaly)
	}
}

func TestComputeStateAtEpochAndPast(t *testing.T) {
	o := OrbitalElements{SemiMajorAxis: 1, Eccentricity: 0.1, Period: 400, MeanLongitude: 50, LongitudeOfPerihelion: 20}
	s, err := ComputeState(o, J2000)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(s.MeanAnomaly, 30, 1e-9) {
		t.Fatalf("M at epoch = %f", s.MeanAnomaly)
	}
	// 100 days earlier: M = 30 - 90 = -60 → 300.
	past, err := ComputeState(o, J2000.Add(-100*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(past.MeanAnomaly, 300, 1e-6) {
		t.Fatalf("M 100 days before epoch = %f", past.MeanAnomaly)
	}
	// One full period later the state repeats.
	later, err := ComputeState(o, J2000.Add(400*24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(later.Distance, s.Distance, 1e-9) {
		t.Fatalf("r after one period = %f, want %f", later.Distance, s.Distance)
	}
}

func TestComputeStateRejectsParabolic(t *testing.T) {
	o := OrbitalElements{SemiMajorAxis: 1, Eccentricity: 1, Period: 365, MeanLongitude: 0, LongitudeOfPerihelion: 0}
	_, err := ComputeState(o, J2000)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("e=1 should be invalid input, got %v", err)
	}
	var inputErr *InputError
	if !errors.As(err, &inputErr) || inputErr.Field != "eccentricity" {
		t.Fatalf("expected an eccentricity input error, got %v", err)
	}
}

func TestElementsValidate(t *testing.T) {
	valid := OrbitalElements{SemiMajorAxis: 1, Eccentricity: 0.1, Period: 365, MeanLongitude: 0, LongitudeOfPerihelion: 0}
	if err := valid.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, mutate := range []func(*OrbitalElements){
		func(o *OrbitalElements) { o.SemiMajorAxis = 0 },
		func(o *OrbitalElements) { o.SemiMajorAxis = math.NaN() },
		func(o *OrbitalElements) { o.Eccentricity = -0.01 },
		func(o *OrbitalElements) { o.Period = -1 },
		func(o *OrbitalElements) { o.MeanLongitude = math.Inf(1) },
		func(o *OrbitalElements) { o.LongitudeOfPerihelion = math.NaN() },
		func(o *OrbitalElements) { o.Orientation = &Orientation{Inclination: math.NaN()} },
	} {
		o := valid
		mutate(&o)
		if err := o.Validate(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected invalid input, got %v", o, err)
		}
	}
}

func TestOrbitGeometry(t *testing.T) {
	o := Earth.Elements
	if !scalar.EqualWithinAbs(o.MeanMotion(), 0.98561, 1e-6) {
		t.Fatalf("n=%f", o.MeanMotion())
	}
	if !scalar.EqualWithinAbs(o.SemiParameter(), o.SemiMajorAxis*(1-o.Eccentricity*o.Eccentricity), 1e-15) {
		t.Fatal("semi parameter")
	}
	if !scalar.EqualWithinAbs(o.ArgumentOfPerihelion(), 102.93768193, 1e-9) {
		t.Fatalf("ω=%f", o.ArgumentOfPerihelion())
	}
	P, err := PeriodFromAxis(1)
	if err != nil || !scalar.EqualWithinAbs(P, 365.25, 0.05) {
		t.Fatalf("P(1 AU)=%f %v", P, err)
	}
	if _, err := PeriodFromAxis(-1); !errors.Is(err, ErrInvalidInput) {
		t.Fatal("negative axis accepted")
	}
}

func TestVisVivaDomain(t *testing.T) {
	if _, err := visViva(0, 1); !errors.Is(err, ErrDomain) {
		t.Fatalf("r=0 should be a domain error, got %v", err)
	}
	// r beyond 2a has no real speed.
	if _, err := visViva(3, 1); !errors.Is(err, ErrDomain) {
		t.Fatalf("r>2a should be a domain error, got %v", err)
	}
	v, err := visViva(1, 1)
	if err != nil || !scalar.EqualWithinAbs(v, 29.78, 0.01) {
		t.Fatalf("v(1 AU)=%f %v", v, err)
	}
}
