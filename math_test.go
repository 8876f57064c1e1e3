package impactor

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestNormalizeDegrees(t *testing.T) {
	for _, tc := range []struct {
		in, exp float64
	}{
		{0, 0},
		{360, 0},
		{720, 0},
		{-90, 270},
		{-360, 0},
		{405, 45},
		{359.5, 359.5},
		{-1e-15, 0},
		{-7230, 330},
	} {
		if got := NormalizeDegrees(tc.in); !scalar.EqualWithinAbs(got, tc.exp, 1e-9) {
			t.Fatalf("NormalizeDegrees(%f)=%f, want %f", tc.in, got, tc.exp)
		}
	}
	for a := -1080.0; a <= 1080; a += 0.25 {
		if n := NormalizeDegrees(a); n < 0 || n >= 360 {
			t.Fatalf("NormalizeDegrees(%f)=%f out of [0, 360)", a, n)
		}
	}
}

func TestAngles(t *testing.T) {
	for i := 0.0; i <= 360; i += 0.5 {
		// Specific tests
		mi := math.Mod(i, 180)
		var expPi float64
		specificCase := true
		switch mi {
		case 0:
			expPi = 0
		case 30:
			expPi = 1 / 6.
		case 60:
			expPi = 1 / 3.
		case 90:
			expPi = 1 / 2.
		case 120:
			expPi = 2 / 3.
		case 150:
			expPi = 5 / 6.
		default:
			specificCase = false
		}
		if specificCase {
			if i >= 180 && i < 360 {
				expPi++
			}
			if !scalar.EqualWithinAbs(Deg2rad(i)/math.Pi, expPi, 1e-10) {
				t.Fatalf("%f deg %f rad %f exp=%f", mi, Deg2rad(i)/math.Pi, Rad2deg(Deg2rad(i)), expPi)
			}
		}
		if i < 360 && !scalar.EqualWithinAbs(i, Rad2deg(Deg2rad(i)), 1e-9) {
			t.Fatalf("round trip of %f gave %f", i, Rad2deg(Deg2rad(i)))
		}
	}
	if Deg2rad(180) != math.Pi {
		t.Fatalf("Deg2rad(180)=%.17f is not exactly π", Deg2rad(180))
	}
	if Deg2rad(-90) != Deg2rad(270) {
		t.Fatal("negative angles are not normalized")
	}
	if !scalar.EqualWithinAbs(Rad2deg(-math.Pi/2), 270, 1e-12) {
		t.Fatalf("Rad2deg(-π/2)=%f", Rad2deg(-math.Pi/2))
	}
}

func TestFinite(t *testing.T) {
	for v, exp := range map[float64]bool{
		0:               true,
		-1e300:          true,
		math.Inf(1):     false,
		math.Inf(-1):    false,
		math.MaxFloat64: true,
	} {
		if finite(v) != exp {
			t.Fatalf("finite(%g) != %v", v, exp)
		}
	}
	if finite(math.NaN()) {
		t.Fatal("NaN is not finite")
	}
}

func assertPanic(t *testing.T, f func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("code did not panic")
		}
	}()
	f()
}
