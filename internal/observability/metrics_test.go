package observability

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/orbitlab/impactor"
)

func TestRecorderCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}

	rec.ObserveState(impactor.OrbitalState{Iterations: 4}, nil)
	rec.ObserveState(impactor.OrbitalState{}, &impactor.NonConvergenceError{Iterations: 100})

	res, err := impactor.ComputeImpact(impactor.ImpactorSpec{Diameter: 0.01, Velocity: 15, Density: impactor.Float(3300)})
	if err != nil {
		t.Fatalf("ComputeImpact: %v", err)
	}
	rec.ObserveImpact(res, nil)
	_, err = impactor.ComputeImpact(impactor.ImpactorSpec{Diameter: -1, Velocity: 15})
	rec.ObserveImpact(impactor.ImpactResult{}, err)

	if got := testutil.ToFloat64(rec.StateEvaluations.WithLabelValues(OutcomeOK)); got != 1 {
		t.Fatalf("ok state evaluations = %v", got)
	}
	if got := testutil.ToFloat64(rec.StateEvaluations.WithLabelValues(OutcomeNonConvergence)); got != 1 {
		t.Fatalf("non-convergent state evaluations = %v", got)
	}
	if got := testutil.ToFloat64(rec.ImpactEvaluations.WithLabelValues(OutcomeInvalidInput)); got != 1 {
		t.Fatalf("invalid impact evaluations = %v", got)
	}
	if got := testutil.ToFloat64(rec.ImpactSeverity.WithLabelValues(impactor.Minor.String())); got != 1 {
		t.Fatalf("minor severity count = %v", got)
	}
	if got := testutil.CollectAndCount(rec.KeplerIterations); got != 1 {
		t.Fatalf("histogram series = %d", got)
	}
}

func TestRecorderReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("first NewRecorder: %v", err)
	}
	second, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("second NewRecorder: %v", err)
	}
	first.ObserveImpact(impactor.ImpactResult{}, impactor.ErrInvalidInput)
	second.ObserveImpact(impactor.ImpactResult{}, impactor.ErrInvalidInput)
	if got := testutil.ToFloat64(first.ImpactEvaluations.WithLabelValues(OutcomeInvalidInput)); got != 2 {
		t.Fatalf("shared counter = %v, want 2", got)
	}
}

func TestRecorderIncompatibleCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGauge(prometheus.GaugeOpts{Name: "impactor_kepler_iterations", Help: "clash"}))
	if _, err := NewRecorder(reg); err == nil {
		t.Fatal("expected an error for an incompatible collector")
	}
}

func TestOutcome(t *testing.T) {
	for _, tc := range []struct {
		err error
		exp string
	}{
		{nil, OutcomeOK},
		{impactor.ErrInvalidInput, OutcomeInvalidInput},
		{&impactor.NonConvergenceError{}, OutcomeNonConvergence},
		{fmt.Errorf("x: %w", impactor.ErrDomain), OutcomeDomainError},
		{context.Canceled, OutcomeCanceled},
		{fmt.Errorf("other"), OutcomeError},
	} {
		if got := Outcome(tc.err); got != tc.exp {
			t.Fatalf("Outcome(%v)=%s, want %s", tc.err, got, tc.exp)
		}
	}
}

func TestSnapshotAndSummary(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewRecorder(reg)
	if err != nil {
		t.Fatalf("NewRecorder: %v", err)
	}
	rec.ObserveState(impactor.OrbitalState{Iterations: 3}, nil)
	families, err := rec.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("no families gathered")
	}
	var buf bytes.Buffer
	if err := rec.WriteSummary(&buf); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	if !strings.Contains(buf.String(), `impactor_state_evaluations_total{outcome="ok"} 1`) {
		t.Fatalf("summary missing state counter:\n%s", buf.String())
	}
	if !strings.Contains(buf.String(), "impactor_kepler_iterations count=1 sum=3") {
		t.Fatalf("summary missing histogram:\n%s", buf.String())
	}
}

func TestNilRecorder(t *testing.T) {
	var rec *Recorder
	rec.ObserveState(impactor.OrbitalState{}, nil)
	rec.ObserveImpact(impactor.ImpactResult{}, nil)
	if families, err := rec.Snapshot(); err != nil || families != nil {
		t.Fatalf("nil recorder snapshot = %v, %v", families, err)
	}
}
