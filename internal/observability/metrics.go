// Package observability bundles the Prometheus metrics recorded around engine calls.
package observability

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/orbitlab/impactor"
)

// Outcome labels.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidInput   = "invalid_input"
	OutcomeNonConvergence = "non_convergence"
	OutcomeDomainError    = "domain_error"
	OutcomeCanceled       = "canceled"
	OutcomeError          = "error"
)

// Recorder counts engine evaluations. A nil *Recorder records nothing.
type Recorder struct {
	gatherer prometheus.Gatherer

	StateEvaluations  *prometheus.CounterVec
	KeplerIterations  prometheus.Histogram
	ImpactEvaluations *prometheus.CounterVec
	ImpactSeverity    *prometheus.CounterVec
	ImpactEnergy      prometheus.Histogram
}

// NewRecorder registers the engine metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	states, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactor_state_evaluations_total",
		Help: "Total number of orbital state evaluations, labeled by outcome.",
	}, []string{"outcome"}), "impactor_state_evaluations_total")
	if err != nil {
		return nil, err
	}

	iterations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactor_kepler_iterations",
		Help:    "Newton-Raphson iterations used per successful Kepler solve.",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 8, 10, 15, 25, 50, 100},
	}), "impactor_kepler_iterations")
	if err != nil {
		return nil, err
	}

	impacts, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactor_impact_evaluations_total",
		Help: "Total number of impact evaluations, labeled by outcome.",
	}, []string{"outcome"}), "impactor_impact_evaluations_total")
	if err != nil {
		return nil, err
	}

	severity, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "impactor_impact_severity_total",
		Help: "Successful impact evaluations, labeled by severity tier.",
	}, []string{"tier"}), "impactor_impact_severity_total")
	if err != nil {
		return nil, err
	}

	energy, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "impactor_impact_energy_megatons",
		Help:    "Released energy of successful impact evaluations in megatons TNT.",
		Buckets: prometheus.ExponentialBuckets(0.001, 10, 11),
	}), "impactor_impact_energy_megatons")
	if err != nil {
		return nil, err
	}

	return &Recorder{
		gatherer:          gatherer,
		StateEvaluations:  states,
		KeplerIterations:  iterations,
		ImpactEvaluations: impacts,
		ImpactSeverity:    severity,
		ImpactEnergy:      energy,
	}, nil
}

// Outcome maps an engine error to its metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, impactor.ErrInvalidInput):
		return OutcomeInvalidInput
	case errors.Is(err, impactor.ErrNonConvergence):
		return OutcomeNonConvergence
	case errors.Is(err, impactor.ErrDomain):
		return OutcomeDomainError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeError
	}
}

// ObserveState records one orbital state evaluation.
func (r *Recorder) ObserveState(s impactor.OrbitalState, err error) {
	if r == nil {
		return
	}
	r.StateEvaluations.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		r.KeplerIterations.Observe(float64(s.Iterations))
	}
}

// ObserveImpact records one impact evaluation.
func (r *Recorder) ObserveImpact(res impactor.ImpactResult, err error) {
	if r == nil {
		return
	}
	r.ImpactEvaluations.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		r.ImpactSeverity.WithLabelValues(res.Severity.String()).Inc()
		r.ImpactEnergy.Observe(res.Energy.MegatonsTNT)
	}
}

// Snapshot gathers the current metric families of the recorder's registry.
func (r *Recorder) Snapshot() ([]*dto.MetricFamily, error) {
	if r == nil {
		return nil, nil
	}
	families, err := r.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}
	kept := families[:0]
	for _, mf := range families {
		if strings.HasPrefix(mf.GetName(), "impactor_") {
			kept = append(kept, mf)
		}
	}
	return kept, nil
}

// WriteSummary prints counters and histogram counts of the recorder, one sample per line.
func (r *Recorder) WriteSummary(w io.Writer) error {
	families, err := r.Snapshot()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				fmt.Fprintf(w, "%s %g\n", name, m.GetCounter().GetValue())
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				fmt.Fprintf(w, "%s count=%d sum=%g\n", name, h.GetSampleCount(), h.GetSampleSum())
			case dto.MetricType_GAUGE:
				fmt.Fprintf(w, "%s %g\n", name, m.GetGauge().GetValue())
			}
		}
	}
	return nil
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, lp := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return h, nil
}
