// Package batch evaluates many impacts or orbital states in parallel.
//
// Each item is evaluated independently: one failing input is reported in its
// outcome and never aborts the rest of the sweep. Outputs are in input order.
package batch

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/orbitlab/impactor"
	"github.com/orbitlab/impactor/internal/logging"
	"github.com/orbitlab/impactor/internal/observability"
)

const tracerName = "github.com/orbitlab/impactor/batch"

// Runner evaluates batches with at most Workers concurrent evaluations.
// The zero value is usable: it runs on every CPU, logs nothing, records no metrics
// and traces through the global tracer provider.
type Runner struct {
	Workers  int
	Logger   logging.Logger
	Recorder *observability.Recorder
	Tracer   trace.Tracer
}

func (r Runner) workers() int {
	if r.Workers <= 0 {
		return runtime.NumCPU()
	}
	return r.Workers
}

func (r Runner) tracer() trace.Tracer {
	if r.Tracer == nil {
		return otel.Tracer(tracerName)
	}
	return r.Tracer
}

func (r Runner) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Noop()
	}
	return r.Logger
}

// Outcome is the evaluation of one impactor spec.
type Outcome struct {
	Spec   impactor.ImpactorSpec
	Result impactor.ImpactResult
	Err    error
}

// StateOutcome is the evaluation of one element set at one instant.
type StateOutcome struct {
	Elements impactor.OrbitalElements
	At       time.Time
	State    impactor.OrbitalState
	Err      error
}

// Impacts evaluates every spec. The returned error is only set when ctx ends
// before the sweep completes; unevaluated items then carry the context error.
func (r Runner) Impacts(ctx context.Context, specs []impactor.ImpactorSpec) ([]Outcome, Summary, error) {
	ctx, span := r.tracer().Start(ctx, "batch.Impacts",
		trace.WithAttributes(attribute.Int("batch.size", len(specs)), attribute.Int("batch.workers", r.workers())))
	defer span.End()

	log := r.logger().With(logging.String("sweep", "impacts"))
	start := time.Now()
	out := make([]Outcome, len(specs))
	for i, s := range specs {
		out[i].Spec = s
	}

	err := r.run(ctx, len(specs), func(i int) {
		res, err := impactor.ComputeImpact(specs[i])
		out[i].Result, out[i].Err = res, err
		r.Recorder.ObserveImpact(res, err)
		if err != nil {
			log.Debug(ctx, "impact rejected", logging.Int("index", i), logging.String("spec", specs[i].String()), logging.Err(err))
		}
	}, func(i int, err error) {
		out[i].Err = err
	})

	summary := Summarize(out)
	span.SetAttributes(attribute.Int("batch.failures", summary.Failures))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(ctx, "impact sweep interrupted", logging.Int("count", summary.Count), logging.Err(err))
		return out, summary, err
	}
	log.Info(ctx, "impact sweep finished",
		logging.Int("count", summary.Count),
		logging.Int("failures", summary.Failures),
		logging.Any("elapsed", time.Since(start)))
	return out, summary, nil
}

// States evaluates every element set at every instant. Outcomes are ordered
// element-major: all instants of elements[0] first.
func (r Runner) States(ctx context.Context, elements []impactor.OrbitalElements, instants []time.Time) ([]StateOutcome, error) {
	n := len(elements) * len(instants)
	ctx, span := r.tracer().Start(ctx, "batch.States",
		trace.WithAttributes(attribute.Int("batch.size", n), attribute.Int("batch.workers", r.workers())))
	defer span.End()

	log := r.logger().With(logging.String("sweep", "states"))
	out := make([]StateOutcome, n)
	for i := range out {
		out[i].Elements = elements[i/len(instants)]
		out[i].At = instants[i%len(instants)]
	}

	failures := 0
	err := r.run(ctx, n, func(i int) {
		s, err := impactor.ComputeState(out[i].Elements, out[i].At)
		out[i].State, out[i].Err = s, err
		r.Recorder.ObserveState(s, err)
		if err != nil {
			log.Debug(ctx, "state rejected", logging.Int("index", i), logging.Err(err))
		}
	}, func(i int, err error) {
		out[i].Err = err
	})
	for _, o := range out {
		if o.Err != nil {
			failures++
		}
	}
	span.SetAttributes(attribute.Int("batch.failures", failures))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Warn(ctx, "state sweep interrupted", logging.Err(err))
		return out, err
	}
	log.Info(ctx, "state sweep finished", logging.Int("count", n), logging.Int("failures", failures))
	return out, nil
}

// run calls eval for every index in [0, n) on a bounded pool. Once ctx is done,
// remaining indices are passed to skip with the context error instead.
func (r Runner) run(ctx context.Context, n int, eval func(int), skip func(int, error)) error {
	var g errgroup.Group
	g.SetLimit(r.workers())
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			for j := i; j < n; j++ {
				skip(j, err)
			}
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				skip(i, err)
				return nil
			}
			eval(i)
			return nil
		})
	}
	g.Wait()
	return ctx.Err()
}

// Grid returns the Cartesian product of the given parameters. An empty
// densities or angles slice means that field is omitted, so the default applies.
func Grid(diameters, velocities, densities, angles []float64) []impactor.ImpactorSpec {
	dens := optional(densities)
	angs := optional(angles)
	// Specs get their own copies so changing one never changes another.
	specs := make([]impactor.ImpactorSpec, 0, len(diameters)*len(velocities)*len(dens)*len(angs))
	for _, d := range diameters {
		for _, v := range velocities {
			for _, rho := range dens {
				for _, θ := range angs {
					specs = append(specs, impactor.ImpactorSpec{Diameter: d, Velocity: v, Density: clone(rho), Angle: clone(θ)})
				}
			}
		}
	}
	return specs
}

func clone(p *float64) *float64 {
	if p == nil {
		return nil
	}
	return impactor.Float(*p)
}

func optional(vals []float64) []*float64 {
	if len(vals) == 0 {
		return []*float64{nil}
	}
	ptrs := make([]*float64, len(vals))
	for i, v := range vals {
		ptrs[i] = impactor.Float(v)
	}
	return ptrs
}

// Summary aggregates the successful outcomes of an impact sweep.
type Summary struct {
	Count        int                       `json:"count"`
	Failures     int                       `json:"failures"`
	MeanMT       float64                   `json:"mean_megatons"`
	StdDevMT     float64                   `json:"stddev_megatons"`
	MedianMT     float64                   `json:"median_megatons"`
	BySeverity   map[impactor.Severity]int `json:"by_severity"`
	MaxEnergy    *impactor.ImpactorSpec    `json:"max_energy_spec,omitempty"`
	MaxEnergyMT  float64                   `json:"max_megatons"`
	MaxSeverity  impactor.Severity         `json:"-"`
	FailureCause map[string]int            `json:"failure_causes,omitempty"`
}

// Summarize computes the summary of a set of outcomes.
func Summarize(outcomes []Outcome) Summary {
	s := Summary{
		Count:      len(outcomes),
		BySeverity: make(map[impactor.Severity]int),
	}
	energies := make([]float64, 0, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			s.Failures++
			if s.FailureCause == nil {
				s.FailureCause = make(map[string]int)
			}
			s.FailureCause[observability.Outcome(o.Err)]++
			continue
		}
		mt := o.Result.Energy.MegatonsTNT
		energies = append(energies, mt)
		s.BySeverity[o.Result.Severity]++
		if s.MaxEnergy == nil || mt > s.MaxEnergyMT {
			s.MaxEnergy = &outcomes[i].Spec
			s.MaxEnergyMT = mt
			s.MaxSeverity = o.Result.Severity
		}
	}
	switch len(energies) {
	case 0:
		return s
	case 1:
		s.MeanMT, s.MedianMT = energies[0], energies[0]
		return s
	}
	s.MeanMT, s.StdDevMT = stat.MeanStdDev(energies, nil)
	sort.Float64s(energies)
	s.MedianMT = stat.Quantile(0.5, stat.LinInterp, energies, nil)
	return s
}

// String implements the Stringer interface.
func (s Summary) String() string {
	str := fmt.Sprintf("%d evaluated, %d failed", s.Count, s.Failures)
	if s.MaxEnergy != nil {
		str += fmt.Sprintf("\nenergy: mean %.4g MT, σ %.4g MT, median %.4g MT", s.MeanMT, s.StdDevMT, s.MedianMT)
		for _, sev := range impactor.Severities() {
			if n := s.BySeverity[sev]; n > 0 {
				str += fmt.Sprintf("\n  %-12s %d", sev, n)
			}
		}
		str += fmt.Sprintf("\nlargest: %s -> %.4g MT (%s)", *s.MaxEnergy, s.MaxEnergyMT, s.MaxSeverity)
	}
	causes := make([]string, 0, len(s.FailureCause))
	for cause := range s.FailureCause {
		causes = append(causes, cause)
	}
	sort.Strings(causes)
	for _, cause := range causes {
		str += fmt.Sprintf("\n  failed %-16s %d", cause, s.FailureCause[cause])
	}
	return str
}
