package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/orbitlab/impactor"
	"github.com/orbitlab/impactor/batch"
	"github.com/orbitlab/impactor/internal/logging"
)

type stateReport struct {
	Body            string                `json:"body"`
	At              time.Time             `json:"at"`
	DaysSinceJ2000  float64               `json:"days_since_j2000"`
	State           impactor.OrbitalState `json:"state"`
	FlightPathAngle float64               `json:"flight_path_angle_deg"`
	Position        *impactor.Vector3     `json:"position_au,omitempty"`
}

func (r stateReport) String() string {
	str := fmt.Sprintf("%s @ %s\n  %s\n  γ=%.4f°", r.Body, r.At.Format(time.RFC3339), r.State, r.FlightPathAngle)
	if r.Position != nil {
		str += fmt.Sprintf("\n  R=%s AU", *r.Position)
	}
	return str
}

// report computes the state of b at t, with its position when the elements are oriented.
func (a *app) report(b impactor.Body, t time.Time) (stateReport, error) {
	s, err := b.State(t)
	a.rec.ObserveState(s, err)
	if err != nil {
		return stateReport{}, err
	}
	r := stateReport{
		Body:            b.Name,
		At:              t,
		DaysSinceJ2000:  impactor.DaysSinceJ2000(t),
		State:           s,
		FlightPathAngle: impactor.Rad2deg(s.FlightPathAngle()),
	}
	if b.Elements.Orientation != nil {
		R, _, err := b.Position(t)
		if err != nil {
			return stateReport{}, err
		}
		r.Position = &R
	}
	return r, nil
}

func (a *app) stateCmd() *cobra.Command {
	var body, file, name, at string
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Compute the orbital state of a body at an instant",
		Example: `  impactor state --body mars --at 2024-03-20T00:00:00Z
  impactor state --elements neos.yaml --name Apophis --at 2461000.5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseInstant(at)
			if err != nil {
				return err
			}
			bodies, err := selectBodies(body, file, name)
			if err != nil {
				return err
			}
			reports := make([]stateReport, 0, len(bodies))
			texts := make([]string, 0, len(bodies))
			for _, b := range bodies {
				r, err := a.report(b, t)
				if err != nil {
					return err
				}
				a.log.Debug(cmd.Context(), "state computed", logging.String("body", b.Name), logging.Int("iterations", r.State.Iterations))
				reports = append(reports, r)
				texts = append(texts, r.String())
			}
			if len(reports) == 1 {
				return a.print(reports[0], texts[0])
			}
			return a.print(reports, strings.Join(texts, "\n"))
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "catalog planet name")
	cmd.Flags().StringVar(&file, "elements", "", "YAML file of body elements")
	cmd.Flags().StringVar(&name, "name", "", "body to select from --elements (default all)")
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC 3339 or Julian date (default now)")
	return cmd
}

func (a *app) planetsCmd() *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "planets",
		Short: "Compute the state of every catalog planet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := parseInstant(at)
			if err != nil {
				return err
			}
			planets := impactor.Planets()
			elements := make([]impactor.OrbitalElements, len(planets))
			for i, p := range planets {
				elements[i] = p.Elements
			}
			runner := batch.Runner{Workers: a.cfg.Batch.Workers, Logger: a.log, Recorder: a.rec}
			outcomes, err := runner.States(cmd.Context(), elements, []time.Time{t})
			if err != nil {
				return err
			}
			reports := make([]stateReport, len(planets))
			var text strings.Builder
			fmt.Fprintf(&text, "%-8s %12s %12s %10s %12s\n", "body", "M (deg)", "ν (deg)", "r (AU)", "v (km/s)")
			for i, o := range outcomes {
				if o.Err != nil {
					return fmt.Errorf("%s: %w", planets[i].Name, o.Err)
				}
				reports[i] = stateReport{
					Body:            planets[i].Name,
					At:              t,
					DaysSinceJ2000:  impactor.DaysSinceJ2000(t),
					State:           o.State,
					FlightPathAngle: impactor.Rad2deg(o.State.FlightPathAngle()),
				}
				if R, _, err := planets[i].Position(t); err == nil {
					reports[i].Position = &R
				}
				fmt.Fprintf(&text, "%-8s %12.4f %12.4f %10.6f %12.4f\n", planets[i].Name,
					o.State.MeanAnomaly, o.State.TrueAnomaly, o.State.Distance, o.State.Speed)
			}
			return a.print(reports, text.String())
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "instant as RFC 3339 or Julian date (default now)")
	return cmd
}

// impactFlags registers the impactor parameters on cmd and returns a builder
// that leaves density and angle omitted unless they were set.
func impactFlags(cmd *cobra.Command, required bool) func() (*impactor.ImpactorSpec, error) {
	var diameter, velocity, density, angle float64
	f := cmd.Flags()
	f.Float64Var(&diameter, "diameter", 0, "impactor diameter in km")
	f.Float64Var(&velocity, "velocity", 0, "impact velocity in km/s")
	f.Float64Var(&density, "density", impactor.DefaultDensity, "impactor density in kg/m³")
	f.Float64Var(&angle, "angle", impactor.DefaultAngle, "entry angle in degrees from horizontal")
	if required {
		cmd.MarkFlagRequired("diameter")
		cmd.MarkFlagRequired("velocity")
	}
	return func() (*impactor.ImpactorSpec, error) {
		if !f.Changed("diameter") && !f.Changed("velocity") {
			return nil, nil
		}
		if !f.Changed("diameter") || !f.Changed("velocity") {
			return nil, errors.New("--diameter and --velocity must be given together")
		}
		spec := &impactor.ImpactorSpec{Diameter: diameter, Velocity: velocity}
		if f.Changed("density") {
			spec.Density = impactor.Float(density)
		}
		if f.Changed("angle") {
			spec.Angle = impactor.Float(angle)
		}
		return spec, nil
	}
}

func (a *app) impactCmd() *cobra.Command {
	var oceanDepth float64
	cmd := &cobra.Command{
		Use:     "impact",
		Short:   "Estimate the consequences of an impact",
		Example: "  impactor impact --diameter 0.01 --velocity 15 --density 3300",
		Args:    cobra.NoArgs,
	}
	spec := impactFlags(cmd, true)
	cmd.Flags().Float64Var(&oceanDepth, "ocean-depth", 0, "water depth in m for an ocean impact")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		s, err := spec()
		if err != nil {
			return err
		}
		var res impactor.ImpactResult
		if cmd.Flags().Changed("ocean-depth") {
			res, err = impactor.ComputeOceanImpact(*s, oceanDepth)
		} else {
			res, err = impactor.ComputeImpact(*s)
		}
		a.rec.ObserveImpact(res, err)
		if err != nil {
			return err
		}
		text := fmt.Sprintf("%s\n%s", s, res)
		if h := res.Damage.TsunamiHeight; h != nil {
			text += fmt.Sprintf("\ntsunami height %.2f m", *h)
		}
		return a.print(res, text)
	}
	return cmd
}

func (a *app) sweepCmd() *cobra.Command {
	var file string
	var details bool
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Evaluate a grid of impactors in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sf, err := loadSweep(file)
			if err != nil {
				return err
			}
			specs := append(batch.Grid(sf.Diameters, sf.Velocities, sf.Densities, sf.Angles), sf.Impactors...)
			runner := batch.Runner{Workers: a.cfg.Batch.Workers, Logger: a.log, Recorder: a.rec}
			outcomes, summary, err := runner.Impacts(cmd.Context(), specs)
			if err != nil {
				return err
			}
			if !details {
				return a.print(summary, summary.String())
			}
			type row struct {
				Spec   impactor.ImpactorSpec  `json:"spec"`
				Result *impactor.ImpactResult `json:"result,omitempty"`
				Error  string                 `json:"error,omitempty"`
			}
			rows := make([]row, len(outcomes))
			var text strings.Builder
			for i, o := range outcomes {
				rows[i].Spec = o.Spec
				if o.Err != nil {
					rows[i].Error = o.Err.Error()
					fmt.Fprintf(&text, "%s: %v\n", o.Spec, o.Err)
					continue
				}
				rows[i].Result = &outcomes[i].Result
				fmt.Fprintf(&text, "%s: %s\n", o.Spec, o.Result)
			}
			text.WriteString(summary.String())
			return a.print(struct {
				Outcomes []row         `json:"outcomes"`
				Summary  batch.Summary `json:"summary"`
			}{rows, summary}, text.String())
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML sweep file")
	cmd.Flags().BoolVar(&details, "details", false, "print every outcome, not only the summary")
	cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) encounterCmd() *cobra.Command {
	var body, file, name string
	var samples int
	cmd := &cobra.Command{
		Use:     "encounter",
		Short:   "Assess how close a body's orbit comes to the Earth's",
		Example: "  impactor encounter --elements neos.yaml --name Apophis --diameter 0.37 --velocity 12.6",
		Args:    cobra.NoArgs,
	}
	spec := impactFlags(cmd, false)
	cmd.Flags().StringVar(&body, "body", "", "catalog planet name")
	cmd.Flags().StringVar(&file, "elements", "", "YAML file of body elements")
	cmd.Flags().StringVar(&name, "name", "", "body to select from --elements (default all)")
	cmd.Flags().IntVar(&samples, "samples", 0, "mean anomaly samples per orbit (default from config)")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		bodies, err := selectBodies(body, file, name)
		if err != nil {
			return err
		}
		s, err := spec()
		if err != nil {
			return err
		}
		if samples == 0 {
			samples = a.cfg.Encounter.Samples
		}
		type report struct {
			Body string `json:"body"`
			impactor.EncounterAnalysis
		}
		reports := make([]report, 0, len(bodies))
		var text strings.Builder
		for _, b := range bodies {
			ea, err := impactor.AssessEncounter(b.Elements, impactor.Earth.Elements, samples, s)
			if err != nil {
				return fmt.Errorf("%s: %w", b.Name, err)
			}
			if ea.Impact != nil {
				a.rec.ObserveImpact(*ea.Impact, nil)
			}
			a.log.Info(cmd.Context(), "encounter assessed",
				logging.String("body", b.Name),
				logging.Float64("moid_km", ea.ClosestApproach),
				logging.String("risk", ea.Risk.String()))
			reports = append(reports, report{b.Name, ea})
			fmt.Fprintf(&text, "%s: closest approach %.0f km (%.4f AU, %.1f R⊕), impact probability %.2f%%, risk %s: %s\n",
				b.Name, ea.ClosestApproach, ea.ClosestApproachAU, ea.ClosestApproachEarthRadii, ea.ImpactProbability, ea.Risk, ea.EstimatedDamage)
			if ea.Impact != nil {
				fmt.Fprintf(&text, "  if it hits: %s\n", ea.Impact)
			}
		}
		return a.print(reports, text.String())
	}
	return cmd
}

func (a *app) trackCmd() *cobra.Command {
	var body, file, name, from, to, cosmo string
	var step time.Duration
	cmd := &cobra.Command{
		Use:   "track",
		Short: "Sample the heliocentric track of a body",
		Long: `track samples the heliocentric ecliptic position and velocity of a body.
The track is printed as CSV (or JSON with --output json). With --cosmo, the
Cosmographia interpolated states and catalog are also written to that directory.`,
		Example: `  impactor track --body mars --from 2451545 --to 2452232 --step 48h
  impactor track --elements neos.yaml --name Apophis --cosmo ./out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			bodies, err := selectBodies(body, file, name)
			if err != nil {
				return err
			}
			if len(bodies) != 1 {
				return fmt.Errorf("track needs a single body, %s holds %d: use --name", file, len(bodies))
			}
			b := bodies[0]
			start, err := parseInstant(from)
			if err != nil {
				return err
			}
			var end time.Time
			if to != "" {
				if end, err = parseInstant(to); err != nil {
					return err
				}
			} else {
				// One period by default, as long as it fits in a time.Duration.
				span := b.Elements.Period * 24 * float64(time.Hour)
				if span >= math.MaxInt64 {
					return fmt.Errorf("%s: one period (%.0f days) is too long for a default track: pass --to", b.Name, b.Elements.Period)
				}
				end = start.Add(time.Duration(span))
			}
			points, err := impactor.Track(b, start, end, step)
			if err != nil {
				return err
			}
			for _, p := range points {
				a.rec.ObserveState(p.State, nil)
			}
			a.log.Info(cmd.Context(), "track sampled",
				logging.String("body", b.Name),
				logging.Int("points", len(points)),
				logging.String("step", step.String()))
			if cosmo != "" {
				if err := a.writeCosmographia(cmd, cosmo, b.Name, points); err != nil {
					return err
				}
			}
			if a.cfg.Output.Format == "json" {
				return a.print(points, "")
			}
			return impactor.WriteTrackCSV(a.stdout, points)
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "catalog planet name")
	cmd.Flags().StringVar(&file, "elements", "", "YAML file of body elements")
	cmd.Flags().StringVar(&name, "name", "", "body to select from --elements")
	cmd.Flags().StringVar(&from, "from", "", "first instant as RFC 3339 or Julian date (default now)")
	cmd.Flags().StringVar(&to, "to", "", "last instant as RFC 3339 or Julian date (default one period after --from)")
	cmd.Flags().DurationVar(&step, "step", 24*time.Hour, "sampling step")
	cmd.Flags().StringVar(&cosmo, "cosmo", "", "directory for the Cosmographia files")
	return cmd
}

// writeCosmographia writes track-<name>.xyzv and catalog-<name>.json into dir.
func (a *app) writeCosmographia(cmd *cobra.Command, dir, name string, points []impactor.TrackPoint) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	slug := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	source := fmt.Sprintf("track-%s.xyzv", slug)
	catalog, err := impactor.NewCgCatalog(name, source, points)
	if err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(dir, source))
	if err != nil {
		return err
	}
	if err := impactor.WriteInterpolatedStates(f, points); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	marsh, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return err
	}
	catalogFile := filepath.Join(dir, fmt.Sprintf("catalog-%s.json", slug))
	if err := os.WriteFile(catalogFile, marsh, 0o644); err != nil {
		return err
	}
	a.log.Info(cmd.Context(), "cosmographia files saved", logging.String("catalog", catalogFile), logging.String("states", source))
	return nil
}
