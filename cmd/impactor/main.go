// Command impactor computes orbital states of heliocentric bodies and the
// consequences of hypothetical asteroid impacts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/orbitlab/impactor"
	"github.com/orbitlab/impactor/internal/logging"
	"github.com/orbitlab/impactor/internal/observability"
)

const appName = "impactor"

var version = "dev"

// app carries what every command needs once the configuration is loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *Config
	log     logging.Logger
	rec     *observability.Recorder
	tracing func(context.Context) error
	stdout  io.Writer
	stderr  io.Writer
}

func main() {
	root := newRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   appName,
		Short: "Orbital state and impact physics calculator",
		Long: `impactor propagates heliocentric bodies along their Keplerian ellipse and
estimates the energy, crater, damage radii and severity of asteroid impacts.

Configuration is read from impactor.yaml (in $IMPACTOR_CONFIG, the working
directory or $HOME/.impactor) and IMPACTOR_* environment variables.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.init(cmd); err != nil {
				return fmt.Errorf("failed to initialize config: %w", err)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			observability.ShutdownWithTimeout(cmd.Context(), a.tracing, a.log)
			if a.cfg == nil || !a.cfg.Metrics.Enabled {
				return nil
			}
			return a.rec.WriteSummary(a.stderr)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is ./impactor.yaml or $HOME/.impactor/impactor.yaml)")
	pf.StringP("output", "o", "", "output format (text|json)")
	pf.String("log-level", "", "log level (debug|info|warn|error)")
	pf.Bool("metrics", false, "print evaluation metrics to stderr at exit")
	pf.Bool("tracing", false, "write trace spans as JSON to stderr")
	a.v.BindPFlag("output.format", pf.Lookup("output"))
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	a.v.BindPFlag("metrics.enabled", pf.Lookup("metrics"))
	a.v.BindPFlag("tracing.enabled", pf.Lookup("tracing"))

	root.AddCommand(
		a.stateCmd(),
		a.impactCmd(),
		a.sweepCmd(),
		a.planetsCmd(),
		a.encounterCmd(),
		a.trackCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := LoadConfig(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = cfg.Logger().With(logging.String("command", cmd.Name()))
	if cfg.Metrics.Enabled {
		if a.rec, err = observability.NewRecorder(prometheus.NewRegistry()); err != nil {
			return err
		}
	}
	a.tracing, err = observability.InitTracing(cmd.Context(), observability.TracingConfig{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: appName,
		SampleRatio: cfg.Tracing.SampleRatio,
	}, a.stderr, a.log)
	if err != nil {
		return err
	}
	a.log.Debug(cmd.Context(), "configuration loaded",
		logging.String("output", cfg.Output.Format),
		logging.Int("workers", cfg.Batch.Workers),
		logging.Int("samples", cfg.Encounter.Samples))
	return nil
}

// print writes v as indented JSON, or its text rendering.
func (a *app) print(v any, text string) error {
	if a.cfg.Output.Format == "json" {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(a.stdout, strings.TrimRight(text, "\n"))
	return err
}

// parseInstant accepts either a Julian date or an RFC 3339 timestamp. Empty means now.
func parseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now().UTC(), nil
	}
	if jd, err := strconv.ParseFloat(s, 64); err == nil {
		return julian.JDToTime(jd), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not understand instant %q: want a Julian date or RFC 3339", s)
	}
	return t, nil
}

// selectBodies resolves --body or --elements (optionally filtered by --name) into bodies.
func selectBodies(body, file, name string) ([]impactor.Body, error) {
	switch {
	case body != "" && file != "":
		return nil, fmt.Errorf("--body and --elements are mutually exclusive")
	case body != "":
		b, err := impactor.BodyFromString(body)
		if err != nil {
			return nil, err
		}
		return []impactor.Body{b}, nil
	case file != "":
		bodies, err := loadCatalog(file)
		if err != nil {
			return nil, err
		}
		if name == "" {
			return bodies, nil
		}
		for _, b := range bodies {
			if strings.EqualFold(b.Name, name) {
				return []impactor.Body{b}, nil
			}
		}
		return nil, fmt.Errorf("body %q not found in %s", name, file)
	default:
		return nil, fmt.Errorf("one of --body or --elements is required")
	}
}
