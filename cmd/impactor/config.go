package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/orbitlab/impactor"
	"github.com/orbitlab/impactor/internal/logging"
)

const envPrefix = "IMPACTOR"

// Config is the CLI configuration, read from impactor.yaml and IMPACTOR_* variables.
type Config struct {
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Encounter EncounterConfig `yaml:"encounter" mapstructure:"encounter"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Tracing   TracingConfig   `yaml:"tracing" mapstructure:"tracing"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// BatchConfig configures sweeps.
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig selects how results are printed.
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// EncounterConfig configures the orbit distance sampling.
type EncounterConfig struct {
	Samples int `yaml:"samples" mapstructure:"samples"`
}

// MetricsConfig toggles the metrics dump at exit.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// TracingConfig toggles span export to stderr.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" mapstructure:"enabled"`
	SampleRatio float64 `yaml:"sample_ratio" mapstructure:"sample_ratio"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Format: "text"},
		Batch:     BatchConfig{Workers: 0},
		Output:    OutputConfig{Format: "text"},
		Encounter: EncounterConfig{Samples: impactor.DefaultEncounterSamples},
		Metrics:   MetricsConfig{Enabled: false},
		Tracing:   TracingConfig{Enabled: false, SampleRatio: 1},
	}
}

// LoadConfig reads the configuration into v. An explicit file must exist; otherwise
// impactor.yaml is searched in $IMPACTOR_CONFIG, the working directory and $HOME/.impactor,
// and a missing file leaves the defaults in place.
func LoadConfig(v *viper.Viper, file string) (*Config, error) {
	def := DefaultConfig()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("batch.workers", def.Batch.Workers)
	v.SetDefault("output.format", def.Output.Format)
	v.SetDefault("encounter.samples", def.Encounter.Samples)
	v.SetDefault("metrics.enabled", def.Metrics.Enabled)
	v.SetDefault("tracing.enabled", def.Tracing.Enabled)
	v.SetDefault("tracing.sample_ratio", def.Tracing.SampleRatio)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("impactor")
		v.SetConfigType("yaml")
		if dir := os.Getenv(envPrefix + "_CONFIG"); dir != "" {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".impactor"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

func validateConfig(c *Config) error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return fmt.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json", "logfmt":
	default:
		return fmt.Errorf("log.format must be text, json or logfmt, got %q", c.Log.Format)
	}
	if c.Batch.Workers < 0 {
		return fmt.Errorf("batch.workers cannot be negative, got %d", c.Batch.Workers)
	}
	if c.Encounter.Samples < 1 {
		return fmt.Errorf("encounter.samples must be at least 1, got %d", c.Encounter.Samples)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %g", c.Tracing.SampleRatio)
	}
	return nil
}

// Logger builds the logger described by the configuration, writing to stderr.
func (c *Config) Logger() logging.Logger {
	return logging.New(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
}
