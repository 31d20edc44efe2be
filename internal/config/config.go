// Package config handles configuration loading from YAML files and
// environment variables. Precedence: CLI flags > environment variables >
// config file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a wrapper around time.Duration that supports YAML unmarshaling
// from human-readable strings like "1s", "500ms", "5m".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("unsupported duration format: %v", value.Kind)
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// Config holds all tool configuration.
type Config struct {
	Sampling SamplingConfig `yaml:"sampling"`
	Output   OutputConfig   `yaml:"output"`
	State    StateConfig    `yaml:"state"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SamplingConfig holds collection settings.
type SamplingConfig struct {
	Interval  Duration `yaml:"interval"`
	Interface string   `yaml:"interface"`
}

// OutputConfig holds default rendering settings; CLI flags override them.
type OutputConfig struct {
	Format   string `yaml:"format"`
	NetUnits string `yaml:"net_units"`
}

// StateConfig controls the cross-invocation state file.
type StateConfig struct {
	// AppName keys the state file in the temp directory, so different tools
	// (or parallel deployments of this one) do not share state.
	AppName string `yaml:"app_name"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// intervalBounds for sampling, matching the CLI contract.
const (
	MinInterval = 100 * time.Millisecond
	MaxInterval = time.Hour
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Sampling: SamplingConfig{
			Interval: Duration{1 * time.Second},
		},
		Output: OutputConfig{
			Format:   "text",
			NetUnits: "bits",
		},
		State: StateConfig{
			AppName: "hkmon",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration with the precedence chain env > file > defaults.
// An empty path triggers auto-discovery via the platform search paths; a
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = locate()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// locate searches standard config file paths and returns the first one found,
// or empty when none exists.
func locate() string {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if level := os.Getenv("HKMON_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
	if name := os.Getenv("HKMON_STATE_NAME"); name != "" {
		cfg.State.AppName = name
	}
	if format := os.Getenv("HKMON_FORMAT"); format != "" {
		cfg.Output.Format = format
	}
	if interval := os.Getenv("HKMON_INTERVAL"); interval != "" {
		if secs, err := strconv.ParseFloat(interval, 64); err == nil {
			cfg.Sampling.Interval = Duration{time.Duration(secs * float64(time.Second))}
		}
	}
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if d := c.Sampling.Interval.Duration; d < MinInterval || d > MaxInterval {
		return fmt.Errorf("sampling interval %v out of range [%v, %v]", d, MinInterval, MaxInterval)
	}
	switch c.Output.Format {
	case "text", "json", "csv":
	default:
		return fmt.Errorf("unknown output format %q (want text, json, or csv)", c.Output.Format)
	}
	switch c.Output.NetUnits {
	case "bits", "bytes":
	default:
		return fmt.Errorf("unknown network units %q (want bits or bytes)", c.Output.NetUnits)
	}
	if c.State.AppName == "" {
		return fmt.Errorf("state app name must not be empty")
	}
	return nil
}
