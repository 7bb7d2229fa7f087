// Package config loads and validates ums-hooks.yaml: an accumulator-style
// validator and a string-duration YAML wrapper for settings like "500ms".
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level ums-hooks.yaml document.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// Settings holds the coordination layer's tunables.
type Settings struct {
	PollInterval        Duration `yaml:"poll_interval"`
	BlockingTimeout     Duration `yaml:"blocking_timeout"`
	FailOpen            bool     `yaml:"fail_open"`
	ModelIgnorePatterns []string `yaml:"model_ignore_patterns,omitempty"`
	ModelDir            string   `yaml:"model_dir,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling from strings like "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Default settings, applied by parse when the YAML document omits a field.
// FailOpen has no default constant: the zero value is the fail-closed
// default, and a pre-commit hook that cannot reach a result blocks the
// commit unless fail_open is set explicitly.
const (
	DefaultPollInterval    = 500 * time.Millisecond
	DefaultBlockingTimeout = 5 * time.Second
	// DefaultModelDir is where the in-process UMS fake looks for model
	// resources when no real UMS process is wired in.
	DefaultModelDir = "models"
)

// Load reads and parses path, applying defaults for omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}

	if cfg.Settings.PollInterval == 0 {
		cfg.Settings.PollInterval = Duration(DefaultPollInterval)
	}
	if cfg.Settings.BlockingTimeout == 0 {
		cfg.Settings.BlockingTimeout = Duration(DefaultBlockingTimeout)
	}
	if cfg.Settings.ModelDir == "" {
		cfg.Settings.ModelDir = DefaultModelDir
	}

	return &cfg, nil
}

// Validate checks cfg for internally inconsistent settings, accumulating
// every violation found rather than failing fast on the first one.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Settings.PollInterval.Duration() <= 0 {
		errs = append(errs, fmt.Errorf("settings.poll_interval must be positive"))
	}
	if cfg.Settings.BlockingTimeout.Duration() <= 0 {
		errs = append(errs, fmt.Errorf("settings.blocking_timeout must be positive"))
	}
	if cfg.Settings.BlockingTimeout.Duration() < cfg.Settings.PollInterval.Duration() {
		errs = append(errs, fmt.Errorf("settings.blocking_timeout (%s) must be at least settings.poll_interval (%s)",
			cfg.Settings.BlockingTimeout.Duration(), cfg.Settings.PollInterval.Duration()))
	}

	return errs
}
