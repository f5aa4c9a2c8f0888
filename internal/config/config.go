// Package config handles configuration loading and validation for scancert.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Version is the current configuration schema version.
const Version = 1

// Config holds the complete harness configuration.
type Config struct {
	// Version is the configuration schema version.
	Version int `toml:"version" json:"version" yaml:"version"`

	// Driver identifies the scanner driver under certification.
	Driver DriverConfig `toml:"driver" json:"driver" yaml:"driver"`

	// Session configures the certification session plan.
	Session SessionConfig `toml:"session" json:"session" yaml:"session"`

	// Report configures the results journal.
	Report ReportConfig `toml:"report" json:"report" yaml:"report"`

	// Logging configuration.
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`
}

// DriverConfig identifies the driver under test.
type DriverConfig struct {
	// Name is the display name of the driver under certification.
	Name string `toml:"name" json:"name" yaml:"name"`

	// DataMessage is the registered window-message name the driver
	// posts when transfer data is ready. The harness consumes these
	// messages before normal dispatch.
	DataMessage string `toml:"data_message" json:"data_message" yaml:"data_message"`
}

// SessionConfig configures the certification session.
type SessionConfig struct {
	// ProfilePath is an optional JSON session profile. When set, the
	// plan steps come from the profile instead of Steps below.
	ProfilePath string `toml:"profile_path" json:"profile_path" yaml:"profile_path"`

	// Steps is the inline session plan.
	Steps []Step `toml:"steps" json:"steps" yaml:"steps"`

	// StepTimeoutSec bounds each step that waits on a driver
	// notification.
	StepTimeoutSec int `toml:"step_timeout_sec" json:"step_timeout_sec" yaml:"step_timeout_sec"`
}

// Step is a single entry in the session plan.
type Step struct {
	// Name identifies the step in logs and the journal.
	Name string `toml:"name" json:"name" yaml:"name"`

	// WaitForData makes the step block until the driver posts a
	// data-ready notification, bounded by the step timeout.
	WaitForData bool `toml:"wait_for_data" json:"wait_for_data" yaml:"wait_for_data"`
}

// ReportConfig configures the results journal.
type ReportConfig struct {
	// Path is the SQLite journal file.
	Path string `toml:"path" json:"path" yaml:"path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level    string `toml:"level" json:"level" yaml:"level"`
	Format   string `toml:"format" json:"format" yaml:"format"`
	Output   string `toml:"output" json:"output" yaml:"output"`
	FilePath string `toml:"file_path" json:"file_path" yaml:"file_path"`
}

// DefaultConfig returns the default harness configuration.
func DefaultConfig() *Config {
	return &Config{
		Version: Version,
		Driver: DriverConfig{
			DataMessage: "SCANCERT_DATA_READY",
		},
		Session: SessionConfig{
			StepTimeoutSec: 30,
		},
		Report: ReportConfig{
			Path: filepath.Join(DataDir(), "results.db"),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// DataDir returns the harness data directory.
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".scancert")
}

// ConfigPath returns the default configuration file path.
func ConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = DataDir()
	}
	return filepath.Join(dir, "scancert", "config.toml")
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Version <= 0 {
		errs = append(errs, fmt.Errorf("version must be positive, got %d", c.Version))
	}
	if c.Driver.DataMessage == "" {
		errs = append(errs, errors.New("driver.data_message must not be empty"))
	}
	if c.Session.StepTimeoutSec <= 0 {
		errs = append(errs, fmt.Errorf("session.step_timeout_sec must be positive, got %d", c.Session.StepTimeoutSec))
	}
	for i, s := range c.Session.Steps {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("session.steps[%d]: name must not be empty", i))
		}
	}
	if c.Report.Path == "" {
		errs = append(errs, errors.New("report.path must not be empty"))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level: unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// ApplyEnvOverrides applies SCANCERT_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SCANCERT_DRIVER_NAME"); v != "" {
		c.Driver.Name = v
	}
	if v := os.Getenv("SCANCERT_DATA_MESSAGE"); v != "" {
		c.Driver.DataMessage = v
	}
	if v := os.Getenv("SCANCERT_SESSION_PROFILE"); v != "" {
		c.Session.ProfilePath = v
	}
	if v := os.Getenv("SCANCERT_REPORT_PATH"); v != "" {
		c.Report.Path = v
	}
	if v := os.Getenv("SCANCERT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SCANCERT_LOG_OUTPUT"); v != "" {
		c.Logging.Output = v
	}
}
