package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigValidates(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeConfig(t, "config.toml", `
version = 1

[driver]
name = "acme-scan"
data_message = "ACME_XFER_READY"

[session]
step_timeout_sec = 5

[[session.steps]]
name = "startup"

[[session.steps]]
name = "transfer"
wait_for_data = true

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Driver.Name != "acme-scan" {
		t.Errorf("driver name = %q", cfg.Driver.Name)
	}
	if cfg.Driver.DataMessage != "ACME_XFER_READY" {
		t.Errorf("data message = %q", cfg.Driver.DataMessage)
	}
	if len(cfg.Session.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(cfg.Session.Steps))
	}
	if !cfg.Session.Steps[1].WaitForData {
		t.Error("transfer step should wait for data")
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
	// Defaults fill what the file leaves out.
	if cfg.Report.Path == "" {
		t.Error("report path default missing")
	}
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
  "version": 1,
  "driver": {"name": "jsondrv"},
  "session": {"steps": [{"name": "startup"}]}
}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Driver.Name != "jsondrv" {
		t.Errorf("driver name = %q", cfg.Driver.Name)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
version: 1
driver:
  name: yamldrv
session:
  steps:
    - name: startup
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Driver.Name != "yamldrv" {
		t.Errorf("driver name = %q", cfg.Driver.Name)
	}
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadMalformedFails(t *testing.T) {
	path := writeConfig(t, "config.toml", "version = [broken")
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero timeout", func(c *Config) { c.Session.StepTimeoutSec = 0 }},
		{"empty data message", func(c *Config) { c.Driver.DataMessage = "" }},
		{"empty step name", func(c *Config) { c.Session.Steps = []Step{{Name: ""}} }},
		{"empty report path", func(c *Config) { c.Report.Path = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := DefaultConfig()
			test.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SCANCERT_DRIVER_NAME", "envdrv")
	t.Setenv("SCANCERT_LOG_LEVEL", "error")

	cfg := DefaultConfig()
	cfg.ApplyEnvOverrides()

	if cfg.Driver.Name != "envdrv" {
		t.Errorf("driver name = %q", cfg.Driver.Name)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("logging level = %q", cfg.Logging.Level)
	}
}

func TestLoadProfile(t *testing.T) {
	path := writeConfig(t, "profile.json", `{
  "version": 1,
  "name": "basic",
  "steps": [
    {"name": "startup"},
    {"name": "transfer", "wait_for_data": true}
  ]
}`)

	p, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("load profile failed: %v", err)
	}
	if p.Name != "basic" {
		t.Errorf("profile name = %q", p.Name)
	}
	if len(p.Steps) != 2 || !p.Steps[1].WaitForData {
		t.Errorf("unexpected steps: %+v", p.Steps)
	}
}

func TestLoadProfileRejectsSchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing version", `{"steps": []}`},
		{"wrong version", `{"version": 2, "steps": []}`},
		{"empty step name", `{"version": 1, "steps": [{"name": ""}]}`},
		{"unknown field", `{"version": 1, "steps": [], "extra": true}`},
		{"not json", `steps: yes`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			path := writeConfig(t, "profile.json", test.content)
			if _, err := LoadProfile(path); err == nil {
				t.Error("expected profile to be rejected")
			}
		})
	}
}

func TestPlanStepsPrefersProfile(t *testing.T) {
	path := writeConfig(t, "profile.json", `{
  "version": 1,
  "steps": [{"name": "from-profile"}]
}`)

	cfg := DefaultConfig()
	cfg.Session.Steps = []Step{{Name: "inline"}}
	cfg.Session.ProfilePath = path

	steps, err := cfg.PlanSteps()
	if err != nil {
		t.Fatalf("plan steps failed: %v", err)
	}
	if len(steps) != 1 || steps[0].Name != "from-profile" {
		t.Errorf("unexpected plan: %+v", steps)
	}

	cfg.Session.ProfilePath = ""
	steps, err = cfg.PlanSteps()
	if err != nil {
		t.Fatalf("plan steps failed: %v", err)
	}
	if len(steps) != 1 || steps[0].Name != "inline" {
		t.Errorf("unexpected inline plan: %+v", steps)
	}
}
