package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// profileSchema is the JSON Schema every session profile must satisfy.
const profileSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "scancert://schema/session-profile-v1",
  "type": "object",
  "required": ["version", "steps"],
  "properties": {
    "version": {"type": "integer", "const": 1},
    "name": {"type": "string"},
    "steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "wait_for_data": {"type": "boolean"}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`

// Profile is a JSON session plan shared between certification runs.
type Profile struct {
	Version int    `json:"version"`
	Name    string `json:"name"`
	Steps   []Step `json:"steps"`
}

var compiledProfileSchema = func() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("session-profile-v1.schema.json", bytes.NewReader([]byte(profileSchema))); err != nil {
		panic(err)
	}
	return c.MustCompile("session-profile-v1.schema.json")
}()

// LoadProfile reads and validates a JSON session profile.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var instance any
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if err := compiledProfileSchema.Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", path, err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// PlanSteps resolves the session plan: the profile when one is
// configured, otherwise the inline steps.
func (c *Config) PlanSteps() ([]Step, error) {
	if c.Session.ProfilePath == "" {
		return c.Session.Steps, nil
	}
	p, err := LoadProfile(c.Session.ProfilePath)
	if err != nil {
		return nil, err
	}
	return p.Steps, nil
}
