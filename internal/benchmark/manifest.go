package benchmark

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SuiteConfig describes how to produce one suite's measurements.
type SuiteConfig struct {
	Name       string   `yaml:"name"`
	Tool       string   `yaml:"tool"`
	Command    []string `yaml:"command,omitempty"`
	OutputFile string   `yaml:"outputFile,omitempty"`
	Dir        string   `yaml:"dir,omitempty"`
	Threshold  string   `yaml:"threshold,omitempty"`
}

// Manifest lists the suites recorded by `benchkeep run`.
type Manifest struct {
	Threshold string        `yaml:"threshold,omitempty"`
	MaxItems  int           `yaml:"maxItems,omitempty"`
	Suites    []SuiteConfig `yaml:"suites"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if len(m.Suites) == 0 {
		return errors.New("no suites defined")
	}
	seen := make(map[string]bool)
	var errs []error
	for i, s := range m.Suites {
		if s.Name == "" {
			errs = append(errs, fmt.Errorf("suite %d: name is required", i))
		} else if seen[s.Name] {
			errs = append(errs, fmt.Errorf("suite %q: defined more than once", s.Name))
		}
		seen[s.Name] = true
		if !KnownTool(s.Tool) {
			errs = append(errs, fmt.Errorf("suite %q: %w: %q", s.Name, ErrUnknownTool, s.Tool))
		}
		if len(s.Command) == 0 && s.OutputFile == "" && DefaultCommand(s.Tool) == nil {
			errs = append(errs, fmt.Errorf("suite %q: command or outputFile is required for tool %s", s.Name, s.Tool))
		}
		if s.Threshold != "" {
			if _, err := ParseThreshold(s.Threshold); err != nil {
				errs = append(errs, fmt.Errorf("suite %q: %w", s.Name, err))
			}
		}
	}
	if m.Threshold != "" {
		if _, err := ParseThreshold(m.Threshold); err != nil {
			errs = append(errs, err)
		}
	}
	if m.MaxItems < 0 {
		errs = append(errs, fmt.Errorf("maxItems must not be negative, got %d", m.MaxItems))
	}
	return errors.Join(errs...)
}

// SuiteThreshold resolves the alert threshold for a suite: the suite's own
// setting, the manifest default, then fallback.
func (m *Manifest) SuiteThreshold(s SuiteConfig, fallback float64) float64 {
	for _, raw := range []string{s.Threshold, m.Threshold} {
		if raw == "" {
			continue
		}
		if v, err := ParseThreshold(raw); err == nil {
			return v
		}
	}
	return fallback
}
