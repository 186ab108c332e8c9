// Package yaml provides YAML-based run configuration parsing.
package yaml

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scangate/scangate/internal/domain/entities"
)

// rawConfig represents the raw YAML structure
type rawConfig struct {
	Scanner            string       `yaml:"scanner"`
	ReportPath         string       `yaml:"report_path"`
	RetryBound         *int         `yaml:"retry_bound"`
	ScanTimeoutSeconds int          `yaml:"scan_timeout_seconds"`
	RetentionHours     int          `yaml:"retention_hours"`
	SigningKey         string       `yaml:"signing_key"`
	Profiles           []rawProfile `yaml:"profiles"`
}

type rawProfile struct {
	Name           string   `yaml:"name"`
	SeverityFilter []string `yaml:"severity_filter"`
	GateThreshold  string   `yaml:"gate_threshold"`
	Formats        []string `yaml:"formats"`
}

// Defaults applied when the configuration omits a setting.
const (
	DefaultRetryBound  = 1
	DefaultScanTimeout = 120 * time.Second
	DefaultRetention   = 30 * 24 * time.Hour
)

// RunConfig is the validated configuration the engine consumes.
type RunConfig struct {
	Scanner     string
	ReportPath  string
	Profiles    []entities.ScanProfile
	RetryBound  int
	ScanTimeout time.Duration
	Retention   time.Duration
	SigningKey  string
	// Warnings are legal-but-suspect settings, surfaced once at load time.
	Warnings []string
}

// ConfigParser parses YAML run configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// Parse parses and validates run configuration bytes. Validation happens
// once here, before any scan runs.
func (p *ConfigParser) Parse(data []byte) (*RunConfig, error) {
	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &RunConfig{
		Scanner:     raw.Scanner,
		ReportPath:  raw.ReportPath,
		RetryBound:  DefaultRetryBound,
		ScanTimeout: DefaultScanTimeout,
		Retention:   DefaultRetention,
		SigningKey:  raw.SigningKey,
	}
	if cfg.Scanner == "" {
		cfg.Scanner = "trivy"
	}
	if raw.RetryBound != nil {
		if *raw.RetryBound < 0 {
			return nil, fmt.Errorf("retry_bound must be non-negative, got %d", *raw.RetryBound)
		}
		cfg.RetryBound = *raw.RetryBound
	}
	if raw.ScanTimeoutSeconds > 0 {
		cfg.ScanTimeout = time.Duration(raw.ScanTimeoutSeconds) * time.Second
	}
	if raw.RetentionHours > 0 {
		cfg.Retention = time.Duration(raw.RetentionHours) * time.Hour
	}

	if len(raw.Profiles) == 0 {
		return nil, fmt.Errorf("%w: configuration declares no profiles", entities.ErrInvalidProfile)
	}
	seen := make(map[string]bool)
	for _, rp := range raw.Profiles {
		profile, err := p.toProfile(rp)
		if err != nil {
			return nil, err
		}
		if seen[profile.Name] {
			return nil, fmt.Errorf("%w: duplicate profile name %q", entities.ErrInvalidProfile, profile.Name)
		}
		seen[profile.Name] = true
		cfg.Profiles = append(cfg.Profiles, profile)
		cfg.Warnings = append(cfg.Warnings, profile.Warnings()...)
	}

	return cfg, nil
}

// toProfile converts a raw YAML profile into a validated entity.
func (p *ConfigParser) toProfile(rp rawProfile) (entities.ScanProfile, error) {
	profile := entities.ScanProfile{Name: rp.Name}

	for _, s := range rp.SeverityFilter {
		sev, err := entities.ParseSeverity(s)
		if err != nil {
			return profile, fmt.Errorf("%w: profile %q: %v", entities.ErrInvalidProfile, rp.Name, err)
		}
		profile.SeverityFilter = append(profile.SeverityFilter, sev)
	}

	switch rp.GateThreshold {
	case "", "none":
		// gating disabled
	default:
		sev, err := entities.ParseSeverity(rp.GateThreshold)
		if err != nil {
			return profile, fmt.Errorf("%w: profile %q gate threshold: %v", entities.ErrInvalidProfile, rp.Name, err)
		}
		profile.GateThreshold = sev
	}

	for _, f := range rp.Formats {
		format, err := entities.ParseFormat(f)
		if err != nil {
			return profile, fmt.Errorf("%w: profile %q: %v", entities.ErrInvalidProfile, rp.Name, err)
		}
		profile.Formats = append(profile.Formats, format)
	}

	if err := profile.Validate(); err != nil {
		return profile, err
	}
	return profile, nil
}
