package entities

import (
	"errors"
	"fmt"
)

// Format identifies a report encoding.
type Format string

const (
	FormatTabular     Format = "tabular"
	FormatInterchange Format = "interchange"
	FormatInterop     Format = "interop"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatTabular, FormatInterchange, FormatInterop:
		return Format(s), nil
	default:
		return "", fmt.Errorf("invalid format: %q", s)
	}
}

// ErrInvalidProfile reports a scan profile that failed validation.
var ErrInvalidProfile = errors.New("invalid scan profile")

// ScanProfile is a named scan configuration. It is constructed once from
// external configuration and read-only during a pipeline run.
type ScanProfile struct {
	Name           string
	SeverityFilter []Severity
	// GateThreshold is the minimum severity that triggers failure.
	// Empty disables gating for this profile.
	GateThreshold Severity
	Formats       []Format
}

// Gating reports whether this profile participates in the gate decision.
func (p ScanProfile) Gating() bool {
	return p.GateThreshold != ""
}

// Includes reports whether the severity is part of this profile's filter.
func (p ScanProfile) Includes(s Severity) bool {
	for _, f := range p.SeverityFilter {
		if f == s {
			return true
		}
	}
	return false
}

// Validate checks the construction invariants: a non-empty severity filter
// of known levels, a known gate threshold (or none) and known formats.
func (p ScanProfile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: profile name is empty", ErrInvalidProfile)
	}
	if len(p.SeverityFilter) == 0 {
		return fmt.Errorf("%w: profile %q has an empty severity filter", ErrInvalidProfile, p.Name)
	}
	for _, s := range p.SeverityFilter {
		if _, err := ParseSeverity(string(s)); err != nil {
			return fmt.Errorf("%w: profile %q: %v", ErrInvalidProfile, p.Name, err)
		}
	}
	if p.GateThreshold != "" {
		if _, err := ParseSeverity(string(p.GateThreshold)); err != nil {
			return fmt.Errorf("%w: profile %q gate threshold: %v", ErrInvalidProfile, p.Name, err)
		}
	}
	for _, f := range p.Formats {
		if _, err := ParseFormat(string(f)); err != nil {
			return fmt.Errorf("%w: profile %q: %v", ErrInvalidProfile, p.Name, err)
		}
	}
	return nil
}

// Warnings returns configuration oddities that are legal but probably
// unintended, such as gating on a severity the profile does not display.
func (p ScanProfile) Warnings() []string {
	var warnings []string
	if p.Gating() && !p.Includes(p.GateThreshold) {
		warnings = append(warnings, fmt.Sprintf(
			"profile %q gates on %s but does not include it in its severity filter",
			p.Name, p.GateThreshold))
	}
	return warnings
}
