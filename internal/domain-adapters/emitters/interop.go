package emitters

import (
	"encoding/json"
	"fmt"

	"github.com/scangate/scangate/internal/domain/entities"
)

// InteropEmitter renders the verdict's triggering findings as a SARIF
// 2.1.0 document for upload to a generic code-scanning dashboard. Each
// finding becomes a location-less rule violation; findings a gate did not
// trigger on are excluded.
type InteropEmitter struct{}

// NewInteropEmitter creates the interop emitter.
func NewInteropEmitter() *InteropEmitter {
	return &InteropEmitter{}
}

// Format returns the interop format identifier.
func (e *InteropEmitter) Format() entities.Format {
	return entities.FormatInterop
}

// Emit renders the triggering findings. A nil or passing verdict produces
// a valid document with an empty results array.
func (e *InteropEmitter) Emit(report *entities.AggregatedReport, verdict *entities.GateVerdict) ([]byte, error) {
	var findings []entities.Finding
	if verdict != nil {
		findings = verdict.TriggeringFindings
	}

	rules := make([]sarifRule, 0, len(findings))
	results := make([]sarifResult, 0, len(findings))
	seenRule := make(map[string]bool)

	for _, f := range findings {
		if !seenRule[f.ID] {
			seenRule[f.ID] = true
			rules = append(rules, sarifRule{
				ID:               f.ID,
				ShortDescription: sarifMessage{Text: fmt.Sprintf("%s in %s", f.ID, f.Package)},
			})
		}
		msg := fmt.Sprintf("%s: %s %s is affected by %s (severity %s)",
			report.ArtifactRef, f.Package, f.InstalledVersion, f.ID, f.Severity)
		if f.FixedVersion != "" {
			msg += fmt.Sprintf(", fixed in %s", f.FixedVersion)
		}
		results = append(results, sarifResult{
			RuleID:  f.ID,
			Level:   sarifLevel(f.Severity),
			Message: sarifMessage{Text: msg},
		})
	}

	doc := sarifLog{
		Schema:  "https://json.schemastore.org/sarif-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:  "scangate",
				Rules: rules,
			}},
			Results: results,
		}},
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode interop report: %w", err)
	}
	return append(data, '\n'), nil
}

// sarifLevel maps the ordered severity scale onto SARIF result levels.
func sarifLevel(s entities.Severity) string {
	switch s {
	case entities.SeverityCritical, entities.SeverityHigh:
		return "error"
	case entities.SeverityMedium:
		return "warning"
	case entities.SeverityLow:
		return "note"
	default:
		return "none"
	}
}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool    sarifTool     `json:"tool"`
	Results []sarifResult `json:"results"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name  string      `json:"name"`
	Rules []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string       `json:"id"`
	ShortDescription sarifMessage `json:"shortDescription"`
}

type sarifResult struct {
	RuleID  string       `json:"ruleId"`
	Level   string       `json:"level"`
	Message sarifMessage `json:"message"`
}

type sarifMessage struct {
	Text string `json:"text"`
}
