package emitters

import (
	"bytes"
	"fmt"
	"text/tabwriter"

	"github.com/scangate/scangate/internal/domain/entities"
)

// TabularEmitter renders a plain-text table, one row per finding, with a
// trailing severity-count summary line.
type TabularEmitter struct{}

// NewTabularEmitter creates the tabular emitter.
func NewTabularEmitter() *TabularEmitter {
	return &TabularEmitter{}
}

// Format returns the tabular format identifier.
func (e *TabularEmitter) Format() entities.Format {
	return entities.FormatTabular
}

// Emit renders the report. The verdict is not part of this encoding.
func (e *TabularEmitter) Emit(report *entities.AggregatedReport, _ *entities.GateVerdict) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Artifact: %s\n", report.ArtifactRef)

	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSEVERITY\tPACKAGE\tINSTALLED\tFIXED")
	for _, f := range report.Findings {
		fixed := f.FixedVersion
		if fixed == "" {
			fixed = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.Severity, f.Package, f.InstalledVersion, fixed)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("render table: %w", err)
	}

	fmt.Fprintf(&buf, "Total: %d (critical: %d, high: %d, medium: %d, low: %d, unknown: %d)\n",
		report.Total(),
		report.Counts[entities.SeverityCritical],
		report.Counts[entities.SeverityHigh],
		report.Counts[entities.SeverityMedium],
		report.Counts[entities.SeverityLow],
		report.Counts[entities.SeverityUnknown])

	return buf.Bytes(), nil
}
