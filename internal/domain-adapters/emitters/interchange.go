package emitters

import (
	"encoding/json"
	"fmt"

	"github.com/scangate/scangate/internal/domain/entities"
)

// InterchangeEmitter renders the full report as indented JSON preserving
// every field, suitable for dashboard ingestion. DecodeInterchange parses
// it back losslessly.
type InterchangeEmitter struct{}

// NewInterchangeEmitter creates the interchange emitter.
func NewInterchangeEmitter() *InterchangeEmitter {
	return &InterchangeEmitter{}
}

// Format returns the interchange format identifier.
func (e *InterchangeEmitter) Format() entities.Format {
	return entities.FormatInterchange
}

// Emit renders the report. The verdict is not part of this encoding.
func (e *InterchangeEmitter) Emit(report *entities.AggregatedReport, _ *entities.GateVerdict) ([]byte, error) {
	// encoding/json writes map keys in sorted order, so the severity
	// counts do not break byte determinism.
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode interchange report: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeInterchange parses an interchange rendering back into a report.
func DecodeInterchange(data []byte) (*entities.AggregatedReport, error) {
	var report entities.AggregatedReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("decode interchange report: %w", err)
	}
	return &report, nil
}
