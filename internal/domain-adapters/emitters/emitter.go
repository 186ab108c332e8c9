// Package emitters renders an aggregated report into its output encodings.
// Emission is a pure transform: the same report and format always produce
// byte-identical output.
package emitters

import (
	"errors"
	"fmt"

	"github.com/scangate/scangate/internal/domain/entities"
)

// ErrUnsupportedFormat reports a request for an unregistered emitter.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// Emitter renders one encoding of a finished run. The verdict may be nil
// for encodings that ignore it; emitters restricted to triggering findings
// treat a nil or passing verdict as an empty result set.
type Emitter interface {
	Format() entities.Format
	Emit(report *entities.AggregatedReport, verdict *entities.GateVerdict) ([]byte, error)
}

// Registry dispatches emission requests by format.
type Registry struct {
	byFormat map[entities.Format]Emitter
}

// NewRegistry builds a registry from the given emitters.
func NewRegistry(emitters ...Emitter) *Registry {
	r := &Registry{byFormat: make(map[entities.Format]Emitter, len(emitters))}
	for _, e := range emitters {
		r.byFormat[e.Format()] = e
	}
	return r
}

// DefaultRegistry returns a registry with the three shipped encodings.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewTabularEmitter(),
		NewInterchangeEmitter(),
		NewInteropEmitter(),
	)
}

// Emit renders the report in the requested format.
func (r *Registry) Emit(format entities.Format, report *entities.AggregatedReport, verdict *entities.GateVerdict) ([]byte, error) {
	e, ok := r.byFormat[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return e.Emit(report, verdict)
}
