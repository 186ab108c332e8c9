package gateways

import (
	"fmt"

	"github.com/scangate/scangate/internal/domain/interfaces/gateways"
)

// Registry holds the scanner gateways available to a run, keyed by name.
type Registry struct {
	byName map[string]gateways.ScannerGateway
}

// NewRegistry builds a registry from the given gateways.
func NewRegistry(list ...gateways.ScannerGateway) *Registry {
	r := &Registry{byName: make(map[string]gateways.ScannerGateway, len(list))}
	for _, g := range list {
		r.byName[g.Name()] = g
	}
	return r
}

// Get returns the named gateway.
func (r *Registry) Get(name string) (gateways.ScannerGateway, error) {
	g, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown scanner %q", name)
	}
	return g, nil
}
