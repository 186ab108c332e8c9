package gateways

import (
	"context"
	"fmt"
	"os"

	"github.com/scangate/scangate/internal/domain/entities"
	"github.com/scangate/scangate/internal/domain/interfaces/gateways"
)

// FileGateway replays a pre-produced trivy JSON report from disk, for CI
// stages where the scan already ran in an earlier step.
type FileGateway struct {
	path string
}

// NewFileGateway creates a gateway reading the report at path.
func NewFileGateway(path string) *FileGateway {
	return &FileGateway{path: path}
}

// Name identifies the gateway in configuration and logs.
func (g *FileGateway) Name() string {
	return "file"
}

// Scan reads and normalizes the report file. A missing or unparseable
// file is fatal; there is nothing to retry.
func (g *FileGateway) Scan(_ context.Context, artifactRef string, profile entities.ScanProfile) ([]entities.Finding, error) {
	data, err := os.ReadFile(g.path)
	if err != nil {
		return nil, &gateways.ScanError{
			Profile: profile.Name,
			Err:     fmt.Errorf("read scan report %s: %w", g.path, err),
		}
	}
	findings, err := parseTrivyReport(data, artifactRef, profile)
	if err != nil {
		return nil, &gateways.ScanError{Profile: profile.Name, Err: err}
	}
	return findings, nil
}
