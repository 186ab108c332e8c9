package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	gwif "github.com/scangate/scangate/internal/domain/interfaces/gateways"
)

// TestFileGatewayScan tests replaying a pre-produced report
func TestFileGatewayScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trivy.json")
	if err := os.WriteFile(path, []byte(sampleTrivyJSON), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	g := NewFileGateway(path)
	findings, err := g.Scan(context.Background(), "registry.example.com/demo:1", allProfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(findings) != 3 {
		t.Errorf("expected 3 findings, got %d", len(findings))
	}
}

// TestFileGatewayMissingReport tests that a missing file is a fatal error
func TestFileGatewayMissingReport(t *testing.T) {
	g := NewFileGateway(filepath.Join(t.TempDir(), "missing.json"))
	_, err := g.Scan(context.Background(), "registry.example.com/demo:1", allProfile())
	if err == nil {
		t.Fatal("expected error for missing report")
	}
	var scanErr *gwif.ScanError
	if !errors.As(err, &scanErr) {
		t.Fatalf("expected *ScanError, got %T", err)
	}
	if scanErr.Transient {
		t.Error("a missing report file must be fatal, not transient")
	}
}

// TestRegistrySelection tests gateway lookup by name
func TestRegistrySelection(t *testing.T) {
	registry := NewRegistry(NewTrivyGateway(), NewFileGateway("report.json"))

	g, err := registry.Get("trivy")
	if err != nil || g.Name() != "trivy" {
		t.Errorf("expected trivy gateway, got %v, %v", g, err)
	}
	if _, err := registry.Get("grype"); err == nil {
		t.Error("expected error for unknown scanner")
	}
}
