// Package gateways provides scanner gateway implementations.
package gateways

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/scangate/scangate/internal/domain/entities"
	"github.com/scangate/scangate/internal/domain/interfaces/gateways"
	scanexec "github.com/scangate/scangate/internal/exec"
)

// TrivyGateway shells out to the trivy binary and translates its JSON
// report into the finding model.
type TrivyGateway struct {
	binary string
}

// NewTrivyGateway creates a gateway using the trivy binary from PATH.
func NewTrivyGateway() *TrivyGateway {
	return &TrivyGateway{binary: "trivy"}
}

// Name identifies the gateway in configuration and logs.
func (g *TrivyGateway) Name() string {
	return "trivy"
}

// Scan runs "trivy image --format json" against the artifact reference.
// A missing binary or a scanner-reported error is fatal; a context
// deadline is transient.
func (g *TrivyGateway) Scan(ctx context.Context, artifactRef string, profile entities.ScanProfile) ([]entities.Finding, error) {
	if _, err := exec.LookPath(g.binary); err != nil {
		return nil, &gateways.ScanError{
			Profile: profile.Name,
			Err:     fmt.Errorf("%s executable not found in PATH", g.binary),
		}
	}

	args := []string{"image", "--format", "json", "--no-progress", artifactRef}
	res, err := scanexec.Run(ctx, g.binary, args, "")
	if err != nil {
		transient := res.ExitCode == scanexec.ExitTimeout || ctx.Err() == context.DeadlineExceeded
		return nil, &gateways.ScanError{
			Profile:   profile.Name,
			Transient: transient,
			Err:       fmt.Errorf("trivy execution failed (code %d): %w", res.ExitCode, err),
		}
	}

	findings, err := parseTrivyReport([]byte(res.Stdout), artifactRef, profile)
	if err != nil {
		return nil, &gateways.ScanError{Profile: profile.Name, Err: err}
	}
	return findings, nil
}

// Trivy JSON report shapes, reduced to the fields the engine consumes.

type trivyReport struct {
	Results []trivyResult `json:"Results"`
}

type trivyResult struct {
	Target          string               `json:"Target"`
	Vulnerabilities []trivyVulnerability `json:"Vulnerabilities"`
}

type trivyVulnerability struct {
	VulnerabilityID  string `json:"VulnerabilityID"`
	PkgName          string `json:"PkgName"`
	InstalledVersion string `json:"InstalledVersion"`
	FixedVersion     string `json:"FixedVersion"`
	Severity         string `json:"Severity"`
}
