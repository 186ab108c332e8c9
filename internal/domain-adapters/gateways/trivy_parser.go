package gateways

import (
	"encoding/json"
	"fmt"

	"github.com/scangate/scangate/internal/domain/entities"
)

// parseTrivyReport normalizes a trivy JSON report into findings for one
// profile. Severities the profile filters out are dropped here already;
// the aggregator filters again and never relies on it.
func parseTrivyReport(data []byte, artifactRef string, profile entities.ScanProfile) ([]entities.Finding, error) {
	var report trivyReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse trivy report: %w", err)
	}

	var findings []entities.Finding
	for _, result := range report.Results {
		for _, v := range result.Vulnerabilities {
			// Unparseable severities normalize to UNKNOWN.
			sev, _ := entities.ParseSeverity(v.Severity)
			if !profile.Includes(sev) {
				continue
			}
			findings = append(findings, entities.Finding{
				ID:               v.VulnerabilityID,
				Severity:         sev,
				Package:          v.PkgName,
				InstalledVersion: v.InstalledVersion,
				FixedVersion:     v.FixedVersion,
				ArtifactRef:      artifactRef,
				Profiles:         []string{profile.Name},
			})
		}
	}
	return findings, nil
}
