// Package services implements the pure business logic of the engine.
package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/scangate/scangate/internal/domain/entities"
)

// ErrInvalidAggregation reports a precondition violation; it should not
// occur with valid input.
var ErrInvalidAggregation = errors.New("invalid aggregation")

// ProfileFindings pairs one profile with the findings its scan produced.
type ProfileFindings struct {
	Profile  entities.ScanProfile
	Findings []entities.Finding
}

// Aggregate merges per-profile findings into one deduplicated report.
//
// For each profile only the findings whose severity is in that profile's
// filter are retained (gateways may have pre-filtered already, but that is
// never assumed). Retained findings are deduplicated by their key, unioning
// contributing-profile names on collision. The result is sorted by severity
// descending, then identifier ascending, so repeated aggregation of the
// same input yields an identical report.
func Aggregate(artifactRef string, results []ProfileFindings) (*entities.AggregatedReport, error) {
	if len(results) == 0 {
		return nil, fmt.Errorf("%w: no profile results", ErrInvalidAggregation)
	}

	unique := make(map[string]entities.Finding)
	var order []string

	for _, pr := range results {
		for _, f := range pr.Findings {
			if !pr.Profile.Includes(f.Severity) {
				continue
			}
			f.ArtifactRef = artifactRef
			key := f.Key()
			existing, seen := unique[key]
			if !seen {
				f.Profiles = []string{pr.Profile.Name}
				unique[key] = f
				order = append(order, key)
				continue
			}
			existing.Profiles = addProfile(existing.Profiles, pr.Profile.Name)
			unique[key] = existing
		}
	}

	findings := make([]entities.Finding, 0, len(order))
	for _, key := range order {
		findings = append(findings, unique[key])
	}

	sort.SliceStable(findings, func(i, j int) bool {
		fi, fj := findings[i], findings[j]
		if ri, rj := fi.Severity.Rank(), fj.Severity.Rank(); ri != rj {
			return ri > rj
		}
		if fi.ID != fj.ID {
			return fi.ID < fj.ID
		}
		if fi.Package != fj.Package {
			return fi.Package < fj.Package
		}
		return fi.InstalledVersion < fj.InstalledVersion
	})

	counts := make(map[entities.Severity]int, len(entities.AllSeverities))
	for _, s := range entities.AllSeverities {
		counts[s] = 0
	}
	for _, f := range findings {
		counts[f.Severity]++
	}

	profiles := make([]string, 0, len(results))
	for _, pr := range results {
		profiles = addProfile(profiles, pr.Profile.Name)
	}
	sort.Strings(profiles)

	return &entities.AggregatedReport{
		ArtifactRef: artifactRef,
		Profiles:    profiles,
		Counts:      counts,
		Findings:    findings,
	}, nil
}

// addProfile inserts name keeping the slice a sorted set.
func addProfile(profiles []string, name string) []string {
	for _, p := range profiles {
		if p == name {
			return profiles
		}
	}
	profiles = append(profiles, name)
	sort.Strings(profiles)
	return profiles
}
