package services

import (
	"github.com/scangate/scangate/internal/domain/entities"
)

// EvaluateGate applies each gating profile's threshold to the report.
//
// A finding triggers failure only if its severity is at or above a gating
// profile's threshold AND that profile contributed the finding. A profile
// never gates on findings discovered only by a different, non-gating
// profile; that keeps a comprehensive visibility scan from failing the
// build while a narrow enforcement scan still can.
//
// When multiple profiles gate, triggering findings are aggregated across
// all of them and the governing profile recorded is the most restrictive
// (lowest threshold) among those that actually triggered.
func EvaluateGate(report *entities.AggregatedReport, profiles []entities.ScanProfile) entities.GateVerdict {
	triggered := make(map[string]bool)
	var triggering []entities.Finding
	governing := ""
	governingRank := entities.SeverityCritical.Rank() + 1

	for _, p := range profiles {
		if !p.Gating() {
			continue
		}
		hit := false
		for _, f := range report.Findings {
			if f.Severity.Rank() < p.GateThreshold.Rank() || !f.FromProfile(p.Name) {
				continue
			}
			hit = true
			if !triggered[f.Key()] {
				triggered[f.Key()] = true
				triggering = append(triggering, f)
			}
		}
		if !hit {
			continue
		}
		rank := p.GateThreshold.Rank()
		if rank < governingRank || (rank == governingRank && p.Name < governing) {
			governing = p.Name
			governingRank = rank
		}
	}

	if len(triggering) == 0 {
		return entities.GateVerdict{Outcome: entities.OutcomePass}
	}

	// Report order keeps the verdict deterministic regardless of which
	// profile surfaced a finding first.
	ordered := make([]entities.Finding, 0, len(triggering))
	for _, f := range report.Findings {
		if triggered[f.Key()] {
			ordered = append(ordered, f)
			triggered[f.Key()] = false
		}
	}

	return entities.GateVerdict{
		Outcome:            entities.OutcomeFail,
		TriggeringFindings: ordered,
		GoverningProfile:   governing,
	}
}
