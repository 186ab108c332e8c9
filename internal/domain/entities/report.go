package entities

// AggregatedReport is the deduplicated, merged view across all profile
// executions for a single artifact. It is created once by the aggregator
// and never mutated afterwards; downstream stages read it immutably.
type AggregatedReport struct {
	ArtifactRef string           `json:"artifact_ref"`
	Profiles    []string         `json:"profiles"`
	Counts      map[Severity]int `json:"counts"`
	Findings    []Finding        `json:"findings"`
}

// Total returns the number of deduplicated findings.
func (r *AggregatedReport) Total() int {
	return len(r.Findings)
}
