package entities

// Finding represents a single normalized vulnerability result.
// Findings are created by a scanner gateway and immutable afterwards.
type Finding struct {
	ID               string   `json:"id"`
	Severity         Severity `json:"severity"`
	Package          string   `json:"package"`
	InstalledVersion string   `json:"installed_version"`
	FixedVersion     string   `json:"fixed_version,omitempty"`
	ArtifactRef      string   `json:"artifact_ref"`
	// Profiles is the sorted set of profile names that contributed
	// this finding. Maintained by the aggregator.
	Profiles []string `json:"profiles"`
}

// Key is the deduplication identity: two findings with the same key are
// the same vulnerability instance regardless of which profile produced them.
func (f Finding) Key() string {
	return f.ID + "|" + f.Package + "|" + f.InstalledVersion
}

// FromProfile reports whether the named profile contributed this finding.
func (f Finding) FromProfile(name string) bool {
	for _, p := range f.Profiles {
		if p == name {
			return true
		}
	}
	return false
}
