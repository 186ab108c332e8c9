package entities

// Outcome is the gate decision.
type Outcome string

const (
	OutcomePass Outcome = "PASS"
	OutcomeFail Outcome = "FAIL"
)

// GateVerdict is the pass/fail decision over an aggregated report.
// Outcome is FAIL if and only if TriggeringFindings is non-empty.
type GateVerdict struct {
	Outcome Outcome `json:"outcome"`
	// TriggeringFindings is the subset of findings at or above a gating
	// profile's threshold, in report order.
	TriggeringFindings []Finding `json:"triggering_findings"`
	// GoverningProfile is the most restrictive (lowest threshold) profile
	// among those that actually triggered. Empty on PASS.
	GoverningProfile string `json:"governing_profile,omitempty"`
}
