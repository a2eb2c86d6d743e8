package models

// Severity ranks an inference finding. Lower rank sorts first.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityElevated Severity = "ELEVATED"
	SeverityWatch    Severity = "WATCH"
	SeverityInfo     Severity = "INFO"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityElevated: 1,
	SeverityWatch:    2,
	SeverityInfo:     3,
}

// Rank returns the sort rank of the severity; unknown severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// ImpactRange is an expected move expressed as a percent band.
type ImpactRange struct {
	MinPct float64 `json:"min_pct"`
	MaxPct float64 `json:"max_pct"`
}

// InferenceResult is one human-facing finding produced by a firing rule.
// Not persisted; consumed immediately by the alert manager and by
// narrative collaborators.
type InferenceResult struct {
	RuleID     string       `json:"rule_id"`
	Severity   Severity     `json:"severity"`
	Title      string       `json:"title"`
	Summary    string       `json:"summary"`
	Action     string       `json:"action,omitempty"`
	EntityIDs  []string     `json:"entity_ids"` // graph-derived, <=8, deduplicated
	Impact     *ImpactRange `json:"impact,omitempty"`
	SafeHavens []string     `json:"safe_havens,omitempty"`
	Confidence float64      `json:"confidence"` // rule-declared constant, ordering only
	SignalIDs  []string     `json:"signal_ids,omitempty"`
}
