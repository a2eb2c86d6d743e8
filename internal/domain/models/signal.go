package models

import "time"

// Direction classifies which way a signal pushes the market.
type Direction string

const (
	RiskOn    Direction = "risk_on"
	RiskOff   Direction = "risk_off"
	Neutral   Direction = "neutral"
	Ambiguous Direction = "ambiguous"
)

// Signal is a single decaying observation about one or more entities.
// Produced by normalizer adapters upstream; immutable once created and
// discarded after fusion.
type Signal struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	Strength   float64   `json:"strength"` // 0..100
	Direction  Direction `json:"direction"`
	EntityIDs  []string  `json:"entity_ids"`
	Confidence float64   `json:"confidence"` // 0..1
	Timestamp  time.Time `json:"timestamp"`
	Headline   string    `json:"headline"`
}

// Valid reports whether the signal carries every required field.
// Invalid signals are dropped before fusion, never a hard failure.
func (s *Signal) Valid() bool {
	if s == nil || s.ID == "" || s.Source == "" {
		return false
	}
	if len(s.EntityIDs) == 0 || s.Timestamp.IsZero() {
		return false
	}
	if s.Strength < 0 || s.Strength > 100 {
		return false
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return false
	}
	switch s.Direction {
	case RiskOn, RiskOff, Neutral, Ambiguous:
		return true
	}
	return false
}

// EntitySignal is the fused view of every signal touching one entity
// within a cycle. Recomputed fresh each cycle, never mutated in place.
type EntitySignal struct {
	EntityID      string    `json:"entity_id"`
	Signals       []Signal  `json:"signals"`        // deduplicated by source, decayed strengths
	FusedStrength float64   `json:"fused_strength"` // 0..100
	Direction     Direction `json:"direction"`
	Convergence   float64   `json:"convergence"` // multiplier applied, 1.0..2.0
	SignalCount   int       `json:"signal_count"`
}

// FusionResult is the output of one fusion pass.
type FusionResult struct {
	Entities  []EntitySignal `json:"entities"`   // sorted by fused strength desc
	RiskLevel float64        `json:"risk_level"` // 0..100, rank-weighted over top 8
	Zones     []string       `json:"zones"`      // region entities with convergence > 1
	CycleAt   time.Time      `json:"cycle_at"`
}

// Entity returns the fused signal for an entity id, if present.
func (r *FusionResult) Entity(id string) (EntitySignal, bool) {
	for _, e := range r.Entities {
		if e.EntityID == id {
			return e, true
		}
	}
	return EntitySignal{}, false
}

// CalendarEntry is a known upcoming event with days remaining.
type CalendarEntry struct {
	Name      string  `json:"name"`
	DaysUntil float64 `json:"days_until"`
}

// InferenceContext carries the side-channel scalars rules consume in
// addition to fused signals. A small explicit struct, not a dynamic bag.
type InferenceContext struct {
	TailRiskScore  float64         `json:"tail_risk_score"` // 0..100 composite
	ActiveAircraft []string        `json:"active_aircraft"` // tracked strategic airframe labels
	Calendar       []CalendarEntry `json:"calendar"`
	PremiumPct     float64         `json:"premium_pct"`   // crypto premium/discount vs offshore
	RealRatePct    float64         `json:"real_rate_pct"` // nominal rate minus breakeven inflation
}
