// Package inference turns fused per-entity signals into a prioritized,
// deduplicated list of actionable findings.
package inference

import (
	"sort"

	"Watchtower/internal/domain/models"
	"Watchtower/internal/graph"
)

// Input is everything a rule may consult: the cycle's fused signals, the
// side-channel context, and the entity graph.
type Input struct {
	Fusion  *models.FusionResult
	Context models.InferenceContext
	Graph   *graph.Graph
}

// Rule is one priority-ordered condition/action pair. Evaluate returns
// nil when the rule does not fire.
type Rule interface {
	ID() string
	Priority() int
	// PrimaryEntity is the entity this rule speaks for; once a rule fires
	// for an entity, lower-priority rules with the same primary entity are
	// skipped. Empty for cross-cutting rules, which never participate in
	// the dedup.
	PrimaryEntity() string
	Evaluate(in *Input) *models.InferenceResult
}

// Engine evaluates a fixed rule set in strict priority order.
type Engine struct {
	rules    []Rule
	fallback Rule
	g        *graph.Graph
}

// NewEngine builds an engine with the default rule set.
func NewEngine(g *graph.Graph) *Engine {
	return NewEngineWithRules(g, defaultRules(), calmMarketRule())
}

// NewEngineWithRules builds an engine from an explicit rule list plus a
// terminal fallback that fires only when nothing else did. Rules are
// ordered by ascending priority; declaration order breaks ties.
func NewEngineWithRules(g *graph.Graph, rules []Rule, fallback Rule) *Engine {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})
	return &Engine{rules: ordered, fallback: fallback, g: g}
}

// Evaluate runs the rule set over one cycle. Deterministic for identical
// inputs, and never returns an empty list: the fallback guarantees at
// least one INFO finding.
func (e *Engine) Evaluate(fusion *models.FusionResult, ctx models.InferenceContext) []models.InferenceResult {
	in := &Input{Fusion: fusion, Context: ctx, Graph: e.g}

	fired := make(map[string]bool) // primary entity -> already produced a finding
	var results []models.InferenceResult

	for _, r := range e.rules {
		if primary := r.PrimaryEntity(); primary != "" && fired[primary] {
			continue // a more specific rule already spoke for this entity
		}
		res := r.Evaluate(in)
		if res == nil {
			continue
		}
		if primary := r.PrimaryEntity(); primary != "" {
			fired[primary] = true
		}
		results = append(results, *res)
	}

	if len(results) == 0 && e.fallback != nil {
		if res := e.fallback.Evaluate(in); res != nil {
			results = append(results, *res)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Severity.Rank() != results[j].Severity.Rank() {
			return results[i].Severity.Rank() < results[j].Severity.Rank()
		}
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].RuleID < results[j].RuleID
	})
	return results
}

// affectedEntities resolves a finding's asset list through the graph
// instead of hardcoding tickers at the rule level: the primary entity
// first, then its strongest affected assets within two hops, capped at
// eight total.
func affectedEntities(g *graph.Graph, primary string) []string {
	out := []string{primary}
	for _, a := range g.AffectedAssets(primary, 2) {
		if a.EntityID == primary {
			continue
		}
		out = append(out, a.EntityID)
		if len(out) == 8 {
			break
		}
	}
	return out
}
