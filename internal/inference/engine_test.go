package inference

import (
	"reflect"
	"testing"
	"time"

	"Watchtower/internal/domain/models"
	"Watchtower/internal/fusion"
	"Watchtower/internal/graph"
)

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func fuse(t *testing.T, signals []models.Signal) *models.FusionResult {
	t.Helper()
	return fusion.New().Fuse(signals, testNow)
}

func sig(id, source string, strength float64, entities ...string) models.Signal {
	return models.Signal{
		ID:         id,
		Source:     source,
		Strength:   strength,
		Direction:  models.RiskOff,
		EntityIDs:  entities,
		Confidence: 0.8,
		Timestamp:  testNow,
	}
}

func TestEvaluateNeverEmpty(t *testing.T) {
	e := NewEngine(graph.Default())
	res := e.Evaluate(fuse(t, nil), models.InferenceContext{})
	if len(res) != 1 {
		t.Fatalf("results = %d, want the calm fallback alone", len(res))
	}
	if res[0].RuleID != "CALM_MARKET" {
		t.Fatalf("fallback rule = %s, want CALM_MARKET", res[0].RuleID)
	}
	if res[0].Severity != models.SeverityInfo {
		t.Fatalf("fallback severity = %s, want INFO", res[0].Severity)
	}
}

func TestFallbackSuppressedWhenRulesFire(t *testing.T) {
	e := NewEngine(graph.Default())
	fused := fuse(t, []models.Signal{
		sig("s1", "vix_watcher", 80, "asset:VIX"),
	})
	res := e.Evaluate(fused, models.InferenceContext{})
	for _, r := range res {
		if r.RuleID == "CALM_MARKET" {
			t.Fatalf("calm fallback fired alongside real findings")
		}
	}
}

func TestPrimaryEntityDedup(t *testing.T) {
	e := NewEngine(graph.Default())
	fused := fuse(t, []models.Signal{
		sig("s1", "news_kr", 70, "region:korean_peninsula"),
	})
	ctx := models.InferenceContext{ActiveAircraft: []string{"E-4B Nightwatch"}}

	res := e.Evaluate(fused, ctx)
	var sawEscalation, sawProvocation bool
	for _, r := range res {
		switch r.RuleID {
		case "NK_COMMAND_ESCALATION":
			sawEscalation = true
		case "NK_PROVOCATION":
			sawProvocation = true
		}
	}
	if !sawEscalation {
		t.Fatalf("compound escalation rule did not fire")
	}
	if sawProvocation {
		t.Fatalf("plain provocation fired despite higher-priority finding for the same entity")
	}
}

func TestFinancialStressFromFusedVolatility(t *testing.T) {
	e := NewEngine(graph.Default())
	fused := fuse(t, []models.Signal{
		sig("s1", "vix_watcher", 65, "asset:VIX"),
	})
	// tail risk stays at zero: the fused entity alone must trip the rule
	res := e.Evaluate(fused, models.InferenceContext{})
	found := false
	for _, r := range res {
		if r.RuleID == "FINANCIAL_STRESS" {
			found = true
			if r.Severity != models.SeverityElevated {
				t.Fatalf("severity = %s, want ELEVATED", r.Severity)
			}
			if len(r.EntityIDs) == 0 || r.EntityIDs[0] != "asset:VIX" {
				t.Fatalf("entity ids = %v, want primary first", r.EntityIDs)
			}
			if len(r.EntityIDs) > 8 {
				t.Fatalf("entity ids = %d, want cap at 8", len(r.EntityIDs))
			}
		}
	}
	if !found {
		t.Fatalf("FINANCIAL_STRESS did not fire at fused strength 65")
	}
}

func TestSeverityOrdering(t *testing.T) {
	e := NewEngine(graph.Default())
	fused := fuse(t, []models.Signal{
		sig("s1", "news_kr", 70, "region:korean_peninsula"),
		sig("s2", "vix_watcher", 65, "asset:VIX"),
	})
	ctx := models.InferenceContext{ActiveAircraft: []string{"E-4B", "RC-135"}}

	res := e.Evaluate(fused, ctx)
	if len(res) < 2 {
		t.Fatalf("results = %d, want several findings", len(res))
	}
	for i := 1; i < len(res); i++ {
		prev, cur := res[i-1], res[i]
		if cur.Severity.Rank() < prev.Severity.Rank() {
			t.Fatalf("severity order broken: %s before %s", prev.RuleID, cur.RuleID)
		}
		if cur.Severity.Rank() == prev.Severity.Rank() && cur.Confidence > prev.Confidence {
			t.Fatalf("confidence order broken within severity: %s before %s", prev.RuleID, cur.RuleID)
		}
	}
	if res[0].RuleID != "NK_COMMAND_ESCALATION" {
		t.Fatalf("top finding = %s, want the critical escalation", res[0].RuleID)
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	e := NewEngine(graph.Default())
	signals := []models.Signal{
		sig("s1", "news_kr", 70, "region:korean_peninsula"),
		sig("s2", "vix_watcher", 65, "asset:VIX"),
		sig("s3", "osint", 68, "region:middle_east"),
	}
	ctx := models.InferenceContext{
		TailRiskScore:  60,
		ActiveAircraft: []string{"E-6B Mercury", "RC-135 Rivet Joint"},
		Calendar:       []models.CalendarEntry{{Name: "FOMC", DaysUntil: 2}},
		PremiumPct:     4.2,
		RealRatePct:    0.1,
	}

	first := e.Evaluate(fuse(t, signals), ctx)
	for i := 0; i < 10; i++ {
		again := e.Evaluate(fuse(t, signals), ctx)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from the first evaluation", i)
		}
	}
}

func TestMultiRegionConvergence(t *testing.T) {
	e := NewEngine(graph.Default())
	fused := fuse(t, []models.Signal{
		sig("k1", "a", 40, "region:korean_peninsula"),
		sig("k2", "b", 45, "region:korean_peninsula"),
		sig("k3", "c", 50, "region:korean_peninsula"),
		sig("m1", "a", 40, "region:middle_east"),
		sig("m2", "b", 45, "region:middle_east"),
		sig("m3", "c", 50, "region:middle_east"),
	})
	if len(fused.Zones) != 2 {
		t.Fatalf("zones = %v, want two convergent regions", fused.Zones)
	}
	res := e.Evaluate(fused, models.InferenceContext{})
	if res[0].RuleID != "MULTI_REGION_CONVERGENCE" {
		t.Fatalf("top finding = %s, want the convergence critical", res[0].RuleID)
	}
}

func TestCustomRuleOrdering(t *testing.T) {
	g := graph.Default()
	mk := func(id string, prio int, primary string) Rule {
		return &staticRule{
			id: id, priority: prio, primary: primary,
			eval: func(in *Input) *models.InferenceResult {
				return &models.InferenceResult{RuleID: id, Severity: models.SeverityWatch, Confidence: 0.5}
			},
		}
	}
	// declared out of order; engine must evaluate by ascending priority
	e := NewEngineWithRules(g, []Rule{
		mk("second", 20, "x"),
		mk("first", 10, "x"),
	}, nil)
	res := e.Evaluate(fuse(t, nil), models.InferenceContext{})
	if len(res) != 1 || res[0].RuleID != "first" {
		t.Fatalf("results = %v, want only the priority-10 rule for the shared entity", res)
	}
}
