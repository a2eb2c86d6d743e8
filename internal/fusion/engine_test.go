package fusion

import (
	"math"
	"testing"
	"time"

	"Watchtower/internal/domain/models"
)

var testNow = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

func sig(id, source string, strength float64, dir models.Direction, entities ...string) models.Signal {
	return models.Signal{
		ID:         id,
		Source:     source,
		Strength:   strength,
		Direction:  dir,
		EntityIDs:  entities,
		Confidence: 0.8,
		Timestamp:  testNow,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestFuseSingleSignalKeepsStrength(t *testing.T) {
	e := New()
	res := e.Fuse([]models.Signal{
		sig("s1", "vix_watcher", 65, models.RiskOff, "asset:vix"),
	}, testNow)

	es, ok := res.Entity("asset:vix")
	if !ok {
		t.Fatalf("expected fused entity for asset:vix")
	}
	// max*0.6 + avg*0.4 with one signal collapses to the raw strength
	if !almostEqual(es.FusedStrength, 65) {
		t.Fatalf("fused strength = %v, want 65", es.FusedStrength)
	}
	if es.Convergence != 1.0 {
		t.Fatalf("convergence = %v, want 1.0", es.Convergence)
	}
	if es.Direction != models.RiskOff {
		t.Fatalf("direction = %v, want risk_off", es.Direction)
	}
}

func TestFuseThreeSourcesConvergence(t *testing.T) {
	e := New()
	res := e.Fuse([]models.Signal{
		sig("s1", "news_kr", 40, models.RiskOff, "region:korean_peninsula"),
		sig("s2", "sigint", 45, models.RiskOff, "region:korean_peninsula"),
		sig("s3", "osint", 50, models.RiskOff, "region:korean_peninsula"),
	}, testNow)

	es, ok := res.Entity("region:korean_peninsula")
	if !ok {
		t.Fatalf("expected fused entity for region:korean_peninsula")
	}
	// peak 50*0.6 + mean 45*0.4 = 48, times 1.25 for three sources
	if !almostEqual(es.FusedStrength, 60) {
		t.Fatalf("fused strength = %v, want 60", es.FusedStrength)
	}
	if !almostEqual(es.Convergence, 1.25) {
		t.Fatalf("convergence = %v, want 1.25", es.Convergence)
	}
	if len(res.Zones) != 1 || res.Zones[0] != "region:korean_peninsula" {
		t.Fatalf("zones = %v, want [region:korean_peninsula]", res.Zones)
	}
}

func TestFuseTwoSourcesNoMultiplier(t *testing.T) {
	e := New()
	res := e.Fuse([]models.Signal{
		sig("s1", "a", 50, models.RiskOff, "asset:kospi"),
		sig("s2", "b", 50, models.RiskOff, "asset:kospi"),
	}, testNow)
	es, _ := res.Entity("asset:kospi")
	if es.Convergence != 1.0 {
		t.Fatalf("convergence = %v, want 1.0 for two sources", es.Convergence)
	}
}

func TestFuseMultiplierCapped(t *testing.T) {
	e := New()
	signals := make([]models.Signal, 0, 7)
	sources := []string{"a", "b", "c", "d", "e", "f", "g"}
	for i, src := range sources {
		signals = append(signals, sig("s"+src, src, 30+float64(i), models.RiskOff, "region:middle_east"))
	}
	res := e.Fuse(signals, testNow)
	es, _ := res.Entity("region:middle_east")
	// 1 + (7-2)*0.25 = 2.25, capped at 2.0
	if es.Convergence != 2.0 {
		t.Fatalf("convergence = %v, want cap 2.0", es.Convergence)
	}
}

func TestFuseStrengthClampedAt100(t *testing.T) {
	e := New()
	res := e.Fuse([]models.Signal{
		sig("s1", "a", 95, models.RiskOff, "region:korean_peninsula"),
		sig("s2", "b", 90, models.RiskOff, "region:korean_peninsula"),
		sig("s3", "c", 92, models.RiskOff, "region:korean_peninsula"),
	}, testNow)
	es, _ := res.Entity("region:korean_peninsula")
	if es.FusedStrength > 100 {
		t.Fatalf("fused strength %v exceeds 100", es.FusedStrength)
	}
	if es.FusedStrength != 100 {
		t.Fatalf("fused strength = %v, want clamp to 100", es.FusedStrength)
	}
}

func TestFuseSourceDedupKeepsStronger(t *testing.T) {
	e := New()
	older := sig("s1", "news_kr", 80, models.RiskOff, "asset:usdkrw")
	older.Timestamp = testNow.Add(-12 * time.Hour) // two half-lives: decays to 20
	newer := sig("s2", "news_kr", 50, models.RiskOff, "asset:usdkrw")

	res := e.Fuse([]models.Signal{older, newer}, testNow)
	es, _ := res.Entity("asset:usdkrw")
	if es.SignalCount != 1 {
		t.Fatalf("signal count = %d, want 1 after source dedup", es.SignalCount)
	}
	if !almostEqual(es.FusedStrength, 50) {
		t.Fatalf("fused strength = %v, want the stronger occurrence 50", es.FusedStrength)
	}
}

func TestDecayHalfLife(t *testing.T) {
	got := decayStrength(80, 6*time.Hour)
	if !almostEqual(got, 40) {
		t.Fatalf("decayed strength = %v, want 40 after one half-life", got)
	}
	// future timestamps never amplify
	if got := decayStrength(80, -time.Hour); !almostEqual(got, 80) {
		t.Fatalf("negative age decayed to %v, want 80", got)
	}
}

func TestVoteDirectionMargin(t *testing.T) {
	a := sig("s1", "a", 60, models.RiskOff, "x")
	b := sig("s2", "b", 50, models.RiskOn, "x")
	// risk_off vote 48, risk_on vote 40: 48 <= 40*1.4, ambiguous
	if d := voteDirection([]models.Signal{a, b}); d != models.Ambiguous {
		t.Fatalf("direction = %v, want ambiguous inside margin", d)
	}

	a.Strength = 90
	// risk_off vote 72 > 40*1.4 = 56: clear winner
	if d := voteDirection([]models.Signal{a, b}); d != models.RiskOff {
		t.Fatalf("direction = %v, want risk_off outside margin", d)
	}
}

func TestVoteDirectionSingleAndEmpty(t *testing.T) {
	only := sig("s1", "a", 40, models.RiskOn, "x")
	if d := voteDirection([]models.Signal{only}); d != models.RiskOn {
		t.Fatalf("direction = %v, want the single vote to win", d)
	}
	if d := voteDirection(nil); d != models.Ambiguous {
		t.Fatalf("direction = %v, want ambiguous with no signals", d)
	}
}

func TestFuseDropsInvalidSignals(t *testing.T) {
	e := New()
	bad := sig("", "a", 50, models.RiskOff, "asset:kospi") // missing id
	res := e.Fuse([]models.Signal{bad}, testNow)
	if len(res.Entities) != 0 {
		t.Fatalf("entities = %d, want invalid signal dropped", len(res.Entities))
	}
}

func TestRiskLevelRankWeighted(t *testing.T) {
	entities := []models.EntitySignal{
		{EntityID: "a", FusedStrength: 80},
		{EntityID: "b", FusedStrength: 40},
	}
	// (80*8 + 40*7) / 15 = 61.333...
	got := riskLevel(entities)
	want := (80.0*8 + 40.0*7) / 15.0
	if !almostEqual(got, want) {
		t.Fatalf("risk level = %v, want %v", got, want)
	}
	if riskLevel(nil) != 0 {
		t.Fatalf("risk level of empty set should be 0")
	}
}

func TestFuseDeterministicOrdering(t *testing.T) {
	e := New()
	signals := []models.Signal{
		sig("s1", "a", 50, models.RiskOff, "asset:kospi"),
		sig("s2", "b", 50, models.RiskOff, "asset:vix"),
		sig("s3", "c", 70, models.RiskOff, "asset:gold"),
	}
	first := e.Fuse(signals, testNow)
	for i := 0; i < 10; i++ {
		again := e.Fuse(signals, testNow)
		if len(again.Entities) != len(first.Entities) {
			t.Fatalf("entity count changed between runs")
		}
		for j := range first.Entities {
			if again.Entities[j].EntityID != first.Entities[j].EntityID {
				t.Fatalf("run %d: order differs at %d: %s vs %s",
					i, j, again.Entities[j].EntityID, first.Entities[j].EntityID)
			}
		}
	}
	// equal strengths tie-break on entity id
	if first.Entities[0].EntityID != "asset:gold" || first.Entities[1].EntityID != "asset:kospi" {
		t.Fatalf("unexpected order: %s, %s", first.Entities[0].EntityID, first.Entities[1].EntityID)
	}
}
