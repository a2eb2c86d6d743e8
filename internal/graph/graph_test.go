package graph

import "testing"

func testGraph() *Graph {
	entities := []Entity{
		{ID: "region:test", Name: "Test Region", Type: TypeRegion},
		{ID: "sector:defense", Name: "Defense", Type: TypeSector},
		{ID: "company:alpha", Name: "Alpha Corp", Type: TypeCompany},
		{ID: "company:beta", Name: "Beta Corp", Type: TypeCompany},
		{ID: "asset:index", Name: "Index", Type: TypeAsset},
	}
	edges := []Edge{
		{From: "region:test", To: "asset:index", Weight: 0.8, HopDecay: 0.7},
		{From: "region:test", To: "sector:defense", Weight: 0.9, HopDecay: 0.7},
		{From: "sector:defense", To: "company:alpha", Weight: 0.9, HopDecay: 0.7},
		{From: "sector:defense", To: "company:beta", Weight: 0.5, HopDecay: 0.7},
		{From: "company:alpha", To: "sector:defense", Weight: 0.6, HopDecay: 0.7},
		{From: "company:beta", To: "sector:defense", Weight: 0.6, HopDecay: 0.7},
	}
	return New(entities, edges)
}

func TestAffectedAssetsFiltersAndSorts(t *testing.T) {
	g := testGraph()
	got := g.AffectedAssets("region:test", 2)

	// sector nodes are excluded, tradables only
	for _, a := range got {
		if a.EntityID == "sector:defense" {
			t.Fatalf("sector leaked into affected assets")
		}
	}
	if len(got) != 3 {
		t.Fatalf("affected = %d entries, want 3", len(got))
	}
	if got[0].EntityID != "asset:index" {
		t.Fatalf("strongest = %s, want asset:index", got[0].EntityID)
	}
	// second hop attenuated by hop decay: 0.9*0.9*0.7 = 0.567
	if got[1].EntityID != "company:alpha" {
		t.Fatalf("second = %s, want company:alpha", got[1].EntityID)
	}
	want := 0.9 * 0.9 * 0.7
	if diff := got[1].Weight - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("alpha weight = %v, want %v", got[1].Weight, want)
	}
}

func TestAffectedAssetsHopBound(t *testing.T) {
	g := testGraph()
	got := g.AffectedAssets("region:test", 1)
	if len(got) != 1 || got[0].EntityID != "asset:index" {
		t.Fatalf("one hop reached %v, want only asset:index", got)
	}
}

func TestImpactChainIncludesIntermediates(t *testing.T) {
	g := testGraph()
	got := g.ImpactChain("region:test", 2, 0.5)
	found := false
	for _, a := range got {
		if a.EntityID == "sector:defense" {
			found = true
		}
		if a.Weight < 0.5 {
			t.Fatalf("%s weight %v below threshold", a.EntityID, a.Weight)
		}
	}
	if !found {
		t.Fatalf("impact chain should include the sector node")
	}
}

func TestStrongestPathWins(t *testing.T) {
	entities := []Entity{
		{ID: "a", Type: TypeRegion},
		{ID: "b", Type: TypeSector},
		{ID: "c", Type: TypeAsset},
	}
	edges := []Edge{
		{From: "a", To: "c", Weight: 0.3, HopDecay: 1},
		{From: "a", To: "b", Weight: 0.9, HopDecay: 1},
		{From: "b", To: "c", Weight: 0.9, HopDecay: 1},
	}
	g := New(entities, edges)
	got := g.AffectedAssets("a", 2)
	if len(got) != 1 {
		t.Fatalf("affected = %v, want single asset", got)
	}
	// indirect path 0.81 beats the direct 0.3
	if diff := got[0].Weight - 0.81; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("weight = %v, want 0.81 via the stronger path", got[0].Weight)
	}
}

func TestCompaniesInSector(t *testing.T) {
	g := testGraph()
	got := g.CompaniesInSector("sector:defense")
	if len(got) != 2 || got[0] != "company:alpha" || got[1] != "company:beta" {
		t.Fatalf("members = %v, want sorted [company:alpha company:beta]", got)
	}
	// returned slice is a copy
	got[0] = "mutated"
	if g.CompaniesInSector("sector:defense")[0] != "company:alpha" {
		t.Fatalf("membership slice was not copied")
	}
}

func TestLabelFallback(t *testing.T) {
	g := testGraph()
	if got := g.Label("company:alpha"); got != "Alpha Corp" {
		t.Fatalf("label = %q, want Alpha Corp", got)
	}
	if got := g.Label("asset:unknown_thing"); got != "unknown_thing" {
		t.Fatalf("fallback label = %q, want trailing segment", got)
	}
	if got := g.Label("plain"); got != "plain" {
		t.Fatalf("label = %q, want id unchanged", got)
	}
}

func TestDefaultGraphWellFormed(t *testing.T) {
	g := Default()
	for _, id := range []string{"region:korean_peninsula", "asset:KOSPI", "asset:USDKRW", "sector:defense"} {
		if !g.Has(id) {
			t.Fatalf("default graph missing %s", id)
		}
	}
	if members := g.CompaniesInSector("sector:defense"); len(members) == 0 {
		t.Fatalf("default defense sector has no members")
	}
	affected := g.AffectedAssets("region:korean_peninsula", 2)
	if len(affected) == 0 {
		t.Fatalf("korean peninsula affects no tradables")
	}
	for i := 1; i < len(affected); i++ {
		if affected[i].Weight > affected[i-1].Weight {
			t.Fatalf("affected not sorted by weight desc")
		}
	}
}
