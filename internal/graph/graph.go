package graph

import (
	"sort"
	"strings"
)

// EntityType tags a node in the knowledge graph.
type EntityType string

const (
	TypeRegion      EntityType = "region"
	TypeCountry     EntityType = "country"
	TypeSector      EntityType = "sector"
	TypeCompany     EntityType = "company"
	TypeAsset       EntityType = "asset"
	TypeInstitution EntityType = "institution"
	TypeEvent       EntityType = "event"
)

// Entity is a typed node. Immutable after graph construction.
type Entity struct {
	ID   string
	Name string
	Type EntityType
}

// Edge is a directed "affects" relation. Weight scales impact per
// traversal; HopDecay additionally attenuates each hop past the first.
type Edge struct {
	From     string
	To       string
	Weight   float64 // 0..1
	HopDecay float64 // 0..1
}

// Affected is one traversal result with its accumulated weight.
type Affected struct {
	EntityID string  `json:"entity_id"`
	Weight   float64 `json:"weight"`
}

// Graph is the static entity knowledge graph. Built once at process
// start, read-only thereafter, so lookups need no locking.
type Graph struct {
	entities map[string]Entity
	out      map[string][]Edge
	sectors  map[string][]string // sector id -> member company ids
}

// New builds a graph from a declarative entity and edge table.
func New(entities []Entity, edges []Edge) *Graph {
	g := &Graph{
		entities: make(map[string]Entity, len(entities)),
		out:      make(map[string][]Edge),
		sectors:  make(map[string][]string),
	}
	for _, e := range entities {
		g.entities[e.ID] = e
	}
	for _, e := range edges {
		g.out[e.From] = append(g.out[e.From], e)
		if src, ok := g.entities[e.From]; ok && src.Type == TypeCompany {
			if dst, ok := g.entities[e.To]; ok && dst.Type == TypeSector {
				g.sectors[e.To] = append(g.sectors[e.To], e.From)
			}
		}
	}
	for id := range g.sectors {
		sort.Strings(g.sectors[id])
	}
	return g
}

// visit is a node reached during traversal.
type visit struct {
	id     string
	weight float64
	depth  int
}

// walk runs a bounded-depth BFS from id, accumulating multiplicative
// weight decay. When several paths reach the same node the strongest
// accumulated weight wins.
func (g *Graph) walk(id string, maxHops int) map[string]float64 {
	best := make(map[string]float64)
	queue := []visit{{id: id, weight: 1.0, depth: 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= maxHops {
			continue
		}
		for _, e := range g.out[cur.id] {
			w := cur.weight * e.Weight
			if cur.depth > 0 {
				w *= e.HopDecay
			}
			if w <= best[e.To] {
				continue
			}
			best[e.To] = w
			queue = append(queue, visit{id: e.To, weight: w, depth: cur.depth + 1})
		}
	}
	return best
}

// sortAffected orders results by weight descending, id ascending on ties,
// so repeated traversals are byte-identical.
func sortAffected(m map[string]float64) []Affected {
	out := make([]Affected, 0, len(m))
	for id, w := range m {
		out = append(out, Affected{EntityID: id, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// AffectedAssets returns tradable entities (assets and companies)
// reachable from id within maxHops, weight-sorted descending so callers
// can truncate.
func (g *Graph) AffectedAssets(id string, maxHops int) []Affected {
	reached := g.walk(id, maxHops)
	filtered := make(map[string]float64, len(reached))
	for rid, w := range reached {
		if ent, ok := g.entities[rid]; ok {
			if ent.Type == TypeAsset || ent.Type == TypeCompany {
				filtered[rid] = w
			}
		}
	}
	return sortAffected(filtered)
}

// ImpactChain returns every node reachable from id within maxHops whose
// accumulated weight is at least minWeight, intermediate nodes included,
// for reporting affected sectors along the path.
func (g *Graph) ImpactChain(id string, maxHops int, minWeight float64) []Affected {
	reached := g.walk(id, maxHops)
	filtered := make(map[string]float64, len(reached))
	for rid, w := range reached {
		if w >= minWeight {
			filtered[rid] = w
		}
	}
	return sortAffected(filtered)
}

// CompaniesInSector returns member company ids for a sector, so rules can
// resolve ticker lists without hardcoding them.
func (g *Graph) CompaniesInSector(sectorID string) []string {
	members := g.sectors[sectorID]
	out := make([]string, len(members))
	copy(out, members)
	return out
}

// Label returns the display name for an entity. Unknown ids fall back to
// the trailing segment of the id.
func (g *Graph) Label(id string) string {
	if e, ok := g.entities[id]; ok {
		return e.Name
	}
	if i := strings.LastIndex(id, ":"); i >= 0 {
		return id[i+1:]
	}
	return id
}

// Has reports whether the entity id exists in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.entities[id]
	return ok
}
