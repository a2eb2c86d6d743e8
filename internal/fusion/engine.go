// Package fusion combines many weak, decaying, partially-overlapping
// signals into one fused strength and direction per affected entity.
package fusion

import (
	"math"
	"sort"
	"strings"
	"time"

	"Watchtower/internal/domain/models"
)

const (
	// HalfLife is the signal strength half-life. Fixed design constant
	// reproduced from the monitored heuristics; calibrate against the
	// cycle history before trusting it in production.
	HalfLife = 6 * time.Hour

	maxWeight       = 0.6 // share of the strongest signal in the fused strength
	avgWeight       = 0.4
	convergenceStep = 0.25 // multiplier gain per distinct source past two
	convergenceCap  = 2.0
	directionMargin = 1.4 // top vote must exceed the runner-up by this ratio
	riskTopN        = 8
)

// Engine fuses a cycle's signals. Stateless; a fusion pass is a pure
// function of its inputs, so one engine can serve concurrent callers.
type Engine struct{}

// New creates a fusion engine.
func New() *Engine { return &Engine{} }

// Fuse runs the full fusion pipeline over one cycle's signals.
func (e *Engine) Fuse(signals []models.Signal, now time.Time) *models.FusionResult {
	buckets := make(map[string]map[string]models.Signal) // entity -> source -> strongest decayed signal

	for _, s := range signals {
		if !s.Valid() {
			continue
		}
		decayed := s
		decayed.Strength = decayStrength(s.Strength, now.Sub(s.Timestamp))
		for _, id := range s.EntityIDs {
			bucket, ok := buckets[id]
			if !ok {
				bucket = make(map[string]models.Signal)
				buckets[id] = bucket
			}
			// Per-entity dedup by source: keep the stronger occurrence.
			if prev, ok := bucket[s.Source]; !ok || decayed.Strength > prev.Strength {
				bucket[s.Source] = decayed
			}
		}
	}

	entities := make([]models.EntitySignal, 0, len(buckets))
	for id, bucket := range buckets {
		entities = append(entities, fuseBucket(id, bucket))
	}
	sort.Slice(entities, func(i, j int) bool {
		if entities[i].FusedStrength != entities[j].FusedStrength {
			return entities[i].FusedStrength > entities[j].FusedStrength
		}
		return entities[i].EntityID < entities[j].EntityID
	})

	return &models.FusionResult{
		Entities:  entities,
		RiskLevel: riskLevel(entities),
		Zones:     convergenceZones(entities),
		CycleAt:   now,
	}
}

// decayStrength applies the exponential half-life decay. Age is clamped
// to zero so a clock-skewed future timestamp never amplifies a signal.
func decayStrength(strength float64, age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return strength * math.Pow(0.5, float64(age)/float64(HalfLife))
}

func fuseBucket(entityID string, bucket map[string]models.Signal) models.EntitySignal {
	list := make([]models.Signal, 0, len(bucket))
	for _, s := range bucket {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Strength != list[j].Strength {
			return list[i].Strength > list[j].Strength
		}
		return list[i].Source < list[j].Source
	})

	var sum, peak float64
	for _, s := range list {
		sum += s.Strength
		if s.Strength > peak {
			peak = s.Strength
		}
	}
	fused := peak*maxWeight + sum/float64(len(list))*avgWeight

	mult := 1.0
	if len(list) >= 3 {
		mult = math.Min(convergenceCap, 1+float64(len(list)-2)*convergenceStep)
	}
	fused = math.Min(100, fused*mult)

	return models.EntitySignal{
		EntityID:      entityID,
		Signals:       list,
		FusedStrength: clamp(fused, 0, 100),
		Direction:     voteDirection(list),
		Convergence:   mult,
		SignalCount:   len(list),
	}
}

// voteDirection accumulates strength*confidence per direction and takes
// the top vote only when it beats the runner-up by more than the margin
// ratio; otherwise the evidence is genuinely mixed and the fused
// direction is ambiguous.
func voteDirection(signals []models.Signal) models.Direction {
	votes := map[models.Direction]float64{}
	for _, s := range signals {
		votes[s.Direction] += s.Strength * s.Confidence
	}

	type dv struct {
		dir  models.Direction
		vote float64
	}
	ranked := make([]dv, 0, len(votes))
	for d, v := range votes {
		ranked = append(ranked, dv{dir: d, vote: v})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].vote != ranked[j].vote {
			return ranked[i].vote > ranked[j].vote
		}
		return ranked[i].dir < ranked[j].dir
	})

	if len(ranked) == 0 || ranked[0].vote <= 0 {
		return models.Ambiguous
	}
	if len(ranked) == 1 || ranked[0].vote > ranked[1].vote*directionMargin {
		return ranked[0].dir
	}
	return models.Ambiguous
}

// riskLevel is a rank-weighted mean over the strongest entities: rank 0
// weighs 8, rank 7 weighs 1.
func riskLevel(entities []models.EntitySignal) float64 {
	n := len(entities)
	if n > riskTopN {
		n = riskTopN
	}
	if n == 0 {
		return 0
	}
	var num, den float64
	for i := 0; i < n; i++ {
		w := float64(riskTopN - i)
		num += entities[i].FusedStrength * w
		den += w
	}
	return clamp(num/den, 0, 100)
}

// convergenceZones lists region entities several independent sources are
// flagging at once.
func convergenceZones(entities []models.EntitySignal) []string {
	var zones []string
	for _, e := range entities {
		if e.Convergence > 1.0 && strings.HasPrefix(e.EntityID, "region:") {
			zones = append(zones, e.EntityID)
		}
	}
	return zones
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
