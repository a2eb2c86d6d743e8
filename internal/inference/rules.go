package inference

import (
	"fmt"
	"math"
	"strings"

	"Watchtower/internal/domain/models"
)

// staticRule is the concrete rule shape: declared metadata plus an
// evaluate body. Registered in a fixed table at construction time.
type staticRule struct {
	id       string
	priority int
	primary  string
	eval     func(in *Input) *models.InferenceResult
}

func (r *staticRule) ID() string            { return r.id }
func (r *staticRule) Priority() int         { return r.priority }
func (r *staticRule) PrimaryEntity() string { return r.primary }
func (r *staticRule) Evaluate(in *Input) *models.InferenceResult {
	return r.eval(in)
}

// Threshold constants. Evaluated on fused strength, which is already
// decayed and convergence-amplified; rules must not re-decay.
const (
	nkEscalation     = 60
	vixStress        = 60
	tailRiskStress   = 55
	regionShock      = 65
	sectorStress     = 55
	riskLevelHigh    = 60
	macroInterest    = 40
	realRateFloor    = 0.5
	premiumDislocate = 3.0
	fomcWindowDays   = 3
)

func strengthOf(in *Input, entityID string) float64 {
	if es, ok := in.Fusion.Entity(entityID); ok {
		return es.FusedStrength
	}
	return 0
}

func signalIDsOf(in *Input, entityID string) []string {
	es, ok := in.Fusion.Entity(entityID)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(es.Signals))
	for _, s := range es.Signals {
		ids = append(ids, s.ID)
	}
	return ids
}

func commandAircraftActive(ctx models.InferenceContext) []string {
	var hits []string
	for _, label := range ctx.ActiveAircraft {
		u := strings.ToUpper(label)
		if strings.Contains(u, "E-4B") || strings.Contains(u, "E-6B") || strings.Contains(u, "RC-135") {
			hits = append(hits, label)
		}
	}
	return hits
}

func calendarWithin(ctx models.InferenceContext, name string, days float64) (models.CalendarEntry, bool) {
	for _, e := range ctx.Calendar {
		if e.DaysUntil >= 0 && e.DaysUntil <= days {
			if name == "" || strings.EqualFold(e.Name, name) {
				return e, true
			}
		}
	}
	return models.CalendarEntry{}, false
}

func defaultRules() []Rule {
	return []Rule{
		// 1. Compound escalation: NK tension plus airborne command posts.
		// Preempts the plain provocation rule for the same region.
		&staticRule{
			id:       "NK_COMMAND_ESCALATION",
			priority: 10,
			primary:  "region:korean_peninsula",
			eval: func(in *Input) *models.InferenceResult {
				strength := strengthOf(in, "region:korean_peninsula")
				aircraft := commandAircraftActive(in.Context)
				if strength < nkEscalation || len(aircraft) == 0 {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "NK_COMMAND_ESCALATION",
					Severity: models.SeverityCritical,
					Title:    "Peninsula escalation with command aircraft airborne",
					Summary: fmt.Sprintf("Korean peninsula tension fused at %.0f while %s active. Multiple independent indicators align with a provocation window.",
						strength, strings.Join(aircraft, ", ")),
					Action:     "Reduce KOSPI beta, hedge USD/KRW upside, review defense-sector exposure.",
					EntityIDs:  affectedEntities(in.Graph, "region:korean_peninsula"),
					Impact:     &models.ImpactRange{MinPct: -8, MaxPct: -3},
					SafeHavens: []string{"asset:gold", "asset:JPY", "asset:UST10Y"},
					Confidence: 0.85,
					SignalIDs:  signalIDsOf(in, "region:korean_peninsula"),
				}
			},
		},
		// 2. Plain peninsula provocation.
		&staticRule{
			id:       "NK_PROVOCATION",
			priority: 20,
			primary:  "region:korean_peninsula",
			eval: func(in *Input) *models.InferenceResult {
				strength := strengthOf(in, "region:korean_peninsula")
				if strength < nkEscalation {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "NK_PROVOCATION",
					Severity: models.SeverityElevated,
					Title:    "Korean peninsula tension elevated",
					Summary: fmt.Sprintf("Fused peninsula tension at %.0f. Historically short-lived market impact unless confirmed by secondary indicators.",
						strength),
					Action:     "Watch USD/KRW and defense names; avoid adding KOSPI leverage.",
					EntityIDs:  affectedEntities(in.Graph, "region:korean_peninsula"),
					Impact:     &models.ImpactRange{MinPct: -3, MaxPct: -1},
					SafeHavens: []string{"asset:gold"},
					Confidence: 0.75,
					SignalIDs:  signalIDsOf(in, "region:korean_peninsula"),
				}
			},
		},
		// 3. Several regions converging at once. Cross-cutting.
		&staticRule{
			id:       "MULTI_REGION_CONVERGENCE",
			priority: 30,
			eval: func(in *Input) *models.InferenceResult {
				if len(in.Fusion.Zones) < 2 {
					return nil
				}
				labels := make([]string, 0, len(in.Fusion.Zones))
				for _, z := range in.Fusion.Zones {
					labels = append(labels, in.Graph.Label(z))
				}
				return &models.InferenceResult{
					RuleID:   "MULTI_REGION_CONVERGENCE",
					Severity: models.SeverityCritical,
					Title:    "Independent sources converging on multiple regions",
					Summary: fmt.Sprintf("Convergent signal clusters on %s in the same cycle. Correlated geopolitical stress regimes are where diversification fails.",
						strings.Join(labels, " and ")),
					Action:     "Raise cash, favor havens over single-region hedges.",
					EntityIDs:  in.Fusion.Zones,
					SafeHavens: []string{"asset:gold", "asset:UST10Y", "asset:JPY"},
					Confidence: 0.8,
				}
			},
		},
		// 4. Financial stress: composite tail risk or the fused VIX entity.
		&staticRule{
			id:       "FINANCIAL_STRESS",
			priority: 40,
			primary:  "asset:VIX",
			eval: func(in *Input) *models.InferenceResult {
				vix := strengthOf(in, "asset:VIX")
				tail := in.Context.TailRiskScore
				if tail < tailRiskStress && vix < vixStress {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "FINANCIAL_STRESS",
					Severity: models.SeverityElevated,
					Title:    "Financial stress building",
					Summary: fmt.Sprintf("Tail-risk composite %.0f, fused volatility pressure %.0f. Stress readings at this level precede drawdown clusters.",
						tail, vix),
					Action:     "Trim leverage, stagger entries, keep dry powder.",
					EntityIDs:  affectedEntities(in.Graph, "asset:VIX"),
					Impact:     &models.ImpactRange{MinPct: -5, MaxPct: -2},
					SafeHavens: []string{"asset:UST10Y", "asset:gold"},
					Confidence: 0.7,
					SignalIDs:  signalIDsOf(in, "asset:VIX"),
				}
			},
		},
		// 5. Taiwan strait stress lands on semiconductors first.
		&staticRule{
			id:       "TAIWAN_SEMI_SHOCK",
			priority: 50,
			primary:  "region:taiwan_strait",
			eval: func(in *Input) *models.InferenceResult {
				strength := strengthOf(in, "region:taiwan_strait")
				if strength < regionShock {
					return nil
				}
				tickers := in.Graph.CompaniesInSector("sector:semiconductor")
				names := make([]string, 0, len(tickers))
				for _, t := range tickers {
					names = append(names, in.Graph.Label(t))
				}
				return &models.InferenceResult{
					RuleID:   "TAIWAN_SEMI_SHOCK",
					Severity: models.SeverityElevated,
					Title:    "Taiwan strait stress, semiconductor exposure",
					Summary: fmt.Sprintf("Strait tension fused at %.0f. Supply-chain sensitive names: %s.",
						strength, strings.Join(names, ", ")),
					Action:     "Stress-test semiconductor positions against shipment disruption.",
					EntityIDs:  affectedEntities(in.Graph, "region:taiwan_strait"),
					Impact:     &models.ImpactRange{MinPct: -6, MaxPct: -2},
					Confidence: 0.7,
					SignalIDs:  signalIDsOf(in, "region:taiwan_strait"),
				}
			},
		},
		// 6. Middle East is an oil supply story.
		&staticRule{
			id:       "MIDEAST_OIL_SHOCK",
			priority: 60,
			primary:  "region:middle_east",
			eval: func(in *Input) *models.InferenceResult {
				strength := strengthOf(in, "region:middle_east")
				if strength < regionShock {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "MIDEAST_OIL_SHOCK",
					Severity: models.SeverityElevated,
					Title:    "Middle East escalation, crude supply risk",
					Summary: fmt.Sprintf("Region tension fused at %.0f. Energy and shipping margins move first, import-heavy indices second.",
						strength),
					Action:     "Check energy hedges; shipping rates lag the headline by days.",
					EntityIDs:  affectedEntities(in.Graph, "region:middle_east"),
					Impact:     &models.ImpactRange{MinPct: 5, MaxPct: 15},
					Confidence: 0.7,
					SignalIDs:  signalIDsOf(in, "region:middle_east"),
				}
			},
		},
		// 7. Strategic aircraft surge without a matching region spike.
		&staticRule{
			id:       "AIRCRAFT_SURGE",
			priority: 70,
			primary:  "institution:us_forces",
			eval: func(in *Input) *models.InferenceResult {
				if len(in.Context.ActiveAircraft) < 2 {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "AIRCRAFT_SURGE",
					Severity: models.SeverityWatch,
					Title:    "Strategic aircraft activity above baseline",
					Summary: fmt.Sprintf("%d tracked strategic airframes active: %s. Often exercises; occasionally the first observable of something else.",
						len(in.Context.ActiveAircraft), strings.Join(in.Context.ActiveAircraft, ", ")),
					Action:     "No position change; recheck next cycle for regional confirmation.",
					EntityIDs:  affectedEntities(in.Graph, "institution:us_forces"),
					Confidence: 0.65,
				}
			},
		},
		// 8. Global risk level from the rank-weighted fusion mean.
		&staticRule{
			id:       "GLOBAL_RISK_ELEVATED",
			priority: 80,
			eval: func(in *Input) *models.InferenceResult {
				if in.Fusion.RiskLevel < riskLevelHigh {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "GLOBAL_RISK_ELEVATED",
					Severity: models.SeverityElevated,
					Title:    "Broad risk level elevated",
					Summary: fmt.Sprintf("Rank-weighted risk across the strongest entities at %.0f. Breadth matters more than any single reading.",
						in.Fusion.RiskLevel),
					Action:     "Favor quality and liquidity until the level recedes.",
					Confidence: 0.6,
				}
			},
		},
		// 9. Herd rotating into havens. Cross-cutting.
		&staticRule{
			id:       "SAFE_HAVEN_ROTATION",
			priority: 90,
			eval: func(in *Input) *models.InferenceResult {
				n := len(in.Fusion.Entities)
				if n > 8 {
					n = 8
				}
				riskOff := 0
				for _, e := range in.Fusion.Entities[:n] {
					if e.Direction == models.RiskOff {
						riskOff++
					}
				}
				if riskOff < 3 {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "SAFE_HAVEN_ROTATION",
					Severity: models.SeverityWatch,
					Title:    "Risk-off rotation across entities",
					Summary: fmt.Sprintf("%d of the top fused entities read risk-off this cycle.",
						riskOff),
					Action:     "Havens are getting crowded; size haven entries accordingly.",
					SafeHavens: []string{"asset:gold", "asset:JPY", "asset:UST10Y"},
					Confidence: 0.6,
				}
			},
		},
		// 10. FOMC inside the volatility window.
		&staticRule{
			id:       "FOMC_IMMINENT",
			priority: 100,
			primary:  "event:fomc",
			eval: func(in *Input) *models.InferenceResult {
				entry, ok := calendarWithin(in.Context, "FOMC", fomcWindowDays)
				if !ok {
					return nil
				}
				rates := strengthOf(in, "asset:UST10Y")
				if rates < macroInterest && strengthOf(in, "institution:fed") < macroInterest {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "FOMC_IMMINENT",
					Severity: models.SeverityWatch,
					Title:    "FOMC inside the event window",
					Summary: fmt.Sprintf("FOMC in %.1f days with rates complex fused at %.0f. Positioning ahead of the print drives the tape more than the print.",
						entry.DaysUntil, rates),
					Action:     "Avoid opening rate-sensitive positions before the decision.",
					EntityIDs:  affectedEntities(in.Graph, "event:fomc"),
					Confidence: 0.65,
					SignalIDs:  signalIDsOf(in, "asset:UST10Y"),
				}
			},
		},
		// 11. Gold against the real rate.
		&staticRule{
			id:       "GOLD_REAL_RATE",
			priority: 110,
			primary:  "asset:gold",
			eval: func(in *Input) *models.InferenceResult {
				gold := strengthOf(in, "asset:gold")
				if in.Context.RealRatePct >= realRateFloor || gold < macroInterest {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "GOLD_REAL_RATE",
					Severity: models.SeverityWatch,
					Title:    "Gold tailwind from compressed real rates",
					Summary: fmt.Sprintf("Real rate at %.2f%% with gold signals fused at %.0f. The carry cost of holding gold is near zero.",
						in.Context.RealRatePct, gold),
					Action:     "Gold allocation attractive versus cash while real rates stay pinned.",
					EntityIDs:  affectedEntities(in.Graph, "asset:gold"),
					Confidence: 0.6,
					SignalIDs:  signalIDsOf(in, "asset:gold"),
				}
			},
		},
		// 12. Onshore/offshore crypto premium dislocation.
		&staticRule{
			id:       "CRYPTO_PREMIUM_DISLOCATION",
			priority: 120,
			primary:  "asset:BTC",
			eval: func(in *Input) *models.InferenceResult {
				prem := in.Context.PremiumPct
				if math.Abs(prem) < premiumDislocate {
					return nil
				}
				mood := "local buying pressure"
				if prem < 0 {
					mood = "local capitulation"
				}
				return &models.InferenceResult{
					RuleID:   "CRYPTO_PREMIUM_DISLOCATION",
					Severity: models.SeverityWatch,
					Title:    "Onshore crypto premium dislocated",
					Summary: fmt.Sprintf("Domestic premium at %+.1f%%, signaling %s. Extreme readings historically mean-revert within days.",
						prem, mood),
					Action:     "Treat the premium as a sentiment gauge, not an arbitrage.",
					EntityIDs:  affectedEntities(in.Graph, "asset:BTC"),
					Confidence: 0.55,
				}
			},
		},
		// 13. Semiconductor sector stress independent of any region rule.
		&staticRule{
			id:       "SEMI_SECTOR_STRESS",
			priority: 130,
			primary:  "sector:semiconductor",
			eval: func(in *Input) *models.InferenceResult {
				strength := strengthOf(in, "sector:semiconductor")
				if strength < sectorStress {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "SEMI_SECTOR_STRESS",
					Severity: models.SeverityWatch,
					Title:    "Semiconductor sector under pressure",
					Summary: fmt.Sprintf("Sector signals fused at %.0f across sources.",
						strength),
					Action:     "Review memory-cycle exposure before adding.",
					EntityIDs:  affectedEntities(in.Graph, "sector:semiconductor"),
					Confidence: 0.6,
					SignalIDs:  signalIDsOf(in, "sector:semiconductor"),
				}
			},
		},
		// 14. Anything on the calendar inside a day.
		&staticRule{
			id:       "EVENT_IMMINENT",
			priority: 140,
			eval: func(in *Input) *models.InferenceResult {
				entry, ok := calendarWithin(in.Context, "", 1)
				if !ok {
					return nil
				}
				return &models.InferenceResult{
					RuleID:   "EVENT_IMMINENT",
					Severity: models.SeverityInfo,
					Title:    fmt.Sprintf("%s within 24 hours", entry.Name),
					Summary: fmt.Sprintf("%s in %.1f days; expect headline-driven intraday swings.",
						entry.Name, entry.DaysUntil),
					Confidence: 0.5,
				}
			},
		},
	}
}

// calmMarketRule is the terminal fallback: it fires only when no other
// rule did, so callers can rely on Evaluate never returning an empty
// list.
func calmMarketRule() Rule {
	return &staticRule{
		id:       "CALM_MARKET",
		priority: 999,
		eval: func(in *Input) *models.InferenceResult {
			return &models.InferenceResult{
				RuleID:     "CALM_MARKET",
				Severity:   models.SeverityInfo,
				Title:      "No actionable stress detected",
				Summary:    fmt.Sprintf("Fused risk level %.0f with no rule thresholds crossed. Quiet tape.", in.Fusion.RiskLevel),
				Action:     "Normal allocation; nothing to chase.",
				Confidence: 0.9,
			}
		},
	}
}
