package alerting

import (
	"fmt"
	"strings"
	"time"

	"Watchtower/internal/domain/models"
)

// Fingerprints are category + ":" + a coarse stable key, so an alert is
// not regenerated every cycle by small value jiggles.

func newAlert(category, key string, tier models.Tier, now time.Time) models.Alert {
	fp := category + ":" + key
	return models.Alert{
		ID:          fmt.Sprintf("%s-%d", fp, now.UnixNano()),
		Fingerprint: fp,
		Tier:        tier,
		Category:    category,
		CreatedAt:   now,
		ExpiresAt:   now.Add(tier.TTL()),
	}
}

func tierFor(sev models.Severity) models.Tier {
	switch sev {
	case models.SeverityCritical:
		return models.TierCritical
	case models.SeverityElevated, models.SeverityWatch:
		return models.TierWatch
	default:
		return models.TierInfo
	}
}

var tierEmoji = map[models.Tier]string{
	models.TierCritical: "🚨",
	models.TierWatch:    "⚠️",
	models.TierInfo:     "ℹ️",
}

// FromInferences turns a cycle's findings into candidate alerts. The
// calm-market fallback never becomes an alert, and plain INFO findings
// only do when they carry an action hint.
func FromInferences(results []models.InferenceResult, now time.Time) []models.Alert {
	var out []models.Alert
	for _, r := range results {
		if r.RuleID == "CALM_MARKET" {
			continue
		}
		if r.Severity == models.SeverityInfo && r.Action == "" {
			continue
		}
		tier := tierFor(r.Severity)
		key := "any"
		if len(r.EntityIDs) > 0 {
			key = r.EntityIDs[0]
		}
		a := newAlert("inference_"+strings.ToLower(r.RuleID), key, tier, now)
		a.Title = r.Title
		a.Body = r.Summary
		a.Emoji = tierEmoji[tier]
		a.ActionHint = r.Action
		a.RelatedAssets = r.EntityIDs
		a.Score = r.Confidence
		out = append(out, a)
	}
	return out
}

// FromRiskScore generates a tail-risk alert when the composite crosses
// the operator threshold. The fingerprint buckets the score by ten
// points so a +-1 jiggle does not mint a fresh alert.
func FromRiskScore(score, threshold float64, now time.Time) []models.Alert {
	if score < threshold {
		return nil
	}
	tier := models.TierWatch
	if score >= 75 {
		tier = models.TierCritical
	}
	a := newAlert("tail_risk", fmt.Sprintf("%d", int(score)/10*10), tier, now)
	a.Title = fmt.Sprintf("Tail-risk composite at %.0f", score)
	a.Body = fmt.Sprintf("Composite stress score %.0f crossed the %.0f alert threshold.", score, threshold)
	a.Emoji = tierEmoji[tier]
	a.Score = score
	return []models.Alert{a}
}

// FromFusion generates one alert per actively-converging region plus a
// risk-level alert when the rank-weighted mean crosses the threshold.
func FromFusion(fusion *models.FusionResult, riskThreshold float64, now time.Time) []models.Alert {
	var out []models.Alert
	for _, zone := range fusion.Zones {
		es, _ := fusion.Entity(zone)
		a := newAlert("convergence", zone, models.TierWatch, now)
		a.Title = fmt.Sprintf("Signal convergence on %s", strings.TrimPrefix(zone, "region:"))
		a.Body = fmt.Sprintf("%d independent sources converging, fused strength %.0f (x%.2f amplification).",
			es.SignalCount, es.FusedStrength, es.Convergence)
		a.Emoji = tierEmoji[models.TierWatch]
		a.Score = es.FusedStrength
		a.RelatedAssets = []string{zone}
		out = append(out, a)
	}
	if fusion.RiskLevel >= riskThreshold {
		a := newAlert("risk_level", fmt.Sprintf("%d", int(fusion.RiskLevel)/10*10), models.TierWatch, now)
		a.Title = fmt.Sprintf("Global risk level at %.0f", fusion.RiskLevel)
		a.Body = fmt.Sprintf("Rank-weighted fused risk across the strongest entities reached %.0f.", fusion.RiskLevel)
		a.Emoji = tierEmoji[models.TierWatch]
		a.Score = fusion.RiskLevel
		out = append(out, a)
	}
	return out
}
