package usecase

import (
	"context"
	"sync"
	"time"

	"Watchtower/internal/alerting"
	"Watchtower/internal/domain/models"
	domrepo "Watchtower/internal/domain/repository"
	"Watchtower/internal/fusion"
	"Watchtower/internal/inference"
	applogger "Watchtower/pkg/logger"
)

// CycleResult is everything one evaluation cycle produced.
type CycleResult struct {
	Fusion     *models.FusionResult     `json:"fusion"`
	Inferences []models.InferenceResult `json:"inferences"`
	Admitted   []models.Alert           `json:"admitted_alerts"`
}

// Evaluator runs the full signals -> fusion -> inference -> alerts
// pipeline for one cycle. Evaluate never returns an error: malformed
// input is dropped, persistence and publication are best-effort.
type Evaluator struct {
	fuser     *fusion.Engine
	rules     *inference.Engine
	alerts    *alerting.Manager
	metrics   domrepo.Metrics
	history   domrepo.HistorySink
	publisher domrepo.AlertPublisher
	logger    *applogger.Logger

	mu   sync.RWMutex
	last *CycleResult
}

// NewEvaluator creates an evaluator. History and publisher may be nil.
// Alert thresholds come from the manager's operator settings, read
// fresh each cycle.
func NewEvaluator(
	fuser *fusion.Engine,
	rules *inference.Engine,
	alerts *alerting.Manager,
	metrics domrepo.Metrics,
	history domrepo.HistorySink,
	publisher domrepo.AlertPublisher,
	logger *applogger.Logger,
) *Evaluator {
	return &Evaluator{
		fuser:     fuser,
		rules:     rules,
		alerts:    alerts,
		metrics:   metrics,
		history:   history,
		publisher: publisher,
		logger:    logger,
	}
}

// Evaluate runs one cycle over an already-gathered signal batch. The
// computation itself is synchronous and deterministic; only the
// best-effort side effects at the end touch I/O.
func (e *Evaluator) Evaluate(ctx context.Context, signals []models.Signal, ictx models.InferenceContext, trigger string) *CycleResult {
	start := time.Now()
	now := time.Now()

	fused := e.fuser.Fuse(signals, now)
	results := e.rules.Evaluate(fused, ictx)

	// Thresholds are operator settings, not construction-time config, so
	// a PUT /api/settings applies from the very next cycle.
	settings := e.alerts.Settings()
	candidates := alerting.FromInferences(results, now)
	candidates = append(candidates, alerting.FromRiskScore(ictx.TailRiskScore, settings.TailRiskThreshold, now)...)
	candidates = append(candidates, alerting.FromFusion(fused, settings.RiskLevelThreshold, now)...)
	admitted := e.alerts.Merge(candidates)

	res := &CycleResult{Fusion: fused, Inferences: results, Admitted: admitted}
	e.mu.Lock()
	e.last = res
	e.mu.Unlock()

	e.record(trigger, res, start)
	e.sideEffects(ctx, res, settings)

	e.logger.Info("cycle complete",
		applogger.String("trigger", trigger),
		applogger.Int("signals", len(signals)),
		applogger.Int("entities", len(fused.Entities)),
		applogger.Float64("risk_level", fused.RiskLevel),
		applogger.Int("findings", len(results)),
		applogger.Int("new_alerts", len(admitted)),
	)
	return res
}

// Last returns the most recent cycle result, or nil before the first
// cycle.
func (e *Evaluator) Last() *CycleResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.last
}

// Alerts exposes the alert manager for operator action handlers.
func (e *Evaluator) Alerts() *alerting.Manager {
	return e.alerts
}

func (e *Evaluator) record(trigger string, res *CycleResult, start time.Time) {
	e.metrics.RecordCycle(trigger)
	e.metrics.RecordRiskLevel(res.Fusion.RiskLevel)
	for _, r := range res.Inferences {
		e.metrics.RecordRuleFired(r.RuleID, string(r.Severity))
	}
	counts := e.alerts.Counts()
	for _, tier := range []models.Tier{models.TierCritical, models.TierWatch, models.TierInfo} {
		e.metrics.RecordActiveAlerts(string(tier), counts[tier])
	}
	e.metrics.RecordLatency("cycle", time.Since(start).Seconds())
}

// sideEffects runs best-effort persistence and publication. Failures
// are counted and logged, never propagated. Publication honors the
// notify toggles; suppressed tiers stay in the active set unsent.
func (e *Evaluator) sideEffects(ctx context.Context, res *CycleResult, settings models.AlertSettings) {
	if e.history != nil {
		if err := e.history.WriteCycle(ctx, res.Fusion, res.Inferences); err != nil {
			e.metrics.RecordError("history_write")
			e.logger.Warn("history write failed", applogger.Error(err))
		}
	}
	if e.publisher != nil {
		for _, a := range res.Admitted {
			if !settings.NotifyTier(a.Tier) {
				continue
			}
			if err := e.publisher.PublishAlert(ctx, a); err != nil {
				e.metrics.RecordError("alert_publish")
				e.logger.Warn("alert publish failed", applogger.Error(err), applogger.String("fingerprint", a.Fingerprint))
			}
		}
	}
}
