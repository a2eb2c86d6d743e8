package repository

import (
	"context"

	"Watchtower/internal/domain/models"
)

// Metrics abstracts operational metrics recording.
type Metrics interface {
	RecordCycle(trigger string)
	RecordSignal(source string)
	RecordDropped(reason string)
	RecordRuleFired(ruleID string, severity string)
	RecordActiveAlerts(tier string, n int)
	RecordRiskLevel(level float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}

// HistorySink records per-cycle outputs for offline calibration.
// Best-effort: a failed write never fails a cycle.
type HistorySink interface {
	WriteCycle(ctx context.Context, fusion *models.FusionResult, results []models.InferenceResult) error
}

// AlertPublisher pushes newly admitted alerts to downstream notification
// collaborators.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, alert models.Alert) error
}
