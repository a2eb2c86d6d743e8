package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycles       *prometheus.CounterVec
	signals      *prometheus.CounterVec
	dropped      *prometheus.CounterVec
	rulesFired   *prometheus.CounterVec
	activeAlerts *prometheus.GaugeVec
	riskLevel    prometheus.Gauge
	errorsTotal  *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycles: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_cycles_total",
				Help: "Total number of evaluation cycles run",
			},
			[]string{"trigger"},
		),
		signals: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_signals_ingested_total",
				Help: "Total number of signals accepted for fusion",
			},
			[]string{"source"},
		),
		dropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_signals_dropped_total",
				Help: "Total number of signals dropped before fusion",
			},
			[]string{"reason"},
		),
		rulesFired: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_rules_fired_total",
				Help: "Total number of inference rule firings",
			},
			[]string{"rule", "severity"},
		),
		activeAlerts: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "watchtower_active_alerts",
				Help: "Current number of active alerts per tier",
			},
			[]string{"tier"},
		),
		riskLevel: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "watchtower_risk_level",
				Help: "Global rank-weighted risk level from the last cycle",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "watchtower_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "watchtower_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records an evaluation cycle by trigger (timer, api).
func (r *Recorder) RecordCycle(trigger string) {
	r.cycles.WithLabelValues(trigger).Inc()
}

// RecordSignal records an accepted signal by source.
func (r *Recorder) RecordSignal(source string) {
	r.signals.WithLabelValues(source).Inc()
}

// RecordDropped records a dropped signal by reason.
func (r *Recorder) RecordDropped(reason string) {
	r.dropped.WithLabelValues(reason).Inc()
}

// RecordRuleFired records an inference rule firing.
func (r *Recorder) RecordRuleFired(ruleID, severity string) {
	r.rulesFired.WithLabelValues(ruleID, severity).Inc()
}

// RecordActiveAlerts records the active alert count for a tier.
func (r *Recorder) RecordActiveAlerts(tier string, n int) {
	r.activeAlerts.WithLabelValues(tier).Set(float64(n))
}

// RecordRiskLevel records the global risk level.
func (r *Recorder) RecordRiskLevel(level float64) {
	r.riskLevel.Set(level)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
