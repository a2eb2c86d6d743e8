package middleware

import (
	"fmt"
	"sync"
	"time"

	"Watchtower/internal/domain/models"
	domrepo "Watchtower/internal/domain/repository"
)

// SignalPipeline sits between ingestion (Kafka, API) and the evaluator.
// It validates, throttles per source, and buffers signals until the next
// cycle drains them. Malformed input is dropped, not raised.
type SignalPipeline struct {
	metrics domrepo.Metrics

	mu         sync.Mutex
	pending    []models.Signal
	maxPending int
	lastSeen   map[string]time.Time // per-source last accepted time
	minGap     time.Duration
}

// PipelineOption configures SignalPipeline.
type PipelineOption func(*SignalPipeline)

// WithMaxPending caps the buffered signal count between cycles.
func WithMaxPending(n int) PipelineOption {
	return func(p *SignalPipeline) {
		if n > 0 {
			p.maxPending = n
		}
	}
}

// WithMinSourceGap throttles repeated submissions from one source.
func WithMinSourceGap(d time.Duration) PipelineOption {
	return func(p *SignalPipeline) { p.minGap = d }
}

// NewSignalPipeline creates a pipeline.
func NewSignalPipeline(metrics domrepo.Metrics, opts ...PipelineOption) *SignalPipeline {
	p := &SignalPipeline{
		metrics:    metrics,
		maxPending: 2048,
		lastSeen:   make(map[string]time.Time),
		minGap:     0, // no throttle by default; sources already batch upstream
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Offer validates and buffers one signal for the next cycle.
func (p *SignalPipeline) Offer(s models.Signal) error {
	if !s.Valid() {
		p.metrics.RecordDropped("malformed")
		return fmt.Errorf("malformed signal %q", s.ID)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.minGap > 0 {
		if last, ok := p.lastSeen[s.Source]; ok && time.Since(last) < p.minGap {
			p.metrics.RecordDropped("throttled")
			return nil
		}
		p.lastSeen[s.Source] = time.Now()
	}

	if len(p.pending) >= p.maxPending {
		p.metrics.RecordDropped("buffer_full")
		return nil
	}

	p.pending = append(p.pending, s)
	p.metrics.RecordSignal(s.Source)
	return nil
}

// Drain returns and clears the buffered batch.
func (p *SignalPipeline) Drain() []models.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	batch := p.pending
	p.pending = nil
	return batch
}

// Pending reports the current buffer depth.
func (p *SignalPipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pending)
}
