package usecase

import (
	"context"
	"sync"
	"time"

	"Watchtower/internal/domain/models"
	"Watchtower/internal/middleware"
	applogger "Watchtower/pkg/logger"
)

// CycleRunner drains the intake pipeline on a fixed interval and runs
// the evaluator over whatever arrived since the last tick. Market
// context (tail risk score, calendar, premium) is updated out of band
// via SetContext and carried across cycles.
type CycleRunner struct {
	evaluator *Evaluator
	pipeline  *middleware.SignalPipeline
	interval  time.Duration
	logger    *applogger.Logger

	mu   sync.RWMutex
	ictx models.InferenceContext

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewCycleRunner(evaluator *Evaluator, pipeline *middleware.SignalPipeline, interval time.Duration, logger *applogger.Logger) *CycleRunner {
	return &CycleRunner{
		evaluator: evaluator,
		pipeline:  pipeline,
		interval:  interval,
		logger:    logger,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// SetContext replaces the market context used by subsequent cycles.
func (r *CycleRunner) SetContext(ictx models.InferenceContext) {
	r.mu.Lock()
	r.ictx = ictx
	r.mu.Unlock()
}

// Context returns the market context the next cycle will use.
func (r *CycleRunner) Context() models.InferenceContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ictx
}

// Start launches the timer loop. The first cycle runs after one full
// interval so the pipeline has something to drain.
func (r *CycleRunner) Start() {
	go r.loop()
	r.logger.Info("cycle runner started", applogger.Duration("interval", r.interval))
}

// RunOnce drains the pipeline and evaluates immediately, outside the
// timer.
func (r *CycleRunner) RunOnce(ctx context.Context, trigger string) *CycleResult {
	return r.RunWith(ctx, nil, trigger)
}

// RunWith evaluates the drained pipeline plus any caller-supplied
// signals. Used by the on-demand evaluate endpoint.
func (r *CycleRunner) RunWith(ctx context.Context, extra []models.Signal, trigger string) *CycleResult {
	signals := r.pipeline.Drain()
	signals = append(signals, extra...)
	return r.evaluator.Evaluate(ctx, signals, r.Context(), trigger)
}

func (r *CycleRunner) loop() {
	defer close(r.doneCh)
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.RunOnce(context.Background(), "timer")
		case <-r.stopCh:
			return
		}
	}
}

// Stop halts the timer loop and waits for an in-flight cycle to finish.
func (r *CycleRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
	})
	<-r.doneCh
	r.logger.Info("cycle runner stopped")
}
