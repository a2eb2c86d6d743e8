package usecase

import (
	"context"
	"testing"
	"time"

	"Watchtower/internal/domain/models"
	"Watchtower/internal/middleware"
)

func TestRunWithMergesPipelineAndExtras(t *testing.T) {
	ev, _ := newTestEvaluator(t, nil)
	pipe := middleware.NewSignalPipeline(&stubMetrics{})
	runner := NewCycleRunner(ev, pipe, time.Minute, testLogger(t))

	if err := pipe.Offer(testSignal("p1", "kafka_src", 65, "asset:VIX")); err != nil {
		t.Fatalf("offer: %v", err)
	}
	extra := testSignal("x1", "api_src", 70, "region:korean_peninsula")

	res := runner.RunWith(context.Background(), []models.Signal{extra}, "api")
	if _, ok := res.Fusion.Entity("asset:VIX"); !ok {
		t.Fatalf("pipeline signal missing from fusion")
	}
	if _, ok := res.Fusion.Entity("region:korean_peninsula"); !ok {
		t.Fatalf("extra signal missing from fusion")
	}
	if pipe.Pending() != 0 {
		t.Fatalf("run did not drain the pipeline")
	}
}

func TestSetContextCarriesAcrossRuns(t *testing.T) {
	ev, _ := newTestEvaluator(t, nil)
	pipe := middleware.NewSignalPipeline(&stubMetrics{})
	runner := NewCycleRunner(ev, pipe, time.Minute, testLogger(t))

	runner.SetContext(models.InferenceContext{TailRiskScore: 70})
	res := runner.RunOnce(context.Background(), "timer")

	var found bool
	for _, a := range res.Admitted {
		if a.Category == "tail_risk" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tail-risk context did not reach alert generation: %v", res.Admitted)
	}
	if runner.Context().TailRiskScore != 70 {
		t.Fatalf("context not retained")
	}
}
