package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"Watchtower/internal/domain/models"
	"Watchtower/internal/middleware"
	applogger "Watchtower/pkg/logger"
)

// SignalsHandler consumes raw signal messages from Kafka and feeds
// them into the intake pipeline for the next cycle.
type SignalsHandler struct {
	topic    string
	pipeline *middleware.SignalPipeline
	logger   *applogger.Logger
}

func NewSignalsHandler(topic string, pipeline *middleware.SignalPipeline, logger *applogger.Logger) *SignalsHandler {
	return &SignalsHandler{topic: topic, pipeline: pipeline, logger: logger}
}

func (h *SignalsHandler) Topic() string {
	return h.topic
}

func (h *SignalsHandler) Handle(_ context.Context, data []byte) error {
	var s models.Signal
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode signal: %w", err)
	}
	if err := h.pipeline.Offer(s); err != nil {
		// Dropped signals are counted by the pipeline; no retry.
		h.logger.Debug("signal rejected", applogger.String("id", s.ID), applogger.Error(err))
	}
	return nil
}
