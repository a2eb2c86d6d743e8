package api

import (
	"time"

	models "Watchtower/internal/domain/models"
	"Watchtower/internal/service/ratelimit"
	"Watchtower/internal/usecase"
	xhttp "Watchtower/pkg/http"
	xlogger "Watchtower/pkg/logger"
	"Watchtower/pkg/util"

	"github.com/labstack/echo/v4"
)

// CoreEchoHandler exposes the risk engine over HTTP: current fusion
// state, inference findings, the alert inbox, and operator actions.
type CoreEchoHandler struct {
	logger      *xlogger.Logger
	evaluator   *usecase.Evaluator
	runner      *usecase.CycleRunner
	rl          *ratelimit.Limiter
	evaluateRPS float64
}

// NewCoreEchoHandler creates the handler. evaluateRPS is the token
// refill rate for the on-demand evaluate endpoint, per client IP.
func NewCoreEchoHandler(logger *xlogger.Logger, evaluator *usecase.Evaluator, runner *usecase.CycleRunner, evaluateRPS float64) *CoreEchoHandler {
	if evaluateRPS <= 0 {
		evaluateRPS = 1
	}
	return &CoreEchoHandler{
		logger:      logger,
		evaluator:   evaluator,
		runner:      runner,
		rl:          ratelimit.New(),
		evaluateRPS: evaluateRPS,
	}
}

func (h *CoreEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/fusion", h.Fusion)
	g.GET("/inferences", h.Inferences)
	g.GET("/alerts", h.Alerts)
	g.GET("/alerts/counts", h.AlertCounts)
	g.POST("/alerts/:id/ack", h.Acknowledge)
	g.POST("/alerts/:id/snooze", h.Snooze)
	g.POST("/alerts/mute", h.Mute)
	g.GET("/settings", h.Settings)
	g.PUT("/settings", h.UpdateSettings)
	g.POST("/evaluate", h.Evaluate)
}

// Fusion returns the fused entity scores from the latest cycle.
func (h *CoreEchoHandler) Fusion(c echo.Context) error {
	last := h.evaluator.Last()
	if last == nil {
		return xhttp.NotFoundResponse(c, "no cycle has run yet")
	}
	return xhttp.SuccessResponse(c, last.Fusion)
}

// Inferences returns the findings from the latest cycle.
func (h *CoreEchoHandler) Inferences(c echo.Context) error {
	last := h.evaluator.Last()
	if last == nil {
		return xhttp.NotFoundResponse(c, "no cycle has run yet")
	}
	return xhttp.SuccessResponse(c, last.Inferences)
}

func (h *CoreEchoHandler) Alerts(c echo.Context) error {
	req := &models.AlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	alerts := h.evaluator.Alerts().Active()
	if req.Tier != "" {
		filtered := alerts[:0]
		for _, a := range alerts {
			if a.Tier == models.Tier(req.Tier) {
				filtered = append(filtered, a)
			}
		}
		alerts = filtered
	}
	return xhttp.ListResponse(c, alerts, int64(len(alerts)))
}

func (h *CoreEchoHandler) AlertCounts(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.evaluator.Alerts().Counts())
}

func (h *CoreEchoHandler) Acknowledge(c echo.Context) error {
	id := c.Param("id")
	if !h.evaluator.Alerts().Acknowledge(id) {
		return xhttp.NotFoundResponse(c, "alert not found")
	}
	return xhttp.SuccessResponse(c, map[string]string{"id": id, "status": "acknowledged"})
}

func (h *CoreEchoHandler) Snooze(c echo.Context) error {
	id := c.Param("id")
	req := &models.SnoozeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d := util.ParseDurationDefault(req.Duration, 2*time.Hour)
	if !h.evaluator.Alerts().Snooze(id, d) {
		return xhttp.NotFoundResponse(c, "alert not found")
	}
	return xhttp.SuccessResponse(c, map[string]string{"id": id, "status": "snoozed", "duration": d.String()})
}

// Mute silences one category, or everything when no category is given.
func (h *CoreEchoHandler) Mute(c echo.Context) error {
	req := &models.MuteRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	d := util.ParseDurationDefault(req.Duration, time.Hour)
	if req.Category == "" {
		h.evaluator.Alerts().MuteAll(d)
		return xhttp.SuccessResponse(c, map[string]string{"status": "muted_all", "duration": d.String()})
	}
	h.evaluator.Alerts().MuteCategory(req.Category, d)
	return xhttp.SuccessResponse(c, map[string]string{"status": "muted", "category": req.Category, "duration": d.String()})
}

func (h *CoreEchoHandler) Settings(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.evaluator.Alerts().Settings())
}

func (h *CoreEchoHandler) UpdateSettings(c echo.Context) error {
	req := &models.SettingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	s := h.evaluator.Alerts().Settings()
	if req.TailRiskThreshold != nil {
		s.TailRiskThreshold = *req.TailRiskThreshold
	}
	if req.RiskLevelThreshold != nil {
		s.RiskLevelThreshold = *req.RiskLevelThreshold
	}
	if req.EnabledCategories != nil {
		s.EnabledCategories = req.EnabledCategories
	}
	if req.NotifyCritical != nil {
		s.NotifyCritical = *req.NotifyCritical
	}
	if req.NotifyWatch != nil {
		s.NotifyWatch = *req.NotifyWatch
	}
	h.evaluator.Alerts().UpdateSettings(s)
	return xhttp.SuccessResponse(c, s)
}

// Evaluate runs an on-demand cycle. Signals supplied in the body are
// merged with whatever the intake pipeline has buffered.
func (h *CoreEchoHandler) Evaluate(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":evaluate", 3, h.evaluateRPS) {
		h.logger.Warn("evaluate rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.TooManyRequestsResponse(c)
	}
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Context != nil {
		h.runner.SetContext(*req.Context)
	}
	res := h.runner.RunWith(c.Request().Context(), req.Signals, "api")
	return xhttp.SuccessResponse(c, res)
}
