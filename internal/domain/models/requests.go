package models

// Request DTOs for the HTTP API. Bound and validated by pkg/http.

type AlertsRequest struct {
	Tier string `query:"tier" validate:"omitempty,oneof=critical watch info"`
}

type SnoozeRequest struct {
	Duration string `json:"duration" default:"2h" validate:"required"`
}

type MuteRequest struct {
	Category string `json:"category" validate:"omitempty,max=64"`
	Duration string `json:"duration" default:"1h" validate:"required"`
}

type EvaluateRequest struct {
	Signals []Signal          `json:"signals" validate:"omitempty,dive"`
	Context *InferenceContext `json:"context"`
}

type SettingsRequest struct {
	TailRiskThreshold  *float64 `json:"tail_risk_threshold" validate:"omitempty,gte=0,lte=100"`
	RiskLevelThreshold *float64 `json:"risk_level_threshold" validate:"omitempty,gte=0,lte=100"`
	EnabledCategories  []string `json:"enabled_categories" validate:"omitempty,dive,max=64"`
	NotifyCritical     *bool    `json:"notify_critical"`
	NotifyWatch        *bool    `json:"notify_watch"`
}
