package models

import "time"

// Tier governs alert TTL and display priority.
type Tier string

const (
	TierCritical Tier = "critical"
	TierWatch    Tier = "watch"
	TierInfo     Tier = "info"
)

var tierRank = map[Tier]int{
	TierCritical: 0,
	TierWatch:    1,
	TierInfo:     2,
}

// Rank returns the sort rank of the tier; unknown tiers sort last.
func (t Tier) Rank() int {
	if r, ok := tierRank[t]; ok {
		return r
	}
	return len(tierRank)
}

// TTL returns how long an alert of this tier stays visible. Critical
// findings stay longer since they are rarer and higher-stakes.
func (t Tier) TTL() time.Duration {
	switch t {
	case TierCritical:
		return 6 * time.Hour
	case TierWatch:
		return 2 * time.Hour
	default:
		return 30 * time.Minute
	}
}

// Alert is a durable, deduplicated, expiring record shown to operators.
type Alert struct {
	ID            string     `json:"id"`
	Fingerprint   string     `json:"fingerprint"` // category + ":" + stable bucket key
	Tier          Tier       `json:"tier"`
	Category      string     `json:"category"`
	Title         string     `json:"title"`
	Body          string     `json:"body"`
	Emoji         string     `json:"emoji,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     time.Time  `json:"expires_at"`
	Acknowledged  bool       `json:"acknowledged"`
	SnoozedUntil  *time.Time `json:"snoozed_until,omitempty"`
	Score         float64    `json:"score,omitempty"`
	RelatedAssets []string   `json:"related_assets,omitempty"`
	ActionHint    string     `json:"action_hint,omitempty"`
}

// Expired reports whether the alert aged out at the given time.
func (a *Alert) Expired(now time.Time) bool {
	return now.After(a.ExpiresAt)
}

// Snoozed reports whether the alert is hidden at the given time.
func (a *Alert) Snoozed(now time.Time) bool {
	return a.SnoozedUntil != nil && now.Before(*a.SnoozedUntil)
}

// AlertSettings are operator preferences persisted separately from the
// alert list.
type AlertSettings struct {
	TailRiskThreshold  float64  `json:"tail_risk_threshold"`
	RiskLevelThreshold float64  `json:"risk_level_threshold"`
	EnabledCategories  []string `json:"enabled_categories"`
	NotifyCritical     bool     `json:"notify_critical"`
	NotifyWatch        bool     `json:"notify_watch"`
}

// DefaultAlertSettings returns the settings used before an operator has
// saved any.
func DefaultAlertSettings() AlertSettings {
	return AlertSettings{
		TailRiskThreshold:  55,
		RiskLevelThreshold: 60,
		EnabledCategories:  nil, // nil means all categories enabled
		NotifyCritical:     true,
		NotifyWatch:        true,
	}
}

// NotifyTier reports whether admitted alerts of the tier should be
// pushed to operators. Info alerts have no toggle and always pass.
func (s *AlertSettings) NotifyTier(t Tier) bool {
	switch t {
	case TierCritical:
		return s.NotifyCritical
	case TierWatch:
		return s.NotifyWatch
	}
	return true
}

// CategoryEnabled reports whether a category passes the settings filter.
func (s *AlertSettings) CategoryEnabled(category string) bool {
	if len(s.EnabledCategories) == 0 {
		return true
	}
	for _, c := range s.EnabledCategories {
		if c == category {
			return true
		}
	}
	return false
}
