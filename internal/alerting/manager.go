// Package alerting owns the alert lifecycle: candidate generation,
// fingerprint dedup, TTL expiry, operator actions, and durable state.
package alerting

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"Watchtower/internal/domain/models"
	"Watchtower/pkg/kv"
	applogger "Watchtower/pkg/logger"
)

// Storage keys. The full alert list and the settings live under fixed
// namespaced keys, loaded at startup and overwritten on every mutation.
const (
	alertsKey   = "alerts:active"
	settingsKey = "alerts:settings"
)

// Listener is notified synchronously with the active view after each
// mutation. Listeners must not mutate alert state.
type Listener func(active []models.Alert)

// Option configures Manager.
type Option func(*Manager)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger attaches a logger.
func WithLogger(l *applogger.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithDefaultSettings seeds the settings used when none are persisted.
// Settings saved by an operator still take precedence on load.
func WithDefaultSettings(s models.AlertSettings) Option {
	return func(m *Manager) { m.settings = s }
}

// Manager is the single mutable state holder of the core. All mutations
// run under one mutex; cycles are minutes-scale so contention is not a
// concern.
type Manager struct {
	mu        sync.Mutex
	store     kv.Store
	logger    *applogger.Logger
	now       func() time.Time
	alerts    []models.Alert
	settings  models.AlertSettings
	mutedAll  time.Time
	mutedCats map[string]time.Time
	listeners []Listener
}

// NewManager creates a manager and restores persisted state. A failed
// load yields an empty initial state; persistence is best-effort
// throughout.
func NewManager(store kv.Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		now:       time.Now,
		settings:  models.DefaultAlertSettings(),
		mutedCats: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.load()
	return m
}

// load restores alerts and settings, dropping anything already expired.
func (m *Manager) load() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if b, ok, err := m.store.Load(ctx, alertsKey); err == nil && ok {
		var persisted []models.Alert
		if err := json.Unmarshal(b, &persisted); err == nil {
			now := m.now()
			kept := persisted[:0]
			for _, a := range persisted {
				if !a.Expired(now) {
					kept = append(kept, a)
				}
			}
			m.alerts = kept
		}
	} else if err != nil && m.logger != nil {
		m.logger.Warn("alert state load failed", applogger.Error(err))
	}

	if b, ok, err := m.store.Load(ctx, settingsKey); err == nil && ok {
		var s models.AlertSettings
		if err := json.Unmarshal(b, &s); err == nil {
			m.settings = s
		}
	}
}

// persist writes the full alert list. Called with the lock held; a
// failed save is swallowed, the in-memory state stays authoritative.
func (m *Manager) persist() {
	b, err := json.Marshal(m.alerts)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Save(ctx, alertsKey, b); err != nil && m.logger != nil {
		m.logger.Warn("alert state save failed", applogger.Error(err))
	}
}

// Merge admits new candidates into the live alert set. Expired alerts
// are pruned, candidates whose fingerprint already exists among
// non-acknowledged live alerts are dropped, the rest are appended.
// Listeners are pushed only when an admitted alert's tier passes the
// notify toggles. Returns the admitted alerts.
func (m *Manager) Merge(candidates []models.Alert) []models.Alert {
	m.mu.Lock()
	now := m.now()

	kept := m.alerts[:0]
	live := make(map[string]bool)
	for _, a := range m.alerts {
		if a.Expired(now) {
			continue
		}
		kept = append(kept, a)
		if !a.Acknowledged {
			live[a.Fingerprint] = true
		}
	}
	m.alerts = kept

	var admitted []models.Alert
	for _, c := range candidates {
		if live[c.Fingerprint] {
			continue
		}
		live[c.Fingerprint] = true
		m.alerts = append(m.alerts, c)
		admitted = append(admitted, c)
	}

	m.persist()
	snapshot := m.activeLocked(now)
	push := false
	for _, c := range admitted {
		if m.settings.NotifyTier(c.Tier) {
			push = true
			break
		}
	}
	m.mu.Unlock()

	if push {
		m.notify(snapshot)
	}
	return admitted
}

// activeLocked computes the active view. Caller holds the lock.
func (m *Manager) activeLocked(now time.Time) []models.Alert {
	var out []models.Alert
	allMuted := now.Before(m.mutedAll)
	for _, a := range m.alerts {
		if a.Acknowledged || a.Expired(now) || a.Snoozed(now) {
			continue
		}
		if allMuted || now.Before(m.mutedCats[a.Category]) {
			continue
		}
		if !m.settings.CategoryEnabled(a.Category) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Tier.Rank() != out[j].Tier.Rank() {
			return out[i].Tier.Rank() < out[j].Tier.Rank()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Active returns the current active view, sorted by tier then recency.
func (m *Manager) Active() []models.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeLocked(m.now())
}

// Counts returns per-tier counts of the active view.
func (m *Manager) Counts() map[models.Tier]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[models.Tier]int)
	for _, a := range m.activeLocked(m.now()) {
		counts[a.Tier]++
	}
	return counts
}

// Acknowledge permanently removes an alert from future active views.
// The record stays in storage until a later load filters it by TTL.
func (m *Manager) Acknowledge(id string) bool {
	m.mu.Lock()
	found := false
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].Acknowledged = true
			found = true
			break
		}
	}
	var snapshot []models.Alert
	if found {
		m.persist()
		snapshot = m.activeLocked(m.now())
	}
	m.mu.Unlock()

	if found {
		m.notify(snapshot)
	}
	return found
}

// Snooze hides an alert until now+d without acknowledging it. Its
// fingerprint keeps blocking duplicate candidates so the alert does not
// race a copy of itself when it wakes.
func (m *Manager) Snooze(id string, d time.Duration) bool {
	m.mu.Lock()
	found := false
	until := m.now().Add(d)
	for i := range m.alerts {
		if m.alerts[i].ID == id {
			m.alerts[i].SnoozedUntil = &until
			found = true
			break
		}
	}
	var snapshot []models.Alert
	if found {
		m.persist()
		snapshot = m.activeLocked(m.now())
	}
	m.mu.Unlock()

	if found {
		m.notify(snapshot)
	}
	return found
}

// MuteCategory suppresses one category for d, independent of individual
// alert state.
func (m *Manager) MuteCategory(category string, d time.Duration) {
	m.mu.Lock()
	m.mutedCats[category] = m.now().Add(d)
	snapshot := m.activeLocked(m.now())
	m.mu.Unlock()
	m.notify(snapshot)
}

// MuteAll suppresses everything for d.
func (m *Manager) MuteAll(d time.Duration) {
	m.mu.Lock()
	m.mutedAll = m.now().Add(d)
	snapshot := m.activeLocked(m.now())
	m.mu.Unlock()
	m.notify(snapshot)
}

// Settings returns a copy of the operator settings.
func (m *Manager) Settings() models.AlertSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings replaces and persists the operator settings.
func (m *Manager) UpdateSettings(s models.AlertSettings) {
	m.mu.Lock()
	m.settings = s
	if b, err := json.Marshal(s); err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := m.store.Save(ctx, settingsKey, b); err != nil && m.logger != nil {
			m.logger.Warn("settings save failed", applogger.Error(err))
		}
		cancel()
	}
	snapshot := m.activeLocked(m.now())
	m.mu.Unlock()
	m.notify(snapshot)
}

// Subscribe registers a listener for alert-set changes.
func (m *Manager) Subscribe(l Listener) {
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// notify runs listeners outside the lock so a listener reading back
// through the manager cannot deadlock. Listeners must not mutate.
func (m *Manager) notify(active []models.Alert) {
	m.mu.Lock()
	ls := append([]Listener(nil), m.listeners...)
	m.mu.Unlock()
	for _, l := range ls {
		l(active)
	}
}
