package alerting

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"Watchtower/internal/domain/models"
	"Watchtower/pkg/kv"
)

var t0 = time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

// testClock is an adjustable time source for TTL-sensitive tests.
type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time          { return c.now }
func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager(t *testing.T) (*Manager, *testClock, *kv.MemoryStore) {
	t.Helper()
	clock := &testClock{now: t0}
	store := kv.NewMemoryStore()
	return NewManager(store, WithClock(clock.Now)), clock, store
}

func candidate(category, key string, tier models.Tier, now time.Time) models.Alert {
	a := newAlert(category, key, tier, now)
	a.Title = category + " " + key
	return a
}

func TestMergeAdmitsAndDedups(t *testing.T) {
	m, clock, _ := newTestManager(t)

	first := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})
	if len(first) != 1 {
		t.Fatalf("admitted = %d, want 1", len(first))
	}

	// same fingerprint in the same cycle batch
	dup := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})
	if len(dup) != 0 {
		t.Fatalf("admitted duplicate fingerprint")
	}

	// a different bucket is a different fingerprint
	other := m.Merge([]models.Alert{candidate("tail_risk", "70", models.TierWatch, clock.Now())})
	if len(other) != 1 {
		t.Fatalf("distinct fingerprint not admitted")
	}
	if got := len(m.Active()); got != 2 {
		t.Fatalf("active = %d, want 2", got)
	}
}

func TestInfoAlertExpiresAfterThirtyMinutes(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{candidate("inference_event_imminent", "any", models.TierInfo, clock.Now())})

	clock.Advance(29 * time.Minute)
	if len(m.Active()) != 1 {
		t.Fatalf("info alert missing before its TTL")
	}
	clock.Advance(2 * time.Minute) // t0+31m
	if len(m.Active()) != 0 {
		t.Fatalf("info alert still active past 30 minutes")
	}
}

func TestCriticalAlertSixHourTTL(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{candidate("tail_risk", "80", models.TierCritical, clock.Now())})

	clock.Advance(5*time.Hour + 59*time.Minute)
	if len(m.Active()) != 1 {
		t.Fatalf("critical alert missing at 5h59m")
	}
	clock.Advance(2 * time.Minute) // 6h01m
	if len(m.Active()) != 0 {
		t.Fatalf("critical alert still active at 6h01m")
	}
}

func TestExpiredFingerprintCanFireAgain(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{candidate("convergence", "region:korean_peninsula", models.TierWatch, clock.Now())})

	clock.Advance(3 * time.Hour) // past the 2h watch TTL
	again := m.Merge([]models.Alert{candidate("convergence", "region:korean_peninsula", models.TierWatch, clock.Now())})
	if len(again) != 1 {
		t.Fatalf("expired fingerprint still blocked a new alert")
	}
}

func TestAcknowledgeRemovesFromActiveView(t *testing.T) {
	m, clock, _ := newTestManager(t)
	admitted := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})

	if !m.Acknowledge(admitted[0].ID) {
		t.Fatalf("acknowledge returned false for a live alert")
	}
	if m.Acknowledge("nope") {
		t.Fatalf("acknowledge returned true for an unknown id")
	}
	if len(m.Active()) != 0 {
		t.Fatalf("acknowledged alert still in active view")
	}
	// acked fingerprint no longer blocks a fresh candidate
	if got := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())}); len(got) != 1 {
		t.Fatalf("acknowledged fingerprint blocked a new alert")
	}
}

func TestSnoozeHidesButKeepsBlocking(t *testing.T) {
	m, clock, _ := newTestManager(t)
	admitted := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierCritical, clock.Now())})

	if !m.Snooze(admitted[0].ID, time.Hour) {
		t.Fatalf("snooze returned false for a live alert")
	}
	if len(m.Active()) != 0 {
		t.Fatalf("snoozed alert still visible")
	}
	// snoozed alerts keep their fingerprint live
	if got := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierCritical, clock.Now())}); len(got) != 0 {
		t.Fatalf("snoozed fingerprint did not block a duplicate")
	}
	clock.Advance(61 * time.Minute)
	if len(m.Active()) != 1 {
		t.Fatalf("snoozed alert did not return after the snooze window")
	}
}

func TestMuteCategoryAndMuteAll(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{
		candidate("tail_risk", "60", models.TierWatch, clock.Now()),
		candidate("convergence", "region:middle_east", models.TierWatch, clock.Now()),
	})

	m.MuteCategory("tail_risk", time.Hour)
	active := m.Active()
	if len(active) != 1 || active[0].Category != "convergence" {
		t.Fatalf("category mute filtered wrong set: %v", active)
	}

	m.MuteAll(30 * time.Minute)
	if len(m.Active()) != 0 {
		t.Fatalf("mute-all left alerts visible")
	}
	clock.Advance(31 * time.Minute)
	if len(m.Active()) != 1 {
		t.Fatalf("mute-all did not lapse; the category mute should still hold")
	}
}

func TestActiveSortedByTierThenRecency(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{candidate("a", "1", models.TierInfo, clock.Now())})
	clock.Advance(time.Minute)
	m.Merge([]models.Alert{candidate("b", "1", models.TierCritical, clock.Now())})
	clock.Advance(time.Minute)
	m.Merge([]models.Alert{candidate("c", "1", models.TierWatch, clock.Now())})

	active := m.Active()
	if len(active) != 3 {
		t.Fatalf("active = %d, want 3", len(active))
	}
	want := []models.Tier{models.TierCritical, models.TierWatch, models.TierInfo}
	for i, tier := range want {
		if active[i].Tier != tier {
			t.Fatalf("position %d tier = %s, want %s", i, active[i].Tier, tier)
		}
	}
}

func TestPersistenceDropsExpiredOnLoad(t *testing.T) {
	clock := &testClock{now: t0}
	store := kv.NewMemoryStore()
	m := NewManager(store, WithClock(clock.Now))
	m.Merge([]models.Alert{
		candidate("tail_risk", "60", models.TierCritical, clock.Now()),
		candidate("inference_event_imminent", "any", models.TierInfo, clock.Now()),
	})

	// restart three hours later: info expired, critical survives
	clock.Advance(3 * time.Hour)
	restored := NewManager(store, WithClock(clock.Now))
	active := restored.Active()
	if len(active) != 1 {
		t.Fatalf("restored active = %d, want 1", len(active))
	}
	if active[0].Tier != models.TierCritical {
		t.Fatalf("restored tier = %s, want critical", active[0].Tier)
	}

	// the persisted blob itself no longer carries the expired record
	b, ok, err := store.Load(context.Background(), "alerts:active")
	if err != nil || !ok {
		t.Fatalf("expected persisted alert state")
	}
	restored.Merge(nil) // force a prune+persist pass
	b, _, _ = store.Load(context.Background(), "alerts:active")
	var persisted []models.Alert
	if err := json.Unmarshal(b, &persisted); err != nil {
		t.Fatalf("persisted state unreadable: %v", err)
	}
	if len(persisted) != 1 {
		t.Fatalf("persisted = %d records, want expired pruned", len(persisted))
	}
}

func TestSettingsPersistAcrossRestart(t *testing.T) {
	clock := &testClock{now: t0}
	store := kv.NewMemoryStore()
	m := NewManager(store, WithClock(clock.Now))

	s := m.Settings()
	s.RiskLevelThreshold = 70
	s.NotifyWatch = false
	m.UpdateSettings(s)

	restored := NewManager(store, WithClock(clock.Now))
	got := restored.Settings()
	if got.RiskLevelThreshold != 70 || got.NotifyWatch {
		t.Fatalf("settings not restored: %+v", got)
	}
}

func TestListenersNotifiedOnAdmission(t *testing.T) {
	m, clock, _ := newTestManager(t)

	var calls [][]models.Alert
	m.Subscribe(func(active []models.Alert) {
		calls = append(calls, active)
	})

	m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})
	if len(calls) != 1 {
		t.Fatalf("listener calls = %d, want 1 after admission", len(calls))
	}

	// a cycle that admits nothing stays silent
	m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})
	if len(calls) != 1 {
		t.Fatalf("listener notified for an all-duplicate cycle")
	}

	// listeners may call back into the manager without deadlocking
	m.Subscribe(func([]models.Alert) { _ = m.Active() })
	m.Merge([]models.Alert{candidate("tail_risk", "70", models.TierWatch, clock.Now())})
}

func TestNotifyTogglesGateAdmissionPush(t *testing.T) {
	m, clock, _ := newTestManager(t)

	var calls int
	m.Subscribe(func([]models.Alert) { calls++ })

	s := m.Settings()
	s.NotifyWatch = false
	m.UpdateSettings(s)
	calls = 0 // UpdateSettings itself notifies

	admitted := m.Merge([]models.Alert{candidate("tail_risk", "60", models.TierWatch, clock.Now())})
	if len(admitted) != 1 {
		t.Fatalf("watch alert not admitted with its push toggled off")
	}
	if calls != 0 {
		t.Fatalf("listener pushed for a suppressed watch tier")
	}

	// critical still pushes
	m.Merge([]models.Alert{candidate("tail_risk", "80", models.TierCritical, clock.Now())})
	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1 for a critical admission", calls)
	}
}

func TestDefaultSettingsSeededNotOverriding(t *testing.T) {
	clock := &testClock{now: t0}
	store := kv.NewMemoryStore()

	seed := models.DefaultAlertSettings()
	seed.TailRiskThreshold = 42
	m := NewManager(store, WithClock(clock.Now), WithDefaultSettings(seed))
	if got := m.Settings().TailRiskThreshold; got != 42 {
		t.Fatalf("seeded threshold = %v, want 42", got)
	}

	s := m.Settings()
	s.TailRiskThreshold = 90
	m.UpdateSettings(s)

	// persisted operator settings win over the seed on restart
	restored := NewManager(store, WithClock(clock.Now), WithDefaultSettings(seed))
	if got := restored.Settings().TailRiskThreshold; got != 90 {
		t.Fatalf("restored threshold = %v, want the saved 90", got)
	}
}

func TestCategoryFilterFromSettings(t *testing.T) {
	m, clock, _ := newTestManager(t)
	m.Merge([]models.Alert{
		candidate("tail_risk", "60", models.TierWatch, clock.Now()),
		candidate("convergence", "region:middle_east", models.TierWatch, clock.Now()),
	})

	s := m.Settings()
	s.EnabledCategories = []string{"convergence"}
	m.UpdateSettings(s)

	active := m.Active()
	if len(active) != 1 || active[0].Category != "convergence" {
		t.Fatalf("settings filter produced %v", active)
	}
}
