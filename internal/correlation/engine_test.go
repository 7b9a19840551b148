package correlation

import (
	"strings"
	"testing"
	"time"

	"ransomguard/pkg/models"
)

func newTestEngine() (*Engine, *time.Time) {
	e := NewEngine(Config{})
	current := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return current }
	return e, &current
}

func TestEvaluateEmptyDeviceReturnsNil(t *testing.T) {
	e, _ := newTestEngine()
	if alert := e.Evaluate(models.Event{DeviceID: "  ", EventType: "file_deleted"}, 3); alert != nil {
		t.Fatalf("expected nil for blank device id, got %+v", alert)
	}
	if len(e.devices) != 0 {
		t.Fatalf("expected no device state to be created")
	}
}

func TestBurstGateSuppressesLowScores(t *testing.T) {
	e, now := newTestEngine()
	for i := 0; i < 7; i++ {
		ev := models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_created", Details: "a.txt"}
		if alert := e.Evaluate(ev, 1); alert != nil {
			t.Fatalf("burstScore below threshold must not alert, got %+v", alert)
		}
		*now = now.Add(time.Second)
	}
}

func TestModifiedBurstEmitsWarningAtGate(t *testing.T) {
	e, now := newTestEngine()

	var alert *models.Alert
	for i := 0; i < 4; i++ {
		ev := models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_modified", Details: "x.txt"}
		alert = e.Evaluate(ev, 2)
		if i < 3 && alert != nil {
			t.Fatalf("event %d: burstScore below gate, got alert %+v", i+1, alert)
		}
		*now = now.Add(time.Second)
	}

	if alert == nil {
		t.Fatalf("expected alert once burstScore reached the gate")
	}
	if alert.Type != "ransomware_warning" {
		t.Fatalf("expected ransomware_warning, got %s", alert.Type)
	}
	if alert.Severity != 6 {
		t.Fatalf("expected severity 6, got %d", alert.Severity)
	}
	if !strings.Contains(alert.Message, "score=8") || !strings.Contains(alert.Message, "events=4") {
		t.Fatalf("unexpected message: %s", alert.Message)
	}
	if !strings.Contains(alert.Message, "uniqueFiles≈1") {
		t.Fatalf("expected one approximate unique file, got: %s", alert.Message)
	}

	// The fifth event arrives inside the cooldown.
	ev := models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_modified", Details: "x.txt"}
	if next := e.Evaluate(ev, 2); next != nil {
		t.Fatalf("expected cooldown suppression, got %+v", next)
	}
}

func TestRenameStormTakesPrecedenceOverFallback(t *testing.T) {
	e, now := newTestEngine()

	scores := []int{2, 2, 4}
	var alert *models.Alert
	for _, score := range scores {
		ev := models.Event{DeviceID: "D2", TimestampMs: now.UnixMilli(), EventType: "rename", Details: "f.locked"}
		alert = e.Evaluate(ev, score)
		*now = now.Add(time.Second)
	}

	if alert == nil {
		t.Fatalf("expected alert on third rename")
	}
	if alert.Type != "rename_storm" {
		t.Fatalf("expected rename_storm, got %s", alert.Type)
	}
}

func TestClassifyOrdering(t *testing.T) {
	e := NewEngine(Config{})
	cases := []struct {
		name string
		f    burstFeatures
		want string
	}{
		{"entropy with modified", burstFeatures{burstScore: 12, entropySignals: 1, modified: 2, renamed: 5}, "entropy_spike"},
		{"entropy without modified falls through", burstFeatures{burstScore: 12, entropySignals: 1, renamed: 3}, "rename_storm"},
		{"rename storm over fallback", burstFeatures{burstScore: 12, renamed: 3}, "rename_storm"},
		{"mass deletion", burstFeatures{burstScore: 12, deleted: 3}, "mass_deletion"},
		{"burst activity", burstFeatures{burstScore: 12, burstSignals: 1}, "burst_activity"},
		{"critical fallback", burstFeatures{burstScore: 18}, "ransomware_critical"},
		{"high fallback", burstFeatures{burstScore: 12}, "ransomware_high"},
		{"warning fallback", burstFeatures{burstScore: 8}, "ransomware_warning"},
	}

	for _, tc := range cases {
		if got := e.classify(tc.f); got != tc.want {
			t.Errorf("%s: classify = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestSeverityBreakpoints(t *testing.T) {
	e := NewEngine(Config{})
	cases := map[int]int{7: 5, 8: 6, 11: 6, 12: 8, 17: 8, 18: 10, 30: 10}
	prev := -1
	for _, score := range []int{7, 8, 11, 12, 17, 18, 30} {
		got := e.severityFor(score)
		if got != cases[score] {
			t.Errorf("severityFor(%d) = %d, want %d", score, got, cases[score])
		}
		if got < prev {
			t.Errorf("severity must be non-decreasing in burstScore")
		}
		prev = got
	}
}

func TestCooldownThenDedupSignature(t *testing.T) {
	e, now := newTestEngine()

	first := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 8)
	if first == nil {
		t.Fatalf("expected initial alert")
	}

	// Past the cooldown the old entry has left the window, so the new burst
	// has the exact same feature tuple and is deduplicated.
	*now = now.Add(21 * time.Second)
	dup := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 8)
	if dup != nil {
		t.Fatalf("expected identical signature to be suppressed, got %+v", dup)
	}

	// A changed feature tuple alerts again.
	*now = now.Add(21 * time.Second)
	changed := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 9)
	if changed == nil {
		t.Fatalf("expected changed signature to alert")
	}
}

func TestWindowPrunesAgainstWallClock(t *testing.T) {
	e, now := newTestEngine()

	// A backdated event falls straight out of the wall-clock window.
	stale := models.Event{DeviceID: "D1", TimestampMs: now.Add(-11 * time.Second).UnixMilli(), EventType: "file_deleted", Details: "a"}
	if alert := e.Evaluate(stale, 20); alert != nil {
		t.Fatalf("stale event must not contribute, got %+v", alert)
	}

	fresh := models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}
	alert := e.Evaluate(fresh, 8)
	if alert == nil {
		t.Fatalf("expected alert from fresh event alone")
	}
	if !strings.Contains(alert.Message, "events=1") {
		t.Fatalf("expected stale event pruned from features: %s", alert.Message)
	}
}

func TestNegativeScoresAreClamped(t *testing.T) {
	e, now := newTestEngine()

	e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "unknown", Details: "a"}, -5)
	alert := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "b"}, 8)
	if alert == nil {
		t.Fatalf("expected alert; negative score must not drag the sum down")
	}
	if !strings.Contains(alert.Message, "score=8") {
		t.Fatalf("expected clamped burst score 8: %s", alert.Message)
	}
}

func TestEntropySpikeClassification(t *testing.T) {
	e, now := newTestEngine()

	e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_modified", Details: "a"}, 2)
	e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_modified", Details: "b"}, 2)
	alert := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "entropy_spike", Details: "c"}, 5)

	if alert == nil {
		t.Fatalf("expected alert")
	}
	if alert.Type != "entropy_spike" {
		t.Fatalf("expected entropy_spike, got %s", alert.Type)
	}
	if !strings.Contains(alert.Message, "Signals[entropy=1]") {
		t.Fatalf("expected entropy signal in message: %s", alert.Message)
	}
}

func TestQuarantineAndReleaseBypassWindow(t *testing.T) {
	e, _ := newTestEngine()

	q := e.QuarantineAlert("D3", "manual")
	if q.Type != "quarantine" || q.Severity != 8 {
		t.Fatalf("unexpected quarantine alert: %+v", q)
	}
	if q.Message != "Device quarantined: manual" {
		t.Fatalf("unexpected quarantine message: %s", q.Message)
	}

	r := e.ReleaseAlert("D3", "manual")
	if r.Type != "release" || r.Severity != 3 {
		t.Fatalf("unexpected release alert: %+v", r)
	}
	if r.Message != "Device released: manual" {
		t.Fatalf("unexpected release message: %s", r.Message)
	}
}

func TestDeviceIndependence(t *testing.T) {
	e, now := newTestEngine()

	if alert := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 10); alert == nil {
		t.Fatalf("expected D1 alert")
	}

	// D1's cooldown and signature must not leak into D2.
	if alert := e.Evaluate(models.Event{DeviceID: "D2", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 10); alert == nil {
		t.Fatalf("expected D2 alert despite D1 cooldown")
	}
}

func TestRecommendedActionsInMessage(t *testing.T) {
	e, now := newTestEngine()
	alert := e.Evaluate(models.Event{DeviceID: "D1", TimestampMs: now.UnixMilli(), EventType: "file_deleted", Details: "a"}, 8)
	if alert == nil {
		t.Fatalf("expected alert")
	}
	if !strings.Contains(alert.Message, "quarantine device, stop file shares, preserve logs, verify backups") {
		t.Fatalf("expected recommended actions: %s", alert.Message)
	}
	if strings.Contains(alert.Message, "Signals[") {
		t.Fatalf("signal sections must be omitted when zero: %s", alert.Message)
	}
}
