package scoring

import (
	"testing"
	"time"

	"ransomguard/pkg/models"
)

func TestScoreAccumulatesOverRollingWindow(t *testing.T) {
	e := NewEngine(Config{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	want := []int{2, 4, 6, 8, 10}
	for i := 0; i < 5; i++ {
		got := e.Score(models.Event{
			DeviceID:    "D1",
			TimestampMs: base + int64(i)*1000,
			EventType:   "file_modified",
			Details:     "x.txt",
		})
		if got != want[i] {
			t.Fatalf("event %d: expected score %d, got %d", i+1, want[i], got)
		}
	}
}

func TestScorePrunesRelativeToEventTimestamp(t *testing.T) {
	e := NewEngine(Config{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	if got := e.Score(models.Event{DeviceID: "D1", TimestampMs: base, EventType: "file_deleted"}); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}

	// Exactly at the window edge is still inside.
	if got := e.Score(models.Event{DeviceID: "D1", TimestampMs: base + 120_000, EventType: "file_created"}); got != 4 {
		t.Fatalf("expected edge sample retained, got %d", got)
	}

	// One ms past the edge evicts the first sample.
	if got := e.Score(models.Event{DeviceID: "D1", TimestampMs: base + 120_001, EventType: "file_created"}); got != 2 {
		t.Fatalf("expected old sample pruned, got %d", got)
	}
}

func TestScoreEmptyDeviceIsNoop(t *testing.T) {
	e := NewEngine(Config{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	if got := e.Score(models.Event{DeviceID: "", TimestampMs: base, EventType: "file_deleted"}); got != 0 {
		t.Fatalf("expected 0 for empty device id, got %d", got)
	}
	if got := e.Score(models.Event{DeviceID: "   ", TimestampMs: base, EventType: "file_deleted"}); got != 0 {
		t.Fatalf("expected 0 for blank device id, got %d", got)
	}
	if len(e.devices) != 0 {
		t.Fatalf("expected no device state to be created, got %d", len(e.devices))
	}
}

func TestScoreDeviceIndependence(t *testing.T) {
	e := NewEngine(Config{})
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC).UnixMilli()

	for i := 0; i < 10; i++ {
		e.Score(models.Event{DeviceID: "D1", TimestampMs: base + int64(i)*100, EventType: "file_deleted"})
	}
	if got := e.Score(models.Event{DeviceID: "D2", TimestampMs: base, EventType: "file_created"}); got != 1 {
		t.Fatalf("expected D2 to start fresh, got %d", got)
	}
}

func TestPointsFor(t *testing.T) {
	cases := []struct {
		name      string
		eventType string
		details   string
		want      int
	}{
		{"deleted", "file_deleted", "", 3},
		{"modified", "file_modified", "", 2},
		{"created", "file_created", "", 1},
		{"mass rename", "mass_rename", "", 6},
		{"rename storm", "rename_storm", "", 6},
		{"rename", "rename", "", 4},
		{"burst", "burst", "", 4},
		{"entropy", "entropy_spike", "", 5},
		{"ransom", "ransom_note", "", 6},
		{"case insensitive", "FILE_DELETED", "", 3},
		{"details entropy fallback", "unknown", "entropy=7.9 /tmp/x", 5},
		{"details rename fallback", "unknown", "rename spike", 4},
		{"details burst fallback", "unknown", "burst wave", 4},
		{"type wins over details", "file_created", "entropy=7.9", 1},
		{"no match", "heartbeat", "agent_started", 0},
		{"sim marker alone", "heartbeat", "_sim_attack/a.bin", 2},
		{"sim marker bonus", "file_deleted", "_sim_attack/a.bin", 5},
	}

	for _, tc := range cases {
		if got := PointsFor(tc.eventType, tc.details); got != tc.want {
			t.Errorf("%s: PointsFor(%q, %q) = %d, want %d", tc.name, tc.eventType, tc.details, got, tc.want)
		}
	}
}

func TestScoreBatchIsStateless(t *testing.T) {
	e := NewEngine(Config{})
	events := []models.Event{
		{DeviceID: "D1", EventType: "file_deleted"},
		{DeviceID: "D1", EventType: "file_modified"},
		{DeviceID: "D1", EventType: "entropy_spike"},
	}

	if got := e.ScoreBatch(events); got != 10 {
		t.Fatalf("expected batch score 10, got %d", got)
	}
	if len(e.devices) != 0 {
		t.Fatalf("batch scoring must not touch window state")
	}
}

func TestScoreFallsBackToNowForZeroTimestamp(t *testing.T) {
	e := NewEngine(Config{})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return fixed }

	e.Score(models.Event{DeviceID: "D1", TimestampMs: 0, EventType: "file_modified"})

	dw := e.devices["D1"]
	if len(dw.samples) != 1 {
		t.Fatalf("expected one sample, got %d", len(dw.samples))
	}
	if dw.samples[0].ts != fixed.UnixMilli() {
		t.Fatalf("expected timestamp normalized to now, got %d", dw.samples[0].ts)
	}
}
