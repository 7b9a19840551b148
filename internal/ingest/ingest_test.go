package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ransomguard/internal/correlation"
	"ransomguard/internal/rules"
	"ransomguard/internal/scoring"
	"ransomguard/internal/store"
	"ransomguard/pkg/models"
)

type fixedRules struct {
	severity int
}

func (f fixedRules) Apply(models.Event) int { return f.severity }

type fixture struct {
	service *Service
	devices *store.DeviceStore
	events  *store.EventStore
	alerts  *store.AlertStore
}

func newFixture(ruleEngine rules.Engine) *fixture {
	devices := store.NewDeviceStore()
	events := store.NewEventStore()
	alerts := store.NewAlertStore()
	service := NewService(devices, events, alerts,
		scoring.NewEngine(scoring.Config{}),
		correlation.NewEngine(correlation.Config{}),
		ruleEngine)
	return &fixture{service: service, devices: devices, events: events, alerts: alerts}
}

func TestProcessRejectsMissingDeviceID(t *testing.T) {
	f := newFixture(nil)

	alert, err := f.service.Process("test", models.Event{DeviceID: "   ", EventType: "file_deleted"})
	require.ErrorIs(t, err, ErrMissingDeviceID)
	assert.Nil(t, alert)
	assert.Equal(t, 0, f.events.Len())
	assert.Empty(t, f.devices.List())
}

func TestProcessNormalizesEvent(t *testing.T) {
	f := newFixture(nil)

	_, err := f.service.Process("test", models.Event{DeviceID: " D1 "})
	require.NoError(t, err)

	stored := f.events.Latest(1)
	require.Len(t, stored, 1)
	assert.Equal(t, "D1", stored[0].DeviceID)
	assert.Equal(t, "unknown", stored[0].EventType)
	assert.Greater(t, stored[0].TimestampMs, int64(0))

	d := f.devices.Get("D1")
	require.NotNil(t, d)
	assert.Equal(t, models.DeviceOnline, d.Status)
	assert.Equal(t, stored[0].TimestampMs, d.LastSeenMs)
}

func TestProcessEmitsAndStoresAlert(t *testing.T) {
	f := newFixture(nil)

	var alert *models.Alert
	for i := 0; i < 4; i++ {
		var err error
		alert, err = f.service.Process("test", models.Event{
			DeviceID:    "D1",
			TimestampMs: time.Now().UnixMilli(),
			EventType:   "file_modified",
			Details:     "report.docx",
		})
		require.NoError(t, err)
	}

	require.NotNil(t, alert, "four modifications reach the burst threshold")
	assert.Equal(t, "ransomware_warning", alert.Type)
	assert.Equal(t, 1, f.alerts.Len())

	stored := f.alerts.Latest(1)
	require.Len(t, stored, 1)
	assert.Equal(t, alert.AlertID, stored[0].AlertID)
}

func TestProcessRulesRaiseSeverity(t *testing.T) {
	f := newFixture(fixedRules{severity: 9})

	_, err := f.service.Process("test", models.Event{DeviceID: "D1", EventType: "file_created", Severity: 2})
	require.NoError(t, err)

	stored := f.events.Latest(1)
	require.Len(t, stored, 1)
	assert.Equal(t, 9, stored[0].Severity)
}

func TestProcessRulesNeverLowerSeverity(t *testing.T) {
	f := newFixture(fixedRules{severity: 3})

	_, err := f.service.Process("test", models.Event{DeviceID: "D1", EventType: "file_created", Severity: 10})
	require.NoError(t, err)

	stored := f.events.Latest(1)
	require.Len(t, stored, 1)
	assert.Equal(t, 10, stored[0].Severity)
}

func TestQuarantineAndRelease(t *testing.T) {
	f := newFixture(nil)

	alert := f.service.Quarantine("D1", "suspicious burst")
	require.NotNil(t, alert)
	assert.Equal(t, "quarantine", alert.Type)
	assert.Equal(t, 8, alert.Severity)

	d := f.devices.Get("D1")
	require.NotNil(t, d)
	assert.True(t, d.Quarantined)
	assert.Equal(t, models.DeviceQuarantined, d.Status)

	alert = f.service.Release("D1", "false positive")
	require.NotNil(t, alert)
	assert.Equal(t, "release", alert.Type)
	assert.Equal(t, 3, alert.Severity)

	d = f.devices.Get("D1")
	require.NotNil(t, d)
	assert.False(t, d.Quarantined)
	assert.Equal(t, models.DeviceOnline, d.Status)

	assert.Equal(t, 2, f.alerts.Len())
}
