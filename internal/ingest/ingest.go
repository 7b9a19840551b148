package ingest

import (
	"errors"
	"strings"
	"time"

	"ransomguard/internal/correlation"
	"ransomguard/internal/logger"
	"ransomguard/internal/metrics"
	"ransomguard/internal/rules"
	"ransomguard/internal/scoring"
	"ransomguard/internal/store"
	"ransomguard/pkg/models"
)

// ErrMissingDeviceID rejects events without a usable device id. The engines
// themselves degrade silently; the boundary is where rejection is visible.
var ErrMissingDeviceID = errors.New("deviceId missing")

// Service is the ingestion boundary: it normalizes raw events, keeps the
// device registry and event ledger up to date, and runs each event through
// the scoring and correlation engines.
type Service struct {
	devices    *store.DeviceStore
	events     *store.EventStore
	alerts     *store.AlertStore
	scorer     *scoring.Engine
	correlator *correlation.Engine
	rules      rules.Engine
	now        func() time.Time
}

// NewService wires the ingestion boundary. The rules engine may be nil.
func NewService(devices *store.DeviceStore, events *store.EventStore, alerts *store.AlertStore,
	scorer *scoring.Engine, correlator *correlation.Engine, ruleEngine rules.Engine) *Service {
	return &Service{
		devices:    devices,
		events:     events,
		alerts:     alerts,
		scorer:     scorer,
		correlator: correlator,
		rules:      ruleEngine,
		now:        time.Now,
	}
}

// Process accepts one raw event and returns the alert it produced, if any.
func (s *Service) Process(source string, ev models.Event) (*models.Alert, error) {
	start := time.Now()

	ev.DeviceID = strings.TrimSpace(ev.DeviceID)
	if ev.DeviceID == "" {
		metrics.EventsTotal.WithLabelValues(source, "rejected").Inc()
		return nil, ErrMissingDeviceID
	}

	now := s.now().UnixMilli()
	if ev.TimestampMs <= 0 {
		ev.TimestampMs = now
	}
	if strings.TrimSpace(ev.EventType) == "" {
		ev.EventType = "unknown"
	}

	if s.rules != nil {
		if sev := s.rules.Apply(ev); sev > 0 {
			metrics.RuleMatchesTotal.Inc()
			if sev > ev.Severity {
				ev.Severity = sev
			}
		}
	}

	s.devices.Touch(ev.DeviceID, ev.TimestampMs)
	s.events.Append(ev)

	windowScore := s.scorer.Score(ev)
	alert := s.correlator.Evaluate(ev, scoring.PointsFor(ev.EventType, ev.Details))

	metrics.EventsTotal.WithLabelValues(source, "accepted").Inc()
	metrics.IngestDuration.Observe(time.Since(start).Seconds())

	if alert != nil {
		s.alerts.Append(*alert)
		metrics.AlertsTotal.WithLabelValues(alert.Type).Inc()
		logger.Infof("Alert emitted: device=%s type=%s severity=%d windowScore=%d",
			alert.DeviceID, alert.Type, alert.Severity, windowScore)
	} else {
		logger.Debugf("Event scored: device=%s type=%s windowScore=%d",
			ev.DeviceID, ev.EventType, windowScore)
	}

	return alert, nil
}

// Quarantine flags the device in the registry and emits the manual alert.
func (s *Service) Quarantine(deviceID, reason string) *models.Alert {
	s.devices.SetQuarantine(deviceID, true)
	alert := s.correlator.QuarantineAlert(deviceID, reason)
	s.alerts.Append(*alert)
	metrics.AlertsTotal.WithLabelValues(alert.Type).Inc()
	return alert
}

// Release clears the quarantine flag and emits the manual alert.
func (s *Service) Release(deviceID, reason string) *models.Alert {
	s.devices.SetQuarantine(deviceID, false)
	alert := s.correlator.ReleaseAlert(deviceID, reason)
	s.alerts.Append(*alert)
	metrics.AlertsTotal.WithLabelValues(alert.Type).Inc()
	return alert
}
