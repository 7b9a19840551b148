package correlation

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"ransomguard/pkg/models"
)

// Config controls burst correlation behavior.
type Config struct {
	Window            time.Duration
	Cooldown          time.Duration
	WarnThreshold     int
	HighThreshold     int
	CriticalThreshold int
}

// Engine watches a short trailing window of events per device and decides
// whether the accumulated activity looks like a ransomware-style burst.
// At most one alert comes out of each evaluation, subject to a per-device
// cooldown and a dedup signature.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	devices map[string]*deviceState
	now     func() time.Time
}

type deviceState struct {
	mu            sync.Mutex
	window        []miniEvent
	lastAlertAt   int64
	lastSignature string
}

type miniEvent struct {
	ts        int64
	eventType string
	details   string
	score     int
}

type burstFeatures struct {
	burstScore     int
	eventCount     int
	uniqueFiles    int
	modified       int
	created        int
	deleted        int
	renamed        int
	entropySignals int
	burstSignals   int
}

// NewEngine creates a correlation engine.
func NewEngine(cfg Config) *Engine {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Second
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 20 * time.Second
	}
	if cfg.WarnThreshold <= 0 {
		cfg.WarnThreshold = 8
	}
	if cfg.HighThreshold <= 0 {
		cfg.HighThreshold = 12
	}
	if cfg.CriticalThreshold <= 0 {
		cfg.CriticalThreshold = 18
	}
	return &Engine{
		cfg:     cfg,
		devices: make(map[string]*deviceState),
		now:     time.Now,
	}
}

// Evaluate folds one scored event into the device window and returns an
// alert when the window crosses the burst threshold, or nil otherwise.
func (e *Engine) Evaluate(ev models.Event, score int) *models.Alert {
	deviceID := strings.TrimSpace(ev.DeviceID)
	if deviceID == "" {
		return nil
	}

	now := e.now().UnixMilli()
	ts := ev.TimestampMs
	if ts <= 0 {
		ts = now
	}

	state := e.device(deviceID)
	state.mu.Lock()
	defer state.mu.Unlock()

	state.window = append(state.window, miniEvent{
		ts:        ts,
		eventType: strings.TrimSpace(ev.EventType),
		details:   strings.TrimSpace(ev.Details),
		score:     score,
	})

	// Unlike the scoring window, this one trails the wall clock.
	cutoff := now - e.cfg.Window.Milliseconds()
	idx := 0
	for idx < len(state.window) && state.window[idx].ts < cutoff {
		idx++
	}
	if idx > 0 {
		state.window = state.window[idx:]
	}

	f := computeFeatures(state.window)

	if f.burstScore < e.cfg.WarnThreshold {
		return nil
	}
	if now-state.lastAlertAt < e.cfg.Cooldown.Milliseconds() {
		return nil
	}
	sig := f.signature()
	if sig == state.lastSignature {
		return nil
	}

	alert := &models.Alert{
		AlertID:     uuid.NewString(),
		TimestampMs: now,
		DeviceID:    deviceID,
		Type:        e.classify(f),
		Severity:    e.severityFor(f.burstScore),
		Message:     e.buildMessage(f),
	}

	state.lastAlertAt = now
	state.lastSignature = sig
	return alert
}

// QuarantineAlert composes a manual containment alert, bypassing the window.
func (e *Engine) QuarantineAlert(deviceID, reason string) *models.Alert {
	return &models.Alert{
		AlertID:     uuid.NewString(),
		TimestampMs: e.now().UnixMilli(),
		DeviceID:    strings.TrimSpace(deviceID),
		Type:        "quarantine",
		Severity:    8,
		Message:     "Device quarantined: " + strings.TrimSpace(reason),
	}
}

// ReleaseAlert composes a manual release alert, bypassing the window.
func (e *Engine) ReleaseAlert(deviceID, reason string) *models.Alert {
	return &models.Alert{
		AlertID:     uuid.NewString(),
		TimestampMs: e.now().UnixMilli(),
		DeviceID:    strings.TrimSpace(deviceID),
		Type:        "release",
		Severity:    3,
		Message:     "Device released: " + strings.TrimSpace(reason),
	}
}

func (e *Engine) device(deviceID string) *deviceState {
	e.mu.Lock()
	defer e.mu.Unlock()
	state := e.devices[deviceID]
	if state == nil {
		state = &deviceState{}
		e.devices[deviceID] = state
	}
	return state
}

func computeFeatures(window []miniEvent) burstFeatures {
	var f burstFeatures

	// Approximate distinct-file count; hash collisions undercount slightly.
	uniqueFiles := make(map[uint32]struct{}, len(window))

	for _, me := range window {
		if me.score > 0 {
			f.burstScore += me.score
		}

		t := strings.ToLower(me.eventType)
		switch {
		case strings.Contains(t, "file_modified"):
			f.modified++
		case strings.Contains(t, "file_created"):
			f.created++
		case strings.Contains(t, "file_deleted"):
			f.deleted++
		case strings.Contains(t, "rename"):
			f.renamed++
		case strings.Contains(t, "entropy"):
			f.entropySignals++
		case strings.Contains(t, "burst"):
			f.burstSignals++
		}

		if me.details != "" {
			h := fnv.New32a()
			h.Write([]byte(me.details))
			uniqueFiles[h.Sum32()] = struct{}{}
		}
	}

	f.uniqueFiles = len(uniqueFiles)
	f.eventCount = len(window)
	return f
}

func (f burstFeatures) signature() string {
	parts := []int{
		f.burstScore, f.eventCount, f.uniqueFiles,
		f.modified, f.created, f.deleted, f.renamed,
		f.entropySignals, f.burstSignals,
	}
	out := make([]string, len(parts))
	for i, v := range parts {
		out[i] = strconv.Itoa(v)
	}
	return strings.Join(out, "|")
}

func (e *Engine) classify(f burstFeatures) string {
	if f.entropySignals > 0 && f.modified > 0 {
		return "entropy_spike"
	}
	if f.renamed >= 3 {
		return "rename_storm"
	}
	if f.deleted >= 3 {
		return "mass_deletion"
	}
	if f.burstSignals > 0 {
		return "burst_activity"
	}

	if f.burstScore >= e.cfg.CriticalThreshold {
		return "ransomware_critical"
	}
	if f.burstScore >= e.cfg.HighThreshold {
		return "ransomware_high"
	}
	return "ransomware_warning"
}

func (e *Engine) severityFor(burstScore int) int {
	switch {
	case burstScore >= e.cfg.CriticalThreshold:
		return 10
	case burstScore >= e.cfg.HighThreshold:
		return 8
	case burstScore >= e.cfg.WarnThreshold:
		return 6
	default:
		return 5
	}
}

func (e *Engine) buildMessage(f burstFeatures) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Suspicious burst in last %ds: score=%d, events=%d, uniqueFiles≈%d. ",
		int(e.cfg.Window.Seconds()), f.burstScore, f.eventCount, f.uniqueFiles)
	fmt.Fprintf(&sb, "Ops[mod=%d, create=%d, del=%d, rename=%d]. ",
		f.modified, f.created, f.deleted, f.renamed)
	if f.entropySignals > 0 {
		fmt.Fprintf(&sb, "Signals[entropy=%d]. ", f.entropySignals)
	}
	if f.burstSignals > 0 {
		fmt.Fprintf(&sb, "Signals[burst=%d]. ", f.burstSignals)
	}
	sb.WriteString("Recommended: quarantine device, stop file shares, preserve logs, verify backups.")
	return sb.String()
}
