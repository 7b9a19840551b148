package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fsnotify/fsnotify"

	"ransomguard/internal/logger"
	"ransomguard/pkg/models"
)

// Config configures one device folder watcher.
type Config struct {
	DeviceID         string
	Dir              string
	IngestURL        string
	EntropyThreshold float64
	Timeout          time.Duration
}

// Watcher reports filesystem activity in one device directory to the
// controller ingest endpoint. Created and modified files additionally go
// through an entropy probe; encrypted-looking content raises an
// entropy_spike event on top of the plain activity event.
type Watcher struct {
	cfg    Config
	client *http.Client
}

// NewWatcher creates a folder watcher.
func NewWatcher(cfg Config) (*Watcher, error) {
	if cfg.DeviceID == "" {
		return nil, fmt.Errorf("device id is required")
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if cfg.IngestURL == "" {
		cfg.IngestURL = "http://127.0.0.1:9004/api/ingest"
	}
	if cfg.EntropyThreshold <= 0 {
		cfg.EntropyThreshold = 7.2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Watcher{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Run watches the directory until ctx is canceled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}

	// Heartbeat so the device shows up in the registry immediately.
	w.send("heartbeat", 1, "agent_started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("Watcher error for %s: %v", w.cfg.DeviceID, err)
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	switch {
	case ev.Has(fsnotify.Create):
		w.send("file_created", 1, ev.Name)
		w.probeEntropy(ev.Name)
	case ev.Has(fsnotify.Write):
		w.send("file_modified", 2, ev.Name)
		w.probeEntropy(ev.Name)
	case ev.Has(fsnotify.Remove):
		w.send("file_deleted", 1, ev.Name)
	case ev.Has(fsnotify.Rename):
		w.send("rename", 2, ev.Name)
	}
}

func (w *Watcher) probeEntropy(path string) {
	e := FileEntropy(path)
	if e >= w.cfg.EntropyThreshold {
		w.send("entropy_spike", 7, fmt.Sprintf("entropy=%.2f %s", e, path))
	}
}

func (w *Watcher) send(eventType string, severity int, details string) {
	ev := models.Event{
		DeviceID:    w.cfg.DeviceID,
		TimestampMs: time.Now().UnixMilli(),
		EventType:   eventType,
		Severity:    severity,
		Details:     details,
	}

	body, err := json.Marshal(ev)
	if err != nil {
		logger.Errorf("Failed to marshal event for %s: %v", w.cfg.DeviceID, err)
		return
	}

	resp, err := w.client.Post(w.cfg.IngestURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Warnf("Failed to send event for %s: %v", w.cfg.DeviceID, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Warnf("Ingest rejected event for %s: %s", w.cfg.DeviceID, resp.Status)
	}
}
