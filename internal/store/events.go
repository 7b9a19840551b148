package store

import (
	"sync"
	"time"

	"ransomguard/pkg/models"
)

const (
	eventHighWater = 5000
	eventTrimCount = 1000
)

// EventStore is a bounded in-memory append-only event ledger.
type EventStore struct {
	mu     sync.RWMutex
	events []models.Event
	now    func() time.Time
}

// NewEventStore creates an empty event ledger.
func NewEventStore() *EventStore {
	return &EventStore{now: time.Now}
}

// Append adds one event, dropping the oldest chunk once the ledger fills up.
func (s *EventStore) Append(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	if len(s.events) > eventHighWater {
		s.events = append([]models.Event(nil), s.events[eventTrimCount:]...)
	}
}

// Latest returns the newest n events in arrival order.
func (s *EventStore) Latest(n int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from := len(s.events) - n
	if from < 0 {
		from = 0
	}
	return append([]models.Event(nil), s.events[from:]...)
}

// LatestForDevice returns the newest n events for one device in arrival order.
func (s *EventStore) LatestForDevice(deviceID string, n int) []models.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Event, 0, n)
	for i := len(s.events) - 1; i >= 0 && len(out) < n; i-- {
		if s.events[i].DeviceID == deviceID {
			out = append(out, s.events[i])
		}
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// MaxSeverityInLast reports the highest event severity seen inside the window.
func (s *EventStore) MaxSeverityInLast(window time.Duration) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now().UnixMilli()
	max := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		if now-s.events[i].TimestampMs > window.Milliseconds() {
			break
		}
		if s.events[i].Severity > max {
			max = s.events[i].Severity
		}
	}
	return max
}

// CountSignalsInLast counts high-severity events (>=7) inside the window.
func (s *EventStore) CountSignalsInLast(window time.Duration) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now().UnixMilli()
	count := 0
	for i := len(s.events) - 1; i >= 0; i-- {
		if now-s.events[i].TimestampMs > window.Milliseconds() {
			break
		}
		if s.events[i].Severity >= 7 {
			count++
		}
	}
	return count
}

// Len reports the current ledger size.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
