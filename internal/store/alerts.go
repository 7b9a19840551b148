package store

import (
	"sync"

	"ransomguard/pkg/models"
)

const (
	alertHighWater = 2000
	alertTrimCount = 500
)

// AlertStore is a bounded in-memory append-only alert ledger.
type AlertStore struct {
	mu     sync.RWMutex
	alerts []models.Alert
}

// NewAlertStore creates an empty alert ledger.
func NewAlertStore() *AlertStore {
	return &AlertStore{}
}

// Append adds one alert, dropping the oldest chunk once the ledger fills up.
func (s *AlertStore) Append(a models.Alert) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alerts = append(s.alerts, a)
	if len(s.alerts) > alertHighWater {
		s.alerts = append([]models.Alert(nil), s.alerts[alertTrimCount:]...)
	}
}

// Latest returns the newest n alerts in emission order.
func (s *AlertStore) Latest(n int) []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	from := len(s.alerts) - n
	if from < 0 {
		from = 0
	}
	return append([]models.Alert(nil), s.alerts[from:]...)
}

// Len reports the current ledger size.
func (s *AlertStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.alerts)
}
