package rules

import "ransomguard/pkg/models"

// Engine annotates incoming events with a rule-derived severity.
// The returned value is informational only; 0 means no rule matched.
type Engine interface {
	Apply(event models.Event) int
}

// NoopEngine matches nothing.
type NoopEngine struct{}

// Apply returns 0 for every event.
func (n *NoopEngine) Apply(event models.Event) int {
	return 0
}
