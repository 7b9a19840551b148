package server

import (
	"net/http"
	"time"
)

const riskWindow = 2 * time.Minute

// Report returns a one-shot status snapshot: registry, recent activity,
// recent alerts, and a coarse short-term risk summary.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"devices":       h.devices.List(),
		"latestEvents":  h.events.Latest(200),
		"latestAlerts":  h.alerts.Latest(50),
		"generatedAtMs": time.Now().UnixMilli(),
		"risk": map[string]any{
			"maxSeverity2m": h.events.MaxSeverityInLast(riskWindow),
			"ransomSignals": h.events.CountSignalsInLast(riskWindow),
		},
	})
}
