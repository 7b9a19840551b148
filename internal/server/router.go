package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter constructs a ServeMux with the controller API routes registered.
func NewRouter(h *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/ingest", h.Ingest)
	mux.HandleFunc("GET /api/events", h.Events)
	mux.HandleFunc("GET /api/alerts", h.Alerts)
	mux.HandleFunc("GET /api/devices", h.Devices)
	mux.HandleFunc("POST /api/quarantine/{deviceId}", h.Quarantine)
	mux.HandleFunc("POST /api/release/{deviceId}", h.Release)
	mux.HandleFunc("GET /api/report", h.Report)

	mux.HandleFunc("GET /healthz", h.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	return mux
}
