package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"ransomguard/internal/ingest"
	"ransomguard/internal/logger"
	"ransomguard/internal/store"
	"ransomguard/pkg/models"
)

// Handler serves the controller HTTP API.
type Handler struct {
	service *ingest.Service
	devices *store.DeviceStore
	events  *store.EventStore
	alerts  *store.AlertStore
}

// NewHandler creates the API handler.
func NewHandler(service *ingest.Service, devices *store.DeviceStore, events *store.EventStore, alerts *store.AlertStore) *Handler {
	return &Handler{
		service: service,
		devices: devices,
		events:  events,
		alerts:  alerts,
	}
}

type deviceCount struct {
	DeviceID string `json:"deviceId"`
	Count    int    `json:"count"`
}

// Ingest accepts one event and runs it through scoring and correlation.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
		return
	}

	if _, err := h.service.Process("http", ev); err != nil {
		if errors.Is(err, ingest.ErrMissingDeviceID) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "deviceId missing"})
			return
		}
		logger.Errorf("Ingest failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "ingest failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Events lists recent events with optional filters and an optional summary.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(queryInt(r, "limit", 50), 1000)
	items := h.events.Latest(limit)

	if deviceID := strings.TrimSpace(r.URL.Query().Get("deviceId")); deviceID != "" {
		items = filterSlice(items, func(e models.Event) bool { return e.DeviceID == deviceID })
	}
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		tt := strings.ToLower(typ)
		items = filterSlice(items, func(e models.Event) bool {
			return strings.Contains(strings.ToLower(e.EventType), tt)
		})
	}
	if since := queryInt64(r, "sinceMs", 0); since > 0 {
		items = filterSlice(items, func(e models.Event) bool { return e.TimestampMs >= since })
	}

	if !strings.EqualFold(r.URL.Query().Get("format"), "full") {
		writeJSON(w, http.StatusOK, items)
		return
	}

	byType := make(map[string]int)
	bySeverity := make(map[int]int)
	byDevice := make(map[string]int)
	suspicious := 0
	for _, e := range items {
		byType[safeLabel(e.EventType)]++
		bySeverity[e.Severity]++
		byDevice[safeLabel(e.DeviceID)]++
		t := strings.ToLower(e.EventType)
		if strings.Contains(t, "entropy") || strings.Contains(t, "burst") ||
			strings.Contains(t, "rename") || strings.Contains(t, "file_deleted") {
			suspicious++
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"summary": map[string]any{
			"count":                    len(items),
			"byType":                   byType,
			"bySeverity":               bySeverity,
			"topDevices":               topDevices(byDevice, 5),
			"suspiciousSignalsInBatch": suspicious,
		},
	})
}

// Alerts lists recent alerts with optional filters and an optional summary.
func (h *Handler) Alerts(w http.ResponseWriter, r *http.Request) {
	limit := clampLimit(queryInt(r, "limit", 50), 500)
	items := h.alerts.Latest(limit)

	if deviceID := strings.TrimSpace(r.URL.Query().Get("deviceId")); deviceID != "" {
		items = filterSlice(items, func(a models.Alert) bool { return a.DeviceID == deviceID })
	}
	if typ := strings.TrimSpace(r.URL.Query().Get("type")); typ != "" {
		tt := strings.ToLower(typ)
		items = filterSlice(items, func(a models.Alert) bool {
			return strings.Contains(strings.ToLower(a.Type), tt)
		})
	}
	if since := queryInt64(r, "sinceMs", 0); since > 0 {
		items = filterSlice(items, func(a models.Alert) bool { return a.TimestampMs >= since })
	}

	if !strings.EqualFold(r.URL.Query().Get("format"), "full") {
		writeJSON(w, http.StatusOK, items)
		return
	}

	byType := make(map[string]int)
	bySeverity := make(map[int]int)
	byDevice := make(map[string]int)
	for _, a := range items {
		byType[safeLabel(a.Type)]++
		bySeverity[a.Severity]++
		byDevice[safeLabel(a.DeviceID)]++
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"summary": map[string]any{
			"count":      len(items),
			"byType":     byType,
			"bySeverity": bySeverity,
			"topDevices": topDevices(byDevice, 5),
		},
	})
}

// Devices lists the device registry.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.devices.List())
}

// Quarantine flags a device and emits the manual alert.
func (h *Handler) Quarantine(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	h.service.Quarantine(deviceID, readReason(r))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Release clears a device's quarantine flag and emits the manual alert.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	deviceID := r.PathValue("deviceId")
	h.service.Release(deviceID, readReason(r))
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func readReason(r *http.Request) string {
	var body struct {
		Reason string `json:"reason"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}
	if strings.TrimSpace(body.Reason) == "" {
		return "manual"
	}
	return body.Reason
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

func filterSlice[T any](items []T, keep func(T) bool) []T {
	out := items[:0:0]
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func topDevices(counts map[string]int, n int) []deviceCount {
	out := make([]deviceCount, 0, len(counts))
	for id, c := range counts {
		out = append(out, deviceCount{DeviceID: id, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].DeviceID < out[j].DeviceID
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func safeLabel(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "unknown"
	}
	return s
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func queryInt64(r *http.Request, key string, def int64) int64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func clampLimit(v, max int) int {
	if v < 1 {
		return 1
	}
	if v > max {
		return max
	}
	return v
}
