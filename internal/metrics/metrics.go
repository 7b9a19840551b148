package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ransomguard_events_total",
			Help: "Total number of events received, by source and status",
		},
		[]string{"source", "status"},
	)

	AlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ransomguard_alerts_total",
			Help: "Total number of alerts emitted, by alert type",
		},
		[]string{"type"},
	)

	IngestDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ransomguard_ingest_duration_seconds",
			Help:    "Duration of score-and-correlate processing per event",
			Buckets: prometheus.DefBuckets,
		},
	)

	RuleMatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ransomguard_rule_matches_total",
			Help: "Total number of events matched by a loaded detection rule",
		},
	)
)
