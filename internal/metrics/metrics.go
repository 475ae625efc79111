package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manrura_actions_total",
			Help: "Total number of API actions by outcome",
		},
		[]string{"action", "outcome"},
	)

	ActionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "manrura_action_duration_seconds",
			Help:    "API action duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	ScoresRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manrura_scores_recorded_total",
			Help: "Numeric scores recorded, by slot and value",
		},
		[]string{"slot", "score"},
	)

	PolicyRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manrura_policy_rejections_total",
			Help: "Score writes refused by the authorization policy",
		},
		[]string{"reason"},
	)

	EvidenceBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "manrura_evidence_upload_bytes",
			Help:    "Size of uploaded evidence files",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)

	SnapshotCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manrura_snapshot_cache_total",
			Help: "Snapshot cache lookups by result",
		},
		[]string{"result"},
	)

	ExportRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "manrura_export_runs_total",
			Help: "Spreadsheet export runs by outcome",
		},
		[]string{"outcome"},
	)
)
