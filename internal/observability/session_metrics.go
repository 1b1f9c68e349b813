package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "evaluations_total",
			Help:      "Completed risk evaluations by scorer and resulting label",
		},
		[]string{"scorer", "label"},
	)

	ScoringFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "scoring_failures_total",
			Help:      "Failed scoring attempts by scorer and error code",
		},
		[]string{"scorer", "reason"},
	)

	ScanEventsDebounced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "scan_events_debounced_total",
			Help:      "Scan events dropped while a scoring run was already in flight",
		},
	)

	LateResultsDiscarded = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "late_results_discarded_total",
			Help:      "Scoring results discarded because the session had moved on",
		},
	)

	ScoringLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "risk_engine",
			Name:      "scoring_duration_seconds",
			Help:      "Latency of scoring runs per scorer",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"scorer"},
	)

	ScoringInflight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "risk_engine",
			Name:      "scoring_inflight",
			Help:      "Scoring runs currently in flight",
		},
	)

	FraudReports = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "risk_engine",
			Name:      "fraud_reports_total",
			Help:      "User-submitted fraud reports on decided sessions",
		},
	)
)
