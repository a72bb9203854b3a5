package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// EvaluationsTotal counts finished evaluation subprocesses by outcome.
	EvaluationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chindaeval",
			Subsystem: "scheduler",
			Name:      "evaluations_total",
			Help:      "Total number of completed benchmark evaluations",
		},
		[]string{"benchmark", "status"},
	)

	// EvaluationDuration observes wall-clock time per benchmark run.
	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "chindaeval",
			Subsystem: "scheduler",
			Name:      "evaluation_duration_seconds",
			Help:      "Duration of benchmark evaluations in seconds",
			Buckets:   prometheus.ExponentialBuckets(30, 2, 12),
		},
		[]string{"benchmark"},
	)

	// InflightEvaluations tracks concurrently running evaluation subprocesses.
	InflightEvaluations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chindaeval",
			Subsystem: "scheduler",
			Name:      "inflight_evaluations",
			Help:      "Evaluation subprocesses currently running",
		},
	)

	// ServerStartsTotal counts serving container start attempts by outcome.
	ServerStartsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chindaeval",
			Subsystem: "serving",
			Name:      "server_starts_total",
			Help:      "Serving container start attempts",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(EvaluationsTotal, EvaluationDuration, InflightEvaluations, ServerStartsTotal)
}
