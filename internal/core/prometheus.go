package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetricsRecorder exports query counters and latency histograms
// through a Prometheus registerer.
type PrometheusMetricsRecorder struct {
	queries  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder constructs a recorder and registers its
// collectors. Registration failures (duplicate registration in tests) are
// surfaced to the caller.
func NewPrometheusMetricsRecorder(reg prometheus.Registerer) (*PrometheusMetricsRecorder, error) {
	r := &PrometheusMetricsRecorder{
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "lineagecore",
			Subsystem: "engine",
			Name:      "queries_total",
			Help:      "Engine queries by operation and status.",
		}, []string{"operation", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "lineagecore",
			Subsystem: "engine",
			Name:      "query_duration_seconds",
			Help:      "Engine query latency by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{r.queries, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Observe records a query outcome.
func (r *PrometheusMetricsRecorder) Observe(operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	status := "error"
	if success {
		status = "success"
	}
	r.queries.WithLabelValues(operation, status).Inc()
	r.duration.WithLabelValues(operation).Observe(duration.Seconds())
}
