package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchyard_queries_total",
			Help: "Total number of routed queries by engine and outcome.",
		},
		[]string{"engine", "outcome"},
	)

	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "switchyard_query_duration_seconds",
			Help:    "Query execution latency by engine.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "switchyard_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
)

func init() {
	prometheus.MustRegister(queriesTotal, queryDurationSeconds, httpRequestsTotal)
}

// ObserveQuery records one routed query: outcome counter plus execution
// latency. The unknown-engine rejection passes duration zero, which still
// lands in the smallest bucket - the counter's outcome label is what tells
// the two apart.
func ObserveQuery(engine, outcome string, duration time.Duration) {
	queriesTotal.WithLabelValues(engine, outcome).Inc()
	queryDurationSeconds.WithLabelValues(engine).Observe(duration.Seconds())
}
