package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Global metrics, registered with promauto on the default registry.

var (
	// HttpRequestsTotal counts API requests by method, path and status code.
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castchain_http_requests_total",
			Help: "Total number of HTTP requests processed",
		},
		[]string{"method", "path", "status"},
	)

	// HttpRequestDuration measures API response time.
	// Pair selection can chain up to 8 classifications, hence the long tail.
	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castchain_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"method", "path"},
	)

	// UpstreamRequestsTotal counts calls to the filmography provider by endpoint
	// and outcome ("2xx", "4xx", "5xx", "error").
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castchain_upstream_requests_total",
			Help: "Total number of requests sent to the filmography provider",
		},
		[]string{"endpoint", "outcome"},
	)

	// UpstreamRequestDuration measures provider latency per endpoint.
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castchain_upstream_request_duration_seconds",
			Help:    "Duration of filmography provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// ClassificationsTotal counts oracle verdicts by deciding stage and hop result
	// ("1", "2", "none", "error").
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castchain_classifications_total",
			Help: "Total number of pair classifications",
		},
		[]string{"stage", "hops"},
	)

	// SelectionAttempts records how many classifications a pair selection used.
	SelectionAttempts = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "castchain_selection_attempts",
			Help:    "Classifications used per pair selection",
			Buckets: []float64{1, 2, 3, 4, 5, 6, 7, 8},
		},
		[]string{"difficulty", "matched"},
	)

	// PoolRebuildsTotal counts pool rebuilds by result ("ok", "error").
	PoolRebuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "castchain_pool_rebuilds_total",
			Help: "Total number of actor pool rebuilds",
		},
		[]string{"result"},
	)

	// PoolSize is the number of actors in the current pool snapshot.
	PoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "castchain_pool_actors",
			Help: "Number of actors in the current pool snapshot",
		},
	)
)
