// package metrics declares the prometheus collectors exported by the flickx proxy
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Inbound proxy routes
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_http_requests_total",
			Help: "Total number of requests served by the proxy",
		},
		[]string{"method", "route", "status_code"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flickx_http_request_duration_seconds",
			Help:    "Proxy request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route"},
	)

	ActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flickx_http_active_requests",
			Help: "Current number of in-flight proxy requests",
		},
	)

	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_rate_limit_hits_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	InputRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_input_rejections_total",
			Help: "Requests answered with 400 before reaching the backend",
		},
		[]string{"route"},
	)

	// Outbound backend calls
	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_backend_requests_total",
			Help: "Total number of calls made to the backend, by outcome",
		},
		[]string{"endpoint", "outcome"}, // outcome: 2xx, 4xx, 5xx, error, rejected
	)

	BackendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flickx_backend_request_duration_seconds",
			Help:    "Backend call duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "flickx_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// Collection exports
	ExportedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flickx_exported_items_total",
			Help: "Movies written by collection exports",
		},
		[]string{"kind"},
	)
)

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass buckets an HTTP status into "2xx", "4xx" and so on.
func StatusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
