package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tracks the number of outbound calls to the banking API.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_api_requests_total",
			Help: "Total number of banking API requests made (by endpoint, method and status).",
		},
		[]string{"endpoint", "method", "status"},
	)

	// Measures duration of banking API requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "banking_api_request_duration_seconds",
			Help:    "Duration of banking API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms → ~16s
		},
		[]string{"endpoint", "method"},
	)

	// Counts retried attempts by reason (server_error, rate_limited, network).
	RetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_api_retries_total",
			Help: "Number of retried banking API attempts by reason.",
		},
		[]string{"reason"},
	)

	// Tracks token endpoint outcomes, including transparent re-authentication.
	AuthTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "banking_auth_total",
			Help: "Token endpoint calls by trigger (explicit, refresh) and result (ok, error).",
		},
		[]string{"trigger", "result"},
	)
)

func IncRequest(endpoint, method, status string) {
	RequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

func IncRetry(reason string) {
	RetriesTotal.WithLabelValues(reason).Inc()
}

func IncAuth(trigger, result string) {
	AuthTotal.WithLabelValues(trigger, result).Inc()
}
