package patreon

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/patreon-roster/pkg/metrics"
)

// Prometheus metrics for Patreon API requests.
var (
	patreonRequestsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "patreon_requests_total",
		Help: "Total Patreon API requests by endpoint and status",
	}, []string{"endpoint", "status"})

	patreonRequestDuration = promauto.With(metrics.Registry).NewHistogramVec(prometheus.HistogramOpts{
		Name:    "patreon_request_duration_seconds",
		Help:    "Patreon API request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	patreonErrorsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "patreon_errors_total",
		Help: "Total Patreon API failures by endpoint and class (api, network, decode)",
	}, []string{"endpoint", "class"})
)
