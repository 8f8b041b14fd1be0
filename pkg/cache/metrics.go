package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/patreon-roster/pkg/metrics"
)

var (
	// CacheHits tracks cache hits
	CacheHits = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "roster_cache_hits_total",
			Help: "Total number of roster cache hits",
		},
	)

	// CacheMisses tracks cache misses
	CacheMisses = promauto.With(metrics.Registry).NewCounter(
		prometheus.CounterOpts{
			Name: "roster_cache_misses_total",
			Help: "Total number of roster cache misses",
		},
	)

	// EntrySize tracks the size of the last stored entry
	EntrySize = promauto.With(metrics.Registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "roster_cache_entry_bytes",
			Help: "Size in bytes of the most recently stored roster entry",
		},
	)

	// CacheErrors tracks cache operation errors
	CacheErrors = promauto.With(metrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "roster_cache_errors_total",
			Help: "Total number of roster cache operation errors",
		},
		[]string{"operation"}, // "get", "set", "delete"
	)
)
