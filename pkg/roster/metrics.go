package roster

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Sternrassler/patreon-roster/pkg/metrics"
)

var (
	aggregationsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "roster_aggregations_total",
		Help: "Total roster aggregations by result (success, error)",
	}, []string{"result"})

	rosterSize = promauto.With(metrics.Registry).NewGauge(prometheus.GaugeOpts{
		Name: "roster_patrons",
		Help: "Number of patrons in the most recently built roster",
	})
)
