// Package metrics exposes the Prometheus registry and HTTP handler for the
// bot. Collectors are defined in the packages that own them (patreon,
// pagination, roster, cache) with promauto.With(Registry).
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the registerer every collector is added to.
var Registry = prometheus.DefaultRegisterer

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/patreon):
//   - patreon_requests_total{endpoint, status} (Counter): Requests by endpoint and HTTP status
//   - patreon_request_duration_seconds{endpoint} (Histogram): Request duration by endpoint
//   - patreon_errors_total{endpoint, class} (Counter): Failures by class (api, network, decode)
//
// Pagination Metrics (pkg/pagination):
//   - pagination_pages_fetched_total (Counter): Pages fetched by cursor walks
//   - pagination_walk_duration_seconds (Histogram): Duration of complete walks
//
// Roster Metrics (pkg/roster):
//   - roster_aggregations_total{result} (Counter): Roster builds by result (success, error)
//   - roster_patrons (Gauge): Size of the most recently built roster
//
// Cache Metrics (pkg/cache):
//   - roster_cache_hits_total (Counter): Cache hits
//   - roster_cache_misses_total (Counter): Cache misses
//   - roster_cache_entry_bytes (Gauge): Size of the last stored entry
//   - roster_cache_errors_total{operation} (Counter): Cache operation errors
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(roster_cache_hits_total[5m])) /
//   (sum(rate(roster_cache_hits_total[5m])) + sum(rate(roster_cache_misses_total[5m])))
//
//   # Upstream Error Payloads
//   rate(patreon_errors_total{class="api"}[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(patreon_request_duration_seconds_bucket[5m]))
//
//   # Pages Per Roster Build
//   rate(pagination_pages_fetched_total[1h]) / rate(roster_aggregations_total[1h])
