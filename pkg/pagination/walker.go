package pagination

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/patreon-roster/pkg/metrics"
)

var (
	pagesFetchedTotal = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "pagination_pages_fetched_total",
		Help: "Total number of pages fetched by cursor walks",
	})

	walkDuration = promauto.With(metrics.Registry).NewHistogram(prometheus.HistogramOpts{
		Name:    "pagination_walk_duration_seconds",
		Help:    "Duration of cursor walks in seconds, failed walks included",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
	})
)

// PageFunc fetches the page addressed by cursor ("" for the first page) and
// returns its items together with the cursor of the following page, or ""
// when this was the last page.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// Stats describes a completed walk.
type Stats struct {
	Pages    int
	Items    int
	Duration time.Duration
}

// Walk fetches every page in order and returns all items. The item count
// equals the sum of the per-page counts. Any page error aborts the walk.
func Walk[T any](ctx context.Context, fetch PageFunc[T]) ([]T, Stats, error) {
	start := time.Now()

	var (
		items  []T
		stats  Stats
		cursor string
	)

	for {
		page, next, err := fetch(ctx, cursor)
		if err != nil {
			log.Warn().
				Err(err).
				Int("page", stats.Pages+1).
				Msg("Page fetch failed")
			stats.Duration = time.Since(start)
			walkDuration.Observe(stats.Duration.Seconds())
			return nil, stats, fmt.Errorf("fetch page %d: %w", stats.Pages+1, err)
		}

		pagesFetchedTotal.Inc()
		stats.Pages++
		stats.Items += len(page)
		items = append(items, page...)

		log.Debug().
			Int("page", stats.Pages).
			Int("items", len(page)).
			Bool("has_next", next != "").
			Msg("Fetched page")

		if next == "" {
			break
		}
		cursor = next
	}

	stats.Duration = time.Since(start)
	walkDuration.Observe(stats.Duration.Seconds())

	log.Info().
		Int("pages", stats.Pages).
		Int("items", stats.Items).
		Dur("duration", stats.Duration).
		Msg("Fetch complete")

	return items, stats, nil
}
