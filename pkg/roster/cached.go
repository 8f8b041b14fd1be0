package roster

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/patreon-roster/pkg/cache"
)

// Cached serves a roster from the cache while it is fresh and rebuilds it
// from the wrapped source otherwise. Cache failures fall back to the source.
type Cached struct {
	source Source
	cache  *cache.Manager
	key    cache.Key
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCached wraps source. A nil manager or non-positive ttl disables caching.
func NewCached(source Source, manager *cache.Manager, key cache.Key, ttl time.Duration) *Cached {
	return &Cached{
		source: source,
		cache:  manager,
		key:    key,
		ttl:    ttl,
		logger: log.With().Str("component", "roster-cache").Logger(),
	}
}

// Patrons implements Source.
func (c *Cached) Patrons(ctx context.Context) ([]Patron, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.source.Patrons(ctx)
	}

	if patrons, ok := c.lookup(ctx); ok {
		return patrons, nil
	}

	patrons, err := c.source.Patrons(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(patrons)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode roster for cache")
		return patrons, nil
	}
	if err := c.cache.Set(ctx, c.key, cache.NewEntry(data, c.ttl)); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key.String()).Msg("Failed to cache roster")
	} else {
		c.logger.Debug().
			Str("key", c.key.String()).
			Dur("ttl", c.ttl).
			Msg("Cached roster")
	}

	return patrons, nil
}

// Invalidate drops the cached roster so the next call rebuilds it.
func (c *Cached) Invalidate(ctx context.Context) error {
	if c.cache == nil {
		return nil
	}
	return c.cache.Delete(ctx, c.key)
}

func (c *Cached) lookup(ctx context.Context) ([]Patron, bool) {
	entry, err := c.cache.Get(ctx, c.key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Str("key", c.key.String()).Msg("Cache get error")
		}
		return nil, false
	}

	var patrons []Patron
	if err := json.Unmarshal(entry.Data, &patrons); err != nil {
		c.logger.Warn().Err(err).Str("key", c.key.String()).Msg("Cached roster unreadable")
		return nil, false
	}

	c.logger.Debug().
		Str("key", c.key.String()).
		Dur("age", entry.Age()).
		Msg("Serving cached roster")
	return patrons, true
}
