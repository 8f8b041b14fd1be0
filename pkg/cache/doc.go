// Package cache stores computed rosters in Redis so repeated commands within
// a short window are served without walking every pledge page again.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	key := cache.Key{Namespace: "patrons", Name: "default"}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// build the roster, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(data, 5*time.Minute))
//	}
//
// Entries carry their own expiry and Redis drops them at the same moment, so
// a stale roster is never returned.
//
// # Metrics
//
//   - roster_cache_hits_total - Cache hits
//   - roster_cache_misses_total - Cache misses
//   - roster_cache_entry_bytes - Size of the last stored entry
//   - roster_cache_errors_total{operation} - Cache operation errors
package cache
