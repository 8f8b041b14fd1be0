// Command patron-bot runs the Discord bot serving the owner-only "patrons"
// command, together with a small HTTP listener for health checks and
// Prometheus metrics.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/patreon-roster/pkg/bot"
	"github.com/Sternrassler/patreon-roster/pkg/cache"
	"github.com/Sternrassler/patreon-roster/pkg/config"
	"github.com/Sternrassler/patreon-roster/pkg/logging"
	"github.com/Sternrassler/patreon-roster/pkg/metrics"
	"github.com/Sternrassler/patreon-roster/pkg/patreon"
	"github.com/Sternrassler/patreon-roster/pkg/roster"
)

var rosterCacheKey = cache.Key{Namespace: "patrons", Name: "roster"}

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("patron-bot stopped")
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return err
	}

	logging.Setup(cfg.Logging())
	logger := logging.NewLogger("patron-bot")

	client, err := patreon.New(cfg.Patreon())
	if err != nil {
		return fmt.Errorf("create patreon client: %w", err)
	}

	var source roster.Source = roster.New(client)

	var redisClient *redis.Client
	if cfg.CacheEnabled() {
		redisClient, err = connectRedis(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		source = roster.NewCached(source, cache.NewManager(redisClient), rosterCacheKey, cfg.RosterCacheTTL)
		logger.Info().Dur("ttl", cfg.RosterCacheTTL).Msg("Roster cache enabled")
	}

	handler := bot.NewHandler(source, bot.Config{
		OwnerID: cfg.OwnerID,
		Prefix:  cfg.CommandPrefix,
	})

	discord, err := bot.NewDiscord(cfg.DiscordToken, handler)
	if err != nil {
		return err
	}
	if err := discord.Open(); err != nil {
		return err
	}
	defer discord.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           newMux(redisClient),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("Starting HTTP listener")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	logger.Info().
		Str("prefix", cfg.CommandPrefix).
		Str("user_agent", cfg.UserAgent).
		Msg("patron-bot running")

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	logger.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func connectRedis(rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}

	log.Info().Str("addr", opts.Addr).Msg("Connected to Redis")
	return client, nil
}

func newMux(redisClient *redis.Client) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/ready", readyHandler(redisClient))
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports ready once the roster cache, when configured, answers.
func readyHandler(redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redisClient != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				log.Warn().Err(err).Msg("Readiness check failed")
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}
