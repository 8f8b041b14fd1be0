// Package config loads the bot configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/Sternrassler/patreon-roster/pkg/logging"
	"github.com/Sternrassler/patreon-roster/pkg/patreon"
)

// Config holds all configuration loaded from environment variables.
type Config struct {
	PatreonToken   string        `env:"PATREON_TOKEN,required,notEmpty"`
	PatreonBaseURL string        `env:"PATREON_BASE_URL" envDefault:"https://www.patreon.com/api/oauth2/api/"`
	UserAgent      string        `env:"USER_AGENT"`
	HTTPTimeout    time.Duration `env:"HTTP_TIMEOUT" envDefault:"30s"`

	DiscordToken  string `env:"DISCORD_TOKEN,required,notEmpty"`
	OwnerID       int64  `env:"BOT_OWNER_ID"`
	CommandPrefix string `env:"COMMAND_PREFIX" envDefault:"!"`

	RedisURL       string        `env:"REDIS_URL"`
	RosterCacheTTL time.Duration `env:"ROSTER_CACHE_TTL" envDefault:"5m"`

	HTTPAddr  string `env:"HTTP_ADDR" envDefault:":8080"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"false"`
}

// Load reads dotenvPath (skipped when it does not exist) and then the process
// environment. Process variables win over the file.
func Load(dotenvPath string) (Config, error) {
	environment := map[string]string{}

	if dotenvPath != "" {
		fileEnv, err := godotenv.Read(dotenvPath)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", dotenvPath, err)
		}
		for k, v := range fileEnv {
			environment[k] = v
		}
	}

	for k, v := range env.ToMap(os.Environ()) {
		environment[k] = v
	}

	return Parse(environment)
}

// Parse builds a Config from an explicit set of variables.
func Parse(environment map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environment}); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if _, err := logging.ParseLevel(cfg.LogLevel); err != nil {
		return Config{}, fmt.Errorf("parse config: LOG_LEVEL: %w", err)
	}

	if cfg.UserAgent == "" {
		cfg.UserAgent = patreon.DefaultUserAgent()
	}
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}

	return cfg, nil
}

// Patreon returns the API client configuration.
func (c Config) Patreon() patreon.Config {
	return patreon.Config{
		AccessToken: c.PatreonToken,
		BaseURL:     c.PatreonBaseURL,
		UserAgent:   c.UserAgent,
		Timeout:     c.HTTPTimeout,
	}
}

// Logging returns the logger configuration writing to stderr.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.LogLevel); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.LogPretty
	return cfg
}

// CacheEnabled reports whether a roster cache should be used.
func (c Config) CacheEnabled() bool {
	return c.RedisURL != "" && c.RosterCacheTTL > 0
}
