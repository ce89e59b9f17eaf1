// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds everything tunable from outside the binary. Flags on the
// command line override these.
type Config struct {
	SaveDir   string `env:"FABULA_SAVE_DIR"  envDefault:"saves"`
	RedisAddr string `env:"FABULA_REDIS_ADDR"` // empty means file saves
	LogLevel  string `env:"FABULA_LOG_LEVEL" envDefault:"info"`
	TraceFile string `env:"FABULA_TRACE_FILE"` // empty disables the JSON trace
}

// Load parses the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Level maps the configured log level name to a slog level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", c.LogLevel)
	}
}
