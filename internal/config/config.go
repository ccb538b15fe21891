package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	// LogFile receives logs when stdout belongs to the console UI.
	LogFile string `env:"LOG_FILE" envDefault:"alleycats.log"`

	// RedisURL enables session snapshots and commit broadcasts when set.
	RedisURL   string        `env:"REDIS_URL"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	JournalDir  string `env:"JOURNAL_DIR" envDefault:"./data/journal"`
	ArchivePath string `env:"ARCHIVE_PATH" envDefault:"./data/archive.db"`

	// Empty paths use the embedded yard and card catalog.
	MapPath     string `env:"MAP_PATH"`
	CatalogPath string `env:"CATALOG_PATH"`

	DecisionWindow time.Duration `env:"DECISION_WINDOW" envDefault:"2m"`
	Seed           int64         `env:"SEED"`
	WinTrust       int           `env:"WIN_TRUST" envDefault:"10"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.WinTrust <= 0 {
		return nil, fmt.Errorf("WIN_TRUST must be positive, got %d", cfg.WinTrust)
	}
	return &cfg, nil
}

// Level returns the configured slog level. Unknown names fall back to info.
func (c *Config) Level() slog.Level {
	return parseLogLevel(c.LogLevel)
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
