// Package config loads prefsform settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	// DefaultDataDir is the data directory relative to the user's home.
	DefaultDataDir = ".prefsform"
	// DatabaseFile is the SQLite file name inside the data directory.
	DatabaseFile = "prefs.db"
	// LogFile is the default log file name inside the data directory.
	LogFile = "prefsform.log"
)

// Config holds runtime settings. Every field maps to one environment variable.
type Config struct {
	DataDir      string        `env:"PREFSFORM_DATA_DIR"`
	StoreName    string        `env:"PREFSFORM_STORE_NAME" envDefault:"DATA"`
	LogLevel     string        `env:"PREFSFORM_LOG_LEVEL" envDefault:"info"`
	LogFile      string        `env:"PREFSFORM_LOG_FILE"`
	PollInterval time.Duration `env:"PREFSFORM_POLL_INTERVAL" envDefault:"1s"`

	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `env:"OTEL_SERVICE_NAME" envDefault:"prefsform"`
}

// Load parses the environment and fills in path defaults that depend on the
// user's home directory.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("resolve home dir: %w", err)
		}
		cfg.DataDir = filepath.Join(home, DefaultDataDir)
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, LogFile)
	}
	if cfg.StoreName == "" {
		return Config{}, fmt.Errorf("PREFSFORM_STORE_NAME must not be empty")
	}
	if cfg.PollInterval < 0 {
		return Config{}, fmt.Errorf("PREFSFORM_POLL_INTERVAL must not be negative, got %s", cfg.PollInterval)
	}
	return cfg, nil
}

// DatabasePath returns the SQLite file path for the configured data directory.
func (c Config) DatabasePath() string {
	return filepath.Join(c.DataDir, DatabaseFile)
}
