// Package config defines service configuration and its loading.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/skillmatch/internal/adapters/repository"
)

// Storage drivers accepted in storage_driver.
const (
	DriverMemory = repository.DriverMemory
	DriverSQLite = repository.DriverSQLite
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects text or json log lines.
	LogFormat string `koanf:"log_format"`

	// Addr configures the ops HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StorageDriver picks the repository backend: memory or sqlite.
	StorageDriver string `koanf:"storage_driver"`

	// SQLitePath is the database file used by the sqlite driver.
	SQLitePath string `koanf:"sqlite_path"`

	// WorkerCount sets the number of scoring workers per run.
	WorkerCount int `koanf:"worker_count"`

	// QueueSize caps the pair queue of a single run.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the settled-pair memory shared across runs.
	DedupeSize int `koanf:"dedupe_size"`

	// ProfileCacheSize bounds the hash to profile cache.
	ProfileCacheSize int `koanf:"profile_cache_size"`

	// TagCacheSize and TagCacheTTLMS bound the scorer's profile tag cache.
	TagCacheSize  int `koanf:"tag_cache_size"`
	TagCacheTTLMS int `koanf:"tag_cache_ttl_ms"`

	// ScoreIntervalMS is the pause between scheduled scoring runs.
	ScoreIntervalMS int `koanf:"score_interval_ms"`

	// BatchTimeoutMS time-boxes a single scoring run.
	BatchTimeoutMS int `koanf:"batch_timeout_ms"`

	// RankingEnabled feeds new scores into the in-memory recommendation index.
	RankingEnabled bool `koanf:"ranking_enabled"`

	// CodeTablePath optionally names a YAML occupation code table used by
	// crosswalk translation. Empty means no codes are known.
	CodeTablePath string `koanf:"code_table_path"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		StorageDriver:    DriverSQLite,
		SQLitePath:       "skillmatch.db",
		WorkerCount:      runtime.NumCPU() * 2,
		QueueSize:        100_000,
		DedupeSize:       500_000,
		ProfileCacheSize: 10_000,
		TagCacheSize:     20_000,
		TagCacheTTLMS:    60_000,
		ScoreIntervalMS:  60_000,
		BatchTimeoutMS:   15 * 60_000,
		RankingEnabled:   true,
	}
}

// ScoreInterval returns ScoreIntervalMS as a duration.
func (c *Config) ScoreInterval() time.Duration {
	return time.Duration(c.ScoreIntervalMS) * time.Millisecond
}

// BatchTimeout returns BatchTimeoutMS as a duration.
func (c *Config) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutMS) * time.Millisecond
}

// TagCacheTTL returns TagCacheTTLMS as a duration.
func (c *Config) TagCacheTTL() time.Duration {
	return time.Duration(c.TagCacheTTLMS) * time.Millisecond
}

// Validate reports the first invalid field, wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.ProfileCacheSize <= 0 || c.TagCacheSize <= 0:
		return fmt.Errorf("%w: cache sizes must be positive", ErrInvalidConfig)
	case c.TagCacheTTLMS <= 0:
		return fmt.Errorf("%w: tag_cache_ttl_ms must be positive", ErrInvalidConfig)
	case c.ScoreIntervalMS <= 0 || c.BatchTimeoutMS <= 0:
		return fmt.Errorf("%w: score_interval_ms and batch_timeout_ms must be positive", ErrInvalidConfig)
	}

	switch strings.ToLower(c.StorageDriver) {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: sqlite_path must not be empty", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown storage_driver %q", ErrInvalidConfig, c.StorageDriver)
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
