// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New returns defaults; Load layers a YAML file and environment on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects "text" or "json" output.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone that defines calendar-day boundaries.
	Timezone string `koanf:"timezone"`

	// MaxRangeDays caps the number of days one availability request may cover.
	MaxRangeDays int `koanf:"max_range_days"`

	// MaxSuggestions caps suggestions when a request gives no limit.
	MaxSuggestions int `koanf:"max_suggestions"`

	// MemoSize bounds the free-window cache; 0 disables caching.
	MemoSize int `koanf:"memo_size"`

	// QueueSize bounds the calendar sync job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of calendar sync workers.
	WorkerCount int `koanf:"worker_count"`

	// SyncSchedule is a cron expression for refreshing every ICS source.
	// Empty disables periodic refresh.
	SyncSchedule string `koanf:"sync_schedule"`

	// SyncHorizonDays is how far ahead recurring events are expanded.
	SyncHorizonDays int `koanf:"sync_horizon_days"`

	// ICSCacheDir holds downloaded feeds and their HTTP validators.
	ICSCacheDir string `koanf:"ics_cache_dir"`

	// FetchTimeoutMS bounds a single feed download.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`

	// MetricsNamespace and MetricsSubsystem prefix every Prometheus metric.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		Timezone:        "UTC",
		MaxRangeDays:    92,
		MaxSuggestions:  10,
		MemoSize:        4096,
		QueueSize:       1024,
		WorkerCount:     runtime.NumCPU(),
		SyncSchedule:    "@every 30m",
		SyncHorizonDays: 90,
		ICSCacheDir:     "./var/ics-cache",
		FetchTimeoutMS:  15_000,

		MetricsNamespace: "datesync",
		MetricsSubsystem: "matcher",
	}
}
