// Package config defines service configuration and loading.
//
// Conventions follow the rest of the codebase: defaults come from
// New(), an optional YAML file and SUBGAMES_-prefixed environment
// variables layer on top, and external errors are wrapped with this
// package's sentinels.
package config

import (
	"github.com/willerob90/SubGames-Working/internal/domain/cycle"
)

// GameRule overrides one game type's timing window and point value.
type GameRule struct {
	MinSeconds float64 `koanf:"min_seconds"`
	MaxSeconds float64 `koanf:"max_seconds"`
	Points     int     `koanf:"points"`
}

// RateLimit overrides one action's ceiling.
type RateLimit struct {
	Limit         int `koanf:"limit"`
	WindowMinutes int `koanf:"window_minutes"`
}

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath locates the SQLite ledger database.
	DBPath string `koanf:"db_path"`

	// CycleCloseHour anchors the daily cycle boundary (local hour).
	CycleCloseHour int `koanf:"cycle_close_hour"`

	// SessionTTLMinutes bounds how long an issued session stays playable.
	SessionTTLMinutes int `koanf:"session_ttl_minutes"`

	// QueueSize bounds the winner-event queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of pity fan-out workers.
	WorkerCount int `koanf:"worker_count"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CleanupIntervalMinutes spaces the expired-session sweep.
	CleanupIntervalMinutes int `koanf:"cleanup_interval_minutes"`

	// GameRules overrides the built-in game catalogue when non-empty.
	GameRules map[string]GameRule `koanf:"game_rules"`

	// RateLimits overrides the built-in per-action ceilings when non-empty.
	RateLimits map[string]RateLimit `koanf:"rate_limits"`
}

// New creates a Config with defaults. The game catalogue and rate
// limits default to their packages' built-ins when left empty here.
func New() *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		DBPath:                 "subgames.db",
		CycleCloseHour:         cycle.DefaultCloseHour,
		SessionTTLMinutes:      10,
		QueueSize:              1024,
		WorkerCount:            2,
		MaxLeaderboardLimit:    100,
		CleanupIntervalMinutes: 60,
	}
}
