package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if SUBGAMES_CONFIG is set
//  3. env (prefix SUBGAMES_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("SUBGAMES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
		}
	}

	// Environment variables: SUBGAMES_ADDR, SUBGAMES_DB_PATH, ...
	// Map env keys like SUBGAMES_DB_PATH -> db_path (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("SUBGAMES_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "subgames_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.DBPath == "" {
		return fmt.Errorf("%w: db_path must not be empty", ErrInvalidConfig)
	}
	if c.CycleCloseHour < 0 || c.CycleCloseHour > 23 {
		return fmt.Errorf("%w: cycle_close_hour must be in [0,23], got %d", ErrInvalidConfig, c.CycleCloseHour)
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("%w: session_ttl_minutes must be positive", ErrInvalidConfig)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	for game, r := range c.GameRules {
		if r.MinSeconds < 0 || r.MaxSeconds <= r.MinSeconds || r.Points <= 0 {
			return fmt.Errorf("%w: game_rules.%s has an unusable window or point value", ErrInvalidConfig, game)
		}
	}
	for action, l := range c.RateLimits {
		if l.Limit <= 0 || l.WindowMinutes <= 0 {
			return fmt.Errorf("%w: rate_limits.%s must have positive limit and window", ErrInvalidConfig, action)
		}
	}
	return nil
}
