// Package config defines process configuration and how it is loaded.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// EventQueueSize bounds the in-memory event queue.
	EventQueueSize int `koanf:"queue_size"`

	// DedupeSize sets how many event ids are remembered; 0 keeps every id.
	DedupeSize int `koanf:"dedupe_size"`

	// CombatTimeout is how long damage stays attributable, in seconds.
	CombatTimeout float64 `koanf:"combat_timeout"`

	// CleanupInterval is the period of the expired damage sweep.
	CleanupInterval time.Duration `koanf:"cleanup_interval"`

	// ClearOnQuit drops a player's kills, streak and damage records on quit.
	ClearOnQuit bool `koanf:"clear_on_quit"`

	// PluginName owns the built-in placeholders.
	PluginName string `koanf:"plugin_name"`

	// ScriptsDir holds *.lua placeholder scripts. Empty disables scripts.
	ScriptsDir string `koanf:"scripts_dir"`

	// ServerVersion and MaxPlayers are reported by {mc_version} and {max_online}.
	ServerVersion string `koanf:"server_version"`
	MaxPlayers    int    `koanf:"max_players"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New returns a Config populated with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		EventQueueSize:      10_000,
		DedupeSize:          50_000,
		CombatTimeout:       10.0,
		CleanupInterval:     30 * time.Second,
		ClearOnQuit:         false,
		PluginName:          "papi",
		ScriptsDir:          "",
		ServerVersion:       "1.21.0",
		MaxPlayers:          20,
		MaxLeaderboardLimit: 100,
	}
}

// CombatTimeoutDuration returns CombatTimeout as a duration.
func (c *Config) CombatTimeoutDuration() time.Duration {
	return time.Duration(c.CombatTimeout * float64(time.Second))
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.EventQueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.EventQueueSize)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.CombatTimeout < 0:
		return fmt.Errorf("%w: combat_timeout must not be negative, got %g", ErrInvalidConfig, c.CombatTimeout)
	case c.CleanupInterval <= 0:
		return fmt.Errorf("%w: cleanup_interval must be positive, got %s", ErrInvalidConfig, c.CleanupInterval)
	case strings.TrimSpace(c.PluginName) == "":
		return fmt.Errorf("%w: plugin_name must not be empty", ErrInvalidConfig)
	case c.MaxPlayers < 0:
		return fmt.Errorf("%w: max_players must not be negative, got %d", ErrInvalidConfig, c.MaxPlayers)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
