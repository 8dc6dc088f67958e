package plugin

import (
	"time"

	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/pkg/logger"
)

// Option applies a configuration option to the Plugin.
type Option func(*Plugin)

// WithLogger sets a custom logger for the plugin and its components.
func WithLogger(l logger.Logger) Option {
	return func(p *Plugin) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithName sets the owner name of the built-in placeholders.
func WithName(name string) Option {
	return func(p *Plugin) {
		if name != "" {
			p.name = name
		}
	}
}

// WithQueueSize sets the maximum number of pending events.
func WithQueueSize(size int) Option {
	return func(p *Plugin) {
		if size > 0 {
			p.queueSize = size
		}
	}
}

// WithDedupeSize sets how many event ids are remembered. Zero keeps every
// id; negative sizes are ignored.
func WithDedupeSize(size int) Option {
	return func(p *Plugin) {
		if size >= 0 {
			p.dedupeSize = size
		}
	}
}

// WithCombatTimeout sets how long damage stays attributable.
func WithCombatTimeout(d time.Duration) Option {
	return func(p *Plugin) {
		if d >= 0 {
			p.combatTimeout = d
		}
	}
}

// WithCleanupInterval sets the period of the damage record sweep.
func WithCleanupInterval(d time.Duration) Option {
	return func(p *Plugin) {
		if d > 0 {
			p.cleanupInterval = d
		}
	}
}

// WithClearOnQuit clears a player's combat data when they disconnect.
func WithClearOnQuit(clear bool) Option {
	return func(p *Plugin) {
		p.clearOnQuit = clear
	}
}

// WithScriptsDir loads *.lua placeholder scripts from dir on Start.
func WithScriptsDir(dir string) Option {
	return func(p *Plugin) {
		p.scriptsDir = dir
	}
}

// WithServerInfo sets the version and slot count reported by placeholders.
func WithServerInfo(info player.ServerInfo) Option {
	return func(p *Plugin) {
		p.info = info
	}
}

// WithClock replaces the wall clock for the ledger and date placeholders.
func WithClock(now func() time.Time) Option {
	return func(p *Plugin) {
		if now != nil {
			p.now = now
		}
	}
}
