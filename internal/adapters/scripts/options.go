package scripts

import (
	"github.com/okian/papi/pkg/logger"
)

// Option applies a configuration option to the Host.
type Option func(*Host)

// WithLogger sets the logger for load failures.
func WithLogger(l logger.Logger) Option {
	return func(h *Host) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithStats exposes kill counters to scripts through the player table.
func WithStats(s Stats) Option {
	return func(h *Host) {
		h.stats = s
	}
}
