package plugin

import "errors"

// Sentinel kinds for plugin operations.
var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrNotStarted    = errors.New("plugin not started")
)
