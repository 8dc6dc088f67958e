package player

import "errors"

// Sentinel kinds for player errors.
var (
	ErrInvalidValue = errors.New("invalid player value")
)
