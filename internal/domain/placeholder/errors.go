package placeholder

import "errors"

// Sentinel kinds for placeholder processors. Any of them leaves the token
// unexpanded.
var (
	ErrNoPlayer       = errors.New("placeholder requires a player")
	ErrNoValue        = errors.New("placeholder has no value")
	ErrInvalidParams  = errors.New("invalid placeholder params")
	ErrProcessorPanic = errors.New("placeholder processor panicked")
)
