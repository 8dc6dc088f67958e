package scripts

import "errors"

// ErrScript wraps failures to load or run a placeholder script.
var ErrScript = errors.New("placeholder script")
