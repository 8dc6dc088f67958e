package combat

import "time"

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithTimeout sets the combat timeout. Negative values are ignored; zero
// means only damage recorded at the very same instant counts.
func WithTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= 0 {
			l.timeout = d
		}
	}
}

// WithTimeoutSeconds sets the combat timeout from fractional seconds.
func WithTimeoutSeconds(s float64) Option {
	return WithTimeout(time.Duration(s * float64(time.Second)))
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}
