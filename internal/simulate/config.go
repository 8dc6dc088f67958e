// Package simulate drives a running papi service with scripted fights and
// checks the kill counters it reports.
package simulate

import (
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/okian/papi/pkg/logger"
)

// Defaults used when a Config field is left zero.
const (
	DefaultBaseURL    = "http://localhost:9080"
	DefaultPlayers    = 20
	DefaultRounds     = 10
	DefaultTopN       = 10
	DefaultTimeout    = 10 * time.Second
	DefaultSettle     = 30 * time.Second
	DefaultDuplicates = 25
	maxHits           = 4
	maxSubmitRetries  = 20
	retryBackoff      = 5 * time.Millisecond
	pollInterval      = 50 * time.Millisecond
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL    string        // Base URL of the service
	Players    int           // Number of simulated players
	Rounds     int           // Number of fight rounds
	Workers    int           // Number of concurrent submitters
	Timeout    time.Duration // HTTP request timeout
	Settle     time.Duration // How long to wait for the queue to drain
	Duplicates int           // Number of events resent to exercise dedupe
	TopN       int           // Leaderboard rows to fetch
	Seed       uint64        // Fight generator seed; zero picks one
	Prefix     string        // Player name prefix; empty picks a unique one
	Verbose    bool          // Log every fight
	Logger     logger.Logger // Output; nil uses the global logger
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Players < 2 {
		c.Players = DefaultPlayers
	}
	if c.Rounds < 1 {
		c.Rounds = DefaultRounds
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU()
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Settle <= 0 {
		c.Settle = DefaultSettle
	}
	if c.Duplicates < 0 {
		c.Duplicates = 0
	}
	if c.TopN < 1 {
		c.TopN = DefaultTopN
	}
	if c.Prefix == "" {
		c.Prefix = "sim-" + uuid.NewString()[:8]
	}
	if c.Logger == nil {
		c.Logger = logger.Get()
	}
	return c
}

// Stats holds run statistics.
type Stats struct {
	EventsGenerated  int
	EventsAccepted   int
	EventsDuplicate  int
	EventsRetried    int
	EventsFailed     int
	DuplicatesMissed int
	Fights           int
	Kills            int
	PlayersVerified  int
	Mismatches       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
