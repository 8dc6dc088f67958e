// Command papi-sim drives a running papi service with simulated fights and
// checks the kill counters it reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/okian/papi/internal/simulate"
	"github.com/okian/papi/pkg/logger"
)

const (
	defaultWorkers = 2 // multiplier for runtime.NumCPU()
	defaultRunTime = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", simulate.DefaultBaseURL, "Base URL of the service")
		players    = flag.Int("players", simulate.DefaultPlayers, "Number of simulated players")
		rounds     = flag.Int("rounds", simulate.DefaultRounds, "Number of fight rounds")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent submitters")
		timeout    = flag.Duration("timeout", simulate.DefaultTimeout, "HTTP request timeout")
		settle     = flag.Duration("settle", simulate.DefaultSettle, "How long to wait for events to be processed")
		duplicates = flag.Int("duplicates", simulate.DefaultDuplicates, "Number of events to resend")
		topN       = flag.Int("top", simulate.DefaultTopN, "Number of leaderboard rows to show")
		seed       = flag.Uint64("seed", 0, "Fight generator seed (default: random)")
		prefix     = flag.String("prefix", "", "Player name prefix (default: sim-<random>)")
		format     = flag.String("log-format", "text", "Log format: text or json")
		verbose    = flag.Bool("verbose", false, "Log every fight")
	)
	flag.Usage = usage
	flag.Parse()

	if err := logger.Init(logger.WithFormat(*format)); err != nil {
		fmt.Fprintln(os.Stderr, "failed to initialize logger:", err)
		os.Exit(1)
	}
	if *verbose {
		_ = logger.SetLevelString("debug")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTime)
	defer cancel()

	_, err := simulate.Run(ctx, simulate.Config{
		BaseURL:    *baseURL,
		Players:    *players,
		Rounds:     *rounds,
		Workers:    *workers,
		Timeout:    *timeout,
		Settle:     *settle,
		Duplicates: *duplicates,
		TopN:       *topN,
		Seed:       *seed,
		Prefix:     *prefix,
		Verbose:    *verbose,
	})
	if err != nil {
		logger.Get().Error(ctx, "simulation failed", logger.Error(err))
		cancel()
		os.Exit(1) //nolint:gocritic // exitAfterDefer: cancel already ran
	}
}

func usage() {
	fmt.Fprint(flag.CommandLine.Output(), `papi-sim
========

Drives a running papi service with simulated fights, then checks every
player's kills and killstreak against the expected outcome.

Usage:
  go run ./cmd/papi-sim [options]

Options:
`)
	flag.PrintDefaults()
	fmt.Fprint(flag.CommandLine.Output(), `
Examples:
  # Simulate against a local service
  go run ./cmd/papi-sim

  # Larger run with a fixed seed
  go run ./cmd/papi-sim -players 200 -rounds 50 -seed 42 -url http://localhost:8080
`)
}
