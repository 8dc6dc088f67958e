package simulate

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/remeh/sizedwaitgroup"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/pkg/logger"
)

// ErrVerification is returned when the service's counters disagree with the
// plan.
var ErrVerification = errors.New("verification failed")

type runner struct {
	cfg    Config
	client *client
	log    logger.Logger

	accepted  atomic.Int64
	duplicate atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
}

// Run executes a complete simulation against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	r := &runner{
		cfg:    cfg,
		client: newClient(cfg.BaseURL, cfg.Timeout),
		log:    cfg.Logger.Named("simulate"),
	}
	stats := &Stats{StartTime: time.Now()}

	r.log.Info(ctx, "starting papi fight simulation",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("players", cfg.Players),
		logger.Int("rounds", cfg.Rounds),
		logger.Int("workers", cfg.Workers),
		logger.String("prefix", cfg.Prefix),
		logger.Any("seed", seed))

	// Step 1: Check service health
	if err := r.client.health(ctx); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate fights
	plan := Generate(cfg, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
	stats.EventsGenerated = len(plan.Events())
	stats.Fights = plan.Fights()
	stats.Kills = plan.Kills

	// Step 3: Join every player, then submit rounds in order. The service
	// queues each accepted event before answering, so a round is fully queued
	// before the next one starts.
	err := r.submitAll(ctx, plan.Joins)
	for i, round := range plan.Rounds {
		if err != nil {
			break
		}
		err = r.submitRound(ctx, i, round)
	}
	if err != nil {
		r.fill(stats)
		return stats, fmt.Errorf("event submission failed: %w", err)
	}

	// Step 4: Resend a sample to exercise dedupe
	stats.DuplicatesMissed = r.resend(ctx, plan)

	// Step 5: Wait for processing and verify
	mismatches, err := r.settle(ctx, plan)
	r.fill(stats)
	stats.PlayersVerified = len(plan.Players)
	stats.Mismatches = mismatches
	if err != nil {
		return stats, fmt.Errorf("result verification failed: %w", err)
	}

	// Step 6: Show the leaderboard
	if err := r.showLeaderboard(ctx); err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	r.displayFinalStats(ctx, stats)
	return stats, nil
}

func (r *runner) fill(s *Stats) {
	s.EventsAccepted = int(r.accepted.Load())
	s.EventsDuplicate = int(r.duplicate.Load())
	s.EventsRetried = int(r.retried.Load())
	s.EventsFailed = int(r.failed.Load())
}

// submit posts e, retrying while the service applies backpressure.
func (r *runner) submit(ctx context.Context, e model.Event) (bool, error) { //nolint:gocritic // hugeParam
	for attempt := 1; ; attempt++ {
		status, ack, err := r.client.postEvent(ctx, e)
		if err != nil {
			r.failed.Add(1)
			return false, err
		}
		switch status {
		case http.StatusAccepted:
			r.accepted.Add(1)
			return false, nil
		case http.StatusOK:
			r.duplicate.Add(1)
			return ack.Duplicate, nil
		case http.StatusTooManyRequests:
			if attempt >= maxSubmitRetries {
				r.failed.Add(1)
				return false, fmt.Errorf("event %s: %w %d after %d attempts", e.EventID, ErrUnexpectedStatus, status, attempt)
			}
			r.retried.Add(1)
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
		default:
			r.failed.Add(1)
			return false, fmt.Errorf("event %s: %w %d", e.EventID, ErrUnexpectedStatus, status)
		}
	}
}

// submitAll posts independent events concurrently.
func (r *runner) submitAll(ctx context.Context, events []model.Event) error {
	return r.each(ctx, len(events), func(i int) error {
		_, err := r.submit(ctx, events[i])
		return err
	})
}

// submitRound posts each fight's events in order, fights concurrently.
func (r *runner) submitRound(ctx context.Context, n int, round []Fight) error {
	err := r.each(ctx, len(round), func(i int) error {
		for _, e := range round[i].Events {
			if _, err := r.submit(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if r.cfg.Verbose {
		for _, f := range round {
			r.log.Info(ctx, "fight submitted",
				logger.Int("round", n+1),
				logger.String("winner", f.Winner),
				logger.String("loser", f.Loser),
				logger.Int("events", len(f.Events)))
		}
	}
	return err
}

// each runs fn for 0..n-1 on at most cfg.Workers goroutines and joins the
// errors.
func (r *runner) each(ctx context.Context, n int, fn func(i int) error) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	swg := sizedwaitgroup.New(r.cfg.Workers)
	for i := range n {
		if err := swg.AddWithContext(ctx); err != nil {
			errs = append(errs, err)
			break
		}
		go func(i int) {
			defer swg.Done()
			if err := fn(i); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	swg.Wait()
	return errors.Join(errs...)
}

// resend posts up to cfg.Duplicates already accepted events again and
// returns how many were not reported as duplicates.
func (r *runner) resend(ctx context.Context, plan *Plan) int {
	events := plan.Events()
	n := min(r.cfg.Duplicates, len(events))
	var missed atomic.Int64
	err := r.each(ctx, n, func(i int) error {
		dup, err := r.submit(ctx, events[i*len(events)/n])
		if err == nil && !dup {
			missed.Add(1)
		}
		return err
	})
	if err != nil {
		r.log.Warn(ctx, "resending events failed", logger.Error(err))
	}
	if missed.Load() > 0 {
		r.log.Warn(ctx, "resent events were not deduplicated", logger.Int("missed", int(missed.Load())))
	}
	return int(missed.Load())
}

// settle waits for the queue to drain, then polls until every player's
// counters match the plan or cfg.Settle runs out.
func (r *runner) settle(ctx context.Context, plan *Plan) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Settle)
	defer cancel()

	r.log.Info(ctx, "waiting for events to be processed")
	for {
		n, err := r.client.queueLength(ctx)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			break
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return 0, err
		}
	}

	for {
		mismatches, err := r.verify(ctx, plan)
		if err != nil {
			return mismatches, err
		}
		if mismatches == 0 {
			r.log.Info(ctx, "all player counters match", logger.Int("players", len(plan.Players)))
			return 0, nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return mismatches, fmt.Errorf("%w: %d players disagree", ErrVerification, mismatches)
		}
	}
}

// verify compares every player's counters with the plan.
func (r *runner) verify(ctx context.Context, plan *Plan) (int, error) {
	var mismatches atomic.Int64
	err := r.each(ctx, len(plan.Players), func(i int) error {
		name := plan.Players[i]
		got, err := r.client.player(ctx, name)
		if err != nil {
			return err
		}
		want := plan.Expected[name]
		if !got.Online || got.Kills != want.Kills || got.Killstreak != want.Killstreak {
			mismatches.Add(1)
			if r.cfg.Verbose {
				r.log.Debug(ctx, "player counters differ",
					logger.String("player", name),
					logger.Int("kills", got.Kills),
					logger.Int("wantKills", want.Kills),
					logger.Int("killstreak", got.Killstreak),
					logger.Int("wantKillstreak", want.Killstreak))
			}
		}
		return nil
	})
	return int(mismatches.Load()), err
}

func (r *runner) showLeaderboard(ctx context.Context) error {
	entries, err := r.client.leaderboard(ctx, r.cfg.TopN)
	if err != nil {
		return err
	}
	for i, e := range entries {
		if i > 0 && e.Kills > entries[i-1].Kills {
			return fmt.Errorf("%w: leaderboard out of order at rank %d", ErrVerification, e.Rank)
		}
		r.log.Info(ctx, "leaderboard",
			logger.Int("rank", e.Rank),
			logger.String("player", e.Player),
			logger.Int("kills", e.Kills),
			logger.Int("killstreak", e.Killstreak),
			logger.Bool("online", e.Online))
	}
	return nil
}

func (r *runner) displayFinalStats(ctx context.Context, s *Stats) {
	rate := 0.0
	if s.Duration > 0 {
		rate = float64(s.EventsAccepted) / s.Duration.Seconds()
	}
	r.log.Info(ctx, "simulation complete",
		logger.String("events", humanize.Comma(int64(s.EventsGenerated))),
		logger.String("accepted", humanize.Comma(int64(s.EventsAccepted))),
		logger.String("duplicates", humanize.Comma(int64(s.EventsDuplicate))),
		logger.String("retried", humanize.Comma(int64(s.EventsRetried))),
		logger.Int("failed", s.EventsFailed),
		logger.Int("fights", s.Fights),
		logger.Int("kills", s.Kills),
		logger.String("rate", humanize.CommafWithDigits(rate, 1)+" events/s"),
		logger.Duration("duration", s.Duration))
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
