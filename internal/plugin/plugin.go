// Package plugin wires the combat ledger, the placeholder registry and the
// player roster to host events.
//
// Every host callback, read and cleanup tick runs under one mutex, so the
// ledger sees the same one-at-a-time delivery a game server gives it.
package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/papi/internal/adapters/mq/queue"
	"github.com/okian/papi/internal/adapters/mq/worker"
	"github.com/okian/papi/internal/adapters/scripts"
	"github.com/okian/papi/internal/domain/combat"
	"github.com/okian/papi/internal/domain/dedupe"
	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/internal/domain/placeholder"
	"github.com/okian/papi/internal/domain/player"
	"github.com/okian/papi/internal/domain/types"
	"github.com/okian/papi/pkg/logger"
	"github.com/okian/papi/pkg/metrics"
)

// Defaults used when no option overrides them.
const (
	DefaultName            = "papi"
	DefaultCleanupInterval = 30 * time.Second
	defaultQueueSize       = 10000
	defaultDedupeSize      = 50000
	shutdownTimeout        = 5 * time.Second
)

// NullTarget parses text without a player.
const NullTarget = "--null"

// Plugin owns every component and serializes access to the ledger.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	name            string
	queueSize       int
	dedupeSize      int
	combatTimeout   time.Duration
	cleanupInterval time.Duration
	clearOnQuit     bool
	scriptsDir      string
	info            player.ServerInfo
	now             func() time.Time

	// Components
	ledger     *combat.Ledger
	roster     *player.Roster
	registry   *placeholder.Registry
	scripts    *scripts.Host
	deduper    dedupe.Deduper
	queue      *queue.InMemoryQueue
	dispatcher *worker.Dispatcher

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	logger logger.Logger
}

// New constructs a plugin with its built-in placeholders registered.
// Events can be applied with Handle before Start; Start adds the queue
// consumer, the cleanup tick and the scripts.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		name:            DefaultName,
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		combatTimeout:   combat.DefaultTimeout,
		cleanupInterval: DefaultCleanupInterval,
		now:             time.Now,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	p.ledger = combat.New(
		combat.WithTimeout(p.combatTimeout),
		combat.WithClock(p.now),
	)
	if p.info.StartedAt.IsZero() {
		p.info.StartedAt = p.now()
	}
	p.roster = player.NewRoster(p.info)
	p.registry = placeholder.NewRegistry(placeholder.WithLogger(p.logger.Named("placeholder")))
	placeholder.RegisterDefaults(p.registry, p.name, p.roster, p.now)
	placeholder.RegisterCombat(p.registry, p.name, p.ledger)
	p.scripts = scripts.New(p.registry,
		scripts.WithStats(p.ledger),
		scripts.WithLogger(p.logger.Named("scripts")),
	)
	p.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(p.dedupeSize))
	p.queue = queue.NewInMemoryQueue(queue.WithCapacity(p.queueSize))
	p.dispatcher = worker.New(p.queue, p,
		worker.WithName("dispatcher"),
		worker.WithLogger(p.logger),
	)

	metrics.UpdatePlaceholdersRegistered(p.registry.Len())
	metrics.UpdateOnlinePlayers(0)
	metrics.UpdateDamageRecords(0)
	return p
}

// Start loads scripts and starts the event consumer and the cleanup tick.
func (p *Plugin) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return nil
	}
	if p.queue.IsClosed() {
		return fmt.Errorf("%w: event queue already closed", ErrNotStarted)
	}

	p.logger.Info(ctx, "starting plugin...", logger.String("name", p.name))

	n, err := p.scripts.LoadDir(ctx, p.scriptsDir)
	if err != nil {
		p.logger.Warn(ctx, "some scripts failed to load", logger.Error(err))
	}
	metrics.UpdatePlaceholdersRegistered(p.registry.Len())

	p.stopCh = make(chan struct{})
	runCtx := context.WithoutCancel(ctx)
	p.wg.Add(2)
	go func() {
		defer p.wg.Done()
		p.dispatcher.Run(runCtx)
	}()
	go func() {
		defer p.wg.Done()
		p.cleanupLoop(runCtx)
	}()

	p.started = true
	p.logger.Info(ctx, "plugin started",
		logger.Int("queueSize", p.queueSize),
		logger.Int("dedupeSize", p.dedupeSize),
		logger.Duration("combatTimeout", p.combatTimeout),
		logger.Duration("cleanupInterval", p.cleanupInterval),
		logger.Int("scripts", n),
		logger.Int("placeholders", p.registry.Len()),
	)
	return nil
}

// Stop drains pending events and stops the background goroutines.
func (p *Plugin) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	close(p.stopCh)
	p.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	p.logger.Info(ctx, "stopping plugin...")
	_ = p.queue.Close()
	if err := p.dispatcher.Shutdown(ctx); err != nil {
		p.logger.Warn(ctx, "pending events dropped", logger.Error(err))
	}
	p.wg.Wait()
	p.logger.Info(ctx, "plugin stopped")
}

func (p *Plugin) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(p.cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick removes expired damage records and returns how many were removed.
func (p *Plugin) Tick(ctx context.Context) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	removed := p.ledger.SweepExpired()
	metrics.RecordSweep(removed, time.Since(start))
	metrics.UpdateDamageRecords(p.ledger.PendingRecords())
	if removed > 0 {
		p.logger.Debug(ctx, "expired damage records removed", logger.Int("removed", removed))
	}
	return removed
}

// Handle applies one host event. It implements worker.Handler.
func (p *Plugin) Handle(ctx context.Context, e model.Event) error { //nolint:gocritic // hugeParam: value semantics across the queue
	if err := e.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var err error
	switch e.Kind {
	case model.KindJoin:
		joined := p.roster.Join(*e.Player)
		p.logger.Debug(ctx, "player joined", logger.String("player", joined.Name))
	case model.KindUpdate:
		if !p.roster.Update(*e.Player) {
			err = fmt.Errorf("%w: %s is not online", ErrUnknownPlayer, e.Player.Name)
		}
	case model.KindQuit:
		p.onQuit(ctx, e.Subject())
	case model.KindDamage:
		p.onDamage(player.IDFromName(e.Victim), player.IDFromName(e.Attacker))
	case model.KindDeath:
		p.onDeath(ctx, player.IDFromName(e.Victim))
	}

	metrics.UpdateOnlinePlayers(p.roster.Count())
	metrics.UpdateDamageRecords(p.ledger.PendingRecords())
	return err
}

func (p *Plugin) onQuit(ctx context.Context, id player.ID) {
	p.roster.Quit(id)
	if p.clearOnQuit {
		p.ledger.ClearPlayer(id)
		p.logger.Debug(ctx, "combat data cleared", logger.String("player", id.String()))
	}
}

// onDamage records player-on-player damage. Damage without a player
// attacker, and self-damage, never becomes a record.
func (p *Plugin) onDamage(victim, attacker player.ID) {
	if attacker.IsZero() || attacker == victim {
		return
	}
	p.ledger.RecordDamage(victim, attacker)
	metrics.RecordDamage()
}

// onDeath credits the valid killer when they are still online and always
// resets the victim's streak.
func (p *Plugin) onDeath(ctx context.Context, victim player.ID) {
	killer, ok := p.ledger.ValidKiller(victim)
	credited := ok && p.roster.Online(killer)
	if credited {
		p.ledger.AddKill(killer)
		metrics.RecordKill()
		p.logger.Debug(ctx, "kill credited",
			logger.String("killer", killer.String()),
			logger.String("victim", victim.String()),
			logger.Int("killstreak", p.ledger.Killstreak(killer)),
		)
	}
	p.ledger.ResetKillstreak(victim)
	metrics.RecordDeath(credited)
}

// Parse expands text for target: a player name, or NullTarget for none.
func (p *Plugin) Parse(ctx context.Context, target, text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var subject *player.Player
	if target != NullTarget {
		pl, ok := p.roster.Get(player.IDFromName(target))
		if !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownPlayer, target)
		}
		subject = pl
	}
	return p.registry.SetPlaceholders(ctx, subject, text), nil
}

// List returns the registered identifiers in registration order.
func (p *Plugin) List() []string {
	return p.registry.Identifiers()
}

// Registry exposes the placeholder registry to in-process plugins.
func (p *Plugin) Registry() *placeholder.Registry { return p.registry }

// Scripts exposes the Lua script host.
func (p *Plugin) Scripts() *scripts.Host { return p.scripts }

// PlayerStats returns the counters for name. Offline players without any
// combat data are unknown.
func (p *Plugin) PlayerStats(name string) (types.PlayerStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := player.IDFromName(name)
	stats := types.PlayerStats{
		Name:       id.String(),
		Kills:      p.ledger.Kills(id),
		Killstreak: p.ledger.Killstreak(id),
	}
	if pl, ok := p.roster.Get(id); ok {
		stats.Online = true
		stats.Player = pl
	}
	if !stats.Online && stats.Kills == 0 && stats.Killstreak == 0 {
		return types.PlayerStats{}, fmt.Errorf("%w: %s", ErrUnknownPlayer, name)
	}
	return stats, nil
}

// Leaderboard returns the top n killers, or all of them when n < 1.
func (p *Plugin) Leaderboard(n int) []types.Entry {
	p.mu.Lock()
	defer p.mu.Unlock()

	top := p.ledger.TopKillers(n)
	out := make([]types.Entry, len(top))
	for i, s := range top {
		out[i] = types.Entry{
			Rank:       i + 1,
			Player:     s.Player.String(),
			Kills:      s.Kills,
			Killstreak: s.Killstreak,
			Online:     p.roster.Online(s.Player),
		}
	}
	return out
}

// SeenAndRecord reports whether an event id was already accepted and
// records it if not.
func (p *Plugin) SeenAndRecord(ctx context.Context, id string) bool {
	seen := p.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEventDuplicate()
	}
	return seen
}

// Unrecord forgets an event id so the event can be retried.
func (p *Plugin) Unrecord(ctx context.Context, id string) {
	p.deduper.Unrecord(ctx, id)
}

// Enqueue submits an event for the dispatcher. It returns false when the
// queue is full or closed.
func (p *Plugin) Enqueue(ctx context.Context, e model.Event) bool { //nolint:gocritic // hugeParam
	ok := p.queue.Enqueue(ctx, e)
	if ok {
		metrics.RecordEventReceived(string(e.Kind))
		p.logger.Debug(ctx, "event enqueued",
			logger.String("eventID", e.EventID),
			logger.String("kind", string(e.Kind)),
		)
	}
	return ok
}

// GetStats returns plugin statistics for monitoring.
func (p *Plugin) GetStats() map[string]any {
	p.mu.Lock()
	defer p.mu.Unlock()

	info := p.roster.Info()
	return map[string]any{
		"started":              p.started,
		"name":                 p.name,
		"online":               p.roster.Count(),
		"maxPlayers":           info.MaxPlayers,
		"version":              info.Version,
		"uptimeSeconds":        int64(p.now().Sub(info.StartedAt).Seconds()),
		"queueLength":          p.queue.Len(),
		"queueCapacity":        p.queue.Capacity(),
		"dedupeSize":           p.deduper.Size(),
		"damageRecords":        p.ledger.PendingRecords(),
		"combatTimeoutSeconds": p.ledger.Timeout().Seconds(),
		"clearOnQuit":          p.clearOnQuit,
		"placeholders":         p.registry.Len(),
		"scripts":              p.scripts.Owners(),
	}
}
