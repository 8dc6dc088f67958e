package simulate

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/papi/internal/domain/combat"
	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/internal/domain/player"
)

// Fight is the ordered events of one duel. The last two events are always
// the winner's final hit and the loser's death.
type Fight struct {
	Winner string
	Loser  string
	Events []model.Event
}

// Expectation is the counters a player should end the run with.
type Expectation struct {
	Kills      int
	Killstreak int
}

// Plan is a generated run: joins first, then rounds of fights between
// disjoint pairs of players.
type Plan struct {
	Players  []string
	Joins    []model.Event
	Rounds   [][]Fight
	Expected map[string]Expectation
	Kills    int
}

// Events returns every event in submission order.
func (p *Plan) Events() []model.Event {
	out := make([]model.Event, 0, len(p.Joins))
	out = append(out, p.Joins...)
	for _, round := range p.Rounds {
		for _, f := range round {
			out = append(out, f.Events...)
		}
	}
	return out
}

// Fights returns the number of fights in the plan.
func (p *Plan) Fights() int {
	n := 0
	for _, round := range p.Rounds {
		n += len(round)
	}
	return n
}

// Generate builds a plan for cfg. Fights within a round never share a
// player, so submitting a round concurrently keeps every player's events in
// order.
func Generate(cfg Config, rng *rand.Rand) *Plan {
	cfg = cfg.withDefaults()
	now := time.Now().UTC()
	g := &generator{rng: rng, now: now}

	plan := &Plan{
		Players:  make([]string, cfg.Players),
		Expected: make(map[string]Expectation, cfg.Players),
	}
	for i := range plan.Players {
		name := fmt.Sprintf("%s-%03d", cfg.Prefix, i+1)
		plan.Players[i] = name
		plan.Joins = append(plan.Joins, g.join(name))
	}

	for range cfg.Rounds {
		perm := rng.Perm(len(plan.Players))
		var round []Fight
		for i := 0; i+1 < len(perm); i += 2 {
			round = append(round, g.fight(plan.Players[perm[i]], plan.Players[perm[i+1]]))
		}
		plan.Rounds = append(plan.Rounds, round)
	}

	plan.expect()
	return plan
}

// expect replays the fights through a ledger to derive the final counters.
// Every player stays online for the whole run.
func (p *Plan) expect() {
	ledger := combat.New(combat.WithTimeout(time.Hour))
	for _, round := range p.Rounds {
		for _, f := range round {
			for _, e := range f.Events {
				victim := player.IDFromName(e.Victim)
				switch e.Kind {
				case model.KindDamage:
					attacker := player.IDFromName(e.Attacker)
					if attacker.IsZero() || attacker == victim {
						continue
					}
					ledger.RecordDamage(victim, attacker)
				case model.KindDeath:
					if killer, ok := ledger.ValidKiller(victim); ok {
						ledger.AddKill(killer)
						p.Kills++
					}
					ledger.ResetKillstreak(victim)
				}
			}
		}
	}
	for _, name := range p.Players {
		id := player.IDFromName(name)
		p.Expected[name] = Expectation{Kills: ledger.Kills(id), Killstreak: ledger.Killstreak(id)}
	}
}

type generator struct {
	rng *rand.Rand
	now time.Time
	seq int
}

func (g *generator) event(kind model.Kind) model.Event {
	g.seq++
	return model.Event{
		EventID: uuid.NewString(),
		Kind:    kind,
		TS:      g.now.Add(time.Duration(g.seq) * time.Millisecond),
	}
}

func (g *generator) join(name string) model.Event {
	e := g.event(model.KindJoin)
	e.Player = &player.Player{
		Name:     name,
		UniqueID: player.OfflineUUID(name),
		Ping:     g.rng.IntN(200),
		Location: player.Location{
			X: g.rng.Float64()*2000 - 1000,
			Y: 64,
			Z: g.rng.Float64()*2000 - 1000,
		},
		GameMode: player.Survival,
		DeviceOS: "Android",
		Locale:   "en_US",
	}
	return e
}

func (g *generator) damage(victim, attacker string) model.Event {
	e := g.event(model.KindDamage)
	e.Victim = victim
	e.Attacker = attacker
	return e
}

func (g *generator) fight(a, b string) Fight {
	f := Fight{Winner: a, Loser: b}
	if g.rng.IntN(2) == 0 {
		f.Winner, f.Loser = b, a
	}
	for range g.rng.IntN(maxHits) {
		if g.rng.IntN(2) == 0 {
			f.Events = append(f.Events, g.damage(a, b))
		} else {
			f.Events = append(f.Events, g.damage(b, a))
		}
	}
	// Fall damage and self-inflicted hits never make a record.
	switch g.rng.IntN(4) {
	case 0:
		f.Events = append(f.Events, g.damage(f.Loser, ""))
	case 1:
		f.Events = append(f.Events, g.damage(f.Loser, f.Loser))
	}
	f.Events = append(f.Events, g.damage(f.Loser, f.Winner))
	death := g.event(model.KindDeath)
	death.Victim = f.Loser
	f.Events = append(f.Events, death)
	return f
}
