// Package combat attributes player deaths to attackers and keeps kill and
// killstreak counters.
//
// A Ledger remembers, for each victim, the last player that damaged it and
// when. A death is credited to that attacker only while the damage is no
// older than the combat timeout. Newer damage always replaces older damage
// (last-hit attribution).
//
// A Ledger performs no locking. Callers must serialize access, as the game
// host does when it delivers damage, death and timer callbacks one at a time.
package combat

import (
	"sort"
	"time"

	"github.com/okian/papi/internal/domain/player"
)

// DefaultTimeout is the combat timeout used when none is configured.
const DefaultTimeout = 10 * time.Second

// damageRecord is the last hit taken by a victim.
type damageRecord struct {
	attacker player.ID
	at       time.Time
}

// Standing is a player's position on the kill leaderboard.
type Standing struct {
	Player     player.ID
	Kills      int
	Killstreak int
}

// Ledger tracks kills, killstreaks and last-damage records.
type Ledger struct {
	kills      map[player.ID]int
	killstreak map[player.ID]int
	lastDamage map[player.ID]damageRecord

	timeout time.Duration
	now     func() time.Time
}

// New creates a Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		kills:      make(map[player.ID]int),
		killstreak: make(map[player.ID]int),
		lastDamage: make(map[player.ID]damageRecord),
		timeout:    DefaultTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Timeout returns the combat timeout.
func (l *Ledger) Timeout() time.Duration { return l.timeout }

// RecordDamage records that attacker just damaged victim, replacing any
// earlier record for victim. Self-damage is not filtered here.
func (l *Ledger) RecordDamage(victim, attacker player.ID) {
	l.lastDamage[victim] = damageRecord{attacker: attacker, at: l.now()}
}

// ValidKiller returns the attacker that should be credited if victim died
// now. It reports false when there is no record or the record is older than
// the combat timeout. Expired records are left in place.
func (l *Ledger) ValidKiller(victim player.ID) (player.ID, bool) {
	rec, ok := l.lastDamage[victim]
	if !ok {
		return "", false
	}
	if l.now().Sub(rec.at) > l.timeout {
		return "", false
	}
	return rec.attacker, true
}

// AddKill credits one kill to attacker and extends its killstreak.
func (l *Ledger) AddKill(attacker player.ID) {
	l.kills[attacker]++
	l.killstreak[attacker]++
}

// ResetKillstreak zeroes victim's killstreak and forgets who last damaged
// it. Call it once per death, whether or not a kill was credited.
func (l *Ledger) ResetKillstreak(victim player.ID) {
	l.killstreak[victim] = 0
	delete(l.lastDamage, victim)
}

// Kills returns the total kills of p, zero if unknown.
func (l *Ledger) Kills(p player.ID) int { return l.kills[p] }

// Killstreak returns the current killstreak of p, zero if unknown.
func (l *Ledger) Killstreak(p player.ID) int { return l.killstreak[p] }

// ClearPlayer forgets everything about p: its counters, the damage it has
// taken and the damage records naming it as attacker.
func (l *Ledger) ClearPlayer(p player.ID) {
	delete(l.kills, p)
	delete(l.killstreak, p)
	delete(l.lastDamage, p)
	for victim, rec := range l.lastDamage {
		if rec.attacker == p {
			delete(l.lastDamage, victim)
		}
	}
}

// SweepExpired removes damage records older than the combat timeout and
// returns how many were removed. It only bounds memory; ValidKiller already
// ignores expired records.
func (l *Ledger) SweepExpired() int {
	now := l.now()
	removed := 0
	for victim, rec := range l.lastDamage {
		if now.Sub(rec.at) > l.timeout {
			delete(l.lastDamage, victim)
			removed++
		}
	}
	return removed
}

// PendingRecords returns the number of damage records held.
func (l *Ledger) PendingRecords() int { return len(l.lastDamage) }

// TopKillers returns up to n players with at least one kill, ordered by
// kills desc then name asc. n < 1 returns every such player.
func (l *Ledger) TopKillers(n int) []Standing {
	out := make([]Standing, 0, len(l.kills))
	for p, k := range l.kills {
		if k == 0 {
			continue
		}
		out = append(out, Standing{Player: p, Kills: k, Killstreak: l.killstreak[p]})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Kills != out[j].Kills {
			return out[i].Kills > out[j].Kills
		}
		return out[i].Player < out[j].Player
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
