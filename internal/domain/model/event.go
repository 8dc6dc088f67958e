// Package model contains the host events passed between layers.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/papi/internal/domain/player"
)

// Kind names a host notification.
type Kind string

const (
	KindJoin   Kind = "join"
	KindUpdate Kind = "update"
	KindQuit   Kind = "quit"
	KindDamage Kind = "damage"
	KindDeath  Kind = "death"
)

// Valid reports whether k is a known event kind.
func (k Kind) Valid() bool {
	switch k {
	case KindJoin, KindUpdate, KindQuit, KindDamage, KindDeath:
		return true
	}
	return false
}

// Event is a host notification submitted to /events.
type Event struct {
	EventID  string         `json:"event_id"`
	Kind     Kind           `json:"kind"`
	Victim   string         `json:"victim,omitempty"`   // damage, death
	Attacker string         `json:"attacker,omitempty"` // damage; empty when the source is not a player
	Name     string         `json:"name,omitempty"`     // quit
	Player   *player.Player `json:"player,omitempty"`   // join, update
	TS       time.Time      `json:"ts"`
}

// Subject returns the identity the event is about.
func (e Event) Subject() player.ID {
	switch e.Kind {
	case KindJoin, KindUpdate:
		if e.Player != nil {
			return e.Player.ID()
		}
	case KindQuit:
		return player.IDFromName(e.Name)
	}
	return player.IDFromName(e.Victim)
}

// Validate checks the fields each kind needs.
func (e Event) Validate() error {
	if strings.TrimSpace(e.EventID) == "" {
		return fmt.Errorf("%w: event_id is required", ErrInvalidEvent)
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidEvent, e.Kind)
	}
	switch e.Kind {
	case KindJoin, KindUpdate:
		if e.Player == nil || e.Player.ID().IsZero() {
			return fmt.Errorf("%w: %s needs a player with a name", ErrInvalidEvent, e.Kind)
		}
	case KindQuit:
		if player.IDFromName(e.Name).IsZero() {
			return fmt.Errorf("%w: quit needs a name", ErrInvalidEvent)
		}
	case KindDamage, KindDeath:
		if player.IDFromName(e.Victim).IsZero() {
			return fmt.Errorf("%w: %s needs a victim", ErrInvalidEvent, e.Kind)
		}
	}
	return nil
}
