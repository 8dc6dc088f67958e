// Package player models the host's player and server objects: an opaque
// player identity, online player snapshots and basic server information.
package player

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID identifies a player across the ledger, roster and placeholders.
// It is keyed by the player's name; a rename yields a different ID.
type ID string

// IDFromName builds an ID from a display name.
func IDFromName(name string) ID {
	return ID(strings.TrimSpace(name))
}

func (id ID) String() string { return string(id) }

// IsZero reports whether id is empty.
func (id ID) IsZero() bool { return id == "" }

// Dimension is the world a player is located in.
type Dimension int

// Dimensions, numbered as the host numbers them.
const (
	Overworld Dimension = iota
	Nether
	TheEnd
)

var dimensionNames = [...]string{"overworld", "nether", "the_end"}

func (d Dimension) String() string {
	if d < 0 || int(d) >= len(dimensionNames) {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// MarshalText implements encoding.TextMarshaler.
func (d Dimension) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(b []byte) error {
	v, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDimension parses a dimension name, case-insensitively.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Overworld, nil
	}
	for i, name := range dimensionNames {
		if s == name {
			return Dimension(i), nil
		}
	}
	return 0, fmt.Errorf("%w: dimension %q", ErrInvalidValue, s)
}

// GameMode is the player's current game mode.
type GameMode int

// Game modes.
const (
	Survival GameMode = iota
	Creative
	Adventure
	Spectator
)

var gameModeNames = [...]string{"survival", "creative", "adventure", "spectator"}

func (m GameMode) String() string {
	if m < 0 || int(m) >= len(gameModeNames) {
		return fmt.Sprintf("gamemode(%d)", int(m))
	}
	return gameModeNames[m]
}

// MarshalText implements encoding.TextMarshaler.
func (m GameMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *GameMode) UnmarshalText(b []byte) error {
	v, err := ParseGameMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseGameMode parses a game mode name, case-insensitively.
func ParseGameMode(s string) (GameMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Survival, nil
	}
	for i, name := range gameModeNames {
		if s == name {
			return GameMode(i), nil
		}
	}
	return 0, fmt.Errorf("%w: game mode %q", ErrInvalidValue, s)
}

// Location is a position in a dimension.
type Location struct {
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Z         float64   `json:"z"`
	Dimension Dimension `json:"dimension"`
}

// Player is a snapshot of an online player as reported by the host.
type Player struct {
	Name        string    `json:"name"`
	UniqueID    uuid.UUID `json:"uuid"`
	XUID        string    `json:"xuid,omitempty"`
	RuntimeID   int64     `json:"runtime_id,omitempty"`
	Address     string    `json:"address,omitempty"`
	Ping        int       `json:"ping"`
	Location    Location  `json:"location"`
	ExpLevel    int       `json:"exp_level"`
	TotalExp    int       `json:"total_exp"`
	ExpProgress float64   `json:"exp_progress"`
	GameMode    GameMode  `json:"game_mode"`
	DeviceOS    string    `json:"device_os,omitempty"`
	Locale      string    `json:"locale,omitempty"`
}

// ID returns the player's identity.
func (p *Player) ID() ID { return IDFromName(p.Name) }

// offlineNamespace seeds name-derived unique ids for players the host
// reports without one.
var offlineNamespace = uuid.MustParse("5d4c6a1e-6f0b-4d55-9a4b-0f3a6b2f7c10")

// OfflineUUID derives a stable unique id from a player name.
func OfflineUUID(name string) uuid.UUID {
	return uuid.NewSHA1(offlineNamespace, []byte("OfflinePlayer:"+name))
}
