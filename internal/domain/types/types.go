// Package types contains the read models served by the API.
package types

import "github.com/okian/papi/internal/domain/player"

// Entry is one row of the kill leaderboard.
type Entry struct {
	Rank       int    `json:"rank"`
	Player     string `json:"player"`
	Kills      int    `json:"kills"`
	Killstreak int    `json:"killstreak"`
	Online     bool   `json:"online"`
}

// PlayerStats is a player's combat counters with the live snapshot when the
// player is online.
type PlayerStats struct {
	Name       string         `json:"name"`
	Online     bool           `json:"online"`
	Kills      int            `json:"kills"`
	Killstreak int            `json:"killstreak"`
	Player     *player.Player `json:"player,omitempty"`
}
