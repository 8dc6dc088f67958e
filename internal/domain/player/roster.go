package player

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// ServerInfo describes the host server.
type ServerInfo struct {
	Version    string
	MaxPlayers int
	StartedAt  time.Time
}

// Roster tracks online players. It is not safe for concurrent use; callers
// serialize access the same way the host serializes its callbacks.
type Roster struct {
	players map[ID]Player
	info    ServerInfo
}

// NewRoster creates an empty roster for a server.
func NewRoster(info ServerInfo) *Roster {
	if info.StartedAt.IsZero() {
		info.StartedAt = time.Now()
	}
	return &Roster{
		players: make(map[ID]Player),
		info:    info,
	}
}

// Join marks p as online, replacing any previous snapshot. The stored name
// is the trimmed identity.
func (r *Roster) Join(p Player) Player {
	p.Name = p.ID().String()
	if p.UniqueID == uuid.Nil {
		p.UniqueID = OfflineUUID(p.Name)
	}
	r.players[p.ID()] = p
	return p
}

// Update replaces the snapshot of an online player. It reports false when
// the player is not online.
func (r *Roster) Update(p Player) bool {
	cur, ok := r.players[p.ID()]
	if !ok {
		return false
	}
	p.Name = cur.Name
	if p.UniqueID == uuid.Nil {
		p.UniqueID = cur.UniqueID
	}
	r.players[p.ID()] = p
	return true
}

// Quit removes a player. It reports whether the player was online.
func (r *Roster) Quit(id ID) bool {
	if _, ok := r.players[id]; !ok {
		return false
	}
	delete(r.players, id)
	return true
}

// Get returns a copy of an online player's snapshot.
func (r *Roster) Get(id ID) (*Player, bool) {
	p, ok := r.players[id]
	if !ok {
		return nil, false
	}
	return &p, true
}

// Online reports whether id is online.
func (r *Roster) Online(id ID) bool {
	_, ok := r.players[id]
	return ok
}

// Count returns the number of online players.
func (r *Roster) Count() int { return len(r.players) }

// IDs returns online player ids in name order.
func (r *Roster) IDs() []ID {
	ids := make([]ID, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Info returns the server information.
func (r *Roster) Info() ServerInfo { return r.info }
