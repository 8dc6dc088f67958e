// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/internal/domain/types"
	"github.com/okian/papi/internal/plugin"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	EventDependencies
	PlaceholderDependencies
	PlayerDependencies
	LeaderboardDependencies
	StatsProvider
}

// EventDependencies accepts host events.
type EventDependencies interface {
	SeenAndRecord(ctx context.Context, id string) bool
	Unrecord(ctx context.Context, id string)
	// Enqueue pushes an event for async processing. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.Event) bool
}

// PlaceholderDependencies exposes placeholder expansion and the command.
type PlaceholderDependencies interface {
	Parse(ctx context.Context, target, text string) (string, error)
	List() []string
	Command(ctx context.Context, sender plugin.Sender, args []string) bool
}

// PlayerDependencies reads per-player counters.
type PlayerDependencies interface {
	PlayerStats(name string) (types.PlayerStats, error)
}

// LeaderboardDependencies reads the kill standings.
type LeaderboardDependencies interface {
	Leaderboard(n int) []types.Entry
}

// StatsProvider defines the interface for getting plugin statistics.
type StatsProvider interface {
	GetStats() map[string]any
}

// Server wires HTTP routes for the plugin API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	eventsHandler      *EventsHandler
	placeholderHandler *PlaceholderHandler
	playerHandler      *PlayerHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		eventsHandler:      NewEventsHandler(deps),
		placeholderHandler: NewPlaceholderHandler(deps),
		playerHandler:      NewPlayerHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/events", MetricsMiddleware(s.eventsHandler.HandlePostEvent, "events"))
	mux.HandleFunc("/papi/parse", MetricsMiddleware(s.placeholderHandler.HandleParse, "papi_parse"))
	mux.HandleFunc("/papi/list", MetricsMiddleware(s.placeholderHandler.HandleList, "papi_list"))
	mux.HandleFunc("/papi/command", MetricsMiddleware(s.placeholderHandler.HandleCommand, "papi_command"))
	mux.HandleFunc("/players/", MetricsMiddleware(s.playerHandler.HandleGetPlayer, "players"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
