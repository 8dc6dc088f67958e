package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/papi/internal/plugin"
)

// PlaceholderHandler serves placeholder expansion and the /papi command.
type PlaceholderHandler struct {
	deps PlaceholderDependencies
}

// NewPlaceholderHandler creates a new placeholder handler.
func NewPlaceholderHandler(deps PlaceholderDependencies) *PlaceholderHandler {
	return &PlaceholderHandler{deps: deps}
}

type parseRequest struct {
	Target string `json:"target"`
	Text   string `json:"text"`
}

type parseResponse struct {
	Text string `json:"text"`
}

type listResponse struct {
	Placeholders []string `json:"placeholders"`
}

type commandRequest struct {
	Sender string   `json:"sender"`
	Args   []string `json:"args"`
}

type commandResponse struct {
	OK       bool     `json:"ok"`
	Messages []string `json:"messages"`
	Errors   []string `json:"errors"`
}

// HandleParse handles POST /papi/parse requests. An empty target parses
// without a player.
func (h *PlaceholderHandler) HandleParse(w http.ResponseWriter, r *http.Request) {
	const op = "api.parse"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req parseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	target := strings.TrimSpace(req.Target)
	if target == "" {
		target = plugin.NullTarget
	}
	out, err := h.deps.Parse(r.Context(), target, req.Text)
	if err != nil {
		if errors.Is(err, plugin.ErrUnknownPlayer) {
			writeError(w, http.StatusNotFound, "not_found", wrapKind(op, ErrNotFound, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, parseResponse{Text: out})
}

// HandleList handles GET /papi/list requests.
func (h *PlaceholderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Placeholders: h.deps.List()})
}

// HandleCommand handles POST /papi/command requests, running /papi as the
// named player or, with no sender, as the console.
func (h *PlaceholderHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	const op = "api.command"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	sender := &plugin.BufferSender{Player: req.Sender}
	ok := h.deps.Command(r.Context(), sender, req.Args)

	status := http.StatusOK
	if !ok {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, commandResponse{
		OK:       ok,
		Messages: nonNil(sender.Messages),
		Errors:   nonNil(sender.Errors),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
