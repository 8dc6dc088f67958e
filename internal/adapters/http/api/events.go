package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/papi/internal/domain/model"
	"github.com/okian/papi/pkg/metrics"
)

// EventsHandler handles event requests.
type EventsHandler struct {
	deps EventDependencies
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(deps EventDependencies) *EventsHandler {
	return &EventsHandler{deps: deps}
}

// HandlePostEvent handles POST /events requests.
func (h *EventsHandler) HandlePostEvent(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_event"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var e model.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		metrics.RecordEventRejected("decode")
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if err := e.Validate(); err != nil {
		metrics.RecordEventRejected("invalid")
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if e.TS.IsZero() {
		metrics.RecordEventRejected("invalid")
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("missing ts; must be RFC3339")))
		return
	}

	if h.deps.SeenAndRecord(r.Context(), e.EventID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), e); !ok {
		// Let the client retry the same id.
		h.deps.Unrecord(r.Context(), e.EventID)
		metrics.RecordEventRejected("backpressure")
		writeError(w, http.StatusTooManyRequests, "backpressure", newKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
