// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/duelo/internal/adapters/repository"
	service "github.com/okian/duelo/internal/app"
)

// skipRequest mirrors the OpenAPI schema for POST /skips.
type skipRequest struct {
	Item1ID   string `json:"item1_id"`
	Item2ID   string `json:"item2_id"`
	SessionID string `json:"session_id"`
}

func (s skipRequest) validate() error {
	switch {
	case strings.TrimSpace(s.Item1ID) == "":
		return errors.New("missing item1_id")
	case strings.TrimSpace(s.Item2ID) == "":
		return errors.New("missing item2_id")
	}
	return nil
}

type ackResponse struct {
	Status string `json:"status"`
}

// SkipsHandler records skipped pairs.
type SkipsHandler struct {
	deps Dependencies
}

// NewSkipsHandler creates a new skips handler.
func NewSkipsHandler(deps Dependencies) *SkipsHandler {
	return &SkipsHandler{deps: deps}
}

// HandlePostSkip handles POST /skips requests.
func (h *SkipsHandler) HandlePostSkip(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_skip"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req skipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if err := h.deps.RecordSkip(r.Context(), req.Item1ID, req.Item2ID, req.SessionID); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVote):
			writeError(w, http.StatusBadRequest, "bad_request", Wrap(op, err))
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		}
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
