// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/duelo/internal/adapters/repository"
	service "github.com/okian/duelo/internal/app"
	"github.com/okian/duelo/internal/domain/model"
)

// voteRequest mirrors the OpenAPI schema for POST /votes.
type voteRequest struct {
	VoteID    string `json:"vote_id"`
	Item1ID   string `json:"item1_id"`
	Item2ID   string `json:"item2_id"`
	WinnerID  string `json:"winner_id"`
	SessionID string `json:"session_id"`
}

func (v voteRequest) validate() error {
	switch {
	case strings.TrimSpace(v.Item1ID) == "":
		return errors.New("missing item1_id")
	case strings.TrimSpace(v.Item2ID) == "":
		return errors.New("missing item2_id")
	case strings.TrimSpace(v.WinnerID) == "":
		return errors.New("missing winner_id")
	}
	return nil
}

// VotesHandler applies judgments.
type VotesHandler struct {
	deps Dependencies
}

// NewVotesHandler creates a new votes handler.
func NewVotesHandler(deps Dependencies) *VotesHandler {
	return &VotesHandler{deps: deps}
}

// HandlePostVote handles POST /votes requests.
func (h *VotesHandler) HandlePostVote(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_vote"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	result, err := h.deps.RecordVote(r.Context(), model.Vote{
		VoteID:    req.VoteID,
		Item1ID:   req.Item1ID,
		Item2ID:   req.Item2ID,
		WinnerID:  req.WinnerID,
		SessionID: req.SessionID,
	})
	if err != nil {
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
	writeJSON(w, http.StatusOK, result)
}
