// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"errors"
	"net/http"

	"github.com/okian/duelo/internal/domain/selection"
)

// PairHandler serves comparison pairs.
type PairHandler struct {
	deps Dependencies
}

// NewPairHandler creates a new pair handler.
func NewPairHandler(deps Dependencies) *PairHandler {
	return &PairHandler{deps: deps}
}

// HandleGetPair handles GET /pair?session_id= requests.
// An absent session id disables personalization but still serves a pair.
func (h *PairHandler) HandleGetPair(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_pair"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	sessionID := r.URL.Query().Get("session_id")
	pair, err := h.deps.SelectPair(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, selection.ErrInsufficientPool) {
			writeError(w, http.StatusServiceUnavailable, "insufficient_pool", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, pair)
}
