// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/duelo/internal/adapters/repository"
)

// itemRequest mirrors the OpenAPI schema for POST /items.
type itemRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url"`
}

func (i itemRequest) validate() error {
	if strings.TrimSpace(i.Title) == "" {
		return errors.New("missing title")
	}
	return nil
}

// itemResponse is the created-item shape for POST /items.
type itemResponse struct {
	ItemID   string  `json:"item_id"`
	Title    string  `json:"title"`
	ImageURL string  `json:"image_url,omitempty"`
	Rating   float64 `json:"rating"`
}

// ItemsHandler handles item ingestion and per-item reads.
type ItemsHandler struct {
	deps Dependencies
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps Dependencies) *ItemsHandler {
	return &ItemsHandler{deps: deps}
}

// HandlePostItem handles POST /items requests.
func (h *ItemsHandler) HandlePostItem(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_item"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	item, err := h.deps.SubmitItem(r.Context(), req.Title, req.ImageURL)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTitle) {
			writeError(w, http.StatusConflict, "duplicate_title", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusCreated, itemResponse{
		ItemID:   item.ID,
		Title:    item.Title,
		ImageURL: item.ImageURL,
		Rating:   item.Rating,
	})
}

// HandleGetItemStats handles GET /items/{id}/stats requests.
func (h *ItemsHandler) HandleGetItemStats(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_item_stats"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	// Extract path parameters after /items/
	path := strings.TrimPrefix(r.URL.Path, "/items/")
	id, tail, found := strings.Cut(path, "/")
	if !found || id == "" || tail != "stats" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	stats, err := h.deps.ItemStats(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", Wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
