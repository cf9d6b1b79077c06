// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/types"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// SelectPair draws two distinct items for a session to judge.
	SelectPair(ctx context.Context, sessionID string) (types.Pair, error)

	// RecordVote applies one judgment; replays are flagged, not re-counted.
	RecordVote(ctx context.Context, v model.Vote) (types.VoteResult, error)

	// RecordSkip marks a served pair as skipped.
	RecordSkip(ctx context.Context, item1ID, item2ID, sessionID string) error

	// SubmitItem ingests a new item.
	SubmitItem(ctx context.Context, title, imageURL string) (model.Item, error)

	// Read operations expose leaderboard and per-item data.
	Leaderboard(ctx context.Context, n int) ([]Entry, error)
	ItemStats(ctx context.Context, id string) (types.ItemStats, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	pairHandler        *PairHandler
	votesHandler       *VotesHandler
	skipsHandler       *SkipsHandler
	itemsHandler       *ItemsHandler
	leaderboardHandler *LeaderboardHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		pairHandler:        NewPairHandler(deps),
		votesHandler:       NewVotesHandler(deps),
		skipsHandler:       NewSkipsHandler(deps),
		itemsHandler:       NewItemsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/pair", MetricsMiddleware(s.pairHandler.HandleGetPair, "pair"))
	mux.HandleFunc("/votes", MetricsMiddleware(s.votesHandler.HandlePostVote, "votes"))
	mux.HandleFunc("/skips", MetricsMiddleware(s.skipsHandler.HandlePostSkip, "skips"))
	mux.HandleFunc("/items", MetricsMiddleware(s.itemsHandler.HandlePostItem, "items"))
	mux.HandleFunc("/items/", MetricsMiddleware(s.itemsHandler.HandleGetItemStats, "item_stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
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
