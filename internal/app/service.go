// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	rescorequeue "github.com/okian/duelo/internal/adapters/mq/queue"
	workerpool "github.com/okian/duelo/internal/adapters/mq/worker"
	repository "github.com/okian/duelo/internal/adapters/repository"
	"github.com/okian/duelo/internal/domain/dedupe"
	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/internal/domain/outcome"
	"github.com/okian/duelo/internal/domain/rating"
	"github.com/okian/duelo/internal/domain/scoring"
	"github.com/okian/duelo/internal/domain/selection"
	"github.com/okian/duelo/internal/domain/similarity"
	"github.com/okian/duelo/internal/domain/types"
	"github.com/okian/duelo/pkg/logger"
	"github.com/okian/duelo/pkg/metrics"
)

// Service wires the matchup pipeline: selection, vote application, and
// asynchronous rescoring over one item store.
type Service struct {
	mu sync.RWMutex

	// Core components
	store        repository.Store
	deduper      dedupe.Guard
	rescoreQueue rescorequeue.Queue
	selector     *selection.Engine
	updater      *rating.Updater
	scorer       *scoring.Scorer
	evaluator    *outcome.Evaluator
	workerPool   *workerpool.Pool

	// Configuration
	workerCount         int
	queueSize           int
	dedupeSize          int
	maxLeaderboardLimit int
	sessionHistoryLimit int
	selectionOpts       []selection.Option

	// State
	started bool
	stopCh  chan struct{}

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore injects a pre-built item store. Defaults to the in-memory
// treap store when unset.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithWorkerCount sets the number of rescore workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the rescore queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the vote deduplication cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMaxLeaderboardLimit caps leaderboard query sizes.
func WithMaxLeaderboardLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.maxLeaderboardLimit = limit
		}
	}
}

// WithSessionHistoryLimit bounds per-session comparison history retention
// in the default in-memory store. Ignored when a store is injected.
func WithSessionHistoryLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.sessionHistoryLimit = limit
		}
	}
}

// WithRatingUpdater sets a custom rating updater.
func WithRatingUpdater(u *rating.Updater) Option {
	return func(s *Service) {
		if u != nil {
			s.updater = u
		}
	}
}

// WithScorer sets a custom derived-score calculator.
func WithScorer(sc *scoring.Scorer) Option {
	return func(s *Service) {
		if sc != nil {
			s.scorer = sc
		}
	}
}

// WithEvaluator sets a custom upset evaluator.
func WithEvaluator(e *outcome.Evaluator) Option {
	return func(s *Service) {
		if e != nil {
			s.evaluator = e
		}
	}
}

// WithSelectionOptions forwards options to the selection engine built
// over the store at Start.
func WithSelectionOptions(opts ...selection.Option) Option {
	return func(s *Service) {
		s.selectionOpts = append(s.selectionOpts, opts...)
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(logger logger.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:         runtime.NumCPU() * 2,
		queueSize:           10_000,
		dedupeSize:          100_000,
		maxLeaderboardLimit: 100,
		stopCh:              make(chan struct{}),
		logger:              nil, // Will be replaced when service starts
	}

	// Apply all options
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	// Initialize logger if not already set
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting matchup service...")

	// Initialize components
	if s.store == nil {
		s.store = repository.NewMemoryStore(
			repository.WithSessionHistoryLimit(s.sessionHistoryLimit),
		)
		s.logger.Info(ctx, "using in-memory store")
	}
	s.deduper = dedupe.NewInMemoryGuard(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.rescoreQueue = rescorequeue.NewInMemoryQueue(
		rescorequeue.WithCapacity(s.queueSize),
	)
	if s.updater == nil {
		s.updater = rating.NewUpdater()
	}
	if s.scorer == nil {
		s.scorer = scoring.NewScorer()
	}
	if s.evaluator == nil {
		s.evaluator = outcome.NewEvaluator()
	}
	s.selector = selection.NewEngine(s.store, s.selectionOpts...)

	// Workers call back into RescoreItem; the service is its own rescorer.
	s.workerPool = workerpool.NewPool(s.workerCount, s.rescoreQueue, s)
	s.workerPool.Start(ctx)

	metrics.UpdateRescoreQueueCapacity(s.queueSize)

	s.started = true
	s.logger.Info(ctx, "matchup service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(context.Background(), "stopping matchup service...")

	// Stop worker pool
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	// Close queue
	if s.rescoreQueue != nil {
		_ = s.rescoreQueue.Close()
	}

	// Close store if it holds external resources
	if closer, ok := s.store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	// Signal cleanup loop to stop
	select {
	case <-s.stopCh:
		// Channel already closed
	default:
		close(s.stopCh)
	}

	s.started = false
	s.logger.Info(context.Background(), "matchup service stopped")
}

// SelectPair draws two distinct items for the session to judge.
func (s *Service) SelectPair(ctx context.Context, sessionID string) (types.Pair, error) {
	a, b, err := s.selector.SelectPair(ctx, sessionID)
	if err != nil {
		return types.Pair{}, err
	}

	return types.Pair{
		ItemA: toPairItem(a),
		ItemB: toPairItem(b),
	}, nil
}

// RecordVote validates and applies one judgment. Replays of a previously
// seen vote id are acknowledged without changing any state.
func (s *Service) RecordVote(ctx context.Context, v model.Vote) (types.VoteResult, error) {
	if err := validateVote(v); err != nil {
		metrics.RecordVoteRejected()
		return types.VoteResult{}, err
	}

	// A missing idempotency key gets a fresh one; such votes cannot be
	// deduplicated across retries.
	voteID := v.VoteID
	if voteID == "" {
		voteID = uuid.NewString()
	}

	if s.deduper.SeenAndRecord(ctx, voteID) {
		metrics.RecordVoteDuplicate()
		s.logger.Debug(ctx, "duplicate vote acknowledged",
			logger.String("voteID", voteID),
		)
		return s.replayedResult(ctx, v)
	}

	item1, err := s.store.GetItem(ctx, v.Item1ID)
	if err != nil {
		s.deduper.Unrecord(ctx, voteID)
		return types.VoteResult{}, fmt.Errorf("load item %s: %w", v.Item1ID, err)
	}
	item2, err := s.store.GetItem(ctx, v.Item2ID)
	if err != nil {
		s.deduper.Unrecord(ctx, voteID)
		return types.VoteResult{}, fmt.Errorf("load item %s: %w", v.Item2ID, err)
	}

	winnerIs1 := v.WinnerID == v.Item1ID

	// Outcome is judged on pre-update ratings, then the update runs.
	res := s.evaluator.Evaluate(item1.Rating, item2.Rating, winnerIs1)
	upd := s.updater.Update(item1.Rating, item2.Rating, winnerIs1,
		item1.RatingConfidence, item2.RatingConfidence)

	now := time.Now()
	delta := repository.VoteDelta{ComparedAt: now}
	if winnerIs1 {
		delta.WinnerID, delta.LoserID = item1.ID, item2.ID
		delta.NewWinnerRating, delta.NewLoserRating = upd.NewRatingA, upd.NewRatingB
	} else {
		delta.WinnerID, delta.LoserID = item2.ID, item1.ID
		delta.NewWinnerRating, delta.NewLoserRating = upd.NewRatingB, upd.NewRatingA
	}

	if err := s.store.ApplyVote(ctx, delta); err != nil {
		s.deduper.Unrecord(ctx, voteID)
		return types.VoteResult{}, fmt.Errorf("apply vote: %w", err)
	}

	comparison := model.Comparison{
		ID:               uuid.NewString(),
		Item1ID:          v.Item1ID,
		Item2ID:          v.Item2ID,
		WinnerID:         v.WinnerID,
		RatingDifference: res.RatingDifference,
		WasUpset:         res.WasUpset,
		SessionID:        v.SessionID,
		CreatedAt:        now,
	}
	if err := s.store.RecordComparison(ctx, comparison); err != nil {
		s.logger.Error(ctx, "failed to record comparison",
			logger.String("voteID", voteID),
			logger.Error(err),
		)
	}

	s.enqueueRescore(ctx, v.Item1ID, model.RescoreReasonVote)
	s.enqueueRescore(ctx, v.Item2ID, model.RescoreReasonVote)

	metrics.RecordVoteApplied()
	metrics.RecordRatingApplied(upd.NewRatingA)
	metrics.RecordRatingApplied(upd.NewRatingB)
	if res.WasUpset {
		metrics.RecordUpset()
	}

	return types.VoteResult{
		NewRating1:       upd.NewRatingA,
		NewRating2:       upd.NewRatingB,
		RatingDifference: res.RatingDifference,
		WasUpset:         res.WasUpset,
	}, nil
}

// RecordSkip marks a served pair as skipped. Skips touch engagement
// counters only; ratings are unchanged.
func (s *Service) RecordSkip(ctx context.Context, item1ID, item2ID, sessionID string) error {
	if item1ID == "" || item2ID == "" || item1ID == item2ID {
		return fmt.Errorf("%w: skip requires two distinct item ids", ErrInvalidVote)
	}

	item1, err := s.store.GetItem(ctx, item1ID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", item1ID, err)
	}
	item2, err := s.store.GetItem(ctx, item2ID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", item2ID, err)
	}

	if err := s.store.ApplySkip(ctx, item1ID, item2ID); err != nil {
		return fmt.Errorf("apply skip: %w", err)
	}

	diff := item1.Rating - item2.Rating
	if diff < 0 {
		diff = -diff
	}
	comparison := model.Comparison{
		ID:               uuid.NewString(),
		Item1ID:          item1ID,
		Item2ID:          item2ID,
		RatingDifference: diff,
		SessionID:        sessionID,
		Skipped:          true,
		CreatedAt:        time.Now(),
	}
	if err := s.store.RecordComparison(ctx, comparison); err != nil {
		s.logger.Error(ctx, "failed to record skip",
			logger.String("item1ID", item1ID),
			logger.String("item2ID", item2ID),
			logger.Error(err),
		)
	}

	s.enqueueRescore(ctx, item1ID, model.RescoreReasonSkip)
	s.enqueueRescore(ctx, item2ID, model.RescoreReasonSkip)

	metrics.RecordSkip()
	return nil
}

// RecomputeScores recalculates and persists an item's derived scores
// from its current counters.
func (s *Service) RecomputeScores(ctx context.Context, itemID string) error {
	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item %s: %w", itemID, err)
	}

	scores := s.scorer.Score(item, time.Now())
	if err := s.store.UpdateScores(ctx, itemID, scores.Familiarity, scores.Confidence); err != nil {
		return fmt.Errorf("update scores for %s: %w", itemID, err)
	}
	return nil
}

// RescoreItem satisfies the worker pool's rescorer dependency.
func (s *Service) RescoreItem(ctx context.Context, itemID string) error {
	return s.RecomputeScores(ctx, itemID)
}

// ClassifySimilarity maps an item title to its similarity group, if any.
func (s *Service) ClassifySimilarity(title string) (string, bool) {
	return similarity.Classify(title)
}

// SubmitItem ingests a new item with the default rating and zeroed
// counters. Titles are unique case-insensitively.
func (s *Service) SubmitItem(ctx context.Context, title, imageURL string) (model.Item, error) {
	item := model.Item{
		ID:        uuid.NewString(),
		Title:     title,
		ImageURL:  imageURL,
		Rating:    model.DefaultRating,
		CreatedAt: time.Now(),
	}

	if err := s.store.CreateItem(ctx, item); err != nil {
		return model.Item{}, err
	}

	s.logger.Debug(ctx, "item submitted",
		logger.String("itemID", item.ID),
		logger.String("title", title),
	)
	return item, nil
}

// Leaderboard returns the top N items by rating. N is capped by the
// configured limit.
func (s *Service) Leaderboard(ctx context.Context, n int) ([]types.Entry, error) {
	if n > s.maxLeaderboardLimit {
		n = s.maxLeaderboardLimit
	}

	entries, err := s.store.TopN(ctx, n)
	if err != nil {
		return nil, err
	}

	// Convert to API format
	apiEntries := make([]types.Entry, len(entries))
	for i, entry := range entries {
		apiEntries[i] = types.Entry{
			Rank:            entry.Rank,
			ItemID:          entry.ItemID,
			Title:           entry.Title,
			Rating:          entry.Rating,
			ComparisonCount: entry.ComparisonCount,
		}
	}

	return apiEntries, nil
}

// ItemStats returns the counters and derived scores for one item.
func (s *Service) ItemStats(ctx context.Context, id string) (types.ItemStats, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return types.ItemStats{}, err
	}

	stats := types.ItemStats{
		ItemID:           item.ID,
		Title:            item.Title,
		Rating:           item.Rating,
		ComparisonCount:  item.ComparisonCount,
		Wins:             item.Wins,
		Losses:           item.Losses,
		SkipCount:        item.SkipCount,
		FamiliarityScore: item.FamiliarityScore,
		RatingConfidence: item.RatingConfidence,
	}
	if !item.LastComparedAt.IsZero() {
		stats.LastComparedAt = item.LastComparedAt.UTC().Format(time.RFC3339)
	}
	return stats, nil
}

// Rank returns the leaderboard position for one item.
func (s *Service) Rank(ctx context.Context, id string) (types.Entry, error) {
	entry, err := s.store.Rank(ctx, id)
	if err != nil {
		return types.Entry{}, err
	}

	return types.Entry{
		Rank:            entry.Rank,
		ItemID:          entry.ItemID,
		Title:           entry.Title,
		Rating:          entry.Rating,
		ComparisonCount: entry.ComparisonCount,
	}, nil
}

// RecentComparisons returns a session's most recent judgments, newest first.
func (s *Service) RecentComparisons(ctx context.Context, sessionID string, n int) ([]model.Comparison, error) {
	return s.store.RecentComparisons(ctx, sessionID, n)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.rescoreQueue.Len(ctx)
		totalItems := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalItems"] = totalItems

		// Update metrics
		metrics.UpdateRescoreQueueSize(queueLen)
		metrics.UpdateTotalItems(totalItems)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// enqueueRescore schedules derived-score recomputation for an item.
// Loss is tolerable: a dropped job leaves scores briefly stale.
func (s *Service) enqueueRescore(ctx context.Context, itemID, reason string) {
	job := model.RescoreJob{
		ItemID:     itemID,
		Reason:     reason,
		EnqueuedAt: time.Now(),
	}
	if !s.rescoreQueue.Enqueue(ctx, job) {
		s.logger.Warn(ctx, "rescore queue full, job dropped",
			logger.String("itemID", itemID),
			logger.String("reason", reason),
		)
	}
}

// replayedResult answers a duplicate vote with the items' current state.
func (s *Service) replayedResult(ctx context.Context, v model.Vote) (types.VoteResult, error) {
	result := types.VoteResult{Duplicate: true}

	if item1, err := s.store.GetItem(ctx, v.Item1ID); err == nil {
		result.NewRating1 = item1.Rating
	}
	if item2, err := s.store.GetItem(ctx, v.Item2ID); err == nil {
		result.NewRating2 = item2.Rating
	}
	return result, nil
}

func validateVote(v model.Vote) error {
	if v.Item1ID == "" || v.Item2ID == "" {
		return fmt.Errorf("%w: item ids must not be empty", ErrInvalidVote)
	}
	if v.Item1ID == v.Item2ID {
		return fmt.Errorf("%w: items must be distinct", ErrInvalidVote)
	}
	if v.WinnerID != v.Item1ID && v.WinnerID != v.Item2ID {
		return fmt.Errorf("%w: winner must be one of the pair", ErrInvalidVote)
	}
	return nil
}

func toPairItem(i model.Item) types.PairItem {
	return types.PairItem{
		ItemID:   i.ID,
		Title:    i.Title,
		ImageURL: i.ImageURL,
		Rating:   i.Rating,
	}
}
