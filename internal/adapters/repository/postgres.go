package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/okian/duelo/internal/domain/model"
	"github.com/okian/duelo/pkg/metrics"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL. Counter increments are
// applied server-side (`wins = wins + 1`) inside one transaction, so
// concurrent votes on the same item cannot lose updates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the items and comparisons tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS items (
	id                TEXT PRIMARY KEY,
	title             TEXT NOT NULL,
	image_url         TEXT NOT NULL DEFAULT '',
	rating            DOUBLE PRECISION NOT NULL DEFAULT 1500,
	comparison_count  INTEGER NOT NULL DEFAULT 0,
	wins              INTEGER NOT NULL DEFAULT 0,
	losses            INTEGER NOT NULL DEFAULT 0,
	skip_count        INTEGER NOT NULL DEFAULT 0,
	familiarity_score DOUBLE PRECISION NOT NULL DEFAULT 0,
	rating_confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	last_compared_at  TIMESTAMPTZ,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE UNIQUE INDEX IF NOT EXISTS items_title_ci ON items (lower(title));
CREATE INDEX IF NOT EXISTS items_rating_idx ON items (rating DESC, id ASC);

CREATE TABLE IF NOT EXISTS comparisons (
	id                TEXT PRIMARY KEY,
	item1_id          TEXT NOT NULL REFERENCES items(id),
	item2_id          TEXT NOT NULL REFERENCES items(id),
	winner_id         TEXT,
	rating_difference DOUBLE PRECISION NOT NULL DEFAULT 0,
	was_upset         BOOLEAN NOT NULL DEFAULT FALSE,
	session_id        TEXT NOT NULL DEFAULT '',
	skipped           BOOLEAN NOT NULL DEFAULT FALSE,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS comparisons_session_idx ON comparisons (session_id, created_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreateItem inserts a new item; duplicate titles surface as ErrDuplicateTitle.
func (s *PostgresStore) CreateItem(ctx context.Context, item model.Item) error {
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, title, image_url, rating, comparison_count, wins, losses,
			skip_count, familiarity_score, rating_confidence, last_compared_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, strings.TrimSpace(item.Title), item.ImageURL, item.Rating,
		item.ComparisonCount, item.Wins, item.Losses, item.SkipCount,
		item.FamiliarityScore, item.RatingConfidence, nullableTime(item.LastComparedAt), createdAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateTitle
		}
		return fmt.Errorf("create item: %w", err)
	}
	return nil
}

// GetItem returns an item by id.
func (s *PostgresStore) GetItem(ctx context.Context, id string) (model.Item, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, image_url, rating, comparison_count, wins, losses,
			skip_count, familiarity_score, rating_confidence, last_compared_at, created_at
		FROM items WHERE id = $1`, id)
	return scanItem(row)
}

// EligibleItems samples up to limit items that carry an image reference.
func (s *PostgresStore) EligibleItems(ctx context.Context, limit int) ([]model.Item, error) {
	if limit <= 0 {
		return nil, nil
	}
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, image_url, rating, comparison_count, wins, losses,
			skip_count, familiarity_score, rating_confidence, last_compared_at, created_at
		FROM items WHERE image_url <> '' ORDER BY random() LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("eligible items: %w", err)
	}
	defer rows.Close()

	var out []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("eligible items: %w", err)
	}
	metrics.RecordStoreQueryLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return out, nil
}

// ApplyVote applies one vote's increments and new ratings in a transaction.
func (s *PostgresStore) ApplyVote(ctx context.Context, delta VoteDelta) error {
	start := time.Now()
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin vote tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := applySide(ctx, tx, delta.WinnerID, delta.NewWinnerRating, true, delta.ComparedAt); err != nil {
		return err
	}
	if err := applySide(ctx, tx, delta.LoserID, delta.NewLoserRating, false, delta.ComparedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit vote tx: %w", err)
	}
	metrics.RecordStoreUpdateLatency(float64(time.Since(start).Nanoseconds()) / 1e6)
	return nil
}

func applySide(ctx context.Context, tx *sql.Tx, id string, newRating float64, won bool, at time.Time) error {
	winInc, lossInc := 0, 1
	if won {
		winInc, lossInc = 1, 0
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE items SET
			rating = $2,
			comparison_count = comparison_count + 1,
			wins = wins + $3,
			losses = losses + $4,
			last_compared_at = $5
		WHERE id = $1`,
		id, newRating, winInc, lossInc, at)
	if err != nil {
		return fmt.Errorf("apply vote side: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplySkip increments skip counters for both items in one statement.
func (s *PostgresStore) ApplySkip(ctx context.Context, item1ID, item2ID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET skip_count = skip_count + 1 WHERE id = ANY($1)`,
		pq.Array([]string{item1ID, item2ID}))
	if err != nil {
		return fmt.Errorf("apply skip: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n < 2 {
		return ErrNotFound
	}
	return nil
}

// UpdateScores persists recomputed derived scores for an item.
func (s *PostgresStore) UpdateScores(ctx context.Context, id string, familiarity, confidence float64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE items SET familiarity_score = $2, rating_confidence = $3 WHERE id = $1`,
		id, familiarity, confidence)
	if err != nil {
		return fmt.Errorf("update scores: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordComparison appends an immutable comparison row.
func (s *PostgresStore) RecordComparison(ctx context.Context, c model.Comparison) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comparisons (id, item1_id, item2_id, winner_id, rating_difference,
			was_upset, session_id, skipped, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)`,
		c.ID, c.Item1ID, c.Item2ID, c.WinnerID, c.RatingDifference,
		c.WasUpset, c.SessionID, c.Skipped, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("record comparison: %w", err)
	}
	return nil
}

// RecentComparisons runs the bounded, index-backed session history query.
func (s *PostgresStore) RecentComparisons(ctx context.Context, sessionID string, limit int) ([]model.Comparison, error) {
	if sessionID == "" || limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, item1_id, item2_id, COALESCE(winner_id, ''), rating_difference,
			was_upset, session_id, skipped, created_at
		FROM comparisons WHERE session_id = $1
		ORDER BY created_at DESC LIMIT $2`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent comparisons: %w", err)
	}
	defer rows.Close()

	var out []model.Comparison
	for rows.Next() {
		var c model.Comparison
		if err := rows.Scan(&c.ID, &c.Item1ID, &c.Item2ID, &c.WinnerID, &c.RatingDifference,
			&c.WasUpset, &c.SessionID, &c.Skipped, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comparison: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent comparisons: %w", err)
	}
	return out, nil
}

// Rank computes the leaderboard position with a counting query.
func (s *PostgresStore) Rank(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT r.rank, r.id, r.title, r.rating, r.comparison_count FROM (
			SELECT id, title, rating, comparison_count,
				RANK() OVER (ORDER BY rating DESC, id ASC) AS rank
			FROM items
		) r WHERE r.id = $1`, id)

	var e Entry
	if err := row.Scan(&e.Rank, &e.ItemID, &e.Title, &e.Rating, &e.ComparisonCount); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("rank: %w", err)
	}
	return e, nil
}

// TopN returns the top-N entries ordered by rating desc.
func (s *PostgresStore) TopN(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, ErrInvalidLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, rating, comparison_count
		FROM items ORDER BY rating DESC, id ASC LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("top n: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ItemID, &e.Title, &e.Rating, &e.ComparisonCount); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Rank = len(out) + 1
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("top n: %w", err)
	}
	return out, nil
}

// Count returns the number of items tracked.
func (s *PostgresStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&n); err != nil {
		return 0
	}
	return n
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var item model.Item
	var lastCompared sql.NullTime
	err := row.Scan(&item.ID, &item.Title, &item.ImageURL, &item.Rating,
		&item.ComparisonCount, &item.Wins, &item.Losses, &item.SkipCount,
		&item.FamiliarityScore, &item.RatingConfidence, &lastCompared, &item.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Item{}, ErrNotFound
		}
		return model.Item{}, fmt.Errorf("scan item: %w", err)
	}
	if lastCompared.Valid {
		item.LastComparedAt = lastCompared.Time
	}
	return item, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}
