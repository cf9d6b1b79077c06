package selection

import (
	"context"
	"errors"

	"github.com/okian/duelo/internal/adapters/repository"
)

// sessionRecency maps item ids and similarity groups to how many
// comparisons ago the session last saw them (1 = most recent). It is
// rebuilt per selection request from the bounded comparison history and
// never persisted.
type sessionRecency struct {
	items  map[string]int
	groups map[string]int
}

// itemAgo returns how many comparisons ago the item was seen, 0 if never.
func (r *sessionRecency) itemAgo(id string) int {
	if r == nil {
		return 0
	}
	return r.items[id]
}

// groupAgo returns how many comparisons ago the group was seen, 0 if never.
func (r *sessionRecency) groupAgo(group string) int {
	if r == nil {
		return 0
	}
	return r.groups[group]
}

// sessionRecency builds the recency map for a session. An empty session id
// yields a nil map, which disables all dampening.
func (e *Engine) sessionRecency(ctx context.Context, sessionID string) (*sessionRecency, error) {
	if sessionID == "" {
		return nil, nil
	}

	history, err := e.pool.RecentComparisons(ctx, sessionID, e.recencyLookback)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	r := &sessionRecency{
		items:  make(map[string]int, 2*len(history)),
		groups: make(map[string]int),
	}

	// History arrives newest first; index i means i+1 comparisons ago.
	// Only the most recent sighting of an item or group matters.
	titles := make(map[string]string)
	for i, c := range history {
		ago := i + 1
		for _, id := range []string{c.Item1ID, c.Item2ID} {
			if _, seen := r.items[id]; seen {
				continue
			}
			r.items[id] = ago

			title, err := e.itemTitle(ctx, id, titles)
			if err != nil {
				return nil, err
			}
			if group, ok := e.classify(title); ok {
				if _, seen := r.groups[group]; !seen {
					r.groups[group] = ago
				}
			}
		}
	}
	return r, nil
}

// itemTitle resolves an item's title with per-request memoization.
// Items deleted administratively since the comparison are skipped.
func (e *Engine) itemTitle(ctx context.Context, id string, cache map[string]string) (string, error) {
	if title, ok := cache[id]; ok {
		return title, nil
	}
	item, err := e.pool.GetItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		cache[id] = ""
		return "", nil
	}
	if err != nil {
		return "", err
	}
	cache[id] = item.Title
	return item.Title, nil
}
