package repository

// Option applies a configuration option to the MemoryStore.
type Option func(*MemoryStore)

// WithSessionHistoryLimit bounds how many comparisons are retained per
// session for recency lookups. Non-positive values are ignored.
func WithSessionHistoryLimit(limit int) Option {
	return func(s *MemoryStore) {
		if limit > 0 {
			s.sessionHistoryLimit = limit
		}
	}
}
