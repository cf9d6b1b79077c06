package dedupe

// Option applies a configuration option to the in-memory guard.
type Option func(*inMemoryGuard)

// WithMaxSize sets the maximum number of vote ids kept before the oldest
// are evicted. Non-positive values are ignored.
func WithMaxSize(maxSize int) Option {
	return func(g *inMemoryGuard) {
		if maxSize > 0 {
			g.maxSize = maxSize
		}
	}
}
