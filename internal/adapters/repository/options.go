package repository

// Option applies a configuration option to the HistoryStore.
type Option func(*HistoryStore)

// WithCapacity bounds the number of summaries kept. The oldest summary is
// dropped when the bound is reached.
func WithCapacity(capacity int) Option {
	return func(s *HistoryStore) {
		if capacity > 0 {
			s.capacity = capacity
		}
	}
}
