package repository

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/okian/posturai/internal/domain/model"
	"github.com/okian/posturai/pkg/metrics"
)

const (
	defaultCapacity = 1000
	scoreWindow     = 10
	trendWindow     = 5
)

// HistoryStore is a bounded, in-memory Store. Summaries are kept in
// insertion order; once full the oldest is evicted.
type HistoryStore struct {
	mu       sync.RWMutex
	capacity int
	order    []model.SessionSummary // oldest first
	byID     map[string]int         // id -> index in order, rebuilt on eviction
	tally    map[model.ViolationType]int
}

// NewHistoryStore creates an empty store.
func NewHistoryStore(opts ...Option) *HistoryStore {
	s := &HistoryStore{
		capacity: defaultCapacity,
		byID:     make(map[string]int),
		tally:    make(map[model.ViolationType]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *HistoryStore) Append(_ context.Context, sum model.SessionSummary) error { //nolint:gocritic // hugeParam
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[sum.ID]; ok {
		metrics.RecordErrorByComponent("repository", "duplicate")
		return fmt.Errorf("%w: %s", ErrDuplicate, sum.ID)
	}
	if len(s.order) >= s.capacity {
		s.order = append(s.order[:0], s.order[1:]...)
		s.reindex()
	}
	s.order = append(s.order, sum)
	s.byID[sum.ID] = len(s.order) - 1
	metrics.UpdateHistoryRetained(len(s.order))
	return nil
}

// reindex must be called with s.mu held.
func (s *HistoryStore) reindex() {
	clear(s.byID)
	for i, sum := range s.order {
		s.byID[sum.ID] = i
	}
}

func (s *HistoryStore) Get(_ context.Context, id string) (model.SessionSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return model.SessionSummary{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.order[i], nil
}

func (s *HistoryStore) Recent(_ context.Context, n int) ([]model.SessionSummary, error) {
	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n = min(n, len(s.order))
	out := make([]model.SessionSummary, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.order[i])
	}
	return out, nil
}

func (s *HistoryStore) RecordViolation(_ context.Context, t model.ViolationType) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tally[t]++
}

func (s *HistoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *HistoryStore) Insights(_ context.Context) Insights {
	s.mu.RLock()
	defer s.mu.RUnlock()

	in := Insights{
		Sessions:         len(s.order),
		ViolationsByType: make(map[model.ViolationType]int, len(s.tally)),
		SessionsByMode:   make(map[string]int),
	}
	for t, c := range s.tally {
		in.ViolationsByType[t] = c
		in.TotalViolations += c
	}
	for _, sum := range s.order {
		in.SessionsByMode[sum.Mode.String()]++
	}

	n := len(s.order)
	in.AverageAccuracy = roundMean(s.order)
	in.PostureScore = roundMean(s.order[max(0, n-scoreWindow):])

	recent := s.order[max(0, n-trendWindow):]
	older := s.order[max(0, n-2*trendWindow):max(0, n-trendWindow)]
	if n >= 2 && len(older) > 0 {
		in.Trend = int(math.Round(mean(recent) - mean(older)))
	}
	return in
}

func mean(sums []model.SessionSummary) float64 {
	if len(sums) == 0 {
		return 0
	}
	var total int
	for _, s := range sums {
		total += s.Stats.AccuracyPercent
	}
	return float64(total) / float64(len(sums))
}

func roundMean(sums []model.SessionSummary) int {
	return int(math.Round(mean(sums)))
}
