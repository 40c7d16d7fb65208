package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ScoreStore is an in-memory implementation of storage.ScoreStore.
type ScoreStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.CompositeScore // keyed by token address, time ASC
}

// NewScoreStore creates a new in-memory score store.
func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		data: make(map[string][]*domain.CompositeScore),
	}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

// Append adds a score.
func (s *ScoreStore) Append(_ context.Context, score *domain.CompositeScore) error {
	if score == nil || score.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	scoreCopy := *score
	series := append(s.data[score.TokenAddress], &scoreCopy)
	sort.Slice(series, func(i, j int) bool {
		return series[i].ComputedAt.Before(series[j].ComputedAt)
	})
	s.data[score.TokenAddress] = series
	return nil
}

// Latest retrieves the most recent score for a token.
func (s *ScoreStore) Latest(_ context.Context, address string) (*domain.CompositeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[address]
	if len(series) == 0 {
		return nil, storage.ErrNotFound
	}

	scoreCopy := *series[len(series)-1]
	return &scoreCopy, nil
}

// GetByTimeRange retrieves scores within [start, end], ordered by time ASC.
func (s *ScoreStore) GetByTimeRange(_ context.Context, address string, start, end time.Time) ([]*domain.CompositeScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CompositeScore
	for _, score := range s.data[address] {
		if !score.ComputedAt.Before(start) && !score.ComputedAt.After(end) {
			scoreCopy := *score
			result = append(result, &scoreCopy)
		}
	}
	return result, nil
}
