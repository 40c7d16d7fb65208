package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.MarketSnapshot // keyed by token address, time ASC
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]*domain.MarketSnapshot),
	}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Append adds a snapshot.
func (s *SnapshotStore) Append(_ context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil || snap.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapCopy := *snap
	series := append(s.data[snap.TokenAddress], &snapCopy)
	sort.Slice(series, func(i, j int) bool {
		return series[i].CapturedAt.Before(series[j].CapturedAt)
	})
	s.data[snap.TokenAddress] = series
	return nil
}

// Latest retrieves the most recent snapshot for a token.
func (s *SnapshotStore) Latest(_ context.Context, address string) (*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[address]
	if len(series) == 0 {
		return nil, storage.ErrNotFound
	}

	snapCopy := *series[len(series)-1]
	return &snapCopy, nil
}

// LatestTwo retrieves the two most recent snapshots, newest first.
func (s *SnapshotStore) LatestTwo(_ context.Context, address string) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.data[address]
	if len(series) == 0 {
		return nil, storage.ErrNotFound
	}

	var result []*domain.MarketSnapshot
	for i := len(series) - 1; i >= 0 && len(result) < 2; i-- {
		snapCopy := *series[i]
		result = append(result, &snapCopy)
	}
	return result, nil
}

// GetByTimeRange retrieves snapshots within [start, end], ordered by time ASC.
func (s *SnapshotStore) GetByTimeRange(_ context.Context, address string, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MarketSnapshot
	for _, snap := range s.data[address] {
		if !snap.CapturedAt.Before(start) && !snap.CapturedAt.After(end) {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}
	return result, nil
}
