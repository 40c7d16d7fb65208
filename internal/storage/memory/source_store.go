package memory

import (
	"context"
	"sort"
	"sync"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SourceStore is an in-memory implementation of storage.SourceStore.
type SourceStore struct {
	mu   sync.RWMutex
	data map[string]*domain.MonitoredSource // keyed by source ID
}

// NewSourceStore creates a new in-memory source store.
func NewSourceStore() *SourceStore {
	return &SourceStore{
		data: make(map[string]*domain.MonitoredSource),
	}
}

// Compile-time interface check.
var _ storage.SourceStore = (*SourceStore)(nil)

// Insert adds a new source. Returns ErrDuplicateKey if the ID exists,
// ErrInvalidInput if validation fails.
func (s *SourceStore) Insert(_ context.Context, src *domain.MonitoredSource) error {
	if src == nil || src.ID == "" {
		return storage.ErrInvalidInput
	}
	if err := src.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[src.ID]; exists {
		return storage.ErrDuplicateKey
	}

	srcCopy := copySource(src)
	s.data[src.ID] = srcCopy
	return nil
}

// Update overwrites an existing source. Returns ErrNotFound if not exists.
func (s *SourceStore) Update(_ context.Context, src *domain.MonitoredSource) error {
	if src == nil || src.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[src.ID]; !exists {
		return storage.ErrNotFound
	}

	s.data[src.ID] = copySource(src)
	return nil
}

// GetByID retrieves a source. Returns ErrNotFound if not exists.
func (s *SourceStore) GetByID(_ context.Context, id string) (*domain.MonitoredSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copySource(src), nil
}

// GetActive retrieves all active sources, ordered by added time ASC.
func (s *SourceStore) GetActive(_ context.Context) ([]*domain.MonitoredSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.MonitoredSource
	for _, src := range s.data {
		if src.Active {
			result = append(result, copySource(src))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AddedAt.Before(result[j].AddedAt)
	})

	return result, nil
}

// copySource deep-copies a source, including its filter slices.
func copySource(src *domain.MonitoredSource) *domain.MonitoredSource {
	srcCopy := *src
	srcCopy.Keywords = append([]string(nil), src.Keywords...)
	srcCopy.Patterns = append([]string(nil), src.Patterns...)
	return &srcCopy
}
