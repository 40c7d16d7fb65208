package memory

import (
	"context"
	"sync"

	"solana-token-radar/internal/storage"
)

// MentionStore is an in-memory implementation of storage.MentionStore.
type MentionStore struct {
	mu   sync.RWMutex
	seen map[string]struct{} // keyed by sourceID + "\x00" + itemID
}

// NewMentionStore creates a new in-memory mention store.
func NewMentionStore() *MentionStore {
	return &MentionStore{
		seen: make(map[string]struct{}),
	}
}

// Compile-time interface check.
var _ storage.MentionStore = (*MentionStore)(nil)

// Seen reports whether (sourceID, itemID) has been recorded.
func (s *MentionStore) Seen(_ context.Context, sourceID, itemID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.seen[sourceID+"\x00"+itemID]
	return ok, nil
}

// MarkSeen records (sourceID, itemID).
func (s *MentionStore) MarkSeen(_ context.Context, sourceID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[sourceID+"\x00"+itemID] = struct{}{}
	return nil
}
