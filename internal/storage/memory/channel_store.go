package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ChannelStore is an in-memory implementation of storage.ChannelStore.
type ChannelStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Channel // keyed by channel ID
}

// NewChannelStore creates a new in-memory channel store.
func NewChannelStore() *ChannelStore {
	return &ChannelStore{
		data: make(map[string]*domain.Channel),
	}
}

// Compile-time interface check.
var _ storage.ChannelStore = (*ChannelStore)(nil)

// Insert adds a new channel. Returns ErrDuplicateKey if the ID exists.
func (s *ChannelStore) Insert(_ context.Context, c *domain.Channel) error {
	if c == nil || c.ID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[c.ID]; exists {
		return storage.ErrDuplicateKey
	}

	channelCopy := *c
	s.data[c.ID] = &channelCopy
	return nil
}

// GetActive retrieves all active channels.
func (s *ChannelStore) GetActive(_ context.Context) ([]*domain.Channel, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Channel
	for _, c := range s.data {
		if c.Active {
			channelCopy := *c
			result = append(result, &channelCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].AddedAt.Before(result[j].AddedAt)
	})

	return result, nil
}

// RecordDelivery updates delivery stats for a channel.
func (s *ChannelStore) RecordDelivery(_ context.Context, id string, ok bool, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}
	if ok {
		c.TotalSent++
		c.LastSentAt = at
	} else {
		c.TotalFailed++
	}
	return nil
}
