package postgres

import (
	"context"
	"fmt"

	"solana-token-radar/internal/storage"
)

// MentionStore implements storage.MentionStore using PostgreSQL.
type MentionStore struct {
	pool *Pool
}

// NewMentionStore creates a new MentionStore.
func NewMentionStore(pool *Pool) *MentionStore {
	return &MentionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MentionStore = (*MentionStore)(nil)

// Seen reports whether (sourceID, itemID) has been recorded.
func (s *MentionStore) Seen(ctx context.Context, sourceID, itemID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM seen_mentions WHERE source_id = $1 AND item_id = $2
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, sourceID, itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check mention seen: %w", err)
	}
	return exists, nil
}

// MarkSeen records (sourceID, itemID). Recording twice is not an error.
func (s *MentionStore) MarkSeen(ctx context.Context, sourceID, itemID string) error {
	query := `
		INSERT INTO seen_mentions (source_id, item_id)
		VALUES ($1, $2)
		ON CONFLICT (source_id, item_id) DO NOTHING
	`

	if _, err := s.pool.Exec(ctx, query, sourceID, itemID); err != nil {
		return fmt.Errorf("mark mention seen: %w", err)
	}
	return nil
}
