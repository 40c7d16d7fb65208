package postgres

import (
	"context"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ChannelStore implements storage.ChannelStore using PostgreSQL.
type ChannelStore struct {
	pool *Pool
}

// NewChannelStore creates a new ChannelStore.
func NewChannelStore(pool *Pool) *ChannelStore {
	return &ChannelStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ChannelStore = (*ChannelStore)(nil)

// Insert adds a new channel. Returns ErrDuplicateKey if the ID exists.
func (s *ChannelStore) Insert(ctx context.Context, c *domain.Channel) error {
	query := `
		INSERT INTO notification_channels (
			id, type, identifier, active, messages_per_minute, min_priority,
			total_sent, total_failed, last_sent_at, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.pool.Exec(ctx, query,
		c.ID,
		string(c.Type),
		c.Identifier,
		c.Active,
		c.MessagesPerMinute,
		string(c.MinPriority),
		c.TotalSent,
		c.TotalFailed,
		c.LastSentAt,
		c.AddedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert channel: %w", err)
	}
	return nil
}

// GetActive retrieves all active channels.
func (s *ChannelStore) GetActive(ctx context.Context) ([]*domain.Channel, error) {
	query := `
		SELECT id, type, identifier, active, messages_per_minute, min_priority,
		       total_sent, total_failed, last_sent_at, added_at
		FROM notification_channels
		WHERE active
		ORDER BY added_at ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active channels: %w", err)
	}
	defer rows.Close()

	var channels []*domain.Channel
	for rows.Next() {
		var c domain.Channel
		var typ, minPriority string
		err := rows.Scan(
			&c.ID,
			&typ,
			&c.Identifier,
			&c.Active,
			&c.MessagesPerMinute,
			&minPriority,
			&c.TotalSent,
			&c.TotalFailed,
			&c.LastSentAt,
			&c.AddedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		c.Type = domain.ChannelType(typ)
		c.MinPriority = domain.AlertPriority(minPriority)
		channels = append(channels, &c)
	}
	return channels, rows.Err()
}

// RecordDelivery updates delivery stats for a channel.
func (s *ChannelStore) RecordDelivery(ctx context.Context, id string, ok bool, at time.Time) error {
	query := `UPDATE notification_channels SET total_failed = total_failed + 1 WHERE id = $1`
	args := []any{id}
	if ok {
		query = `UPDATE notification_channels SET total_sent = total_sent + 1, last_sent_at = $2 WHERE id = $1`
		args = append(args, at)
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}
