package storage

import (
	"context"
	"time"

	"solana-token-radar/internal/domain"
)

// TokenStore provides access to tracked token storage.
type TokenStore interface {
	// Insert adds a new token. Returns ErrDuplicateKey if the address exists.
	Insert(ctx context.Context, t *domain.Token) error

	// Update overwrites an existing token. Returns ErrNotFound if not exists.
	Update(ctx context.Context, t *domain.Token) error

	// GetByAddress retrieves a token. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.Token, error)

	// GetActive retrieves all active tokens, ordered by first seen ASC.
	GetActive(ctx context.Context) ([]*domain.Token, error)
}

// SnapshotStore provides access to market snapshot time series.
type SnapshotStore interface {
	// Append adds a snapshot. Snapshots are append-only.
	Append(ctx context.Context, s *domain.MarketSnapshot) error

	// Latest retrieves the most recent snapshot for a token.
	// Returns ErrNotFound when none exist.
	Latest(ctx context.Context, address string) (*domain.MarketSnapshot, error)

	// LatestTwo retrieves the two most recent snapshots, newest first.
	// Returns a single-element slice when only one exists.
	LatestTwo(ctx context.Context, address string) ([]*domain.MarketSnapshot, error)

	// GetByTimeRange retrieves snapshots within [start, end], ordered by time ASC.
	GetByTimeRange(ctx context.Context, address string, start, end time.Time) ([]*domain.MarketSnapshot, error)
}

// ScoreStore provides access to composite score time series.
type ScoreStore interface {
	// Append adds a score. Scores are append-only.
	Append(ctx context.Context, s *domain.CompositeScore) error

	// Latest retrieves the most recent score for a token.
	// Returns ErrNotFound when none exist.
	Latest(ctx context.Context, address string) (*domain.CompositeScore, error)

	// GetByTimeRange retrieves scores within [start, end], ordered by time ASC.
	GetByTimeRange(ctx context.Context, address string, start, end time.Time) ([]*domain.CompositeScore, error)
}

// AlertStore provides access to alert storage.
type AlertStore interface {
	// Insert adds a new alert. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, a *domain.Alert) error

	// ExistsSince reports whether an alert of the given kind exists for the
	// token at or after since. Used for cooldown deduplication.
	ExistsSince(ctx context.Context, address string, kind domain.AlertKind, since time.Time) (bool, error)

	// Recent retrieves the most recent alerts across all tokens, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.Alert, error)

	// MarkDelivered flags an alert as delivered. Returns ErrNotFound if not exists.
	MarkDelivered(ctx context.Context, id string) error
}

// SourceStore provides access to monitored source storage.
type SourceStore interface {
	// Insert adds a new source. Returns ErrDuplicateKey if the ID exists,
	// ErrInvalidInput if validation fails.
	Insert(ctx context.Context, s *domain.MonitoredSource) error

	// Update overwrites an existing source. Returns ErrNotFound if not exists.
	Update(ctx context.Context, s *domain.MonitoredSource) error

	// GetByID retrieves a source. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id string) (*domain.MonitoredSource, error)

	// GetActive retrieves all active sources, ordered by added time ASC.
	GetActive(ctx context.Context) ([]*domain.MonitoredSource, error)
}

// MentionStore tracks which source items have already been processed.
type MentionStore interface {
	// Seen reports whether (sourceID, itemID) has been recorded.
	Seen(ctx context.Context, sourceID, itemID string) (bool, error)

	// MarkSeen records (sourceID, itemID). Recording twice is not an error.
	MarkSeen(ctx context.Context, sourceID, itemID string) error
}

// ChannelStore provides access to notification channel storage.
type ChannelStore interface {
	// Insert adds a new channel. Returns ErrDuplicateKey if the ID exists.
	Insert(ctx context.Context, c *domain.Channel) error

	// GetActive retrieves all active channels.
	GetActive(ctx context.Context) ([]*domain.Channel, error)

	// RecordDelivery updates delivery stats for a channel.
	// Returns ErrNotFound if not exists.
	RecordDelivery(ctx context.Context, id string, ok bool, at time.Time) error
}
