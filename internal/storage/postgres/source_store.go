package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SourceStore implements storage.SourceStore using PostgreSQL.
// Scan intervals are stored as whole seconds.
type SourceStore struct {
	pool *Pool
}

// NewSourceStore creates a new SourceStore.
func NewSourceStore(pool *Pool) *SourceStore {
	return &SourceStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SourceStore = (*SourceStore)(nil)

// Insert adds a new source. Returns ErrDuplicateKey if the ID exists,
// ErrInvalidInput if validation fails.
func (s *SourceStore) Insert(ctx context.Context, src *domain.MonitoredSource) error {
	if err := src.Validate(); err != nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO monitored_sources (
			id, type, identifier, name, active, weight, scan_interval_seconds,
			keywords, patterns, error_count, last_error, last_scanned_at, last_seen_id, added_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := s.pool.Exec(ctx, query,
		src.ID,
		string(src.Type),
		src.Identifier,
		src.Name,
		src.Active,
		src.Weight,
		int64(src.ScanInterval/time.Second),
		src.Keywords,
		src.Patterns,
		src.ErrorCount,
		src.LastError,
		src.LastScannedAt,
		src.LastSeenID,
		src.AddedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert source: %w", err)
	}
	return nil
}

// Update overwrites an existing source. Returns ErrNotFound if not exists.
func (s *SourceStore) Update(ctx context.Context, src *domain.MonitoredSource) error {
	query := `
		UPDATE monitored_sources
		SET type = $2, identifier = $3, name = $4, active = $5, weight = $6,
		    scan_interval_seconds = $7, keywords = $8, patterns = $9,
		    error_count = $10, last_error = $11, last_scanned_at = $12, last_seen_id = $13
		WHERE id = $1
	`

	tag, err := s.pool.Exec(ctx, query,
		src.ID,
		string(src.Type),
		src.Identifier,
		src.Name,
		src.Active,
		src.Weight,
		int64(src.ScanInterval/time.Second),
		src.Keywords,
		src.Patterns,
		src.ErrorCount,
		src.LastError,
		src.LastScannedAt,
		src.LastSeenID,
	)
	if err != nil {
		return fmt.Errorf("update source: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a source. Returns ErrNotFound if not exists.
func (s *SourceStore) GetByID(ctx context.Context, id string) (*domain.MonitoredSource, error) {
	query := sourceSelect + ` WHERE id = $1`

	row := s.pool.QueryRow(ctx, query, id)
	src, err := scanSource(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get source by id: %w", err)
	}
	return src, nil
}

// GetActive retrieves all active sources, ordered by added time ASC.
func (s *SourceStore) GetActive(ctx context.Context) ([]*domain.MonitoredSource, error) {
	query := sourceSelect + ` WHERE active ORDER BY added_at ASC, id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active sources: %w", err)
	}
	defer rows.Close()

	var sources []*domain.MonitoredSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

const sourceSelect = `
	SELECT id, type, identifier, name, active, weight, scan_interval_seconds,
	       keywords, patterns, error_count, last_error, last_scanned_at, last_seen_id, added_at
	FROM monitored_sources
`

// scanSource scans a single source row.
func scanSource(row pgx.Row) (*domain.MonitoredSource, error) {
	var src domain.MonitoredSource
	var typ string
	var intervalSeconds int64
	err := row.Scan(
		&src.ID,
		&typ,
		&src.Identifier,
		&src.Name,
		&src.Active,
		&src.Weight,
		&intervalSeconds,
		&src.Keywords,
		&src.Patterns,
		&src.ErrorCount,
		&src.LastError,
		&src.LastScannedAt,
		&src.LastSeenID,
		&src.AddedAt,
	)
	if err != nil {
		return nil, err
	}
	src.Type = domain.SourceType(typ)
	src.ScanInterval = time.Duration(intervalSeconds) * time.Second
	return &src, nil
}
