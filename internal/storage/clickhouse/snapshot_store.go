package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
// Snapshots are an append-only time series; MergeTree ordering keeps
// per-token reads cheap.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `
	token_address, captured_at_ms, price, market_cap, volume_24h, liquidity,
	holder_count, buy_count_24h, sell_count_24h, price_change_24h, fields, providers, stale
`

// Append adds a snapshot.
func (s *SnapshotStore) Append(ctx context.Context, snap *domain.MarketSnapshot) error {
	if snap == nil || snap.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO market_snapshots (` + snapshotColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		snap.TokenAddress,
		uint64(snap.CapturedAt.UnixMilli()),
		snap.Price,
		snap.MarketCap,
		snap.Volume24h,
		snap.Liquidity,
		uint64(snap.HolderCount),
		uint64(snap.BuyCount24h),
		uint64(snap.SellCount24h),
		snap.PriceChange24h,
		uint16(snap.Fields),
		snap.Providers,
		snap.Stale,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest retrieves the most recent snapshot for a token.
func (s *SnapshotStore) Latest(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	snaps, err := s.latestN(ctx, address, 1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps[0], nil
}

// LatestTwo retrieves the two most recent snapshots, newest first.
func (s *SnapshotStore) LatestTwo(ctx context.Context, address string) ([]*domain.MarketSnapshot, error) {
	snaps, err := s.latestN(ctx, address, 2)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, storage.ErrNotFound
	}
	return snaps, nil
}

func (s *SnapshotStore) latestN(ctx context.Context, address string, n int) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM market_snapshots
		WHERE token_address = ?
		ORDER BY captured_at_ms DESC
		LIMIT ?
	`

	rows, err := s.conn.Query(ctx, query, address, uint64(n))
	if err != nil {
		return nil, fmt.Errorf("query latest snapshots: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// GetByTimeRange retrieves snapshots within [start, end], ordered by time ASC.
func (s *SnapshotStore) GetByTimeRange(ctx context.Context, address string, start, end time.Time) ([]*domain.MarketSnapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM market_snapshots
		WHERE token_address = ? AND captured_at_ms >= ? AND captured_at_ms <= ?
		ORDER BY captured_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, address, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query snapshots by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// scanSnapshots scans multiple rows.
func scanSnapshots(rows chRows) ([]*domain.MarketSnapshot, error) {
	var snaps []*domain.MarketSnapshot

	for rows.Next() {
		var snap domain.MarketSnapshot
		var capturedAtMs, holderCount, buyCount, sellCount uint64
		var fields uint16

		err := rows.Scan(
			&snap.TokenAddress,
			&capturedAtMs,
			&snap.Price,
			&snap.MarketCap,
			&snap.Volume24h,
			&snap.Liquidity,
			&holderCount,
			&buyCount,
			&sellCount,
			&snap.PriceChange24h,
			&fields,
			&snap.Providers,
			&snap.Stale,
		)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}

		snap.CapturedAt = time.UnixMilli(int64(capturedAtMs)).UTC()
		snap.HolderCount = int64(holderCount)
		snap.BuyCount24h = int64(buyCount)
		snap.SellCount24h = int64(sellCount)
		snap.Fields = domain.FieldMask(fields)
		snaps = append(snaps, &snap)
	}

	return snaps, rows.Err()
}
