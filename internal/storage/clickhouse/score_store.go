package clickhouse

import (
	"context"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// ScoreStore implements storage.ScoreStore using ClickHouse.
type ScoreStore struct {
	conn *Conn
}

// NewScoreStore creates a new ScoreStore.
func NewScoreStore(conn *Conn) *ScoreStore {
	return &ScoreStore{conn: conn}
}

// Compile-time interface check.
var _ storage.ScoreStore = (*ScoreStore)(nil)

const scoreColumns = `
	token_address, computed_at_ms, safety, hype, combined, verdict, confidence
`

// Append adds a score.
func (s *ScoreStore) Append(ctx context.Context, score *domain.CompositeScore) error {
	if score == nil || score.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO composite_scores (` + scoreColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		score.TokenAddress,
		uint64(score.ComputedAt.UnixMilli()),
		score.Safety,
		score.Hype,
		score.Combined,
		string(score.Verdict),
		score.Confidence,
	)
	if err != nil {
		return fmt.Errorf("insert score: %w", err)
	}
	return nil
}

// Latest retrieves the most recent score for a token.
func (s *ScoreStore) Latest(ctx context.Context, address string) (*domain.CompositeScore, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM composite_scores
		WHERE token_address = ?
		ORDER BY computed_at_ms DESC
		LIMIT 1
	`

	rows, err := s.conn.Query(ctx, query, address)
	if err != nil {
		return nil, fmt.Errorf("query latest score: %w", err)
	}
	defer rows.Close()

	scores, err := scanScores(rows)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return nil, storage.ErrNotFound
	}
	return scores[0], nil
}

// GetByTimeRange retrieves scores within [start, end], ordered by time ASC.
func (s *ScoreStore) GetByTimeRange(ctx context.Context, address string, start, end time.Time) ([]*domain.CompositeScore, error) {
	query := `
		SELECT ` + scoreColumns + `
		FROM composite_scores
		WHERE token_address = ? AND computed_at_ms >= ? AND computed_at_ms <= ?
		ORDER BY computed_at_ms ASC
	`

	rows, err := s.conn.Query(ctx, query, address, uint64(start.UnixMilli()), uint64(end.UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("query scores by time range: %w", err)
	}
	defer rows.Close()

	return scanScores(rows)
}

// scanScores scans multiple rows.
func scanScores(rows chRows) ([]*domain.CompositeScore, error) {
	var scores []*domain.CompositeScore

	for rows.Next() {
		var score domain.CompositeScore
		var computedAtMs uint64
		var verdict string

		err := rows.Scan(
			&score.TokenAddress,
			&computedAtMs,
			&score.Safety,
			&score.Hype,
			&score.Combined,
			&verdict,
			&score.Confidence,
		)
		if err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}

		score.ComputedAt = time.UnixMilli(int64(computedAtMs)).UTC()
		score.Verdict = domain.Verdict(verdict)
		scores = append(scores, &score)
	}

	return scores, rows.Err()
}
