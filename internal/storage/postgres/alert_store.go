package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage"
)

// AlertStore implements storage.AlertStore using PostgreSQL.
type AlertStore struct {
	pool *Pool
}

// NewAlertStore creates a new AlertStore.
func NewAlertStore(pool *Pool) *AlertStore {
	return &AlertStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AlertStore = (*AlertStore)(nil)

// Insert adds a new alert. Returns ErrDuplicateKey if the ID exists.
func (s *AlertStore) Insert(ctx context.Context, a *domain.Alert) error {
	query := `
		INSERT INTO alerts (
			id, token_address, kind, priority, message, value, created_at, delivered
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.pool.Exec(ctx, query,
		a.ID,
		a.TokenAddress,
		string(a.Kind),
		string(a.Priority),
		a.Message,
		a.Value,
		a.CreatedAt,
		a.Delivered,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ExistsSince reports whether an alert of the given kind exists for the
// token at or after since.
func (s *AlertStore) ExistsSince(ctx context.Context, address string, kind domain.AlertKind, since time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM alerts
			WHERE token_address = $1 AND kind = $2 AND created_at >= $3
		)
	`

	var exists bool
	if err := s.pool.QueryRow(ctx, query, address, string(kind), since).Scan(&exists); err != nil {
		return false, fmt.Errorf("check alert exists: %w", err)
	}
	return exists, nil
}

// Recent retrieves the most recent alerts across all tokens, newest first.
func (s *AlertStore) Recent(ctx context.Context, limit int) ([]*domain.Alert, error) {
	query := `
		SELECT id, token_address, kind, priority, message, value, created_at, delivered
		FROM alerts
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`

	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("get recent alerts: %w", err)
	}
	defer rows.Close()

	var alerts []*domain.Alert
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// MarkDelivered flags an alert as delivered. Returns ErrNotFound if not exists.
func (s *AlertStore) MarkDelivered(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE alerts SET delivered = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark alert delivered: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanAlert scans a single alert row.
func scanAlert(row pgx.Row) (*domain.Alert, error) {
	var a domain.Alert
	var kind, priority string
	err := row.Scan(
		&a.ID,
		&a.TokenAddress,
		&kind,
		&priority,
		&a.Message,
		&a.Value,
		&a.CreatedAt,
		&a.Delivered,
	)
	if err != nil {
		return nil, err
	}
	a.Kind = domain.AlertKind(kind)
	a.Priority = domain.AlertPriority(priority)
	return &a, nil
}
