package domain

import "time"

// Token represents a tracked token.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	Address     string // PRIMARY KEY, base58 mint address
	Name        string
	Symbol      string
	Source      string // identifier of the source that first mentioned it
	FirstSeenAt time.Time
	UpdatedAt   time.Time
	Active      bool
}
