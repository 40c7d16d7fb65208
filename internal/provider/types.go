package provider

import (
	"context"
	"time"

	"solana-token-radar/internal/domain"
)

// MarketProvider returns market fields for a token. Implementations set
// the snapshot's field mask for exactly the fields the upstream reported.
type MarketProvider interface {
	Name() string
	TokenMarket(ctx context.Context, address string) (*domain.MarketSnapshot, error)
}

// SecurityProvider returns contract-level security facts for a token.
type SecurityProvider interface {
	Name() string
	TokenSecurity(ctx context.Context, address string) (*domain.SecurityReport, error)
}

// SocialProvider returns mention and sentiment stats for a token.
type SocialProvider interface {
	TokenSocial(ctx context.Context, address string) (*domain.SocialStats, error)
}

// WhaleProvider returns large-transfer activity for a token.
type WhaleProvider interface {
	TokenWhales(ctx context.Context, address string) (*domain.WhaleStats, error)
}

// Launch is a token listing from a launchpad feed.
type Launch struct {
	Address   string
	Name      string
	Symbol    string
	CreatedAt time.Time
}

// LaunchProvider lists recently created tokens.
type LaunchProvider interface {
	RecentLaunches(ctx context.Context, limit int) ([]Launch, error)
}
