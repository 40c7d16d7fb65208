package scan

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/provider"
)

// DexScanner turns launchpad listings into mentions. The mention text
// carries the token address so the usual extraction path picks it up.
type DexScanner struct {
	launches provider.LaunchProvider
	limit    int
}

func NewDexScanner(launches provider.LaunchProvider) *DexScanner {
	return &DexScanner{launches: launches, limit: 50}
}

func (s *DexScanner) Type() domain.SourceType { return domain.SourceDex }

func (s *DexScanner) Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error) {
	launches, err := s.launches.RecentLaunches(ctx, s.limit)
	if err != nil {
		return nil, fmt.Errorf("fetch launches: %w", err)
	}

	mentions := make([]domain.Mention, 0, len(launches))
	for _, l := range launches {
		mentions = append(mentions, domain.Mention{
			SourceID:   src.ID,
			SourceType: domain.SourceDex,
			ItemID:     l.Address,
			Text:       fmt.Sprintf("New launch: %s (%s) %s", l.Name, l.Symbol, l.Address),
			SeenAt:     l.CreatedAt,
		})
	}
	return mentions, nil
}
