// Package scan watches configured sources for token mentions and feeds
// newly discovered addresses to the monitor.
package scan

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
)

// Scanner pulls new items from one kind of source. Implementations return
// only items the source has not reported before where the upstream allows
// it; the manager deduplicates the rest.
type Scanner interface {
	Type() domain.SourceType
	Scan(ctx context.Context, src *domain.MonitoredSource) ([]domain.Mention, error)
}

// Registry dispatches sources to the scanner for their type.
type Registry struct {
	scanners map[domain.SourceType]Scanner
}

func NewRegistry(scanners ...Scanner) *Registry {
	r := &Registry{scanners: make(map[domain.SourceType]Scanner, len(scanners))}
	for _, s := range scanners {
		r.scanners[s.Type()] = s
	}
	return r
}

// Register adds or replaces the scanner for its source type.
func (r *Registry) Register(s Scanner) {
	r.scanners[s.Type()] = s
}

// For returns the scanner handling the given source type.
func (r *Registry) For(t domain.SourceType) (Scanner, error) {
	s, ok := r.scanners[t]
	if !ok {
		return nil, fmt.Errorf("no scanner registered for source type %q", t)
	}
	return s, nil
}
