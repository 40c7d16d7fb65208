package scan

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/storage"
)

// deactivateThreshold is how many consecutive failed scans a source gets
// before it is switched off.
const deactivateThreshold = 10

// CandidateSink receives newly discovered token addresses.
type CandidateSink func(ctx context.Context, address string, mention domain.Mention)

// Manager runs every active source on its own interval, bookkeeps scan
// errors, and routes discovered addresses to the sink.
type Manager struct {
	registry *Registry
	filter   *Filter
	tally    *MentionTally
	sources  storage.SourceStore
	seen     storage.MentionStore
	sink     CandidateSink
	log      zerolog.Logger
	now      func() time.Time
}

func NewManager(registry *Registry, tally *MentionTally, sources storage.SourceStore, seen storage.MentionStore, sink CandidateSink, log zerolog.Logger) *Manager {
	return &Manager{
		registry: registry,
		filter:   NewFilter(),
		tally:    tally,
		sources:  sources,
		seen:     seen,
		sink:     sink,
		log:      log.With().Str("component", "scan").Logger(),
		now:      time.Now,
	}
}

// Run scans each active source on its interval until ctx is done.
func (m *Manager) Run(ctx context.Context) error {
	active, err := m.sources.GetActive(ctx)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for _, src := range active {
		wg.Add(1)
		go func(src *domain.MonitoredSource) {
			defer wg.Done()
			m.watch(ctx, src)
		}(src)
	}
	wg.Wait()
	return ctx.Err()
}

// watch loops one source until it is deactivated or ctx ends.
func (m *Manager) watch(ctx context.Context, src *domain.MonitoredSource) {
	interval := src.ScanInterval
	if interval < domain.MinScanInterval {
		interval = domain.MinScanInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !m.ScanSource(ctx, src) {
				return
			}
		}
	}
}

// ScanSource runs one scan cycle for a source and persists its updated
// bookkeeping. It reports whether the source is still active.
func (m *Manager) ScanSource(ctx context.Context, src *domain.MonitoredSource) bool {
	scanner, err := m.registry.For(src.Type)
	if err != nil {
		// A missing scanner is a configuration problem, not a flaky
		// source; surface it without burning the error budget.
		m.log.Error().Err(err).Str("source", src.Name).Str("type", string(src.Type)).Msg("no scanner registered for source type")
		return src.Active
	}

	mentions, err := scanner.Scan(ctx, src)
	observability.RecordScan(string(src.Type), len(mentions), err)
	if err != nil {
		m.log.Warn().Err(err).Str("source", src.Name).Msg("scan failed")
		m.recordFailure(ctx, src, err)
		return src.Active
	}

	src.ErrorCount = 0
	src.LastError = ""
	src.LastScannedAt = m.now().UTC()
	if err := m.sources.Update(ctx, src); err != nil {
		m.log.Error().Err(err).Str("source", src.Name).Msg("persist source state")
	}

	for _, mention := range mentions {
		m.handleMention(ctx, src, mention)
	}
	return true
}

func (m *Manager) handleMention(ctx context.Context, src *domain.MonitoredSource, mention domain.Mention) {
	dup, err := m.seen.Seen(ctx, mention.SourceID, mention.ItemID)
	if err != nil {
		m.log.Error().Err(err).Msg("mention dedup lookup")
		return
	}
	if dup {
		return
	}
	if err := m.seen.MarkSeen(ctx, mention.SourceID, mention.ItemID); err != nil {
		m.log.Error().Err(err).Msg("mark mention seen")
	}

	ok, err := m.filter.Matches(src, mention.Text)
	if err != nil {
		m.log.Warn().Err(err).Str("source", src.Name).Msg("filter error")
		return
	}
	if !ok {
		return
	}

	addresses := ExtractAddresses(mention.Text)
	if len(addresses) == 0 {
		return
	}
	m.tally.Record(mention, addresses)
	for _, addr := range addresses {
		m.log.Info().Str("token", addr).Str("source", src.Name).Msg("token mention")
		if m.sink != nil {
			m.sink(ctx, addr, mention)
		}
	}
}

// recordFailure bumps the error count and deactivates the source once it
// crosses the threshold.
func (m *Manager) recordFailure(ctx context.Context, src *domain.MonitoredSource, scanErr error) {
	src.ErrorCount++
	src.LastError = scanErr.Error()
	if src.ErrorCount >= deactivateThreshold {
		src.Active = false
		observability.RecordSourceDeactivated()
		m.log.Warn().Str("source", src.Name).Int("errors", src.ErrorCount).Msg("source deactivated")
	}
	if err := m.sources.Update(ctx, src); err != nil {
		m.log.Error().Err(err).Str("source", src.Name).Msg("persist source state")
	}
}
