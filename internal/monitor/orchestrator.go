// Package monitor tracks accepted tokens: periodic refresh, scoring,
// alerting, and broadcasting.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"solana-token-radar/internal/aggregate"
	"solana-token-radar/internal/alert"
	"solana-token-radar/internal/broadcast"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/provider"
	"solana-token-radar/internal/risk"
	"solana-token-radar/internal/score"
	"solana-token-radar/internal/storage"
	"solana-token-radar/internal/trend"
)

// Significant movement bounds for analytics delta events.
const (
	significantPricePct  = 5
	significantVolumePct = 20
)

// Options tunes the refresh loop.
type Options struct {
	RefreshInterval time.Duration
	MaxConcurrent   int           // bound on parallel token refreshes
	StaleRetention  time.Duration // how long a token may stay stale before untracking
}

func (o *Options) withDefaults() {
	if o.RefreshInterval <= 0 {
		o.RefreshInterval = time.Minute
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 8
	}
	if o.StaleRetention <= 0 {
		o.StaleRetention = time.Hour
	}
}

// TokenState is the monitor's retained view of one tracked token.
type TokenState struct {
	Token      *domain.Token
	Snapshot   *domain.MarketSnapshot
	Score      *domain.CompositeScore
	StaleSince time.Time
}

// clone copies the state so it can leave the orchestrator's lock. The
// refresh loop mutates retained state in place; anything handed to the hub
// or a caller must be a copy.
func (s *TokenState) clone() *TokenState {
	out := &TokenState{StaleSince: s.StaleSince}
	if s.Token != nil {
		token := *s.Token
		out.Token = &token
	}
	if s.Snapshot != nil {
		snap := *s.Snapshot
		snap.Providers = append([]string(nil), s.Snapshot.Providers...)
		out.Snapshot = &snap
	}
	if s.Score != nil {
		score := *s.Score
		out.Score = &score
	}
	return out
}

// Orchestrator owns the set of tracked tokens. Candidates pass the gate
// once; tracked tokens are refreshed on the interval with bounded
// concurrency, and each refresh flows through trend, risk, scoring,
// alerting, and broadcast.
type Orchestrator struct {
	agg      risk.MarketSource
	security provider.SecurityProvider
	risk     *risk.Engine
	trend    *trend.Engine
	scorer   *score.Scorer
	alerts   *alert.Engine
	hub      *broadcast.Hub

	tokens    storage.TokenStore
	snapshots storage.SnapshotStore
	scores    storage.ScoreStore

	policy GatePolicy
	opts   Options
	log    zerolog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	tracked map[string]*TokenState
}

func NewOrchestrator(
	agg risk.MarketSource,
	security provider.SecurityProvider,
	riskEngine *risk.Engine,
	trendEngine *trend.Engine,
	scorer *score.Scorer,
	alertEngine *alert.Engine,
	hub *broadcast.Hub,
	tokens storage.TokenStore,
	snapshots storage.SnapshotStore,
	scores storage.ScoreStore,
	policy GatePolicy,
	opts Options,
	log zerolog.Logger,
) *Orchestrator {
	opts.withDefaults()
	o := &Orchestrator{
		agg:       agg,
		security:  security,
		risk:      riskEngine,
		trend:     trendEngine,
		scorer:    scorer,
		alerts:    alertEngine,
		hub:       hub,
		tokens:    tokens,
		snapshots: snapshots,
		scores:    scores,
		policy:    policy,
		opts:      opts,
		log:       log.With().Str("component", "monitor").Logger(),
		now:       time.Now,
		tracked:   make(map[string]*TokenState),
	}
	hub.RegisterState(broadcast.TopicTokenUpdates, o.stateSnapshot)
	return o
}

// Track validates a candidate and, on pass, starts monitoring it. The
// returned reasons are non-empty when the gate rejected the token.
// Overrides loosen or tighten the gate for this candidate only.
func (o *Orchestrator) Track(ctx context.Context, address string, overrides ...GateOverride) ([]string, error) {
	if err := domain.ValidateAddress(address); err != nil {
		return []string{fmt.Sprintf("invalid address: %v", err)}, nil
	}

	o.mu.RLock()
	_, already := o.tracked[address]
	o.mu.RUnlock()
	if already {
		return nil, nil
	}

	snap, err := o.agg.Snapshot(ctx, address)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoData) {
			return []string{"no market data from any provider"}, nil
		}
		return nil, fmt.Errorf("aggregate snapshot: %w", err)
	}

	policy := o.policy
	for _, override := range overrides {
		override(&policy)
	}

	reasons, err := gate(ctx, policy, snap, o.security, address)
	if err != nil {
		return nil, err
	}
	if len(reasons) > 0 {
		observability.RecordCandidateGated("rejected")
		o.log.Info().Str("token", address).Strs("reasons", reasons).Msg("candidate rejected")
		return reasons, nil
	}
	observability.RecordCandidateGated("passed")

	token := &domain.Token{
		Address:     address,
		FirstSeenAt: o.now().UTC(),
		UpdatedAt:   o.now().UTC(),
		Active:      true,
	}
	if err := o.tokens.Insert(ctx, token); err != nil {
		if !errors.Is(err, storage.ErrDuplicateKey) {
			return nil, fmt.Errorf("insert token: %w", err)
		}
		existing, getErr := o.tokens.GetByAddress(ctx, address)
		if getErr != nil {
			return nil, fmt.Errorf("load existing token: %w", getErr)
		}
		existing.Active = true
		existing.UpdatedAt = o.now().UTC()
		if err := o.tokens.Update(ctx, existing); err != nil {
			return nil, fmt.Errorf("reactivate token: %w", err)
		}
		token = existing
	}

	if err := o.snapshots.Append(ctx, snap); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}

	composite, err := o.computeScore(ctx, address, nil, snap)
	if err != nil {
		return nil, err
	}

	state := &TokenState{Token: token, Snapshot: snap, Score: composite}
	o.mu.Lock()
	o.tracked[address] = state
	count := len(o.tracked)
	o.mu.Unlock()
	observability.SetTrackedTokens(count)

	o.hub.Publish(broadcast.TopicTokenUpdates, "tracked", state.clone())
	o.log.Info().Str("token", address).Float64("score", composite.Combined).Msg("token tracked")
	return nil, nil
}

// Untrack stops monitoring a token and marks it inactive.
func (o *Orchestrator) Untrack(ctx context.Context, address string) error {
	o.mu.Lock()
	state, ok := o.tracked[address]
	delete(o.tracked, address)
	count := len(o.tracked)
	o.mu.Unlock()
	if !ok {
		return storage.ErrNotFound
	}
	observability.SetTrackedTokens(count)

	state.Token.Active = false
	state.Token.UpdatedAt = o.now().UTC()
	if err := o.tokens.Update(ctx, state.Token); err != nil {
		return fmt.Errorf("deactivate token: %w", err)
	}
	o.log.Info().Str("token", address).Msg("token untracked")
	return nil
}

// Run refreshes all tracked tokens on the interval until ctx ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	ticker := time.NewTicker(o.opts.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.RefreshAll(ctx)
		}
	}
}

// RefreshAll refreshes every tracked token with bounded concurrency. One
// token failing never affects the others.
func (o *Orchestrator) RefreshAll(ctx context.Context) {
	start := o.now()

	o.mu.RLock()
	addresses := make([]string, 0, len(o.tracked))
	for addr := range o.tracked {
		addresses = append(addresses, addr)
	}
	o.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.MaxConcurrent)
	for _, addr := range addresses {
		addr := addr
		g.Go(func() error {
			if err := o.refreshOne(gctx, addr); err != nil {
				observability.RecordRefreshFailure()
				o.log.Warn().Err(err).Str("token", addr).Msg("refresh failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	observability.RecordRefresh(o.now().Sub(start).Seconds())
}

func (o *Orchestrator) refreshOne(ctx context.Context, address string) error {
	o.mu.RLock()
	state, ok := o.tracked[address]
	var prev *domain.MarketSnapshot
	var prevScore *domain.CompositeScore
	if ok {
		prev = state.Snapshot
		prevScore = state.Score
	}
	o.mu.RUnlock()
	if !ok {
		return nil
	}

	snap, err := o.agg.Snapshot(ctx, address)
	if err != nil {
		if errors.Is(err, aggregate.ErrNoData) {
			return o.markStale(ctx, address, state)
		}
		return err
	}

	if err := o.snapshots.Append(ctx, snap); err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}

	composite, err := o.computeScore(ctx, address, prev, snap)
	if err != nil {
		return err
	}

	fired, err := o.alerts.Evaluate(ctx, address,
		alert.State{Snapshot: prev, Score: prevScore},
		alert.State{Snapshot: snap, Score: composite})
	if err != nil {
		o.log.Error().Err(err).Str("token", address).Msg("alert evaluation")
	}
	for _, a := range fired {
		o.hub.Publish(broadcast.TopicAlerts, "alert", a)
	}

	o.mu.Lock()
	state.Snapshot = snap
	state.Score = composite
	state.StaleSince = time.Time{}
	published := state.clone()
	o.mu.Unlock()

	o.hub.Publish(broadcast.TopicTokenUpdates, "update", published)
	o.publishDelta(address, prev, snap)
	return nil
}

// markStale retains the last known state when every provider failed. The
// retained state is broadcast with the stale marker set but never
// persisted; tokens stale past the retention window are untracked.
func (o *Orchestrator) markStale(ctx context.Context, address string, state *TokenState) error {
	observability.RecordStaleRefresh()

	o.mu.Lock()
	if state.StaleSince.IsZero() {
		state.StaleSince = o.now()
	}
	staleFor := o.now().Sub(state.StaleSince)
	if state.Snapshot != nil && !state.Snapshot.Stale {
		// Replace rather than mutate; earlier published copies share
		// the old snapshot.
		snap := *state.Snapshot
		snap.Stale = true
		state.Snapshot = &snap
	}
	retained := state.clone()
	o.mu.Unlock()

	if staleFor > o.opts.StaleRetention {
		o.log.Warn().Str("token", address).Dur("stale_for", staleFor).Msg("stale past retention, untracking")
		return o.Untrack(ctx, address)
	}

	o.hub.Publish(broadcast.TopicTokenUpdates, "update", retained)
	o.log.Debug().Str("token", address).Dur("stale_for", staleFor).Msg("no data, keeping last state")
	return nil
}

// computeScore runs trend, risk, and the composite scorer, and persists
// the result.
func (o *Orchestrator) computeScore(ctx context.Context, address string, prev, cur *domain.MarketSnapshot) (*domain.CompositeScore, error) {
	signals := o.trend.Signals(ctx, address, prev, cur)
	assessment, err := o.risk.Assess(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("risk assessment: %w", err)
	}
	composite := o.scorer.Compute(assessment, signals, cur)
	if err := o.scores.Append(ctx, composite); err != nil {
		return nil, fmt.Errorf("persist score: %w", err)
	}
	return composite, nil
}

// publishDelta emits an analytics event when the movement since the
// previous snapshot is significant.
func (o *Orchestrator) publishDelta(address string, prev, cur *domain.MarketSnapshot) {
	if prev == nil || cur == nil {
		return
	}

	type delta struct {
		TokenAddress string  `json:"token_address"`
		PricePct     float64 `json:"price_pct"`
		VolumePct    float64 `json:"volume_pct"`
	}
	var d delta
	d.TokenAddress = address
	if prev.Fields.Has(domain.FieldPrice) && cur.Fields.Has(domain.FieldPrice) && prev.Price > 0 {
		d.PricePct = (cur.Price - prev.Price) / prev.Price * 100
	}
	if prev.Fields.Has(domain.FieldVolume24h) && cur.Fields.Has(domain.FieldVolume24h) && prev.Volume24h > 0 {
		d.VolumePct = (cur.Volume24h - prev.Volume24h) / prev.Volume24h * 100
	}

	if abs(d.PricePct) >= significantPricePct || abs(d.VolumePct) >= significantVolumePct {
		o.hub.Publish(broadcast.TopicAnalytics, "delta", d)
	}
}

// Intake is the candidate sink for the scan manager.
func (o *Orchestrator) Intake(ctx context.Context, address string, mention domain.Mention) {
	if _, err := o.Track(ctx, address); err != nil {
		o.log.Error().Err(err).Str("token", address).Msg("candidate intake")
	}
}

// Tracked returns a copy of the current state of every tracked token.
func (o *Orchestrator) Tracked() []*TokenState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]*TokenState, 0, len(o.tracked))
	for _, state := range o.tracked {
		out = append(out, state.clone())
	}
	return out
}

// stateSnapshot feeds the hub's synthetic snapshot for new subscribers.
func (o *Orchestrator) stateSnapshot() any {
	return o.Tracked()
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
