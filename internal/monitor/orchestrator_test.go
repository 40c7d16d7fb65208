package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/aggregate"
	"solana-token-radar/internal/alert"
	"solana-token-radar/internal/broadcast"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/risk"
	"solana-token-radar/internal/score"
	"solana-token-radar/internal/storage/memory"
	"solana-token-radar/internal/trend"
)

const testToken = "So11111111111111111111111111111111111111112"

// switchableMarket serves whatever snapshot the test sets, or ErrNoData.
type switchableMarket struct {
	mu     sync.Mutex
	snap   *domain.MarketSnapshot
	noData bool
}

func (m *switchableMarket) set(snap *domain.MarketSnapshot) {
	m.mu.Lock()
	m.snap = snap
	m.noData = false
	m.mu.Unlock()
}

func (m *switchableMarket) fail() {
	m.mu.Lock()
	m.noData = true
	m.mu.Unlock()
}

func (m *switchableMarket) Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.noData {
		return &domain.MarketSnapshot{TokenAddress: address}, aggregate.ErrNoData
	}
	copied := *m.snap
	copied.TokenAddress = address
	return &copied, nil
}

type staticSecurity struct{ report domain.SecurityReport }

func (s *staticSecurity) Name() string { return "static-security" }

func (s *staticSecurity) TokenSecurity(ctx context.Context, address string) (*domain.SecurityReport, error) {
	rep := s.report
	rep.TokenAddress = address
	return &rep, nil
}

type emptyWhales struct{}

func (emptyWhales) TokenWhales(ctx context.Context, address string) (*domain.WhaleStats, error) {
	return &domain.WhaleStats{TokenAddress: address}, nil
}

type emptySocial struct{}

func (emptySocial) TokenSocial(ctx context.Context, address string) (*domain.SocialStats, error) {
	return &domain.SocialStats{TokenAddress: address}, nil
}

func healthySnapshot(price float64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		CapturedAt:     time.Now().UTC(),
		Price:          price,
		Liquidity:      50_000,
		Volume24h:      30_000,
		HolderCount:    200,
		PriceChange24h: 2,
		Fields: domain.FieldMask(0).
			With(domain.FieldPrice).
			With(domain.FieldLiquidity).
			With(domain.FieldVolume24h).
			With(domain.FieldHolderCount).
			With(domain.FieldPriceChange24h),
	}
}

type harness struct {
	orch      *Orchestrator
	market    *switchableMarket
	security  *staticSecurity
	hub       *broadcast.Hub
	tokens    *memory.TokenStore
	snapshots *memory.SnapshotStore
	alerts    *memory.AlertStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zerolog.Nop()
	market := &switchableMarket{}
	market.set(healthySnapshot(1.0))

	security := &staticSecurity{report: domain.SecurityReport{
		LiquidityLockPct: 95,
		TopHolderPct:     0.08,
		Audited:          true,
		AuditPassed:      true,
	}}

	hub := broadcast.NewHub(log)
	t.Cleanup(hub.Close)

	tokens := memory.NewTokenStore()
	snapshots := memory.NewSnapshotStore()
	alerts := memory.NewAlertStore()

	orch := NewOrchestrator(
		market,
		security,
		risk.NewEngine(security, market, emptySocial{}, risk.Options{CacheTTL: time.Millisecond}, log),
		trend.NewEngine(emptyWhales{}, emptySocial{}, trend.DefaultThresholds(), log),
		score.NewScorer(),
		alert.NewEngine(alerts, alert.DefaultThresholds(), log),
		hub,
		tokens,
		snapshots,
		memory.NewScoreStore(),
		DefaultGatePolicy(),
		Options{StaleRetention: time.Hour},
		log,
	)
	return &harness{orch: orch, market: market, security: security, hub: hub, tokens: tokens, snapshots: snapshots, alerts: alerts}
}

func TestTrackAcceptsHealthyToken(t *testing.T) {
	h := newHarness(t)
	reasons, err := h.orch.Track(context.Background(), testToken)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(reasons) != 0 {
		t.Fatalf("rejected with %v, want acceptance", reasons)
	}

	stored, err := h.tokens.GetByAddress(context.Background(), testToken)
	if err != nil {
		t.Fatalf("token not persisted: %v", err)
	}
	if !stored.Active {
		t.Error("stored token inactive")
	}
	if _, err := h.snapshots.Latest(context.Background(), testToken); err != nil {
		t.Errorf("snapshot not persisted: %v", err)
	}
	if len(h.orch.Tracked()) != 1 {
		t.Errorf("tracked %d tokens, want 1", len(h.orch.Tracked()))
	}
}

func TestTrackRejectsOnGate(t *testing.T) {
	h := newHarness(t)
	thin := healthySnapshot(1.0)
	thin.Liquidity = 500
	thin.HolderCount = 5
	h.market.set(thin)

	reasons, err := h.orch.Track(context.Background(), testToken)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(reasons) != 2 {
		t.Fatalf("reasons = %v, want liquidity and holder rejections", reasons)
	}
	if len(h.orch.Tracked()) != 0 {
		t.Error("rejected token must not be tracked")
	}
	if _, err := h.tokens.GetByAddress(context.Background(), testToken); err == nil {
		t.Error("rejected token must not be persisted")
	}
}

func TestTrackRejectsConcentratedOwnership(t *testing.T) {
	h := newHarness(t)
	h.security.report.TopHolderPct = 0.72

	reasons, err := h.orch.Track(context.Background(), testToken)
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(reasons) != 1 {
		t.Fatalf("reasons = %v, want one concentration rejection", reasons)
	}
}

func TestTrackGateOverrides(t *testing.T) {
	h := newHarness(t)
	thin := healthySnapshot(1.0)
	thin.Liquidity = 500
	thin.HolderCount = 5
	h.market.set(thin)

	reasons, err := h.orch.Track(context.Background(), testToken,
		WithMinLiquidity(100), WithMinHolders(1))
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(reasons) != 0 {
		t.Fatalf("rejected with %v, want overrides to admit the token", reasons)
	}
	if len(h.orch.Tracked()) != 1 {
		t.Error("overridden gate should track the token")
	}
}

func TestPublishedStateIsACopy(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}

	// Mutating a returned state must not reach the retained one.
	h.orch.Tracked()[0].Snapshot.Price = 999
	if h.orch.Tracked()[0].Snapshot.Price == 999 {
		t.Fatal("Tracked returned the retained state, want a copy")
	}

	events := make(chan broadcast.Event, 8)
	h.hub.Subscribe(broadcast.TopicTokenUpdates, func(e broadcast.Event) error {
		events <- e
		return nil
	})

	h.market.set(healthySnapshot(2.0))
	h.orch.RefreshAll(context.Background())

	var update *TokenState
	deadline := time.After(2 * time.Second)
	for update == nil {
		select {
		case e := <-events:
			if e.Type == "update" {
				update = e.Payload.(*TokenState)
			}
		case <-deadline:
			t.Fatal("no update event received")
		}
	}

	// A later refresh rewrites the retained state; the payload a
	// subscriber already holds must keep the values it was sent with.
	h.market.set(healthySnapshot(3.0))
	h.orch.RefreshAll(context.Background())

	if update.Snapshot.Price != 2.0 {
		t.Errorf("published snapshot price = %v, want 2.0", update.Snapshot.Price)
	}
	if h.orch.Tracked()[0].Snapshot.Price != 3.0 {
		t.Errorf("retained snapshot price = %v, want 3.0", h.orch.Tracked()[0].Snapshot.Price)
	}
}

func TestTrackRejectsInvalidAddress(t *testing.T) {
	h := newHarness(t)
	reasons, err := h.orch.Track(context.Background(), "not-base58-0OIl")
	if err != nil {
		t.Fatalf("Track: %v", err)
	}
	if len(reasons) != 1 {
		t.Fatalf("reasons = %v, want invalid address", reasons)
	}
}

func TestRefreshFiresHighPriceAlert(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}

	received := make(chan *domain.Alert, 8)
	h.hub.Subscribe(broadcast.TopicAlerts, func(e broadcast.Event) error {
		if a, ok := e.Payload.(*domain.Alert); ok {
			received <- a
		}
		return nil
	})

	// 60% rise since the tracked snapshot.
	h.market.set(healthySnapshot(1.6))
	h.orch.RefreshAll(context.Background())

	stored, err := h.alerts.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("persisted %d alerts, want exactly 1: %+v", len(stored), stored)
	}
	if stored[0].Kind != domain.AlertPrice || stored[0].Priority != domain.PriorityHigh {
		t.Errorf("alert = %s/%s, want PRICE/HIGH", stored[0].Kind, stored[0].Priority)
	}

	select {
	case a := <-received:
		if a.Kind != domain.AlertPrice {
			t.Errorf("broadcast alert kind = %s, want PRICE", a.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("alert never reached the hub")
	}
}

func TestRefreshKeepsStaleStateOnTotalFailure(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}
	before, err := h.snapshots.LatestTwo(context.Background(), testToken)
	if err != nil {
		t.Fatalf("LatestTwo: %v", err)
	}

	h.market.fail()
	h.orch.RefreshAll(context.Background())

	after, err := h.snapshots.LatestTwo(context.Background(), testToken)
	if err != nil {
		t.Fatalf("LatestTwo: %v", err)
	}
	if len(after) != len(before) {
		t.Error("stale refresh must not persist snapshots")
	}

	tracked := h.orch.Tracked()
	if len(tracked) != 1 {
		t.Fatalf("tracked %d tokens, want 1 retained", len(tracked))
	}
	if !tracked[0].Snapshot.Stale {
		t.Error("retained snapshot not marked stale")
	}
	if tracked[0].Snapshot.Price != 1.0 {
		t.Errorf("retained price = %v, want last known 1.0", tracked[0].Snapshot.Price)
	}
}

func TestStaleTokenUntrackedPastRetention(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}

	h.market.fail()
	base := time.Now()
	h.orch.now = func() time.Time { return base }
	h.orch.RefreshAll(context.Background())

	h.orch.now = func() time.Time { return base.Add(2 * time.Hour) }
	h.orch.RefreshAll(context.Background())

	if len(h.orch.Tracked()) != 0 {
		t.Error("token stale past retention should be untracked")
	}
	stored, err := h.tokens.GetByAddress(context.Background(), testToken)
	if err != nil {
		t.Fatalf("GetByAddress: %v", err)
	}
	if stored.Active {
		t.Error("untracked token should be inactive in storage")
	}
}

func TestUntrack(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}
	if err := h.orch.Untrack(context.Background(), testToken); err != nil {
		t.Fatalf("Untrack: %v", err)
	}
	if len(h.orch.Tracked()) != 0 {
		t.Error("token still tracked")
	}
	if err := h.orch.Untrack(context.Background(), testToken); err == nil {
		t.Error("second Untrack should report not found")
	}
}

func TestAnalyticsDeltaOnSignificantMovement(t *testing.T) {
	h := newHarness(t)
	if reasons, err := h.orch.Track(context.Background(), testToken); err != nil || len(reasons) != 0 {
		t.Fatalf("Track: reasons=%v err=%v", reasons, err)
	}

	deltas := make(chan broadcast.Event, 8)
	h.hub.Subscribe(broadcast.TopicAnalytics, func(e broadcast.Event) error {
		deltas <- e
		return nil
	})

	// 6% move clears the 5% bar.
	h.market.set(healthySnapshot(1.06))
	h.orch.RefreshAll(context.Background())

	select {
	case e := <-deltas:
		if e.Type != "delta" {
			t.Errorf("event type = %q, want delta", e.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no analytics event for significant movement")
	}
}
