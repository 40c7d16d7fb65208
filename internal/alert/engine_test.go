package alert

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/storage/memory"
)

func marketState(price, volume, liquidity float64, holders int64) State {
	return State{Snapshot: &domain.MarketSnapshot{
		TokenAddress: "tok",
		Price:        price,
		Volume24h:    volume,
		Liquidity:    liquidity,
		HolderCount:  holders,
		Fields: domain.FieldMask(0).
			With(domain.FieldPrice).
			With(domain.FieldVolume24h).
			With(domain.FieldLiquidity).
			With(domain.FieldHolderCount),
	}}
}

func newTestEngine() *Engine {
	return NewEngine(memory.NewAlertStore(), DefaultThresholds(), zerolog.Nop())
}

func kinds(alerts []*domain.Alert) map[domain.AlertKind]*domain.Alert {
	m := make(map[domain.AlertKind]*domain.Alert)
	for _, a := range alerts {
		m[a.Kind] = a
	}
	return m
}

func TestPriceRulePrioritySplit(t *testing.T) {
	tests := []struct {
		name      string
		prevPrice float64
		curPrice  float64
		wantFired bool
		wantPrio  domain.AlertPriority
	}{
		{"small move stays quiet", 1.0, 1.1, false, ""},
		{"moderate move is medium", 1.0, 1.3, true, domain.PriorityMedium},
		{"big move is high", 1.0, 1.6, true, domain.PriorityHigh},
		{"crash is high", 1.0, 0.4, true, domain.PriorityHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine()
			fired, err := e.Evaluate(context.Background(), "tok",
				marketState(tt.prevPrice, 1000, 1000, 100),
				marketState(tt.curPrice, 1000, 1000, 100))
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			got := kinds(fired)[domain.AlertPrice]
			if (got != nil) != tt.wantFired {
				t.Fatalf("price alert fired = %v, want %v", got != nil, tt.wantFired)
			}
			if got != nil && got.Priority != tt.wantPrio {
				t.Errorf("priority = %s, want %s", got.Priority, tt.wantPrio)
			}
		})
	}
}

func TestVolumeAndHolderRules(t *testing.T) {
	e := newTestEngine()
	fired, err := e.Evaluate(context.Background(), "tok",
		marketState(1, 10_000, 1000, 100),
		marketState(1, 40_000, 1000, 115))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	byKind := kinds(fired)
	if a := byKind[domain.AlertVolume]; a == nil || a.Priority != domain.PriorityMedium {
		t.Errorf("volume alert = %+v, want MEDIUM", a)
	}
	if a := byKind[domain.AlertHolders]; a == nil {
		t.Error("holders alert should fire at 15% growth")
	}
}

func TestLiquidityDrainIsCritical(t *testing.T) {
	e := newTestEngine()
	fired, err := e.Evaluate(context.Background(), "tok",
		marketState(1, 1000, 100_000, 100),
		marketState(1, 1000, 40_000, 100))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a := kinds(fired)[domain.AlertLiquidity]
	if a == nil || a.Priority != domain.PriorityCritical {
		t.Fatalf("liquidity alert = %+v, want CRITICAL", a)
	}
}

func TestScoreDropRule(t *testing.T) {
	e := newTestEngine()
	prev := State{Score: &domain.CompositeScore{TokenAddress: "tok", Combined: 70}}
	cur := State{Score: &domain.CompositeScore{TokenAddress: "tok", Combined: 45}}

	fired, err := e.Evaluate(context.Background(), "tok", prev, cur)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a := kinds(fired)[domain.AlertSecurity]
	if a == nil || a.Priority != domain.PriorityHigh {
		t.Fatalf("security alert = %+v, want HIGH", a)
	}

	// A swing of the same size upward fires too, at MEDIUM.
	fired, err = e.Evaluate(context.Background(), "tok2", cur, prev)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a = kinds(fired)[domain.AlertSecurity]
	if a == nil || a.Priority != domain.PriorityMedium {
		t.Fatalf("security alert on rise = %+v, want MEDIUM", a)
	}
}

func TestScoreRiseBelowThresholdIsQuiet(t *testing.T) {
	e := newTestEngine()
	prev := State{Score: &domain.CompositeScore{TokenAddress: "tok", Combined: 40}}
	cur := State{Score: &domain.CompositeScore{TokenAddress: "tok", Combined: 55}}

	fired, err := e.Evaluate(context.Background(), "tok", prev, cur)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(fired) != 0 {
		t.Errorf("got %d alerts for a 15-point rise, want 0", len(fired))
	}
}

func TestHolderDeclineFires(t *testing.T) {
	e := newTestEngine()
	fired, err := e.Evaluate(context.Background(), "tok",
		marketState(1, 1000, 1000, 200),
		marketState(1, 1000, 1000, 150))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	a := kinds(fired)[domain.AlertHolders]
	if a == nil || a.Priority != domain.PriorityMedium {
		t.Fatalf("holders alert on 25%% decline = %+v, want MEDIUM", a)
	}
}

func TestCooldownDeduplication(t *testing.T) {
	e := newTestEngine()
	base := time.Now()
	e.now = func() time.Time { return base }

	prev := marketState(1.0, 1000, 1000, 100)
	cur := marketState(1.4, 1000, 1000, 100)

	fired, err := e.Evaluate(context.Background(), "tok", prev, cur)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("first evaluation fired %d alerts, want 1", len(fired))
	}

	// Inside the cooldown window the same rule stays quiet.
	e.now = func() time.Time { return base.Add(10 * time.Minute) }
	fired, err = e.Evaluate(context.Background(), "tok", prev, cur)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(fired) != 0 {
		t.Fatalf("evaluation inside cooldown fired %d alerts, want 0", len(fired))
	}

	// Past the window it fires again.
	e.now = func() time.Time { return base.Add(DefaultThresholds().Cooldown + time.Minute) }
	fired, err = e.Evaluate(context.Background(), "tok", prev, cur)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(fired) != 1 {
		t.Fatalf("evaluation after cooldown fired %d alerts, want 1", len(fired))
	}
}

func TestFirstObservationSkipsRules(t *testing.T) {
	e := newTestEngine()
	fired, err := e.Evaluate(context.Background(), "tok", State{}, marketState(1, 1000, 1000, 100))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(fired) != 0 {
		t.Errorf("got %d alerts without a previous state, want 0", len(fired))
	}
}

func TestVerdictForAlerts(t *testing.T) {
	if got := domain.VerdictForAlerts(nil); got != domain.RiskClear {
		t.Errorf("no alerts = %s, want CLEAR", got)
	}
	low := []*domain.Alert{{Priority: domain.PriorityMedium}}
	if got := domain.VerdictForAlerts(low); got != domain.RiskLow {
		t.Errorf("medium alert = %s, want LOW_RISK", got)
	}
	high := append(low, &domain.Alert{Priority: domain.PriorityHigh})
	if got := domain.VerdictForAlerts(high); got != domain.RiskMedium {
		t.Errorf("high alert = %s, want MEDIUM_RISK", got)
	}
	critical := append(high, &domain.Alert{Priority: domain.PriorityCritical})
	if got := domain.VerdictForAlerts(critical); got != domain.RiskHigh {
		t.Errorf("critical alert = %s, want HIGH_RISK", got)
	}
}
