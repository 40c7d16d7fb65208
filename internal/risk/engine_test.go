package risk

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
)

type fakeSecurity struct {
	calls  atomic.Int64
	report *domain.SecurityReport
	err    error
}

func (f *fakeSecurity) Name() string { return "fake-security" }

func (f *fakeSecurity) TokenSecurity(ctx context.Context, address string) (*domain.SecurityReport, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

type fakeSnapshots struct {
	snap *domain.MarketSnapshot
	err  error
}

func (f *fakeSnapshots) Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

type fakeSocial struct {
	stats *domain.SocialStats
	err   error
}

func (f *fakeSocial) TokenSocial(ctx context.Context, address string) (*domain.SocialStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
}

func goodInputs() (*fakeSecurity, *fakeSnapshots, *fakeSocial) {
	sec := &fakeSecurity{report: &domain.SecurityReport{
		TokenAddress:     "tok",
		MintAuthority:    false,
		LiquidityLockPct: 95,
		TopHolderPct:     0.08,
		Audited:          true,
		AuditPassed:      true,
	}}
	market := &fakeSnapshots{snap: &domain.MarketSnapshot{
		TokenAddress:   "tok",
		Liquidity:      50_000,
		Volume24h:      40_000,
		PriceChange24h: 3,
		Fields: domain.FieldMask(0).
			With(domain.FieldLiquidity).
			With(domain.FieldVolume24h).
			With(domain.FieldPriceChange24h),
	}}
	social := &fakeSocial{stats: &domain.SocialStats{
		TokenAddress: "tok",
		Mentions24h:  12,
		Sentiment:    0.5,
	}}
	return sec, market, social
}

func newTestEngine(sec *fakeSecurity, market *fakeSnapshots, social *fakeSocial) *Engine {
	return NewEngine(sec, market, social, Options{CacheTTL: time.Minute}, zerolog.Nop())
}

func TestAssessScoreBounds(t *testing.T) {
	reports := []*domain.SecurityReport{
		{MintAuthority: true, TopHolderPct: 0.9, BuyTaxPct: 99, SellTaxPct: 99},
		{LiquidityLockPct: 100, Audited: true, AuditPassed: true},
		{LiquidityLockPct: -20, TopHolderPct: 3},
	}
	for _, rep := range reports {
		sec, market, social := goodInputs()
		sec.report = rep
		a, err := newTestEngine(sec, market, social).Assess(context.Background(), "tok")
		if err != nil {
			t.Fatalf("Assess: %v", err)
		}
		if a.OverallScore < 0 || a.OverallScore > 100 {
			t.Errorf("OverallScore = %v, want within [0,100]", a.OverallScore)
		}
		for kind, res := range a.Checks {
			if res.Score < 0 || res.Score > 100 {
				t.Errorf("%s score = %v, want within [0,100]", kind, res.Score)
			}
			if res.Confidence < 0 || res.Confidence > 1 {
				t.Errorf("%s confidence = %v, want within [0,1]", kind, res.Confidence)
			}
		}
	}
}

func TestAssessDegradesOnProviderFailure(t *testing.T) {
	sec, market, social := goodInputs()
	sec.err = errors.New("rugcheck down")

	a, err := newTestEngine(sec, market, social).Assess(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if len(a.Checks) != 8 {
		t.Fatalf("got %d checks, want 8", len(a.Checks))
	}
	mint := a.Checks[domain.CheckMintAuthority]
	if mint.Score != 0 || mint.Confidence != 0 || mint.Err == "" {
		t.Errorf("mint check = %+v, want failed with score 0 confidence 0", mint)
	}
	vol := a.Checks[domain.CheckVolumeHealth]
	if vol.Err != "" {
		t.Errorf("volume check should still run: %+v", vol)
	}
	if a.DataConfidence >= 1 {
		t.Errorf("DataConfidence = %v, want reduced by failed checks", a.DataConfidence)
	}
}

func TestAssessWarningsBelowThreshold(t *testing.T) {
	sec, market, social := goodInputs()
	sec.report.MintAuthority = true
	sec.report.LiquidityLockPct = 10

	a, err := newTestEngine(sec, market, social).Assess(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if len(a.Warnings) < 2 {
		t.Fatalf("Warnings = %v, want mint and liquidity warnings", a.Warnings)
	}
	if len(a.Warnings) != len(a.Recommendations) {
		t.Errorf("warnings/recommendations mismatch: %d vs %d", len(a.Warnings), len(a.Recommendations))
	}
}

func TestAssessCachesResult(t *testing.T) {
	sec, market, social := goodInputs()
	eng := newTestEngine(sec, market, social)

	first, err := eng.Assess(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	second, err := eng.Assess(context.Background(), "tok")
	if err != nil {
		t.Fatalf("Assess: %v", err)
	}
	if first != second {
		t.Error("second call should return the cached assessment")
	}
	if got := sec.calls.Load(); got != 1 {
		t.Errorf("security fetched %d times, want 1", got)
	}

	eng.Invalidate("tok")
	if _, err := eng.Assess(context.Background(), "tok"); err != nil {
		t.Fatalf("Assess after invalidate: %v", err)
	}
	if got := sec.calls.Load(); got != 2 {
		t.Errorf("security fetched %d times after invalidate, want 2", got)
	}
}

func TestAssessConcurrentCallersShareComputation(t *testing.T) {
	sec, market, social := goodInputs()
	eng := newTestEngine(sec, market, social)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := eng.Assess(context.Background(), "tok"); err != nil {
				t.Errorf("Assess: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := sec.calls.Load(); got != 1 {
		t.Errorf("security fetched %d times, want 1", got)
	}
}

func TestCheckFormulas(t *testing.T) {
	conc := checkHolderConcentration(&domain.SecurityReport{TopHolderPct: 0.25})
	if conc.Score != 50 {
		t.Errorf("concentration score = %v, want 50", conc.Score)
	}
	tax := checkTax(&domain.SecurityReport{BuyTaxPct: 5, SellTaxPct: 10})
	if tax.Score != 60 {
		t.Errorf("tax score = %v, want 60", tax.Score)
	}
	audit := checkContractAudit(&domain.SecurityReport{Audited: true})
	if audit.Score != 90 {
		t.Errorf("audit score = %v, want 90", audit.Score)
	}
	neutral := checkSocialSentiment(&domain.SocialStats{})
	if neutral.Score != 50 {
		t.Errorf("neutral sentiment score = %v, want 50", neutral.Score)
	}
}
