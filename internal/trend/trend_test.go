package trend

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
)

type fakeWhales struct {
	stats *domain.WhaleStats
	err   error
}

func (f *fakeWhales) TokenWhales(ctx context.Context, address string) (*domain.WhaleStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stats, nil
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

func volumeSnap(volume float64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		Volume24h: volume,
		Fields:    domain.FieldMask(0).With(domain.FieldVolume24h),
	}
}

func holderSnap(holders int64) *domain.MarketSnapshot {
	return &domain.MarketSnapshot{
		HolderCount: holders,
		Fields:      domain.FieldMask(0).With(domain.FieldHolderCount),
	}
}

func quietEngine() *Engine {
	return NewEngine(
		&fakeWhales{stats: &domain.WhaleStats{}},
		&fakeSocial{stats: &domain.SocialStats{}},
		DefaultThresholds(),
		zerolog.Nop(),
	)
}

func TestVolumeScore(t *testing.T) {
	e := quietEngine()
	tests := []struct {
		name string
		prev *domain.MarketSnapshot
		cur  *domain.MarketSnapshot
		want float64
	}{
		{"below floor scores zero", volumeSnap(10_000), volumeSnap(4000), 0},
		{"below floor even with huge growth", volumeSnap(100), volumeSnap(4999), 0},
		{"no previous is cold start", nil, volumeSnap(20_000), coldStartScore},
		{"full growth threshold", volumeSnap(10_000), volumeSnap(30_000), 1},
		{"half threshold", volumeSnap(10_000), volumeSnap(20_000), 0.5},
		{"shrinking volume scores zero", volumeSnap(30_000), volumeSnap(20_000), 0},
		{"growth past threshold is capped", volumeSnap(10_000), volumeSnap(100_000), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.volumeScore(tt.prev, tt.cur); got != tt.want {
				t.Errorf("volumeScore = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHolderScore(t *testing.T) {
	e := quietEngine()
	if got := e.holderScore(holderSnap(80), holderSnap(99)); got != 0 {
		t.Errorf("below floor = %v, want 0", got)
	}
	if got := e.holderScore(nil, holderSnap(500)); got != coldStartScore {
		t.Errorf("cold start = %v, want %v", got, coldStartScore)
	}
	if got := e.holderScore(holderSnap(1000), holderSnap(1100)); got != 0.5 {
		t.Errorf("10%% growth = %v, want 0.5", got)
	}
	if got := e.holderScore(holderSnap(1000), holderSnap(2000)); got != 1 {
		t.Errorf("100%% growth = %v, want capped at 1", got)
	}
}

func TestWhaleScore(t *testing.T) {
	e := quietEngine()
	if got := e.whaleScore(&domain.WhaleStats{BuyCount: 3, SellCount: 5}); got != 0 {
		t.Errorf("net selling = %v, want 0", got)
	}
	if got := e.whaleScore(&domain.WhaleStats{BuyCount: 10, SellCount: 2}); got != 0.4 {
		t.Errorf("8 net buys = %v, want 0.4", got)
	}
	if got := e.whaleScore(&domain.WhaleStats{BuyCount: 50}); got != 1 {
		t.Errorf("heavy accumulation = %v, want capped at 1", got)
	}
}

func TestSocialScore(t *testing.T) {
	e := quietEngine()
	if got := e.socialScore(&domain.SocialStats{Mentions24h: 4, Sentiment: 0.9}); got != 0 {
		t.Errorf("too few mentions = %v, want 0", got)
	}
	// 5 mentions of 10 for the mention half, sentiment below threshold.
	if got := e.socialScore(&domain.SocialStats{Mentions24h: 5, Sentiment: 0.5}); got != 0.3 {
		t.Errorf("neutral sentiment = %v, want 0.3", got)
	}
	got := e.socialScore(&domain.SocialStats{Mentions24h: 20, Sentiment: 0.8})
	want := 0.6 + 0.8*0.4
	if diff := got - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("hot social = %v, want %v", got, want)
	}
}

func TestSignalsDegradeOnProviderFailure(t *testing.T) {
	e := NewEngine(
		&fakeWhales{err: errors.New("birdeye down")},
		&fakeSocial{err: errors.New("no social data")},
		DefaultThresholds(),
		zerolog.Nop(),
	)
	sig := e.Signals(context.Background(), "tok", volumeSnap(10_000), volumeSnap(30_000))
	if sig.Whales != 0 || sig.Social != 0 {
		t.Errorf("failed providers should score 0, got whales=%v social=%v", sig.Whales, sig.Social)
	}
	if sig.Volume != 1 {
		t.Errorf("volume component should still compute, got %v", sig.Volume)
	}
	if sig.ColdStart {
		t.Error("ColdStart should be false with a previous snapshot")
	}
}

func TestSignalsColdStartFlag(t *testing.T) {
	sig := quietEngine().Signals(context.Background(), "tok", nil, volumeSnap(20_000))
	if !sig.ColdStart {
		t.Error("ColdStart should be true without a previous snapshot")
	}
}
