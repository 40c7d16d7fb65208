// Package trend derives momentum signals from consecutive market
// observations plus whale and social activity.
package trend

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/provider"
)

// Thresholds control how raw growth maps to component scores.
type Thresholds struct {
	VolumeGrowth    float64 // growth rate that scores a full 1.0
	VolumeFloorUSD  float64 // volume below this always scores 0
	HolderGrowth    float64
	HolderFloor     int64
	WhaleMinTxUSD   float64 // minimum transfer size to count as whale
	WhaleTxImpact   float64 // score added per net whale buy
	SocialMentions  int64   // mentions needed before social counts
	SocialSentiment float64 // sentiment below this scores 0
}

// DefaultThresholds returns the production tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		VolumeGrowth:    2.0,
		VolumeFloorUSD:  5000,
		HolderGrowth:    0.2,
		HolderFloor:     100,
		WhaleMinTxUSD:   10_000,
		WhaleTxImpact:   0.05,
		SocialMentions:  5,
		SocialSentiment: 0.6,
	}
}

// coldStartScore is assigned when a component has no previous observation
// to measure growth against but clears its floor.
const coldStartScore = 0.1

// Engine computes trend signals. Volume and holder components compare the
// current snapshot against the previous one; whales and social come from
// their providers.
type Engine struct {
	whales     provider.WhaleProvider
	social     provider.SocialProvider
	thresholds Thresholds
	log        zerolog.Logger
	now        func() time.Time
}

// NewEngine creates a trend engine.
func NewEngine(whales provider.WhaleProvider, social provider.SocialProvider, thresholds Thresholds, log zerolog.Logger) *Engine {
	return &Engine{
		whales:     whales,
		social:     social,
		thresholds: thresholds,
		log:        log.With().Str("component", "trend").Logger(),
		now:        time.Now,
	}
}

// Signals computes all momentum components for a token. prev may be nil on
// the first observation. Whale and social failures degrade their component
// to zero rather than failing the call.
func (e *Engine) Signals(ctx context.Context, address string, prev, cur *domain.MarketSnapshot) *domain.TrendSignals {
	signals := &domain.TrendSignals{
		TokenAddress: address,
		ColdStart:    prev == nil,
		ComputedAt:   e.now().UTC(),
	}

	signals.Volume = e.volumeScore(prev, cur)
	signals.Holders = e.holderScore(prev, cur)

	if stats, err := e.whales.TokenWhales(ctx, address); err != nil {
		e.log.Warn().Err(err).Str("token", address).Msg("whale fetch failed")
	} else {
		signals.Whales = e.whaleScore(stats)
	}
	if stats, err := e.social.TokenSocial(ctx, address); err != nil {
		e.log.Warn().Err(err).Str("token", address).Msg("social fetch failed")
	} else {
		signals.Social = e.socialScore(stats)
	}
	return signals
}

func (e *Engine) volumeScore(prev, cur *domain.MarketSnapshot) float64 {
	if cur == nil || !cur.Fields.Has(domain.FieldVolume24h) {
		return 0
	}
	if cur.Volume24h < e.thresholds.VolumeFloorUSD {
		return 0
	}
	if prev == nil || !prev.Fields.Has(domain.FieldVolume24h) || prev.Volume24h <= 0 {
		return coldStartScore
	}
	growth := (cur.Volume24h - prev.Volume24h) / prev.Volume24h
	return growthScore(growth, e.thresholds.VolumeGrowth)
}

func (e *Engine) holderScore(prev, cur *domain.MarketSnapshot) float64 {
	if cur == nil || !cur.Fields.Has(domain.FieldHolderCount) {
		return 0
	}
	if cur.HolderCount < e.thresholds.HolderFloor {
		return 0
	}
	if prev == nil || !prev.Fields.Has(domain.FieldHolderCount) || prev.HolderCount <= 0 {
		return coldStartScore
	}
	growth := float64(cur.HolderCount-prev.HolderCount) / float64(prev.HolderCount)
	return growthScore(growth, e.thresholds.HolderGrowth)
}

// whaleScore rewards net accumulation by large wallets.
func (e *Engine) whaleScore(stats *domain.WhaleStats) float64 {
	net := stats.BuyCount - stats.SellCount
	if net <= 0 {
		return 0
	}
	return clamp01(float64(net) * e.thresholds.WhaleTxImpact)
}

// socialScore weights mention volume at 60% and sentiment at 40%. Sentiment
// below the threshold contributes nothing.
func (e *Engine) socialScore(stats *domain.SocialStats) float64 {
	if stats.Mentions24h < e.thresholds.SocialMentions {
		return 0
	}
	mentionScore := clamp01(float64(stats.Mentions24h) / float64(e.thresholds.SocialMentions*2))
	sentimentScore := 0.0
	if stats.Sentiment > e.thresholds.SocialSentiment {
		sentimentScore = clamp01(stats.Sentiment)
	}
	return mentionScore*0.6 + sentimentScore*0.4
}

// growthScore normalizes a growth rate against the threshold that counts
// as full momentum. Negative growth scores 0.
func growthScore(growth, threshold float64) float64 {
	if growth <= 0 {
		return 0
	}
	return clamp01(growth / threshold)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
