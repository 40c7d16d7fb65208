// Package score folds risk checks and trend signals into a composite
// safety/hype score with a trading verdict.
package score

import (
	"time"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/observability"
)

// Safety is a weighted blend of the contract-level risk checks.
var safetyWeights = map[domain.CheckKind]float64{
	domain.CheckMintAuthority:       0.30,
	domain.CheckLiquidityLock:       0.30,
	domain.CheckContractAudit:       0.20,
	domain.CheckTax:                 0.10,
	domain.CheckHolderConcentration: 0.10,
}

// Hype component weights. Each component is normalized to 0..100 first.
const (
	hypeVolumeWeight  = 0.30
	hypeHolderWeight  = 0.20
	hypeRatioWeight   = 0.20
	hypeWhaleWeight   = 0.20
	hypeSocialWeight  = 0.10
)

// Verdict thresholds, first match wins from the top.
const (
	avoidSafetyBelow = 30

	hotSafetyMin   = 80
	hotHypeMin     = 70
	hotCombinedMin = 75

	watchSafetyMin   = 60
	watchHypeMin     = 50
	watchCombinedMin = 55
)

// Scorer computes composite scores. It holds no state beyond a clock.
type Scorer struct {
	now func() time.Time
}

func NewScorer() *Scorer {
	return &Scorer{now: time.Now}
}

// Compute derives the composite score for one token from its latest risk
// assessment, trend signals, and market snapshot.
func (s *Scorer) Compute(assessment *domain.RiskAssessment, signals *domain.TrendSignals, snap *domain.MarketSnapshot) *domain.CompositeScore {
	safety := safetyScore(assessment)
	hype := hypeScore(signals, snap)
	combined := (safety + hype) / 2

	score := &domain.CompositeScore{
		TokenAddress: assessment.TokenAddress,
		Safety:       safety,
		Hype:         hype,
		Combined:     combined,
		Verdict:      verdict(safety, hype, combined),
		Confidence:   confidence(safety, hype),
		ComputedAt:   s.now().UTC(),
	}
	observability.RecordScore(string(score.Verdict))
	return score
}

func safetyScore(assessment *domain.RiskAssessment) float64 {
	var total float64
	for kind, weight := range safetyWeights {
		total += assessment.Checks[kind].Score * weight
	}
	return cap100(total)
}

func hypeScore(signals *domain.TrendSignals, snap *domain.MarketSnapshot) float64 {
	total := cap100(signals.Volume*100)*hypeVolumeWeight +
		cap100(signals.Holders*100)*hypeHolderWeight +
		cap100(buySellRatioScore(snap))*hypeRatioWeight +
		cap100(signals.Whales*100)*hypeWhaleWeight +
		cap100(signals.Social*100)*hypeSocialWeight
	return cap100(total)
}

// buySellRatioScore maps buy pressure to 0..100. Two buys per sell already
// scores the full 100.
func buySellRatioScore(snap *domain.MarketSnapshot) float64 {
	if snap == nil || !snap.Fields.Has(domain.FieldBuyCount24h) {
		return 0
	}
	buys := float64(snap.BuyCount24h)
	sells := float64(snap.SellCount24h)
	if sells < 1 {
		sells = 1
	}
	return cap100(buys / sells * 50)
}

func verdict(safety, hype, combined float64) domain.Verdict {
	switch {
	case safety < avoidSafetyBelow:
		return domain.VerdictAvoid
	case safety >= hotSafetyMin && hype >= hotHypeMin && combined >= hotCombinedMin:
		return domain.VerdictHot
	case safety >= watchSafetyMin && hype >= watchHypeMin && combined >= watchCombinedMin:
		return domain.VerdictWatch
	default:
		return domain.VerdictCaution
	}
}

// confidence is higher when safety and hype agree and both sit high.
func confidence(safety, hype float64) float64 {
	diff := safety - hype
	if diff < 0 {
		diff = -diff
	}
	balance := 1 - diff/100
	if balance < 0 {
		balance = 0
	}
	level := (safety + hype) / 200
	c := balance*0.6 + level*0.4
	if c > 1 {
		return 1
	}
	return c
}

func cap100(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < 0 {
		return 0
	}
	return v
}
