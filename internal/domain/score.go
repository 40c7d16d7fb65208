package domain

import "time"

// Verdict is the trading stance derived from the composite score.
type Verdict string

const (
	VerdictAvoid   Verdict = "AVOID"
	VerdictCaution Verdict = "CAUTION"
	VerdictWatch   Verdict = "WATCH"
	VerdictHot     Verdict = "HOT"
)

// CompositeScore combines safety and hype into a single ranked result.
type CompositeScore struct {
	TokenAddress string
	Safety       float64 // 0..100, from risk checks
	Hype         float64 // 0..100, from trend signals
	Combined     float64 // (Safety+Hype)/2
	Verdict      Verdict
	Confidence   float64 // 0..1
	ComputedAt   time.Time
}

// TrendSignals are the per-component momentum scores in [0,1].
type TrendSignals struct {
	TokenAddress string
	Volume       float64
	Holders      float64
	Whales       float64
	Social       float64
	ColdStart    bool // true when no previous observation existed
	ComputedAt   time.Time
}
