package domain

import "time"

// CheckKind identifies one of the weighted risk checks.
type CheckKind string

const (
	CheckMintAuthority       CheckKind = "MINT_AUTHORITY"
	CheckLiquidityLock       CheckKind = "LIQUIDITY_LOCK"
	CheckHolderConcentration CheckKind = "HOLDER_CONCENTRATION"
	CheckContractAudit       CheckKind = "CONTRACT_AUDIT"
	CheckTax                 CheckKind = "TAX"
	CheckVolumeHealth        CheckKind = "VOLUME_HEALTH"
	CheckVolatility          CheckKind = "VOLATILITY"
	CheckSocialSentiment     CheckKind = "SOCIAL_SENTIMENT"
)

// CheckResult is the outcome of a single risk check.
// Score is 0 (worst) to 100 (best); Confidence is 0 to 1.
type CheckResult struct {
	Kind       CheckKind
	Score      float64
	Confidence float64
	Detail     string
	Err        string // non-empty when the check could not run
}

// RiskAssessment is the weighted aggregate of all checks for one token.
type RiskAssessment struct {
	TokenAddress    string
	OverallScore    float64 // 0..100, higher is safer
	Checks          map[CheckKind]CheckResult
	Warnings        []string
	Recommendations []string
	DataConfidence  float64 // mean check confidence, 0..1
	AssessedAt      time.Time
}
