package risk

import (
	"fmt"

	"solana-token-radar/internal/domain"
)

// checkWeights are the fixed weights of each risk check in the overall score.
var checkWeights = map[domain.CheckKind]float64{
	domain.CheckMintAuthority:       0.20,
	domain.CheckLiquidityLock:       0.20,
	domain.CheckHolderConcentration: 0.15,
	domain.CheckContractAudit:       0.15,
	domain.CheckTax:                 0.10,
	domain.CheckVolumeHealth:        0.10,
	domain.CheckVolatility:          0.05,
	domain.CheckSocialSentiment:     0.05,
}

// checkWarnings and checkRecommendations are appended to an assessment for
// every check that scores below the warning threshold.
var checkWarnings = map[domain.CheckKind]string{
	domain.CheckMintAuthority:       "Mint authority is not disabled",
	domain.CheckLiquidityLock:       "Low liquidity lock, high risk of rug pull",
	domain.CheckHolderConcentration: "Concentrated holder distribution, risk of dumps",
	domain.CheckContractAudit:       "Contract security issues detected",
	domain.CheckTax:                 "High tax rates may impact trading",
	domain.CheckVolumeHealth:        "Thin trading activity relative to liquidity",
	domain.CheckVolatility:          "High price volatility",
	domain.CheckSocialSentiment:     "Negative social sentiment",
}

var checkRecommendations = map[domain.CheckKind]string{
	domain.CheckMintAuthority:       "Wait for mint authority to be disabled",
	domain.CheckLiquidityLock:       "Wait for liquidity to be locked",
	domain.CheckHolderConcentration: "Monitor whale wallet movements",
	domain.CheckContractAudit:       "Review the contract audit report",
	domain.CheckTax:                 "Consider tax impact on trades",
	domain.CheckVolumeHealth:        "Wait for organic trading volume",
	domain.CheckVolatility:          "Wait for the price to stabilize",
	domain.CheckSocialSentiment:     "Verify community activity before entering",
}

const warningThreshold = 50.0

func checkMintAuthority(rep *domain.SecurityReport) domain.CheckResult {
	score := 100.0
	detail := "mint authority disabled"
	if rep.MintAuthority {
		score = 0
		detail = "mint authority still enabled"
	}
	if rep.Honeypot {
		score = 0
		detail = "token flagged as rugged"
	}
	return domain.CheckResult{
		Kind:       domain.CheckMintAuthority,
		Score:      score,
		Confidence: 1.0,
		Detail:     detail,
	}
}

func checkLiquidityLock(rep *domain.SecurityReport) domain.CheckResult {
	return domain.CheckResult{
		Kind:       domain.CheckLiquidityLock,
		Score:      clamp(rep.LiquidityLockPct, 0, 100),
		Confidence: 1.0,
		Detail:     fmt.Sprintf("%.1f%% of LP locked", rep.LiquidityLockPct),
	}
}

// checkHolderConcentration scores holder distribution. Half the supply in
// whale wallets already scores zero.
func checkHolderConcentration(rep *domain.SecurityReport) domain.CheckResult {
	score := clamp(100-rep.TopHolderPct*200, 0, 100)
	return domain.CheckResult{
		Kind:       domain.CheckHolderConcentration,
		Score:      score,
		Confidence: 1.0,
		Detail:     fmt.Sprintf("top holder holds %.1f%% of supply", rep.TopHolderPct*100),
	}
}

func checkContractAudit(rep *domain.SecurityReport) domain.CheckResult {
	score := 0.0
	detail := "no audit on record"
	if rep.Audited {
		score = 80
		detail = "audited"
		if rep.AuditPassed {
			score += 20
			detail = "audited, no open issues"
		} else {
			score += 10
			detail = "audited, issues reported"
		}
	}
	return domain.CheckResult{
		Kind:       domain.CheckContractAudit,
		Score:      score,
		Confidence: 1.0,
		Detail:     detail,
	}
}

// checkTax treats a 25% tax as worthless.
func checkTax(rep *domain.SecurityReport) domain.CheckResult {
	maxTax := rep.BuyTaxPct
	if rep.SellTaxPct > maxTax {
		maxTax = rep.SellTaxPct
	}
	return domain.CheckResult{
		Kind:       domain.CheckTax,
		Score:      clamp(100-maxTax*4, 0, 100),
		Confidence: 1.0,
		Detail:     fmt.Sprintf("buy tax %.1f%%, sell tax %.1f%%", rep.BuyTaxPct, rep.SellTaxPct),
	}
}

// checkVolumeHealth blends turnover against liquidity with an absolute
// liquidity floor.
func checkVolumeHealth(snap *domain.MarketSnapshot, minLiquidity float64) domain.CheckResult {
	if !snap.Fields.Has(domain.FieldLiquidity) {
		return failedCheck(domain.CheckVolumeHealth, "no liquidity data")
	}

	volumeScore := 0.0
	if snap.Fields.Has(domain.FieldVolume24h) && snap.Liquidity > 0 {
		volumeScore = clamp(snap.Volume24h/snap.Liquidity*100, 0, 100)
	}
	liquidityScore := 100.0
	confidence := 0.9
	if snap.Liquidity < minLiquidity {
		liquidityScore = clamp(snap.Liquidity/minLiquidity*100, 0, 99)
		confidence = 0.7
	}

	return domain.CheckResult{
		Kind:       domain.CheckVolumeHealth,
		Score:      volumeScore*0.5 + liquidityScore*0.5,
		Confidence: confidence,
		Detail:     fmt.Sprintf("volume $%.0f against $%.0f liquidity", snap.Volume24h, snap.Liquidity),
	}
}

func checkVolatility(snap *domain.MarketSnapshot) domain.CheckResult {
	if !snap.Fields.Has(domain.FieldPriceChange24h) {
		return failedCheck(domain.CheckVolatility, "no price change data")
	}
	change := snap.PriceChange24h
	if change < 0 {
		change = -change
	}

	var score float64
	switch {
	case change <= 5:
		score = 100
	case change <= 10:
		score = 75
	case change <= 20:
		score = 50
	case change <= 30:
		score = 25
	default:
		score = 0
	}
	return domain.CheckResult{
		Kind:       domain.CheckVolatility,
		Score:      score,
		Confidence: 0.9,
		Detail:     fmt.Sprintf("24h price change %.1f%%", snap.PriceChange24h),
	}
}

func checkSocialSentiment(stats *domain.SocialStats) domain.CheckResult {
	if stats.Mentions24h == 0 {
		return domain.CheckResult{
			Kind:       domain.CheckSocialSentiment,
			Score:      50,
			Confidence: 0.5,
			Detail:     "no mentions, neutral",
		}
	}
	// Sentiment runs -1..1; map to 0..100.
	score := clamp((stats.Sentiment+1)/2*100, 0, 100)
	return domain.CheckResult{
		Kind:       domain.CheckSocialSentiment,
		Score:      score,
		Confidence: 1.0,
		Detail:     fmt.Sprintf("%d mentions, sentiment %.2f", stats.Mentions24h, stats.Sentiment),
	}
}

func failedCheck(kind domain.CheckKind, reason string) domain.CheckResult {
	return domain.CheckResult{Kind: kind, Err: reason}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
