package monitor

import (
	"context"
	"fmt"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/provider"
)

// GatePolicy sets the bars a candidate token must clear before tracking.
type GatePolicy struct {
	MinLiquidityUSD float64
	MinHolders      int64
	MaxOwnerPct     float64 // largest-holder share bound, 0..1; 0 disables
}

// DefaultGatePolicy returns the production gate.
func DefaultGatePolicy() GatePolicy {
	return GatePolicy{
		MinLiquidityUSD: 10_000,
		MinHolders:      50,
		MaxOwnerPct:     0.5,
	}
}

// GateOverride adjusts the gate policy for a single Track call.
type GateOverride func(*GatePolicy)

// WithMinLiquidity overrides the liquidity floor.
func WithMinLiquidity(usd float64) GateOverride {
	return func(p *GatePolicy) { p.MinLiquidityUSD = usd }
}

// WithMinHolders overrides the holder floor.
func WithMinHolders(n int64) GateOverride {
	return func(p *GatePolicy) { p.MinHolders = n }
}

// WithMaxOwnerPct overrides the largest-holder concentration bound.
func WithMaxOwnerPct(pct float64) GateOverride {
	return func(p *GatePolicy) { p.MaxOwnerPct = pct }
}

// gate validates a candidate against the policy using the merged snapshot
// and a security read. It returns the rejection reasons, empty on pass.
func gate(ctx context.Context, policy GatePolicy, snap *domain.MarketSnapshot, security provider.SecurityProvider, address string) ([]string, error) {
	var reasons []string

	if !snap.Fields.Has(domain.FieldLiquidity) {
		reasons = append(reasons, "no liquidity data")
	} else if snap.Liquidity < policy.MinLiquidityUSD {
		reasons = append(reasons, fmt.Sprintf("liquidity $%.0f below minimum $%.0f", snap.Liquidity, policy.MinLiquidityUSD))
	}

	if !snap.Fields.Has(domain.FieldHolderCount) {
		reasons = append(reasons, "no holder data")
	} else if snap.HolderCount < policy.MinHolders {
		reasons = append(reasons, fmt.Sprintf("%d holders below minimum %d", snap.HolderCount, policy.MinHolders))
	}

	report, err := security.TokenSecurity(ctx, address)
	if err != nil {
		return reasons, fmt.Errorf("security read: %w", err)
	}
	if report.Honeypot {
		reasons = append(reasons, "flagged as honeypot")
	}
	if report.MintAuthority {
		reasons = append(reasons, "mint authority still enabled")
	}
	if policy.MaxOwnerPct > 0 && report.TopHolderPct > policy.MaxOwnerPct {
		reasons = append(reasons, fmt.Sprintf("top holder owns %.0f%%, above %.0f%%", report.TopHolderPct*100, policy.MaxOwnerPct*100))
	}

	return reasons, nil
}
