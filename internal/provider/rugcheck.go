package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"solana-token-radar/internal/domain"
)

// RugCheckBaseURL is the public RugCheck API root.
const RugCheckBaseURL = "https://api.rugcheck.xyz/v1"

// RugCheck adapts the RugCheck token report API to SecurityProvider.
type RugCheck struct {
	client *Client
}

// NewRugCheck creates the adapter on top of a fetch client.
func NewRugCheck(client *Client) *RugCheck {
	return &RugCheck{client: client}
}

// Compile-time interface check.
var _ SecurityProvider = (*RugCheck)(nil)

// Name returns the provider name.
func (r *RugCheck) Name() string { return r.client.Name() }

type rugcheckReport struct {
	Token struct {
		MintAuthority   *string `json:"mintAuthority"`
		FreezeAuthority *string `json:"freezeAuthority"`
	} `json:"token"`
	Markets []struct {
		LP struct {
			LPLockedPct float64 `json:"lpLockedPct"`
		} `json:"lp"`
	} `json:"markets"`
	TopHolders []struct {
		Pct float64 `json:"pct"` // percent, 0..100
	} `json:"topHolders"`
	TransferFee struct {
		Pct float64 `json:"pct"` // percent, 0..100
	} `json:"transferFee"`
	Risks []struct {
		Name  string `json:"name"`
		Level string `json:"level"`
	} `json:"risks"`
	Verified bool `json:"verification"`
	Rugged   bool `json:"rugged"`
}

// TokenSecurity fetches and condenses the RugCheck report.
func (r *RugCheck) TokenSecurity(ctx context.Context, address string) (*domain.SecurityReport, error) {
	body, err := r.client.Get(ctx, "/tokens/"+address+"/report", nil)
	if err != nil {
		return nil, err
	}

	var resp rugcheckReport
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("rugcheck: decode report: %w", err)
	}

	report := &domain.SecurityReport{
		TokenAddress:    address,
		MintAuthority:   resp.Token.MintAuthority != nil,
		FreezeAuthority: resp.Token.FreezeAuthority != nil,
		BuyTaxPct:       resp.TransferFee.Pct,
		SellTaxPct:      resp.TransferFee.Pct,
		Audited:         true, // a report existing means the contract was analyzed
		AuditPassed:     !resp.Rugged,
		Honeypot:        resp.Rugged,
		FetchedAt:       time.Now().UTC(),
	}

	for _, m := range resp.Markets {
		if m.LP.LPLockedPct > report.LiquidityLockPct {
			report.LiquidityLockPct = m.LP.LPLockedPct
		}
	}
	if len(resp.TopHolders) > 0 {
		report.TopHolderPct = resp.TopHolders[0].Pct / 100
	}
	for _, risk := range resp.Risks {
		if risk.Level == "danger" {
			report.AuditPassed = false
			break
		}
	}

	return report, nil
}
