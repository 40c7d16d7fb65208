package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"solana-token-radar/internal/domain"
)

// DexScreenerBaseURL is the public DexScreener API root.
const DexScreenerBaseURL = "https://api.dexscreener.com/latest"

// DexScreener adapts the DexScreener pairs API to MarketProvider.
// Liquidity and volume are summed across all Solana pairs for the token;
// price and 24h change come from the most liquid pair.
type DexScreener struct {
	client *Client
}

// NewDexScreener creates the adapter on top of a fetch client.
func NewDexScreener(client *Client) *DexScreener {
	return &DexScreener{client: client}
}

// Compile-time interface check.
var _ MarketProvider = (*DexScreener)(nil)

// Name returns the provider name.
func (d *DexScreener) Name() string { return d.client.Name() }

type dexPair struct {
	ChainID   string `json:"chainId"`
	PriceUsd  string `json:"priceUsd"`
	BaseToken struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	} `json:"baseToken"`
	Liquidity struct {
		Usd float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	PriceChange struct {
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H24 struct {
			Buys  int64 `json:"buys"`
			Sells int64 `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	FDV float64 `json:"fdv"`
}

type dexTokenResponse struct {
	Pairs []dexPair `json:"pairs"`
}

// TokenMarket fetches all pairs for address and merges the Solana ones.
func (d *DexScreener) TokenMarket(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	body, err := d.client.Get(ctx, "/dex/tokens/"+address, nil)
	if err != nil {
		return nil, err
	}

	var resp dexTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("dexscreener: decode pairs: %w", err)
	}

	snap := &domain.MarketSnapshot{
		TokenAddress: address,
		CapturedAt:   time.Now().UTC(),
		Providers:    []string{d.Name()},
	}

	var best *dexPair
	for i := range resp.Pairs {
		p := &resp.Pairs[i]
		if p.ChainID != "solana" {
			continue
		}

		snap.Liquidity += p.Liquidity.Usd
		snap.Volume24h += p.Volume.H24
		snap.BuyCount24h += p.Txns.H24.Buys
		snap.SellCount24h += p.Txns.H24.Sells
		snap.Fields = snap.Fields.
			With(domain.FieldLiquidity).
			With(domain.FieldVolume24h).
			With(domain.FieldBuyCount24h).
			With(domain.FieldSellCount24h)

		if best == nil || p.Liquidity.Usd > best.Liquidity.Usd {
			best = p
		}
	}

	if best == nil {
		// No Solana pair means no market data at all.
		return snap, nil
	}

	if price, err := strconv.ParseFloat(best.PriceUsd, 64); err == nil && best.PriceUsd != "" {
		snap.Price = price
		snap.Fields = snap.Fields.With(domain.FieldPrice)
	}
	snap.PriceChange24h = best.PriceChange.H24
	snap.Fields = snap.Fields.With(domain.FieldPriceChange24h)
	if best.FDV > 0 {
		snap.MarketCap = best.FDV
		snap.Fields = snap.Fields.With(domain.FieldMarketCap)
	}

	return snap, nil
}
