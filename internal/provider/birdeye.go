package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"solana-token-radar/internal/domain"
)

// BirdeyeBaseURL is the public Birdeye API root.
const BirdeyeBaseURL = "https://public-api.birdeye.so"

// Birdeye adapts the Birdeye token overview API. It is the only provider
// reporting holder counts, and also serves whale activity.
type Birdeye struct {
	client *Client
	// Transfers at or above this USD size count as whale activity.
	WhaleMinUSD float64
}

// NewBirdeye creates the adapter on top of a fetch client.
func NewBirdeye(client *Client) *Birdeye {
	return &Birdeye{client: client, WhaleMinUSD: 10_000}
}

// Compile-time interface checks.
var (
	_ MarketProvider = (*Birdeye)(nil)
	_ WhaleProvider  = (*Birdeye)(nil)
)

// Name returns the provider name.
func (b *Birdeye) Name() string { return b.client.Name() }

type birdeyeOverview struct {
	Data struct {
		Price             float64 `json:"price"`
		MC                float64 `json:"mc"`
		Liquidity         float64 `json:"liquidity"`
		V24hUSD           float64 `json:"v24hUSD"`
		Holder            int64   `json:"holder"`
		Buy24h            int64   `json:"buy24h"`
		Sell24h           int64   `json:"sell24h"`
		PriceChange24hPct float64 `json:"priceChange24hPercent"`
	} `json:"data"`
	Success bool `json:"success"`
}

// TokenMarket fetches the token overview.
func (b *Birdeye) TokenMarket(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	body, err := b.client.Get(ctx, "/defi/token_overview", url.Values{"address": {address}})
	if err != nil {
		return nil, err
	}

	var resp birdeyeOverview
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("birdeye: decode overview: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("birdeye: overview request unsuccessful for %s", address)
	}

	d := resp.Data
	snap := &domain.MarketSnapshot{
		TokenAddress:   address,
		CapturedAt:     time.Now().UTC(),
		Price:          d.Price,
		MarketCap:      d.MC,
		Volume24h:      d.V24hUSD,
		Liquidity:      d.Liquidity,
		HolderCount:    d.Holder,
		BuyCount24h:    d.Buy24h,
		SellCount24h:   d.Sell24h,
		PriceChange24h: d.PriceChange24hPct,
		Providers:      []string{b.Name()},
	}

	if d.Price > 0 {
		snap.Fields = snap.Fields.With(domain.FieldPrice).With(domain.FieldPriceChange24h)
	}
	if d.MC > 0 {
		snap.Fields = snap.Fields.With(domain.FieldMarketCap)
	}
	if d.Liquidity > 0 {
		snap.Fields = snap.Fields.With(domain.FieldLiquidity)
	}
	if d.V24hUSD > 0 {
		snap.Fields = snap.Fields.With(domain.FieldVolume24h)
	}
	if d.Holder > 0 {
		snap.Fields = snap.Fields.With(domain.FieldHolderCount)
	}
	if d.Buy24h > 0 || d.Sell24h > 0 {
		snap.Fields = snap.Fields.With(domain.FieldBuyCount24h).With(domain.FieldSellCount24h)
	}

	return snap, nil
}

type birdeyeTxs struct {
	Data struct {
		Items []struct {
			Side      string  `json:"side"`
			VolumeUSD float64 `json:"volumeUSD"`
		} `json:"items"`
	} `json:"data"`
	Success bool `json:"success"`
}

// TokenWhales counts recent swaps at or above the whale threshold.
func (b *Birdeye) TokenWhales(ctx context.Context, address string) (*domain.WhaleStats, error) {
	body, err := b.client.Get(ctx, "/defi/txs/token", url.Values{
		"address": {address},
		"tx_type": {"swap"},
		"limit":   {"50"},
	})
	if err != nil {
		return nil, err
	}

	var resp birdeyeTxs
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("birdeye: decode txs: %w", err)
	}
	if !resp.Success {
		return nil, fmt.Errorf("birdeye: txs request unsuccessful for %s", address)
	}

	stats := &domain.WhaleStats{
		TokenAddress: address,
		FetchedAt:    time.Now().UTC(),
	}
	for _, item := range resp.Data.Items {
		if item.VolumeUSD < b.WhaleMinUSD {
			continue
		}
		if item.Side == "buy" {
			stats.BuyCount++
		} else {
			stats.SellCount++
		}
		if item.VolumeUSD > stats.LargestUSD {
			stats.LargestUSD = item.VolumeUSD
		}
	}
	return stats, nil
}
