// Package aggregate merges market data from multiple providers into a
// single conservative snapshot.
package aggregate

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/provider"
)

// ErrNoData is returned when every provider failed and the snapshot holds
// nothing. Callers must not persist such a snapshot.
var ErrNoData = errors.New("no provider returned data")

// Aggregator queries all configured market providers concurrently and
// merges their answers field by field, preferring the conservative value
// wherever more than one provider reported.
type Aggregator struct {
	providers []provider.MarketProvider
	log       zerolog.Logger
}

// New creates an aggregator over the given providers.
func New(providers []provider.MarketProvider, log zerolog.Logger) *Aggregator {
	return &Aggregator{
		providers: providers,
		log:       log.With().Str("component", "aggregate").Logger(),
	}
}

// Snapshot fetches and merges market data for address. Individual provider
// failures are logged and tolerated; if all fail, an empty snapshot and
// ErrNoData are returned.
func (a *Aggregator) Snapshot(ctx context.Context, address string) (*domain.MarketSnapshot, error) {
	results := make([]*domain.MarketSnapshot, len(a.providers))

	var wg sync.WaitGroup
	for i, p := range a.providers {
		wg.Add(1)
		go func(i int, p provider.MarketProvider) {
			defer wg.Done()
			snap, err := p.TokenMarket(ctx, address)
			if err != nil {
				a.log.Warn().Err(err).Str("provider", p.Name()).Str("token", address).Msg("provider fetch failed")
				return
			}
			results[i] = snap
		}(i, p)
	}
	wg.Wait()

	merged := &domain.MarketSnapshot{
		TokenAddress: address,
		CapturedAt:   time.Now().UTC(),
	}
	for _, snap := range results {
		if snap == nil || snap.Fields.IsEmpty() {
			continue
		}
		mergeSnapshot(merged, snap)
	}

	if merged.Fields.IsEmpty() {
		return merged, ErrNoData
	}
	return merged, nil
}

// mergeSnapshot folds src into dst. Numeric market fields take the minimum
// when both sides reported; count fields take the maximum, since missing
// trades are more likely than phantom ones.
func mergeSnapshot(dst, src *domain.MarketSnapshot) {
	mergeMin(&dst.Price, src.Price, domain.FieldPrice, dst, src)
	mergeMin(&dst.MarketCap, src.MarketCap, domain.FieldMarketCap, dst, src)
	mergeMin(&dst.Volume24h, src.Volume24h, domain.FieldVolume24h, dst, src)
	mergeMin(&dst.Liquidity, src.Liquidity, domain.FieldLiquidity, dst, src)

	if src.Fields.Has(domain.FieldHolderCount) {
		if !dst.Fields.Has(domain.FieldHolderCount) || src.HolderCount < dst.HolderCount {
			dst.HolderCount = src.HolderCount
		}
		dst.Fields = dst.Fields.With(domain.FieldHolderCount)
	}
	if src.Fields.Has(domain.FieldBuyCount24h) {
		if !dst.Fields.Has(domain.FieldBuyCount24h) || src.BuyCount24h > dst.BuyCount24h {
			dst.BuyCount24h = src.BuyCount24h
		}
		dst.Fields = dst.Fields.With(domain.FieldBuyCount24h)
	}
	if src.Fields.Has(domain.FieldSellCount24h) {
		if !dst.Fields.Has(domain.FieldSellCount24h) || src.SellCount24h > dst.SellCount24h {
			dst.SellCount24h = src.SellCount24h
		}
		dst.Fields = dst.Fields.With(domain.FieldSellCount24h)
	}
	if src.Fields.Has(domain.FieldPriceChange24h) && !dst.Fields.Has(domain.FieldPriceChange24h) {
		dst.PriceChange24h = src.PriceChange24h
		dst.Fields = dst.Fields.With(domain.FieldPriceChange24h)
	}

	dst.Providers = append(dst.Providers, src.Providers...)
}

// mergeMin writes the smaller of the two reported values into dst.
func mergeMin(dstVal *float64, srcVal float64, f domain.Field, dst, src *domain.MarketSnapshot) {
	if !src.Fields.Has(f) {
		return
	}
	if !dst.Fields.Has(f) || srcVal < *dstVal {
		*dstVal = srcVal
	}
	dst.Fields = dst.Fields.With(f)
}
