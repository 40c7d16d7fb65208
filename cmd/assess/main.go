// Package main is a one-shot assessment tool: given a token address it
// aggregates a market snapshot, runs the risk checks, computes a composite
// score, and prints a text report.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"solana-token-radar/internal/aggregate"
	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/logging"
	"solana-token-radar/internal/provider"
	"solana-token-radar/internal/risk"
	"solana-token-radar/internal/scan"
	"solana-token-radar/internal/score"
	"solana-token-radar/internal/trend"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	timeout := flag.Duration("timeout", 30*time.Second, "Overall deadline")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: assess [flags] <token-address>")
		os.Exit(2)
	}
	address := flag.Arg(0)
	if err := domain.ValidateAddress(address); err != nil {
		fmt.Fprintf(os.Stderr, "invalid address: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("error", "console")

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := assess(ctx, cfg, log, address); err != nil {
		fmt.Fprintf(os.Stderr, "assess: %v\n", err)
		os.Exit(1)
	}
}

func assess(ctx context.Context, cfg *config.Config, log zerolog.Logger, address string) error {
	dexscreener := provider.NewDexScreener(newClient("dexscreener", cfg.Providers.DexScreener, "", log))
	birdeye := provider.NewBirdeye(newClient("birdeye", cfg.Providers.Birdeye, "X-API-KEY", log))
	rugcheck := provider.NewRugCheck(newClient("rugcheck", cfg.Providers.RugCheck, "", log))

	agg := aggregate.New([]provider.MarketProvider{dexscreener, birdeye}, log)
	tally := scan.NewMentionTally(cfg.Scan.MentionWindow)

	snap, err := agg.Snapshot(ctx, address)
	if err != nil {
		return fmt.Errorf("no market data for %s: %w", address, err)
	}

	riskEngine := risk.NewEngine(rugcheck, agg, tally, risk.Options{
		CacheTTL:     cfg.Risk.CacheTTL,
		MinLiquidity: cfg.Risk.MinLiquidityUSD,
	}, log)
	assessment, err := riskEngine.Assess(ctx, address)
	if err != nil {
		return fmt.Errorf("risk assessment: %w", err)
	}

	trendEngine := trend.NewEngine(birdeye, tally, trend.DefaultThresholds(), log)
	signals := trendEngine.Signals(ctx, address, nil, snap)

	composite := score.NewScorer().Compute(assessment, signals, snap)

	printReport(snap, assessment, signals, composite)
	return nil
}

func newClient(name string, pc config.ProviderConfig, keyHeader string, log zerolog.Logger) *provider.Client {
	opts := []provider.ClientOption{provider.WithLogger(log)}
	if pc.APIKey != "" && keyHeader != "" {
		opts = append(opts, provider.WithAPIKey(keyHeader, pc.APIKey))
	}
	return provider.NewClient(name, pc.BaseURL, opts...)
}

func printReport(snap *domain.MarketSnapshot, a *domain.RiskAssessment, sig *domain.TrendSignals, cs *domain.CompositeScore) {
	fmt.Printf("Token: %s\n", snap.TokenAddress)
	fmt.Printf("Providers: %s\n\n", strings.Join(snap.Providers, ", "))

	fmt.Println("Market")
	printMetric(snap, domain.FieldPrice, "  price", "$%.8f", snap.Price)
	printMetric(snap, domain.FieldMarketCap, "  market cap", "$%.0f", snap.MarketCap)
	printMetric(snap, domain.FieldVolume24h, "  volume 24h", "$%.0f", snap.Volume24h)
	printMetric(snap, domain.FieldLiquidity, "  liquidity", "$%.0f", snap.Liquidity)
	printMetric(snap, domain.FieldHolderCount, "  holders", "%.0f", float64(snap.HolderCount))
	printMetric(snap, domain.FieldPriceChange24h, "  change 24h", "%.1f%%", snap.PriceChange24h)

	fmt.Printf("\nRisk: %.1f/100 (confidence %.0f%%)\n", a.OverallScore, a.DataConfidence*100)
	kinds := make([]string, 0, len(a.Checks))
	for kind := range a.Checks {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)
	for _, kind := range kinds {
		check := a.Checks[domain.CheckKind(kind)]
		if check.Err != "" {
			fmt.Printf("  %-22s unavailable (%s)\n", strings.ToLower(kind), check.Err)
			continue
		}
		fmt.Printf("  %-22s %5.1f  %s\n", strings.ToLower(kind), check.Score, check.Detail)
	}
	for _, warning := range a.Warnings {
		fmt.Printf("  ! %s\n", warning)
	}

	fmt.Printf("\nTrend: volume %.2f, holders %.2f, whales %.2f, social %.2f",
		sig.Volume, sig.Holders, sig.Whales, sig.Social)
	if sig.ColdStart {
		fmt.Print(" (cold start)")
	}
	fmt.Println()

	fmt.Printf("\nSafety %.1f | Hype %.1f | Combined %.1f\n", cs.Safety, cs.Hype, cs.Combined)
	fmt.Printf("Verdict: %s (confidence %.0f%%)\n", cs.Verdict, cs.Confidence*100)
	for _, rec := range a.Recommendations {
		fmt.Printf("  -> %s\n", rec)
	}
}

func printMetric(snap *domain.MarketSnapshot, f domain.Field, label, format string, value float64) {
	if !snap.Fields.Has(f) {
		fmt.Printf("%-14s n/a\n", label)
		return
	}
	fmt.Printf("%-14s "+format+"\n", label, value)
}
