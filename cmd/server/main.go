// Package main runs the token radar daemon: source scanning, candidate
// gating, periodic refresh with scoring and alerting, and the broadcast
// surfaces (WebSocket, Telegram, Prometheus).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"solana-token-radar/internal/aggregate"
	"solana-token-radar/internal/alert"
	"solana-token-radar/internal/broadcast"
	"solana-token-radar/internal/config"
	"solana-token-radar/internal/domain"
	"solana-token-radar/internal/logging"
	"solana-token-radar/internal/monitor"
	"solana-token-radar/internal/notify"
	"solana-token-radar/internal/observability"
	"solana-token-radar/internal/provider"
	"solana-token-radar/internal/risk"
	"solana-token-radar/internal/scan"
	"solana-token-radar/internal/score"
	"solana-token-radar/internal/storage"
	chstore "solana-token-radar/internal/storage/clickhouse"
	"solana-token-radar/internal/storage/memory"
	"solana-token-radar/internal/storage/migrations"
	pgstore "solana-token-radar/internal/storage/postgres"
	"solana-token-radar/internal/trend"
)

type stores struct {
	tokens    storage.TokenStore
	snapshots storage.SnapshotStore
	scores    storage.ScoreStore
	alerts    storage.AlertStore
	sources   storage.SourceStore
	mentions  storage.MentionStore
	channels  storage.ChannelStore
}

func main() {
	configPath := flag.String("config", "", "Path to config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, cancel, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("shutdown complete")
}

func run(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, log zerolog.Logger) error {
	st, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		return fmt.Errorf("create stores: %w", err)
	}
	defer cleanup()

	// Providers.
	dexClient := newProviderClient("dexscreener", cfg.Providers.DexScreener, "", log)
	birdeyeClient := newProviderClient("birdeye", cfg.Providers.Birdeye, "X-API-KEY", log)
	rugClient := newProviderClient("rugcheck", cfg.Providers.RugCheck, "", log)
	pumpClient := newProviderClient("pumpfun", cfg.Providers.PumpFun, "", log)
	redditClient := newProviderClient("reddit", cfg.Providers.Reddit, "", log)
	githubClient := newProviderClient("github", cfg.Providers.GitHub, "Authorization", log)
	feedClient := newProviderClient("feeds", cfg.Providers.Feeds, "", log)

	dexscreener := provider.NewDexScreener(dexClient)
	birdeye := provider.NewBirdeye(birdeyeClient)
	rugcheck := provider.NewRugCheck(rugClient)
	pumpfun := provider.NewPumpFun(pumpClient)

	agg := aggregate.New([]provider.MarketProvider{dexscreener, birdeye}, log)
	tally := scan.NewMentionTally(cfg.Scan.MentionWindow)

	// Engines.
	riskEngine := risk.NewEngine(rugcheck, agg, tally, risk.Options{
		CacheTTL:     cfg.Risk.CacheTTL,
		MinLiquidity: cfg.Risk.MinLiquidityUSD,
	}, log)
	trendEngine := trend.NewEngine(birdeye, tally, trend.DefaultThresholds(), log)
	scorer := score.NewScorer()
	alertEngine := alert.NewEngine(st.alerts, alert.Thresholds{
		PriceChangePct:    cfg.Alerts.PriceChangePct,
		VolumeRatio:       cfg.Alerts.VolumeRatio,
		HolderGrowthPct:   cfg.Alerts.HolderGrowthPct,
		ScoreDrop:         cfg.Alerts.ScoreDrop,
		LiquidityDrainPct: cfg.Alerts.LiquidityDrainPct,
		Cooldown:          cfg.Alerts.Cooldown,
	}, log)

	hub := broadcast.NewHub(log)
	defer hub.Close()

	orch := monitor.NewOrchestrator(
		agg, rugcheck, riskEngine, trendEngine, scorer, alertEngine, hub,
		st.tokens, st.snapshots, st.scores,
		monitor.GatePolicy{
			MinLiquidityUSD: cfg.Monitor.MinLiquidityUSD,
			MinHolders:      cfg.Monitor.MinHolders,
			MaxOwnerPct:     cfg.Monitor.MaxOwnerPct,
		},
		monitor.Options{
			RefreshInterval: cfg.Monitor.RefreshInterval,
			MaxConcurrent:   cfg.Monitor.MaxConcurrent,
			StaleRetention:  cfg.Monitor.StaleRetention,
		},
		log,
	)

	// Scanners. The Telegram bot, when configured, serves both chat
	// scanning and alert delivery.
	scanners := []scan.Scanner{
		scan.NewFeedScanner(feedClient),
		scan.NewSocialScanner(redditClient),
		scan.NewRepositoryScanner(githubClient),
		scan.NewDexScanner(pumpfun),
	}

	var chatScanner *scan.ChatScanner
	if cfg.Telegram.Enabled {
		bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
		if err != nil {
			return fmt.Errorf("telegram bot: %w", err)
		}
		chatScanner = scan.NewChatScanner(bot)
		scanners = append(scanners, chatScanner)

		if err := seedChannels(ctx, st.channels, cfg.Telegram.Chats); err != nil {
			return fmt.Errorf("seed telegram channels: %w", err)
		}
		telegram := notify.NewTelegram(bot, st.channels, log)
		telegram.Attach(hub)
	}

	manager := scan.NewManager(scan.NewRegistry(scanners...), tally, st.sources, st.mentions, orch.Intake, log)
	if err := seedSources(ctx, st.sources, cfg.Scan.Sources); err != nil {
		return fmt.Errorf("seed sources: %w", err)
	}

	// HTTP surface.
	ws := notify.NewWSBridge(hub, log)
	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newMux(orch, st.alerts, ws),
	}

	started := time.Now()
	errCh := make(chan error, 4)

	go func() {
		if err := orch.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("monitor: %w", err)
		}
	}()
	go func() {
		if err := manager.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- fmt.Errorf("scan manager: %w", err)
		}
	}()
	if chatScanner != nil {
		go chatScanner.Run(ctx)
	}
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				observability.RecordUptime(15)
			}
		}
	}()

	log.Info().
		Str("backend", cfg.Storage.Backend).
		Int("sources", len(cfg.Scan.Sources)).
		Msg("radar started")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-errCh:
		cancel()
		shutdownHTTP(httpServer, cfg.Server.ShutdownTimeout)
		return err
	case <-ctx.Done():
	}
	cancel()

	// A second signal forces exit; otherwise allow the grace period.
	forced := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("second signal, forcing exit")
			os.Exit(1)
		case <-time.After(30 * time.Second):
			log.Warn().Msg("graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-forced:
		}
	}()

	shutdownHTTP(httpServer, cfg.Server.ShutdownTimeout)
	close(forced)
	log.Info().Dur("uptime", time.Since(started)).Msg("stopped")
	return nil
}

func shutdownHTTP(srv *http.Server, timeout time.Duration) {
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
}

// newProviderClient builds a fetch client from one provider's config
// section. keyHeader is the header the upstream expects the API key in.
func newProviderClient(name string, pc config.ProviderConfig, keyHeader string, log zerolog.Logger) *provider.Client {
	opts := []provider.ClientOption{
		provider.WithLogger(log),
	}
	if pc.RateCalls > 0 && pc.RateWindow > 0 {
		opts = append(opts, provider.WithRateLimit(pc.RateCalls, pc.RateWindow))
	}
	if pc.CacheTTL > 0 {
		opts = append(opts, provider.WithCacheTTL(pc.CacheTTL, 0))
	}
	if pc.Timeout > 0 {
		opts = append(opts, provider.WithTimeout(pc.Timeout))
	}
	if pc.MaxRetries > 0 {
		opts = append(opts, provider.WithRetry(pc.MaxRetries, pc.RetryBase))
	}
	if pc.APIKey != "" && keyHeader != "" {
		key := pc.APIKey
		if keyHeader == "Authorization" {
			key = "Bearer " + key
		}
		opts = append(opts, provider.WithAPIKey(keyHeader, key))
	}
	return provider.NewClient(name, pc.BaseURL, opts...)
}

func createStores(ctx context.Context, cfg *config.Config) (*stores, func(), error) {
	if cfg.Storage.Backend == "memory" {
		return &stores{
			tokens:    memory.NewTokenStore(),
			snapshots: memory.NewSnapshotStore(),
			scores:    memory.NewScoreStore(),
			alerts:    memory.NewAlertStore(),
			sources:   memory.NewSourceStore(),
			mentions:  memory.NewMentionStore(),
			channels:  memory.NewChannelStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickHouseDSN)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
	}

	st := &stores{
		tokens:    pgstore.NewTokenStore(pool),
		alerts:    pgstore.NewAlertStore(pool),
		sources:   pgstore.NewSourceStore(pool),
		mentions:  pgstore.NewMentionStore(pool),
		channels:  pgstore.NewChannelStore(pool),
		snapshots: chstore.NewSnapshotStore(conn),
		scores:    chstore.NewScoreStore(conn),
	}
	cleanup := func() {
		_ = conn.Close()
		pool.Close()
	}
	return st, cleanup, nil
}

// seedSources registers configured sources, skipping ones already stored.
func seedSources(ctx context.Context, store storage.SourceStore, seeds []config.SourceSeed) error {
	for _, seed := range seeds {
		interval := seed.ScanInterval
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		weight := seed.Weight
		if weight <= 0 {
			weight = 1
		}
		src := &domain.MonitoredSource{
			ID:           uuid.NewString(),
			Type:         domain.SourceType(seed.Type),
			Identifier:   seed.Identifier,
			Name:         seed.Name,
			Active:       true,
			Weight:       weight,
			ScanInterval: interval,
			Keywords:     seed.Keywords,
			Patterns:     seed.Patterns,
			AddedAt:      time.Now().UTC(),
		}
		if err := src.Validate(); err != nil {
			return fmt.Errorf("source %s/%s: %w", seed.Type, seed.Identifier, err)
		}
		if err := store.Insert(ctx, src); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
	}
	return nil
}

func seedChannels(ctx context.Context, store storage.ChannelStore, chats []config.TelegramChat) error {
	for _, chat := range chats {
		minPriority := domain.AlertPriority(chat.MinPriority)
		if minPriority == "" {
			minPriority = domain.PriorityMedium
		}
		ch := &domain.Channel{
			ID:                uuid.NewString(),
			Type:              domain.ChannelTelegram,
			Identifier:        chat.ChatID,
			Active:            true,
			MessagesPerMinute: chat.MessagesPerMinute,
			MinPriority:       minPriority,
			AddedAt:           time.Now().UTC(),
		}
		if err := store.Insert(ctx, ch); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return err
		}
	}
	return nil
}

func newMux(orch *monitor.Orchestrator, alerts storage.AlertStore, ws *notify.WSBridge) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.Handle("/ws", ws)

	started := time.Now()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		recent, err := alerts.Recent(r.Context(), 20)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		tracked := orch.Tracked()
		tokens := make([]statusToken, 0, len(tracked))
		for _, state := range tracked {
			st := statusToken{Address: state.Token.Address, Symbol: state.Token.Symbol}
			if state.Score != nil {
				st.Verdict = string(state.Score.Verdict)
				st.Combined = state.Score.Combined
			}
			st.Stale = !state.StaleSince.IsZero()
			tokens = append(tokens, st)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(statusResponse{
			Status:       "running",
			Uptime:       time.Since(started).String(),
			TrackedCount: len(tokens),
			Tokens:       tokens,
			RecentAlerts: recent,
			RiskVerdict:  string(domain.VerdictForAlerts(recent)),
		})
	})

	return mux
}

type statusToken struct {
	Address  string  `json:"address"`
	Symbol   string  `json:"symbol,omitempty"`
	Verdict  string  `json:"verdict,omitempty"`
	Combined float64 `json:"combined,omitempty"`
	Stale    bool    `json:"stale,omitempty"`
}

type statusResponse struct {
	Status       string          `json:"status"`
	Uptime       string          `json:"uptime"`
	TrackedCount int             `json:"tracked_count"`
	Tokens       []statusToken   `json:"tokens"`
	RecentAlerts []*domain.Alert `json:"recent_alerts"`
	RiskVerdict  string          `json:"risk_verdict"`
}
