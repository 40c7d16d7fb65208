// Package config loads application configuration from file and environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Providers ProvidersConfig `mapstructure:"providers"`
	Scan      ScanConfig      `mapstructure:"scan"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Monitor   MonitorConfig   `mapstructure:"monitor"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds the HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StorageConfig selects and configures the persistence backends.
type StorageConfig struct {
	Backend            string `mapstructure:"backend"` // memory or postgres
	PostgresDSN        string `mapstructure:"postgres_dsn"`
	ClickHouseDSN      string `mapstructure:"clickhouse_dsn"`
	ClickHouseDatabase string `mapstructure:"clickhouse_database"`
}

// ProviderConfig configures one upstream API.
type ProviderConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	RateCalls  int           `mapstructure:"rate_calls"`
	RateWindow time.Duration `mapstructure:"rate_window"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	RetryBase  time.Duration `mapstructure:"retry_base"`
}

// ProvidersConfig holds every upstream the radar talks to.
type ProvidersConfig struct {
	DexScreener ProviderConfig `mapstructure:"dexscreener"`
	Birdeye     ProviderConfig `mapstructure:"birdeye"`
	RugCheck    ProviderConfig `mapstructure:"rugcheck"`
	PumpFun     ProviderConfig `mapstructure:"pumpfun"`
	Reddit      ProviderConfig `mapstructure:"reddit"`
	GitHub      ProviderConfig `mapstructure:"github"`
	// Feeds fetches arbitrary RSS/Atom URLs; its base_url stays empty so
	// source identifiers can be full URLs.
	Feeds ProviderConfig `mapstructure:"feeds"`
}

// ScanConfig configures mention tallying and seeds monitored sources.
type ScanConfig struct {
	MentionWindow time.Duration `mapstructure:"mention_window"`
	Sources       []SourceSeed  `mapstructure:"sources"`
}

// SourceSeed declares one monitored source to register at startup.
type SourceSeed struct {
	Type         string        `mapstructure:"type"`
	Identifier   string        `mapstructure:"identifier"`
	Name         string        `mapstructure:"name"`
	ScanInterval time.Duration `mapstructure:"scan_interval"`
	Weight       float64       `mapstructure:"weight"`
	Keywords     []string      `mapstructure:"keywords"`
	Patterns     []string      `mapstructure:"patterns"`
}

// RiskConfig tunes the risk engine.
type RiskConfig struct {
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MinLiquidityUSD float64       `mapstructure:"min_liquidity_usd"`
}

// MonitorConfig tunes the refresh loop and the validation gate.
type MonitorConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
	MaxConcurrent   int           `mapstructure:"max_concurrent"`
	StaleRetention  time.Duration `mapstructure:"stale_retention"`
	MinLiquidityUSD float64       `mapstructure:"min_liquidity_usd"`
	MinHolders      int64         `mapstructure:"min_holders"`
	MaxOwnerPct     float64       `mapstructure:"max_owner_pct"`
}

// AlertsConfig tunes the alert rules.
type AlertsConfig struct {
	PriceChangePct    float64       `mapstructure:"price_change_pct"`
	VolumeRatio       float64       `mapstructure:"volume_ratio"`
	HolderGrowthPct   float64       `mapstructure:"holder_growth_pct"`
	ScoreDrop         float64       `mapstructure:"score_drop"`
	LiquidityDrainPct float64       `mapstructure:"liquidity_drain_pct"`
	Cooldown          time.Duration `mapstructure:"cooldown"`
}

// TelegramConfig holds Telegram bot configuration and seeds alert channels.
type TelegramConfig struct {
	BotToken string         `mapstructure:"bot_token"`
	Enabled  bool           `mapstructure:"enabled"`
	Chats    []TelegramChat `mapstructure:"chats"`
}

// TelegramChat declares one alert delivery chat.
type TelegramChat struct {
	ChatID            string `mapstructure:"chat_id"`
	MinPriority       string `mapstructure:"min_priority"`
	MessagesPerMinute int    `mapstructure:"messages_per_minute"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from the file at path and RADAR_* environment
// variables. An empty path loads defaults and environment only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", "15s")

	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.clickhouse_database", "radar")

	v.SetDefault("providers.dexscreener.base_url", "https://api.dexscreener.com/latest")
	v.SetDefault("providers.dexscreener.rate_calls", 5)
	v.SetDefault("providers.dexscreener.rate_window", "1s")
	v.SetDefault("providers.birdeye.base_url", "https://public-api.birdeye.so")
	v.SetDefault("providers.birdeye.rate_calls", 2)
	v.SetDefault("providers.birdeye.rate_window", "1s")
	v.SetDefault("providers.rugcheck.base_url", "https://api.rugcheck.xyz/v1")
	v.SetDefault("providers.rugcheck.rate_calls", 2)
	v.SetDefault("providers.rugcheck.rate_window", "1s")
	v.SetDefault("providers.pumpfun.base_url", "https://frontend-api.pump.fun")
	v.SetDefault("providers.pumpfun.rate_calls", 1)
	v.SetDefault("providers.pumpfun.rate_window", "1s")
	v.SetDefault("providers.reddit.base_url", "https://www.reddit.com")
	v.SetDefault("providers.reddit.rate_calls", 1)
	v.SetDefault("providers.reddit.rate_window", "2s")
	v.SetDefault("providers.github.base_url", "https://api.github.com")
	v.SetDefault("providers.github.rate_calls", 1)
	v.SetDefault("providers.github.rate_window", "2s")
	v.SetDefault("providers.feeds.rate_calls", 1)
	v.SetDefault("providers.feeds.rate_window", "2s")

	v.SetDefault("scan.mention_window", "24h")

	v.SetDefault("risk.cache_ttl", "5m")
	v.SetDefault("risk.min_liquidity_usd", 10000)

	v.SetDefault("monitor.refresh_interval", "1m")
	v.SetDefault("monitor.max_concurrent", 8)
	v.SetDefault("monitor.stale_retention", "1h")
	v.SetDefault("monitor.min_liquidity_usd", 10000)
	v.SetDefault("monitor.min_holders", 50)
	v.SetDefault("monitor.max_owner_pct", 0.5)

	v.SetDefault("alerts.price_change_pct", 20)
	v.SetDefault("alerts.volume_ratio", 3)
	v.SetDefault("alerts.holder_growth_pct", 10)
	v.SetDefault("alerts.score_drop", 20)
	v.SetDefault("alerts.liquidity_drain_pct", 30)
	v.SetDefault("alerts.cooldown", "30m")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required for the postgres backend")
		}
		if c.Storage.ClickHouseDSN == "" {
			return fmt.Errorf("storage.clickhouse_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or postgres")
	}

	if c.Monitor.RefreshInterval < 10*time.Second {
		return fmt.Errorf("monitor.refresh_interval must be at least 10 seconds")
	}
	if c.Monitor.MaxConcurrent < 1 {
		return fmt.Errorf("monitor.max_concurrent must be at least 1")
	}
	if c.Monitor.MinHolders < 0 {
		return fmt.Errorf("monitor.min_holders must not be negative")
	}
	if c.Monitor.MaxOwnerPct < 0 || c.Monitor.MaxOwnerPct > 1 {
		return fmt.Errorf("monitor.max_owner_pct must be within [0, 1]")
	}

	if c.Alerts.Cooldown < time.Minute {
		return fmt.Errorf("alerts.cooldown must be at least 1 minute")
	}
	if c.Alerts.PriceChangePct <= 0 {
		return fmt.Errorf("alerts.price_change_pct must be positive")
	}

	for i, src := range c.Scan.Sources {
		if src.Type == "" || src.Identifier == "" {
			return fmt.Errorf("scan.sources[%d]: type and identifier are required", i)
		}
	}

	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required when telegram is enabled")
	}
	for i, chat := range c.Telegram.Chats {
		if chat.ChatID == "" {
			return fmt.Errorf("telegram.chats[%d]: chat_id is required", i)
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, console")
	}
	return nil
}
