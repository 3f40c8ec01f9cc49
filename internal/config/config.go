// Package config defines the top-level configuration for the arbitrage
// scanner and provides validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by ARBSCAN_* environment
// variables.
type Config struct {
	Polymarket PolymarketConfig `toml:"polymarket"`
	Kalshi     KalshiConfig     `toml:"kalshi"`
	Scanner    ScannerConfig    `toml:"scanner"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	LogLevel   string           `toml:"log_level"`
}

// PolymarketConfig holds Polymarket Gamma API parameters. The Gamma market
// discovery endpoints are unauthenticated.
type PolymarketConfig struct {
	GammaHost         string  `toml:"gamma_host"`
	EventLimit        int     `toml:"event_limit"`
	MaxResolutionDays int     `toml:"max_resolution_days"`
	FeeRate           float64 `toml:"fee_rate"`
}

// KalshiConfig holds Kalshi exchange API credentials. The RSA private key may
// be given as a plain PEM file or as an encrypted key file plus password.
type KalshiConfig struct {
	BaseURL           string  `toml:"base_url"`
	ApiKey            string  `toml:"api_key"`
	RsaPrivateKeyPath string  `toml:"rsa_private_key_path"`
	EncryptedKeyPath  string  `toml:"encrypted_key_path"`
	KeyPassword       string  `toml:"key_password"`
	PageLimit         int     `toml:"page_limit"`
	MaxResolutionDays int     `toml:"max_resolution_days"`
	FeeRate           float64 `toml:"fee_rate"`
}

// ScannerConfig holds the scan-loop tunables.
type ScannerConfig struct {
	Interval     duration `toml:"interval"`
	FetchTimeout duration `toml:"fetch_timeout"`

	TitleSimilarityThreshold float64  `toml:"title_similarity_threshold"`
	DateMatchToleranceDays   int      `toml:"date_match_tolerance_days"`
	MinProfitAfterFeesPct    float64  `toml:"min_profit_after_fees_pct"`
	AlertCooldown            duration `toml:"alert_cooldown"`

	StatsPath    string `toml:"stats_path"`
	HistorySize  int    `toml:"history_size"`
	StartupAlert bool   `toml:"startup_alert"`
}

// PostgresConfig holds connection parameters for the optional
// opportunity-history store. History is disabled when both DSN and Host are
// empty.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// Enabled reports whether a database connection is configured.
func (c PostgresConfig) Enabled() bool {
	return c.DSN != "" || c.Host != ""
}

// RedisConfig holds connection parameters for the optional durable alert
// cooldown store. Cooldowns stay in process memory when Addr is empty.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// Enabled reports whether Redis is configured.
func (c RedisConfig) Enabled() bool { return c.Addr != "" }

// S3Config holds parameters for the optional snapshot publisher. Publishing
// is disabled when Bucket is empty.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	Prefix         string `toml:"prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// Enabled reports whether snapshot publishing is configured.
func (c S3Config) Enabled() bool { return c.Bucket != "" }

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string `toml:"telegram_token"`
	TelegramChatID    string `toml:"telegram_chat_id"`
	DiscordWebhookURL string `toml:"discord_webhook_url"`
}

// duration is a wrapper around time.Duration that supports TOML string
// decoding (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Defaults returns a Config populated with reasonable default values. These
// match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			GammaHost:         "https://gamma-api.polymarket.com",
			EventLimit:        50,
			MaxResolutionDays: 3,
			FeeRate:           0.002,
		},
		Kalshi: KalshiConfig{
			BaseURL:           "https://api.elections.kalshi.com/trade-api/v2",
			PageLimit:         200,
			MaxResolutionDays: 3,
			FeeRate:           0.0,
		},
		Scanner: ScannerConfig{
			Interval:                 duration{60 * time.Second},
			FetchTimeout:             duration{30 * time.Second},
			TitleSimilarityThreshold: 0.5,
			DateMatchToleranceDays:   3,
			MinProfitAfterFeesPct:    0.5,
			AlertCooldown:            duration{30 * time.Minute},
			StatsPath:                "dashboard_stats.json",
			HistorySize:              100,
			StartupAlert:             true,
		},
		Postgres: PostgresConfig{
			Port:          5432,
			Database:      "arbscan",
			User:          "arbscan",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Region:         "us-east-1",
			Prefix:         "stats",
			UseSSL:         true,
			ForcePathStyle: false,
		},
		LogLevel: "info",
	}
}

// Validate checks the configuration for fatal errors before the scan loop
// starts. A validation failure exits the process non-zero at startup.
func (c *Config) Validate() error {
	if c.Polymarket.GammaHost == "" {
		return fmt.Errorf("config: polymarket.gamma_host is required")
	}
	if c.Kalshi.BaseURL == "" {
		return fmt.Errorf("config: kalshi.base_url is required")
	}
	if c.Kalshi.ApiKey == "" {
		return fmt.Errorf("config: kalshi.api_key is required")
	}
	if c.Kalshi.RsaPrivateKeyPath == "" && c.Kalshi.EncryptedKeyPath == "" {
		return fmt.Errorf("config: one of kalshi.rsa_private_key_path or kalshi.encrypted_key_path is required")
	}
	if c.Kalshi.EncryptedKeyPath != "" && c.Kalshi.KeyPassword == "" {
		return fmt.Errorf("config: kalshi.key_password is required with kalshi.encrypted_key_path")
	}

	s := c.Scanner
	if s.Interval.Duration <= 0 {
		return fmt.Errorf("config: scanner.interval must be positive, got %s", s.Interval)
	}
	if s.FetchTimeout.Duration <= 0 {
		return fmt.Errorf("config: scanner.fetch_timeout must be positive, got %s", s.FetchTimeout)
	}
	if s.TitleSimilarityThreshold <= 0 || s.TitleSimilarityThreshold > 1 {
		return fmt.Errorf("config: scanner.title_similarity_threshold must be in (0,1], got %g", s.TitleSimilarityThreshold)
	}
	if s.DateMatchToleranceDays < 0 {
		return fmt.Errorf("config: scanner.date_match_tolerance_days must not be negative, got %d", s.DateMatchToleranceDays)
	}
	if s.AlertCooldown.Duration < 0 {
		return fmt.Errorf("config: scanner.alert_cooldown must not be negative, got %s", s.AlertCooldown)
	}
	if s.StatsPath == "" {
		return fmt.Errorf("config: scanner.stats_path is required")
	}
	if s.HistorySize <= 0 {
		return fmt.Errorf("config: scanner.history_size must be positive, got %d", s.HistorySize)
	}

	if c.Polymarket.FeeRate < 0 || c.Kalshi.FeeRate < 0 {
		return fmt.Errorf("config: fee rates must not be negative")
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unsupported log_level %q", c.LogLevel)
	}

	return nil
}
