package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBSCAN_* environment variable overrides, and
// returns the final Config. A missing config file is not an error; the
// defaults plus environment variables apply. The returned Config has NOT been
// validated; the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBSCAN_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Polymarket ──
	setStr(&cfg.Polymarket.GammaHost, "ARBSCAN_POLYMARKET_GAMMA_HOST")
	setInt(&cfg.Polymarket.EventLimit, "ARBSCAN_POLYMARKET_EVENT_LIMIT")
	setInt(&cfg.Polymarket.MaxResolutionDays, "ARBSCAN_POLYMARKET_MAX_RESOLUTION_DAYS")
	setFloat64(&cfg.Polymarket.FeeRate, "ARBSCAN_POLYMARKET_FEE_RATE")

	// ── Kalshi ──
	setStr(&cfg.Kalshi.BaseURL, "ARBSCAN_KALSHI_BASE_URL")
	setStr(&cfg.Kalshi.ApiKey, "ARBSCAN_KALSHI_API_KEY")
	setStr(&cfg.Kalshi.RsaPrivateKeyPath, "ARBSCAN_KALSHI_RSA_PRIVATE_KEY_PATH")
	setStr(&cfg.Kalshi.EncryptedKeyPath, "ARBSCAN_KALSHI_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Kalshi.KeyPassword, "ARBSCAN_KALSHI_KEY_PASSWORD")
	setInt(&cfg.Kalshi.PageLimit, "ARBSCAN_KALSHI_PAGE_LIMIT")
	setInt(&cfg.Kalshi.MaxResolutionDays, "ARBSCAN_KALSHI_MAX_RESOLUTION_DAYS")
	setFloat64(&cfg.Kalshi.FeeRate, "ARBSCAN_KALSHI_FEE_RATE")

	// ── Scanner ──
	setDuration(&cfg.Scanner.Interval, "ARBSCAN_SCANNER_INTERVAL")
	setDuration(&cfg.Scanner.FetchTimeout, "ARBSCAN_SCANNER_FETCH_TIMEOUT")
	setFloat64(&cfg.Scanner.TitleSimilarityThreshold, "ARBSCAN_SCANNER_TITLE_SIMILARITY_THRESHOLD")
	setInt(&cfg.Scanner.DateMatchToleranceDays, "ARBSCAN_SCANNER_DATE_MATCH_TOLERANCE_DAYS")
	setFloat64(&cfg.Scanner.MinProfitAfterFeesPct, "ARBSCAN_SCANNER_MIN_PROFIT_AFTER_FEES_PCT")
	setDuration(&cfg.Scanner.AlertCooldown, "ARBSCAN_SCANNER_ALERT_COOLDOWN")
	setStr(&cfg.Scanner.StatsPath, "ARBSCAN_SCANNER_STATS_PATH")
	setInt(&cfg.Scanner.HistorySize, "ARBSCAN_SCANNER_HISTORY_SIZE")
	setBool(&cfg.Scanner.StartupAlert, "ARBSCAN_SCANNER_STARTUP_ALERT")

	// Legacy tunable names, kept for operators migrating from the original
	// scanner deployment.
	setFloat64(&cfg.Scanner.TitleSimilarityThreshold, "TITLE_SIMILARITY_THRESHOLD")
	setInt(&cfg.Scanner.DateMatchToleranceDays, "DATE_MATCH_TOLERANCE_DAYS")
	setFloat64(&cfg.Scanner.MinProfitAfterFeesPct, "MIN_PROFIT_AFTER_FEES_PCT")
	setSeconds(&cfg.Scanner.AlertCooldown, "ALERT_COOLDOWN_SECONDS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "ARBSCAN_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "ARBSCAN_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "ARBSCAN_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "ARBSCAN_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "ARBSCAN_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "ARBSCAN_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "ARBSCAN_POSTGRES_SSLMODE")
	setInt(&cfg.Postgres.PoolMaxConns, "ARBSCAN_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "ARBSCAN_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "ARBSCAN_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "ARBSCAN_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBSCAN_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBSCAN_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "ARBSCAN_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "ARBSCAN_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "ARBSCAN_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "ARBSCAN_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "ARBSCAN_S3_REGION")
	setStr(&cfg.S3.Bucket, "ARBSCAN_S3_BUCKET")
	setStr(&cfg.S3.Prefix, "ARBSCAN_S3_PREFIX")
	setStr(&cfg.S3.AccessKey, "ARBSCAN_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "ARBSCAN_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "ARBSCAN_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "ARBSCAN_S3_FORCE_PATH_STYLE")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "ARBSCAN_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramToken, "TELEGRAM_BOT_TOKEN") // compatibility alias
	setStr(&cfg.Notify.TelegramChatID, "ARBSCAN_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.TelegramChatID, "TELEGRAM_CHAT_ID") // compatibility alias
	setStr(&cfg.Notify.DiscordWebhookURL, "ARBSCAN_NOTIFY_DISCORD_WEBHOOK_URL")

	// ── Top-level ──
	setStr(&cfg.LogLevel, "ARBSCAN_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

// setSeconds parses an integer number of seconds, for legacy variables that
// predate duration strings.
func setSeconds(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			dst.Duration = time.Duration(n) * time.Second
		}
	}
}
