package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.Kalshi.ApiKey = "key-id"
	cfg.Kalshi.RsaPrivateKeyPath = "/tmp/kalshi.pem"
	return cfg
}

func TestValidateDefaultsRequireCredentials(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kalshi.api_key")
}

func TestValidateAcceptsCompleteConfig(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidateRejectsBadTunables(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.Scanner.Interval = duration{0} }},
		{"threshold above one", func(c *Config) { c.Scanner.TitleSimilarityThreshold = 1.5 }},
		{"threshold zero", func(c *Config) { c.Scanner.TitleSimilarityThreshold = 0 }},
		{"negative tolerance", func(c *Config) { c.Scanner.DateMatchToleranceDays = -1 }},
		{"negative cooldown", func(c *Config) { c.Scanner.AlertCooldown = duration{-time.Second} }},
		{"empty stats path", func(c *Config) { c.Scanner.StatsPath = "" }},
		{"encrypted key without password", func(c *Config) {
			c.Kalshi.RsaPrivateKeyPath = ""
			c.Kalshi.EncryptedKeyPath = "/tmp/key.enc"
			c.Kalshi.KeyPassword = ""
		}},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
log_level = "debug"

[scanner]
interval = "15s"
min_profit_after_fees_pct = 1.25

[kalshi]
api_key = "from-file"
rsa_private_key_path = "/keys/kalshi.pem"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 15*time.Second, cfg.Scanner.Interval.Duration)
	assert.Equal(t, 1.25, cfg.Scanner.MinProfitAfterFeesPct)
	assert.Equal(t, "from-file", cfg.Kalshi.ApiKey)
	// Untouched fields keep their defaults.
	assert.Equal(t, 0.5, cfg.Scanner.TitleSimilarityThreshold)
	assert.Equal(t, "https://gamma-api.polymarket.com", cfg.Polymarket.GammaHost)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, cfg.Scanner.Interval.Duration)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("ARBSCAN_KALSHI_API_KEY", "from-env")
	t.Setenv("ARBSCAN_SCANNER_INTERVAL", "2m")
	t.Setenv("TITLE_SIMILARITY_THRESHOLD", "0.7")
	t.Setenv("ALERT_COOLDOWN_SECONDS", "900")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Kalshi.ApiKey)
	assert.Equal(t, 2*time.Minute, cfg.Scanner.Interval.Duration)
	assert.Equal(t, 0.7, cfg.Scanner.TitleSimilarityThreshold)
	assert.Equal(t, 15*time.Minute, cfg.Scanner.AlertCooldown.Duration)
}

func TestRedactedConfigMasksSecrets(t *testing.T) {
	cfg := validConfig()
	cfg.Kalshi.ApiKey = "secret-key"
	cfg.Notify.TelegramToken = "bot-token"
	cfg.Postgres.Password = "db-pass"

	red := RedactedConfig(&cfg)

	assert.Equal(t, "***", red.Kalshi.ApiKey)
	assert.Equal(t, "***", red.Notify.TelegramToken)
	assert.Equal(t, "***", red.Postgres.Password)
	// Original is untouched.
	assert.Equal(t, "secret-key", cfg.Kalshi.ApiKey)
	// Non-secret fields pass through.
	assert.Equal(t, cfg.Kalshi.BaseURL, red.Kalshi.BaseURL)
}
