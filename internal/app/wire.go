package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/crosslisted/arbscan/internal/blob/s3"
	"github.com/crosslisted/arbscan/internal/cache/redis"
	"github.com/crosslisted/arbscan/internal/config"
	"github.com/crosslisted/arbscan/internal/crypto"
	"github.com/crosslisted/arbscan/internal/domain"
	"github.com/crosslisted/arbscan/internal/notify"
	"github.com/crosslisted/arbscan/internal/platform/kalshi"
	"github.com/crosslisted/arbscan/internal/platform/polymarket"
	"github.com/crosslisted/arbscan/internal/store/postgres"
)

// Dependencies bundles everything the scan loop needs. It is constructed by
// Wire and torn down by the returned cleanup function. History and Publisher
// are nil when the corresponding backend is not configured; AlertState falls
// back to process memory without Redis.
type Dependencies struct {
	PolymarketSource domain.SnapshotSource
	KalshiSource     domain.SnapshotSource

	AlertState domain.AlertStateStore
	History    domain.OpportunityStore
	Publisher  domain.SnapshotPublisher

	Notifier *notify.Notifier
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- Platform sources ---
	deps.PolymarketSource = polymarket.NewSource(
		polymarket.NewGammaClient(cfg.Polymarket.GammaHost),
		polymarket.SourceOptions{
			EventLimit:        cfg.Polymarket.EventLimit,
			MaxResolutionDays: cfg.Polymarket.MaxResolutionDays,
			FeeRate:           cfg.Polymarket.FeeRate,
		}, nil, logger)

	keyPEM, err := crypto.LoadKeyPEM(crypto.KeyConfig{
		PEMPath:          cfg.Kalshi.RsaPrivateKeyPath,
		EncryptedKeyPath: cfg.Kalshi.EncryptedKeyPath,
		KeyPassword:      cfg.Kalshi.KeyPassword,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
	}

	kalshiClient := kalshi.NewClient(cfg.Kalshi.BaseURL, cfg.Kalshi.ApiKey)
	if err := kalshiClient.SetRSAPrivateKey(keyPEM); err != nil {
		return nil, nil, fmt.Errorf("wire: kalshi key: %w", err)
	}
	deps.KalshiSource = kalshi.NewSource(kalshiClient, kalshi.SourceOptions{
		PageLimit:         cfg.Kalshi.PageLimit,
		MaxResolutionDays: cfg.Kalshi.MaxResolutionDays,
		FeeRate:           cfg.Kalshi.FeeRate,
	}, nil, logger)

	// --- Redis (optional durable alert cooldowns) ---
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		// Keep stamps around twice as long as the cooldown so a slow cycle
		// never sees an expired stamp it should still honor.
		ttl := 2 * cfg.Scanner.AlertCooldown.Duration
		if ttl <= 0 {
			ttl = time.Hour
		}
		deps.AlertState = redis.NewAlertState(redisClient, ttl)
	}

	// --- PostgreSQL (optional opportunity history) ---
	if cfg.Postgres.Enabled() {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		deps.History = postgres.NewOpportunityStore(pgClient.Pool())
	}

	// --- S3 (optional snapshot publishing) ---
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.Publisher = s3blob.NewPublisher(s3Client, cfg.S3.Prefix)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, logger)

	return deps, cleanup, nil
}
