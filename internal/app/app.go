// Package app provides the top-level application lifecycle for the arbitrage
// scanner. It wires together the platform sources, alert state, stores, and
// notifier, and runs the scan loop until shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/crosslisted/arbscan/internal/alert"
	"github.com/crosslisted/arbscan/internal/config"
	"github.com/crosslisted/arbscan/internal/detector"
	"github.com/crosslisted/arbscan/internal/matcher"
	"github.com/crosslisted/arbscan/internal/scanner"
	"github.com/crosslisted/arbscan/internal/stats"
)

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, starts the scan
// loop, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting scanner",
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	alertState := deps.AlertState
	if alertState == nil {
		alertState = alert.NewMemoryState()
	}
	gate := alert.NewGate(alertState, a.cfg.Scanner.AlertCooldown.Duration, nil, a.logger)
	recorder := stats.NewRecorder(a.cfg.Scanner.StatsPath, a.cfg.Scanner.HistorySize)

	s := scanner.New(
		scanner.Config{
			Interval:     a.cfg.Scanner.Interval.Duration,
			FetchTimeout: a.cfg.Scanner.FetchTimeout.Duration,
			Matcher: matcher.Options{
				SimilarityThreshold: a.cfg.Scanner.TitleSimilarityThreshold,
				DateTolerance:       time.Duration(a.cfg.Scanner.DateMatchToleranceDays) * 24 * time.Hour,
			},
			Detector: detector.Config{
				MinProfitPct: a.cfg.Scanner.MinProfitAfterFeesPct,
			},
		},
		deps.PolymarketSource, deps.KalshiSource,
		gate, deps.Notifier, recorder,
		deps.History, deps.Publisher,
		nil, a.logger,
	)

	if a.cfg.Scanner.StartupAlert {
		if err := deps.Notifier.SendStartup(ctx, a.cfg.Scanner.Interval.String()); err != nil {
			a.logger.WarnContext(ctx, "startup notification failed",
				slog.String("error", err.Error()))
		}
	}

	return s.Run(ctx)
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
