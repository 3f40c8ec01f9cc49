package kalshi

import (
	"context"
	"log/slog"
	"time"

	"github.com/crosslisted/arbscan/internal/domain"
)

// SourceOptions configures the Kalshi snapshot source.
type SourceOptions struct {
	PageLimit         int
	MaxResolutionDays int
	FeeRate           float64
}

// Source exposes Kalshi markets through the snapshot-source contract.
type Source struct {
	client *Client
	opts   SourceOptions
	now    func() time.Time
	logger *slog.Logger
}

// NewSource creates a Source over the given Kalshi client. now may be nil, in
// which case time.Now is used.
func NewSource(client *Client, opts SourceOptions, now func() time.Time, logger *slog.Logger) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{
		client: client,
		opts:   opts,
		now:    now,
		logger: logger.With(slog.String("component", "kalshi_source")),
	}
}

// Platform identifies this source.
func (s *Source) Platform() domain.Platform { return domain.PlatformKalshi }

// FetchOpenBinaryMarkets pages through open Kalshi markets and converts them
// to domain markets. Cent prices are normalized to [0,1] probabilities.
// Markets closing beyond the configured horizon or without usable prices are
// skipped; a bad record never fails the snapshot.
func (s *Source) FetchOpenBinaryMarkets(ctx context.Context) ([]domain.Market, error) {
	raw, err := s.client.GetOpenMarkets(ctx, s.opts.PageLimit)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, s.opts.MaxResolutionDays)

	var markets []domain.Market
	for i := range raw {
		km := &raw[i]
		if km.Ticker == "" {
			continue
		}

		var resolution *time.Time
		if km.CloseTime != "" {
			t, err := time.Parse(time.RFC3339, km.CloseTime)
			if err != nil {
				s.logger.DebugContext(ctx, "skipping market with unparseable close time",
					slog.String("ticker", km.Ticker),
					slog.String("close_time", km.CloseTime))
				continue
			}
			if t.After(cutoff) {
				continue
			}
			resolution = &t
		}

		yes, no, ok := normalizePrices(km)
		if !ok {
			s.logger.DebugContext(ctx, "skipping market without usable prices",
				slog.String("ticker", km.Ticker))
			continue
		}

		title := km.Title
		if km.Subtitle != "" {
			title += " " + km.Subtitle
		}

		markets = append(markets, domain.Market{
			Platform:       domain.PlatformKalshi,
			ID:             km.Ticker,
			Title:          title,
			ResolutionDate: resolution,
			YesPrice:       yes,
			NoPrice:        no,
			FeeRate:        s.opts.FeeRate,
			URL:            "https://kalshi.com/markets/" + km.Ticker,
		})
	}

	s.logger.DebugContext(ctx, "fetched snapshot",
		slog.Int("raw", len(raw)),
		slog.Int("markets", len(markets)))
	return markets, nil
}

// normalizePrices converts cent quotes to [0,1] probabilities. Asks are
// preferred since they are the price to buy; a missing ask falls back to the
// bid, and a missing side is inferred as the complement of the other.
func normalizePrices(km *KalshiMarket) (yes, no float64, ok bool) {
	pick := func(ask, bid float64) float64 {
		if ask > 0 {
			return ask / 100
		}
		if bid > 0 {
			return bid / 100
		}
		return 0
	}

	yes = pick(km.YesAsk, km.YesBid)
	no = pick(km.NoAsk, km.NoBid)

	switch {
	case yes == 0 && no == 0:
		return 0, 0, false
	case yes == 0:
		yes = 1 - no
	case no == 0:
		no = 1 - yes
	}
	return yes, no, true
}
