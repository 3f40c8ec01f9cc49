// Package polymarket implements the Polymarket snapshot source on top of the
// unauthenticated Gamma REST API.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/crosslisted/arbscan/internal/domain"
)

// GammaClient is the REST client for the Polymarket Gamma API, which provides
// market discovery and metadata. Discovery endpoints are unauthenticated.
type GammaClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewGammaClient creates a new Gamma API client.
//
// baseURL is the Gamma API root, e.g. "https://gamma-api.polymarket.com".
func NewGammaClient(baseURL string) *GammaClient {
	return &GammaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetOpenEvents returns up to limit events that are not yet closed.
func (g *GammaClient) GetOpenEvents(ctx context.Context, limit int) ([]APIEvent, error) {
	params := url.Values{}
	params.Set("closed", "false")
	params.Set("limit", strconv.Itoa(limit))

	body, err := g.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("polymarket/gamma: get events: %w", err)
	}

	var events []APIEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("polymarket/gamma: decode events: %w", err)
	}
	return events, nil
}

// doGet sends an unauthenticated GET request to the Gamma API.
func (g *GammaClient) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("http request: %w", domain.ErrContextDone)
		}
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}
	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}

// SourceOptions configures the Polymarket snapshot source.
type SourceOptions struct {
	EventLimit        int
	MaxResolutionDays int
	FeeRate           float64
}

// Source exposes Polymarket markets through the snapshot-source contract.
type Source struct {
	client *GammaClient
	opts   SourceOptions
	now    func() time.Time
	logger *slog.Logger
}

// NewSource creates a Source over the given Gamma client. now may be nil, in
// which case time.Now is used.
func NewSource(client *GammaClient, opts SourceOptions, now func() time.Time, logger *slog.Logger) *Source {
	if now == nil {
		now = time.Now
	}
	return &Source{
		client: client,
		opts:   opts,
		now:    now,
		logger: logger.With(slog.String("component", "polymarket_source")),
	}
}

// Platform identifies this source.
func (s *Source) Platform() domain.Platform { return domain.PlatformPolymarket }

// FetchOpenBinaryMarkets fetches open events from the Gamma API and flattens
// their tradeable binary markets into domain markets. Events resolving beyond
// the configured horizon are skipped, as are individual records with missing
// or malformed fields; a malformed record never fails the snapshot.
func (s *Source) FetchOpenBinaryMarkets(ctx context.Context) ([]domain.Market, error) {
	events, err := s.client.GetOpenEvents(ctx, s.opts.EventLimit)
	if err != nil {
		return nil, err
	}

	cutoff := s.now().UTC().AddDate(0, 0, s.opts.MaxResolutionDays)

	var markets []domain.Market
	for i := range events {
		ev := &events[i]
		if ev.EndDate == "" {
			continue
		}
		endDate, err := time.Parse(time.RFC3339, ev.EndDate)
		if err != nil {
			s.logger.DebugContext(ctx, "skipping event with unparseable end date",
				slog.String("event_id", ev.ID),
				slog.String("end_date", ev.EndDate))
			continue
		}
		if endDate.After(cutoff) {
			continue
		}

		for j := range ev.Markets {
			m := &ev.Markets[j]
			if !m.Tradeable() || !m.Binary() {
				continue
			}
			yes, no, ok := m.Prices()
			if !ok {
				s.logger.DebugContext(ctx, "skipping market with unparseable prices",
					slog.String("market_id", m.ID),
					slog.String("outcome_prices", m.OutcomePrices))
				continue
			}

			id := m.ID
			if id == "" {
				id = m.Slug
			}
			if id == "" {
				continue
			}
			title := m.Question
			if title == "" {
				title = ev.Title
			}

			markets = append(markets, domain.Market{
				Platform:       domain.PlatformPolymarket,
				ID:             id,
				Title:          title,
				ResolutionDate: &endDate,
				YesPrice:       yes,
				NoPrice:        no,
				FeeRate:        s.opts.FeeRate,
				URL:            "https://polymarket.com/event/" + ev.Slug,
			})
		}
	}

	s.logger.DebugContext(ctx, "fetched snapshot",
		slog.Int("events", len(events)),
		slog.Int("markets", len(markets)))
	return markets, nil
}
