package scanner

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslisted/arbscan/internal/alert"
	"github.com/crosslisted/arbscan/internal/detector"
	"github.com/crosslisted/arbscan/internal/domain"
	"github.com/crosslisted/arbscan/internal/matcher"
	"github.com/crosslisted/arbscan/internal/stats"
)

type stubSource struct {
	platform domain.Platform
	markets  []domain.Market
	err      error
	calls    atomic.Int32
}

func (s *stubSource) Platform() domain.Platform { return s.platform }

func (s *stubSource) FetchOpenBinaryMarkets(context.Context) ([]domain.Market, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.markets, nil
}

type stubSink struct {
	mu   sync.Mutex
	err  error
	sent []domain.Opportunity
}

func (s *stubSink) SendOpportunity(_ context.Context, opp domain.Opportunity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, opp)
	return nil
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func marketsFixture() (a, b []domain.Market) {
	date := time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)
	a = []domain.Market{{
		Platform:       domain.PlatformPolymarket,
		ID:             "pm-1",
		Title:          "Will it rain in Seattle on Friday",
		ResolutionDate: &date,
		YesPrice:       0.40,
		NoPrice:        0.62,
	}}
	b = []domain.Market{{
		Platform:       domain.PlatformKalshi,
		ID:             "ks-1",
		Title:          "Rain in Seattle on Friday",
		ResolutionDate: &date,
		YesPrice:       0.41,
		NoPrice:        0.45,
	}}
	return a, b
}

func testConfig() Config {
	return Config{
		Interval:     time.Minute,
		FetchTimeout: time.Second,
		Matcher: matcher.Options{
			SimilarityThreshold: 0.5,
			DateTolerance:       3 * 24 * time.Hour,
		},
		Detector: detector.Config{MinProfitPct: 0.5},
	}
}

func newTestScanner(t *testing.T, srcA, srcB domain.SnapshotSource, sink Sink, clock *fakeClock) (*Scanner, string) {
	t.Helper()
	statsPath := filepath.Join(t.TempDir(), "stats.json")
	logger := slog.New(slog.DiscardHandler)

	gate := alert.NewGate(alert.NewMemoryState(), 30*time.Minute, clock.Now, logger)
	recorder := stats.NewRecorder(statsPath, 100)

	return New(testConfig(), srcA, srcB, gate, sink, recorder, nil, nil, clock.Now, logger), statsPath
}

func TestRunCycleDetectsAndAlerts(t *testing.T) {
	a, b := marketsFixture()
	srcA := &stubSource{platform: domain.PlatformPolymarket, markets: a}
	srcB := &stubSource{platform: domain.PlatformKalshi, markets: b}
	sink := &stubSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	s, statsPath := newTestScanner(t, srcA, srcB, sink, clock)

	cycle := s.RunCycle(context.Background())

	// yes_a=0.40 + no_b=0.45, zero fees: cost 0.85, profit 15%.
	assert.Equal(t, 2, cycle.EventsSeen)
	assert.Equal(t, 1, cycle.MatchedPairs)
	require.Len(t, cycle.Opportunities, 1)
	assert.InDelta(t, 15.0, cycle.Opportunities[0].ProfitPct, 1e-9)
	assert.Equal(t, domain.DirectionBuyYesANoB, cycle.Opportunities[0].Direction)
	assert.Equal(t, 1, cycle.AlertsSent)
	assert.Zero(t, cycle.Suppressed)

	require.Len(t, sink.sent, 1)

	snap, err := stats.Read(statsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ScanCount)
	assert.Equal(t, 1, snap.TotalOpportunities)
}

func TestRunCycleSuppressesRepeatAlerts(t *testing.T) {
	a, b := marketsFixture()
	srcA := &stubSource{platform: domain.PlatformPolymarket, markets: a}
	srcB := &stubSource{platform: domain.PlatformKalshi, markets: b}
	sink := &stubSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	s, _ := newTestScanner(t, srcA, srcB, sink, clock)

	first := s.RunCycle(context.Background())
	assert.Equal(t, 1, first.AlertsSent)

	clock.Advance(time.Minute)
	second := s.RunCycle(context.Background())
	assert.Zero(t, second.AlertsSent)
	assert.Equal(t, 1, second.Suppressed)
	assert.Len(t, sink.sent, 1)

	clock.Advance(time.Hour)
	third := s.RunCycle(context.Background())
	assert.Equal(t, 1, third.AlertsSent)
	assert.Len(t, sink.sent, 2)
}

func TestRunCycleSurvivesSourceFailure(t *testing.T) {
	a, _ := marketsFixture()
	srcA := &stubSource{platform: domain.PlatformPolymarket, markets: a}
	srcB := &stubSource{platform: domain.PlatformKalshi, err: errors.New("upstream down")}
	sink := &stubSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	s, statsPath := newTestScanner(t, srcA, srcB, sink, clock)

	cycle := s.RunCycle(context.Background())

	assert.Equal(t, 1, cycle.EventsSeen, "healthy source still counted")
	assert.Zero(t, cycle.MatchedPairs, "empty opposite set yields zero pairs, not an error")
	assert.Empty(t, sink.sent)

	snap, err := stats.Read(statsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ScanCount, "stats file still updated")
}

func TestRunCycleSinkFailureIsNonFatal(t *testing.T) {
	a, b := marketsFixture()
	srcA := &stubSource{platform: domain.PlatformPolymarket, markets: a}
	srcB := &stubSource{platform: domain.PlatformKalshi, markets: b}
	sink := &stubSink{err: errors.New("webhook 500")}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	s, statsPath := newTestScanner(t, srcA, srcB, sink, clock)

	cycle := s.RunCycle(context.Background())
	assert.Zero(t, cycle.AlertsSent)
	require.Len(t, cycle.Opportunities, 1, "opportunity still detected and recorded")

	snap, err := stats.Read(statsPath)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.TotalOpportunities)
}

type failingHistory struct{ inserts int }

func (h *failingHistory) Insert(context.Context, domain.Opportunity) error {
	h.inserts++
	return errors.New("db down")
}

func (h *failingHistory) ListRecent(context.Context, int) ([]domain.OpportunityRecord, error) {
	return nil, errors.New("db down")
}

func TestRunCycleHistoryFailureIsNonFatal(t *testing.T) {
	a, b := marketsFixture()
	srcA := &stubSource{platform: domain.PlatformPolymarket, markets: a}
	srcB := &stubSource{platform: domain.PlatformKalshi, markets: b}
	sink := &stubSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	statsPath := filepath.Join(t.TempDir(), "stats.json")
	logger := slog.New(slog.DiscardHandler)
	gate := alert.NewGate(alert.NewMemoryState(), 30*time.Minute, clock.Now, logger)
	recorder := stats.NewRecorder(statsPath, 100)
	history := &failingHistory{}

	s := New(testConfig(), srcA, srcB, gate, sink, recorder, history, nil, clock.Now, logger)

	cycle := s.RunCycle(context.Background())
	assert.Equal(t, 1, history.inserts)
	assert.Equal(t, 1, cycle.AlertsSent, "alerting unaffected by history failure")
}

func TestRunStopsOnCancel(t *testing.T) {
	srcA := &stubSource{platform: domain.PlatformPolymarket}
	srcB := &stubSource{platform: domain.PlatformKalshi}
	sink := &stubSink{}
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	s, _ := newTestScanner(t, srcA, srcB, sink, clock)
	s.cfg.Interval = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	// Let at least one cycle run, then stop.
	require.Eventually(t, func() bool { return srcA.calls.Load() >= 1 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}
