// Package scanner drives the scan cycle: fetch both snapshots, match, detect,
// gate, notify, persist, sleep, repeat.
package scanner

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/crosslisted/arbscan/internal/alert"
	"github.com/crosslisted/arbscan/internal/detector"
	"github.com/crosslisted/arbscan/internal/domain"
	"github.com/crosslisted/arbscan/internal/matcher"
	"github.com/crosslisted/arbscan/internal/stats"
)

// Sink receives gated opportunities. Delivery errors are logged and never
// abort the cycle.
type Sink interface {
	SendOpportunity(ctx context.Context, opp domain.Opportunity) error
}

// Config holds the scan-loop tunables.
type Config struct {
	Interval     time.Duration
	FetchTimeout time.Duration
	Matcher      matcher.Options
	Detector     detector.Config
}

// Scanner runs the fetch/match/detect/gate/persist cycle over the two
// snapshot sources. The optional history store and snapshot publisher may be
// nil; the corresponding steps are skipped.
type Scanner struct {
	cfg       Config
	sourceA   domain.SnapshotSource
	sourceB   domain.SnapshotSource
	gate      *alert.Gate
	sink      Sink
	recorder  *stats.Recorder
	history   domain.OpportunityStore
	publisher domain.SnapshotPublisher
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Scanner. now may be nil, in which case time.Now is used.
func New(
	cfg Config,
	sourceA, sourceB domain.SnapshotSource,
	gate *alert.Gate,
	sink Sink,
	recorder *stats.Recorder,
	history domain.OpportunityStore,
	publisher domain.SnapshotPublisher,
	now func() time.Time,
	logger *slog.Logger,
) *Scanner {
	if now == nil {
		now = time.Now
	}
	return &Scanner{
		cfg:       cfg,
		sourceA:   sourceA,
		sourceB:   sourceB,
		gate:      gate,
		sink:      sink,
		recorder:  recorder,
		history:   history,
		publisher: publisher,
		now:       now,
		logger:    logger.With(slog.String("component", "scanner")),
	}
}

// Run executes scan cycles until ctx is cancelled. The first cycle starts
// immediately; later cycles are spaced by the configured interval.
func (s *Scanner) Run(ctx context.Context) error {
	s.logger.InfoContext(ctx, "scan loop starting",
		slog.Duration("interval", s.cfg.Interval))

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.RunCycle(ctx)

		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "scan loop stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// RunCycle executes one full scan cycle. Failures inside the cycle are
// logged and degrade the cycle rather than abort it; each cycle is
// independent and self-healing.
func (s *Scanner) RunCycle(ctx context.Context) stats.Cycle {
	started := s.now()

	snapA, snapB := s.fetchBoth(ctx)

	matched := matcher.Match(snapA, snapB, s.cfg.Matcher)

	var opportunities []domain.Opportunity
	for _, pair := range matched.Pairs {
		res := detector.Evaluate(pair, s.cfg.Detector, s.now())
		if res.Skipped {
			s.logger.WarnContext(ctx, "pair excluded from detection",
				slog.String("market_a", pair.A.ID),
				slog.String("market_b", pair.B.ID),
				slog.String("reason", res.Reason))
			continue
		}
		opportunities = append(opportunities, res.Opportunities...)
	}

	passed := s.gate.Filter(ctx, opportunities)

	sent := 0
	for _, opp := range passed {
		if err := s.sink.SendOpportunity(ctx, opp); err != nil {
			s.logger.ErrorContext(ctx, "alert delivery failed",
				slog.String("opportunity", opp.Key()),
				slog.String("error", err.Error()))
			continue
		}
		sent++
	}

	if s.history != nil {
		for _, opp := range opportunities {
			if err := s.history.Insert(ctx, opp); err != nil {
				s.logger.ErrorContext(ctx, "history insert failed",
					slog.String("opportunity", opp.Key()),
					slog.String("error", err.Error()))
			}
		}
	}

	cycle := stats.Cycle{
		EventsSeen:    len(snapA) + len(snapB),
		MatchedPairs:  len(matched.Pairs),
		Opportunities: opportunities,
		AlertsSent:    sent,
		Suppressed:    len(opportunities) - len(passed),
		CompletedAt:   s.now(),
	}

	snapshot, err := s.recorder.Record(cycle)
	if err != nil {
		s.logger.ErrorContext(ctx, "stats persist failed",
			slog.String("error", err.Error()))
	} else if s.publisher != nil {
		s.publish(ctx, snapshot)
	}

	s.logger.InfoContext(ctx, "cycle complete",
		slog.Int("markets_a", len(snapA)),
		slog.Int("markets_b", len(snapB)),
		slog.Int("matched_pairs", len(matched.Pairs)),
		slog.Int("opportunities", len(opportunities)),
		slog.Int("alerts_sent", sent),
		slog.Int("suppressed", cycle.Suppressed),
		slog.Duration("elapsed", s.now().Sub(started)))

	return cycle
}

// fetchBoth runs the two snapshot fetches concurrently, each under its own
// timeout. A failed or timed-out fetch degrades to an empty snapshot so a
// transient outage on one platform never stops monitoring the other.
func (s *Scanner) fetchBoth(ctx context.Context) (snapA, snapB []domain.Market) {
	g, gctx := errgroup.WithContext(ctx)

	fetch := func(src domain.SnapshotSource, out *[]domain.Market) func() error {
		return func() error {
			fctx, cancel := context.WithTimeout(gctx, s.cfg.FetchTimeout)
			defer cancel()

			markets, err := src.FetchOpenBinaryMarkets(fctx)
			if err != nil {
				s.logger.ErrorContext(ctx, "snapshot fetch failed",
					slog.String("platform", string(src.Platform())),
					slog.String("error", err.Error()))
				return nil
			}
			*out = markets
			return nil
		}
	}

	g.Go(fetch(s.sourceA, &snapA))
	g.Go(fetch(s.sourceB, &snapB))
	_ = g.Wait()

	return snapA, snapB
}

// publish pushes the snapshot to the remote store after the local atomic
// write.
func (s *Scanner) publish(ctx context.Context, snapshot domain.StatsSnapshot) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, "snapshot marshal failed",
			slog.String("error", err.Error()))
		return
	}
	if err := s.publisher.Publish(ctx, data, snapshot.LastScanTime); err != nil {
		s.logger.ErrorContext(ctx, "snapshot publish failed",
			slog.String("error", err.Error()))
	}
}
