// Package alert deduplicates and rate-limits which detected opportunities
// are forwarded for notification.
package alert

import (
	"context"
	"log/slog"
	"time"

	"github.com/crosslisted/arbscan/internal/domain"
)

// Gate filters each cycle's opportunities through a per-key cooldown. State
// is held in an injected AlertStateStore and time comes from an injected
// clock, so the gate is testable with fixed state and a fake clock. The gate
// is the only writer of alert state; delivery must never touch it.
type Gate struct {
	state    domain.AlertStateStore
	cooldown time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewGate creates a Gate over the given state store. now may be nil, in which
// case time.Now is used.
func NewGate(state domain.AlertStateStore, cooldown time.Duration, now func() time.Time, logger *slog.Logger) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{
		state:    state,
		cooldown: cooldown,
		now:      now,
		logger:   logger.With(slog.String("component", "alert_gate")),
	}
}

// Filter returns the opportunities that should be forwarded to the
// notification sink and stamps their keys with the current time. An
// opportunity passes when its key has no record or the cooldown has elapsed
// since the last stamp. Suppressed opportunities are dropped here but still
// counted in the cycle's stats by the caller.
//
// Stamping happens before delivery is attempted; a failed delivery therefore
// stays suppressed until the cooldown expires rather than retrying storm-like
// every cycle.
func (g *Gate) Filter(ctx context.Context, opps []domain.Opportunity) []domain.Opportunity {
	now := g.now()
	passed := make([]domain.Opportunity, 0, len(opps))

	for _, opp := range opps {
		key := opp.Key()

		last, ok, err := g.state.LastSent(ctx, key)
		if err != nil {
			// A broken state store should not silence alerts; treat the
			// key as unseen and keep going.
			g.logger.ErrorContext(ctx, "alert state read failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
			ok = false
		}

		if ok && now.Sub(last) < g.cooldown {
			g.logger.DebugContext(ctx, "opportunity suppressed by cooldown",
				slog.String("key", key),
				slog.Duration("since_last", now.Sub(last)),
			)
			continue
		}

		if err := g.state.Stamp(ctx, key, now); err != nil {
			g.logger.ErrorContext(ctx, "alert state stamp failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		passed = append(passed, opp)
	}

	return passed
}
