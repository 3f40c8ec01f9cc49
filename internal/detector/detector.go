// Package detector evaluates matched pairs for fee-adjusted guaranteed
// profit.
package detector

import (
	"time"

	"github.com/google/uuid"

	"github.com/crosslisted/arbscan/internal/domain"
)

// Config holds the detection threshold.
type Config struct {
	// MinProfitPct is the minimum profit after fees, in percent, for an
	// opportunity to be emitted.
	MinProfitPct float64
}

// Result is the outcome of evaluating one matched pair. A pair can yield
// zero, one, or two opportunities: the two directions are independent, and
// wide spreads can make both unprofitable even when prices sum near 1.
type Result struct {
	Opportunities []domain.Opportunity

	// Skipped is set when the pair was excluded from detection entirely,
	// with Reason saying why (e.g. an out-of-range price).
	Skipped bool
	Reason  string
}

// Evaluate computes both arbitrage directions for a matched pair. Buying YES
// on one platform and NO on the other guarantees a payout of 1 per pair of
// contracts, so the position is profitable whenever the fee-inclusive cost of
// both legs stays below 1. Evaluate does not mutate its inputs.
func Evaluate(pair domain.MatchedPair, cfg Config, now time.Time) Result {
	if !pair.A.PricesValid() {
		return Result{Skipped: true, Reason: "platform A price out of range"}
	}
	if !pair.B.PricesValid() {
		return Result{Skipped: true, Reason: "platform B price out of range"}
	}

	var res Result

	// Buy YES on A + NO on B.
	costA := pair.A.YesPrice*(1+pair.A.FeeRate) + pair.B.NoPrice*(1+pair.B.FeeRate)
	if opp, ok := qualify(pair, domain.DirectionBuyYesANoB, costA, cfg.MinProfitPct, now); ok {
		res.Opportunities = append(res.Opportunities, opp)
	}

	// Buy YES on B + NO on A.
	costB := pair.B.YesPrice*(1+pair.B.FeeRate) + pair.A.NoPrice*(1+pair.A.FeeRate)
	if opp, ok := qualify(pair, domain.DirectionBuyYesBNoA, costB, cfg.MinProfitPct, now); ok {
		res.Opportunities = append(res.Opportunities, opp)
	}

	return res
}

// profitEpsilon absorbs float accumulation error in the cost sum so a profit
// exactly at the configured minimum still qualifies.
const profitEpsilon = 1e-9

// qualify builds the opportunity for one direction when its profit clears the
// threshold. Profit at the threshold qualifies.
func qualify(pair domain.MatchedPair, dir domain.Direction, totalCost, minProfitPct float64, now time.Time) (domain.Opportunity, bool) {
	profitPct := (1 - totalCost) * 100
	if profitPct < minProfitPct-profitEpsilon {
		return domain.Opportunity{}, false
	}
	return domain.Opportunity{
		ID:         uuid.NewString(),
		Pair:       pair,
		Direction:  dir,
		TotalCost:  totalCost,
		ProfitPct:  profitPct,
		DetectedAt: now,
	}, true
}
