package domain

import (
	"fmt"
	"time"
)

// Direction names which side is bought on which platform.
type Direction string

const (
	// DirectionBuyYesANoB buys YES on platform A and NO on platform B.
	DirectionBuyYesANoB Direction = "buy_yes_a_no_b"
	// DirectionBuyYesBNoA buys YES on platform B and NO on platform A.
	DirectionBuyYesBNoA Direction = "buy_yes_b_no_a"
)

// Opportunity is one profitable arbitrage direction on a matched pair. Any
// Opportunity that exists past the detector satisfies
// ProfitPct >= the configured minimum profit after fees.
type Opportunity struct {
	ID        string
	Pair      MatchedPair
	Direction Direction

	// TotalCost is the fee-inclusive cost of the combined position as a
	// fraction of notional; ProfitPct = (1 - TotalCost) * 100.
	TotalCost float64
	ProfitPct float64

	DetectedAt time.Time
}

// Key is the alert-deduplication identity: the two platform market IDs plus
// the direction. It is stable across cycles for the same listing pair.
func (o Opportunity) Key() string {
	return fmt.Sprintf("%s|%s|%s", o.Pair.A.ID, o.Pair.B.ID, o.Direction)
}
