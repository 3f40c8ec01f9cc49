// Package domain defines the core entities of the cross-platform arbitrage
// scanner and the interfaces its external collaborators must satisfy.
package domain

import "time"

// Platform identifies which exchange a market was listed on.
type Platform string

const (
	PlatformPolymarket Platform = "polymarket"
	PlatformKalshi     Platform = "kalshi"
)

// Market is one open binary-outcome listing from one platform. Markets are
// constructed fresh each scan cycle and discarded at cycle end; only
// (Platform, ID) carries identity across cycles, for alert deduplication.
type Market struct {
	Platform Platform
	ID       string
	Title    string

	// ResolutionDate is nil when the platform did not report one. A missing
	// date never excludes a match on its own.
	ResolutionDate *time.Time

	// YesPrice and NoPrice are probabilities in [0,1]. Their sum is usually
	// close to 1 but the platforms do not guarantee it.
	YesPrice float64
	NoPrice  float64

	// FeeRate is the platform's fractional fee on trade notional,
	// e.g. 0.002 for 0.2%.
	FeeRate float64

	// URL links to the listing for alert messages; may be empty.
	URL string
}

// PricesValid reports whether both prices lie in [0,1]. Markets failing this
// check are excluded from detection for the cycle.
func (m Market) PricesValid() bool {
	return m.YesPrice >= 0 && m.YesPrice <= 1 && m.NoPrice >= 0 && m.NoPrice <= 1
}
