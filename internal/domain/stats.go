package domain

import "time"

// StatsSnapshot is the external-facing rollup consumed by the dashboard. It
// is rebuilt every cycle from running counters plus the current opportunity
// list and written atomically to durable storage. The JSON schema is
// additive-only: fields may be added but never removed or renamed.
type StatsSnapshot struct {
	ScanCount         int       `json:"scan_count"`
	LastScanTime      time.Time `json:"last_scan_time"`
	TotalEventsSeen   int       `json:"total_events_seen"`
	TotalMatchedPairs int       `json:"total_matched_pairs"`

	// Cumulative counters beyond the minimum schema.
	TotalOpportunities int `json:"total_opportunities"`
	TotalAlertsSent    int `json:"total_alerts_sent"`
	TotalSuppressed    int `json:"total_suppressed"`

	// Opportunities holds the current cycle's qualifying opportunities,
	// including ones suppressed by the alert cooldown.
	Opportunities []OpportunityRecord `json:"opportunities"`

	// BestOpportunity is the highest-profit opportunity seen since startup.
	BestOpportunity *OpportunityRecord `json:"best_opportunity,omitempty"`

	// History is a bounded ring of per-cycle summaries, oldest first.
	History []HistoryEntry `json:"history"`
}

// OpportunityRecord is the wire form of an Opportunity in the stats file.
type OpportunityRecord struct {
	PlatformA  string    `json:"platform_a"`
	PlatformB  string    `json:"platform_b"`
	MarketAID  string    `json:"market_a_id"`
	MarketBID  string    `json:"market_b_id"`
	Title      string    `json:"title"`
	Direction  string    `json:"direction"`
	ProfitPct  float64   `json:"profit_pct"`
	TotalCost  float64   `json:"total_cost"`
	Similarity float64   `json:"similarity"`
	Timestamp  time.Time `json:"timestamp"`
}

// HistoryEntry is one cycle's summary in the stats history ring.
type HistoryEntry struct {
	Timestamp          time.Time `json:"timestamp"`
	ScanCount          int       `json:"scan_count"`
	OpportunitiesFound int       `json:"opportunities_found"`
}
