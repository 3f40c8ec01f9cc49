// Package stats accumulates scan counters and persists the dashboard
// snapshot.
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crosslisted/arbscan/internal/domain"
)

// Cycle summarizes one completed scan cycle.
type Cycle struct {
	EventsSeen    int
	MatchedPairs  int
	Opportunities []domain.Opportunity
	AlertsSent    int
	Suppressed    int
	CompletedAt   time.Time
}

// Recorder keeps the running totals across cycles and rebuilds the full
// StatsSnapshot from them every cycle; the snapshot itself is never mutated
// incrementally. Only the orchestrator calls Record, once per cycle.
type Recorder struct {
	path        string
	historySize int

	mu                 sync.Mutex
	scanCount          int
	totalEvents        int
	totalPairs         int
	totalOpportunities int
	totalAlerts        int
	totalSuppressed    int
	best               *domain.OpportunityRecord
	history            []domain.HistoryEntry
}

// NewRecorder creates a Recorder that writes the snapshot to path, keeping at
// most historySize history entries.
func NewRecorder(path string, historySize int) *Recorder {
	return &Recorder{path: path, historySize: historySize}
}

// Record folds one cycle into the running totals, rebuilds the snapshot, and
// writes it to disk atomically. The snapshot is returned so callers can
// publish the same document elsewhere.
func (r *Recorder) Record(cycle Cycle) (domain.StatsSnapshot, error) {
	snap := r.buildSnapshot(cycle)

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return snap, fmt.Errorf("stats: marshal snapshot: %w", err)
	}
	if err := writeAtomic(r.path, data); err != nil {
		return snap, fmt.Errorf("stats: persist snapshot: %w", err)
	}
	return snap, nil
}

// buildSnapshot updates the counters under lock and assembles a fresh
// snapshot value.
func (r *Recorder) buildSnapshot(cycle Cycle) domain.StatsSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.scanCount++
	r.totalEvents += cycle.EventsSeen
	r.totalPairs += cycle.MatchedPairs
	r.totalOpportunities += len(cycle.Opportunities)
	r.totalAlerts += cycle.AlertsSent
	r.totalSuppressed += cycle.Suppressed

	records := make([]domain.OpportunityRecord, 0, len(cycle.Opportunities))
	for _, opp := range cycle.Opportunities {
		rec := toRecord(opp)
		records = append(records, rec)
		if r.best == nil || rec.ProfitPct > r.best.ProfitPct {
			best := rec
			r.best = &best
		}
	}

	r.history = append(r.history, domain.HistoryEntry{
		Timestamp:          cycle.CompletedAt,
		ScanCount:          r.scanCount,
		OpportunitiesFound: len(cycle.Opportunities),
	})
	if len(r.history) > r.historySize {
		r.history = r.history[len(r.history)-r.historySize:]
	}

	snap := domain.StatsSnapshot{
		ScanCount:          r.scanCount,
		LastScanTime:       cycle.CompletedAt,
		TotalEventsSeen:    r.totalEvents,
		TotalMatchedPairs:  r.totalPairs,
		TotalOpportunities: r.totalOpportunities,
		TotalAlertsSent:    r.totalAlerts,
		TotalSuppressed:    r.totalSuppressed,
		Opportunities:      records,
		History:            append([]domain.HistoryEntry(nil), r.history...),
	}
	if r.best != nil {
		best := *r.best
		snap.BestOpportunity = &best
	}
	return snap
}

func toRecord(opp domain.Opportunity) domain.OpportunityRecord {
	return domain.OpportunityRecord{
		PlatformA:  string(opp.Pair.A.Platform),
		PlatformB:  string(opp.Pair.B.Platform),
		MarketAID:  opp.Pair.A.ID,
		MarketBID:  opp.Pair.B.ID,
		Title:      opp.Pair.A.Title,
		Direction:  string(opp.Direction),
		ProfitPct:  opp.ProfitPct,
		TotalCost:  opp.TotalCost,
		Similarity: opp.Pair.Similarity,
		Timestamp:  opp.DetectedAt,
	}
}

// writeAtomic writes data to a temp file in the target directory and renames
// it over path, so a concurrent reader never observes a partial document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".stats-*.json")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Read loads a previously persisted snapshot. The dashboard reads the same
// document; this helper is also what the tests round-trip through.
func Read(path string) (domain.StatsSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("stats: read snapshot: %w", err)
	}
	var snap domain.StatsSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.StatsSnapshot{}, fmt.Errorf("stats: decode snapshot: %w", err)
	}
	return snap, nil
}
