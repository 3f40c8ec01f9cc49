// Package matcher pairs markets across the two platforms using title
// similarity and resolution-date proximity.
package matcher

import (
	"time"

	"github.com/crosslisted/arbscan/internal/domain"
)

// Options control the matching pass.
type Options struct {
	// SimilarityThreshold is the minimum title similarity for a candidate
	// pair; candidates below it are discarded.
	SimilarityThreshold float64

	// DateTolerance is the maximum allowed gap between resolution dates.
	// The filter is skipped when either side lacks a date.
	DateTolerance time.Duration
}

// Result holds the matched pairs plus the leftover unmatched markets from
// each platform.
type Result struct {
	Pairs      []domain.MatchedPair
	UnmatchedA []domain.Market
	UnmatchedB []domain.Market
}

// Match pairs markets from platform A against markets from platform B. For
// each A-market in input order it scores every not-yet-consumed B-market
// whose resolution date is within tolerance, keeps candidates at or above
// the similarity threshold, and takes the single best. Ties go to the
// lexicographically smallest B-market ID so the output is deterministic.
// Both sides of a pair are consumed; no market is matched twice in a cycle.
// Match has no side effects and is a pure function of its inputs.
func Match(a, b []domain.Market, opts Options) Result {
	res := Result{}
	consumed := make([]bool, len(b))

	for _, ma := range a {
		bestIdx := -1
		bestSim := 0.0

		for j, mb := range b {
			if consumed[j] {
				continue
			}
			if !datesWithin(ma.ResolutionDate, mb.ResolutionDate, opts.DateTolerance) {
				continue
			}

			sim := TitleSimilarity(ma.Title, mb.Title)
			if sim < opts.SimilarityThreshold {
				continue
			}

			switch {
			case bestIdx < 0, sim > bestSim:
				bestIdx, bestSim = j, sim
			case sim == bestSim && mb.ID < b[bestIdx].ID:
				bestIdx = j
			}
		}

		if bestIdx < 0 {
			res.UnmatchedA = append(res.UnmatchedA, ma)
			continue
		}

		consumed[bestIdx] = true
		res.Pairs = append(res.Pairs, domain.MatchedPair{
			A:          ma,
			B:          b[bestIdx],
			Similarity: bestSim,
		})
	}

	for j, mb := range b {
		if !consumed[j] {
			res.UnmatchedB = append(res.UnmatchedB, mb)
		}
	}

	return res
}

// datesWithin reports whether two resolution dates are close enough to
// co-refer. A missing date on either side never excludes a match.
func datesWithin(a, b *time.Time, tolerance time.Duration) bool {
	if a == nil || b == nil {
		return true
	}
	diff := a.Sub(*b)
	if diff < 0 {
		diff = -diff
	}
	return diff <= tolerance
}
