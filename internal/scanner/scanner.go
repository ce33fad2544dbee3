// Package scanner turns one day's cross-sectional signal table into a ranked
// list of entry candidates via a two-stage filter: a margin-ratio drop rank
// followed by three confirmation filters.
package scanner

import (
	"sort"

	"margin-backtest/internal/model"
)

// TopN is how many drop-ranked names survive stage one.
const TopN = 10

// Scan applies both filter stages to one date's signal rows and returns the
// surviving candidates ordered by drop rank. Input rows are assumed
// pre-filtered by the source (all fields populated, BalanceShares > 0).
// Deterministic and side-effect free.
func Scan(rows []model.SignalRow) []model.Candidate {
	candidates := make([]model.Candidate, 0, len(rows))
	for _, row := range rows {
		drop, ok := dropBelowAverage(row)
		if !ok {
			continue
		}
		candidates = append(candidates, model.Candidate{SignalRow: row, DropPct: drop})
	}
	if len(candidates) == 0 {
		return nil
	}

	// Largest relative drop first.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].DropPct < candidates[j].DropPct
	})
	if len(candidates) > TopN {
		candidates = candidates[:TopN]
	}

	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if confirmed(c.SignalRow) {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// dropBelowAverage is stage one: the margin ratio must sit below its 10-day
// moving average. Returns the drop in percent (negative).
func dropBelowAverage(row model.SignalRow) (float64, bool) {
	if row.MarginRatio >= row.Avg10Ratio {
		return 0, false
	}
	drop := (row.MarginRatio - row.Avg10Ratio) / row.Avg10Ratio * 100
	return drop, true
}

// confirmed is stage two; all three filters must pass:
// volume above its 10-day average, a bullish daily bar, and the margin
// balance above its 5-day threshold.
func confirmed(row model.SignalRow) bool {
	if row.Volume <= row.Avg10Volume {
		return false
	}
	if row.Close <= row.Open {
		return false
	}
	return row.BalanceShares > row.Avg5BalanceThreshold
}
