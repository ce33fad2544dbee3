package model

// Position is an open holding for one ticker. At most one Position exists per
// ticker; re-entries within the holding window merge into it with a
// share-weighted average cost.
type Position struct {
	Ticker string
	Name   string
	Shares int64

	// WeightedCost is the share-weighted average entry price across all
	// unclosed buy tranches.
	WeightedCost float64

	// EntryDate is the fill date of the most recent buy;
	// EntrySignalDate the date the signal that produced it was generated.
	EntryDate       string
	EntrySignalDate string
}

// StopLossOrder is a standing conditional sell for one ticker. It exists only
// while the ticker has a Position and is recomputed whenever the position's
// weighted cost changes.
type StopLossOrder struct {
	Ticker       string
	TriggerPrice float64
	Shares       int64
}
