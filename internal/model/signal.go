package model

// SignalRow is one (ticker, date) row of the upstream margin-ratio analytic
// table. Rows are produced by the data pipeline and consumed read-only; the
// source guarantees every field is populated and BalanceShares > 0.
//
// Dates everywhere in this module are YYYYMMDD strings, matching the upstream
// database and sorting lexicographically in calendar order.
type SignalRow struct {
	Ticker string
	Name   string
	Date   string

	// MarginRatio is the financing maintenance ratio for the day,
	// Avg10Ratio its 10-day moving average.
	MarginRatio float64
	Avg10Ratio  float64

	Volume      float64
	Avg10Volume float64

	Open  float64
	Close float64

	// BalanceShares is the outstanding margin balance in shares;
	// Avg5BalanceThreshold is 95% of its 5-day moving average.
	BalanceShares        float64
	Avg5BalanceThreshold float64
}

// PriceBar is one (ticker, date) daily OHLC bar from the price table.
type PriceBar struct {
	Ticker string
	Date   string
	Open   float64
	High   float64
	Low    float64
	Close  float64
}

// Candidate is a ranked entry candidate produced by the scanner for a single
// date. DropPct is the relative drop of the margin ratio below its 10-day
// average, in percent (negative; more negative ranks first).
type Candidate struct {
	SignalRow
	DropPct float64
}
