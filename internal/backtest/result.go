package backtest

import "margin-backtest/internal/model"

// Result is everything one run produced. Trades and Snapshots are the primary
// artifacts for "what happened"; Summary is derived from them.
type Result struct {
	Trades    []model.Trade
	Snapshots []model.PortfolioSnapshot

	// OpenPositions are the holdings still on the book at the final date.
	// They are valued in the last snapshot, never force-liquidated.
	OpenPositions []*model.Position

	FinalCash   float64
	FinalValue  float64
	TotalReturn float64

	Summary Summary
}
