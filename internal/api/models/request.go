package models

// BacktestRequest is the request body for running a backtest.
type BacktestRequest struct {
	// Database overrides the server's configured SQLite path.
	Database string     `json:"database,omitempty"`
	Backtest RunConfig  `json:"backtest" binding:"required"`
	Options  RunOptions `json:"options,omitempty"`
}

// RunConfig mirrors the backtest section of the YAML config.
type RunConfig struct {
	StartDate      string  `json:"start_date" binding:"required"` // YYYYMMDD
	EndDate        string  `json:"end_date" binding:"required"`   // YYYYMMDD
	InitialCapital float64 `json:"initial_capital,omitempty"`     // default 1,000,000
	NoTakeProfit   bool    `json:"no_take_profit,omitempty"`
	NoStopLoss     bool    `json:"no_stop_loss,omitempty"`
	Execution      string  `json:"execution,omitempty"` // "market" (default) or "limit"
}

// RunOptions controls how much of the run is returned inline.
type RunOptions struct {
	IncludeTrades    bool `json:"include_trades,omitempty"`
	IncludeSnapshots bool `json:"include_snapshots,omitempty"`
}
