package model

// Action is the side of a trade. Keep these values stable; they are intended
// for CSV output.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// ExitReason explains why a position was closed.
type ExitReason string

const (
	ExitTakeProfit    ExitReason = "take_profit"
	ExitStopLoss      ExitReason = "stop_loss"
	ExitHoldingPeriod ExitReason = "holding_period"
)

// Trade is one executed order. Records are append-only and never mutated.
// Sell-only fields (Tax, NetProceeds, PnL, Reason, ...) are zero on buys;
// TotalCost is buy-only.
type Trade struct {
	Date   string
	Action Action
	Ticker string
	Name   string
	Shares int64
	Price  float64

	// Value is shares * price before costs.
	Value      float64
	Commission float64
	OddLot     bool

	// SignalDate is the date the entry signal was generated (buys).
	SignalDate string
	TotalCost  float64

	EntryPrice  float64
	Tax         float64
	NetProceeds float64
	PnL         float64
	PnLPct      float64
	Reason      ExitReason
	HoldingDays int
}

// PortfolioSnapshot is the end-of-day mark-to-market record, one per
// simulated trading date.
type PortfolioSnapshot struct {
	Date          string
	Value         float64
	Cash          float64
	PositionCount int
}
