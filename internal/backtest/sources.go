package backtest

import "margin-backtest/internal/model"

// SignalSource serves the upstream analytic table read-only. Signals returns
// only rows with every field populated and BalanceShares > 0. OpenPrice looks
// up the opening price recorded in the signal table; the bool is false when
// the (ticker, date) row is absent or carries a non-positive placeholder
// price.
type SignalSource interface {
	Signals(date string) ([]model.SignalRow, error)
	OpenPrice(ticker, date string) (float64, bool, error)
}

// PriceSource serves daily OHLC bars. Absent or placeholder (non-positive
// price) data is (zero, false, nil), not an error; the engine skips the
// affected unit for that date.
type PriceSource interface {
	Bar(ticker, date string) (model.PriceBar, bool, error)
	ClosePrice(ticker, date string) (float64, bool, error)
}

// Calendar produces the ordered trading-date sequence driving a run. It is
// the source of truth for elapsed-trading-day counts.
type Calendar interface {
	TradingDates(start, end string) ([]string, error)
}
