// Package backtest runs the day-by-day simulation of the margin-ratio entry
// strategy: signal scan, next-open entries, stop-loss monitoring, rule-based
// exits and daily mark-to-market.
package backtest

import (
	"fmt"

	"margin-backtest/internal/costs"
	"margin-backtest/internal/model"
	"margin-backtest/internal/portfolio"
	"margin-backtest/internal/scanner"
)

type Engine struct {
	signals SignalSource
	prices  PriceSource
	params  Params
}

func New(signals SignalSource, prices PriceSource, params Params) *Engine {
	if params.Execution == "" {
		params.Execution = ExecutionMarket
	}
	return &Engine{signals: signals, prices: prices, params: params}
}

// entryOrder is an order generated from a signal on one date, to be executed
// on the following trading date. LimitPrice is set in limit mode only.
type entryOrder struct {
	Ticker     string
	Name       string
	SignalDate string
	LimitPrice float64
}

// state is the mutable run state, owned exclusively by Run.
type state struct {
	cash      float64
	book      *portfolio.Book
	pending   []entryOrder
	trades    []model.Trade
	snapshots []model.PortfolioSnapshot

	// dateIndex maps each trading date to its position in the run's
	// calendar; elapsed trading days between two dates is the index delta.
	dateIndex map[string]int
}

// Run simulates the strategy over the given ordered trading dates.
//
// Within one date the order of operations is load-bearing: entries queued on
// the previous date fill first, then stop-loss orders are checked against the
// intraday low, then take-profit / stop-loss / holding-period exits are
// evaluated on the close, then the portfolio is marked to market. The date's
// own signals are scanned last and queue orders for the next date.
func (e *Engine) Run(dates []string) (*Result, error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no trading dates")
	}

	st := &state{
		cash:      e.params.InitialCapital,
		book:      portfolio.NewBook(),
		dateIndex: make(map[string]int, len(dates)),
	}
	for i, d := range dates {
		st.dateIndex[d] = i
	}

	for i, date := range dates {
		if err := e.fillEntries(st, date); err != nil {
			return nil, fmt.Errorf("date %s entries: %w", date, err)
		}
		if e.params.EnableStopLoss {
			if err := e.checkStops(st, date); err != nil {
				return nil, fmt.Errorf("date %s stop orders: %w", date, err)
			}
		}
		if err := e.evaluateExits(st, date); err != nil {
			return nil, fmt.Errorf("date %s exits: %w", date, err)
		}
		if err := e.markToMarket(st, date); err != nil {
			return nil, fmt.Errorf("date %s valuation: %w", date, err)
		}
		if err := e.queueEntries(st, date, i, dates); err != nil {
			return nil, fmt.Errorf("date %s signals: %w", date, err)
		}
	}

	finalValue := st.snapshots[len(st.snapshots)-1].Value
	res := &Result{
		Trades:      st.trades,
		Snapshots:   st.snapshots,
		FinalCash:   st.cash,
		FinalValue:  finalValue,
		TotalReturn: (finalValue - e.params.InitialCapital) / e.params.InitialCapital,
		// Open positions at the end of the window are kept, not
		// liquidated; they are already reflected in the last snapshot.
		OpenPositions: st.book.Positions(),
	}
	res.Summary = Summarize(e.params.InitialCapital, res.Trades, res.Snapshots)
	return res, nil
}

// queueEntries scans the date's signal rows and queues one entry order per
// candidate for the next trading date. Signals on the final date never fill.
// A candidate whose position has been held for the full window since its last
// signal date is skipped; the position is left to the exit rules.
func (e *Engine) queueEntries(st *state, date string, i int, dates []string) error {
	if i == len(dates)-1 {
		return nil
	}
	rows, err := e.signals.Signals(date)
	if err != nil {
		return err
	}
	for _, c := range scanner.Scan(rows) {
		if pos, ok := st.book.Position(c.Ticker); ok {
			if elapsed(st.dateIndex, pos.EntrySignalDate, date) >= HoldingPeriodDays {
				continue
			}
		}
		o := entryOrder{Ticker: c.Ticker, Name: c.Name, SignalDate: date}
		if e.params.Execution == ExecutionLimit {
			o.LimitPrice = c.Open
		}
		st.pending = append(st.pending, o)
	}
	return nil
}

// fillEntries executes the orders queued on the previous trading date.
func (e *Engine) fillEntries(st *state, date string) error {
	orders := st.pending
	st.pending = nil
	for _, o := range orders {
		switch e.params.Execution {
		case ExecutionLimit:
			bar, ok, err := e.prices.Bar(o.Ticker, date)
			if err != nil {
				return err
			}
			if !ok || bar.Low > o.LimitPrice {
				continue // expired
			}
			e.executeBuy(st, date, o, o.LimitPrice)
		default:
			open, ok, err := e.signals.OpenPrice(o.Ticker, date)
			if err != nil {
				return err
			}
			if !ok {
				continue
			}
			e.executeBuy(st, date, o, open)
		}
	}
	return nil
}

// executeBuy sizes, lot-rounds and settles one entry fill. Orders that size
// to zero shares or would drive cash negative are dropped without any state
// change; the absence of a Trade record is the only signal of rejection.
func (e *Engine) executeBuy(st *state, date string, o entryOrder, price float64) {
	if price <= 0 {
		return
	}
	notional := st.cash * PositionSizeRatio
	shares := int64(notional / price)
	oddLot := shares < costs.SharesPerLot
	if !oddLot {
		shares = shares / costs.SharesPerLot * costs.SharesPerLot
	}
	if shares <= 0 {
		return
	}

	value := float64(shares) * price
	commission := costs.Commission(value, oddLot)
	totalCost := value + commission
	if totalCost > st.cash {
		return
	}

	st.cash -= totalCost
	pos := st.book.ApplyBuy(o.Ticker, o.Name, shares, price, date, o.SignalDate)
	if e.params.EnableStopLoss {
		st.book.ArmStop(o.Ticker, pos.WeightedCost*(1-StopLossPct), pos.Shares)
	}

	st.trades = append(st.trades, model.Trade{
		Date:       date,
		Action:     model.ActionBuy,
		Ticker:     o.Ticker,
		Name:       o.Name,
		Shares:     shares,
		Price:      price,
		Value:      value,
		Commission: commission,
		OddLot:     oddLot,
		SignalDate: o.SignalDate,
		TotalCost:  totalCost,
	})
}

// checkStops triggers armed stop orders whose price was touched by the date's
// intraday low. Fills happen at the trigger price, not at the observed low.
// Missing bars mean no trigger that day.
func (e *Engine) checkStops(st *state, date string) error {
	for _, stop := range st.book.Stops() {
		bar, ok, err := e.prices.Bar(stop.Ticker, date)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if bar.Low <= stop.TriggerPrice {
			e.executeSell(st, date, stop.Ticker, stop.TriggerPrice, model.ExitStopLoss)
		}
	}
	return nil
}

// evaluateExits closes positions on the date's close price: take-profit at
// +40%, close-based stop-loss at -10% (a safety net behind checkStops), or a
// full holding period since the last entry fill. Positions with no close for
// the date are left open.
func (e *Engine) evaluateExits(st *state, date string) error {
	for _, pos := range st.book.Positions() {
		closePrice, ok, err := e.prices.ClosePrice(pos.Ticker, date)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		returnPct := (closePrice - pos.WeightedCost) / pos.WeightedCost

		var reason model.ExitReason
		switch {
		case e.params.EnableTakeProfit && returnPct >= TakeProfitPct:
			reason = model.ExitTakeProfit
		case e.params.EnableStopLoss && returnPct <= -StopLossPct:
			reason = model.ExitStopLoss
		case elapsed(st.dateIndex, pos.EntryDate, date) >= HoldingPeriodDays:
			reason = model.ExitHoldingPeriod
		default:
			continue
		}
		e.executeSell(st, date, pos.Ticker, closePrice, reason)
	}
	return nil
}

// executeSell closes the full position at the given price, paying commission
// and transaction tax. The day-trade tax rate applies when the position was
// entered the same date.
func (e *Engine) executeSell(st *state, date, ticker string, price float64, reason model.ExitReason) {
	pos, ok := st.book.Close(ticker)
	if !ok {
		return
	}

	value := float64(pos.Shares) * price
	oddLot := pos.Shares < costs.SharesPerLot
	commission := costs.Commission(value, oddLot)
	tax := costs.Tax(value, pos.EntryDate == date)
	netProceeds := value - commission - tax
	st.cash += netProceeds

	totalCost := pos.WeightedCost * float64(pos.Shares)
	pnl := netProceeds - totalCost
	pnlPct := 0.0
	if totalCost > 0 {
		pnlPct = pnl / totalCost * 100
	}

	st.trades = append(st.trades, model.Trade{
		Date:        date,
		Action:      model.ActionSell,
		Ticker:      ticker,
		Name:        pos.Name,
		Shares:      pos.Shares,
		Price:       price,
		Value:       value,
		Commission:  commission,
		OddLot:      oddLot,
		EntryPrice:  pos.WeightedCost,
		Tax:         tax,
		NetProceeds: netProceeds,
		PnL:         pnl,
		PnLPct:      pnlPct,
		Reason:      reason,
		HoldingDays: elapsed(st.dateIndex, pos.EntryDate, date),
	})
}

// markToMarket appends the date's snapshot: cash plus open positions valued
// at the date's close. A held ticker with no close contributes zero for the
// day; that understates value but never closes the position.
func (e *Engine) markToMarket(st *state, date string) error {
	value := st.cash
	for _, pos := range st.book.Positions() {
		closePrice, ok, err := e.prices.ClosePrice(pos.Ticker, date)
		if err != nil {
			return err
		}
		if ok {
			value += float64(pos.Shares) * closePrice
		}
	}
	st.snapshots = append(st.snapshots, model.PortfolioSnapshot{
		Date:          date,
		Value:         value,
		Cash:          st.cash,
		PositionCount: st.book.OpenCount(),
	})
	return nil
}

// elapsed counts trading dates strictly after from, up to and including to,
// against the run's calendar. Dates outside the calendar count as zero.
func elapsed(index map[string]int, from, to string) int {
	f, okF := index[from]
	t, okT := index[to]
	if !okF || !okT || t < f {
		return 0
	}
	return t - f
}
