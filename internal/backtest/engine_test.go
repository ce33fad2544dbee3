package backtest

import (
	"fmt"
	"math"
	"testing"

	"margin-backtest/internal/costs"
	"margin-backtest/internal/model"
	"margin-backtest/internal/portfolio"
	"margin-backtest/internal/store"
)

// tradingDays returns n synthetic consecutive dates starting 20240101.
// Using day-of-month only keeps them within one lexical month.
func tradingDays(n int) []string {
	dates := make([]string, n)
	for i := 0; i < n; i++ {
		dates[i] = fmt.Sprintf("202401%02d", i+1)
	}
	return dates
}

// signal returns a row for the ticker that passes both scanner stages, with
// the given open price (used for next-day fills in market mode).
func signal(ticker, date string, open float64) model.SignalRow {
	return model.SignalRow{
		Ticker:               ticker,
		Name:                 ticker,
		Date:                 date,
		MarginRatio:          120,
		Avg10Ratio:           130,
		Volume:               2000,
		Avg10Volume:          1000,
		Open:                 open,
		Close:                open * 1.01,
		BalanceShares:        10000,
		Avg5BalanceThreshold: 9000,
	}
}

func flatBar(ticker, date string, price float64) model.PriceBar {
	return model.PriceBar{Ticker: ticker, Date: date, Open: price, High: price, Low: price, Close: price}
}

func defaultParams() Params {
	return Params{
		InitialCapital:   1000000,
		EnableTakeProfit: true,
		EnableStopLoss:   true,
		Execution:        ExecutionMarket,
	}
}

func sells(trades []model.Trade) []model.Trade {
	var out []model.Trade
	for _, t := range trades {
		if t.Action == model.ActionSell {
			out = append(out, t)
		}
	}
	return out
}

func TestRunEntryScenario(t *testing.T) {
	// Signal on day 1, fill at day 2's open of 50: floor(100000/50) = 2000
	// shares, two full lots.
	dates := tradingDays(3)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 48))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 50, Close: 52,
		MarginRatio: 130, Avg10Ratio: 130}) // open lookup row; fails stage one on purpose
	mem.AddBar(flatBar("2330", "20240102", 52))
	mem.AddBar(flatBar("2330", "20240103", 52))

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1 buy", len(res.Trades))
	}
	buy := res.Trades[0]
	if buy.Action != model.ActionBuy || buy.Date != "20240102" || buy.Shares != 2000 {
		t.Errorf("buy = %+v", buy)
	}
	if buy.OddLot {
		t.Error("2000 shares is two board lots, not an odd lot")
	}
	wantCommission := costs.Commission(2000*50, false)
	wantCash := 1000000 - 2000*50 - wantCommission
	if math.Abs(buy.Commission-wantCommission) > 1e-9 {
		t.Errorf("commission = %v, want %v", buy.Commission, wantCommission)
	}

	// Day 2 snapshot reflects cash + 2000 * day-2 close.
	snap := res.Snapshots[1]
	if math.Abs(snap.Cash-wantCash) > 1e-9 {
		t.Errorf("cash = %v, want %v", snap.Cash, wantCash)
	}
	if math.Abs(snap.Value-(wantCash+2000*52)) > 1e-6 {
		t.Errorf("snapshot value = %v, want %v", snap.Value, wantCash+2000*52)
	}
	if snap.PositionCount != 1 {
		t.Errorf("position count = %d, want 1", snap.PositionCount)
	}
}

func TestRunSignalOnFinalDateNeverFills(t *testing.T) {
	dates := tradingDays(2)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240102", 50))
	mem.AddBar(flatBar("2330", "20240102", 50))

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("trades = %d, want 0", len(res.Trades))
	}
}

func TestRunOddLotEntry(t *testing.T) {
	// 10% of 100,000 is 10,000; at price 20 that is 500 shares, below one
	// board lot, so the order goes through as an odd lot.
	dates := tradingDays(2)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 20))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 20,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(flatBar("2330", "20240102", 20))

	p := defaultParams()
	p.InitialCapital = 100000
	res, err := New(mem, mem, p).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(res.Trades))
	}
	buy := res.Trades[0]
	if buy.Shares != 500 || !buy.OddLot {
		t.Errorf("buy = %d shares oddLot=%v, want 500 odd lot", buy.Shares, buy.OddLot)
	}
	if math.Abs(buy.Commission-costs.Commission(500*20, true)) > 1e-9 {
		t.Errorf("commission = %v", buy.Commission)
	}
}

func TestRunStopLossTriggersAtExactTriggerPrice(t *testing.T) {
	// Entry at 100 arms the stop at 90. A later bar with low 90 fills the
	// stop at exactly 90.
	dates := tradingDays(4)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(flatBar("2330", "20240102", 100))
	mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240103", Open: 95, High: 96, Low: 90, Close: 95})
	mem.AddBar(flatBar("2330", "20240104", 95))

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}

	ss := sells(res.Trades)
	if len(ss) != 1 {
		t.Fatalf("sells = %d, want 1", len(ss))
	}
	sell := ss[0]
	if sell.Date != "20240103" || sell.Reason != model.ExitStopLoss {
		t.Errorf("sell = %+v", sell)
	}
	if sell.Price != 90 {
		t.Errorf("stop fill price = %v, want exactly the 90 trigger", sell.Price)
	}
	if sell.Tax != costs.Tax(sell.Value, false) {
		t.Errorf("tax = %v, want regular rate", sell.Tax)
	}
}

func TestRunStopLossDisabledIgnoresLow(t *testing.T) {
	dates := tradingDays(3)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(flatBar("2330", "20240102", 100))
	// Low breaches -10% and the close sits at -11%; with stop-loss off the
	// position stays open.
	mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240103", Open: 90, High: 91, Low: 85, Close: 89})

	p := defaultParams()
	p.EnableStopLoss = false
	res, err := New(mem, mem, p).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(sells(res.Trades)) != 0 {
		t.Errorf("sells = %d, want 0 with stop-loss disabled", len(sells(res.Trades)))
	}
	if len(res.OpenPositions) != 1 {
		t.Errorf("open positions = %d, want 1", len(res.OpenPositions))
	}
}

func TestRunTakeProfitBoundary(t *testing.T) {
	tests := []struct {
		name      string
		exitClose float64
		wantExit  bool
	}{
		{"exactly 40 percent", 140, true},
		{"just under 40 percent", 139.99, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dates := tradingDays(3)
			mem := store.NewMemory(dates...)
			mem.AddSignal(signal("2330", "20240101", 100))
			mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
				MarginRatio: 130, Avg10Ratio: 130})
			mem.AddBar(flatBar("2330", "20240102", 100))
			mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240103",
				Open: 120, High: tt.exitClose, Low: 119, Close: tt.exitClose})

			res, err := New(mem, mem, defaultParams()).Run(dates)
			if err != nil {
				t.Fatal(err)
			}
			ss := sells(res.Trades)
			if tt.wantExit {
				if len(ss) != 1 || ss[0].Reason != model.ExitTakeProfit {
					t.Fatalf("sells = %+v, want one take_profit", ss)
				}
				if ss[0].Price != tt.exitClose {
					t.Errorf("exit price = %v, want close %v", ss[0].Price, tt.exitClose)
				}
			} else if len(ss) != 0 {
				t.Fatalf("sells = %+v, want none", ss)
			}
		})
	}
}

func TestRunHoldingPeriodExitOnFifteenthDay(t *testing.T) {
	// Entry fills on day 2; day 17 is the 15th trading day after it. The
	// close stays flat so neither profit rule fires first.
	dates := tradingDays(20)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	for _, d := range dates[1:] {
		mem.AddBar(flatBar("2330", d, 100))
	}

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	ss := sells(res.Trades)
	if len(ss) != 1 {
		t.Fatalf("sells = %d, want 1", len(ss))
	}
	sell := ss[0]
	if sell.Date != "20240117" || sell.Reason != model.ExitHoldingPeriod {
		t.Errorf("sell = %s %s, want 20240117 holding_period", sell.Date, sell.Reason)
	}
	if sell.HoldingDays != HoldingPeriodDays {
		t.Errorf("holding days = %d, want %d", sell.HoldingDays, HoldingPeriodDays)
	}
}

func TestRunReentryMergesWithinWindow(t *testing.T) {
	// Second signal three days after the first: the fill merges into the
	// existing position at the share-weighted cost and re-arms the stop.
	dates := tradingDays(6)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddSignal(signal("2330", "20240104", 110))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240105", Open: 110,
		MarginRatio: 130, Avg10Ratio: 130})
	for _, d := range dates[1:] {
		mem.AddBar(flatBar("2330", d, 100))
	}

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(res.Trades); got != 2 {
		t.Fatalf("trades = %d, want 2 buys", got)
	}
	if len(res.OpenPositions) != 1 {
		t.Fatalf("open positions = %d, want 1 merged", len(res.OpenPositions))
	}
	pos := res.OpenPositions[0]
	first, second := res.Trades[0], res.Trades[1]
	wantShares := first.Shares + second.Shares
	wantCost := (100*float64(first.Shares) + 110*float64(second.Shares)) / float64(wantShares)
	if pos.Shares != wantShares {
		t.Errorf("shares = %d, want %d", pos.Shares, wantShares)
	}
	if math.Abs(pos.WeightedCost-wantCost) > 1e-9 {
		t.Errorf("weighted cost = %v, want %v", pos.WeightedCost, wantCost)
	}
	if pos.EntryDate != "20240105" || pos.EntrySignalDate != "20240104" {
		t.Errorf("entry dates = %s/%s, want refreshed to 20240105/20240104", pos.EntryDate, pos.EntrySignalDate)
	}
}

func TestRunReentrySignalIgnoredAfterWindow(t *testing.T) {
	// First signal 20240101, fill 20240102. A second signal on 20240116 is 15
	// trading days past the first signal date, so the window is shut and no
	// second buy may happen, even though the position itself (14 days past
	// its fill) is still one day short of the holding-period exit.
	dates := tradingDays(18)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddSignal(signal("2330", "20240116", 100))
	// Open available on 20240117: a leaked order would fill and be visible.
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240117", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	for _, d := range dates[1:] {
		mem.AddBar(flatBar("2330", d, 100))
	}

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}

	var buys int
	for _, tr := range res.Trades {
		if tr.Action == model.ActionBuy {
			buys++
		}
	}
	if buys != 1 {
		t.Fatalf("buys = %d, want the late signal ignored", buys)
	}
	ss := sells(res.Trades)
	if len(ss) != 1 || ss[0].Date != "20240117" || ss[0].Reason != model.ExitHoldingPeriod {
		t.Errorf("sells = %+v, want one holding_period exit on 20240117", ss)
	}
}

func TestRunCashNeverGoesNegative(t *testing.T) {
	// A flood of signals across many tickers; each fill shrinks cash and
	// later orders must either size down or be rejected, never overdraw.
	dates := tradingDays(12)
	mem := store.NewMemory(dates...)
	for i := 0; i < 10; i++ {
		tk := fmt.Sprintf("%04d", 1101+i)
		for _, d := range dates[:len(dates)-1] {
			mem.AddSignal(signal(tk, d, 40))
		}
		for _, d := range dates {
			mem.AddBar(flatBar(tk, d, 40))
		}
	}

	p := defaultParams()
	p.InitialCapital = 50000
	res, err := New(mem, mem, p).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	for _, snap := range res.Snapshots {
		if snap.Cash < 0 {
			t.Fatalf("cash went negative on %s: %v", snap.Date, snap.Cash)
		}
	}
}

func TestRunMissingCloseSkipsExitAndValuesZero(t *testing.T) {
	// No bar at all on day 3: no stop check, no exit, and the held ticker
	// contributes zero to that day's snapshot.
	dates := tradingDays(3)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(flatBar("2330", "20240102", 100))

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(sells(res.Trades)) != 0 {
		t.Error("a data gap must not close positions")
	}
	last := res.Snapshots[len(res.Snapshots)-1]
	if last.Value != last.Cash {
		t.Errorf("day-3 value = %v, want cash only %v", last.Value, last.Cash)
	}
	if last.PositionCount != 1 {
		t.Errorf("position count = %d, want 1", last.PositionCount)
	}
}

func TestRunZeroPriceBarHeldAsDataGap(t *testing.T) {
	// Day 3 carries an all-zero placeholder bar. The zero low must not fire
	// the 90 stop and the zero close must not read as a -100% return; the
	// position rides through the anomaly and is valued at zero that day.
	dates := tradingDays(4)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(flatBar("2330", "20240102", 100))
	mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240103"})
	mem.AddBar(flatBar("2330", "20240104", 100))

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if got := sells(res.Trades); len(got) != 0 {
		t.Fatalf("sells = %+v, want none on a placeholder bar", got)
	}
	if len(res.OpenPositions) != 1 {
		t.Fatalf("open positions = %d, want 1", len(res.OpenPositions))
	}
	day3 := res.Snapshots[2]
	if day3.Value != day3.Cash {
		t.Errorf("day-3 value = %v, want cash only %v", day3.Value, day3.Cash)
	}
	// Day 4 values the position normally again.
	day4 := res.Snapshots[3]
	if math.Abs(day4.Value-(day4.Cash+1000*100)) > 1e-6 {
		t.Errorf("day-4 value = %v, want %v", day4.Value, day4.Cash+1000*100)
	}
}

func TestRunEmptyWindowYieldsInitialCapital(t *testing.T) {
	dates := tradingDays(5)
	mem := store.NewMemory(dates...)

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 0 {
		t.Errorf("trades = %d, want 0", len(res.Trades))
	}
	if res.FinalValue != 1000000 || res.TotalReturn != 0 {
		t.Errorf("final = %v return = %v, want initial capital and zero", res.FinalValue, res.TotalReturn)
	}
}

func TestRunLimitModeFillAndExpiry(t *testing.T) {
	// Limit orders rest at the signal date's open (100). Ticker 1101's next
	// bar trades down through 100 and fills at 100; ticker 2330 never
	// touches it and the order expires.
	dates := tradingDays(3)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("1101", "20240101", 100))
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddBar(model.PriceBar{Ticker: "1101", Date: "20240102", Open: 102, High: 103, Low: 99, Close: 101})
	mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240102", Open: 102, High: 104, Low: 101, Close: 103})
	mem.AddBar(flatBar("1101", "20240103", 101))
	mem.AddBar(flatBar("2330", "20240103", 103))

	p := defaultParams()
	p.Execution = ExecutionLimit
	res, err := New(mem, mem, p).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Trades) != 1 {
		t.Fatalf("trades = %d, want 1 fill", len(res.Trades))
	}
	buy := res.Trades[0]
	if buy.Ticker != "1101" || buy.Price != 100 {
		t.Errorf("fill = %s @ %v, want 1101 @ the 100 limit", buy.Ticker, buy.Price)
	}
}

func TestRunDayTradeTaxRate(t *testing.T) {
	// Entry fills on day 2 and the same day's bar collapses through the
	// stop: the sell settles at the day-trade tax rate.
	dates := tradingDays(2)
	mem := store.NewMemory(dates...)
	mem.AddSignal(signal("2330", "20240101", 100))
	mem.AddSignal(model.SignalRow{Ticker: "2330", Date: "20240102", Open: 100,
		MarginRatio: 130, Avg10Ratio: 130})
	mem.AddBar(model.PriceBar{Ticker: "2330", Date: "20240102", Open: 100, High: 100, Low: 88, Close: 89})

	res, err := New(mem, mem, defaultParams()).Run(dates)
	if err != nil {
		t.Fatal(err)
	}
	ss := sells(res.Trades)
	if len(ss) != 1 {
		t.Fatalf("sells = %d, want 1 same-day stop", len(ss))
	}
	sell := ss[0]
	if sell.Date != "20240102" || sell.Reason != model.ExitStopLoss {
		t.Fatalf("sell = %+v", sell)
	}
	if math.Abs(sell.Tax-costs.Tax(sell.Value, true)) > 1e-9 {
		t.Errorf("tax = %v, want day-trade rate %v", sell.Tax, costs.Tax(sell.Value, true))
	}
}

func TestExecuteBuyRejectsNonPositivePrice(t *testing.T) {
	e := New(nil, nil, defaultParams())
	st := &state{cash: 1000000, book: portfolio.NewBook()}
	for _, price := range []float64{0, -1} {
		e.executeBuy(st, "20240102", entryOrder{Ticker: "2330", SignalDate: "20240101"}, price)
	}
	if len(st.trades) != 0 || st.cash != 1000000 || st.book.OpenCount() != 0 {
		t.Errorf("state changed on non-positive price: trades=%d cash=%v positions=%d",
			len(st.trades), st.cash, st.book.OpenCount())
	}
}

func TestRunRejectsBadParams(t *testing.T) {
	mem := store.NewMemory("20240101")
	if _, err := New(mem, mem, Params{InitialCapital: 0, Execution: ExecutionMarket}).Run([]string{"20240101"}); err == nil {
		t.Error("zero capital must be rejected")
	}
	if _, err := New(mem, mem, defaultParams()).Run(nil); err == nil {
		t.Error("empty calendar must be rejected")
	}
}
