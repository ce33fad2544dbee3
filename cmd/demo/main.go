package main

import (
	"flag"
	"fmt"

	"margin-backtest/internal/backtest"
	"margin-backtest/internal/model"
	"margin-backtest/internal/store"
)

// Demo:
// - Build a small in-memory signal and price dataset
// - Run the engine over it to show how the pieces fit together
// - One position rides to the take-profit, one gets stopped out
func main() {
	capital := flag.Float64("capital", 1000000, "Initial capital (NT$)")
	outCSV := flag.String("out", "", "Optional path to write the trade ledger CSV")
	flag.Parse()

	mem := demoData()

	params := backtest.Params{
		InitialCapital:   *capital,
		EnableTakeProfit: true,
		EnableStopLoss:   true,
		Execution:        backtest.ExecutionMarket,
	}

	dates, err := mem.TradingDates("20240101", "20240112")
	if err != nil {
		panic(err)
	}

	result, err := backtest.New(mem, mem, params).Run(dates)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Simulated %d trading days with NT$ %.0f\n\n", len(dates), *capital)
	for _, t := range result.Trades {
		switch t.Action {
		case model.ActionBuy:
			fmt.Printf("%s BUY  %-6s %6d @ %7.2f  cost=%9.0f  signal=%s\n",
				t.Date, t.Ticker, t.Shares, t.Price, t.TotalCost, t.SignalDate)
		case model.ActionSell:
			fmt.Printf("%s SELL %-6s %6d @ %7.2f  pnl=%10.0f (%+.2f%%)  %s\n",
				t.Date, t.Ticker, t.Shares, t.Price, t.PnL, t.PnLPct, t.Reason)
		}
	}

	s := result.Summary
	fmt.Printf("\nFinal value:  NT$ %.0f (%+.2f%%)\n", result.FinalValue, s.TotalReturn*100)
	fmt.Printf("Win rate:     %.0f%% over %d round trips\n", s.WinRate*100, s.SellCount)
	fmt.Printf("Max drawdown: %.2f%%\n", s.MaxDrawdown*100)

	if *outCSV != "" {
		if err := backtest.WriteTradesCSV(*outCSV, result.Trades); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote CSV: %s\n", *outCSV)
	}
}

// demoData fabricates twelve trading days for two tickers. Both trigger the
// scanner on day one and fill on day two; 1101 climbs 41% into the take-profit
// while 2330 slides through its stop.
func demoData() *store.Memory {
	dates := make([]string, 0, 12)
	for day := 1; day <= 12; day++ {
		dates = append(dates, fmt.Sprintf("202401%02d", day))
	}
	mem := store.NewMemory(dates...)

	// Qualifying signals on the first day.
	mem.AddSignal(model.SignalRow{
		Ticker: "1101", Name: "TaiwanCement", Date: "20240101",
		MarginRatio: 112, Avg10Ratio: 130,
		Volume: 2500, Avg10Volume: 1600,
		Open: 49.5, Close: 50.2,
		BalanceShares: 12000, Avg5BalanceThreshold: 9500,
	})
	mem.AddSignal(model.SignalRow{
		Ticker: "2330", Name: "TSMC", Date: "20240101",
		MarginRatio: 118, Avg10Ratio: 135,
		Volume: 9000, Avg10Volume: 7000,
		Open: 98.5, Close: 99.8,
		BalanceShares: 30000, Avg5BalanceThreshold: 26000,
	})

	// Flat rows on the fill date so the market orders can price themselves.
	mem.AddSignal(quoteRow("1101", "TaiwanCement", "20240102", 50.0))
	mem.AddSignal(quoteRow("2330", "TSMC", "20240102", 100.0))

	// 1101 grinds upward and crosses +40% on day eight.
	closes1101 := []float64{50.5, 53, 57, 61, 64, 67, 70.5, 71, 71, 70, 70}
	for i, c := range closes1101 {
		date := fmt.Sprintf("202401%02d", i+2)
		mem.AddBar(model.PriceBar{
			Ticker: "1101", Date: date,
			Open: c - 0.5, High: c + 1, Low: c - 1.5, Close: c,
		})
	}

	// 2330 fades; the day-five low pierces the 90.00 stop.
	closes2330 := []float64{99, 96, 93, 91, 90.5, 90, 89, 88, 88, 87, 87}
	for i, c := range closes2330 {
		date := fmt.Sprintf("202401%02d", i+2)
		low := c - 1
		if date == "20240105" {
			low = 89.5
		}
		mem.AddBar(model.PriceBar{
			Ticker: "2330", Date: date,
			Open: c + 0.5, High: c + 1.5, Low: low, Close: c,
		})
	}

	return mem
}

// quoteRow carries an open price without passing the ratio-drop stage.
func quoteRow(ticker, name, date string, open float64) model.SignalRow {
	return model.SignalRow{
		Ticker: ticker, Name: name, Date: date,
		MarginRatio: 130, Avg10Ratio: 130,
		Volume: 1, Avg10Volume: 1,
		Open: open, Close: open,
		BalanceShares: 1, Avg5BalanceThreshold: 1,
	}
}
