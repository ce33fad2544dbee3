package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"margin-backtest/internal/backtest"
	"margin-backtest/internal/config"
	"margin-backtest/internal/model"
	"margin-backtest/internal/scanner"
	"margin-backtest/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "backtest":
		cmdBacktest(os.Args[2:])
	case "scan":
		cmdScan(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli backtest --db taiwan_stock.db --start 20200101 --end 20251117 --out results/trades.csv")
	fmt.Println("  cli backtest --config examples/config.yaml")
	fmt.Println("  cli scan --db taiwan_stock.db --date 20240102")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - backtest simulates the margin-ratio entry strategy day by day")
	fmt.Println("  - scan prints the ranked entry candidates for a single date")
}

func cmdBacktest(args []string) {
	fs := flag.NewFlagSet("backtest", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (optional; flags override)")
	dbPath := fs.String("db", "", "Path to the SQLite signal database")
	start := fs.String("start", "", "Start date (YYYYMMDD)")
	end := fs.String("end", "", "End date (YYYYMMDD)")
	capital := fs.Float64("capital", 0, "Initial capital (NT$)")
	noTP := fs.Bool("no-take-profit", false, "Disable the take-profit exit")
	noSL := fs.Bool("no-stop-loss", false, "Disable the stop-loss order and exit")
	execution := fs.String("execution", "", "Entry execution mode: market or limit")
	outPath := fs.String("out", "", "Optional output CSV path for the trade ledger")
	_ = fs.Parse(args)

	cfg := &config.Config{}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Database = *dbPath
	}
	if *start != "" {
		cfg.Backtest.StartDate = *start
	}
	if *end != "" {
		cfg.Backtest.EndDate = *end
	}
	if *capital != 0 {
		cfg.Backtest.InitialCapital = *capital
	}
	if *noTP {
		cfg.Backtest.NoTakeProfit = true
	}
	if *noSL {
		cfg.Backtest.NoStopLoss = true
	}
	if *execution != "" {
		cfg.Backtest.Execution = *execution
	}
	if *outPath != "" {
		cfg.Report.TradesCSV = *outPath
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}
	params := cfg.Params()

	printHeader(cfg, params)

	db, err := store.Open(cfg.Database)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	dates, err := db.TradingDates(cfg.Backtest.StartDate, cfg.Backtest.EndDate)
	if err != nil {
		panic(err)
	}
	fmt.Printf("\n%d trading days in window\n", len(dates))
	if len(dates) == 0 {
		fmt.Println("No trading dates found; run the data update and rolling calculation first")
		os.Exit(1)
	}

	res, err := backtest.New(db, db, params).Run(dates)
	if err != nil {
		panic(err)
	}

	printReport(res)

	if cfg.Report.TradesCSV != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Report.TradesCSV), 0o755); err != nil {
			panic(err)
		}
		if err := backtest.WriteTradesCSV(cfg.Report.TradesCSV, res.Trades); err != nil {
			panic(err)
		}
		fmt.Printf("\nWrote %d trades to %s\n", len(res.Trades), cfg.Report.TradesCSV)
	}
}

func printHeader(cfg *config.Config, params backtest.Params) {
	fmt.Println("Margin-ratio strategy backtest")
	fmt.Printf("Window:          %s - %s\n", cfg.Backtest.StartDate, cfg.Backtest.EndDate)
	fmt.Printf("Initial capital: NT$ %.0f\n", params.InitialCapital)
	fmt.Printf("Position sizing: %.0f%% of cash per entry\n", backtest.PositionSizeRatio*100)
	if params.EnableTakeProfit {
		fmt.Printf("Take-profit:     +%.0f%%\n", backtest.TakeProfitPct*100)
	} else {
		fmt.Println("Take-profit:     disabled")
	}
	if params.EnableStopLoss {
		fmt.Printf("Stop-loss:       -%.0f%%\n", backtest.StopLossPct*100)
	} else {
		fmt.Println("Stop-loss:       disabled")
	}
	fmt.Printf("Holding period:  %d trading days\n", backtest.HoldingPeriodDays)
	fmt.Printf("Execution:       %s\n", params.Execution)
}

func printReport(res *backtest.Result) {
	s := res.Summary

	fmt.Println("\nResults")
	fmt.Printf("Trades:          %d buys, %d sells\n", s.BuyCount, s.SellCount)
	fmt.Printf("Final cash:      NT$ %.0f\n", res.FinalCash)
	fmt.Printf("Final value:     NT$ %.0f\n", res.FinalValue)
	fmt.Printf("Total return:    %.2f%%\n", s.TotalReturn*100)

	if s.SellCount > 0 {
		fmt.Printf("\nRealized PnL:    NT$ %.0f\n", s.TotalPnL)
		fmt.Printf("Avg return:      %.2f%%\n", s.AvgPnLPct)
		fmt.Printf("Win rate:        %.2f%%\n", s.WinRate*100)
		if s.AvgWin != 0 {
			fmt.Printf("Avg win:         NT$ %.0f\n", s.AvgWin)
		}
		if s.AvgLoss != 0 {
			fmt.Printf("Avg loss:        NT$ %.0f\n", s.AvgLoss)
		}

		fmt.Println("\nExits by reason:")
		for _, reason := range []model.ExitReason{model.ExitTakeProfit, model.ExitStopLoss, model.ExitHoldingPeriod} {
			if rs, ok := s.ByReason[reason]; ok {
				fmt.Printf("  %-15s %d trades, avg %.2f%%\n", reason, rs.Count, rs.AvgPnLPct)
			}
		}
	}

	fmt.Printf("\nSharpe ratio:    %.4f\n", s.Sharpe)
	fmt.Printf("Max drawdown:    %.2f%%\n", s.MaxDrawdown*100)

	if len(res.OpenPositions) > 0 {
		fmt.Printf("\n%d positions remain open at the end of the window:\n", len(res.OpenPositions))
		for _, pos := range res.OpenPositions {
			fmt.Printf("  %s %s: %d shares @ %.2f\n", pos.Ticker, pos.Name, pos.Shares, pos.WeightedCost)
		}
	}
}

func cmdScan(args []string) {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	dbPath := fs.String("db", "taiwan_stock.db", "Path to the SQLite signal database")
	date := fs.String("date", "", "Date to scan (YYYYMMDD)")
	_ = fs.Parse(args)

	if *date == "" {
		fmt.Println("--date is required")
		os.Exit(2)
	}

	db, err := store.Open(*dbPath)
	if err != nil {
		panic(err)
	}
	defer db.Close()

	rows, err := db.Signals(*date)
	if err != nil {
		panic(err)
	}
	candidates := scanner.Scan(rows)
	if len(candidates) == 0 {
		fmt.Printf("No candidates on %s (%d rows scanned)\n", *date, len(rows))
		return
	}

	fmt.Printf("%-4s %-8s %-12s %-9s %-10s %-10s %-9s %-9s\n",
		"rank", "ticker", "name", "drop%", "ratio", "avg10", "open", "close")
	for i, c := range candidates {
		fmt.Printf("%-4d %-8s %-12s %-9.2f %-10.2f %-10.2f %-9.2f %-9.2f\n",
			i+1, c.Ticker, c.Name, c.DropPct, c.MarginRatio, c.Avg10Ratio, c.Open, c.Close)
	}
}
