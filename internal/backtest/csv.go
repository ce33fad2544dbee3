package backtest

import (
	"encoding/csv"
	"os"
	"strconv"

	"margin-backtest/internal/model"
)

// WriteTradesCSV writes the trade ledger to path, one row per trade.
// Sell-only columns are left empty on buy rows and vice versa.
func WriteTradesCSV(path string, trades []model.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"date",
		"action",
		"ticker",
		"name",
		"shares",
		"price",
		"value",
		"commission",
		"odd_lot",
		"signal_date",
		"total_cost",
		"entry_price",
		"tax",
		"net_proceeds",
		"pnl",
		"pnl_pct",
		"reason",
		"holding_days",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		row := []string{
			t.Date,
			string(t.Action),
			t.Ticker,
			t.Name,
			strconv.FormatInt(t.Shares, 10),
			fmtFloat(t.Price),
			fmtFloat(t.Value),
			fmtFloat(t.Commission),
			strconv.FormatBool(t.OddLot),
			t.SignalDate,
			"",
			"",
			"",
			"",
			"",
			"",
			"",
			"",
		}
		if t.Action == model.ActionBuy {
			row[10] = fmtFloat(t.TotalCost)
		} else {
			row[11] = fmtFloat(t.EntryPrice)
			row[12] = fmtFloat(t.Tax)
			row[13] = fmtFloat(t.NetProceeds)
			row[14] = fmtFloat(t.PnL)
			row[15] = fmtFloat(t.PnLPct)
			row[16] = string(t.Reason)
			row[17] = strconv.Itoa(t.HoldingDays)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
