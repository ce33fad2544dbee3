// Package store reads the upstream analytic database. The signal pipeline
// writes two tables the engine consumes read-only: strategy_result (one row
// per ticker and date with the margin-ratio signal fields) and
// tw_stock_price_data (daily OHLC bars). Schema management belongs to the
// pipeline, not to this package.
package store

import (
	"database/sql"

	"margin-backtest/internal/model"

	_ "github.com/mattn/go-sqlite3"
)

type DB struct {
	db *sql.DB
}

func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error { return d.db.Close() }

// TradingDates returns the distinct signal-table dates in [start, end],
// ascending. This sequence is the run's trading calendar.
func (d *DB) TradingDates(start, end string) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT DISTINCT date
		FROM strategy_result
		WHERE date >= ? AND date <= ?
		ORDER BY date`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var date string
		if err := rows.Scan(&date); err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	return dates, rows.Err()
}

// Signals returns the date's signal rows with every required field populated
// and a positive margin balance; incomplete rows never reach the scanner.
func (d *DB) Signals(date string) ([]model.SignalRow, error) {
	rows, err := d.db.Query(`
		SELECT
			ticker,
			stock_name,
			margin_ratio,
			avg_10day_ratio,
			volume,
			avg_10day_volume,
			open_price,
			close_price,
			margin_balance_shares,
			avg_5day_balance_95
		FROM strategy_result
		WHERE date = ?
			AND margin_ratio IS NOT NULL
			AND avg_10day_ratio IS NOT NULL
			AND volume IS NOT NULL
			AND avg_10day_volume IS NOT NULL
			AND open_price IS NOT NULL
			AND close_price IS NOT NULL
			AND margin_balance_shares > 0
			AND avg_5day_balance_95 IS NOT NULL`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.SignalRow
	for rows.Next() {
		row := model.SignalRow{Date: date}
		if err := rows.Scan(
			&row.Ticker,
			&row.Name,
			&row.MarginRatio,
			&row.Avg10Ratio,
			&row.Volume,
			&row.Avg10Volume,
			&row.Open,
			&row.Close,
			&row.BalanceShares,
			&row.Avg5BalanceThreshold,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// OpenPrice looks up the opening price recorded in the signal table. The
// pipeline writes zero prices as placeholders on anomalous rows; those are
// reported as absent, same as NULL.
func (d *DB) OpenPrice(ticker, date string) (float64, bool, error) {
	var open sql.NullFloat64
	err := d.db.QueryRow(`
		SELECT open_price
		FROM strategy_result
		WHERE ticker = ? AND date = ?
		LIMIT 1`, ticker, date).Scan(&open)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !open.Valid || open.Float64 <= 0 {
		return 0, false, nil
	}
	return open.Float64, true, nil
}

// Bar returns the date's OHLC bar. Bars with a NULL or non-positive low are
// placeholders and treated as absent; the stop-loss monitor cannot evaluate
// them.
func (d *DB) Bar(ticker, date string) (model.PriceBar, bool, error) {
	var open, high, low, closePrice sql.NullFloat64
	err := d.db.QueryRow(`
		SELECT open, high, low, close
		FROM tw_stock_price_data
		WHERE ticker = ? AND date = ?
		LIMIT 1`, ticker, date).Scan(&open, &high, &low, &closePrice)
	if err == sql.ErrNoRows {
		return model.PriceBar{}, false, nil
	}
	if err != nil {
		return model.PriceBar{}, false, err
	}
	if !low.Valid || low.Float64 <= 0 {
		return model.PriceBar{}, false, nil
	}
	return model.PriceBar{
		Ticker: ticker,
		Date:   date,
		Open:   open.Float64,
		High:   high.Float64,
		Low:    low.Float64,
		Close:  closePrice.Float64,
	}, true, nil
}

// ClosePrice returns the date's closing price from the price table. A NULL
// or zero close is absent.
func (d *DB) ClosePrice(ticker, date string) (float64, bool, error) {
	var closePrice sql.NullFloat64
	err := d.db.QueryRow(`
		SELECT close
		FROM tw_stock_price_data
		WHERE ticker = ? AND date = ?
		LIMIT 1`, ticker, date).Scan(&closePrice)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	if !closePrice.Valid || closePrice.Float64 <= 0 {
		return 0, false, nil
	}
	return closePrice.Float64, true, nil
}
