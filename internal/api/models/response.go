package models

import (
	"margin-backtest/internal/backtest"
	"margin-backtest/internal/model"
)

// BacktestResponse is returned from POST /api/v1/backtest. Trades and
// Snapshots are included only when requested; the full run stays retrievable
// under its ID.
type BacktestResponse struct {
	ID        string     `json:"id"`
	Status    string     `json:"status"`
	Summary   Summary    `json:"summary"`
	Trades    []Trade    `json:"trades,omitempty"`
	Snapshots []Snapshot `json:"snapshots,omitempty"`
}

type Summary struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalValue     float64 `json:"final_value"`
	TotalReturn    float64 `json:"total_return"`

	BuyCount  int `json:"buy_count"`
	SellCount int `json:"sell_count"`

	TotalPnL  float64 `json:"total_pnl"`
	AvgPnLPct float64 `json:"avg_pnl_pct"`
	WinRate   float64 `json:"win_rate"`
	AvgWin    float64 `json:"avg_win"`
	AvgLoss   float64 `json:"avg_loss"`

	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`

	ByReason map[string]ReasonStats `json:"by_reason"`
}

type ReasonStats struct {
	Count     int     `json:"count"`
	AvgPnLPct float64 `json:"avg_pnl_pct"`
}

type Trade struct {
	Date        string  `json:"date"`
	Action      string  `json:"action"`
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name,omitempty"`
	Shares      int64   `json:"shares"`
	Price       float64 `json:"price"`
	Value       float64 `json:"value"`
	Commission  float64 `json:"commission"`
	OddLot      bool    `json:"odd_lot"`
	SignalDate  string  `json:"signal_date,omitempty"`
	TotalCost   float64 `json:"total_cost,omitempty"`
	EntryPrice  float64 `json:"entry_price,omitempty"`
	Tax         float64 `json:"tax,omitempty"`
	NetProceeds float64 `json:"net_proceeds,omitempty"`
	PnL         float64 `json:"pnl,omitempty"`
	PnLPct      float64 `json:"pnl_pct,omitempty"`
	Reason      string  `json:"reason,omitempty"`
	HoldingDays int     `json:"holding_days,omitempty"`
}

type Snapshot struct {
	Date          string  `json:"date"`
	Value         float64 `json:"value"`
	Cash          float64 `json:"cash"`
	PositionCount int     `json:"position_count"`
}

// ScanResponse is returned from GET /api/v1/scan.
type ScanResponse struct {
	Date       string      `json:"date"`
	Candidates []Candidate `json:"candidates"`
}

type Candidate struct {
	Rank        int     `json:"rank"`
	Ticker      string  `json:"ticker"`
	Name        string  `json:"name,omitempty"`
	DropPct     float64 `json:"drop_pct"`
	MarginRatio float64 `json:"margin_ratio"`
	Avg10Ratio  float64 `json:"avg_10day_ratio"`
	Open        float64 `json:"open"`
	Close       float64 `json:"close"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func NewSummary(s backtest.Summary) Summary {
	out := Summary{
		InitialCapital: s.InitialCapital,
		FinalValue:     s.FinalValue,
		TotalReturn:    s.TotalReturn,
		BuyCount:       s.BuyCount,
		SellCount:      s.SellCount,
		TotalPnL:       s.TotalPnL,
		AvgPnLPct:      s.AvgPnLPct,
		WinRate:        s.WinRate,
		AvgWin:         s.AvgWin,
		AvgLoss:        s.AvgLoss,
		Sharpe:         s.Sharpe,
		MaxDrawdown:    s.MaxDrawdown,
		ByReason:       make(map[string]ReasonStats, len(s.ByReason)),
	}
	for reason, rs := range s.ByReason {
		out.ByReason[string(reason)] = ReasonStats{Count: rs.Count, AvgPnLPct: rs.AvgPnLPct}
	}
	return out
}

func NewTrades(trades []model.Trade) []Trade {
	out := make([]Trade, 0, len(trades))
	for _, t := range trades {
		out = append(out, Trade{
			Date:        t.Date,
			Action:      string(t.Action),
			Ticker:      t.Ticker,
			Name:        t.Name,
			Shares:      t.Shares,
			Price:       t.Price,
			Value:       t.Value,
			Commission:  t.Commission,
			OddLot:      t.OddLot,
			SignalDate:  t.SignalDate,
			TotalCost:   t.TotalCost,
			EntryPrice:  t.EntryPrice,
			Tax:         t.Tax,
			NetProceeds: t.NetProceeds,
			PnL:         t.PnL,
			PnLPct:      t.PnLPct,
			Reason:      string(t.Reason),
			HoldingDays: t.HoldingDays,
		})
	}
	return out
}

func NewSnapshots(snapshots []model.PortfolioSnapshot) []Snapshot {
	out := make([]Snapshot, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, Snapshot{
			Date:          s.Date,
			Value:         s.Value,
			Cash:          s.Cash,
			PositionCount: s.PositionCount,
		})
	}
	return out
}

func NewCandidates(candidates []model.Candidate) []Candidate {
	out := make([]Candidate, 0, len(candidates))
	for i, c := range candidates {
		out = append(out, Candidate{
			Rank:        i + 1,
			Ticker:      c.Ticker,
			Name:        c.Name,
			DropPct:     c.DropPct,
			MarginRatio: c.MarginRatio,
			Avg10Ratio:  c.Avg10Ratio,
			Open:        c.Open,
			Close:       c.Close,
		})
	}
	return out
}
