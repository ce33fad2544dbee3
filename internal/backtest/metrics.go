package backtest

import (
	"math"

	"margin-backtest/internal/model"
)

// TradingDaysPerYear annualizes the Sharpe ratio.
const TradingDaysPerYear = 252

// Summary rolls up the trade ledger and snapshot sequence. Ratios are
// fractions (TotalReturn 0.25 = +25%), PnL percentages are in percent.
type Summary struct {
	InitialCapital float64
	FinalValue     float64
	TotalReturn    float64

	BuyCount  int
	SellCount int

	TotalPnL  float64
	AvgPnLPct float64
	WinRate   float64
	AvgWin    float64
	AvgLoss   float64

	Sharpe      float64
	MaxDrawdown float64

	ByReason map[model.ExitReason]ReasonStats
}

// ReasonStats aggregates sells by exit reason.
type ReasonStats struct {
	Count     int
	AvgPnLPct float64
}

// Summarize computes the run statistics. It is read-only over its inputs.
func Summarize(initialCapital float64, trades []model.Trade, snapshots []model.PortfolioSnapshot) Summary {
	s := Summary{
		InitialCapital: initialCapital,
		FinalValue:     initialCapital,
		ByReason:       make(map[model.ExitReason]ReasonStats),
	}
	if len(snapshots) > 0 {
		s.FinalValue = snapshots[len(snapshots)-1].Value
	}
	s.TotalReturn = (s.FinalValue - initialCapital) / initialCapital

	var wins, losses int
	var winAmt, lossAmt, pctSum float64
	reasonPct := make(map[model.ExitReason]float64)
	for _, t := range trades {
		if t.Action == model.ActionBuy {
			s.BuyCount++
			continue
		}
		s.SellCount++
		s.TotalPnL += t.PnL
		pctSum += t.PnLPct
		if t.PnL > 0 {
			wins++
			winAmt += t.PnL
		} else {
			losses++
			lossAmt += t.PnL
		}
		rs := s.ByReason[t.Reason]
		rs.Count++
		reasonPct[t.Reason] += t.PnLPct
		s.ByReason[t.Reason] = rs
	}
	if s.SellCount > 0 {
		s.AvgPnLPct = pctSum / float64(s.SellCount)
		s.WinRate = float64(wins) / float64(s.SellCount)
	}
	if wins > 0 {
		s.AvgWin = winAmt / float64(wins)
	}
	if losses > 0 {
		s.AvgLoss = lossAmt / float64(losses)
	}
	for reason, rs := range s.ByReason {
		rs.AvgPnLPct = reasonPct[reason] / float64(rs.Count)
		s.ByReason[reason] = rs
	}

	s.Sharpe = sharpeRatio(snapshots)
	s.MaxDrawdown = maxDrawdown(snapshots)
	return s
}

// sharpeRatio annualizes mean over sample standard deviation of day-over-day
// portfolio returns. Zero when there are fewer than two returns or no
// variance.
func sharpeRatio(snapshots []model.PortfolioSnapshot) float64 {
	var returns []float64
	for i := 1; i < len(snapshots); i++ {
		prev := snapshots[i-1].Value
		if prev == 0 {
			continue
		}
		returns = append(returns, (snapshots[i].Value-prev)/prev)
	}
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sq float64
	for _, r := range returns {
		d := r - mean
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(returns)-1))
	if std == 0 {
		return 0
	}
	return mean / std * math.Sqrt(TradingDaysPerYear)
}

// maxDrawdown is the most negative peak-to-trough decline over the snapshot
// sequence, as a fraction (-0.2 = 20% below the running peak).
func maxDrawdown(snapshots []model.PortfolioSnapshot) float64 {
	if len(snapshots) == 0 {
		return 0
	}
	peak := snapshots[0].Value
	worst := 0.0
	for _, snap := range snapshots {
		if snap.Value > peak {
			peak = snap.Value
		}
		if peak > 0 {
			dd := (snap.Value - peak) / peak
			if dd < worst {
				worst = dd
			}
		}
	}
	return worst
}
