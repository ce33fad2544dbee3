package backtest

import (
	"errors"
	"fmt"
)

// Fixed strategy constants. The sizing fraction, holding period and exit
// thresholds are part of the strategy definition, not configuration.
const (
	// PositionSizeRatio is the fraction of current cash committed per entry.
	PositionSizeRatio = 0.10

	// HoldingPeriodDays is the maximum holding time in trading days, and
	// also the re-entry window measured from the last signal date.
	HoldingPeriodDays = 15

	TakeProfitPct = 0.40
	StopLossPct   = 0.10
)

// ExecutionMode selects how entry orders fill on the date after the signal.
type ExecutionMode string

const (
	// ExecutionMarket fills unconditionally at the next date's opening
	// price. This is the default mode.
	ExecutionMarket ExecutionMode = "market"

	// ExecutionLimit places the order at the signal date's open; it fills
	// at that price only if the next date's intraday low touches it,
	// otherwise the order expires.
	ExecutionLimit ExecutionMode = "limit"
)

// Params configures one run.
type Params struct {
	InitialCapital   float64
	EnableTakeProfit bool
	EnableStopLoss   bool
	Execution        ExecutionMode
}

func (p Params) Validate() error {
	if p.InitialCapital <= 0 {
		return errors.New("initial capital must be > 0")
	}
	switch p.Execution {
	case ExecutionMarket, ExecutionLimit:
		return nil
	default:
		return fmt.Errorf("unsupported execution mode: %q", p.Execution)
	}
}
