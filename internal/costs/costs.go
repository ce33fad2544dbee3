// Package costs implements the transaction-cost schedule of the Taiwan cash
// equity market as charged by the simulated broker.
package costs

// Units: prices and values in NT$.
const (
	// CommissionRate is charged on both sides of a trade.
	CommissionRate = 0.001425

	// Minimum commission per order. Odd-lot orders (below one board lot)
	// have a lower floor.
	CommissionMinOddLot   = 1.0
	CommissionMinRoundLot = 20.0

	// Securities transaction tax, charged on sells only. Positions opened
	// and closed on the same date pay the day-trade rate.
	TaxRate         = 0.003
	TaxRateDayTrade = 0.0015

	// SharesPerLot is one board lot; orders below it are odd lots.
	SharesPerLot = 1000
)

// Commission returns the brokerage fee for a trade of the given gross value.
func Commission(value float64, oddLot bool) float64 {
	commission := value * CommissionRate
	min := CommissionMinRoundLot
	if oddLot {
		min = CommissionMinOddLot
	}
	if commission < min {
		return min
	}
	return commission
}

// Tax returns the transaction tax on a sell of the given gross value.
func Tax(value float64, dayTrade bool) float64 {
	if dayTrade {
		return value * TaxRateDayTrade
	}
	return value * TaxRate
}
