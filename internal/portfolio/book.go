// Package portfolio owns the open-position and stop-order books. The engine
// is the only writer; iteration order is always sorted by ticker so runs are
// reproducible.
package portfolio

import (
	"sort"

	"margin-backtest/internal/model"
)

// Book holds at most one Position and one StopLossOrder per ticker.
type Book struct {
	positions map[string]*model.Position
	stops     map[string]*model.StopLossOrder
}

func NewBook() *Book {
	return &Book{
		positions: make(map[string]*model.Position),
		stops:     make(map[string]*model.StopLossOrder),
	}
}

func (b *Book) Position(ticker string) (*model.Position, bool) {
	p, ok := b.positions[ticker]
	return p, ok
}

// Positions returns the open positions sorted by ticker.
func (b *Book) Positions() []*model.Position {
	out := make([]*model.Position, 0, len(b.positions))
	for _, p := range b.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (b *Book) OpenCount() int { return len(b.positions) }

// ApplyBuy records a fill. A first buy creates the position; a buy into an
// existing position merges with a share-weighted average cost and refreshes
// both entry dates. Returns the resulting position.
func (b *Book) ApplyBuy(ticker, name string, shares int64, price float64, fillDate, signalDate string) *model.Position {
	if old, ok := b.positions[ticker]; ok {
		total := old.Shares + shares
		weighted := (old.WeightedCost*float64(old.Shares) + price*float64(shares)) / float64(total)
		old.Shares = total
		old.WeightedCost = weighted
		old.EntryDate = fillDate
		old.EntrySignalDate = signalDate
		old.Name = name
		return old
	}
	p := &model.Position{
		Ticker:          ticker,
		Name:            name,
		Shares:          shares,
		WeightedCost:    price,
		EntryDate:       fillDate,
		EntrySignalDate: signalDate,
	}
	b.positions[ticker] = p
	return p
}

// Close removes the ticker's position together with any stop order.
func (b *Book) Close(ticker string) (*model.Position, bool) {
	p, ok := b.positions[ticker]
	if !ok {
		return nil, false
	}
	delete(b.positions, ticker)
	delete(b.stops, ticker)
	return p, true
}

// ArmStop installs a stop order for the ticker, replacing any previous one.
func (b *Book) ArmStop(ticker string, trigger float64, shares int64) {
	b.stops[ticker] = &model.StopLossOrder{
		Ticker:       ticker,
		TriggerPrice: trigger,
		Shares:       shares,
	}
}

// Stops returns the armed stop orders sorted by ticker.
func (b *Book) Stops() []*model.StopLossOrder {
	out := make([]*model.StopLossOrder, 0, len(b.stops))
	for _, s := range b.stops {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func (b *Book) Stop(ticker string) (*model.StopLossOrder, bool) {
	s, ok := b.stops[ticker]
	return s, ok
}
