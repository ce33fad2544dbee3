package store

import (
	"sort"

	"margin-backtest/internal/model"
)

// Memory is an in-memory Calendar/SignalSource/PriceSource, used by the demo
// command and by engine tests. Not safe for concurrent mutation.
type Memory struct {
	dates   []string
	signals map[string][]model.SignalRow         // date -> rows
	bars    map[string]map[string]model.PriceBar // ticker -> date -> bar
}

func NewMemory(dates ...string) *Memory {
	sorted := append([]string(nil), dates...)
	sort.Strings(sorted)
	return &Memory{
		dates:   sorted,
		signals: make(map[string][]model.SignalRow),
		bars:    make(map[string]map[string]model.PriceBar),
	}
}

func (m *Memory) AddSignal(row model.SignalRow) {
	m.signals[row.Date] = append(m.signals[row.Date], row)
}

func (m *Memory) AddBar(bar model.PriceBar) {
	byDate, ok := m.bars[bar.Ticker]
	if !ok {
		byDate = make(map[string]model.PriceBar)
		m.bars[bar.Ticker] = byDate
	}
	byDate[bar.Date] = bar
}

func (m *Memory) TradingDates(start, end string) ([]string, error) {
	var out []string
	for _, d := range m.dates {
		if d >= start && d <= end {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *Memory) Signals(date string) ([]model.SignalRow, error) {
	return m.signals[date], nil
}

func (m *Memory) OpenPrice(ticker, date string) (float64, bool, error) {
	for _, row := range m.signals[date] {
		if row.Ticker == ticker {
			if row.Open <= 0 {
				return 0, false, nil
			}
			return row.Open, true, nil
		}
	}
	return 0, false, nil
}

// Bar mirrors the SQLite source: a non-positive low marks a placeholder row
// and the bar is reported as absent.
func (m *Memory) Bar(ticker, date string) (model.PriceBar, bool, error) {
	bar, ok := m.bars[ticker][date]
	if !ok || bar.Low <= 0 {
		return model.PriceBar{}, false, nil
	}
	return bar, true, nil
}

func (m *Memory) ClosePrice(ticker, date string) (float64, bool, error) {
	bar, ok := m.bars[ticker][date]
	if !ok || bar.Close <= 0 {
		return 0, false, nil
	}
	return bar.Close, true, nil
}
