package config

import (
	"errors"
	"fmt"
	"os"

	"margin-backtest/internal/backtest"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk configuration shape (YAML).
type Config struct {
	// Database is the path to the SQLite file holding the signal and
	// price tables.
	Database string         `yaml:"database"`
	Backtest BacktestConfig `yaml:"backtest"`
	Report   ReportConfig   `yaml:"report"`
}

type BacktestConfig struct {
	StartDate      string  `yaml:"start_date"` // YYYYMMDD
	EndDate        string  `yaml:"end_date"`   // YYYYMMDD
	InitialCapital float64 `yaml:"initial_capital"`

	// Toggles are spelled as disables so the zero-value config enables
	// both exits, matching the strategy's default behavior.
	NoTakeProfit bool `yaml:"no_take_profit"`
	NoStopLoss   bool `yaml:"no_stop_loss"`

	// Execution selects the entry fill mode: "market" (default) or
	// "limit".
	Execution string `yaml:"execution"`
}

type ReportConfig struct {
	// TradesCSV, when set, is where the trade ledger is written.
	TradesCSV string `yaml:"trades_csv"`
}

const (
	DefaultDatabase       = "taiwan_stock.db"
	DefaultInitialCapital = 1000000
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads the config without defaulting or validation. Useful
// for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ApplyDefaults fills in unset fields. This keeps configs concise: a minimal
// file only needs the date range.
func (c *Config) ApplyDefaults() {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Backtest.InitialCapital == 0 {
		c.Backtest.InitialCapital = DefaultInitialCapital
	}
	if c.Backtest.Execution == "" {
		c.Backtest.Execution = string(backtest.ExecutionMarket)
	}
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Backtest.StartDate == "" || c.Backtest.EndDate == "" {
		return errors.New("backtest.start_date and backtest.end_date are required")
	}
	if len(c.Backtest.StartDate) != 8 || len(c.Backtest.EndDate) != 8 {
		return errors.New("dates must be YYYYMMDD")
	}
	if c.Backtest.StartDate > c.Backtest.EndDate {
		return fmt.Errorf("start_date %s is after end_date %s", c.Backtest.StartDate, c.Backtest.EndDate)
	}
	// Validate engine parameters by constructing backtest.Params.
	if err := c.Params().Validate(); err != nil {
		return fmt.Errorf("backtest config invalid: %w", err)
	}
	return nil
}

// Params converts the backtest section into engine parameters.
func (c *Config) Params() backtest.Params {
	return backtest.Params{
		InitialCapital:   c.Backtest.InitialCapital,
		EnableTakeProfit: !c.Backtest.NoTakeProfit,
		EnableStopLoss:   !c.Backtest.NoStopLoss,
		Execution:        backtest.ExecutionMode(c.Backtest.Execution),
	}
}
