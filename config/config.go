// Package config loads and validates backtest run configuration from
// YAML or JSON files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration for one backtest run.
type Config struct {
	Data     DataConfig     `json:"data" yaml:"data"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Backtest BacktestConfig `json:"backtest" yaml:"backtest"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// DataConfig points at the input datasets. Either Archive (a .zip
// holding prices.csv and trades.csv) or Prices/Trades paths; Trades is
// optional either way.
type DataConfig struct {
	Prices  string `json:"prices,omitempty" yaml:"prices,omitempty"`
	Trades  string `json:"trades,omitempty" yaml:"trades,omitempty"`
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
}

// AccountConfig initializes the ledger.
type AccountConfig struct {
	Cash            float64 `json:"cash" yaml:"cash"`
	CashConstrained bool    `json:"cash_constrained" yaml:"cash_constrained"`
	MaxPosition     float64 `json:"max_position,omitempty" yaml:"max_position,omitempty"`
}

// StrategyConfig selects and parameterizes a builtin strategy.
type StrategyConfig struct {
	Name       string  `json:"name" yaml:"name"`
	Symbol     string  `json:"symbol" yaml:"symbol"`
	Quantity   float64 `json:"quantity" yaml:"quantity"`
	FastPeriod int     `json:"fast_period,omitempty" yaml:"fast_period,omitempty"`
	SlowPeriod int     `json:"slow_period,omitempty" yaml:"slow_period,omitempty"`
	Lookback   int     `json:"lookback,omitempty" yaml:"lookback,omitempty"`
	ZThreshold float64 `json:"z_threshold,omitempty" yaml:"z_threshold,omitempty"`
	Spread     float64 `json:"spread,omitempty" yaml:"spread,omitempty"`
}

// BacktestConfig controls the engine and the summary.
type BacktestConfig struct {
	CloseAtEnd    bool    `json:"close_at_end" yaml:"close_at_end"`
	Annualization float64 `json:"annualization,omitempty" yaml:"annualization,omitempty"`
}

// JournalConfig selects where results are persisted.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
	TradesFile    string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	SnapshotsFile string `json:"snapshots_file,omitempty" yaml:"snapshots_file,omitempty"`
}

// LoadFromFile loads configuration from a file, trying YAML first and
// falling back to JSON.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration, as YAML for .yaml/.yml paths
// and JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	if c.Data.Archive == "" && c.Data.Prices == "" {
		return fmt.Errorf("data requires either archive or prices")
	}
	if c.Data.Archive != "" && c.Data.Prices != "" {
		return fmt.Errorf("data archive and prices are mutually exclusive")
	}
	if c.Account.Cash <= 0 {
		return fmt.Errorf("account.cash must be positive")
	}
	if c.Account.MaxPosition < 0 {
		return fmt.Errorf("account.max_position must be non-negative")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Name != "noop" && c.Strategy.Symbol == "" {
		return fmt.Errorf("strategy.symbol is required")
	}
	if c.Strategy.Name != "noop" && c.Strategy.Quantity <= 0 {
		return fmt.Errorf("strategy.quantity must be positive")
	}
	if c.Backtest.Annualization < 0 {
		return fmt.Errorf("backtest.annualization must be non-negative")
	}
	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file and snapshots_file required for csv type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for sqlite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Prices: "./prices.csv",
			Trades: "./trades.csv",
		},
		Account: AccountConfig{
			Cash: 10000,
		},
		Strategy: StrategyConfig{
			Name:       "sma-cross",
			Symbol:     "PRODUCT",
			Quantity:   10,
			FastPeriod: 10,
			SlowPeriod: 30,
		},
		Backtest: BacktestConfig{
			Annualization: 252,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./backtests.db",
		},
	}
}
