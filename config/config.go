// Package config loads and validates the bot's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/traderforge/fxbot/market"
	"github.com/traderforge/fxbot/risk"
)

// DateLayout is the format of the backtest window bounds.
const DateLayout = "2006-01-02"

// Config is the complete bot configuration.
type Config struct {
	Mode     string                  `yaml:"mode"` // currently "backtest"
	Account  AccountConfig           `yaml:"account"`
	Symbols  map[string]SymbolConfig `yaml:"symbols"`
	Backtest BacktestConfig          `yaml:"backtest"`
	Feed     FeedConfig              `yaml:"feed"`
	Cache    CacheConfig             `yaml:"cache"`
	Journal  JournalConfig           `yaml:"journal"`
	Risk     RiskConfig              `yaml:"risk"`
	LogLevel string                  `yaml:"log_level"`
}

// AccountConfig initializes the simulated account.
type AccountConfig struct {
	Currency       string  `yaml:"currency"`
	InitialDeposit float64 `yaml:"initial_deposit"`
	Leverage       float64 `yaml:"leverage"`
}

// SymbolConfig is the per-instrument metadata plus its strategy bindings.
type SymbolConfig struct {
	PipValue     float64           `yaml:"pip_value"`
	ContractSize float64           `yaml:"contract_size"`
	SpreadPoints float64           `yaml:"spread_points"`
	Strategies   []StrategyBinding `yaml:"strategies"`
}

// StrategyBinding names one registered strategy on one timeframe.
type StrategyBinding struct {
	Name      string             `yaml:"name"`
	Timeframe string             `yaml:"timeframe"`
	Params    map[string]float64 `yaml:"params"`
}

// BacktestConfig bounds the replay window (dates, inclusive start).
type BacktestConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Window parses the configured bounds into UTC instants.
func (b BacktestConfig) Window() (start, end time.Time, err error) {
	start, err = time.ParseInLocation(DateLayout, b.Start, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("backtest.start: %w", err)
	}
	end, err = time.ParseInLocation(DateLayout, b.End, time.UTC)
	if err != nil {
		return start, end, fmt.Errorf("backtest.end: %w", err)
	}
	return start, end, nil
}

// FeedConfig points at the historical candle API.
type FeedConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// CacheConfig holds the bar cache location. Empty path disables caching
// (every run fetches from the feed directly).
type CacheConfig struct {
	Path string `yaml:"path"`
}

// JournalConfig selects the run journal sink.
type JournalConfig struct {
	Type       string `yaml:"type"` // "none", "csv" or "sqlite"
	TradesFile string `yaml:"trades_file,omitempty"`
	EquityFile string `yaml:"equity_file,omitempty"`
	DBPath     string `yaml:"db_path,omitempty"`
}

// RiskConfig holds the account risk limits.
type RiskConfig struct {
	RiskPct       float64 `yaml:"risk_pct"`
	MaxOpenTrades int     `yaml:"max_open_trades"`
	MinRR         float64 `yaml:"min_rr"`
	MaxSize       float64 `yaml:"max_size"`
}

// Load reads, parses and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks every precondition a run depends on and names the failed
// one in the error.
func (c *Config) Validate() error {
	if c.Mode == "" {
		c.Mode = "backtest"
	}
	if c.Mode != "backtest" {
		return fmt.Errorf("mode %q is not supported (only backtest)", c.Mode)
	}

	if c.Account.Currency == "" {
		return fmt.Errorf("account.currency is required")
	}
	if c.Account.InitialDeposit <= 0 {
		return fmt.Errorf("account.initial_deposit must be positive")
	}
	if c.Account.Leverage < 0 {
		return fmt.Errorf("account.leverage must not be negative")
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("no symbols configured")
	}
	bindings := 0
	for sym, sc := range c.Symbols {
		if sc.PipValue <= 0 {
			return fmt.Errorf("symbols.%s.pip_value must be positive", sym)
		}
		if sc.ContractSize <= 0 {
			return fmt.Errorf("symbols.%s.contract_size must be positive", sym)
		}
		for _, b := range sc.Strategies {
			if b.Name == "" {
				return fmt.Errorf("symbols.%s: strategy binding without a name", sym)
			}
			if _, err := market.ParseTimeframe(b.Timeframe); err != nil {
				return fmt.Errorf("symbols.%s strategy %s: %w", sym, b.Name, err)
			}
			bindings++
		}
	}
	if bindings == 0 {
		return fmt.Errorf("no strategies configured")
	}

	start, end, err := c.Backtest.Window()
	if err != nil {
		return err
	}
	if !start.Before(end) {
		return fmt.Errorf("invalid date range: start %s not before end %s", c.Backtest.Start, c.Backtest.End)
	}

	if c.Risk.RiskPct <= 0 || c.Risk.RiskPct > 1 {
		return fmt.Errorf("risk.risk_pct must be between 0 and 1")
	}

	switch c.Journal.Type {
	case "", "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.EquityFile == "" {
			return fmt.Errorf("journal trades_file and equity_file required for csv type")
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

// Instrument converts a symbol's configuration into its market metadata.
func (c *Config) Instrument(symbol string) (market.Instrument, bool) {
	sc, ok := c.Symbols[symbol]
	if !ok {
		return market.Instrument{}, false
	}
	return market.Instrument{
		Symbol:       symbol,
		PipValue:     sc.PipValue,
		ContractSize: sc.ContractSize,
		SpreadPoints: sc.SpreadPoints,
	}, true
}

// Instruments returns the full symbol universe keyed by symbol.
func (c *Config) Instruments() map[string]market.Instrument {
	out := make(map[string]market.Instrument, len(c.Symbols))
	for sym := range c.Symbols {
		meta, _ := c.Instrument(sym)
		out[sym] = meta
	}
	return out
}

// Policy builds the risk policy from configuration.
func (c *Config) Policy() risk.Policy {
	return risk.Policy{
		RiskPct:       c.Risk.RiskPct,
		MaxOpenTrades: c.Risk.MaxOpenTrades,
		MinRR:         c.Risk.MinRR,
		MinSize:       risk.LotStep,
		MaxSize:       c.Risk.MaxSize,
	}
}

// Default returns a runnable example configuration.
func Default() *Config {
	return &Config{
		Mode: "backtest",
		Account: AccountConfig{
			Currency:       "USD",
			InitialDeposit: 10000,
			Leverage:       100,
		},
		Symbols: map[string]SymbolConfig{
			"EURUSD": {
				PipValue:     0.0001,
				ContractSize: 100000,
				SpreadPoints: 2,
				Strategies: []StrategyBinding{
					{
						Name:      "ma-cross",
						Timeframe: "H1",
						Params:    map[string]float64{"fast": 10, "slow": 30, "stop_pips": 20, "rr": 2},
					},
				},
			},
		},
		Backtest: BacktestConfig{
			Start: "2024-01-01",
			End:   "2024-03-01",
		},
		Feed: FeedConfig{
			BaseURL: "https://api-fxpractice.oanda.com",
		},
		Cache: CacheConfig{
			Path: "./bars.db",
		},
		Journal: JournalConfig{
			Type:       "csv",
			TradesFile: "./trades.csv",
			EquityFile: "./equity.csv",
		},
		Risk: RiskConfig{
			RiskPct:       0.01,
			MaxOpenTrades: 3,
			MinRR:         1.5,
		},
		LogLevel: "info",
	}
}
