package store

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Price match modes. A composite mode derives the execution price from
// the bar's high/low/close columns.
const (
	PriceModeOpen     = "open"
	PriceModeHigh     = "high"
	PriceModeLow      = "low"
	PriceModeClose    = "close"
	PriceModeMedian   = "median"   // (high + low) / 2
	PriceModeTypical  = "typical"  // (high + low + close) / 3
	PriceModeWeighted = "weighted" // (high + low + close + close) / 4
)

type Config struct {
	Strategy string `yaml:"strategy"` // TARGET_WEIGHT, EQUAL_WEIGHT or ALGORITHM

	InitialCash   float64 `yaml:"initial_cash"`
	PctCommission float64 `yaml:"pct_commission"`
	PctBuySlip    float64 `yaml:"pct_buy_slip"`
	PctSellSlip   float64 `yaml:"pct_sell_slip"`

	PriceMatchMode string `yaml:"price_match_mode"`
	SignalDelayBar int    `yaml:"signal_delay_bar"`

	Data struct {
		SignalPath string `yaml:"signal_path"`
		OpenPath   string `yaml:"open_path"`
		HighPath   string `yaml:"high_path"`
		LowPath    string `yaml:"low_path"`
		ClosePath  string `yaml:"close_path"`
		OutputDir  string `yaml:"output_dir"`
	} `yaml:"data"`

	Logging struct {
		Level           string `yaml:"level"`
		Format          string `yaml:"format"`
		DetailedLogging bool   `yaml:"detailed_logging"`
		TracingEnabled  bool   `yaml:"tracing_enabled"`
	} `yaml:"logging"`
}

func (c *Config) Validate() error {
	switch c.Strategy {
	case "TARGET_WEIGHT", "EQUAL_WEIGHT", "ALGORITHM":
	default:
		return fmt.Errorf("invalid strategy '%s': must be 'TARGET_WEIGHT', 'EQUAL_WEIGHT' or 'ALGORITHM'", c.Strategy)
	}
	if c.InitialCash < 0 {
		return fmt.Errorf("initial_cash must not be negative, got %.2f", c.InitialCash)
	}
	if c.PctCommission < 0 || c.PctCommission > 1 {
		return fmt.Errorf("pct_commission must be between 0-1, got %.4f", c.PctCommission)
	}
	if c.PctBuySlip < 0 || c.PctBuySlip > 1 {
		return fmt.Errorf("pct_buy_slip must be between 0-1, got %.4f", c.PctBuySlip)
	}
	if c.PctSellSlip < 0 || c.PctSellSlip > 1 {
		return fmt.Errorf("pct_sell_slip must be between 0-1, got %.4f", c.PctSellSlip)
	}
	switch c.PriceMatchMode {
	case PriceModeOpen, PriceModeHigh, PriceModeLow, PriceModeClose,
		PriceModeMedian, PriceModeTypical, PriceModeWeighted:
	default:
		return fmt.Errorf("invalid price_match_mode '%s'", c.PriceMatchMode)
	}
	if c.SignalDelayBar < 0 {
		return fmt.Errorf("signal_delay_bar must not be negative, got %d", c.SignalDelayBar)
	}
	if c.Data.SignalPath == "" {
		return errors.New("data.signal_path cannot be empty")
	}
	if c.Data.ClosePath == "" {
		return errors.New("data.close_path cannot be empty")
	}
	return nil
}

func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	if c.Strategy == "" {
		c.Strategy = "TARGET_WEIGHT"
	}
	if c.PriceMatchMode == "" {
		c.PriceMatchMode = PriceModeOpen
	}
	if c.SignalDelayBar == 0 && c.Strategy == "ALGORITHM" {
		c.SignalDelayBar = 1
	}
	if c.Data.OutputDir == "" {
		c.Data.OutputDir = "output"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "INFO"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &c, nil
}
