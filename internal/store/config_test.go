package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, `
initial_cash: 100000
data:
  signal_path: signal.csv
  close_path: close.csv
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Strategy != "TARGET_WEIGHT" {
		t.Errorf("default strategy = %q", cfg.Strategy)
	}
	if cfg.PriceMatchMode != PriceModeOpen {
		t.Errorf("default price_match_mode = %q", cfg.PriceMatchMode)
	}
	if cfg.SignalDelayBar != 0 {
		t.Errorf("target weight delay should stay 0, got %d", cfg.SignalDelayBar)
	}
	if cfg.Data.OutputDir != "output" {
		t.Errorf("default output_dir = %q", cfg.Data.OutputDir)
	}
	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %q/%q", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadConfigAlgorithmDelayDefault(t *testing.T) {
	path := writeConfig(t, `
strategy: ALGORITHM
initial_cash: 100000
data:
  signal_path: signal.csv
  close_path: close.csv
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SignalDelayBar != 1 {
		t.Errorf("algorithm delay default = %d, want 1", cfg.SignalDelayBar)
	}
}

func TestLoadConfigFull(t *testing.T) {
	path := writeConfig(t, `
strategy: TARGET_WEIGHT
initial_cash: 50000
pct_commission: 0.0025
pct_buy_slip: 0.001
pct_sell_slip: 0.001
price_match_mode: typical
data:
  signal_path: weights.csv
  high_path: high.csv
  low_path: low.csv
  close_path: close.csv
  output_dir: results
logging:
  level: DEBUG
  format: text
  tracing_enabled: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.InitialCash != 50000 || cfg.PctCommission != 0.0025 {
		t.Errorf("numeric fields: %+v", cfg)
	}
	if cfg.PriceMatchMode != PriceModeTypical {
		t.Errorf("price_match_mode = %q", cfg.PriceMatchMode)
	}
	if cfg.Data.OutputDir != "results" {
		t.Errorf("output_dir = %q", cfg.Data.OutputDir)
	}
	if !cfg.Logging.TracingEnabled {
		t.Error("tracing_enabled should be true")
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"bad strategy",
			"strategy: YOLO\ndata:\n  signal_path: s.csv\n  close_path: c.csv\n",
			"invalid strategy",
		},
		{
			"negative cash",
			"initial_cash: -1\ndata:\n  signal_path: s.csv\n  close_path: c.csv\n",
			"initial_cash",
		},
		{
			"commission range",
			"pct_commission: 1.5\ndata:\n  signal_path: s.csv\n  close_path: c.csv\n",
			"pct_commission",
		},
		{
			"bad price mode",
			"price_match_mode: vwap\ndata:\n  signal_path: s.csv\n  close_path: c.csv\n",
			"price_match_mode",
		},
		{
			"missing signal path",
			"data:\n  close_path: c.csv\n",
			"signal_path",
		},
		{
			"missing close path",
			"data:\n  signal_path: s.csv\n",
			"close_path",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
