package backtest

import (
	"math"
	"testing"
	"time"
)

var testDay = time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC)

func TestNewTradeValid(t *testing.T) {
	tr, err := NewTrade(testDay, "AAA", 100, 1.5, 0.0025)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.Symbol != "AAA" || tr.Volume != 100 || tr.Price != 1.5 {
		t.Errorf("unexpected trade: %+v", tr)
	}
}

func TestNewTradeInvalid(t *testing.T) {
	cases := []struct {
		name   string
		symbol string
		volume float64
		price  float64
		pct    float64
	}{
		{"empty symbol", "", 100, 1.0, 0},
		{"zero volume", "AAA", 0, 1.0, 0},
		{"nan volume", "AAA", math.NaN(), 1.0, 0},
		{"not lot multiple", "AAA", 150, 1.0, 0},
		{"zero price", "AAA", 100, 0, 0},
		{"negative price", "AAA", 100, -1.0, 0},
		{"nan price", "AAA", 100, math.NaN(), 0},
		{"inf price", "AAA", 100, math.Inf(1), 0},
		{"commission below range", "AAA", 100, 1.0, -0.1},
		{"commission above range", "AAA", 100, 1.0, 1.1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := NewTrade(testDay, c.symbol, c.volume, c.price, c.pct); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestTradeDerivedValues(t *testing.T) {
	buy, err := NewTrade(testDay, "AAA", 200, 2.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if got := buy.Value(); got != 400 {
		t.Errorf("buy value = %v, want 400", got)
	}
	if got := buy.Commission(); got != 4 {
		t.Errorf("buy commission = %v, want 4", got)
	}
	if got := buy.CashDelta(); got != 404 {
		t.Errorf("buy cash delta = %v, want 404", got)
	}

	sell, err := NewTrade(testDay, "AAA", -200, 2.0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	if got := sell.Value(); got != -400 {
		t.Errorf("sell value = %v, want -400", got)
	}
	if got := sell.Commission(); got != 4 {
		t.Errorf("sell commission = %v, want 4 (always positive)", got)
	}
	// Selling returns the notional less commission.
	if got := sell.CashDelta(); got != -396 {
		t.Errorf("sell cash delta = %v, want -396", got)
	}
}
