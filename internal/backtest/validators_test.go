package backtest

import (
	"errors"
	"math"
	"testing"
)

func TestValidateCash(t *testing.T) {
	for _, cash := range []float64{0, 0.01, 1e9} {
		if err := validateCash(cash); err != nil {
			t.Errorf("validateCash(%v) = %v", cash, err)
		}
	}
	for _, cash := range []float64{-1, math.NaN()} {
		if err := validateCash(cash); !errors.Is(err, ErrNegativeCash) {
			t.Errorf("validateCash(%v) = %v, want ErrNegativeCash", cash, err)
		}
	}
}

func TestValidatePct(t *testing.T) {
	for _, pct := range []float64{0, 0.0025, 1} {
		if err := validatePct("pct_commission", pct); err != nil {
			t.Errorf("validatePct(%v) = %v", pct, err)
		}
	}
	for _, pct := range []float64{-0.01, 1.01} {
		if err := validatePct("pct_commission", pct); !errors.Is(err, ErrInvalidPct) {
			t.Errorf("validatePct(%v) = %v, want ErrInvalidPct", pct, err)
		}
	}
}

func TestValidateWeightFrame(t *testing.T) {
	days := tradingDays(2)
	symbols := []string{"AAA", "BBB"}

	tests := []struct {
		name   string
		values [][]float64
		want   error
	}{
		{"valid", [][]float64{{0.5, 0.5}, {0.3, 0.2}}, nil},
		{"all nan row", [][]float64{{math.NaN(), math.NaN()}, {0.1, 0.1}}, nil},
		{"zero with nan", [][]float64{{0, math.NaN()}, {0.1, 0.1}}, nil},
		{"negative", [][]float64{{-0.1, 0.5}, {0.1, 0.1}}, ErrNegativeWeight},
		{"sum above one", [][]float64{{0.6, 0.6}, {0.1, 0.1}}, ErrWeightSum},
		{"nan with nonzero", [][]float64{{0.5, math.NaN()}, {0.1, 0.1}}, ErrMixedNaNWeight},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := mkFrame(t, days, symbols, tc.values)
			err := validateWeightFrame(f)
			if tc.want == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

// Nine copies of 1/9 sum marginally above 1 in float64; the validator
// must not reject a fully invested equal-weight row for that.
func TestValidateWeightFrameEqualWeightRow(t *testing.T) {
	symbols := make([]string, 9)
	row := make([]float64, 9)
	for i := range symbols {
		symbols[i] = string(rune('A'+i)) + "AA"
		row[i] = 1.0 / 9
	}
	f := mkFrame(t, tradingDays(1), symbols, [][]float64{row})
	if err := validateWeightFrame(f); err != nil {
		t.Errorf("equal-weight row rejected: %v", err)
	}
}
