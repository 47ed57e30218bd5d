package backtest

import (
	"errors"
	"fmt"
	"math"

	"set-backtester/internal/frame"
)

var (
	ErrNegativeWeight         = errors.New("signal weights must not be negative")
	ErrWeightSum              = errors.New("signal weight row sum must not exceed 1")
	ErrMixedNaNWeight         = errors.New("signal weight row mixes NaN with nonzero weights")
	ErrWeightSymbolNotCovered = errors.New("signal weight symbol missing from price frame")
	ErrWeightDateNotCovered   = errors.New("signal weight date missing from price frame")
)

// validateCash rejects a negative initial cash before any state exists.
func validateCash(cash float64) error {
	if !(cash >= 0) {
		return fmt.Errorf("%w: got %v", ErrNegativeCash, cash)
	}
	return nil
}

// validatePct rejects a percentage outside [0, 1].
func validatePct(name string, pct float64) error {
	if pct < 0 || pct > 1 {
		return fmt.Errorf("%s: %w: got %v", name, ErrInvalidPct, pct)
	}
	return nil
}

// validateWeightCoverage checks that the price frame covers every
// symbol and date the weight frame references. The price frame may
// carry more of both; a weight keyed by a symbol or bar that cannot be
// priced is an input error, not a silent no-op.
func validateWeightCoverage(weights, prices *frame.Frame) error {
	for _, sym := range weights.Symbols() {
		if !prices.HasSymbol(sym) {
			return fmt.Errorf("%w: %s", ErrWeightSymbolNotCovered, sym)
		}
	}
	covered := make(map[int64]bool, prices.NumRows())
	for _, d := range prices.Dates() {
		covered[d.UnixNano()] = true
	}
	for _, d := range weights.Dates() {
		if !covered[d.UnixNano()] {
			return fmt.Errorf("%w: %s", ErrWeightDateNotCovered, d.Format("2006-01-02"))
		}
	}
	return nil
}

// weightSumTolerance absorbs the float error of summing n copies of
// 1/n, which lands marginally above 1 for many n.
const weightSumTolerance = 1e-9

// validateWeightFrame enforces the target-weight contract: every weight
// is non-negative, each row sums to at most 1, and a row never mixes
// NaN with nonzero weights (an all-NaN row means "no rebalance").
func validateWeightFrame(weights *frame.Frame) error {
	for i := 0; i < weights.NumRows(); i++ {
		var sum float64
		var hasNaN, hasNonzero bool
		for _, sym := range weights.Symbols() {
			w := weights.At(i, sym)
			if math.IsNaN(w) {
				hasNaN = true
				continue
			}
			if w < 0 {
				return fmt.Errorf("%w: %v for %s on %s",
					ErrNegativeWeight, w, sym, weights.Date(i).Format("2006-01-02"))
			}
			if w > 0 {
				hasNonzero = true
			}
			sum += w
		}
		if hasNaN && hasNonzero {
			return fmt.Errorf("%w: on %s", ErrMixedNaNWeight, weights.Date(i).Format("2006-01-02"))
		}
		if sum > 1+weightSumTolerance {
			return fmt.Errorf("%w: sum %v on %s", ErrWeightSum, sum, weights.Date(i).Format("2006-01-02"))
		}
	}
	return nil
}
