package backtest

import (
	"math"
	"testing"
	"time"

	"set-backtester/internal/frame"
)

// tradingDays returns n consecutive dates starting 2021-01-04.
func tradingDays(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2021, 1, 4+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

// mkFrame builds a frame from row-major values.
func mkFrame(t *testing.T, dates []time.Time, symbols []string, values [][]float64) *frame.Frame {
	t.Helper()
	f, err := frame.New(dates, symbols, values)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// constFrame builds a frame where every cell holds the same value.
func constFrame(t *testing.T, dates []time.Time, symbols []string, v float64) *frame.Frame {
	t.Helper()
	values := make([][]float64, len(dates))
	for i := range values {
		row := make([]float64, len(symbols))
		for c := range row {
			row[c] = v
		}
		values[i] = row
	}
	return mkFrame(t, dates, symbols, values)
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}
