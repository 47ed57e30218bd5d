// Package ta provides trailing-window indicator math over plain float
// slices. Values are computed off the tail of the series; a window the
// series cannot fill yields NaN. NaN inputs propagate.
//
// The helpers are intended for decision algorithms that keep their own
// per-symbol price history, and for the report's return statistics.
package ta

import "math"

// Returns converts a value series into simple per-step returns. The
// output has one fewer element; a step with a non-positive or NaN base
// yields NaN.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		if base := values[i-1]; base > 0 {
			out[i-1] = values[i]/base - 1
		} else {
			out[i-1] = math.NaN()
		}
	}
	return out
}

// SMA is the simple moving average of the last n values.
func SMA(values []float64, n int) float64 {
	if n <= 0 || len(values) < n {
		return math.NaN()
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		sum += v
	}
	return sum / float64(n)
}

// StdDev is the population standard deviation of the last n values.
func StdDev(values []float64, n int) float64 {
	mean := SMA(values, n)
	if math.IsNaN(mean) {
		return math.NaN()
	}
	var sum float64
	for _, v := range values[len(values)-n:] {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(n))
}

// RSI is the relative strength index over the last period deltas,
// 100 when the window has no losses.
func RSI(values []float64, period int) float64 {
	if period <= 0 || len(values) < period+1 {
		return math.NaN()
	}
	var gain, loss float64
	for i := len(values) - period; i < len(values); i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gain += d
		} else {
			loss -= d
		}
	}
	if loss == 0 {
		return 100
	}
	return 100 - 100/(1+gain/loss)
}

// Bollinger returns the n-bar moving average band at k standard
// deviations.
func Bollinger(values []float64, n int, k float64) (mid, upper, lower float64) {
	mid = SMA(values, n)
	sd := StdDev(values, n)
	return mid, mid + k*sd, mid - k*sd
}

// ATR is the average true range of the last period bars.
func ATR(highs, lows, closes []float64, period int) float64 {
	if period <= 0 || len(highs) != len(lows) || len(lows) != len(closes) || len(closes) < period+1 {
		return math.NaN()
	}
	var sum float64
	for i := len(closes) - period; i < len(closes); i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		sum += tr
	}
	return sum / float64(period)
}
