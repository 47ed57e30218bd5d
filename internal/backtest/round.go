package backtest

import "math"

// LotSize is the exchange's minimum tradable unit. Every matched volume
// is an exact multiple of it.
const LotSize = 100.0

// roundLot truncates volume toward zero to the nearest lot multiple.
// Operates on the integer quotient so float drift cannot shift the
// result by a lot. NaN and Inf round to zero.
func roundLot(volume float64) float64 {
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return 0
	}
	return float64(int64(volume/LotSize)) * LotSize
}

// roundLotDown floors volume to the nearest lot multiple toward
// negative infinity. The target-weight rebalance uses this so that a
// fractional sell always realizes a full lot.
func roundLotDown(volume float64) float64 {
	if math.IsNaN(volume) || math.IsInf(volume, 0) {
		return 0
	}
	return math.Floor(volume/LotSize) * LotSize
}
