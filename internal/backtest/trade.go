package backtest

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	ErrEmptySymbol      = errors.New("symbol must not be empty")
	ErrZeroVolume       = errors.New("volume must not be zero")
	ErrVolumeNotLot     = errors.New("volume must be a multiple of the lot size")
	ErrInvalidPrice     = errors.New("price must be positive and finite")
	ErrInvalidPct       = errors.New("percentage must be between 0 and 1")
	ErrNegativeVolume   = errors.New("position volume must not be negative")
	ErrNegativeCost     = errors.New("cost price must not be negative")
	ErrInsufficientCash = errors.New("insufficient cash")
)

// Trade is one matched fill. Positive volume is a buy, negative a sell.
// A Trade is never mutated after creation.
type Trade struct {
	MatchedAt     time.Time
	Symbol        string
	Volume        float64
	Price         float64
	PctCommission float64
}

// NewTrade validates and builds a Trade.
func NewTrade(matchedAt time.Time, symbol string, volume, price, pctCommission float64) (Trade, error) {
	if symbol == "" {
		return Trade{}, ErrEmptySymbol
	}
	if volume == 0 || math.IsNaN(volume) {
		return Trade{}, fmt.Errorf("%w: got %v", ErrZeroVolume, volume)
	}
	if math.Mod(volume, LotSize) != 0 {
		return Trade{}, fmt.Errorf("%w: got %v", ErrVolumeNotLot, volume)
	}
	if !(price > 0) || math.IsInf(price, 0) {
		return Trade{}, fmt.Errorf("%w: got %v", ErrInvalidPrice, price)
	}
	if pctCommission < 0 || pctCommission > 1 {
		return Trade{}, fmt.Errorf("%w: got %v", ErrInvalidPct, pctCommission)
	}
	return Trade{
		MatchedAt:     matchedAt,
		Symbol:        symbol,
		Volume:        volume,
		Price:         price,
		PctCommission: pctCommission,
	}, nil
}

// Value is the trade notional. Positive for buy, negative for sell.
func (t Trade) Value() float64 {
	return t.Price * t.Volume
}

// Commission is the fee paid on the trade. Always positive.
func (t Trade) Commission() float64 {
	return math.Abs(t.Value() * t.PctCommission)
}

// CashDelta is the amount of cash reduced by the trade. Positive for
// buy, negative for sell; commission reduces cash on both sides.
func (t Trade) CashDelta() float64 {
	return t.Value() + t.Commission()
}
