package backtest

import (
	"errors"
	"fmt"
	"math"
)

// ErrInsufficientVolume indicates a fill that would drive a position's
// volume negative. The account clamps sell volume beforehand, so
// reaching this is a bug in the caller, not a market outcome.
var ErrInsufficientVolume = errors.New("insufficient position volume")

// Position is one symbol's holding: volume, volume-weighted average
// cost, and the last known close price for valuation (NaN until the
// first close refresh).
type Position struct {
	Symbol     string
	Volume     float64
	CostPrice  float64
	ClosePrice float64
}

// NewPosition validates and builds a Position with no market price yet.
func NewPosition(symbol string, volume, costPrice float64) (*Position, error) {
	if symbol == "" {
		return nil, ErrEmptySymbol
	}
	if !(volume >= 0) {
		return nil, fmt.Errorf("%w: got %v", ErrNegativeVolume, volume)
	}
	if math.Mod(volume, LotSize) != 0 {
		return nil, fmt.Errorf("%w: got %v", ErrVolumeNotLot, volume)
	}
	if !(costPrice >= 0) {
		return nil, fmt.Errorf("%w: got %v", ErrNegativeCost, costPrice)
	}
	return &Position{
		Symbol:     symbol,
		Volume:     volume,
		CostPrice:  costPrice,
		ClosePrice: math.NaN(),
	}, nil
}

// CostValue is volume times average cost.
func (p *Position) CostValue() float64 {
	return p.Volume * p.CostPrice
}

// CloseValue is volume times last close price, or zero when no close
// price is known.
func (p *Position) CloseValue() float64 {
	if math.IsNaN(p.ClosePrice) {
		return 0
	}
	return p.Volume * p.ClosePrice
}

// ApplyFill applies a matched volume at the given price. Buys move the
// average cost by the weighted-average rule; sells leave it unchanged.
// Returns the new volume.
func (p *Position) ApplyFill(volume, price float64) (float64, error) {
	if volume > 0 {
		p.CostPrice = (p.CostValue() + volume*price) / (p.Volume + volume)
	}
	p.Volume += volume
	if p.Volume < 0 {
		return p.Volume, fmt.Errorf("%w: %s has %v after fill of %v",
			ErrInsufficientVolume, p.Symbol, p.Volume, volume)
	}
	return p.Volume, nil
}
