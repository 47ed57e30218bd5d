package backtest

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeCash = errors.New("cash must not be negative")
	ErrPositionKey  = errors.New("position map key must equal the position's symbol")
)

// Account aggregates cash, open positions and the append-only trade
// log. It owns the order-matching transition: clamp a desired volume to
// what is affordable or held, round to lot size, then fill.
type Account struct {
	Cash          float64
	PctCommission float64

	positions   map[string]*Position
	trades      []Trade
	closePrices map[string]float64

	ratioCommission decimal.Decimal
}

// NewAccount validates the initial state and builds an Account.
// initialPositions may be nil; it is keyed by symbol.
func NewAccount(cash, pctCommission float64, initialPositions map[string]*Position) (*Account, error) {
	if !(cash >= 0) {
		return nil, fmt.Errorf("%w: got %v", ErrNegativeCash, cash)
	}
	if pctCommission < 0 || pctCommission > 1 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidPct, pctCommission)
	}
	positions := make(map[string]*Position, len(initialPositions))
	for k, v := range initialPositions {
		if v == nil || v.Symbol != k {
			return nil, fmt.Errorf("%w: key %q", ErrPositionKey, k)
		}
		cp := *v
		positions[k] = &cp
	}
	return &Account{
		Cash:            cash,
		PctCommission:   pctCommission,
		positions:       positions,
		closePrices:     map[string]float64{},
		ratioCommission: decimal.NewFromFloat(1.0 + pctCommission),
	}, nil
}

// Position returns the open position for symbol, or nil.
func (a *Account) Position(symbol string) *Position {
	return a.positions[symbol]
}

// HasPosition reports whether symbol has an open position.
func (a *Account) HasPosition(symbol string) bool {
	_, ok := a.positions[symbol]
	return ok
}

// Volume returns the held volume for symbol, zero when no position.
func (a *Account) Volume(symbol string) float64 {
	if p, ok := a.positions[symbol]; ok {
		return p.Volume
	}
	return 0
}

// PositionSymbols returns the open position symbols in sorted order.
func (a *Account) PositionSymbols() []string {
	out := make([]string, 0, len(a.positions))
	for k := range a.positions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Trades returns the trade log in execution order.
func (a *Account) Trades() []Trade {
	return a.trades
}

// TotalMarketValue is the close valuation of all open positions.
// Positions without a known close price contribute zero.
func (a *Account) TotalMarketValue() float64 {
	var total float64
	for _, p := range a.positions {
		total += p.CloseValue()
	}
	return total
}

// TotalCostValue is the cost valuation of all open positions.
func (a *Account) TotalCostValue() float64 {
	var total float64
	for _, p := range a.positions {
		total += p.CostValue()
	}
	return total
}

// PortValue is total market value plus cash.
func (a *Account) PortValue() float64 {
	return a.TotalMarketValue() + a.Cash
}

// ClosePrice returns the last set close price for symbol, NaN if unset.
func (a *Account) ClosePrice(symbol string) float64 {
	if v, ok := a.closePrices[symbol]; ok {
		return v
	}
	return math.NaN()
}

// SetClosePrices refreshes the reference close price map and the close
// price of every open position. The map must cover every open symbol.
func (a *Account) SetClosePrices(closePrices map[string]float64) {
	a.closePrices = closePrices
	for k, p := range a.positions {
		p.ClosePrice = closePrices[k]
	}
}

// MatchOrderIfPossible clamps the desired volume to what is affordable
// (buy) or held (sell), rounds to lot size and fills. Returns nil with
// no side effect when the price is untradeable (non-positive or NaN),
// the symbol is not held on a sell, or the clamped volume rounds to
// zero. The desired volume does not need to be lot-rounded.
func (a *Account) MatchOrderIfPossible(matchedAt time.Time, symbol string, volume, price float64) (*Trade, error) {
	if !(price > 0) || math.IsInf(price, 0) {
		return nil, nil
	}

	if volume > 0 {
		// Affordable volume. Decimal division avoids the float
		// truncation that rejects an exact-budget buy.
		canBuy, _ := decimal.NewFromFloat(a.Cash).
			Div(decimal.NewFromFloat(price)).
			Div(a.ratioCommission).Float64()
		volume = math.Min(volume, canBuy)
	} else if volume < 0 {
		p, ok := a.positions[symbol]
		if !ok {
			return nil, nil
		}
		volume = math.Max(volume, -p.Volume)
	}

	volume = roundLot(volume)
	if volume == 0 {
		return nil, nil
	}

	return a.MatchOrder(matchedAt, symbol, volume, price)
}

// MatchOrder fills the exact volume with no clamping. The caller is
// responsible for affordability; driving cash negative is a fatal
// error, not a business outcome.
func (a *Account) MatchOrder(matchedAt time.Time, symbol string, volume, price float64) (*Trade, error) {
	trade, err := NewTrade(matchedAt, symbol, volume, price, a.PctCommission)
	if err != nil {
		return nil, err
	}
	a.trades = append(a.trades, trade)

	a.Cash -= trade.CashDelta()
	if a.Cash < 0 {
		return nil, fmt.Errorf("%w: %v after %s %v@%v",
			ErrInsufficientCash, a.Cash, symbol, volume, price)
	}

	p, ok := a.positions[symbol]
	if !ok {
		p, err = NewPosition(symbol, 0, 0)
		if err != nil {
			return nil, err
		}
		p.ClosePrice = a.ClosePrice(symbol)
		a.positions[symbol] = p
	}
	newVolume, err := p.ApplyFill(volume, price)
	if err != nil {
		return nil, err
	}
	if newVolume == 0 {
		delete(a.positions, symbol)
	}

	return &trade, nil
}
