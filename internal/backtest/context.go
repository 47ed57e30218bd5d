package backtest

import "time"

// Context is the read-only view handed to a decision Algorithm for one
// (bar, symbol) pair. Sizing helpers return desired volumes: unclamped,
// not lot-rounded. Clamping and rounding happen in the account when the
// order is matched.
type Context struct {
	// Ts is the current bar's timestamp.
	Ts time.Time
	// Symbol is the symbol under decision.
	Symbol string
	// Signal is the bar's signal value for Symbol. NaN when the signal
	// frame has no instruction for this symbol today.
	Signal float64
	// ClosePrice is the previous close of Symbol used for sizing.
	ClosePrice float64
	// Volume is the currently held volume of Symbol, zero if none.
	Volume float64
	// CostPrice is the average cost of the held volume, zero if none.
	CostPrice float64

	// Cash is the account's available cash.
	Cash float64
	// TotalCostValue is the cost valuation of all open positions.
	TotalCostValue float64
	// TotalMarketValue is the close valuation of all open positions.
	TotalMarketValue float64
	// PortValue is total market value plus cash.
	PortValue float64
}

// BuyValue returns the buy volume worth the given cash value.
func (c *Context) BuyValue(value float64) float64 {
	return value / c.ClosePrice
}

// BuyPctPort returns the buy volume worth the given fraction of the
// portfolio value.
func (c *Context) BuyPctPort(pctPort float64) float64 {
	return c.BuyValue(c.PortValue * pctPort)
}

// BuyPctPosition returns the buy volume equal to the given fraction of
// the current position.
func (c *Context) BuyPctPosition(pctPosition float64) float64 {
	return pctPosition * c.Volume
}

// SellValue returns the sell volume (negative) worth the given value.
func (c *Context) SellValue(value float64) float64 {
	return c.BuyValue(-value)
}

// SellPctPort returns the sell volume (negative) worth the given
// fraction of the portfolio value.
func (c *Context) SellPctPort(pctPort float64) float64 {
	return c.BuyPctPort(-pctPort)
}

// SellPctPosition returns the sell volume (negative) equal to the given
// fraction of the current position.
func (c *Context) SellPctPosition(pctPosition float64) float64 {
	return c.BuyPctPosition(-pctPosition)
}

// TargetValue returns the trade volume that moves the position to the
// given cash value.
func (c *Context) TargetValue(value float64) float64 {
	return c.BuyValue(value) - c.Volume
}

// TargetPctPort returns the trade volume that moves the position to the
// given fraction of the portfolio value.
func (c *Context) TargetPctPort(pctPort float64) float64 {
	return c.BuyPctPort(pctPort) - c.Volume
}
