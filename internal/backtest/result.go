package backtest

import (
	"time"

	"set-backtester/internal/frame"
)

// PositionSnapshot is one open position at the end of one bar.
type PositionSnapshot struct {
	Timestamp  time.Time
	Symbol     string
	Volume     float64
	CostPrice  float64
	ClosePrice float64
}

// Result is the raw output of a simulation run: end-of-bar cash, one
// snapshot row per open position per bar, and the trade log in
// execution order.
type Result struct {
	CashSeries frame.Series
	Positions  []PositionSnapshot
	Trades     []Trade
}

// snapshotPositions appends one row per open position, in sorted symbol
// order so output is deterministic.
func (r *Result) snapshotPositions(ts time.Time, acct *Account) {
	for _, sym := range acct.PositionSymbols() {
		p := acct.Position(sym)
		r.Positions = append(r.Positions, PositionSnapshot{
			Timestamp:  ts,
			Symbol:     p.Symbol,
			Volume:     p.Volume,
			CostPrice:  p.CostPrice,
			ClosePrice: p.ClosePrice,
		})
	}
}
