// Package report assembles performance statistics from a simulation
// result. It consumes exactly the core's output contract: cash series,
// position snapshots and the trade log.
package report

import (
	"errors"
	"math"
	"time"

	"set-backtester/internal/backtest"
	"set-backtester/internal/frame"
	"set-backtester/internal/ta"
)

var ErrEmptyResult = errors.New("result has no bars")

// Summary is the headline statistics of one run.
type Summary struct {
	InitialCapital float64
	FinalPortValue float64
	NetProfit      float64
	ReturnPct      float64
	CAGRPct        float64
	MaxDrawdownPct float64
	VolatilityPct  float64
	TotalTrades    int
	ClosedTrades   int
	WinTrades      int
	WinRatePct     float64
}

// EquityCurve returns the end-of-bar portfolio value series: cash plus
// the close valuation of every open position. Positions without a
// known close price contribute zero.
func EquityCurve(res *backtest.Result) frame.Series {
	valueByBar := make(map[int64]float64, res.CashSeries.Len())
	for _, p := range res.Positions {
		if math.IsNaN(p.ClosePrice) {
			continue
		}
		valueByBar[p.Timestamp.UnixNano()] += p.Volume * p.ClosePrice
	}

	var curve frame.Series
	for i := 0; i < res.CashSeries.Len(); i++ {
		ts := res.CashSeries.Dates[i]
		curve.Append(ts, res.CashSeries.Values[i]+valueByBar[ts.UnixNano()])
	}
	return curve
}

// Compute builds the run summary from a result and its initial capital.
func Compute(res *backtest.Result, initialCapital float64) (Summary, error) {
	if res == nil || res.CashSeries.Len() == 0 {
		return Summary{}, ErrEmptyResult
	}

	curve := EquityCurve(res)
	final := curve.Values[curve.Len()-1]

	s := Summary{
		InitialCapital: initialCapital,
		FinalPortValue: final,
		NetProfit:      final - initialCapital,
		MaxDrawdownPct: maxDrawdownPct(curve.Values),
		TotalTrades:    len(res.Trades),
	}
	if initialCapital > 0 {
		s.ReturnPct = 100 * s.NetProfit / initialCapital
	}
	s.CAGRPct = cagrPct(initialCapital, final, curve.Dates[0], curve.Dates[curve.Len()-1])
	s.VolatilityPct = volatilityPct(curve.Values)

	s.ClosedTrades, s.WinTrades = closedTradeStats(res.Trades)
	if s.ClosedTrades > 0 {
		s.WinRatePct = 100 * float64(s.WinTrades) / float64(s.ClosedTrades)
	}
	return s, nil
}

// maxDrawdownPct is the largest peak-to-trough equity drop in percent.
func maxDrawdownPct(values []float64) float64 {
	var peak, maxDD float64
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak > 0 {
			if dd := 100 * (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	return maxDD
}

// cagrPct is the compound annual growth rate in percent, zero when the
// span or capital does not admit one.
func cagrPct(initial, final float64, start, end time.Time) float64 {
	years := end.Sub(start).Hours() / (24 * 365.25)
	if initial <= 0 || final <= 0 || years <= 0 {
		return 0
	}
	return 100 * (math.Pow(final/initial, 1/years) - 1)
}

// volatilityPct is the annualized standard deviation of bar-to-bar
// equity returns in percent, assuming daily bars. NaN returns (bars
// with non-positive equity) void the statistic.
func volatilityPct(values []float64) float64 {
	returns := ta.Returns(values)
	if len(returns) == 0 {
		return 0
	}
	sd := ta.StdDev(returns, len(returns))
	if math.IsNaN(sd) {
		return 0
	}
	return 100 * sd * math.Sqrt(252)
}

// closedTradeStats replays the trade log with an average-cost tracker
// and counts sell fills (closed trades) and profitable sell fills.
func closedTradeStats(trades []backtest.Trade) (closed, wins int) {
	cost := map[string]*backtest.Position{}
	for _, t := range trades {
		p, ok := cost[t.Symbol]
		if !ok {
			p, _ = backtest.NewPosition(t.Symbol, 0, 0)
			cost[t.Symbol] = p
		}
		if t.Volume < 0 {
			closed++
			// Net of commission on the way out.
			proceeds := -t.CashDelta()
			if proceeds > -t.Volume*p.CostPrice {
				wins++
			}
		}
		if _, err := p.ApplyFill(t.Volume, t.Price); err != nil {
			// A log that oversells is corrupt; stop counting it.
			break
		}
		if p.Volume == 0 {
			delete(cost, t.Symbol)
		}
	}
	return closed, wins
}
