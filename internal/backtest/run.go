// Package backtest implements the event-driven portfolio simulation
// core: a deterministic bar-by-bar state machine that turns signals
// into trades against an account of cash and positions.
package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"set-backtester/internal/frame"
	"set-backtester/internal/logger"
)

// Algorithm decides one symbol's desired trade volume for one bar.
// Positive is buy, negative is sell, zero or NaN is no trade. The
// returned volume does not need to be affordable or lot-rounded.
type Algorithm func(*Context) float64

var (
	ErrNilAlgorithm = errors.New("algorithm must not be nil")
	ErrNilFrame     = errors.New("input frames must not be nil")
	ErrTooFewBars   = errors.New("close price frame needs at least two rows")
)

// RunInput is the fully materialized input of a decision-callback run.
type RunInput struct {
	InitialCash float64
	// InitialPositions optionally seeds the account, keyed by symbol.
	InitialPositions map[string]*Position
	// Signal holds per-date per-symbol signal values. NaN means no
	// instruction for that symbol that day.
	Signal *frame.Frame
	// ClosePrice holds close prices. Its first row only initializes
	// valuation; trading starts on the second row.
	ClosePrice *frame.Frame
	// PriceMatch holds the execution price per bar. Dates and symbols
	// must match ClosePrice without its first row.
	PriceMatch *frame.Frame
	// PctBuySlip raises the buy match price (0.01 = 1% increase).
	PctBuySlip float64
	// PctSellSlip lowers the sell match price (0.01 = 1% decrease).
	PctSellSlip float64
	// PctCommission is the flat commission rate in [0, 1].
	PctCommission float64
	Algorithm     Algorithm
}

// Run executes the decision-callback simulation loop. For every bar it
// asks the algorithm for each symbol's desired volume, executes all
// sells before all buys through the clamping matcher, then snapshots
// end-of-bar cash and positions.
func Run(ctx context.Context, in RunInput) (*Result, error) {
	if in.Algorithm == nil {
		return nil, ErrNilAlgorithm
	}
	if err := validateCash(in.InitialCash); err != nil {
		return nil, err
	}
	if err := validatePct("pct_buy_slip", in.PctBuySlip); err != nil {
		return nil, err
	}
	if err := validatePct("pct_sell_slip", in.PctSellSlip); err != nil {
		return nil, err
	}
	if err := validatePct("pct_commission", in.PctCommission); err != nil {
		return nil, err
	}
	if in.Signal == nil || in.ClosePrice == nil || in.PriceMatch == nil {
		return nil, ErrNilFrame
	}
	if in.ClosePrice.NumRows() < 2 {
		return nil, ErrTooFewBars
	}

	ratioBuySlip := 1.0 + in.PctBuySlip
	ratioSellSlip := 1.0 - in.PctSellSlip

	acct, err := NewAccount(in.InitialCash, in.PctCommission, in.InitialPositions)
	if err != nil {
		return nil, err
	}

	// First close row seeds valuation only; it is not traded.
	acct.SetClosePrices(in.ClosePrice.Row(0))
	closePrice, err := in.ClosePrice.Slice(1, in.ClosePrice.NumRows())
	if err != nil {
		return nil, err
	}

	signal, err := in.Signal.Reindex(closePrice.Dates())
	if err != nil {
		return nil, fmt.Errorf("reindex signal: %w", err)
	}
	if err := closePrice.CheckAligned(signal); err != nil {
		return nil, fmt.Errorf("signal vs close price: %w", err)
	}
	if err := closePrice.CheckAligned(in.PriceMatch); err != nil {
		return nil, fmt.Errorf("price match vs close price: %w", err)
	}

	timer := logger.StartOperation(ctx, "backtest.run",
		"bars", closePrice.NumRows(),
		"symbols", len(closePrice.Symbols()),
		"initial_cash", in.InitialCash,
	)
	ctx = timer.GetContext()

	res := &Result{}
	for i := 0; i < closePrice.NumRows(); i++ {
		ts := closePrice.Date(i)

		buys, sells := decideBar(acct, signal, i, in.Algorithm)

		// Sells first: proceeds free cash for the same bar's buys.
		for _, ord := range sells {
			price := in.PriceMatch.At(i, ord.symbol) * ratioSellSlip
			if err := matchAndLog(ctx, acct, ts, ord.symbol, ord.volume, price); err != nil {
				timer.EndWithError(err)
				return nil, err
			}
		}
		for _, ord := range buys {
			price := in.PriceMatch.At(i, ord.symbol) * ratioBuySlip
			if err := matchAndLog(ctx, acct, ts, ord.symbol, ord.volume, price); err != nil {
				timer.EndWithError(err)
				return nil, err
			}
		}

		acct.SetClosePrices(closePrice.Row(i))
		res.snapshotPositions(ts, acct)
		res.CashSeries.Append(ts, acct.Cash)
		logger.Snapshot(ctx, ts.Format("2006-01-02"), acct.Cash, acct.PortValue(), len(acct.PositionSymbols()))
	}

	res.Trades = acct.Trades()
	timer.End("trades", len(res.Trades), "final_cash", acct.Cash)
	return res, nil
}

type order struct {
	symbol string
	volume float64
}

// decideBar collects the bar's desired volumes, split by side and kept
// in symbol index order. The context carries start-of-bar aggregates;
// nothing mutates until orders execute.
func decideBar(acct *Account, signal *frame.Frame, row int, algo Algorithm) (buys, sells []order) {
	bar := &Context{
		Ts:               signal.Date(row),
		Cash:             acct.Cash,
		TotalCostValue:   acct.TotalCostValue(),
		TotalMarketValue: acct.TotalMarketValue(),
		PortValue:        acct.PortValue(),
	}
	for _, sym := range signal.Symbols() {
		bar.Symbol = sym
		bar.Signal = signal.At(row, sym)
		bar.ClosePrice = acct.ClosePrice(sym)
		if p := acct.Position(sym); p != nil {
			bar.Volume = p.Volume
			bar.CostPrice = p.CostPrice
		} else {
			bar.Volume = 0
			bar.CostPrice = 0
		}

		v := algo(bar)
		if v > 0 {
			buys = append(buys, order{symbol: sym, volume: v})
		} else if v < 0 {
			sells = append(sells, order{symbol: sym, volume: v})
		}
		// Zero and NaN mean no trade.
	}
	return buys, sells
}

// matchAndLog routes one desired order through the clamping matcher and
// logs the fill if one happened.
func matchAndLog(ctx context.Context, acct *Account, ts time.Time, symbol string, volume, price float64) error {
	trade, err := acct.MatchOrderIfPossible(ts, symbol, volume, price)
	if err != nil {
		logger.ErrorWithErr(ctx, "Order matching failed", err,
			"symbol", symbol,
			"volume", volume,
			"price", price,
		)
		return err
	}
	if trade != nil {
		logger.Trade(ctx, trade.Symbol, trade.Volume, trade.Price,
			"commission", trade.Commission(),
			"cash", acct.Cash,
		)
	}
	return nil
}
