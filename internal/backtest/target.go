package backtest

import (
	"context"
	"fmt"
	"math"

	"set-backtester/internal/frame"
	"set-backtester/internal/logger"
)

// TargetWeightInput is the fully materialized input of a target-weight
// rebalancing run.
type TargetWeightInput struct {
	InitialCash float64
	// InitialPositions optionally seeds the account, keyed by symbol.
	InitialPositions map[string]*Position
	// Weights holds per-date per-symbol target portfolio weights in
	// [0, 1], each row summing to at most 1. An all-NaN row means no
	// rebalance that day; the dates may be a subset of BuyPrice's.
	Weights *frame.Frame
	// BuyPrice and SellPrice hold per-side match prices with identical
	// dates and symbols. Their dates are the trading bars.
	BuyPrice  *frame.Frame
	SellPrice *frame.Frame
	// ClosePrice optionally provides end-of-bar valuation prices
	// aligned with BuyPrice. When nil, snapshots carry NaN closes.
	ClosePrice *frame.Frame
	// PctBuySlip raises the buy match price, PctSellSlip lowers the
	// sell match price (0.01 = 1%).
	PctBuySlip  float64
	PctSellSlip float64
	// PctCommission is the flat commission rate in [0, 1].
	PctCommission float64
}

// RunTargetWeight executes the target-weight simulation loop. For every
// bar it prices the portfolio conservatively (held volume at the lower
// commission-adjusted price band), converts each weight into a target
// volume at the upper band, floors the volume difference to full lots,
// and executes all sells before all buys through the clamping matcher.
func RunTargetWeight(ctx context.Context, in TargetWeightInput) (*Result, error) {
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
	if in.Weights == nil || in.BuyPrice == nil || in.SellPrice == nil {
		return nil, ErrNilFrame
	}
	if err := in.BuyPrice.CheckAligned(in.SellPrice); err != nil {
		return nil, fmt.Errorf("sell price vs buy price: %w", err)
	}
	if in.ClosePrice != nil {
		if err := in.BuyPrice.CheckAligned(in.ClosePrice); err != nil {
			return nil, fmt.Errorf("close price vs buy price: %w", err)
		}
	}
	if err := validateWeightFrame(in.Weights); err != nil {
		return nil, err
	}

	// The price frames may cover more symbols and dates than the
	// weights, never fewer.
	if err := validateWeightCoverage(in.Weights, in.BuyPrice); err != nil {
		return nil, err
	}
	weights, err := in.Weights.Reindex(in.BuyPrice.Dates())
	if err != nil {
		return nil, fmt.Errorf("reindex weights: %w", err)
	}

	ratioBuySlip := 1.0 + in.PctBuySlip
	ratioSellSlip := 1.0 - in.PctSellSlip

	acct, err := NewAccount(in.InitialCash, in.PctCommission, in.InitialPositions)
	if err != nil {
		return nil, err
	}

	timer := logger.StartOperation(ctx, "backtest.run_target_weight",
		"bars", in.BuyPrice.NumRows(),
		"symbols", len(in.BuyPrice.Symbols()),
		"initial_cash", in.InitialCash,
	)
	ctx = timer.GetContext()

	res := &Result{}
	for i := 0; i < in.BuyPrice.NumRows(); i++ {
		ts := in.BuyPrice.Date(i)

		buys, sells := targetBarOrders(acct, weights, in.BuyPrice, in.SellPrice, i,
			ratioBuySlip, ratioSellSlip, in.PctCommission)

		for _, ord := range sells {
			price := in.SellPrice.At(i, ord.symbol) * ratioSellSlip
			if err := matchAndLog(ctx, acct, ts, ord.symbol, ord.volume, price); err != nil {
				timer.EndWithError(err)
				return nil, err
			}
		}
		for _, ord := range buys {
			price := in.BuyPrice.At(i, ord.symbol) * ratioBuySlip
			if err := matchAndLog(ctx, acct, ts, ord.symbol, ord.volume, price); err != nil {
				timer.EndWithError(err)
				return nil, err
			}
		}

		if in.ClosePrice != nil {
			acct.SetClosePrices(in.ClosePrice.Row(i))
		}
		res.snapshotPositions(ts, acct)
		res.CashSeries.Append(ts, acct.Cash)
		logger.Snapshot(ctx, ts.Format("2006-01-02"), acct.Cash, acct.PortValue(), len(acct.PositionSymbols()))
	}

	res.Trades = acct.Trades()
	timer.End("trades", len(res.Trades), "final_cash", acct.Cash)
	return res, nil
}

// targetBarOrders turns one bar's weight row into floored trade
// volumes. The trade value prices held volume at the low band
// (min side price less commission) while targets divide by the high
// band (max side price plus commission), so the computed buys stay
// affordable under any fill side.
func targetBarOrders(acct *Account, weights, buyPrice, sellPrice *frame.Frame, row int,
	ratioBuySlip, ratioSellSlip, pctCommission float64) (buys, sells []order) {

	tradeValue := acct.Cash
	for _, sym := range acct.PositionSymbols() {
		low := priceBandLow(buyPrice.At(row, sym)*ratioBuySlip,
			sellPrice.At(row, sym)*ratioSellSlip, pctCommission)
		if math.IsNaN(low) {
			continue
		}
		tradeValue += acct.Volume(sym) * low
	}

	for _, sym := range weights.Symbols() {
		w := weights.At(row, sym)
		high := priceBandHigh(buyPrice.At(row, sym)*ratioBuySlip,
			sellPrice.At(row, sym)*ratioSellSlip, pctCommission)

		targetVolume := tradeValue * w / high
		tradeVolume := roundLotDown(targetVolume - acct.Volume(sym))
		if tradeVolume > 0 {
			buys = append(buys, order{symbol: sym, volume: tradeVolume})
		} else if tradeVolume < 0 {
			sells = append(sells, order{symbol: sym, volume: tradeVolume})
		}
	}
	return buys, sells
}

// priceBandLow is the lower of the two side prices, less commission.
// NaN sides are ignored; both NaN gives NaN.
func priceBandLow(buy, sell, pctCommission float64) float64 {
	return pickSide(buy, sell, math.Min) * (1.0 - pctCommission)
}

// priceBandHigh is the higher of the two side prices, plus commission.
func priceBandHigh(buy, sell, pctCommission float64) float64 {
	return pickSide(buy, sell, math.Max) * (1.0 + pctCommission)
}

func pickSide(buy, sell float64, pick func(float64, float64) float64) float64 {
	switch {
	case math.IsNaN(buy):
		return sell
	case math.IsNaN(sell):
		return buy
	default:
		return pick(buy, sell)
	}
}
