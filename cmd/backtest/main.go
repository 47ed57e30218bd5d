package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"set-backtester/internal/backtest"
	"set-backtester/internal/data"
	"set-backtester/internal/frame"
	"set-backtester/internal/logger"
	"set-backtester/internal/report"
	"set-backtester/internal/store"
	"set-backtester/internal/tradelog"

	"github.com/joho/godotenv"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	_ = godotenv.Load()

	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := store.LoadConfig(cfgPath)
	must(err)

	must(logger.InitWithConfig(logger.LogConfig{
		Level:           cfg.Logging.Level,
		Format:          cfg.Logging.Format,
		DetailedLogging: cfg.Logging.DetailedLogging,
		TracingEnabled:  cfg.Logging.TracingEnabled,
	}))
	ctx := context.Background()
	defer func() { _ = logger.Shutdown(ctx) }()

	if v := os.Getenv("BACKTEST_LOG_RETENTION_DAYS"); v != "" {
		if n, ok := retentionDays(v); ok {
			_ = tradelog.CompressOlder(n)
		} else {
			logger.Warn(ctx, "Invalid BACKTEST_LOG_RETENTION_DAYS, skipping log compression", "value", v)
		}
	}

	res, err := run(ctx, cfg)
	if err != nil {
		logger.ErrorWithErr(ctx, "Backtest failed", err)
		os.Exit(1)
	}

	must(writeOutputs(cfg, res))

	cash := cfg.InitialCash
	for _, t := range res.Trades {
		side := "BUY"
		if t.Volume < 0 {
			side = "SELL"
		}
		cash -= t.CashDelta()
		_ = tradelog.Append(tradelog.Entry{
			MatchedAt:  t.MatchedAt.Format("2006-01-02"),
			Symbol:     t.Symbol,
			Side:       side,
			Volume:     t.Volume,
			Price:      t.Price,
			Commission: t.Commission(),
			CashAfter:  cash,
		})
	}

	summary, err := report.Compute(res, cfg.InitialCash)
	must(err)
	b, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(b))
}

func run(ctx context.Context, cfg *store.Config) (*backtest.Result, error) {
	signal, err := data.ReadFrame(cfg.Data.SignalPath)
	if err != nil {
		return nil, fmt.Errorf("load signal: %w", err)
	}
	closePrice, err := data.ReadFrame(cfg.Data.ClosePath)
	if err != nil {
		return nil, fmt.Errorf("load close price: %w", err)
	}
	priceMatch, err := data.LoadMatchPrice(cfg)
	if err != nil {
		return nil, fmt.Errorf("load match price: %w", err)
	}

	if cfg.SignalDelayBar > 0 {
		signal, err = signal.Shift(cfg.SignalDelayBar)
		if err != nil {
			return nil, err
		}
	}

	switch cfg.Strategy {
	case "TARGET_WEIGHT", "EQUAL_WEIGHT":
		weights := signal
		if cfg.Strategy == "EQUAL_WEIGHT" {
			// The signal flags membership; flagged symbols split the
			// portfolio evenly on each rebalance bar.
			weights, err = equalWeights(signal)
			if err != nil {
				return nil, err
			}
		}
		return backtest.RunTargetWeight(ctx, backtest.TargetWeightInput{
			InitialCash:   cfg.InitialCash,
			Weights:       weights,
			BuyPrice:      priceMatch,
			SellPrice:     priceMatch,
			ClosePrice:    closePrice,
			PctBuySlip:    cfg.PctBuySlip,
			PctSellSlip:   cfg.PctSellSlip,
			PctCommission: cfg.PctCommission,
		})
	case "ALGORITHM":
		// The built-in algorithm treats the signal as a target portfolio
		// weight; trading starts on the close frame's second row.
		match, err := sliceMatchToTrading(priceMatch, closePrice)
		if err != nil {
			return nil, err
		}
		return backtest.Run(ctx, backtest.RunInput{
			InitialCash:   cfg.InitialCash,
			Signal:        signal,
			ClosePrice:    closePrice,
			PriceMatch:    match,
			PctBuySlip:    cfg.PctBuySlip,
			PctSellSlip:   cfg.PctSellSlip,
			PctCommission: cfg.PctCommission,
			Algorithm: func(c *backtest.Context) float64 {
				return c.TargetPctPort(c.Signal)
			},
		})
	default:
		return nil, fmt.Errorf("invalid strategy '%s'", cfg.Strategy)
	}
}

// retentionDays parses the log retention env value. ok is false for
// anything but a non-negative whole number.
func retentionDays(v string) (int, bool) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// equalWeights converts a membership signal frame into target weights:
// symbols with a positive signal split the row evenly, everything else
// gets zero. A row with no flagged symbol stays all-NaN (no rebalance).
func equalWeights(signal *frame.Frame) (*frame.Frame, error) {
	symbols := signal.Symbols()
	values := make([][]float64, signal.NumRows())
	for i := range values {
		var flagged int
		for _, sym := range symbols {
			if signal.At(i, sym) > 0 {
				flagged++
			}
		}
		row := make([]float64, len(symbols))
		for c, sym := range symbols {
			switch {
			case flagged == 0:
				row[c] = math.NaN()
			case signal.At(i, sym) > 0:
				row[c] = 1 / float64(flagged)
			default:
				row[c] = 0
			}
		}
		values[i] = row
	}
	return frame.New(signal.Dates(), symbols, values)
}

// sliceMatchToTrading drops the match price rows before the first
// trading bar when the frame covers the close frame's seed row too.
func sliceMatchToTrading(priceMatch, closePrice *frame.Frame) (*frame.Frame, error) {
	if priceMatch.NumRows() == closePrice.NumRows() && priceMatch.NumRows() >= 2 &&
		priceMatch.Date(0).Equal(closePrice.Date(0)) {
		return priceMatch.Slice(1, priceMatch.NumRows())
	}
	return priceMatch, nil
}

func writeOutputs(cfg *store.Config, res *backtest.Result) error {
	if err := os.MkdirAll(cfg.Data.OutputDir, 0o755); err != nil {
		return err
	}
	if err := data.WriteCashSeries(res.CashSeries, filepath.Join(cfg.Data.OutputDir, "cash.csv")); err != nil {
		return err
	}
	if err := data.WritePositions(res.Positions, filepath.Join(cfg.Data.OutputDir, "positions.csv")); err != nil {
		return err
	}
	return data.WriteTrades(res.Trades, filepath.Join(cfg.Data.OutputDir, "trades.csv"))
}
