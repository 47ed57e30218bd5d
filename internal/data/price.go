package data

import (
	"errors"
	"fmt"

	"set-backtester/internal/frame"
	"set-backtester/internal/store"
)

var ErrMissingPriceFile = errors.New("price file path not configured for match mode")

// LoadMatchPrice loads the match-price frame for the configured price
// match mode. Composite modes (median, typical, weighted) are derived
// cell by cell from the high/low/close frames.
func LoadMatchPrice(cfg *store.Config) (*frame.Frame, error) {
	switch cfg.PriceMatchMode {
	case store.PriceModeOpen:
		return readRequired(cfg.Data.OpenPath, "open")
	case store.PriceModeHigh:
		return readRequired(cfg.Data.HighPath, "high")
	case store.PriceModeLow:
		return readRequired(cfg.Data.LowPath, "low")
	case store.PriceModeClose:
		return readRequired(cfg.Data.ClosePath, "close")
	case store.PriceModeMedian:
		return combinePrices(cfg, func(h, l, _ float64) float64 {
			return (h + l) / 2
		})
	case store.PriceModeTypical:
		return combinePrices(cfg, func(h, l, c float64) float64 {
			return (h + l + c) / 3
		})
	case store.PriceModeWeighted:
		return combinePrices(cfg, func(h, l, c float64) float64 {
			return (h + l + c + c) / 4
		})
	default:
		return nil, fmt.Errorf("invalid price_match_mode '%s'", cfg.PriceMatchMode)
	}
}

func readRequired(path, mode string) (*frame.Frame, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingPriceFile, mode)
	}
	return ReadFrame(path)
}

func combinePrices(cfg *store.Config, derive func(h, l, c float64) float64) (*frame.Frame, error) {
	high, err := readRequired(cfg.Data.HighPath, "high")
	if err != nil {
		return nil, err
	}
	low, err := readRequired(cfg.Data.LowPath, "low")
	if err != nil {
		return nil, err
	}
	closePrice, err := readRequired(cfg.Data.ClosePath, "close")
	if err != nil {
		return nil, err
	}
	if err := high.CheckAligned(low); err != nil {
		return nil, fmt.Errorf("low vs high: %w", err)
	}
	if err := high.CheckAligned(closePrice); err != nil {
		return nil, fmt.Errorf("close vs high: %w", err)
	}

	values := make([][]float64, high.NumRows())
	for i := 0; i < high.NumRows(); i++ {
		row := make([]float64, len(high.Symbols()))
		for c, sym := range high.Symbols() {
			row[c] = derive(high.At(i, sym), low.At(i, sym), closePrice.At(i, sym))
		}
		values[i] = row
	}
	return frame.New(high.Dates(), high.Symbols(), values)
}
