// Package data reads the materialized backtest inputs from CSV matrix
// files and writes the run outputs back out. A matrix file has a
// "date" header column followed by one column per symbol; an empty
// cell is NaN.
package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"set-backtester/internal/backtest"
	"set-backtester/internal/frame"
)

const dateLayout = "2006-01-02"

var ErrMalformedMatrix = errors.New("malformed matrix csv")

// ReadFrame loads one date-by-symbol matrix CSV into a Frame.
func ReadFrame(path string) (*frame.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) < 2 || len(records[0]) < 2 {
		return nil, fmt.Errorf("%w: %s needs a header and at least one row", ErrMalformedMatrix, path)
	}

	symbols := records[0][1:]
	dates := make([]time.Time, 0, len(records)-1)
	values := make([][]float64, 0, len(records)-1)
	for i, rec := range records[1:] {
		d, err := time.Parse(dateLayout, rec[0])
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %v", ErrMalformedMatrix, path, i+1, err)
		}
		row := make([]float64, len(symbols))
		for c, cell := range rec[1:] {
			if cell == "" {
				row[c] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s row %d col %s: %v", ErrMalformedMatrix, path, i+1, symbols[c], err)
			}
			row[c] = v
		}
		dates = append(dates, d)
		values = append(values, row)
	}

	return frame.New(dates, symbols, values)
}

// WriteCashSeries writes the end-of-bar cash series.
func WriteCashSeries(s frame.Series, path string) error {
	rows := [][]string{{"timestamp", "cash"}}
	for i := 0; i < s.Len(); i++ {
		rows = append(rows, []string{s.Dates[i].Format(dateLayout), formatF(s.Values[i])})
	}
	return writeRows(path, rows)
}

// WritePositions writes the per-bar open position snapshots.
func WritePositions(positions []backtest.PositionSnapshot, path string) error {
	rows := [][]string{{"timestamp", "symbol", "volume", "cost_price", "close_price"}}
	for _, p := range positions {
		rows = append(rows, []string{
			p.Timestamp.Format(dateLayout), p.Symbol,
			formatF(p.Volume), formatF(p.CostPrice), formatF(p.ClosePrice),
		})
	}
	return writeRows(path, rows)
}

// WriteTrades writes the trade log in execution order.
func WriteTrades(trades []backtest.Trade, path string) error {
	rows := [][]string{{"matched_at", "symbol", "volume", "price", "pct_commission"}}
	for _, t := range trades {
		rows = append(rows, []string{
			t.MatchedAt.Format(dateLayout), t.Symbol,
			formatF(t.Volume), formatF(t.Price), formatF(t.PctCommission),
		})
	}
	return writeRows(path, rows)
}

// writeRows writes a CSV file and surfaces write errors: a short write
// swallowed here would report a truncated output file as success.
func writeRows(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func formatF(f float64) string {
	if math.IsNaN(f) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
