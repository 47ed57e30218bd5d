// Package frame provides date-indexed, symbol-columned float tables.
//
// A Frame is the fully materialized form of the tabular inputs and
// outputs of a backtest run: rows are trade dates (strictly increasing,
// unique), columns are symbols (sorted, unique), cells are float64 with
// NaN meaning "no value".
package frame

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var (
	ErrEmptyFrame       = errors.New("frame must not be empty")
	ErrShapeMismatch    = errors.New("frame values shape does not match index")
	ErrDatesNotOrdered  = errors.New("frame dates must be unique and strictly increasing")
	ErrDuplicateSymbol  = errors.New("frame symbols must be unique")
	ErrSymbolNotFound   = errors.New("symbol not found in frame")
	ErrIndexOutOfRange  = errors.New("row index out of range")
	ErrFramesNotAligned = errors.New("frames are not aligned")
)

// Frame is an immutable date-by-symbol table of float values.
type Frame struct {
	dates   []time.Time
	symbols []string
	colIdx  map[string]int
	values  [][]float64 // values[row][col]
}

// New builds a Frame from dates, symbols and row-major values.
// Columns are sorted by symbol; values are reordered accordingly.
func New(dates []time.Time, symbols []string, values [][]float64) (*Frame, error) {
	if len(dates) == 0 || len(symbols) == 0 {
		return nil, ErrEmptyFrame
	}
	if len(values) != len(dates) {
		return nil, fmt.Errorf("%w: %d rows for %d dates", ErrShapeMismatch, len(values), len(dates))
	}
	for i, row := range values {
		if len(row) != len(symbols) {
			return nil, fmt.Errorf("%w: row %d has %d values for %d symbols", ErrShapeMismatch, i, len(row), len(symbols))
		}
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, fmt.Errorf("%w: %s then %s",
				ErrDatesNotOrdered, dates[i-1].Format("2006-01-02"), dates[i].Format("2006-01-02"))
		}
	}

	// Sort columns by symbol, keeping cells attached to their column.
	order := make([]int, len(symbols))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return symbols[order[a]] < symbols[order[b]] })

	sortedSymbols := make([]string, len(symbols))
	colIdx := make(map[string]int, len(symbols))
	for i, o := range order {
		sortedSymbols[i] = symbols[o]
		if _, dup := colIdx[symbols[o]]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateSymbol, symbols[o])
		}
		colIdx[symbols[o]] = i
	}

	sortedValues := make([][]float64, len(values))
	for r, row := range values {
		sorted := make([]float64, len(row))
		for i, o := range order {
			sorted[i] = row[o]
		}
		sortedValues[r] = sorted
	}

	f := &Frame{
		dates:   append([]time.Time(nil), dates...),
		symbols: sortedSymbols,
		colIdx:  colIdx,
		values:  sortedValues,
	}
	return f, nil
}

// NumRows returns the number of dates.
func (f *Frame) NumRows() int { return len(f.dates) }

// Dates returns the date index. The returned slice must not be modified.
func (f *Frame) Dates() []time.Time { return f.dates }

// Symbols returns the sorted column symbols. Must not be modified.
func (f *Frame) Symbols() []string { return f.symbols }

// Date returns the date of row i.
func (f *Frame) Date(i int) time.Time { return f.dates[i] }

// Row returns the values of row i, keyed by symbol.
func (f *Frame) Row(i int) map[string]float64 {
	out := make(map[string]float64, len(f.symbols))
	for c, sym := range f.symbols {
		out[sym] = f.values[i][c]
	}
	return out
}

// HasSymbol reports whether the frame carries a column for symbol.
func (f *Frame) HasSymbol(symbol string) bool {
	_, ok := f.colIdx[symbol]
	return ok
}

// At returns the value at row i for the given symbol. A symbol not in
// the frame reads as NaN.
func (f *Frame) At(i int, symbol string) float64 {
	c, ok := f.colIdx[symbol]
	if !ok {
		return math.NaN()
	}
	return f.values[i][c]
}

// Slice returns a new Frame containing rows [from, to).
func (f *Frame) Slice(from, to int) (*Frame, error) {
	if from < 0 || to > len(f.dates) || from >= to {
		return nil, ErrIndexOutOfRange
	}
	return New(f.dates[from:to], f.symbols, f.values[from:to])
}

// Reindex returns a new Frame on the given dates. Rows present in f are
// copied; missing dates become all-NaN rows.
func (f *Frame) Reindex(dates []time.Time) (*Frame, error) {
	byDate := make(map[int64]int, len(f.dates))
	for i, d := range f.dates {
		byDate[d.UnixNano()] = i
	}
	values := make([][]float64, len(dates))
	for i, d := range dates {
		row := make([]float64, len(f.symbols))
		if src, ok := byDate[d.UnixNano()]; ok {
			copy(row, f.values[src])
		} else {
			for c := range row {
				row[c] = math.NaN()
			}
		}
		values[i] = row
	}
	return New(dates, f.symbols, values)
}

// Shift returns a new Frame with values moved down by n rows. The
// first n rows become all-NaN; the last n rows of values drop off.
func (f *Frame) Shift(n int) (*Frame, error) {
	if n < 0 {
		return nil, fmt.Errorf("shift must not be negative: %d", n)
	}
	values := make([][]float64, len(f.dates))
	for i := range values {
		row := make([]float64, len(f.symbols))
		if i >= n {
			copy(row, f.values[i-n])
		} else {
			for c := range row {
				row[c] = math.NaN()
			}
		}
		values[i] = row
	}
	return New(f.dates, f.symbols, values)
}

// SameIndex reports whether two frames share the same dates and symbols.
func (f *Frame) SameIndex(other *Frame) bool {
	if len(f.dates) != len(other.dates) || len(f.symbols) != len(other.symbols) {
		return false
	}
	for i := range f.dates {
		if !f.dates[i].Equal(other.dates[i]) {
			return false
		}
	}
	for i := range f.symbols {
		if f.symbols[i] != other.symbols[i] {
			return false
		}
	}
	return true
}

// CheckAligned returns an error unless other covers the same dates and
// symbols as f.
func (f *Frame) CheckAligned(other *Frame) error {
	if !f.SameIndex(other) {
		return ErrFramesNotAligned
	}
	return nil
}

// Series is a date-indexed float series.
type Series struct {
	Dates  []time.Time
	Values []float64
}

// Append adds one observation to the series.
func (s *Series) Append(date time.Time, value float64) {
	s.Dates = append(s.Dates, date)
	s.Values = append(s.Values, value)
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Dates) }

// At returns the i-th value.
func (s *Series) At(i int) float64 { return s.Values[i] }
