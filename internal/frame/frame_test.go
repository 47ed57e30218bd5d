package frame

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(n int) time.Time {
	return time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = day(i)
	}
	return out
}

func mustFrame(t *testing.T, dates []time.Time, symbols []string, values [][]float64) *Frame {
	t.Helper()
	f, err := New(dates, symbols, values)
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func TestNewValidation(t *testing.T) {
	d := days(2)

	tests := []struct {
		name    string
		dates   []time.Time
		symbols []string
		values  [][]float64
		want    error
	}{
		{"no dates", nil, []string{"AAA"}, nil, ErrEmptyFrame},
		{"no symbols", d, nil, [][]float64{{}, {}}, ErrEmptyFrame},
		{"row count", d, []string{"AAA"}, [][]float64{{1}}, ErrShapeMismatch},
		{"row width", d, []string{"AAA"}, [][]float64{{1, 2}, {1}}, ErrShapeMismatch},
		{"duplicate date", []time.Time{day(0), day(0)}, []string{"AAA"}, [][]float64{{1}, {1}}, ErrDatesNotOrdered},
		{"descending dates", []time.Time{day(1), day(0)}, []string{"AAA"}, [][]float64{{1}, {1}}, ErrDatesNotOrdered},
		{"duplicate symbol", d, []string{"AAA", "AAA"}, [][]float64{{1, 2}, {3, 4}}, ErrDuplicateSymbol},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(tc.dates, tc.symbols, tc.values); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestNewSortsColumns(t *testing.T) {
	f := mustFrame(t, days(1), []string{"BBB", "AAA"}, [][]float64{{2, 1}})

	got := f.Symbols()
	if got[0] != "AAA" || got[1] != "BBB" {
		t.Fatalf("symbols not sorted: %v", got)
	}
	if f.At(0, "AAA") != 1 || f.At(0, "BBB") != 2 {
		t.Errorf("cells did not follow their columns: AAA=%v BBB=%v", f.At(0, "AAA"), f.At(0, "BBB"))
	}
}

func TestAtUnknownSymbolIsNaN(t *testing.T) {
	f := mustFrame(t, days(1), []string{"AAA"}, [][]float64{{1}})
	if !math.IsNaN(f.At(0, "ZZZ")) {
		t.Errorf("At unknown symbol = %v, want NaN", f.At(0, "ZZZ"))
	}
}

func TestRow(t *testing.T) {
	f := mustFrame(t, days(2), []string{"AAA", "BBB"}, [][]float64{{1, 2}, {3, 4}})
	row := f.Row(1)
	if row["AAA"] != 3 || row["BBB"] != 4 {
		t.Errorf("Row(1) = %v", row)
	}
}

func TestSlice(t *testing.T) {
	f := mustFrame(t, days(3), []string{"AAA"}, [][]float64{{1}, {2}, {3}})

	s, err := f.Slice(1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if s.NumRows() != 2 || s.At(0, "AAA") != 2 || s.At(1, "AAA") != 3 {
		t.Errorf("Slice(1,3) rows: %d, values %v %v", s.NumRows(), s.At(0, "AAA"), s.At(1, "AAA"))
	}
	if !s.Date(0).Equal(day(1)) {
		t.Errorf("Slice(1,3) first date = %v", s.Date(0))
	}

	for _, bad := range [][2]int{{-1, 2}, {0, 4}, {2, 2}, {2, 1}} {
		if _, err := f.Slice(bad[0], bad[1]); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Slice(%d,%d) = %v, want ErrIndexOutOfRange", bad[0], bad[1], err)
		}
	}
}

func TestReindex(t *testing.T) {
	f := mustFrame(t, []time.Time{day(0), day(2)}, []string{"AAA"}, [][]float64{{1}, {3}})

	r, err := f.Reindex(days(3))
	if err != nil {
		t.Fatal(err)
	}
	if r.At(0, "AAA") != 1 || r.At(2, "AAA") != 3 {
		t.Errorf("copied rows wrong: %v %v", r.At(0, "AAA"), r.At(2, "AAA"))
	}
	if !math.IsNaN(r.At(1, "AAA")) {
		t.Errorf("missing date should be NaN, got %v", r.At(1, "AAA"))
	}
}

func TestShift(t *testing.T) {
	f := mustFrame(t, days(3), []string{"AAA"}, [][]float64{{1}, {2}, {3}})

	s, err := f.Shift(1)
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsNaN(s.At(0, "AAA")) {
		t.Errorf("row 0 should be NaN after shift, got %v", s.At(0, "AAA"))
	}
	if s.At(1, "AAA") != 1 || s.At(2, "AAA") != 2 {
		t.Errorf("shifted values wrong: %v %v", s.At(1, "AAA"), s.At(2, "AAA"))
	}

	if _, err := f.Shift(-1); err == nil {
		t.Error("expected error for negative shift")
	}

	zero, err := f.Shift(0)
	if err != nil {
		t.Fatal(err)
	}
	if zero.At(0, "AAA") != 1 {
		t.Errorf("Shift(0) should copy values, got %v", zero.At(0, "AAA"))
	}
}

func TestCheckAligned(t *testing.T) {
	a := mustFrame(t, days(2), []string{"AAA"}, [][]float64{{1}, {2}})
	b := mustFrame(t, days(2), []string{"AAA"}, [][]float64{{9}, {9}})
	if err := a.CheckAligned(b); err != nil {
		t.Errorf("aligned frames rejected: %v", err)
	}

	c := mustFrame(t, days(3), []string{"AAA"}, [][]float64{{1}, {2}, {3}})
	if err := a.CheckAligned(c); !errors.Is(err, ErrFramesNotAligned) {
		t.Errorf("date mismatch accepted: %v", err)
	}

	d := mustFrame(t, days(2), []string{"BBB"}, [][]float64{{1}, {2}})
	if err := a.CheckAligned(d); !errors.Is(err, ErrFramesNotAligned) {
		t.Errorf("symbol mismatch accepted: %v", err)
	}
}

func TestSeries(t *testing.T) {
	var s Series
	if s.Len() != 0 {
		t.Fatalf("empty series Len = %d", s.Len())
	}
	s.Append(day(0), 100)
	s.Append(day(1), 200)
	if s.Len() != 2 || s.At(0) != 100 || s.At(1) != 200 {
		t.Errorf("series contents wrong: %+v", s)
	}
}
