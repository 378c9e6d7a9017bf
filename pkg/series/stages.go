package series

import (
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/ppanyukov/wwtp-data-gen/pkg/randval"
)

// Regularize reindexes f onto a uniform grid with the given step, from the
// first to the last timestamp inclusive. Grid points matching a timestamp
// of f take its values; all other points are unresolved. Timestamps of f
// which do not fall on the grid are dropped.
//
// f must be sorted ascending without duplicates.
func Regularize(f *Frame, step time.Duration) (*Frame, error) {
	if step <= 0 {
		return nil, errors.Errorf("grid step must be positive, got %s", step)
	}
	if f.Len() == 0 {
		return nil, errors.New("cannot regularize an empty frame")
	}

	known := make(map[int64][]float64, f.Len())
	for i, ts := range f.Index {
		known[ts.UnixNano()] = f.Rows[i]
	}

	span := f.Last().Sub(f.First())
	n := int(span/step) + 1

	index := make([]time.Time, 0, n)
	rows := make([][]float64, 0, n)
	for t := f.First(); !t.After(f.Last()); t = t.Add(step) {
		index = append(index, t)
		if row, ok := known[t.UnixNano()]; ok {
			rows = append(rows, copyRow(row))
		} else {
			rows = append(rows, nanRow(len(f.Columns)))
		}
	}

	return &Frame{Index: index, Columns: f.Columns, Rows: rows}, nil
}

// ForwardFill resolves each NaN cell to the nearest earlier resolved value
// in the same column. Cells before a column's first resolved value stay NaN.
func ForwardFill(f *Frame) *Frame {
	last := nanRow(len(f.Columns))
	rows := make([][]float64, f.Len())

	for i, row := range f.Rows {
		out := copyRow(row)
		for j, v := range out {
			if math.IsNaN(v) {
				out[j] = last[j]
			} else {
				last[j] = v
			}
		}
		rows[i] = out
	}

	return &Frame{Index: f.Index, Columns: f.Columns, Rows: rows}
}

// DropUnresolved removes every row which still holds a NaN cell.
func DropUnresolved(f *Frame) *Frame {
	var index []time.Time
	var rows [][]float64

	for i, row := range f.Rows {
		if hasNaN(row) {
			continue
		}
		index = append(index, f.Index[i])
		rows = append(rows, copyRow(row))
	}

	return &Frame{Index: index, Columns: f.Columns, Rows: rows}
}

// Perturb scales every cell by (1 + noise), drawing one noise value per cell
// in row-major order: value + value*noise.
func Perturb(f *Frame, noise randval.ValSeq) *Frame {
	rows := make([][]float64, f.Len())

	for i, row := range f.Rows {
		out := make([]float64, len(row))
		for j, v := range row {
			out[j] = v + v*noise.Next()
		}
		rows[i] = out
	}

	return &Frame{Index: f.Index, Columns: f.Columns, Rows: rows}
}

// WindowLastMonth keeps the rows whose timestamp falls in the month of the
// last timestamp, in order. Only the month number is compared unless
// matchYear is set, so with matchYear unset the same month of earlier years
// is kept too.
func WindowLastMonth(f *Frame, matchYear bool) (*Frame, error) {
	if f.Len() == 0 {
		return nil, errors.New("cannot window an empty frame")
	}

	lastYear, lastMonth, _ := f.Last().Date()

	var index []time.Time
	var rows [][]float64
	for i, ts := range f.Index {
		y, m, _ := ts.Date()
		if m != lastMonth || (matchYear && y != lastYear) {
			continue
		}
		index = append(index, ts)
		rows = append(rows, copyRow(f.Rows[i]))
	}

	return &Frame{Index: index, Columns: f.Columns, Rows: rows}, nil
}

// Relabel replaces the index with start, start+step, start+2*step, ...
// keeping rows and values as they are.
func Relabel(f *Frame, start time.Time, step time.Duration) (*Frame, error) {
	if step <= 0 {
		return nil, errors.Errorf("relabel step must be positive, got %s", step)
	}

	index := make([]time.Time, f.Len())
	rows := make([][]float64, f.Len())
	for i := range f.Rows {
		index[i] = start.Add(time.Duration(i) * step)
		rows[i] = copyRow(f.Rows[i])
	}

	return &Frame{Index: index, Columns: f.Columns, Rows: rows}, nil
}

func hasNaN(row []float64) bool {
	for _, v := range row {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}
