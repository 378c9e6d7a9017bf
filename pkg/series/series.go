// Package series holds the time-indexed table the generator works on and
// the transformation stages applied to it.
//
// Every stage takes a *Frame and returns a new *Frame; inputs are never
// modified. Unresolved cells are NaN.
package series

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Frame is a table of float64 sensor values indexed by timestamp.
//
// Rows[i] holds the values at Index[i], one per entry of Columns.
type Frame struct {
	Index   []time.Time
	Columns []string
	Rows    [][]float64
}

// NewFrame creates a frame, checking that the shape is consistent.
func NewFrame(index []time.Time, columns []string, rows [][]float64) (*Frame, error) {
	if len(index) != len(rows) {
		return nil, errors.Errorf("index has %d entries but there are %d rows", len(index), len(rows))
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, errors.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
	}

	return &Frame{Index: index, Columns: columns, Rows: rows}, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Index)
}

// Shape returns row and column counts.
func (f *Frame) Shape() (int, int) {
	return len(f.Rows), len(f.Columns)
}

// First returns the first timestamp. The frame must not be empty.
func (f *Frame) First() time.Time {
	return f.Index[0]
}

// Last returns the last timestamp. The frame must not be empty.
func (f *Frame) Last() time.Time {
	return f.Index[len(f.Index)-1]
}

// Col returns a copy of the named column, or nil if there is no such column.
func (f *Frame) Col(name string) []float64 {
	for j, c := range f.Columns {
		if c != name {
			continue
		}
		out := make([]float64, len(f.Rows))
		for i, row := range f.Rows {
			out[i] = row[j]
		}
		return out
	}
	return nil
}

// SizeBytes approximates the in-memory payload: one 8 byte timestamp and
// one 8 byte float per cell.
func (f *Frame) SizeBytes() int64 {
	rows, cols := f.Shape()
	return int64(rows) * int64(cols+1) * 8
}

// Equal reports whether two frames hold the same index, columns and
// bit-identical values (NaN equals NaN).
func (f *Frame) Equal(other *Frame) bool {
	if f.Len() != other.Len() || len(f.Columns) != len(other.Columns) {
		return false
	}
	for j := range f.Columns {
		if f.Columns[j] != other.Columns[j] {
			return false
		}
	}
	for i := range f.Index {
		if !f.Index[i].Equal(other.Index[i]) {
			return false
		}
		for j := range f.Rows[i] {
			if math.Float64bits(f.Rows[i][j]) != math.Float64bits(other.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// copyRow returns a fresh copy of a row.
func copyRow(row []float64) []float64 {
	out := make([]float64, len(row))
	copy(out, row)
	return out
}

// nanRow returns a row of n unresolved values.
func nanRow(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
