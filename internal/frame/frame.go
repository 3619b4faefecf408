// Package frame defines the columnar telemetry contract the analysis core
// consumes, plus the in-memory implementation the platform builds from
// collected samples. The core never reads files or sockets; everything
// arrives through a Source.
package frame

import (
	"errors"
	"fmt"

	"github.com/mvirta/postura-platform/internal/timeline"
)

// TimeColumn is the canonical name of the sample timestamp column.
const TimeColumn = "t"

var (
	// ErrNoColumn reports a column name absent from the source.
	ErrNoColumn = errors.New("frame: no such column")

	// ErrBadMask reports a filter mask whose length does not match the
	// source's row count.
	ErrBadMask = errors.New("frame: mask length does not match row count")
)

// Source is the read-only columnar data provider the analysis core runs
// against. Implementations outside this package wrap whatever storage the
// deployment uses; the contract is only named columns, boolean-mask
// filtering, and a row count.
type Source interface {
	// Column returns the values of one named column. Callers must not
	// modify the returned slice.
	Column(name string) ([]float64, error)

	// Filter returns a new source with the same schema keeping exactly the
	// rows where mask is true.
	Filter(mask []bool) (Source, error)

	// RowCount returns the number of rows.
	RowCount() int
}

// Frame is the in-memory columnar Source used throughout the platform.
// Columns keep their construction order.
type Frame struct {
	names []string
	cols  [][]float64
	index map[string]int
	rows  int
}

// New builds a frame from parallel named columns. All columns must share one
// length and names must be unique.
func New(names []string, cols [][]float64) (*Frame, error) {
	if len(names) != len(cols) {
		return nil, fmt.Errorf("frame: %d names for %d columns", len(names), len(cols))
	}
	rows := 0
	if len(cols) > 0 {
		rows = len(cols[0])
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("frame: duplicate column %q", name)
		}
		if len(cols[i]) != rows {
			return nil, fmt.Errorf("frame: column %q has %d rows, expected %d", name, len(cols[i]), rows)
		}
		index[name] = i
	}
	return &Frame{names: names, cols: cols, index: index, rows: rows}, nil
}

// Column returns the values of one named column.
func (f *Frame) Column(name string) ([]float64, error) {
	i, ok := f.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoColumn, name)
	}
	return f.cols[i], nil
}

// Filter returns a new frame keeping the rows where mask is true.
func (f *Frame) Filter(mask []bool) (Source, error) {
	if len(mask) != f.rows {
		return nil, fmt.Errorf("%w: mask=%d rows=%d", ErrBadMask, len(mask), f.rows)
	}
	kept := 0
	for _, keep := range mask {
		if keep {
			kept++
		}
	}
	cols := make([][]float64, len(f.cols))
	for c := range f.cols {
		col := make([]float64, 0, kept)
		for r, keep := range mask {
			if keep {
				col = append(col, f.cols[c][r])
			}
		}
		cols[c] = col
	}
	names := make([]string, len(f.names))
	copy(names, f.names)
	out, err := New(names, cols)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RowCount returns the number of rows.
func (f *Frame) RowCount() int {
	return f.rows
}

// Names returns the column names in order. Callers must not modify the
// returned slice.
func (f *Frame) Names() []string {
	return f.names
}

// Timestamps reads a column of epoch-millisecond values as timestamps.
func Timestamps(src Source, name string) ([]timeline.Timestamp, error) {
	col, err := src.Column(name)
	if err != nil {
		return nil, fmt.Errorf("reading time column: %w", err)
	}
	out := make([]timeline.Timestamp, len(col))
	for i, v := range col {
		out[i] = timeline.Timestamp(v)
	}
	return out, nil
}
