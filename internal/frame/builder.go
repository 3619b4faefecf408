package frame

import (
	"errors"
	"fmt"

	"github.com/mvirta/postura-platform/internal/timeline"
)

// SensorNames generates the numbered column names for one sensor side,
// e.g. prefix "l" with n=3 gives l1, l2, l3.
func SensorNames(prefix string, n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return names
}

// Builder accumulates posture samples into a Frame with the canonical
// schema: t, l1..ln, r1..rn, x, y, z, alpha, beta, gamma, v.
type Builder struct {
	sensors int
	names   []string
	cols    [][]float64
}

// NewBuilder creates a builder for devices with the given number of bend
// sensors per side.
func NewBuilder(sensors int) *Builder {
	names := []string{TimeColumn}
	names = append(names, SensorNames("l", sensors)...)
	names = append(names, SensorNames("r", sensors)...)
	names = append(names, "x", "y", "z", "alpha", "beta", "gamma", "v")

	cols := make([][]float64, len(names))
	return &Builder{sensors: sensors, names: names, cols: cols}
}

// Append adds one sample. The sensor slices must match the builder's sensor
// count.
func (b *Builder) Append(t timeline.Timestamp, left, right []float64, acc, gyro [3]int, voltage int) error {
	if len(left) != b.sensors || len(right) != b.sensors {
		return fmt.Errorf("frame: sample has %d/%d sensors, builder expects %d", len(left), len(right), b.sensors)
	}

	row := make([]float64, 0, len(b.cols))
	row = append(row, float64(t))
	row = append(row, left...)
	row = append(row, right...)
	for _, a := range acc {
		row = append(row, float64(a))
	}
	for _, g := range gyro {
		row = append(row, float64(g))
	}
	row = append(row, float64(voltage))

	for i, v := range row {
		b.cols[i] = append(b.cols[i], v)
	}
	return nil
}

// Len returns the number of appended samples.
func (b *Builder) Len() int {
	return len(b.cols[0])
}

// Frame materializes the accumulated samples.
func (b *Builder) Frame() (*Frame, error) {
	return New(b.names, b.cols)
}

// Sensors reads the left and right bend-sensor columns of a source row-major:
// left[i][j] is sensor j of sample i. The sensor count is discovered by
// probing l1, l2, ... until a column is missing.
func Sensors(src Source) (left, right [][]float64, err error) {
	var leftCols, rightCols [][]float64
	for n := 1; ; n++ {
		lcol, err := src.Column(fmt.Sprintf("l%d", n))
		if errors.Is(err, ErrNoColumn) {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		rcol, err := src.Column(fmt.Sprintf("r%d", n))
		if err != nil {
			return nil, nil, fmt.Errorf("right sensor column r%d: %w", n, err)
		}
		leftCols = append(leftCols, lcol)
		rightCols = append(rightCols, rcol)
	}
	if len(leftCols) == 0 {
		return nil, nil, fmt.Errorf("%w: no sensor columns", ErrNoColumn)
	}
	return transpose(leftCols, src.RowCount()), transpose(rightCols, src.RowCount()), nil
}

func transpose(cols [][]float64, rows int) [][]float64 {
	out := make([][]float64, rows)
	for r := 0; r < rows; r++ {
		row := make([]float64, len(cols))
		for c := range cols {
			row[c] = cols[c][r]
		}
		out[r] = row
	}
	return out
}
