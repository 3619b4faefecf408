package frame

import (
	"errors"
	"testing"

	"github.com/mvirta/postura-platform/internal/timeline"
)

func testFrame(t *testing.T) *Frame {
	t.Helper()
	f, err := New(
		[]string{"t", "score"},
		[][]float64{{1000, 2000, 3000, 4000}, {10, 20, 30, 40}},
	)
	if err != nil {
		t.Fatalf("building test frame: %v", err)
	}
	return f
}

func TestFrameColumn(t *testing.T) {
	f := testFrame(t)

	col, err := f.Column("score")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(col) != 4 || col[2] != 30 {
		t.Errorf("unexpected score column: %v", col)
	}

	if _, err := f.Column("nope"); !errors.Is(err, ErrNoColumn) {
		t.Errorf("expected ErrNoColumn, got %v", err)
	}
}

func TestFrameFilter(t *testing.T) {
	f := testFrame(t)

	sub, err := f.Filter([]bool{true, false, true, false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.RowCount() != 2 {
		t.Fatalf("expected 2 rows, got %d", sub.RowCount())
	}
	col, err := sub.Column("t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if col[0] != 1000 || col[1] != 3000 {
		t.Errorf("unexpected filtered rows: %v", col)
	}

	// The original frame is untouched.
	if f.RowCount() != 4 {
		t.Errorf("source row count changed to %d", f.RowCount())
	}

	if _, err := f.Filter([]bool{true}); !errors.Is(err, ErrBadMask) {
		t.Errorf("expected ErrBadMask, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		cols  [][]float64
	}{
		{"length mismatch", []string{"a"}, [][]float64{{1}, {2}}},
		{"ragged columns", []string{"a", "b"}, [][]float64{{1, 2}, {3}}},
		{"duplicate name", []string{"a", "a"}, [][]float64{{1}, {2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.names, tt.cols); err == nil {
				t.Error("expected construction error")
			}
		})
	}
}

func TestBuilderSchema(t *testing.T) {
	b := NewBuilder(2)

	err := b.Append(1000, []float64{100, 200}, []float64{110, 210}, [3]int{1, 2, 3}, [3]int{4, 5, 6}, 4012)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Append(2000, []float64{101, 201}, []float64{111, 211}, [3]int{7, 8, 9}, [3]int{1, 1, 1}, 4010); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", b.Len())
	}

	f, err := b.Frame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ts, err := Timestamps(f, TimeColumn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts[0] != 1000 || ts[1] != 2000 {
		t.Errorf("unexpected timestamps: %v", ts)
	}

	for _, name := range []string{"l1", "l2", "r1", "r2", "x", "y", "z", "alpha", "beta", "gamma", "v"} {
		if _, err := f.Column(name); err != nil {
			t.Errorf("missing schema column %q: %v", name, err)
		}
	}

	if err := b.Append(3000, []float64{1}, []float64{2}, [3]int{}, [3]int{}, 0); err == nil {
		t.Error("expected sensor count mismatch error")
	}
}

func TestSensorsRowMajor(t *testing.T) {
	b := NewBuilder(3)
	if err := b.Append(1000, []float64{1, 2, 3}, []float64{4, 5, 6}, [3]int{}, [3]int{}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Append(2000, []float64{7, 8, 9}, []float64{10, 11, 12}, [3]int{}, [3]int{}, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := b.Frame()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	left, right, err := Sensors(f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(left) != 2 || len(left[0]) != 3 {
		t.Fatalf("unexpected left shape: %d rows", len(left))
	}
	if left[1][0] != 7 || right[0][2] != 6 {
		t.Errorf("row-major layout wrong: left=%v right=%v", left, right)
	}
}

var _ Source = (*Frame)(nil)

func TestTimestampsType(t *testing.T) {
	f := testFrame(t)
	ts, err := Timestamps(f, "t")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var want timeline.Timestamp = 4000
	if ts[3] != want {
		t.Errorf("timestamp conversion wrong: %v", ts[3])
	}
}
