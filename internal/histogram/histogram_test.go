package histogram

import (
	"math"
	"reflect"
	"testing"
)

func TestEmptyInput(t *testing.T) {
	tests := []struct {
		name string
		cols [][]float64
	}{
		{"no columns", nil},
		{"empty first column", [][]float64{{}, {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(tt.cols, 10, nil)
			if h.Dim() != 0 {
				t.Errorf("Dim = %d, want 0", h.Dim())
			}
			if h.Bins() != 0 {
				t.Errorf("Bins = %d, want 0", h.Bins())
			}
			if len(h.Baskets()) != 0 {
				t.Errorf("Baskets = %v, want empty", h.Baskets())
			}
			if len(h.Borders()) != 0 {
				t.Errorf("Borders = %v, want empty", h.Borders())
			}
		})
	}
}

func TestDiagonal2D(t *testing.T) {
	col := []float64{1, 2, 3}
	h := New([][]float64{col, col}, 3, nil)

	if h.Dim() != 2 || h.Bins() != 3 {
		t.Fatalf("shape = dim %d bins %d, want 2/3", h.Dim(), h.Bins())
	}
	if len(h.Baskets()) != 9 {
		t.Fatalf("expected 9 baskets, got %d", len(h.Baskets()))
	}

	// Each sample lands on its own diagonal cell.
	for i, want := range []int{1, 0, 0, 0, 1, 0, 0, 0, 1} {
		if h.Baskets()[i] != want {
			t.Errorf("basket %d = %d, want %d", i, h.Baskets()[i], want)
		}
	}

	// Borders are 4 evenly spaced edges across [1, 3] per dimension.
	for d := 0; d < 2; d++ {
		edges := h.Borders()[d]
		if len(edges) != 4 {
			t.Fatalf("dimension %d has %d edges, want 4", d, len(edges))
		}
		for i, want := range []float64{1, 1 + 2.0/3, 1 + 4.0/3, 3} {
			if math.Abs(edges[i]-want) > 1e-9 {
				t.Errorf("edge[%d] = %v, want %v", i, edges[i], want)
			}
		}
	}
}

// TestFlattenRadix pins the basket index encoding: radix is the bin count
// and dimension 0 is the most significant digit. Every coordinate of a
// 2-bin 3-dimensional grid is enumerated through samples placed in known
// bins.
func TestFlattenRadix(t *testing.T) {
	limits := []Limit{{0, 1}, {0, 1}, {0, 1}}
	low, high := 0.1, 0.9 // land in bin 0 and bin 1 of [0,1] with 2 bins

	value := func(bit int) float64 {
		if bit == 0 {
			return low
		}
		return high
	}

	var c0, c1, c2 []float64
	var wantIndex []int
	for b0 := 0; b0 < 2; b0++ {
		for b1 := 0; b1 < 2; b1++ {
			for b2 := 0; b2 < 2; b2++ {
				c0 = append(c0, value(b0))
				c1 = append(c1, value(b1))
				c2 = append(c2, value(b2))
				wantIndex = append(wantIndex, b0*4+b1*2+b2)
			}
		}
	}

	h := New([][]float64{c0, c1, c2}, 2, limits)
	if len(h.Baskets()) != 8 {
		t.Fatalf("expected 8 baskets, got %d", len(h.Baskets()))
	}

	// All eight coordinates were hit exactly once...
	for i, count := range h.Baskets() {
		if count != 1 {
			t.Errorf("basket %d = %d, want 1", i, count)
		}
	}

	// ...and a lone sample lands exactly where the encoding says.
	for i := range wantIndex {
		single := New([][]float64{{c0[i]}, {c1[i]}, {c2[i]}}, 2, limits)
		for j, count := range single.Baskets() {
			want := 0
			if j == wantIndex[i] {
				want = 1
			}
			if count != want {
				t.Errorf("sample %d: basket %d = %d, want %d", i, j, count, want)
			}
		}
	}
}

func TestPreconditionPanics(t *testing.T) {
	tests := []struct {
		name   string
		cols   [][]float64
		bins   int
		limits []Limit
	}{
		{"ragged columns", [][]float64{{1, 2}, {1}}, 3, nil},
		{"limits count mismatch", [][]float64{{1, 2}, {1, 2}}, 3, []Limit{{0, 1}}},
		{"zero bins", [][]float64{{1, 2}}, 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			New(tt.cols, tt.bins, tt.limits)
		})
	}
}

func TestExplicitLimitsDropOutliers(t *testing.T) {
	col := []float64{0.2, 0.8, 5.0, -1.0}
	h := New([][]float64{col}, 2, []Limit{{0, 1}})

	sum := 0
	for _, c := range h.Baskets() {
		sum += c
	}
	if sum != 2 {
		t.Errorf("binned %d samples, want 2", sum)
	}
	if h.Dropped() != 2 {
		t.Errorf("Dropped = %d, want 2", h.Dropped())
	}
	if h.Count() != 4 {
		t.Errorf("Count = %d, want 4", h.Count())
	}
	if sum+h.Dropped() != h.Count() {
		t.Errorf("binned %d + dropped %d != offered %d", sum, h.Dropped(), h.Count())
	}
}

func TestZeroWidthRange(t *testing.T) {
	col := []float64{5, 5, 5}
	h := New([][]float64{col}, 4, nil)

	want := []int{3, 0, 0, 0}
	if !reflect.DeepEqual(h.Baskets(), want) {
		t.Errorf("baskets = %v, want %v", h.Baskets(), want)
	}
	if h.Dropped() != 0 {
		t.Errorf("Dropped = %d, want 0", h.Dropped())
	}
}

func TestInvariants(t *testing.T) {
	// Deterministic pseudo-data, large enough to exercise the parallel
	// binning path.
	const rows = 20000
	c0 := make([]float64, rows)
	c1 := make([]float64, rows)
	for i := 0; i < rows; i++ {
		c0[i] = math.Sin(float64(i) * 0.1)
		c1[i] = math.Cos(float64(i) * 0.37)
	}

	h := New([][]float64{c0, c1}, 12, nil)

	if got, want := len(h.Baskets()), 12*12; got != want {
		t.Fatalf("baskets length %d, want bins^dim = %d", got, want)
	}

	sum := 0
	for _, c := range h.Baskets() {
		sum += c
	}
	if sum > rows {
		t.Errorf("basket sum %d exceeds sample count %d", sum, rows)
	}
	if sum+h.Dropped() != rows {
		t.Errorf("sum %d + dropped %d != %d", sum, h.Dropped(), rows)
	}

	// Building twice from identical inputs is byte-identical.
	again := New([][]float64{c0, c1}, 12, nil)
	if !reflect.DeepEqual(h.Baskets(), again.Baskets()) {
		t.Error("baskets differ between identical builds")
	}
	if !reflect.DeepEqual(h.Borders(), again.Borders()) {
		t.Error("borders differ between identical builds")
	}
}

func TestSingleDimension(t *testing.T) {
	col := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	h := New([][]float64{col}, 5, nil)

	if h.Dim() != 1 || h.Bins() != 5 {
		t.Fatalf("shape = dim %d bins %d, want 1/5", h.Dim(), h.Bins())
	}
	want := []int{2, 2, 2, 2, 2}
	if !reflect.DeepEqual(h.Baskets(), want) {
		t.Errorf("baskets = %v, want %v", h.Baskets(), want)
	}
}
