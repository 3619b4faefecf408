// Package histogram bins parallel feature columns into an n-dimensional
// grid. A histogram is built once and immutable afterwards; construction is
// the only state transition.
package histogram

import (
	"fmt"
	"math"
	"runtime"
	"strings"
	"sync"
)

// Binning is parallelized above this many samples.
const parallelThreshold = 4096

// Guard for float→int coordinate conversion. Coordinates beyond this always
// flatten outside the grid, so they can be dropped before converting.
const maxCoord = float64(1 << 40)

// Limit overrides the observed value range of one dimension.
type Limit struct {
	Min float64
	Max float64
}

// Histogram is an n-dimensional count grid over D feature columns. The flat
// basket layout uses mixed-radix indexing with the per-dimension bin count
// as radix and dimension 0 as the most significant digit.
type Histogram struct {
	baskets []int
	borders [][]float64
	bins    int
	count   int
	dropped int
}

// New bins the given columns into bins^len(cols) baskets. Each cols[d] is
// one dimension; all columns must have equal length. limits may be nil, in
// which case every dimension uses its observed min and max; when non-nil it
// must carry exactly one entry per column.
//
// Empty input (no columns, or an empty first column) yields the canonical
// empty histogram. Violated preconditions (ragged columns, a limits count
// that does not match the dimensions, bins < 1) are caller bugs and panic.
//
// Samples whose flattened index falls outside the grid (possible when
// explicit limits exclude part of the data, or from floating-point effects
// at the upper border) are dropped, not counted; Dropped reports how many.
func New(cols [][]float64, bins int, limits []Limit) *Histogram {
	if len(cols) == 0 || len(cols[0]) == 0 {
		return &Histogram{}
	}

	rows := len(cols[0])
	for d, col := range cols {
		if len(col) != rows {
			panic(fmt.Sprintf("histogram: column %d has %d rows, column 0 has %d", d, len(col), rows))
		}
	}
	if limits != nil && len(limits) != len(cols) {
		panic(fmt.Sprintf("histogram: %d limits for %d dimensions", len(limits), len(cols)))
	}
	if bins < 1 {
		panic(fmt.Sprintf("histogram: bins must be positive, got %d", bins))
	}

	dim := len(cols)
	borders := make([][]float64, dim)
	lows := make([]float64, dim)
	deltas := make([]float64, dim)
	for d, col := range cols {
		lo, hi := extrema(col)
		if limits != nil {
			lo, hi = limits[d].Min, limits[d].Max
		}
		borders[d] = edges(lo, hi, bins)
		lows[d] = borders[d][0]
		// Guard against a zero-width range: the epsilon keeps the top
		// border inside the last bin, the floor keeps the division sane.
		deltas[d] = math.Max(1e-8+borders[d][bins]-borders[d][0], 1e-6)
	}

	total := 1
	for d := 0; d < dim; d++ {
		total *= bins
	}

	h := &Histogram{borders: borders, bins: bins, count: rows}
	h.baskets, h.dropped = bin(cols, lows, deltas, bins, total, rows)
	return h
}

// bin counts samples into a flat basket array. Large inputs are split into
// contiguous chunks binned by a fixed pool of workers into per-worker
// partial arrays merged by addition, so the result is deterministic.
func bin(cols [][]float64, lows, deltas []float64, bins, total, rows int) (baskets []int, dropped int) {
	workers := runtime.NumCPU()
	if rows < parallelThreshold || workers < 2 {
		return binRange(cols, lows, deltas, bins, total, 0, rows)
	}
	if workers > rows {
		workers = rows
	}

	partials := make([][]int, workers)
	drops := make([]int, workers)
	chunk := (rows + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > rows {
			hi = rows
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			partials[w], drops[w] = binRange(cols, lows, deltas, bins, total, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	baskets = make([]int, total)
	for w := range partials {
		if partials[w] == nil {
			continue
		}
		for i, c := range partials[w] {
			baskets[i] += c
		}
		dropped += drops[w]
	}
	return baskets, dropped
}

func binRange(cols [][]float64, lows, deltas []float64, bins, total, lo, hi int) ([]int, int) {
	baskets := make([]int, total)
	dropped := 0

	for i := lo; i < hi; i++ {
		index := 0
		ok := true
		for d := range cols {
			c := math.Floor(((cols[d][i] - lows[d]) / deltas[d]) * float64(bins))
			if math.IsNaN(c) || c < -maxCoord || c > maxCoord {
				ok = false
				break
			}
			index = index*bins + int(c)
		}
		if !ok || index < 0 || index >= total {
			dropped++
			continue
		}
		baskets[index]++
	}
	return baskets, dropped
}

// edges generates the n+1 equally spaced bin edges over [lo, hi].
func edges(lo, hi float64, n int) []float64 {
	out := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		out[i] = lo + (hi-lo)/float64(n)*float64(i)
	}
	return out
}

func extrema(col []float64) (lo, hi float64) {
	lo, hi = col[0], col[0]
	for _, v := range col[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Dim returns the number of dimensions, 0 for the empty histogram.
func (h *Histogram) Dim() int {
	return len(h.borders)
}

// Bins returns the bins per dimension, 0 for the empty histogram.
func (h *Histogram) Bins() int {
	return h.bins
}

// Baskets returns the flat count grid. Callers must not modify the returned
// slice.
func (h *Histogram) Baskets() []int {
	return h.baskets
}

// Borders returns the bin edges per dimension, each holding Bins()+1 values.
// Callers must not modify the returned slices.
func (h *Histogram) Borders() [][]float64 {
	return h.borders
}

// Count returns the number of samples offered for binning, dropped ones
// included.
func (h *Histogram) Count() int {
	return h.count
}

// Dropped returns how many samples fell outside the grid.
func (h *Histogram) Dropped() int {
	return h.dropped
}

// String renders the baskets row-major, one line per group of the last
// dimension's bins.
func (h *Histogram) String() string {
	if len(h.baskets) == 0 {
		return "histogram(empty)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "histogram(dim=%d bins=%d)\n", h.Dim(), h.bins)
	for i := 0; i < len(h.baskets); i += h.bins {
		for j := i; j < i+h.bins; j++ {
			if j > i {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%d", h.baskets[j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
