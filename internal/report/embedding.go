package report

import (
	"math"

	"github.com/pgvector/pgvector-go"

	"github.com/mvirta/postura-platform/internal/histogram"
)

// DefaultVectorDim is the width of the stored posture vector. 64 covers an
// 8x8 two-dimensional histogram exactly.
const DefaultVectorDim = 64

// HistogramVector flattens histogram baskets into a fixed-width vector for
// similarity search. Basket counts beyond dims are truncated, missing ones
// are zero-padded, and the result is normalized to unit length so cosine
// distance compares shape rather than sample volume. dims <= 0 selects
// DefaultVectorDim.
func HistogramVector(h *histogram.Histogram, dims int) pgvector.Vector {
	if dims <= 0 {
		dims = DefaultVectorDim
	}

	vec := make([]float32, dims)
	for i, count := range h.Baskets() {
		if i >= dims {
			break
		}
		vec[i] = float32(count)
	}
	return pgvector.NewVector(normalize(vec))
}

// normalize converts the vector to unit length. An all-zero vector is
// returned unchanged.
func normalize(vec []float32) []float32 {
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)

	if norm == 0 {
		return vec
	}

	normalized := make([]float32, len(vec))
	for i, v := range vec {
		normalized[i] = float32(float64(v) / norm)
	}
	return normalized
}
