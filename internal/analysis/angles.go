package analysis

import "math"

// AngleSource provides the per-sample angle vectors consumed by posture
// feature derivation. Calibration geometry converts strip resistance
// into bend angles outside this system; the pipeline only needs the
// resulting vectors.
type AngleSource interface {
	// Angles returns the angle vector for row i: at least 11 values,
	// nine segment bend angles followed by the two axis coordinates.
	Angles(i int) []float64
}

// AngleProvider builds an AngleSource for one day's sensor rows.
type AngleProvider func(left, right [][]float64) AngleSource

// angleScale maps raw resistance counts onto radians. Reference value
// only; calibrated devices ship their own geometry.
const angleScale = math.Pi / 1024

// LinearAngles approximates bend angles as proportional to strip
// resistance. It stands in for device calibration in tests and the
// e2e harness.
type LinearAngles struct {
	left, right [][]float64
}

// NewLinearAngles builds a resistance-proportional angle source over
// row-major sensor readings. Both sides must have the same shape.
func NewLinearAngles(left, right [][]float64) *LinearAngles {
	return &LinearAngles{left: left, right: right}
}

// LinearProvider adapts NewLinearAngles to the AngleProvider signature.
func LinearProvider(left, right [][]float64) AngleSource {
	return NewLinearAngles(left, right)
}

// Angles maps the row's readings onto nine evenly spread segment angles
// plus two axis coordinates: lateral imbalance and overall bend.
func (l *LinearAngles) Angles(i int) []float64 {
	left, right := l.left[i], l.right[i]
	n := len(left)

	out := make([]float64, 11)
	if n == 0 {
		return out
	}

	for j := 0; j < 9; j++ {
		idx := j * n / 9
		if idx >= n {
			idx = n - 1
		}
		out[j] = (left[idx] + right[idx]) / 2 * angleScale
	}

	var lsum, rsum float64
	for k := 0; k < n; k++ {
		lsum += left[k]
		rsum += right[k]
	}
	out[9] = (lsum - rsum) / float64(n) * angleScale
	out[10] = (lsum + rsum) / (2 * float64(n)) * angleScale

	return out
}
