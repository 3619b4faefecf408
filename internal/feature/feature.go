// Package feature derives per-sample scalars from raw posture sensor
// samples: a sliding-window movement score from the accelerometer, and the
// two-dimensional posture feature set consumed by the histogram package.
package feature

import (
	"errors"
	"fmt"
	"math"
	"runtime"
)

const (
	// DefaultMovementWindow is the sliding-window width of the movement
	// score, 30 samples at the 1 Hz sample cadence.
	DefaultMovementWindow = 30

	// movementNorm scales window-averaged acceleration deltas onto the
	// calibrated score range.
	movementNorm = 8.0

	// The posture aggregate sums the leading angle values; the pitch term
	// reads the trailing coordinate pair. Both counts are calibrated
	// convention, matched to the angle vectors the geometry stage emits.
	postureAngleCount = 9
	tailCoordCount    = 2
)

var (
	// ErrLengthMismatch reports parallel input sequences of different
	// lengths.
	ErrLengthMismatch = errors.New("feature: input lengths differ")

	// ErrShortAngles reports a per-sample angle vector with too few values
	// for the posture aggregate.
	ErrShortAngles = errors.New("feature: angle vector too short")
)

// Accel is one accelerometer sample in raw integer counts.
type Accel struct {
	X int
	Y int
	Z int
}

// AccelFromColumns assembles accelerometer samples from three parallel
// numeric columns, truncating toward zero.
func AccelFromColumns(x, y, z []float64) ([]Accel, error) {
	if len(y) != len(x) || len(z) != len(x) {
		return nil, fmt.Errorf("%w: x=%d y=%d z=%d", ErrLengthMismatch, len(x), len(y), len(z))
	}
	out := make([]Accel, len(x))
	for i := range x {
		out[i] = Accel{X: int(x[i]), Y: int(y[i]), Z: int(z[i])}
	}
	return out, nil
}

// Deriver computes derived features, fanning per-sample work out across a
// fixed pool of workers.
type Deriver struct {
	workers int
}

// NewDeriver returns a Deriver with the given worker count; values <= 0
// select one worker per CPU.
func NewDeriver(workers int) *Deriver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Deriver{workers: workers}
}

// MovementScore converts raw acceleration into a per-sample activity level.
// Each consecutive sample pair contributes the sum of its per-axis absolute
// differences; the score at index i averages the last window contributions
// and scales by the fixed normalization constant. The first window outputs
// are exactly 0.0: no full window exists there. Output length equals input
// length.
//
// window < 1 is a caller bug and panics.
func (d *Deriver) MovementScore(acc []Accel, window int) []float64 {
	if window < 1 {
		panic(fmt.Sprintf("feature: movement window %d < 1", window))
	}
	out := make([]float64, len(acc))
	if len(acc) < 2 {
		return out
	}

	// prefix[i] accumulates the difference magnitudes up to sample i, so
	// any window sum is a single subtraction.
	prefix := make([]float64, len(acc))
	for i := 1; i < len(acc); i++ {
		step := absInt(acc[i].X-acc[i-1].X) +
			absInt(acc[i].Y-acc[i-1].Y) +
			absInt(acc[i].Z-acc[i-1].Z)
		prefix[i] = prefix[i-1] + float64(step)
	}

	div := float64(window) * movementNorm
	d.run(len(acc), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			if i < window {
				continue
			}
			out[i] = (prefix[i] - prefix[i-window]) / div
		}
	})
	return out
}

// PostureFeatures derives the two histogram inputs for every sample: the
// sum of the first 9 joint-angle values, and a pitch-like scalar combining
// the acceleration vector's self-orientation with 1.5 times the arctangent
// of the last two angle coordinates. Both formulas encode a calibrated
// scoring convention and are reproduced literally.
//
// angles and acc must have equal length, and every angle vector needs at
// least 11 values: the 9 summed angles plus the trailing coordinate pair.
func (d *Deriver) PostureFeatures(angles [][]float64, acc []Accel) (sum9, pitch []float64, err error) {
	if len(angles) != len(acc) {
		return nil, nil, fmt.Errorf("%w: %d angle rows vs %d samples",
			ErrLengthMismatch, len(angles), len(acc))
	}
	for i, a := range angles {
		if len(a) < postureAngleCount+tailCoordCount {
			return nil, nil, fmt.Errorf("%w: sample %d has %d values, need %d",
				ErrShortAngles, i, len(a), postureAngleCount+tailCoordCount)
		}
	}

	sum9 = make([]float64, len(angles))
	pitch = make([]float64, len(angles))
	d.run(len(angles), func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a := angles[i]
			s := 0.0
			for _, v := range a[:postureAngleCount] {
				s += v
			}
			sum9[i] = s

			m := len(a)
			pitch[i] = math.Atan2(-float64(acc[i].X), -float64(acc[i].Z)) -
				1.5*math.Atan2(a[m-1], a[m-2])
		}
	})
	return sum9, pitch, nil
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
