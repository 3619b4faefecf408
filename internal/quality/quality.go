// Package quality grades raw bend-sensor recordings. Readings outside the
// physical resistance range mean a damaged sensor or a broken connection;
// a recording with too many such rows is flagged so reporting can skip or
// annotate the day instead of scoring garbage.
package quality

import (
	"fmt"
	"math"
)

const (
	// Bend readings are raw resistance counts; beyond this magnitude the
	// value cannot come from a working sensor.
	suspectReading = 500

	// A row tolerates this many implausible readings before it counts as
	// suspect (single-sensor glitches are common and harmless).
	suspectPerRow = 2

	// Suspect-row shares above these mark the whole recording.
	badShare     = 0.02
	suspectShare = 0.01
)

// Level grades a recording.
type Level string

const (
	LevelOK      Level = "ok"
	LevelSuspect Level = "suspect"
	LevelBad     Level = "bad"
)

// Report holds the row counts behind a grade.
type Report struct {
	Rows    int
	Suspect int
}

// Assess counts suspect rows in parallel left/right bend-sensor matrices,
// row-major as returned by frame.Sensors. A row is suspect when more than
// two of its readings, both sides combined, exceed the plausible resistance
// range. Mismatched matrix lengths are a caller bug and panic.
func Assess(left, right [][]float64) Report {
	if len(left) != len(right) {
		panic(fmt.Sprintf("quality: %d left rows vs %d right rows", len(left), len(right)))
	}

	r := Report{Rows: len(left)}
	for i := range left {
		implausible := 0
		for _, v := range left[i] {
			if math.Abs(v) > suspectReading {
				implausible++
			}
		}
		for _, v := range right[i] {
			if math.Abs(v) > suspectReading {
				implausible++
			}
		}
		if implausible > suspectPerRow {
			r.Suspect++
		}
	}
	return r
}

// Share returns the suspect-row fraction, 0 for an empty report.
func (r Report) Share() float64 {
	if r.Rows == 0 {
		return 0
	}
	return float64(r.Suspect) / float64(r.Rows)
}

// Level grades the report. An empty recording is bad outright; otherwise
// the grade follows the suspect-row share.
func (r Report) Level() Level {
	switch {
	case r.Rows == 0:
		return LevelBad
	case r.Share() > badShare:
		return LevelBad
	case r.Share() > suspectShare:
		return LevelSuspect
	default:
		return LevelOK
	}
}

// Reason describes a non-OK grade for logs and summaries.
func (r Report) Reason() string {
	if r.Rows == 0 {
		return "empty"
	}
	if r.Level() == LevelOK {
		return ""
	}
	return fmt.Sprintf("%d%% faulty rows", int(math.Round(100*r.Share())))
}
