package analysis

import (
	"fmt"
	"time"

	"github.com/mvirta/postura-platform/internal/feature"
	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/histogram"
	"github.com/mvirta/postura-platform/internal/partition"
	"github.com/mvirta/postura-platform/internal/quality"
	"github.com/mvirta/postura-platform/internal/report"
	"github.com/mvirta/postura-platform/internal/segment"
	"github.com/mvirta/postura-platform/internal/timeline"
)

// Pipeline turns one day of posture samples into a day report. It does
// no I/O; the agent feeds it partitioned frames and persists the result.
type Pipeline struct {
	deriver *feature.Deriver
	angles  AngleProvider
	maxGap  time.Duration
	window  int
	bins    int
}

// NewPipeline creates an analysis pipeline. maxGap closes activity
// blocks, window is the movement score window in samples, bins the
// histogram resolution per dimension.
func NewPipeline(deriver *feature.Deriver, angles AngleProvider, maxGap time.Duration, window, bins int) *Pipeline {
	return &Pipeline{
		deriver: deriver,
		angles:  angles,
		maxGap:  maxGap,
		window:  window,
		bins:    bins,
	}
}

// DayReport is the analysis result for a single day of samples
type DayReport struct {
	Day      timeline.Day
	Span     timeline.Span
	Blocks   []timeline.Span
	Samples  int
	Movement report.ScoreSummary
	Posture  *histogram.Histogram
	Quality  quality.Report
}

// Day runs the full pipeline over one day's rows: activity blocks,
// sensor quality, movement scores, posture features and the posture
// histogram.
func (p *Pipeline) Day(day partition.DayFrame) (*DayReport, error) {
	rows := day.Rows
	samples := rows.RowCount()
	date := day.Day.Date.Format("2006-01-02")

	ts, err := frame.Timestamps(rows, frame.TimeColumn)
	if err != nil {
		return nil, fmt.Errorf("failed to read time index for %s: %w", date, err)
	}

	blocks, err := segment.Blocks(ts, p.maxGap)
	if err != nil {
		return nil, fmt.Errorf("failed to segment %s: %w", date, err)
	}

	left, right, err := frame.Sensors(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read sensor strips for %s: %w", date, err)
	}
	qual := quality.Assess(left, right)

	acc, err := accelColumn(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to read acceleration for %s: %w", date, err)
	}

	movement := p.deriver.MovementScore(acc, p.window)

	src := p.angles(left, right)
	angles := make([][]float64, samples)
	for i := range angles {
		angles[i] = src.Angles(i)
	}

	sum9, pitch, err := p.deriver.PostureFeatures(angles, acc)
	if err != nil {
		return nil, fmt.Errorf("failed to derive posture features for %s: %w", date, err)
	}

	hist := histogram.New([][]float64{sum9, pitch}, p.bins, nil)

	return &DayReport{
		Day:      day.Day,
		Span:     timeline.Span{Begin: blocks[0].Begin, End: blocks[len(blocks)-1].End},
		Blocks:   blocks,
		Samples:  samples,
		Movement: report.Summarize(movement),
		Posture:  hist,
		Quality:  qual,
	}, nil
}

// accelColumn reads the three acceleration columns as Accel samples
func accelColumn(rows frame.Source) ([]feature.Accel, error) {
	x, err := rows.Column("x")
	if err != nil {
		return nil, err
	}
	y, err := rows.Column("y")
	if err != nil {
		return nil, err
	}
	z, err := rows.Column("z")
	if err != nil {
		return nil, err
	}
	return feature.AccelFromColumns(x, y, z)
}
