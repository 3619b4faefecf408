// Package partition splits a tabular posture recording into calendar days
// and contiguous activity chunks.
package partition

import (
	"errors"
	"fmt"
	"time"

	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/segment"
	"github.com/mvirta/postura-platform/internal/timeline"
)

// ErrEmptySource reports a source with no rows to partition.
var ErrEmptySource = errors.New("partition: source has no rows")

// DefaultValidity returns the plausibility window for device timestamps.
// Clocks on battery-backed sensors drift or reset to the epoch; span
// endpoints outside this window are clamped so a single corrupt timestamp
// cannot stretch a recording across decades. The clamp only affects span
// computation, rows are never dropped by it.
func DefaultValidity() timeline.Span {
	return timeline.Span{
		Begin: timeline.TimestampOf(time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)),
		End:   timeline.TimestampOf(time.Date(2035, time.December, 31, 23, 59, 59, 0, time.UTC)),
	}
}

// Option configures a Partitioner.
type Option func(*Partitioner)

// WithTimeColumn overrides the column holding per-row timestamps.
func WithTimeColumn(name string) Option {
	return func(p *Partitioner) { p.timeColumn = name }
}

// WithValidity overrides the timestamp plausibility window.
func WithValidity(span timeline.Span) Option {
	return func(p *Partitioner) { p.validity = span }
}

// WithMinRows sets the row count a day partition must exceed to be kept.
func WithMinRows(n int) Option {
	return func(p *Partitioner) { p.minRows = n }
}

// Partitioner derives time-based sub-selections of one recording. It never
// modifies the underlying source; every result is a fresh mask-filtered
// view, so partitioning is restartable.
type Partitioner struct {
	src        frame.Source
	timeColumn string
	validity   timeline.Span
	minRows    int
}

// New returns a Partitioner over src, reading timestamps from the canonical
// time column and clamping into DefaultValidity unless options say
// otherwise.
func New(src frame.Source, opts ...Option) *Partitioner {
	p := &Partitioner{
		src:        src,
		timeColumn: frame.TimeColumn,
		validity:   DefaultValidity(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// DayFrame pairs one calendar day with the rows recorded during it.
type DayFrame struct {
	Day  timeline.Day
	Rows frame.Source
}

// Chunk pairs one activity block with the rows recorded during it.
type Chunk struct {
	Span timeline.Span
	Rows frame.Source
}

// Timespan returns the recording's overall span: the minimum and maximum of
// the time index, each clamped into the validity window. An empty source
// yields ErrEmptySource.
func (p *Partitioner) Timespan() (timeline.Span, error) {
	ts, err := p.timestamps()
	if err != nil {
		return timeline.Span{}, err
	}
	return spanOf(ts, p.validity)
}

// Days partitions the recording into calendar days, ordered. Each day's
// rows are selected by mask filter; days whose row count does not exceed
// the configured minimum are left out.
func (p *Partitioner) Days() ([]DayFrame, error) {
	ts, err := p.timestamps()
	if err != nil {
		return nil, err
	}
	span, err := spanOf(ts, p.validity)
	if err != nil {
		return nil, err
	}

	var out []DayFrame
	for _, day := range span.Days() {
		mask := make([]bool, len(ts))
		rows := 0
		for i, t := range ts {
			if day.Span.Contains(t) {
				mask[i] = true
				rows++
			}
		}
		if rows <= p.minRows {
			continue
		}
		sub, err := p.src.Filter(mask)
		if err != nil {
			return nil, fmt.Errorf("partition: selecting day %s: %w", day.Date.Format("2006-01-02"), err)
		}
		out = append(out, DayFrame{Day: day, Rows: sub})
	}
	return out, nil
}

// Between returns the sub-selection of rows whose timestamp lies inside
// span.
func (p *Partitioner) Between(span timeline.Span) (frame.Source, error) {
	ts, err := p.timestamps()
	if err != nil {
		return nil, err
	}
	mask := make([]bool, len(ts))
	for i, t := range ts {
		mask[i] = span.Contains(t)
	}
	sub, err := p.src.Filter(mask)
	if err != nil {
		return nil, fmt.Errorf("partition: selecting span: %w", err)
	}
	return sub, nil
}

// SplitIntoTimeChunks segments the time index into activity blocks
// separated by idle gaps above maxGap and returns the sub-selection for
// each block, in time order. Fewer than two samples yield
// segment.ErrInsufficientData.
func (p *Partitioner) SplitIntoTimeChunks(maxGap time.Duration) ([]Chunk, error) {
	ts, err := p.timestamps()
	if err != nil {
		return nil, err
	}
	blocks, err := segment.Blocks(ts, maxGap)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(blocks))
	for _, block := range blocks {
		mask := make([]bool, len(ts))
		for i, t := range ts {
			mask[i] = block.Contains(t)
		}
		sub, err := p.src.Filter(mask)
		if err != nil {
			return nil, fmt.Errorf("partition: selecting chunk: %w", err)
		}
		out = append(out, Chunk{Span: block, Rows: sub})
	}
	return out, nil
}

func (p *Partitioner) timestamps() ([]timeline.Timestamp, error) {
	ts, err := frame.Timestamps(p.src, p.timeColumn)
	if err != nil {
		return nil, fmt.Errorf("partition: %w", err)
	}
	return ts, nil
}

func spanOf(ts []timeline.Timestamp, validity timeline.Span) (timeline.Span, error) {
	if len(ts) == 0 {
		return timeline.Span{}, ErrEmptySource
	}
	lo, hi := ts[0], ts[0]
	for _, t := range ts[1:] {
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	return timeline.Span{Begin: lo, End: hi}.Clamp(validity.Begin, validity.End), nil
}
