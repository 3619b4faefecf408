// Package timeline provides the timestamp and interval primitives shared by
// the posture analysis core. Timestamps are epoch milliseconds; all calendar
// arithmetic runs in UTC, the platform's fixed reference calendar.
package timeline

import (
	"errors"
	"fmt"
	"time"
)

// Timestamp is a point in time as milliseconds since the Unix epoch.
type Timestamp int64

const (
	millisPerDay = 86400000
	// Day spans end on the last whole second (23:59:59.000), not the last
	// millisecond. Samples in the final fractional second fall outside.
	dayEndOffset = millisPerDay - 1000
)

// TimestampOf converts a time.Time to a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp(t.UnixMilli())
}

// Time converts the timestamp back to a time.Time in UTC.
func (t Timestamp) Time() time.Time {
	return time.UnixMilli(int64(t)).UTC()
}

// ErrInvalidRange reports a span whose begin lies after its end.
var ErrInvalidRange = errors.New("timeline: span begins after it ends")

// Span is a closed interval [Begin, End] over sample timestamps. Both
// endpoints are inside the span.
type Span struct {
	Begin Timestamp
	End   Timestamp
}

// NewSpan builds a span and enforces the begin <= end invariant.
func NewSpan(begin, end Timestamp) (Span, error) {
	if begin > end {
		return Span{}, fmt.Errorf("%w: begin=%d end=%d", ErrInvalidRange, begin, end)
	}
	return Span{Begin: begin, End: end}, nil
}

// Contains reports whether t lies inside the span, endpoints included.
func (s Span) Contains(t Timestamp) bool {
	return s.Begin <= t && t <= s.End
}

// Clamp truncates both endpoints into [min, max].
func (s Span) Clamp(min, max Timestamp) Span {
	return Span{Begin: clamp(s.Begin, min, max), End: clamp(s.End, min, max)}
}

// Duration returns the length of the span.
func (s Span) Duration() time.Duration {
	return time.Duration(s.End-s.Begin) * time.Millisecond
}

// Day is one calendar day together with its full-day span.
type Day struct {
	Date time.Time // midnight UTC
	Span Span
}

// DaySpan returns the span covering a single calendar day, from 00:00:00.000
// through 23:59:59.000. The end bound is second-granular by policy.
func DaySpan(date time.Time) Span {
	begin := TimestampOf(midnight(date))
	return Span{Begin: begin, End: begin + dayEndOffset}
}

// Days enumerates every calendar day whose union covers the span, inclusive
// of partial first and last days. Each entry carries the full-day span, not
// the intersection with s.
func (s Span) Days() []Day {
	var days []Day
	last := midnight(s.End.Time())
	for d := midnight(s.Begin.Time()); !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, Day{Date: d, Span: DaySpan(d)})
	}
	return days
}

func midnight(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clamp(t, min, max Timestamp) Timestamp {
	if t < min {
		return min
	}
	if t > max {
		return max
	}
	return t
}
