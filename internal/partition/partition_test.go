package partition

import (
	"errors"
	"testing"
	"time"

	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/segment"
	"github.com/mvirta/postura-platform/internal/timeline"
)

// sourceAt builds a two-column test frame with the given epoch-millisecond
// timestamps and a val column holding each row's original index.
func sourceAt(t *testing.T, millis ...int64) frame.Source {
	t.Helper()
	tcol := make([]float64, len(millis))
	vcol := make([]float64, len(millis))
	for i, m := range millis {
		tcol[i] = float64(m)
		vcol[i] = float64(i)
	}
	f, err := frame.New([]string{"t", "val"}, [][]float64{tcol, vcol})
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}
	return f
}

func milli(year int, month time.Month, day, hour, min, sec, ms int) int64 {
	return time.Date(year, month, day, hour, min, sec, ms*int(time.Millisecond), time.UTC).UnixMilli()
}

func TestTimespan(t *testing.T) {
	// Unsorted on purpose.
	src := sourceAt(t,
		milli(2024, time.March, 1, 12, 0, 0, 0),
		milli(2024, time.March, 1, 10, 0, 0, 0),
		milli(2024, time.March, 1, 11, 0, 0, 0),
	)

	span, err := New(src).Timespan()
	if err != nil {
		t.Fatalf("Timespan: %v", err)
	}
	if got := span.Begin; got != timeline.Timestamp(milli(2024, time.March, 1, 10, 0, 0, 0)) {
		t.Errorf("Begin = %d, want 10:00", got)
	}
	if got := span.End; got != timeline.Timestamp(milli(2024, time.March, 1, 12, 0, 0, 0)) {
		t.Errorf("End = %d, want 12:00", got)
	}
}

func TestTimespanClampsCorruptClocks(t *testing.T) {
	// A device clock reset to the epoch and one stuck in the future must
	// not stretch the span outside the validity window.
	src := sourceAt(t,
		0, // 1970
		milli(2024, time.March, 1, 10, 0, 0, 0),
		milli(2099, time.January, 1, 0, 0, 0, 0),
	)

	span, err := New(src).Timespan()
	if err != nil {
		t.Fatalf("Timespan: %v", err)
	}
	validity := DefaultValidity()
	if span.Begin != validity.Begin {
		t.Errorf("Begin = %d, want validity begin %d", span.Begin, validity.Begin)
	}
	if span.End != validity.End {
		t.Errorf("End = %d, want validity end %d", span.End, validity.End)
	}
}

func TestTimespanEmptySource(t *testing.T) {
	_, err := New(sourceAt(t)).Timespan()
	if !errors.Is(err, ErrEmptySource) {
		t.Errorf("err = %v, want ErrEmptySource", err)
	}
}

func TestDays(t *testing.T) {
	src := sourceAt(t,
		milli(2024, time.March, 1, 10, 0, 0, 0),
		milli(2024, time.March, 1, 10, 0, 1, 0),
		milli(2024, time.March, 1, 10, 0, 2, 0),
		milli(2024, time.March, 2, 9, 0, 0, 0),
		milli(2024, time.March, 2, 9, 0, 1, 0),
	)

	days, err := New(src).Days()
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}

	first := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	if !days[0].Day.Date.Equal(first) {
		t.Errorf("day[0] = %v, want %v", days[0].Day.Date, first)
	}
	if !days[1].Day.Date.Equal(first.AddDate(0, 0, 1)) {
		t.Errorf("day[1] = %v, want %v", days[1].Day.Date, first.AddDate(0, 0, 1))
	}
	if days[0].Rows.RowCount() != 3 || days[1].Rows.RowCount() != 2 {
		t.Errorf("row counts = %d/%d, want 3/2", days[0].Rows.RowCount(), days[1].Rows.RowCount())
	}

	// The sub-selection carries the original rows, in order.
	val, err := days[1].Rows.Column("val")
	if err != nil {
		t.Fatalf("val column: %v", err)
	}
	if len(val) != 2 || val[0] != 3 || val[1] != 4 {
		t.Errorf("day[1] val = %v, want [3 4]", val)
	}
}

func TestDaysMinRows(t *testing.T) {
	src := sourceAt(t,
		milli(2024, time.March, 1, 10, 0, 0, 0),
		milli(2024, time.March, 1, 10, 0, 1, 0),
		milli(2024, time.March, 1, 10, 0, 2, 0),
		milli(2024, time.March, 2, 9, 0, 0, 0),
		milli(2024, time.March, 2, 9, 0, 1, 0),
	)

	// A day must hold strictly more than minRows rows to survive: three
	// rows beat 2, two rows do not.
	days, err := New(src, WithMinRows(2)).Days()
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	if days[0].Rows.RowCount() != 3 {
		t.Errorf("row count = %d, want 3", days[0].Rows.RowCount())
	}
}

func TestDaysExcludeFinalFractionalSecond(t *testing.T) {
	// Day spans close on the last whole second, so 23:59:59.500 belongs to
	// no day at all.
	src := sourceAt(t,
		milli(2024, time.March, 1, 12, 0, 0, 0),
		milli(2024, time.March, 1, 12, 0, 1, 0),
		milli(2024, time.March, 1, 23, 59, 59, 500),
	)

	days, err := New(src).Days()
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	total := 0
	for _, d := range days {
		total += d.Rows.RowCount()
	}
	if total != 2 {
		t.Errorf("day rows total %d, want 2", total)
	}
}

func TestBetween(t *testing.T) {
	src := sourceAt(t, 1000, 2000, 3000, 4000, 5000)

	sub, err := New(src).Between(timeline.Span{Begin: 2000, End: 4000})
	if err != nil {
		t.Fatalf("Between: %v", err)
	}
	val, err := sub.Column("val")
	if err != nil {
		t.Fatalf("val column: %v", err)
	}
	if len(val) != 3 || val[0] != 1 || val[2] != 3 {
		t.Errorf("val = %v, want [1 2 3]", val)
	}
}

func TestSplitIntoTimeChunks(t *testing.T) {
	src := sourceAt(t, 0, 1000, 2000, 50000, 51000)

	chunks, err := New(src).SplitIntoTimeChunks(5 * time.Second)
	if err != nil {
		t.Fatalf("SplitIntoTimeChunks: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2", len(chunks))
	}

	want := []timeline.Span{
		{Begin: 0, End: 2000},
		{Begin: 50000, End: 51000},
	}
	for i, w := range want {
		if chunks[i].Span != w {
			t.Errorf("chunk[%d].Span = %+v, want %+v", i, chunks[i].Span, w)
		}
	}
	if chunks[0].Rows.RowCount() != 3 || chunks[1].Rows.RowCount() != 2 {
		t.Errorf("row counts = %d/%d, want 3/2",
			chunks[0].Rows.RowCount(), chunks[1].Rows.RowCount())
	}
}

func TestSplitIntoTimeChunksInsufficientData(t *testing.T) {
	_, err := New(sourceAt(t, 1000)).SplitIntoTimeChunks(5 * time.Second)
	if !errors.Is(err, segment.ErrInsufficientData) {
		t.Errorf("err = %v, want ErrInsufficientData", err)
	}
}

func TestWithTimeColumn(t *testing.T) {
	begin := milli(2024, time.March, 1, 10, 0, 0, 0)
	end := milli(2024, time.March, 1, 11, 0, 0, 0)
	f, err := frame.New([]string{"ts"}, [][]float64{{float64(begin), float64(end)}})
	if err != nil {
		t.Fatalf("building frame: %v", err)
	}

	if _, err := New(f).Timespan(); !errors.Is(err, frame.ErrNoColumn) {
		t.Errorf("default column: err = %v, want ErrNoColumn", err)
	}

	span, err := New(f, WithTimeColumn("ts")).Timespan()
	if err != nil {
		t.Fatalf("Timespan: %v", err)
	}
	if span.Begin != timeline.Timestamp(begin) || span.End != timeline.Timestamp(end) {
		t.Errorf("span = %+v, want [%d, %d]", span, begin, end)
	}
}
