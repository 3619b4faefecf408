package analysis

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/pkg/redis"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatermarkUnsetReadsZero(t *testing.T) {
	w := NewWatermark(newFakeRedis(), testLogger())

	ts, err := w.Get(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("Get() = %d, want 0 for unseen user", ts)
	}
}

func TestWatermarkAdvanceIsMonotonic(t *testing.T) {
	ctx := context.Background()
	w := NewWatermark(newFakeRedis(), testLogger())
	userID := uuid.New()

	steps := []struct {
		advance int64
		want    int64
	}{
		{1000, 1000},
		{500, 1000},  // backward move ignored
		{1000, 1000}, // same value ignored
		{1500, 1500},
	}

	for _, step := range steps {
		if err := w.Advance(ctx, userID, timeline.Timestamp(step.advance)); err != nil {
			t.Fatalf("Advance(%d) failed: %v", step.advance, err)
		}
		got, err := w.Get(ctx, userID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if int64(got) != step.want {
			t.Errorf("after Advance(%d): Get() = %d, want %d", step.advance, got, step.want)
		}
	}
}

func TestWatermarkCorruptValueResets(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	userID := uuid.New()
	fake.strings[redis.WatermarkKey(userID.String())] = "not-a-number"

	w := NewWatermark(fake, testLogger())
	ts, err := w.Get(ctx, userID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if ts != 0 {
		t.Errorf("Get() = %d, want 0 for corrupt value", ts)
	}
}

func TestWatermarksAreIndependentPerUser(t *testing.T) {
	ctx := context.Background()
	w := NewWatermark(newFakeRedis(), testLogger())
	a, b := uuid.New(), uuid.New()

	if err := w.Advance(ctx, a, timeline.Timestamp(9000)); err != nil {
		t.Fatalf("Advance() failed: %v", err)
	}

	got, err := w.Get(ctx, b)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got != 0 {
		t.Errorf("user b watermark = %d, want 0", got)
	}
}
