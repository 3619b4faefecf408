package analysis

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/collector"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/pkg/redis"
)

func bufferSample(t *testing.T, fake *fakeRedis, userID uuid.UUID, ms int64, left, right []float64) {
	t.Helper()
	sample := collector.Sample{
		T:       timeline.Timestamp(ms),
		Left:    left,
		Right:   right,
		Acc:     [3]int{1, 2, 3},
		Gyro:    [3]int{0, 0, 0},
		Voltage: 3900,
	}
	data, err := json.Marshal(sample)
	if err != nil {
		t.Fatalf("marshal sample: %v", err)
	}
	if err := fake.ZAdd(context.Background(), redis.SamplesKey(userID.String()), float64(ms), data); err != nil {
		t.Fatalf("ZAdd: %v", err)
	}
}

func TestSampleStoreUsers(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	a, b := uuid.New(), uuid.New()

	bufferSample(t, fake, a, 1000, []float64{1}, []float64{2})
	bufferSample(t, fake, b, 2000, []float64{3}, []float64{4})
	// A key that matches the pattern but is not a user buffer
	fake.zsets["posture:samples:garbage"] = []redis.ZMember{{Score: 1, Member: "{}"}}

	store := NewSampleStore(fake, testLogger())
	users, err := store.Users(ctx)
	if err != nil {
		t.Fatalf("Users() failed: %v", err)
	}

	if len(users) != 2 {
		t.Fatalf("Users() returned %d ids, want 2", len(users))
	}
	seen := map[uuid.UUID]bool{users[0]: true, users[1]: true}
	if !seen[a] || !seen[b] {
		t.Errorf("Users() = %v, want both %v and %v", users, a, b)
	}
}

func TestSampleStoreLoadWindow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	userID := uuid.New()

	for _, ms := range []int64{1000, 2000, 3000, 4000} {
		bufferSample(t, fake, userID, ms, []float64{10, 20}, []float64{30, 40})
	}

	store := NewSampleStore(fake, testLogger())
	src, err := store.Load(ctx, userID, 2000, 3000)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if src == nil {
		t.Fatal("Load() returned nil source")
	}

	if src.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", src.RowCount())
	}

	ts, err := src.Column("t")
	if err != nil {
		t.Fatalf("Column(t) failed: %v", err)
	}
	if ts[0] != 2000 || ts[1] != 3000 {
		t.Errorf("time column = %v, want [2000 3000]", ts)
	}

	l1, err := src.Column("l1")
	if err != nil {
		t.Fatalf("Column(l1) failed: %v", err)
	}
	if l1[0] != 10 {
		t.Errorf("l1 = %v", l1)
	}

	v, err := src.Column("v")
	if err != nil {
		t.Fatalf("Column(v) failed: %v", err)
	}
	if v[0] != 3900 {
		t.Errorf("v = %v", v)
	}
}

func TestSampleStoreLoadSkipsMalformedEntries(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	userID := uuid.New()

	bufferSample(t, fake, userID, 1000, []float64{1, 2}, []float64{3, 4})
	fake.zsets[redis.SamplesKey(userID.String())] = append(
		fake.zsets[redis.SamplesKey(userID.String())],
		redis.ZMember{Score: 1500, Member: "{broken"})
	// Strip width differs from the first sample, dropped by the builder
	bufferSample(t, fake, userID, 2000, []float64{1}, []float64{3})
	bufferSample(t, fake, userID, 3000, []float64{5, 6}, []float64{7, 8})

	store := NewSampleStore(fake, testLogger())
	src, err := store.Load(ctx, userID, 0, 10000)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if src.RowCount() != 2 {
		t.Errorf("RowCount() = %d, want 2 good rows", src.RowCount())
	}
}

func TestSampleStoreLoadEmptyWindow(t *testing.T) {
	ctx := context.Background()
	fake := newFakeRedis()
	userID := uuid.New()

	bufferSample(t, fake, userID, 1000, []float64{1}, []float64{2})

	store := NewSampleStore(fake, testLogger())
	src, err := store.Load(ctx, userID, 5000, 9000)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if src != nil {
		t.Errorf("Load() = %v, want nil for empty window", src)
	}
}
