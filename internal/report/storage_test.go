package report

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvirta/postura-platform/internal/timeline"
)

// setupTestDB creates a test database connection with the day_summaries
// schema. This requires a PostgreSQL instance with the pgvector extension.
func setupTestDB(t *testing.T) *sql.DB {
	// This is a placeholder - in real tests, you would:
	// 1. Use a test PostgreSQL instance (e.g., via testcontainers)
	// 2. Run the migration scripts to create tables
	// 3. Return the database connection
	t.Skip("Integration test - requires PostgreSQL with pgvector")
	return nil
}

func makeTestVector(dim int) pgvector.Vector {
	values := make([]float32, dim)
	for i := range values {
		values[i] = float32(i%7) / 7.0
	}
	return pgvector.NewVector(normalize(values))
}

func testDaySummary(userID uuid.UUID, day time.Time) *DaySummary {
	begin := timeline.TimestampOf(day.Add(8 * time.Hour))
	return &DaySummary{
		UserID:  userID,
		Day:     day,
		Span:    timeline.Span{Begin: begin, End: begin + 6*3600*1000},
		Blocks:  3,
		Samples: 21600,
		Movement: ScoreSummary{
			Average:  61.5,
			Duration: 21600,
			Min:      12,
			Max:      94,
		},
		Posture: makeTestVector(DefaultVectorDim),
		Quality: "ok",
		Label:   LabelOffice,
	}
}

func TestSaveAndGetDaySummary(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	storage := NewStorage(db)
	ctx := context.Background()

	userID := uuid.New()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := testDaySummary(userID, day)

	err := storage.SaveDaySummary(ctx, summary)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, summary.ID)
	require.False(t, summary.CreatedAt.IsZero())

	retrieved, err := storage.GetDaySummary(ctx, userID, day)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, summary.ID, retrieved.ID)
	assert.Equal(t, summary.UserID, retrieved.UserID)
	assert.Equal(t, summary.Span, retrieved.Span)
	assert.Equal(t, summary.Blocks, retrieved.Blocks)
	assert.Equal(t, summary.Samples, retrieved.Samples)
	assert.Equal(t, summary.Movement, retrieved.Movement)
	assert.Equal(t, summary.Quality, retrieved.Quality)
	assert.Equal(t, LabelOffice, retrieved.Label)
}

func TestSaveDaySummaryUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	storage := NewStorage(db)
	ctx := context.Background()

	userID := uuid.New()
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	first := testDaySummary(userID, day)
	require.NoError(t, storage.SaveDaySummary(ctx, first))

	// Re-analyzing the same day replaces the summary.
	second := testDaySummary(userID, day)
	second.Samples = 30000
	second.Quality = "suspect"
	require.NoError(t, storage.SaveDaySummary(ctx, second))

	retrieved, err := storage.GetDaySummary(ctx, userID, day)
	require.NoError(t, err)
	assert.Equal(t, 30000, retrieved.Samples)
	assert.Equal(t, "suspect", retrieved.Quality)
}

func TestGetDaySummaryNotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	storage := NewStorage(db)

	_, err := storage.GetDaySummary(context.Background(), uuid.New(),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListDaySummaries(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	storage := NewStorage(db)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		require.NoError(t, storage.SaveDaySummary(ctx, testDaySummary(userID, base.AddDate(0, 0, i))))
	}

	// A span touching the first two days returns exactly those, in order.
	span := timeline.Span{
		Begin: timeline.TimestampOf(base.Add(10 * time.Hour)),
		End:   timeline.TimestampOf(base.AddDate(0, 0, 1).Add(10 * time.Hour)),
	}
	summaries, err := storage.ListDaySummaries(ctx, userID, span)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.True(t, summaries[0].Day.Before(summaries[1].Day))
}

func TestFindSimilarDays(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	storage := NewStorage(db)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	target := makeTestVector(DefaultVectorDim)

	// Identical, close, and distant posture distributions.
	near := testDaySummary(uuid.New(), base)
	near.Posture = target

	nudged := testDaySummary(uuid.New(), base)
	slice := append([]float32{}, target.Slice()...)
	slice[0] += 0.05
	nudged.Posture = pgvector.NewVector(normalize(slice))

	far := testDaySummary(uuid.New(), base)
	inverted := make([]float32, DefaultVectorDim)
	for i, v := range target.Slice() {
		inverted[i] = 1 - v
	}
	far.Posture = pgvector.NewVector(normalize(inverted))

	for _, s := range []*DaySummary{far, nudged, near} {
		require.NoError(t, storage.SaveDaySummary(ctx, s))
	}

	similar, err := storage.FindSimilarDays(ctx, target, 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, near.ID, similar[0].ID)
	assert.Equal(t, nudged.ID, similar[1].ID)
}
