package report

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/mvirta/postura-platform/internal/timeline"
)

// ErrNotFound reports a missing day summary.
var ErrNotFound = errors.New("report: day summary not found")

// DaySummary is one user's analyzed posture day as persisted in the
// day_summaries table. The (UserID, Day) pair is unique; re-analyzing a day
// replaces its summary.
type DaySummary struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Day       time.Time // midnight UTC
	Span      timeline.Span
	Blocks    int
	Samples   int
	Movement  ScoreSummary
	Posture   pgvector.Vector
	Quality   string
	Label     ActivityLabel
	CreatedAt time.Time
}

// Storage persists day summaries in PostgreSQL with pgvector for posture
// similarity search.
type Storage struct {
	db *sql.DB
}

// NewStorage creates a storage instance over an open connection pool.
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// SaveDaySummary inserts a day summary, replacing any existing summary for
// the same user and day. A zero ID and CreatedAt are filled in.
func (s *Storage) SaveDaySummary(ctx context.Context, summary *DaySummary) error {
	movementJSON, err := json.Marshal(summary.Movement)
	if err != nil {
		return fmt.Errorf("failed to marshal movement summary: %w", err)
	}

	if summary.ID == uuid.Nil {
		summary.ID = uuid.New()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO day_summaries (
			id, user_id, day, span_begin, span_end, blocks, samples,
			movement, posture_vec, quality, label, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (user_id, day)
		DO UPDATE SET
			span_begin = EXCLUDED.span_begin,
			span_end = EXCLUDED.span_end,
			blocks = EXCLUDED.blocks,
			samples = EXCLUDED.samples,
			movement = EXCLUDED.movement,
			posture_vec = EXCLUDED.posture_vec,
			quality = EXCLUDED.quality,
			label = EXCLUDED.label,
			created_at = EXCLUDED.created_at
	`

	_, err = s.db.ExecContext(ctx, query,
		summary.ID,
		summary.UserID,
		summary.Day,
		int64(summary.Span.Begin),
		int64(summary.Span.End),
		summary.Blocks,
		summary.Samples,
		movementJSON,
		summary.Posture,
		summary.Quality,
		string(summary.Label),
		summary.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert day summary: %w", err)
	}

	return nil
}

// GetDaySummary retrieves one user's summary for a calendar day.
func (s *Storage) GetDaySummary(ctx context.Context, userID uuid.UUID, day time.Time) (*DaySummary, error) {
	query := `
		SELECT
			id, user_id, day, span_begin, span_end, blocks, samples,
			movement, posture_vec, quality, label, created_at
		FROM day_summaries
		WHERE user_id = $1 AND day = $2
	`

	summary, err := scanDaySummary(s.db.QueryRowContext(ctx, query, userID, day))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s day %s", ErrNotFound, userID, day.Format("2006-01-02"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query day summary: %w", err)
	}
	return summary, nil
}

// ListDaySummaries returns one user's summaries for every calendar day the
// span touches, ordered by day.
func (s *Storage) ListDaySummaries(ctx context.Context, userID uuid.UUID, span timeline.Span) ([]*DaySummary, error) {
	days := span.Days()
	from := days[0].Date
	to := days[len(days)-1].Date

	query := `
		SELECT
			id, user_id, day, span_begin, span_end, blocks, samples,
			movement, posture_vec, quality, label, created_at
		FROM day_summaries
		WHERE user_id = $1 AND day >= $2 AND day <= $3
		ORDER BY day
	`

	rows, err := s.db.QueryContext(ctx, query, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query day summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*DaySummary
	for rows.Next() {
		summary, err := scanDaySummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan day summary row: %w", err)
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day summary rows: %w", err)
	}

	return summaries, nil
}

// FindSimilarDays finds the days whose posture distribution is closest to
// the given vector, most similar first, across all users.
func (s *Storage) FindSimilarDays(ctx context.Context, posture pgvector.Vector, limit int) ([]*DaySummary, error) {
	query := `
		SELECT
			id, user_id, day, span_begin, span_end, blocks, samples,
			movement, posture_vec, quality, label, created_at,
			posture_vec <=> $1 AS distance
		FROM day_summaries
		ORDER BY posture_vec <=> $1
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, posture, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query similar days: %w", err)
	}
	defer rows.Close()

	var summaries []*DaySummary
	for rows.Next() {
		var summary DaySummary
		var movementJSON []byte
		var label string
		var begin, end int64
		var distance float64

		err := rows.Scan(
			&summary.ID,
			&summary.UserID,
			&summary.Day,
			&begin,
			&end,
			&summary.Blocks,
			&summary.Samples,
			&movementJSON,
			&summary.Posture,
			&summary.Quality,
			&label,
			&summary.CreatedAt,
			&distance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan similar day row: %w", err)
		}

		if err := json.Unmarshal(movementJSON, &summary.Movement); err != nil {
			return nil, fmt.Errorf("failed to unmarshal movement summary: %w", err)
		}
		summary.Span = timeline.Span{Begin: timeline.Timestamp(begin), End: timeline.Timestamp(end)}
		summary.Label = ParseActivityLabel(label)

		summaries = append(summaries, &summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating similar day rows: %w", err)
	}

	return summaries, nil
}

// scanner covers sql.Row and sql.Rows for shared scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanDaySummary(row scanner) (*DaySummary, error) {
	var summary DaySummary
	var movementJSON []byte
	var label string
	var begin, end int64

	err := row.Scan(
		&summary.ID,
		&summary.UserID,
		&summary.Day,
		&begin,
		&end,
		&summary.Blocks,
		&summary.Samples,
		&movementJSON,
		&summary.Posture,
		&summary.Quality,
		&label,
		&summary.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(movementJSON, &summary.Movement); err != nil {
		return nil, fmt.Errorf("failed to unmarshal movement summary: %w", err)
	}
	summary.Span = timeline.Span{Begin: timeline.Timestamp(begin), End: timeline.Timestamp(end)}
	summary.Label = ParseActivityLabel(label)

	return &summary, nil
}
