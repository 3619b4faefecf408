package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/collector"
	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/pkg/redis"
)

// SampleStore reads buffered samples out of Redis and materializes them
// as columnar frames for the pipeline.
type SampleStore struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewSampleStore creates a sample reader over the collector's buffers
func NewSampleStore(redisClient redis.Client, logger *slog.Logger) *SampleStore {
	return &SampleStore{
		redis:  redisClient,
		logger: logger,
	}
}

// Users returns the ids of users with buffered samples
func (s *SampleStore) Users(ctx context.Context) ([]uuid.UUID, error) {
	keys, err := s.redis.Keys(ctx, redis.SamplesPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sample buffers: %w", err)
	}

	users := make([]uuid.UUID, 0, len(keys))
	for _, key := range keys {
		id, err := uuid.Parse(strings.TrimPrefix(key, "posture:samples:"))
		if err != nil {
			s.logger.Warn("Skipping malformed sample buffer key", "key", key)
			continue
		}
		users = append(users, id)
	}

	return users, nil
}

// Load fetches samples with timestamps in [from, to] and builds a frame
// from them. Returns nil when the window holds no usable samples.
// Malformed buffer entries are dropped, a bad sample never stops a batch.
func (s *SampleStore) Load(ctx context.Context, userID uuid.UUID, from, to timeline.Timestamp) (frame.Source, error) {
	key := redis.SamplesKey(userID.String())

	members, err := s.redis.ZRangeByScoreWithScores(ctx, key, float64(from), float64(to))
	if err != nil {
		return nil, fmt.Errorf("failed to load samples for %s: %w", userID, err)
	}
	if len(members) == 0 {
		return nil, nil
	}

	// The builder schema is fixed by the first sample's strip width
	var builder *frame.Builder
	var dropped int

	for _, m := range members {
		var sample collector.Sample
		if err := json.Unmarshal([]byte(m.Member), &sample); err != nil {
			dropped++
			continue
		}

		if builder == nil {
			builder = frame.NewBuilder(len(sample.Left))
		}
		if err := builder.Append(sample.T, sample.Left, sample.Right, sample.Acc, sample.Gyro, sample.Voltage); err != nil {
			dropped++
			continue
		}
	}

	if dropped > 0 {
		s.logger.Warn("Dropped malformed buffer entries", "user", userID, "count", dropped)
	}
	if builder == nil || builder.Len() == 0 {
		return nil, nil
	}

	f, err := builder.Frame()
	if err != nil {
		return nil, fmt.Errorf("failed to build frame for %s: %w", userID, err)
	}

	s.logger.Debug("Loaded samples", "user", userID, "rows", builder.Len())
	return f, nil
}
