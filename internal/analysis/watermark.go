package analysis

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/pkg/redis"
)

// Watermark tracks the last analyzed sample timestamp per user so
// repeated batches never reprocess the same window.
// Pattern: posture:watermark:{user} (string, epoch milliseconds)
type Watermark struct {
	redis  redis.Client
	logger *slog.Logger
}

// NewWatermark creates a Redis-backed watermark store
func NewWatermark(redisClient redis.Client, logger *slog.Logger) *Watermark {
	return &Watermark{
		redis:  redisClient,
		logger: logger,
	}
}

// Get returns the last analyzed timestamp for a user, zero when the
// user has never been analyzed.
func (w *Watermark) Get(ctx context.Context, userID uuid.UUID) (timeline.Timestamp, error) {
	val, err := w.redis.Get(ctx, redis.WatermarkKey(userID.String()))
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	ms, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		w.logger.Warn("Corrupt watermark value, restarting from zero", "user", userID, "value", val)
		return 0, nil
	}

	return timeline.Timestamp(ms), nil
}

// Advance moves the watermark forward. Backward moves are ignored so a
// replayed or overlapping batch can never regress progress.
func (w *Watermark) Advance(ctx context.Context, userID uuid.UUID, ts timeline.Timestamp) error {
	current, err := w.Get(ctx, userID)
	if err != nil {
		return err
	}
	if ts <= current {
		return nil
	}

	return w.redis.Set(ctx, redis.WatermarkKey(userID.String()), strconv.FormatInt(int64(ts), 10), 0)
}
