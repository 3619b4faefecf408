package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/mvirta/postura-platform/pkg/config"
	"github.com/mvirta/postura-platform/pkg/redis"
)

const millisPerDay = 24 * 60 * 60 * 1000

// Storage handles Redis storage operations for posture samples
type Storage struct {
	redis     redis.Client
	retention int64         // max sample age in milliseconds
	sampleTTL time.Duration // TTL on the sample buffer key
	deviceTTL time.Duration
	logger    *slog.Logger
}

// NewStorage creates a new storage handler
func NewStorage(redisClient redis.Client, cfg *config.Config, logger *slog.Logger) *Storage {
	days := cfg.SampleRetentionDays
	if days < 1 {
		days = 1
	}

	return &Storage{
		redis:     redisClient,
		retention: int64(days) * millisPerDay,
		// Key expiry runs one day behind the trim so an idle buffer
		// still disappears on its own.
		sampleTTL: time.Duration(days+1) * 24 * time.Hour,
		deviceTTL: time.Duration(cfg.DeviceTTLSec) * time.Second,
		logger:    logger,
	}
}

// StoreSample appends a sample to the user's buffer and refreshes the
// device presence record.
// Pattern:
// - posture:samples:{user} (sorted set scored by sample timestamp)
// - posture:device:{device} (hash with user and last_seen)
func (s *Storage) StoreSample(ctx context.Context, msg *SampleMessage) error {
	key := redis.SamplesKey(msg.UserID.String())

	jsonData, err := json.Marshal(msg.Sample)
	if err != nil {
		return fmt.Errorf("failed to marshal sample: %w", err)
	}

	// Add to sorted set with the device timestamp as score
	score := float64(msg.Sample.T)
	if err := s.redis.ZAdd(ctx, key, score, jsonData); err != nil {
		return fmt.Errorf("failed to add sample to buffer: %w", err)
	}

	// Clean entries past the retention window
	cutoff := int64(msg.Sample.T) - s.retention
	if err := s.redis.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(cutoff, 10)); err != nil {
		s.logger.Warn("Failed to trim sample buffer", "user", msg.UserID, "error", err)
	}

	// Refresh TTL
	if err := s.redis.Expire(ctx, key, s.sampleTTL); err != nil {
		return fmt.Errorf("failed to set TTL on sample buffer: %w", err)
	}

	// Update device presence
	s.touchDevice(ctx, msg)

	// Log buffer size
	count, err := s.redis.ZCard(ctx, key)
	if err != nil {
		s.logger.Warn("Failed to get sample buffer size", "user", msg.UserID, "error", err)
	} else {
		s.logger.Debug("Stored sample",
			"device", msg.Device,
			"user", msg.UserID,
			"buffer_size", count)
	}

	return nil
}

// touchDevice refreshes the device presence hash. Presence is best
// effort, failures never fail the sample write.
func (s *Storage) touchDevice(ctx context.Context, msg *SampleMessage) {
	metaKey := redis.DeviceKey(msg.Device)

	if err := s.redis.HSet(ctx, metaKey, "user", msg.UserID.String()); err != nil {
		s.logger.Warn("Failed to update device presence", "device", msg.Device, "error", err)
		return
	}
	if err := s.redis.HSet(ctx, metaKey, "last_seen", strconv.FormatInt(msg.CollectedAt, 10)); err != nil {
		s.logger.Warn("Failed to update device presence", "device", msg.Device, "error", err)
	}
	if err := s.redis.Expire(ctx, metaKey, s.deviceTTL); err != nil {
		s.logger.Warn("Failed to set TTL on device presence", "device", msg.Device, "error", err)
	}
}
