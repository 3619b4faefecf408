package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mvirta/postura-platform/internal/feature"
	"github.com/mvirta/postura-platform/internal/frame"
	"github.com/mvirta/postura-platform/internal/partition"
	"github.com/mvirta/postura-platform/internal/quality"
	"github.com/mvirta/postura-platform/internal/report"
	"github.com/mvirta/postura-platform/internal/timeline"
	"github.com/mvirta/postura-platform/internal/user"
	"github.com/mvirta/postura-platform/pkg/config"
	"github.com/mvirta/postura-platform/pkg/mqtt"
	"github.com/mvirta/postura-platform/pkg/postgres"
	"github.com/mvirta/postura-platform/pkg/redis"
)

// Agent runs the analysis batch on a fixed interval: discover users
// with pending samples, build their frames, partition into days, run
// the pipeline and persist the day summaries.
type Agent struct {
	mqtt      mqtt.Client
	redis     redis.Client
	postgres  postgres.Client
	samples   *SampleStore
	watermark *Watermark
	cache     *user.Cache
	pipeline  *Pipeline
	reports   *report.Storage
	cfg       *config.Config
	logger    *slog.Logger
}

// NewAgent creates a new analysis agent with the given dependencies
func NewAgent(mqttClient mqtt.Client, redisClient redis.Client, pgClient postgres.Client, cfg *config.Config, logger *slog.Logger) *Agent {
	deriver := feature.NewDeriver(cfg.Workers)
	pipeline := NewPipeline(deriver, LinearProvider,
		time.Duration(cfg.GapThresholdMs)*time.Millisecond,
		cfg.MovementWindow, cfg.HistogramBins)

	return &Agent{
		mqtt:      mqttClient,
		redis:     redisClient,
		postgres:  pgClient,
		samples:   NewSampleStore(redisClient, logger),
		watermark: NewWatermark(redisClient, logger),
		cache:     user.NewCache(),
		pipeline:  pipeline,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start connects the agent's dependencies and runs analysis batches
// until the context is cancelled. The first batch runs immediately so
// restarts don't wait out a full interval.
func (a *Agent) Start(ctx context.Context) error {
	a.logger.Info("Starting analysis agent",
		"service_name", a.cfg.ServiceName,
		"interval_sec", a.cfg.AnalysisIntervalSec)

	// Connect to MQTT broker
	if err := a.mqtt.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	// Verify Redis connection
	if err := a.redis.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	// Connect to Postgres and wire summary storage
	if err := a.postgres.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	db, err := a.dbConnection()
	if err != nil {
		return err
	}
	a.reports = report.NewStorage(db)

	interval := time.Duration(a.cfg.AnalysisIntervalSec) * time.Second
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	a.runBatch(ctx)

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Analysis agent stopping")
			return nil
		case <-ticker.C:
			a.runBatch(ctx)
		}
	}
}

// Stop gracefully stops the analysis agent
func (a *Agent) Stop() error {
	a.logger.Info("Stopping analysis agent")

	a.mqtt.Disconnect()

	var firstErr error
	if err := a.redis.Close(); err != nil {
		a.logger.Error("Error closing Redis connection", "error", err)
		firstErr = err
	}
	if err := a.postgres.Disconnect(); err != nil {
		a.logger.Error("Error closing Postgres connection", "error", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	a.logger.Info("Analysis agent stopped")
	return firstErr
}

// runBatch processes every user with pending samples once
func (a *Agent) runBatch(ctx context.Context) {
	start := time.Now()

	users, err := a.samples.Users(ctx)
	if err != nil {
		a.logger.Error("Failed to list users with samples", "error", err)
		return
	}
	if len(users) == 0 {
		a.logger.Debug("No pending samples")
		return
	}

	var days, failures int
	for _, userID := range users {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := a.processUser(ctx, userID)
		if err != nil {
			a.logger.Error("Failed to process user", "user", userID, "error", err)
			failures++
			continue
		}
		days += n
	}

	a.logger.Info("Analysis batch complete",
		"users", len(users),
		"days", days,
		"failures", failures,
		"elapsed", time.Since(start))
}

// processUser analyzes one user's pending window and returns the number
// of day summaries persisted.
func (a *Agent) processUser(ctx context.Context, userID uuid.UUID) (int, error) {
	wm, err := a.watermark.Get(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to read watermark: %w", err)
	}

	now := timeline.TimestampOf(time.Now())
	if wm >= now {
		return 0, nil
	}

	q := user.Query{
		From:    wm + 1,
		To:      now,
		MaxGap:  time.Duration(a.cfg.GapThresholdMs) * time.Millisecond,
		MinRows: a.cfg.MinDayRows,
	}
	src, err := a.cache.Materialize(userID, q, func() (frame.Source, error) {
		return a.samples.Load(ctx, userID, q.From, q.To)
	})
	if err != nil {
		return 0, fmt.Errorf("failed to load samples: %w", err)
	}
	if src == nil || src.RowCount() == 0 {
		return 0, nil
	}

	part := partition.New(src, partition.WithMinRows(a.cfg.MinDayRows))
	dayFrames, err := part.Days()
	if err != nil {
		if errors.Is(err, partition.ErrEmptySource) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to partition days: %w", err)
	}

	persisted := 0
	for _, df := range dayFrames {
		date := df.Day.Date.Format("2006-01-02")

		rep, err := a.pipeline.Day(df)
		if err != nil {
			a.logger.Warn("Skipping day", "user", userID, "day", date, "error", err)
			continue
		}

		if rep.Quality.Level() == quality.LevelBad {
			a.logger.Warn("Skipping day with unusable sensor data",
				"user", userID,
				"day", date,
				"reason", rep.Quality.Reason())
			continue
		}

		summary := a.buildSummary(userID, rep)
		if err := a.reports.SaveDaySummary(ctx, summary); err != nil {
			return persisted, fmt.Errorf("failed to save day summary for %s: %w", date, err)
		}

		if err := a.publishSummary(userID, rep); err != nil {
			a.logger.Warn("Failed to publish day summary", "user", userID, "day", date, "error", err)
		}

		persisted++
	}

	a.advanceWatermark(ctx, userID, src)
	a.cache.Invalidate(userID)

	return persisted, nil
}

// advanceWatermark moves the user's watermark past every loaded sample.
// Days skipped for quality or size still count as processed; their
// samples are spent.
func (a *Agent) advanceWatermark(ctx context.Context, userID uuid.UUID, src frame.Source) {
	ts, err := frame.Timestamps(src, frame.TimeColumn)
	if err != nil || len(ts) == 0 {
		return
	}

	maxT := ts[0]
	for _, t := range ts[1:] {
		if t > maxT {
			maxT = t
		}
	}

	if err := a.watermark.Advance(ctx, userID, maxT); err != nil {
		a.logger.Error("Failed to advance watermark", "user", userID, "error", err)
	}
}

// buildSummary converts a day report into its persisted form
func (a *Agent) buildSummary(userID uuid.UUID, rep *DayReport) *report.DaySummary {
	return &report.DaySummary{
		UserID:   userID,
		Day:      rep.Day.Date,
		Span:     rep.Span,
		Blocks:   len(rep.Blocks),
		Samples:  rep.Samples,
		Movement: rep.Movement,
		Posture:  report.HistogramVector(rep.Posture, a.cfg.VectorDim),
		Quality:  string(rep.Quality.Level()),
		Label:    report.LabelNA,
	}
}

// summaryPayload is the MQTT shape of a published day summary
type summaryPayload struct {
	User     string              `json:"user"`
	Day      string              `json:"day"`
	Movement report.ScoreSummary `json:"movement"`
	Blocks   int                 `json:"blocks"`
	Samples  int                 `json:"samples"`
	Quality  string              `json:"quality"`
}

// publishSummary announces a finished day summary on the summary topic
func (a *Agent) publishSummary(userID uuid.UUID, rep *DayReport) error {
	payload := summaryPayload{
		User:     userID.String(),
		Day:      rep.Day.Date.Format("2006-01-02"),
		Movement: rep.Movement,
		Blocks:   len(rep.Blocks),
		Samples:  rep.Samples,
		Quality:  string(rep.Quality.Level()),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	topic := mqtt.SummaryTopic(userID.String(), rep.Day.Date)
	if err := a.mqtt.Publish(topic, 0, false, data); err != nil {
		return fmt.Errorf("failed to publish summary: %w", err)
	}

	a.logger.Info("Published day summary",
		"topic", topic,
		"average", rep.Movement.Average,
		"blocks", len(rep.Blocks))

	return nil
}

// dbConnection extracts the underlying *sql.DB from the postgres client.
// The postgres.Client interface doesn't expose DB(), but the concrete
// *PostgresClient implementation does, so we need a type assertion.
func (a *Agent) dbConnection() (*sql.DB, error) {
	type dbGetter interface {
		DB() *sql.DB
	}

	if getter, ok := a.postgres.(dbGetter); ok {
		if db := getter.DB(); db != nil {
			return db, nil
		}
		return nil, fmt.Errorf("postgres client not connected")
	}

	return nil, fmt.Errorf("postgres client does not expose DB() method")
}
