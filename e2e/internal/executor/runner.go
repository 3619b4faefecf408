package executor

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mvirta/postura-platform/e2e/internal/checker"
	"github.com/mvirta/postura-platform/e2e/internal/observer"
	"github.com/mvirta/postura-platform/e2e/internal/reporter"
	"github.com/mvirta/postura-platform/e2e/internal/scenario"
)

// Runner orchestrates test scenario execution
type Runner struct {
	mqttBroker      string
	redisAddr       string
	postgresConn    string
	logger          *log.Logger
	observer        *observer.Observer
	player          *MQTTPlayer
	redisClient     *redis.Client
	postgresChecker *checker.PostgresChecker
}

// NewRunner creates a new test runner. An empty postgresConn skips
// database expectations entirely.
func NewRunner(mqttBroker, redisAddr, postgresConn string, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}

	return &Runner{
		mqttBroker:   mqttBroker,
		redisAddr:    redisAddr,
		postgresConn: postgresConn,
		logger:       logger,
	}
}

// layeredExpectation pairs an expectation with the layer it came from so
// checks across layers run in a single time-ordered pass
type layeredExpectation struct {
	layer string
	exp   scenario.Expectation
}

// Run executes a test scenario
func (r *Runner) Run(ctx context.Context, s *scenario.Scenario) (*scenario.TestResult, []reporter.TimelineEvent, error) {
	r.logger.Printf("Starting scenario: %s", s.Name)
	r.logger.Printf("Description: %s", s.Description)
	r.logger.Printf("Subject: user=%s device=%s", s.Setup.User, s.Setup.Device)

	timeScale := 1
	if s.TestMode != nil {
		timeScale = s.TestMode.TimeScale
		r.logger.Printf("Test mode enabled: time_scale=%dx", timeScale)
	}

	// Initialize connections
	if err := r.initialize(); err != nil {
		return nil, nil, fmt.Errorf("initialization failed: %w", err)
	}
	defer r.cleanup()

	// Wait for agents to start up
	r.logger.Printf("Waiting 5 seconds for agents to start up...")
	time.Sleep(5 * time.Second)

	// Start observer
	if err := r.observer.Start(); err != nil {
		return nil, nil, fmt.Errorf("failed to start observer: %w", err)
	}

	startTime := time.Now()
	var timelineEvents []reporter.TimelineEvent

	// Publish sample batches
	for _, batch := range s.Batches {
		waitUntil(startTime, batch.Time, timeScale)
		elapsed := elapsedSince(startTime)

		batchDesc := fmt.Sprintf("%d samples @ %dms on %s (%s)",
			batch.Count, batch.IntervalMs, batch.Device, batch.Description)

		r.logger.Printf("[%.2fs] Publishing batch: %s", elapsed, batchDesc)

		if err := r.player.PublishBatch(s.Setup, batch); err != nil {
			return nil, nil, fmt.Errorf("failed to publish batch: %w", err)
		}

		timelineEvents = append(timelineEvents, reporter.TimelineEvent{
			Elapsed:     elapsed,
			Layer:       "samples",
			Description: batchDesc,
			IsCheck:     false,
		})
	}

	// Honor explicit wait periods between the last batch and the checks
	for _, w := range s.Wait {
		waitUntil(startTime, w.Time, timeScale)
		r.logger.Printf("[%.2fs] Wait point: %s", elapsedSince(startTime), w.Description)
	}

	// Evaluate expectations in time order across all layers
	allExpectations := make([]layeredExpectation, 0)
	for layer, exps := range s.Expectations {
		for _, exp := range exps {
			allExpectations = append(allExpectations, layeredExpectation{layer: layer, exp: exp})
		}
	}
	sort.SliceStable(allExpectations, func(i, j int) bool {
		return allExpectations[i].exp.Time < allExpectations[j].exp.Time
	})

	var expectationResults []scenario.ExpectationResult

	for _, le := range allExpectations {
		waitUntil(startTime, le.exp.Time, timeScale)
		elapsed := elapsedSince(startTime)

		checkDesc := describeExpectation(le.exp)

		r.logger.Printf("[%.2fs] Checking expectation: %s - %s",
			elapsed, le.layer, checkDesc)

		var passed bool
		var reason string
		var actualPayload interface{}

		// Route to appropriate checker
		switch le.exp.Kind() {
		case "postgres":
			passed, reason, actualPayload = r.checkPostgresExpectation(le.exp)
		case "redis":
			passed, reason, actualPayload = checker.CheckRedisExpectation(ctx, r.redisClient, le.exp)
		default:
			messages := r.observer.GetAllMessages()
			passed, reason, actualPayload = checker.CheckMQTTExpectation(le.exp, messages)
		}

		result := scenario.ExpectationResult{
			Layer:         le.layer,
			Expectation:   le.exp,
			Passed:        passed,
			Reason:        reason,
			ActualPayload: actualPayload,
		}

		expectationResults = append(expectationResults, result)

		if passed {
			r.logger.Printf("[%.2fs] ✓ PASS", elapsed)
		} else {
			r.logger.Printf("[%.2fs] ✗ FAIL: %s", elapsed, reason)
		}

		timelineEvents = append(timelineEvents, reporter.TimelineEvent{
			Elapsed:     elapsed,
			Layer:       le.layer,
			Description: checkDesc,
			Success:     passed,
			IsCheck:     true,
		})
	}

	endTime := time.Now()

	// Calculate results
	passedCount := 0
	failedCount := 0
	for _, result := range expectationResults {
		if result.Passed {
			passedCount++
		} else {
			failedCount++
		}
	}

	testResult := &scenario.TestResult{
		Scenario:     s,
		StartTime:    startTime,
		EndTime:      endTime,
		Passed:       failedCount == 0,
		PassedCount:  passedCount,
		FailedCount:  failedCount,
		Expectations: expectationResults,
	}

	return testResult, timelineEvents, nil
}

// checkPostgresExpectation checks a Postgres query expectation
func (r *Runner) checkPostgresExpectation(exp scenario.Expectation) (bool, string, interface{}) {
	if r.postgresChecker == nil {
		return false, "postgres checker not configured, pass --postgres-dsn", nil
	}

	err := r.postgresChecker.CheckQuery(exp.PostgresQuery, exp.PostgresExpected)
	if err != nil {
		return false, fmt.Sprintf("postgres check failed: %v", err), nil
	}

	return true, "", exp.PostgresExpected
}

// describeExpectation renders a one-line label for logs and the timeline
func describeExpectation(exp scenario.Expectation) string {
	switch exp.Kind() {
	case "postgres":
		return "postgres query"
	case "redis":
		if exp.MinCount > 0 {
			return fmt.Sprintf("%s has >= %d members", exp.RedisKey, exp.MinCount)
		}
		if exp.RedisField != "" {
			return fmt.Sprintf("%s[%s]", exp.RedisKey, exp.RedisField)
		}
		return exp.RedisKey
	default:
		return exp.Topic
	}
}

// initialize sets up connections
func (r *Runner) initialize() error {
	// Create observer
	r.observer = observer.NewObserver(r.mqttBroker, r.logger)

	// Create MQTT player
	player, err := NewMQTTPlayer(r.mqttBroker, r.logger)
	if err != nil {
		return fmt.Errorf("failed to create MQTT player: %w", err)
	}
	r.player = player

	// Create Redis client
	r.redisClient = redis.NewClient(&redis.Options{
		Addr: r.redisAddr,
	})

	// Test Redis connection
	ctx := context.Background()
	if err := r.redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	r.logger.Printf("Connected to Redis at %s", r.redisAddr)

	// Create Postgres checker (if connection string provided)
	if r.postgresConn != "" {
		postgresChecker, err := checker.NewPostgresChecker(r.postgresConn, r.logger)
		if err != nil {
			return fmt.Errorf("failed to create Postgres checker: %w", err)
		}
		r.postgresChecker = postgresChecker
	}

	return nil
}

// cleanup closes all connections
func (r *Runner) cleanup() {
	if r.observer != nil {
		r.observer.Stop()
	}
	if r.player != nil {
		r.player.Close()
	}
	if r.redisClient != nil {
		r.redisClient.Close()
	}
	if r.postgresChecker != nil {
		r.postgresChecker.Close()
	}
}

// SaveCapture saves the MQTT capture to a file
func (r *Runner) SaveCapture(filename string) error {
	if r.observer == nil {
		return fmt.Errorf("observer not initialized")
	}
	return r.observer.SaveCapture(filename)
}

// waitUntil sleeps until a scenario timestamp, compressed by the time scale
func waitUntil(startTime time.Time, targetSeconds, timeScale int) {
	if timeScale < 1 {
		timeScale = 1
	}

	scaledSeconds := targetSeconds / timeScale
	targetTime := startTime.Add(time.Duration(scaledSeconds) * time.Second)
	now := time.Now()

	if now.Before(targetTime) {
		time.Sleep(targetTime.Sub(now))
	}
}

// elapsedSince returns elapsed seconds since start
func elapsedSince(startTime time.Time) float64 {
	return time.Since(startTime).Seconds()
}
