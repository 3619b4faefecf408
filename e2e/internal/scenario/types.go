package scenario

import "time"

// Scenario represents a complete E2E test scenario
type Scenario struct {
	Name         string                   `yaml:"name"`
	Description  string                   `yaml:"description"`
	Setup        SetupConfig              `yaml:"setup"`
	TestMode     *TestModeConfig          `yaml:"test_mode,omitempty"`
	Batches      []SampleBatch            `yaml:"batches"`
	Wait         []WaitPeriod             `yaml:"wait"`
	Expectations map[string][]Expectation `yaml:"expectations"`
}

// SetupConfig defines the chair and wearer a scenario exercises
type SetupConfig struct {
	User   string `yaml:"user"`   // subject UUID
	Device string `yaml:"device"` // chair identifier, e.g. "chair-01"
}

// TestModeConfig compresses scenario time so long sittings replay quickly
type TestModeConfig struct {
	TimeScale int `yaml:"time_scale"` // 1 = real time, 10 = 10x faster
}

// SampleBatch describes a burst of posture samples to publish during the test.
// Sample timestamps are logical: they start at StartMs (wall clock when zero)
// and advance by IntervalMs per sample, regardless of publish pacing.
type SampleBatch struct {
	Time        int    `yaml:"time"`               // Seconds from start
	Device      string `yaml:"device,omitempty"`   // Overrides setup.device
	Count       int    `yaml:"count"`              // Number of samples
	IntervalMs  int    `yaml:"interval_ms"`        // Timestamp spacing
	StartMs     int64  `yaml:"start_ms,omitempty"` // Timestamp base, 0 = now
	Cells       int    `yaml:"cells,omitempty"`    // Cells per strip, default 3
	Pressure    int    `yaml:"pressure"`           // Per-cell pressure reading
	Lean        int    `yaml:"lean,omitempty"`     // Left/right pressure bias
	Sway        int    `yaml:"sway,omitempty"`     // Accelerometer X amplitude
	Description string `yaml:"description"`
}

// WaitPeriod represents a pause in the scenario
type WaitPeriod struct {
	Time        int    `yaml:"time"` // Seconds from start
	Description string `yaml:"description"`
}

// Expectation represents an expected outcome to verify. Exactly one of
// Topic, RedisKey or PostgresQuery selects the checker.
type Expectation struct {
	Time    int                    `yaml:"time"`              // Seconds from start
	Topic   string                 `yaml:"topic,omitempty"`   // MQTT topic
	Payload map[string]interface{} `yaml:"payload,omitempty"` // Expected payload (supports special matchers)

	// Redis state checks: a hash field comparison, or a sorted-set
	// cardinality lower bound when MinCount is set
	RedisKey   string `yaml:"redis_key,omitempty"`
	RedisField string `yaml:"redis_field,omitempty"`
	Expected   string `yaml:"expected,omitempty"`
	MinCount   int    `yaml:"min_count,omitempty"`

	// Postgres state checks
	PostgresQuery    string      `yaml:"postgres_query,omitempty"`
	PostgresExpected interface{} `yaml:"postgres_expected,omitempty"`
}

// Kind returns which checker an expectation routes to
func (e *Expectation) Kind() string {
	switch {
	case e.PostgresQuery != "":
		return "postgres"
	case e.RedisKey != "":
		return "redis"
	default:
		return "mqtt"
	}
}

// TestResult represents the outcome of running a scenario
type TestResult struct {
	Scenario     *Scenario
	StartTime    time.Time
	EndTime      time.Time
	Passed       bool
	PassedCount  int
	FailedCount  int
	Expectations []ExpectationResult
}

// ExpectationResult represents the result of checking a single expectation
type ExpectationResult struct {
	Layer         string
	Expectation   Expectation
	Passed        bool
	Reason        string
	ActualPayload interface{}
}
