package scenario

import (
	"fmt"

	"github.com/google/uuid"
)

// ValidateScenario performs validation checks on a loaded scenario
func ValidateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("scenario description is required")
	}

	if s.Setup.User == "" {
		return fmt.Errorf("setup.user is required")
	}

	if _, err := uuid.Parse(s.Setup.User); err != nil {
		return fmt.Errorf("setup.user must be a UUID: %w", err)
	}

	if s.Setup.Device == "" {
		return fmt.Errorf("setup.device is required")
	}

	// Validate batches
	if err := validateBatches(s.Batches); err != nil {
		return fmt.Errorf("batches validation failed: %w", err)
	}

	// Validate wait periods
	if err := validateWaitPeriods(s.Wait); err != nil {
		return fmt.Errorf("wait periods validation failed: %w", err)
	}

	// Validate expectations
	if err := validateExpectations(s.Expectations); err != nil {
		return fmt.Errorf("expectations validation failed: %w", err)
	}

	// Validate test mode configuration
	if err := validateTestMode(s.TestMode); err != nil {
		return fmt.Errorf("test_mode validation failed: %w", err)
	}

	return nil
}

func validateBatches(batches []SampleBatch) error {
	if len(batches) == 0 {
		return fmt.Errorf("at least one batch is required")
	}

	for i, batch := range batches {
		if batch.Time < 0 {
			return fmt.Errorf("batch %d: time cannot be negative", i)
		}

		if batch.Count < 1 {
			return fmt.Errorf("batch %d: count must be >= 1", i)
		}

		if batch.IntervalMs < 1 {
			return fmt.Errorf("batch %d: interval_ms must be >= 1", i)
		}

		if batch.Cells < 1 {
			return fmt.Errorf("batch %d: cells must be >= 1", i)
		}

		if batch.Pressure < 0 {
			return fmt.Errorf("batch %d: pressure cannot be negative", i)
		}

		if batch.Pressure-abs(batch.Lean) < 0 {
			return fmt.Errorf("batch %d: lean drives pressure below zero", i)
		}

		if batch.Description == "" {
			return fmt.Errorf("batch %d: description is required", i)
		}
	}

	return nil
}

func validateWaitPeriods(waits []WaitPeriod) error {
	for i, wait := range waits {
		if wait.Time < 0 {
			return fmt.Errorf("wait period %d: time cannot be negative", i)
		}

		if wait.Description == "" {
			return fmt.Errorf("wait period %d: description is required", i)
		}
	}

	return nil
}

func validateExpectations(expectations map[string][]Expectation) error {
	if len(expectations) == 0 {
		return fmt.Errorf("at least one expectation is required")
	}

	for layer, exps := range expectations {
		if layer == "" {
			return fmt.Errorf("expectation layer name cannot be empty")
		}

		for i, exp := range exps {
			if exp.Time < 0 {
				return fmt.Errorf("layer %s, expectation %d: time cannot be negative", layer, i)
			}

			kinds := 0
			if exp.Topic != "" {
				kinds++
			}
			if exp.RedisKey != "" {
				kinds++
			}
			if exp.PostgresQuery != "" {
				kinds++
			}
			if kinds != 1 {
				return fmt.Errorf("layer %s, expectation %d: exactly one of topic, redis_key or postgres_query is required", layer, i)
			}

			// MQTT expectations need a payload to match against
			if exp.Topic != "" && len(exp.Payload) == 0 {
				return fmt.Errorf("layer %s, expectation %d: payload is required when topic is specified", layer, i)
			}

			// Redis expectations: a value comparison (hash field when
			// redis_field is set, plain string key otherwise) or a
			// sorted-set cardinality bound
			if exp.RedisKey != "" {
				hasValue := exp.Expected != ""
				hasCount := exp.MinCount > 0

				if hasValue == hasCount {
					return fmt.Errorf("layer %s, expectation %d: redis_key needs either expected or min_count", layer, i)
				}
			}

			// Postgres expectations
			if exp.PostgresQuery != "" && exp.PostgresExpected == nil {
				return fmt.Errorf("layer %s, expectation %d: postgres_expected is required when postgres_query is specified", layer, i)
			}
		}
	}

	return nil
}

func validateTestMode(tm *TestModeConfig) error {
	if tm == nil {
		return nil // test_mode is optional
	}

	if tm.TimeScale < 1 {
		return fmt.Errorf("time_scale must be >= 1 (got %d)", tm.TimeScale)
	}

	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
