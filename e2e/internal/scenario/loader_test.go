package scenario

import (
	"strings"
	"testing"
)

const validScenario = `
name: morning-sitting
description: Two hours at the desk with light movement
setup:
  user: 7a9e4c1d-52f3-4b8a-9d6e-0c2b1a3f5e7d
  device: chair-01
test_mode:
  time_scale: 10
batches:
  - time: 0
    count: 120
    pressure: 140
    sway: 8
    description: Steady sitting with light movement
wait:
  - time: 10
    description: Let the analysis tick run
expectations:
  collector:
    - time: 15
      redis_key: posture:device:chair-01
      redis_field: user
      expected: 7a9e4c1d-52f3-4b8a-9d6e-0c2b1a3f5e7d
    - time: 15
      redis_key: posture:samples:7a9e4c1d-52f3-4b8a-9d6e-0c2b1a3f5e7d
      min_count: 100
  analysis:
    - time: 30
      postgres_query: SELECT count(*) FROM day_summaries
      postgres_expected: "1"
`

func TestLoadScenarioFromBytes(t *testing.T) {
	s, err := LoadScenarioFromBytes([]byte(validScenario))
	if err != nil {
		t.Fatalf("LoadScenarioFromBytes failed: %v", err)
	}

	if s.Name != "morning-sitting" {
		t.Errorf("name = %q", s.Name)
	}
	if s.Setup.Device != "chair-01" {
		t.Errorf("setup.device = %q", s.Setup.Device)
	}
	if s.TestMode == nil || s.TestMode.TimeScale != 10 {
		t.Errorf("test_mode not loaded: %+v", s.TestMode)
	}
	if len(s.Batches) != 1 {
		t.Fatalf("expected 1 batch, got %d", len(s.Batches))
	}

	// Defaults filled in before validation
	b := s.Batches[0]
	if b.Device != "chair-01" {
		t.Errorf("batch device default = %q", b.Device)
	}
	if b.Cells != 3 {
		t.Errorf("batch cells default = %d", b.Cells)
	}
	if b.IntervalMs != 1000 {
		t.Errorf("batch interval default = %d", b.IntervalMs)
	}

	if len(s.Expectations["collector"]) != 2 {
		t.Errorf("collector expectations = %d", len(s.Expectations["collector"]))
	}
	if got := s.Expectations["analysis"][0].Kind(); got != "postgres" {
		t.Errorf("expectation kind = %q", got)
	}
}

func TestLoadScenarioRejectsBroken(t *testing.T) {
	cases := []struct {
		name    string
		mangle  func(string) string
		wantErr string
	}{
		{
			name:    "missing user",
			mangle:  func(s string) string { return strings.Replace(s, "user: 7a9e4c1d-52f3-4b8a-9d6e-0c2b1a3f5e7d", "user: \"\"", 1) },
			wantErr: "setup.user is required",
		},
		{
			name:    "user not a uuid",
			mangle:  func(s string) string { return strings.Replace(s, "user: 7a9e4c1d-52f3-4b8a-9d6e-0c2b1a3f5e7d", "user: chair-owner", 1) },
			wantErr: "must be a UUID",
		},
		{
			name:    "zero count",
			mangle:  func(s string) string { return strings.Replace(s, "count: 120", "count: 0", 1) },
			wantErr: "count must be >= 1",
		},
		{
			name:    "no expectations",
			mangle:  func(s string) string { return strings.Split(s, "expectations:")[0] },
			wantErr: "at least one expectation",
		},
		{
			name:    "bad time scale",
			mangle:  func(s string) string { return strings.Replace(s, "time_scale: 10", "time_scale: 0", 1) },
			wantErr: "time_scale must be >= 1",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenarioFromBytes([]byte(tc.mangle(validScenario)))
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestExpectationKindRouting(t *testing.T) {
	cases := []struct {
		exp  Expectation
		want string
	}{
		{Expectation{Topic: "posture/sample/chair-01/u"}, "mqtt"},
		{Expectation{RedisKey: "posture:watermark:u"}, "redis"},
		{Expectation{PostgresQuery: "SELECT 1"}, "postgres"},
	}

	for _, tc := range cases {
		if got := tc.exp.Kind(); got != tc.want {
			t.Errorf("Kind() = %q, want %q", got, tc.want)
		}
	}
}
