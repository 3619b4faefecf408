package quality

import "testing"

// rows builds n copies of a clean 4-sensor row.
func rows(n int) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = []float64{10, -20, 30, -40}
	}
	return out
}

func TestAssessRowThreshold(t *testing.T) {
	tests := []struct {
		name        string
		left, right []float64
		suspect     bool
	}{
		{"all plausible", []float64{100, 200}, []float64{300, 400}, false},
		{"two implausible is tolerated", []float64{501, 502}, []float64{1, 2}, false},
		{"three implausible marks the row", []float64{501, 502}, []float64{503, 2}, true},
		{"exactly 500 is plausible", []float64{500, 500}, []float64{500, 500}, false},
		{"negative magnitudes count", []float64{-501, -502}, []float64{-600, 0}, true},
		{"split across sides", []float64{900, 1}, []float64{900, 900}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Assess([][]float64{tt.left}, [][]float64{tt.right})
			if r.Rows != 1 {
				t.Fatalf("Rows = %d, want 1", r.Rows)
			}
			if got := r.Suspect == 1; got != tt.suspect {
				t.Errorf("suspect = %v, want %v", got, tt.suspect)
			}
		})
	}
}

func TestLevelThresholds(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		suspect int
		want    Level
	}{
		{"clean", 100, 0, LevelOK},
		{"one percent exactly", 100, 1, LevelOK},
		{"above one percent", 100, 2, LevelSuspect},
		{"two percent exactly", 100, 2, LevelSuspect},
		{"above two percent", 100, 3, LevelBad},
		{"all suspect", 10, 10, LevelBad},
		{"empty recording", 0, 0, LevelBad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Report{Rows: tt.rows, Suspect: tt.suspect}
			if got := r.Level(); got != tt.want {
				t.Errorf("Level = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReason(t *testing.T) {
	if got := (Report{Rows: 0}).Reason(); got != "empty" {
		t.Errorf("empty reason = %q, want %q", got, "empty")
	}
	if got := (Report{Rows: 100, Suspect: 3}).Reason(); got != "3% faulty rows" {
		t.Errorf("reason = %q, want %q", got, "3% faulty rows")
	}
	if got := (Report{Rows: 100, Suspect: 0}).Reason(); got != "" {
		t.Errorf("clean reason = %q, want empty", got)
	}
}

func TestAssessCountsAcrossRecording(t *testing.T) {
	left := rows(50)
	right := rows(50)
	// Poison three rows on alternating sides.
	left[3] = []float64{600, 600, 600, 0}
	right[17] = []float64{-700, 700, -700, 700}
	left[40] = []float64{501, 501, 0, 0}
	right[40] = []float64{501, 0, 0, 0}

	r := Assess(left, right)
	if r.Rows != 50 {
		t.Errorf("Rows = %d, want 50", r.Rows)
	}
	if r.Suspect != 3 {
		t.Errorf("Suspect = %d, want 3", r.Suspect)
	}
	if got := r.Level(); got != LevelBad {
		t.Errorf("Level = %v, want %v", got, LevelBad)
	}
}

func TestAssessMismatchedSidesPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Assess(rows(2), rows(3))
}
