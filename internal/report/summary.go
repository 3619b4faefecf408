// Package report turns analysis results into the per-day summaries the
// platform stores and serves: score statistics, activity labels, the
// posture embedding for similarity search, and their Postgres persistence.
package report

// neutralAverage is reported for days without a single score; 50 sits in
// the middle of the 0..100 score range.
const neutralAverage = 50.0

// ScoreSummary condenses a 1 Hz score sequence. Duration counts samples,
// which equals seconds at that cadence.
type ScoreSummary struct {
	Average  float64 `json:"average_score"`
	Duration uint32  `json:"duration"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
}

// Summarize computes the summary of a score sequence. Empty input yields
// the neutral average and zeroed bounds rather than an error, so a day
// without scores still produces a storable summary.
func Summarize(scores []float64) ScoreSummary {
	if len(scores) == 0 {
		return ScoreSummary{Average: neutralAverage}
	}

	sum := 0.0
	min, max := scores[0], scores[0]
	for _, s := range scores {
		sum += s
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}
	return ScoreSummary{
		Average:  sum / float64(len(scores)),
		Duration: uint32(len(scores)),
		Min:      min,
		Max:      max,
	}
}
