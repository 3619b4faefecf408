// Package segment partitions sampling timestamps into contiguous activity
// blocks. A block is a maximal window of samples with no internal idle gap
// above the configured threshold; the gaps themselves are dropped.
package segment

import (
	"errors"
	"sort"
	"time"

	"github.com/mvirta/postura-platform/internal/timeline"
)

// DefaultMaxGap is the idle gap that closes an activity block. Posture
// devices stream continuously while worn, so ten silent seconds mean the
// shirt was taken off or lost its connection.
const DefaultMaxGap = 10 * time.Second

// ErrInsufficientData reports a timestamp sequence too short to segment.
// Gap detection needs at least two samples.
var ErrInsufficientData = errors.New("segment: need at least two samples")

// Blocks partitions timestamps into activity blocks separated by idle gaps
// longer than maxGap. The input is sorted into a copy first, so callers keep
// their ordering. Returned blocks are ascending, non-overlapping, and their
// endpoints are always drawn from the input timestamps. Duplicate timestamps
// are legal and may produce zero-length block boundaries.
func Blocks(timestamps []timeline.Timestamp, maxGap time.Duration) ([]timeline.Span, error) {
	if len(timestamps) < 2 {
		return nil, ErrInsufficientData
	}

	sorted := make([]timeline.Timestamp, len(timestamps))
	copy(sorted, timestamps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	gap := timeline.Timestamp(maxGap.Milliseconds())

	var blocks []timeline.Span
	start := sorted[0]
	for i := 1; i < len(sorted); i++ {
		if sorted[i]-sorted[i-1] > gap {
			blocks = append(blocks, timeline.Span{Begin: start, End: sorted[i-1]})
			start = sorted[i]
		}
	}
	// The final block always closes at the last timestamp.
	blocks = append(blocks, timeline.Span{Begin: start, End: sorted[len(sorted)-1]})

	return blocks, nil
}
