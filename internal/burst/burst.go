// Package burst partitions time-ordered capture timestamps into burst
// groups: runs of shots taken within a fixed threshold of one another.
// The classifier works on plain millisecond timestamps only, never on
// photo objects, so it can run inline or on a worker without copying
// anything but numbers.
package burst

// DefaultThresholdMs is the inter-shot gap above which two photos are
// considered separate bursts. Product-tuned; override via config.
const DefaultThresholdMs int64 = 1500

// Boundaries classifies a sorted timestamp sequence into contiguous
// burst groups and returns the group boundary indices.
//
// The input must already be sorted ascending by the caller; Boundaries
// never sorts. The result always starts at 0 and ends at len(sortedMs)
// (a sentinel), so boundaries [b0, b1, ..., bk] describe k groups
// [b0,b1), [b1,b2), ... A new group opens wherever the gap between two
// adjacent timestamps exceeds thresholdMs.
//
// Empty input returns nil. A single element returns [0, 1]. The scan is
// a single left-to-right pass: O(n) time, no allocation beyond the
// result slice.
func Boundaries(sortedMs []int64, thresholdMs int64) []int {
	if len(sortedMs) == 0 {
		return nil
	}

	bounds := make([]int, 1, 2)
	bounds[0] = 0

	for i := 1; i < len(sortedMs); i++ {
		gap := sortedMs[i] - sortedMs[i-1]
		if gap < 0 {
			gap = -gap
		}
		if gap > thresholdMs {
			bounds = append(bounds, i)
		}
	}

	return append(bounds, len(sortedMs))
}
