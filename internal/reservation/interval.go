package reservation

import "time"

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Touching endpoints (one interval ending exactly
// when the other begins) do not overlap.
//
// This is the single tie-break rule for the whole engine; every conflict
// check, in SQL or in Go, must agree with it or the no-overlap invariant
// silently breaks at slot boundaries.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
