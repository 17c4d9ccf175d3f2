package scheduler

import "time"

// Interval is a half-open time range [Start, End). Callers must ensure
// Start precedes End before handing an interval to the engine.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals share at least one
// instant. Touching endpoints (one interval ending exactly when the other
// begins) do not overlap.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// Intersect returns the overlapping portion of two intervals. The boolean is
// false when the intervals do not overlap.
func (i Interval) Intersect(other Interval) (Interval, bool) {
	if !i.Overlaps(other) {
		return Interval{}, false
	}

	start := i.Start
	if other.Start.After(start) {
		start = other.Start
	}
	end := i.End
	if other.End.Before(end) {
		end = other.End
	}

	return Interval{Start: start, End: end}, true
}

// Duration returns the length of the interval.
func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// Minutes returns the interval length in minutes with float precision, the
// unit exposed on conflict report payloads.
func (i Interval) Minutes() float64 {
	return i.Duration().Minutes()
}
