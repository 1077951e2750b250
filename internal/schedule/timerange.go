// Package schedule holds the time arithmetic shared by the reservation and
// timeline packages.
package schedule

import (
	"fmt"
	"time"
)

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange builds a range without validating it; see Valid.
func NewTimeRange(start, end time.Time) TimeRange {
	return TimeRange{Start: start, End: end}
}

// Valid reports whether End is strictly after Start.
func (r TimeRange) Valid() bool {
	return r.End.After(r.Start)
}

// Duration is End - Start. It is negative for inverted ranges.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// Empty reports whether the range contains no instant.
func (r TimeRange) Empty() bool {
	return !r.Valid()
}

// Overlaps reports whether r and other share at least one instant.
// Touching ranges (one ends exactly when the other starts) do not overlap,
// and an empty range overlaps nothing.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return Overlaps(r, other)
}

// Overlaps is the single overlap predicate: a.Start < b.End && a.End > b.Start.
func Overlaps(a, b TimeRange) bool {
	if a.Empty() || b.Empty() {
		return false
	}
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

// Clamp returns the part of r inside [windowStart, windowEnd).
// ok is false when the intersection is empty.
func (r TimeRange) Clamp(windowStart, windowEnd time.Time) (clamped TimeRange, ok bool) {
	return ClampToWindow(r, windowStart, windowEnd)
}

// ClampToWindow intersects r with [windowStart, windowEnd).
func ClampToWindow(r TimeRange, windowStart, windowEnd time.Time) (TimeRange, bool) {
	start := r.Start
	if windowStart.After(start) {
		start = windowStart
	}
	end := r.End
	if windowEnd.Before(end) {
		end = windowEnd
	}
	out := TimeRange{Start: start, End: end}
	if out.Empty() {
		return TimeRange{}, false
	}
	return out, true
}

// DaySpan returns the calendar days touched by r, as [midnight of Start's day,
// midnight after the day containing the last instant of r). Location is Start's.
func (r TimeRange) DaySpan() TimeRange {
	loc := r.Start.Location()
	first := StartOfDay(r.Start)
	last := r.End.In(loc)
	if r.Valid() {
		last = last.Add(-time.Nanosecond)
	}
	return TimeRange{Start: first, End: StartOfDay(last).AddDate(0, 0, 1)}
}

func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Day returns the full calendar day containing t.
func Day(t time.Time) TimeRange {
	start := StartOfDay(t)
	return TimeRange{Start: start, End: start.AddDate(0, 0, 1)}
}
