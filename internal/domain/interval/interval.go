// Package interval implements value-type half-open time interval algebra.
//
// Every function returns fresh slices and never mutates its arguments.
package interval

import (
	"sort"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// New builds an Interval.
func New(start, end time.Time) Interval { return Interval{Start: start, End: end} }

// Empty reports whether the interval covers no time.
func (iv Interval) Empty() bool { return !iv.End.After(iv.Start) }

// Duration returns End-Start, or 0 for empty intervals.
func (iv Interval) Duration() time.Duration {
	if iv.Empty() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv Interval) Overlaps(o Interval) bool {
	return iv.Start.Before(o.End) && o.Start.Before(iv.End)
}

// Contains reports whether o lies entirely within iv.
func (iv Interval) Contains(o Interval) bool {
	return !o.Start.Before(iv.Start) && !o.End.After(iv.End)
}

// Intersect returns the common part of two intervals; ok is false when empty.
func (iv Interval) Intersect(o Interval) (Interval, bool) {
	out := Interval{Start: later(iv.Start, o.Start), End: earlier(iv.End, o.End)}
	return out, !out.Empty()
}

// Pad widens the interval by before and after.
func (iv Interval) Pad(before, after time.Duration) Interval {
	return Interval{Start: iv.Start.Add(-before), End: iv.End.Add(after)}
}

// Clip restricts the interval to bounds; ok is false when nothing remains.
func (iv Interval) Clip(bounds Interval) (Interval, bool) {
	return iv.Intersect(bounds)
}

// Sort returns a copy ordered by start, then end.
func Sort(in []Interval) []Interval {
	out := make([]Interval, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].End.Before(out[j].End)
	})
	return out
}

// Merge sorts the input and joins overlapping or touching intervals.
// Empty intervals are dropped.
func Merge(in []Interval) []Interval {
	sorted := Sort(in)
	out := make([]Interval, 0, len(sorted))
	for _, iv := range sorted {
		if iv.Empty() {
			continue
		}
		if n := len(out); n > 0 && !iv.Start.After(out[n-1].End) {
			if iv.End.After(out[n-1].End) {
				out[n-1].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract removes every block from base. blocks must be merged (sorted and
// disjoint); the result is sorted and disjoint.
func Subtract(base Interval, blocks []Interval) []Interval {
	if base.Empty() {
		return nil
	}
	out := make([]Interval, 0, len(blocks)+1)
	cursor := base.Start
	for _, b := range blocks {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(base.End) {
			break
		}
		if b.Start.After(cursor) {
			out = append(out, Interval{Start: cursor, End: b.Start})
		}
		cursor = later(cursor, b.End)
		if !cursor.Before(base.End) {
			return out
		}
	}
	if cursor.Before(base.End) {
		out = append(out, Interval{Start: cursor, End: base.End})
	}
	return out
}

// SubtractAll removes blocks from every base interval. bases must be disjoint.
func SubtractAll(bases, blocks []Interval) []Interval {
	merged := Merge(blocks)
	out := make([]Interval, 0, len(bases))
	for _, b := range Sort(bases) {
		out = append(out, Subtract(b, merged)...)
	}
	return out
}

// AtLeast keeps the intervals lasting at least min.
func AtLeast(in []Interval, min time.Duration) []Interval {
	out := make([]Interval, 0, len(in))
	for _, iv := range in {
		if !iv.Empty() && iv.Duration() >= min {
			out = append(out, iv)
		}
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
