// Package scheduling decides whether a lecturer timetable entry may exist
// next to the entries already stored: it owns the interval arithmetic, the
// per-resource conflict checks and the create/edit scoping policy.
package scheduling

import "cmp"

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Intervals that only touch (one ends exactly where the other begins) do not overlap.
func Overlaps[T cmp.Ordered](aStart, aEnd, bStart, bEnd T) bool {
	return aStart < bEnd && bStart < aEnd
}

// OverlapsFunc is Overlaps for types ordered by a strict less-than function,
// such as time.Time with Before.
func OverlapsFunc[T any](aStart, aEnd, bStart, bEnd T, less func(a, b T) bool) bool {
	return less(aStart, bEnd) && less(bStart, aEnd)
}
