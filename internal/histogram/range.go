// Package histogram partitions ordered values into contiguous buckets.
//
// A single generic [Range] serves every axis used by the reports: float64
// readings, time.Duration inter-arrival gaps, and time.Time timestamps.
// Buckets are half-open [Start, End) except the last one, which is closed
// [Start, End] so the global maximum is always counted.
package histogram

import "slices"

// DefaultBuckets is the number of buckets in an equal-width histogram.
const DefaultBuckets = 20

// Range is one interval of a histogram axis.
type Range[T any] struct {
	Start T    `json:"start"`
	End   T    `json:"end"`
	Last  bool `json:"last"`
}

// Contains reports whether v lies in the range, ordering values with compare.
func (r Range[T]) Contains(v T, compare func(a, b T) int) bool {
	if compare(v, r.Start) < 0 {
		return false
	}
	c := compare(v, r.End)
	return c < 0 || (r.Last && c == 0)
}

// Bucket is a range together with the number of values that fell in it.
type Bucket[T any] struct {
	Range[T]
	Count int `json:"count"`
}

// Tally counts values against every range and returns the buckets ordered by
// Start. Values are sorted once and each range is counted with two binary
// searches, so overlapping ranges each see every value that falls in them.
func Tally[T any](ranges []Range[T], values []T, compare func(a, b T) int) []Bucket[T] {
	sorted := slices.Clone(values)
	slices.SortFunc(sorted, compare)

	buckets := make([]Bucket[T], len(ranges))
	for i, r := range ranges {
		buckets[i].Range = r
		lo, _ := slices.BinarySearchFunc(sorted, r.Start, compare)
		hi, _ := slices.BinarySearchFunc(sorted, r.End, compare)
		if r.Last {
			hi = upperBound(sorted, r.End, compare)
		}
		buckets[i].Count = max(hi-lo, 0)
	}
	slices.SortStableFunc(buckets, func(a, b Bucket[T]) int {
		return compare(a.Start, b.Start)
	})
	return buckets
}

// upperBound returns the index of the first element greater than target.
func upperBound[T any](sorted []T, target T, compare func(a, b T) int) int {
	i, _ := slices.BinarySearchFunc(sorted, target, func(v, t T) int {
		if compare(v, t) <= 0 {
			return -1
		}
		return 1
	})
	return i
}

// Total returns the sum of bucket counts.
func Total[T any](buckets []Bucket[T]) int {
	n := 0
	for _, b := range buckets {
		n += b.Count
	}
	return n
}
