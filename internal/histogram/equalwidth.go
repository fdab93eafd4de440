package histogram

import (
	"cmp"
	"slices"
)

// Linear is an axis that supports subtraction and division, such as float64
// readings or time.Duration gaps.
type Linear interface {
	~float64 | ~int64
}

// EqualWidthRanges splits [min(values), max(values)] into n ranges of equal
// width. When every value is identical the width falls back to one unit (1.0
// for floats, 1ns for durations). The final range ends exactly at the maximum
// and is closed. An empty input yields no ranges.
func EqualWidthRanges[T Linear](values []T, n int) []Range[T] {
	if len(values) == 0 || n <= 0 {
		return nil
	}

	lo, hi := slices.Min(values), slices.Max(values)
	width := (hi - lo) / T(n)
	if width == 0 {
		width = 1
	}

	ranges := make([]Range[T], n)
	for i := range n {
		last := i == n-1
		end := lo + T(i+1)*width
		if last {
			end = hi
		}
		ranges[i] = Range[T]{Start: lo + T(i)*width, End: end, Last: last}
	}
	return ranges
}

// EqualWidth builds an n-bucket equal-width histogram of values.
func EqualWidth[T Linear](values []T, n int) []Bucket[T] {
	return Tally(EqualWidthRanges(values, n), values, cmp.Compare[T])
}
