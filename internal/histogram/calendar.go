package histogram

import (
	"errors"
	"fmt"
	"time"
)

// HourlySpanLimit is the longest span bucketed by hour; longer spans use days.
const HourlySpanLimit = 48 * time.Hour

// MaxCalendarSpan is the longest span a calendar histogram covers. At one
// bucket per day it bounds the histogram to about ten thousand buckets.
const MaxCalendarSpan = 10000 * 24 * time.Hour

// ErrSpanTooLong is returned for calendar spans longer than MaxCalendarSpan.
var ErrSpanTooLong = errors.New("histogram span too long")

// Unit is the step of a calendar histogram.
type Unit int

const (
	Hour Unit = iota
	Day
)

func (u Unit) String() string {
	if u == Day {
		return "day"
	}
	return "hour"
}

// UnitFor picks hourly buckets for spans up to HourlySpanLimit and daily
// buckets beyond it.
func UnitFor(start, end time.Time) Unit {
	if end.Sub(start) <= HourlySpanLimit {
		return Hour
	}
	return Day
}

// boundaryAfter returns the first calendar boundary strictly after t.
func (u Unit) boundaryAfter(t time.Time) time.Time {
	if u == Day {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, t.Location()).Add(time.Hour)
}

func (u Unit) step(t time.Time) time.Time {
	if u == Day {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(time.Hour)
}

// CalendarRanges partitions [start, end] into calendar buckets. The first
// bucket begins exactly at start and runs to the next hour or day boundary;
// later buckets advance one unit at a time. The last bucket is clamped to end
// and closed. A start after end yields no ranges; a span longer than
// MaxCalendarSpan yields ErrSpanTooLong.
func CalendarRanges(start, end time.Time, unit Unit) ([]Range[time.Time], error) {
	if start.After(end) {
		return nil, nil
	}
	// Sub saturates, so spans beyond the Duration range are rejected too.
	if span := end.Sub(start); span > MaxCalendarSpan {
		return nil, fmt.Errorf("%w: %s exceeds %s", ErrSpanTooLong, span, MaxCalendarSpan)
	}

	var ranges []Range[time.Time]
	current := start
	next := unit.boundaryAfter(start)
	for {
		if next.After(end) {
			next = end
		}
		ranges = append(ranges, Range[time.Time]{Start: current, End: next})
		if !next.Before(end) {
			break
		}
		current = next
		next = unit.step(current)
	}
	ranges[len(ranges)-1].Last = true
	return ranges, nil
}

// Calendar builds an adaptive time histogram of timestamps over [start, end].
func Calendar(start, end time.Time, timestamps []time.Time) ([]Bucket[time.Time], error) {
	ranges, err := CalendarRanges(start, end, UnitFor(start, end))
	if err != nil {
		return nil, err
	}
	return Tally(ranges, timestamps, time.Time.Compare), nil
}
