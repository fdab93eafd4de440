package report

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// Window is an optional, inclusive [Start, End] date filter. The raw strings
// are kept so reports echo the caller's input.
type Window struct {
	Start     time.Time
	End       time.Time
	HasStart  bool
	HasEnd    bool
	StartDate string
	EndDate   string
}

// ParseWindow parses optional start and end dates in the given layout. An
// empty string leaves that side of the window open.
func ParseWindow(layout, startDate, endDate string) (Window, error) {
	w := Window{StartDate: startDate, EndDate: endDate}
	if startDate != "" {
		t, err := domain.ParseTimestamp(layout, startDate)
		if err != nil {
			return Window{}, fmt.Errorf("start date: %w: %w", domain.ErrInvalidInput, err)
		}
		w.Start, w.HasStart = t, true
	}
	if endDate != "" {
		t, err := domain.ParseTimestamp(layout, endDate)
		if err != nil {
			return Window{}, fmt.Errorf("end date: %w: %w", domain.ErrInvalidInput, err)
		}
		w.End, w.HasEnd = t, true
	}
	return w, nil
}

// Includes reports whether t falls inside the window. Both bounds are inclusive.
func (w Window) Includes(t time.Time) bool {
	if w.HasStart && t.Before(w.Start) {
		return false
	}
	if w.HasEnd && t.After(w.End) {
		return false
	}
	return true
}

// selectMeasurements returns the measurements matching key within the window,
// preserving input order.
func selectMeasurements(ms []domain.Measurement, w Window, key func(domain.Measurement) bool) []domain.Measurement {
	var out []domain.Measurement
	for _, m := range ms {
		if key(m) && w.Includes(m.Timestamp) {
			out = append(out, m)
		}
	}
	return out
}
