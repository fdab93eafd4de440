package report

import (
	"fmt"
	"time"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/histogram"
)

// NetworkReport summarizes gateway activity across one network.
type NetworkReport struct {
	Code                 string                        `json:"code"`
	StartDate            string                        `json:"start_date,omitempty"`
	EndDate              string                        `json:"end_date,omitempty"`
	NumberOfMeasurements int                           `json:"number_of_measurements"`
	MostActiveGateways   []string                      `json:"most_active_gateways"`
	LeastActiveGateways  []string                      `json:"least_active_gateways"`
	GatewaysLoadRatio    map[string]float64            `json:"gateways_load_ratio"`
	Histogram            []histogram.Bucket[time.Time] `json:"histogram"`
}

// BuildNetworkReport computes gateway activity and a calendar histogram over
// the measurements of the network with the given code that fall inside w.
//
// The histogram covers the window bounds, falling back to the earliest and
// latest measurement for any open side. Spans up to 48 hours are bucketed by
// hour, longer spans by day. A span longer than histogram.MaxCalendarSpan is
// rejected with domain.ErrInvalidInput.
func BuildNetworkReport(code string, w Window, all []domain.Measurement) (NetworkReport, error) {
	ms := selectMeasurements(all, w, func(m domain.Measurement) bool { return m.NetworkCode == code })
	act := computeActivity(ms, func(m domain.Measurement) string { return m.GatewayCode })

	r := NetworkReport{
		Code:                 code,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		NumberOfMeasurements: len(ms),
		MostActiveGateways:   act.most,
		LeastActiveGateways:  act.least,
		GatewaysLoadRatio:    act.ratio,
		Histogram:            []histogram.Bucket[time.Time]{},
	}

	start, end, ok := effectiveSpan(w, ms)
	if !ok {
		return r, nil
	}
	ts := make([]time.Time, len(ms))
	for i, m := range ms {
		ts[i] = m.Timestamp
	}
	buckets, err := histogram.Calendar(start, end, ts)
	if err != nil {
		return NetworkReport{}, fmt.Errorf("network %q: %w: %w", code, domain.ErrInvalidInput, err)
	}
	r.Histogram = buckets
	return r, nil
}

// effectiveSpan resolves the histogram bounds. ok is false when either bound
// is undefined or the bounds are reversed.
func effectiveSpan(w Window, ms []domain.Measurement) (start, end time.Time, ok bool) {
	var first, last time.Time
	for i, m := range ms {
		if i == 0 || m.Timestamp.Before(first) {
			first = m.Timestamp
		}
		if i == 0 || m.Timestamp.After(last) {
			last = m.Timestamp
		}
	}

	switch {
	case w.HasStart:
		start = w.Start
	case len(ms) > 0:
		start = first
	default:
		return start, end, false
	}
	switch {
	case w.HasEnd:
		end = w.End
	case len(ms) > 0:
		end = last
	default:
		return start, end, false
	}
	return start, end, !start.After(end)
}
