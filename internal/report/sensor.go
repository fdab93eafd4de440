package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/histogram"
)

// SensorReport summarizes the readings of one sensor.
type SensorReport struct {
	Code                 string                      `json:"code"`
	StartDate            string                      `json:"start_date,omitempty"`
	EndDate              string                      `json:"end_date,omitempty"`
	NumberOfMeasurements int                         `json:"number_of_measurements"`
	Mean                 float64                     `json:"mean"`
	Variance             float64                     `json:"variance"`
	StdDev               float64                     `json:"std_dev"`
	MinimumMeasuredValue float64                     `json:"minimum_measured_value"`
	MaximumMeasuredValue float64                     `json:"maximum_measured_value"`
	Outliers             []domain.Measurement        `json:"outliers"`
	Histogram            []histogram.Bucket[float64] `json:"histogram"`
}

// BuildSensorReport computes statistics over the measurements of the sensor
// with the given code that fall inside w.
//
// Variance is the sample variance. A reading is an outlier when it lies at
// least two standard deviations from the mean; outliers are listed but left
// out of the value histogram.
func BuildSensorReport(code string, w Window, all []domain.Measurement) SensorReport {
	ms := selectMeasurements(all, w, func(m domain.Measurement) bool { return m.SensorCode == code })

	r := SensorReport{
		Code:                 code,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		NumberOfMeasurements: len(ms),
		Outliers:             []domain.Measurement{},
		Histogram:            []histogram.Bucket[float64]{},
	}
	if len(ms) == 0 {
		return r
	}

	values := make([]float64, len(ms))
	for i, m := range ms {
		values[i] = m.Value
	}

	r.Mean = stat.Mean(values, nil)
	r.MinimumMeasuredValue = values[0]
	r.MaximumMeasuredValue = values[0]
	for _, v := range values[1:] {
		r.MinimumMeasuredValue = min(r.MinimumMeasuredValue, v)
		r.MaximumMeasuredValue = max(r.MaximumMeasuredValue, v)
	}

	inliers := values
	if len(ms) >= 2 {
		r.Variance = sampleVariance(values, r.Mean)
		r.StdDev = math.Sqrt(r.Variance)

		inliers = make([]float64, 0, len(values))
		for i, m := range ms {
			if isOutlier(m.Value, r.Mean, r.StdDev) {
				r.Outliers = append(r.Outliers, m)
				continue
			}
			inliers = append(inliers, values[i])
		}
	}

	if len(inliers) > 0 {
		r.Histogram = histogram.EqualWidth(inliers, histogram.DefaultBuckets)
	}
	return r
}

// sampleVariance is Σ(x−mean)²/(n−1) against the given mean. Repeated readings
// that are not exactly representable keep a tiny non-zero spread here instead
// of collapsing to zero.
func sampleVariance(values []float64, mean float64) float64 {
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss / float64(len(values)-1)
}

func isOutlier(v, mean, stdDev float64) bool {
	return math.Abs(v-mean) >= 2*stdDev
}
