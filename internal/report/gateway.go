package report

import (
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/histogram"
)

// GatewayReport summarizes the activity of the sensors behind one gateway.
type GatewayReport struct {
	Code                    string                            `json:"code"`
	StartDate               string                            `json:"start_date,omitempty"`
	EndDate                 string                            `json:"end_date,omitempty"`
	NumberOfMeasurements    int                               `json:"number_of_measurements"`
	MostActiveSensors       []string                          `json:"most_active_sensors"`
	LeastActiveSensors      []string                          `json:"least_active_sensors"`
	SensorsLoadRatio        map[string]float64                `json:"sensors_load_ratio"`
	OutlierSensors          []string                          `json:"outlier_sensors"`
	BatteryChargePercentage float64                           `json:"battery_charge_percentage"`
	Histogram               []histogram.Bucket[time.Duration] `json:"histogram"`
}

// BuildGatewayReport computes activity statistics over the measurements
// recorded through gw that fall inside w.
func BuildGatewayReport(gw domain.Gateway, w Window, all []domain.Measurement) GatewayReport {
	ms := selectMeasurements(all, w, func(m domain.Measurement) bool { return m.GatewayCode == gw.Code })
	act := computeActivity(ms, func(m domain.Measurement) string { return m.SensorCode })

	r := GatewayReport{
		Code:                 gw.Code,
		StartDate:            w.StartDate,
		EndDate:              w.EndDate,
		NumberOfMeasurements: len(ms),
		MostActiveSensors:    act.most,
		LeastActiveSensors:   act.least,
		SensorsLoadRatio:     act.ratio,
		OutlierSensors:       outlierSensors(gw, ms),
		Histogram:            []histogram.Bucket[time.Duration]{},
	}
	if p, ok := gw.Parameter(domain.ParamBatteryCharge); ok {
		r.BatteryChargePercentage = p.Value
	}
	if gaps := interArrivals(ms); len(gaps) > 0 {
		r.Histogram = histogram.EqualWidth(gaps, histogram.DefaultBuckets)
	}
	return r
}

// outlierSensors flags sensors whose mean reading lies at least two expected
// standard deviations from the gateway's expected mean. Both parameters must
// be configured on the gateway.
func outlierSensors(gw domain.Gateway, ms []domain.Measurement) []string {
	out := []string{}
	expMean, okMean := gw.Parameter(domain.ParamExpectedMean)
	expStd, okStd := gw.Parameter(domain.ParamExpectedStdDev)
	if !okMean || !okStd {
		return out
	}

	bySensor := make(map[string][]float64)
	for _, m := range ms {
		bySensor[m.SensorCode] = append(bySensor[m.SensorCode], m.Value)
	}
	for code, values := range bySensor {
		if isOutlier(stat.Mean(values, nil), expMean.Value, expStd.Value) {
			out = append(out, code)
		}
	}
	slices.Sort(out)
	return out
}

// interArrivals returns the gaps between consecutive timestamps after sorting
// the measurements chronologically. Fewer than two measurements yield none.
func interArrivals(ms []domain.Measurement) []time.Duration {
	if len(ms) < 2 {
		return nil
	}
	ts := make([]time.Time, len(ms))
	for i, m := range ms {
		ts[i] = m.Timestamp
	}
	slices.SortFunc(ts, time.Time.Compare)

	gaps := make([]time.Duration, len(ts)-1)
	for i := range gaps {
		gaps[i] = ts[i+1].Sub(ts[i])
	}
	return gaps
}
