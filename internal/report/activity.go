package report

import (
	"slices"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// activity holds the per-child counts shared by the network and gateway reports.
type activity struct {
	most  []string
	least []string
	ratio map[string]float64
}

// computeActivity groups measurements by groupBy and returns every code tied
// at the highest and lowest count, plus each code's percentage share.
func computeActivity(ms []domain.Measurement, groupBy func(domain.Measurement) string) activity {
	a := activity{most: []string{}, least: []string{}, ratio: map[string]float64{}}
	if len(ms) == 0 {
		return a
	}

	counts := make(map[string]int)
	for _, m := range ms {
		counts[groupBy(m)]++
	}

	hi, lo := 0, len(ms)
	for _, c := range counts {
		hi = max(hi, c)
		lo = min(lo, c)
	}

	total := float64(len(ms))
	for code, c := range counts {
		if c == hi {
			a.most = append(a.most, code)
		}
		if c == lo {
			a.least = append(a.least, code)
		}
		a.ratio[code] = 100 * float64(c) / total
	}
	slices.Sort(a.most)
	slices.Sort(a.least)
	return a
}
