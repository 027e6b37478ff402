package domain

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultOutlierZ is the z-score above which a time constant is discarded.
const DefaultOutlierZ = 3.0

// RobustStats returns the mean and sample standard deviation of values after
// discarding those more than zLimit standard deviations from the mean. The
// rule is applied once against the statistics of the full set; survivors are
// not re-screened. Non-finite values are ignored. Returns NaN, NaN for empty
// input and a NaN deviation for a single value.
func RobustStats(values []float64, zLimit float64) (mean, std float64) {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN(), math.NaN()
	}
	if len(finite) == 1 {
		return finite[0], math.NaN()
	}

	m, s := stat.MeanStdDev(finite, nil)
	if s == 0 || math.IsNaN(s) {
		return m, s
	}

	kept := make([]float64, 0, len(finite))
	for _, v := range finite {
		if math.Abs((v-m)/s) > zLimit {
			continue
		}
		kept = append(kept, v)
	}
	if len(kept) == 1 {
		return kept[0], math.NaN()
	}
	return stat.MeanStdDev(kept, nil)
}
