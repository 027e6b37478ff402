package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// HDD sums heating degree days over the series: max(threshold - T, 0) per
// slice.
func (s *Series) HDD(threshold float64) *Field {
	return s.Reduce(func(v []float64) float64 {
		var sum float64
		for _, t := range v {
			sum += math.Max(threshold-t, 0)
		}
		return sum
	})
}

// Min returns the cellwise minimum over time.
func (s *Series) Min() *Field {
	return s.Reduce(func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return floats.Min(v)
	})
}

// Max returns the cellwise maximum over time.
func (s *Series) Max() *Field {
	return s.Reduce(func(v []float64) float64 {
		if len(v) == 0 {
			return math.NaN()
		}
		return floats.Max(v)
	})
}

// Quantile returns the cellwise q-quantile over time.
func (s *Series) Quantile(q float64) *Field {
	return s.Reduce(func(v []float64) float64 {
		return Quantile(q, v)
	})
}

// Quantile returns the q-quantile of values using linear interpolation
// between closest ranks, position q*(n-1). values is sorted in place.
// Empty input or q outside [0, 1] yields NaN.
func Quantile(q float64, values []float64) float64 {
	n := len(values)
	if n == 0 || q < 0 || q > 1 || math.IsNaN(q) {
		return math.NaN()
	}
	sort.Float64s(values)
	pos := q * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return values[lo]
	}
	frac := pos - float64(lo)
	return values[lo] + (values[hi]-values[lo])*frac
}
