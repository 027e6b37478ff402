package grid

import (
	"fmt"
	"math"
	"slices"
	"time"
)

// Series is a time stack of fields sharing one grid. Slices[t] holds the
// row-major values for Times[t].
type Series struct {
	CRS    string
	X      []float64
	Y      []float64
	Times  []time.Time
	Slices [][]float64
}

// Len returns the number of time slices.
func (s *Series) Len() int { return len(s.Times) }

// Cells returns the number of grid cells per slice.
func (s *Series) Cells() int { return len(s.X) * len(s.Y) }

// Validate checks the time axis and slice sizes.
func (s *Series) Validate() error {
	if len(s.Times) != len(s.Slices) {
		return fmt.Errorf("%w: %d times for %d slices", ErrShape, len(s.Times), len(s.Slices))
	}
	n := s.Cells()
	for t, v := range s.Slices {
		if len(v) != n {
			return fmt.Errorf("%w: slice %d has %d values, want %d", ErrShape, t, len(v), n)
		}
	}
	return nil
}

// Field returns slice t as a field. The values are shared, not copied.
func (s *Series) Field(t int) *Field {
	return &Field{CRS: s.CRS, X: s.X, Y: s.Y, Values: s.Slices[t]}
}

func (s *Series) selectTimes(keep func(time.Time) bool) *Series {
	out := &Series{CRS: s.CRS, X: s.X, Y: s.Y}
	for t, ts := range s.Times {
		if keep(ts) {
			out.Times = append(out.Times, ts)
			out.Slices = append(out.Slices, s.Slices[t])
		}
	}
	return out
}

// Window keeps the slices with from <= time <= to.
func (s *Series) Window(from, to time.Time) *Series {
	return s.selectTimes(func(t time.Time) bool {
		return !t.Before(from) && !t.After(to)
	})
}

// Months keeps the slices whose calendar month is one of months.
func (s *Series) Months(months ...time.Month) *Series {
	return s.selectTimes(func(t time.Time) bool {
		return slices.Contains(months, t.Month())
	})
}

// MeanOf returns the cellwise mean of two series on the same grid and
// time axis, such as (tasmax + tasmin) / 2.
func MeanOf(a, b *Series) (*Series, error) {
	if a.CRS != b.CRS {
		return nil, fmt.Errorf("%w: crs %q and %q", ErrShape, a.CRS, b.CRS)
	}
	if !slices.Equal(a.X, b.X) || !slices.Equal(a.Y, b.Y) {
		return nil, fmt.Errorf("%w: axes differ", ErrShape)
	}
	if !slices.EqualFunc(a.Times, b.Times, time.Time.Equal) {
		return nil, fmt.Errorf("%w: time axes differ", ErrShape)
	}
	out := &Series{CRS: a.CRS, X: a.X, Y: a.Y, Times: a.Times, Slices: make([][]float64, len(a.Slices))}
	for t := range a.Slices {
		v := make([]float64, len(a.Slices[t]))
		for i := range v {
			v[i] = (a.Slices[t][i] + b.Slices[t][i]) / 2
		}
		out.Slices[t] = v
	}
	return out, nil
}

// Reduce collapses the time axis with fn, called once per cell with that
// cell's values in time order; fn may reorder the slice. Any NaN in a cell's history makes it NaN
// without calling fn.
func (s *Series) Reduce(fn func([]float64) float64) *Field {
	f := NewField(s.CRS, s.X, s.Y)
	buf := make([]float64, s.Len())
	for i := range f.Values {
		nan := false
		for t, v := range s.Slices {
			if math.IsNaN(v[i]) {
				nan = true
				break
			}
			buf[t] = v[i]
		}
		if nan {
			continue
		}
		f.Values[i] = fn(buf)
	}
	return f
}
