package grid

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape is returned when two grids or a grid and its data disagree in size.
var ErrShape = errors.New("grid shape mismatch")

// Field is a 2-D grid of values on cell centres. Row i lies at northing Y[i],
// column j at easting X[j]; Values is row-major.
type Field struct {
	CRS    string
	X      []float64
	Y      []float64
	Values []float64
}

// NewField allocates a NaN-filled field on the given axes.
func NewField(crs string, x, y []float64) *Field {
	v := make([]float64, len(x)*len(y))
	for i := range v {
		v[i] = math.NaN()
	}
	return &Field{CRS: crs, X: x, Y: y, Values: v}
}

// At returns the value at row i, column j.
func (f *Field) At(i, j int) float64 { return f.Values[i*len(f.X)+j] }

// Set stores v at row i, column j.
func (f *Field) Set(i, j int, v float64) { f.Values[i*len(f.X)+j] = v }

// Validate checks that the value slice matches the axes.
func (f *Field) Validate() error {
	if len(f.X) == 0 || len(f.Y) == 0 {
		return fmt.Errorf("%w: empty axis", ErrShape)
	}
	if len(f.Values) != len(f.X)*len(f.Y) {
		return fmt.Errorf("%w: %d values for %dx%d grid", ErrShape, len(f.Values), len(f.Y), len(f.X))
	}
	return nil
}

// Raster materialises the field as a north-up raster. Axes must be evenly
// spaced; the northing axis may run in either direction.
func (f *Field) Raster() (*Raster, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	dx, err := spacing(f.X)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	dy, err := spacing(f.Y)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	// A single-cell axis borrows the other axis' spacing.
	switch {
	case dx == 0 && dy == 0:
		dx, dy = 1, 1
	case dx == 0:
		dx = math.Abs(dy)
	case dy == 0:
		dy = math.Abs(dx)
	}

	cols, rows := len(f.X), len(f.Y)
	r := &Raster{
		CRS:     f.CRS,
		Cols:    cols,
		Rows:    rows,
		CellW:   math.Abs(dx),
		CellH:   math.Abs(dy),
		OriginX: math.Min(f.X[0], f.X[cols-1]) - math.Abs(dx)/2,
		OriginY: math.Max(f.Y[0], f.Y[rows-1]) + math.Abs(dy)/2,
		Data:    make([]float64, cols*rows),
	}

	for i := range rows {
		ri := i
		if dy > 0 {
			ri = rows - 1 - i
		}
		for j := range cols {
			cj := j
			if dx < 0 {
				cj = cols - 1 - j
			}
			r.Data[ri*cols+cj] = f.At(i, j)
		}
	}
	return r, nil
}

// spacing returns the common step of an axis, or an error if uneven.
func spacing(axis []float64) (float64, error) {
	if len(axis) < 2 {
		return 0, nil
	}
	step := axis[1] - axis[0]
	if step == 0 {
		return 0, errors.New("repeated coordinate")
	}
	tol := math.Abs(step) * 1e-6
	for i := 2; i < len(axis); i++ {
		if math.Abs(axis[i]-axis[i-1]-step) > tol {
			return 0, fmt.Errorf("uneven spacing at index %d", i)
		}
	}
	return step, nil
}
