package grid

import "math"

// Raster is a north-up grid anchored at its upper-left corner.
// Row 0 is the northernmost row.
type Raster struct {
	CRS     string
	Cols    int
	Rows    int
	OriginX float64 // western edge
	OriginY float64 // northern edge
	CellW   float64
	CellH   float64
	Data    []float64
}

// Index returns the row and column containing (x, y) and whether the point
// falls inside the raster. Points on a cell's western or northern edge belong
// to that cell.
func (r *Raster) Index(x, y float64) (row, col int, ok bool) {
	col = int(math.Floor((x - r.OriginX) / r.CellW))
	row = int(math.Floor((r.OriginY - y) / r.CellH))
	if col < 0 || col >= r.Cols || row < 0 || row >= r.Rows {
		return 0, 0, false
	}
	return row, col, true
}

// Sample returns the value at (x, y), NaN outside coverage.
func (r *Raster) Sample(x, y float64) float64 {
	row, col, ok := r.Index(x, y)
	if !ok {
		return math.NaN()
	}
	return r.Data[row*r.Cols+col]
}

// Bounds returns the raster extent as min x, min y, max x, max y.
func (r *Raster) Bounds() (minX, minY, maxX, maxY float64) {
	return r.OriginX, r.OriginY - float64(r.Rows)*r.CellH, r.OriginX + float64(r.Cols)*r.CellW, r.OriginY
}
