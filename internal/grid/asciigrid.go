package grid

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// DefaultNoData is written for NaN cells in ESRI ASCII grids.
const DefaultNoData = -9999.0

// WriteASCIIGrid writes r as an ESRI ASCII grid. Non-square cells use the
// dx/dy header variant.
func WriteASCIIGrid(w io.Writer, r *Raster) error {
	bw := bufio.NewWriter(w)
	minX, minY, _, _ := r.Bounds()
	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", r.Cols, r.Rows)
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", formatFloat(minX), formatFloat(minY))
	if r.CellW == r.CellH {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(r.CellW))
	} else {
		fmt.Fprintf(bw, "dx %s\ndy %s\n", formatFloat(r.CellW), formatFloat(r.CellH))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(DefaultNoData))

	for row := range r.Rows {
		for col := range r.Cols {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := r.Data[row*r.Cols+col]
			if math.IsNaN(v) {
				v = DefaultNoData
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// ReadASCIIGrid parses an ESRI ASCII grid. NODATA cells become NaN.
// The format carries no CRS, so the caller supplies it.
func ReadASCIIGrid(rd io.Reader, crs string) (*Raster, error) {
	sc := bufio.NewScanner(rd)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	sc.Split(bufio.ScanWords)

	header := map[string]float64{}
	var first string
	for sc.Scan() {
		tok := sc.Text()
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			first = tok
			break
		}
		key := strings.ToLower(tok)
		if !sc.Scan() {
			return nil, fmt.Errorf("ascii grid: header %q has no value", tok)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("ascii grid: header %q: %w", tok, err)
		}
		header[key] = v
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %w", err)
	}

	r := &Raster{CRS: crs, Cols: int(header["ncols"]), Rows: int(header["nrows"])}
	if r.Cols <= 0 || r.Rows <= 0 {
		return nil, errors.New("ascii grid: missing ncols or nrows")
	}
	if cs, ok := header["cellsize"]; ok {
		r.CellW, r.CellH = cs, cs
	} else {
		r.CellW, r.CellH = header["dx"], header["dy"]
	}
	if r.CellW <= 0 || r.CellH <= 0 {
		return nil, errors.New("ascii grid: missing cell size")
	}

	r.OriginX = header["xllcorner"]
	r.OriginY = header["yllcorner"] + float64(r.Rows)*r.CellH
	if x, ok := header["xllcenter"]; ok {
		r.OriginX = x - r.CellW/2
	}
	if y, ok := header["yllcenter"]; ok {
		r.OriginY = y - r.CellH/2 + float64(r.Rows)*r.CellH
	}
	noData, hasNoData := header["nodata_value"]

	r.Data = make([]float64, 0, r.Cols*r.Rows)
	parse := func(tok string) error {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return fmt.Errorf("ascii grid: cell %d: %w", len(r.Data), err)
		}
		if hasNoData && v == noData {
			v = math.NaN()
		}
		r.Data = append(r.Data, v)
		return nil
	}
	if first != "" {
		if err := parse(first); err != nil {
			return nil, err
		}
	}
	for sc.Scan() {
		if err := parse(sc.Text()); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ascii grid: %w", err)
	}
	if len(r.Data) != r.Cols*r.Rows {
		return nil, fmt.Errorf("%w: ascii grid has %d cells, want %d", ErrShape, len(r.Data), r.Cols*r.Rows)
	}
	return r, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
