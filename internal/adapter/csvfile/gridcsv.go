package csvfile

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/heat-flex-etl/internal/grid"
)

// gridRow is one cell-day of a HadUK-Grid style long-format export.
type gridRow struct {
	Time  timestamp `csv:"time"`
	X     float64   `csv:"projection_x_coordinate"`
	Y     float64   `csv:"projection_y_coordinate"`
	Value nullFloat `csv:"value"`
}

// ReadSeries merges long-format grid files into one series. Cells missing
// from a day are NaN. Later files win where two rows share a cell-day.
func ReadSeries(crs string, paths ...string) (*grid.Series, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no grid files")
	}
	var rows []gridRow
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var part []gridRow
		if err := gocsv.UnmarshalBytes(bytes.TrimPrefix(data, utf8BOM), &part); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		rows = append(rows, part...)
	}
	return buildSeries(crs, rows), nil
}

func buildSeries(crs string, rows []gridRow) *grid.Series {
	xs := make([]float64, 0, len(rows))
	ys := make([]float64, 0, len(rows))
	ts := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		xs = append(xs, r.X)
		ys = append(ys, r.Y)
		ts = append(ts, r.Time.Time)
	}
	slices.Sort(xs)
	xs = slices.Compact(xs)
	slices.Sort(ys)
	ys = slices.Compact(ys)
	slices.SortFunc(ts, time.Time.Compare)
	ts = slices.CompactFunc(ts, time.Time.Equal)

	xi := indexOf(xs)
	yi := indexOf(ys)
	ti := make(map[int64]int, len(ts))
	for i, t := range ts {
		ti[t.UnixNano()] = i
	}

	s := &grid.Series{CRS: crs, X: xs, Y: ys, Times: ts, Slices: make([][]float64, len(ts))}
	for t := range s.Slices {
		v := make([]float64, len(xs)*len(ys))
		for i := range v {
			v[i] = math.NaN()
		}
		s.Slices[t] = v
	}
	for _, r := range rows {
		t := ti[r.Time.UnixNano()]
		s.Slices[t][yi[r.Y]*len(xs)+xi[r.X]] = float64(r.Value)
	}
	return s
}

func indexOf(axis []float64) map[float64]int {
	m := make(map[float64]int, len(axis))
	for i, v := range axis {
		m[v] = i
	}
	return m
}

// WriteSeries writes a series in long format, skipping NaN cells.
func WriteSeries(path string, s *grid.Series) error {
	var rows []gridRow
	for t, ts := range s.Times {
		for i, y := range s.Y {
			for j, x := range s.X {
				v := s.Slices[t][i*len(s.X)+j]
				if math.IsNaN(v) {
					continue
				}
				rows = append(rows, gridRow{Time: timestamp{ts}, X: x, Y: y, Value: nullFloat(v)})
			}
		}
	}
	return writeFile(path, &rows)
}

func writeFile(path string, rows any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := gocsv.MarshalFile(rows, f); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
