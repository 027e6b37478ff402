package csvfile

import (
	"context"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

type estimateRow struct {
	BuildingID  string    `csv:"building_id"`
	MinDuration int       `csv:"min_duration_minutes"`
	MeanTau     nullFloat `csv:"mean_tau_h"`
	StdTau      nullFloat `csv:"std_tau_h"`
	Intervals   int       `csv:"intervals"`
	FitFailures int       `csv:"fit_failures"`
	ComputedAt  timestamp `csv:"computed_at"`
}

func toRow(e domain.Estimate) estimateRow {
	return estimateRow{
		BuildingID:  e.BuildingID,
		MinDuration: e.MinDurationMinutes,
		MeanTau:     nullFloat(e.MeanTauHours),
		StdTau:      nullFloat(e.StdTauHours),
		Intervals:   e.Intervals,
		FitFailures: e.FitFailures,
		ComputedAt:  timestamp{e.ComputedAt},
	}
}

func (r estimateRow) estimate() domain.Estimate {
	return domain.Estimate{
		BuildingID:         r.BuildingID,
		MinDurationMinutes: r.MinDuration,
		MeanTauHours:       float64(r.MeanTau),
		StdTauHours:        float64(r.StdTau),
		Intervals:          r.Intervals,
		FitFailures:        r.FitFailures,
		ComputedAt:         r.ComputedAt.Time,
	}
}

// WriteEstimates writes the estimates table. NaN time constants are blank.
func WriteEstimates(w io.Writer, estimates []domain.Estimate) error {
	rows := make([]estimateRow, len(estimates))
	for i, e := range estimates {
		rows[i] = toRow(e)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("encode estimates: %w", err)
	}
	return nil
}

// ReadEstimates parses a table written by WriteEstimates.
func ReadEstimates(r io.Reader) ([]domain.Estimate, error) {
	var rows []estimateRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode estimates: %w", err)
	}
	out := make([]domain.Estimate, len(rows))
	for i, row := range rows {
		out[i] = row.estimate()
	}
	return out, nil
}

// EstimateWriter is a pipeline loader that writes the estimates table to a
// file once the run completes.
type EstimateWriter struct {
	path string
}

// NewEstimateWriter creates a loader targeting path.
func NewEstimateWriter(path string) *EstimateWriter {
	return &EstimateWriter{path: path}
}

// LoadBatch writes the full table, replacing any previous file.
func (w *EstimateWriter) LoadBatch(_ context.Context, estimates []domain.Estimate) error {
	rows := make([]estimateRow, len(estimates))
	for i, e := range estimates {
		rows[i] = toRow(e)
	}
	return writeFile(w.path, &rows)
}

// Close is a no-op; the file is closed after each write.
func (w *EstimateWriter) Close() error { return nil }
