package regional

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

// Stage samples reduced climate fields onto region layers.
type Stage struct {
	sampler   *region.Sampler
	logger    *slog.Logger
	metrics   *observability.Metrics
	exportDir string
}

// NewStage creates a Stage. When exportDir is non-empty every sampled field
// is also written there as an ESRI ASCII grid.
func NewStage(sampler *region.Sampler, logger *slog.Logger, metrics *observability.Metrics, exportDir string) *Stage {
	return &Stage{
		sampler:   sampler,
		logger:    logger,
		metrics:   metrics,
		exportDir: exportDir,
	}
}

// Assign samples f into column on every layer.
func (s *Stage) Assign(ctx context.Context, f *grid.Field, column string, layers ...*region.Layer) error {
	r, err := f.Raster()
	if err != nil {
		return fmt.Errorf("rasterise %s: %w", column, err)
	}
	if s.exportDir != "" {
		if err := s.export(r, column); err != nil {
			return err
		}
	}

	for _, l := range layers {
		passes, err := s.sampler.Sample(ctx, l, r, column)
		s.metrics.FillPasses.WithLabelValues(column).Add(float64(passes))
		if err != nil {
			var unresolved *region.UnresolvedError
			if errors.As(err, &unresolved) {
				s.metrics.UnresolvedRegions.Add(float64(len(unresolved.Keys)))
			}
			return fmt.Errorf("sample %s onto %s regions: %w", column, l.IndexKey, err)
		}
		s.metrics.RegionsSampled.Add(float64(l.Len()))
		s.logger.Info("column assigned", "column", column, "layer", l.IndexKey,
			"regions", l.Len(), "fill_passes", passes)
	}
	return nil
}

func (s *Stage) export(r *grid.Raster, column string) error {
	path := filepath.Join(s.exportDir, FileName(column)+".asc")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create grid export: %w", err)
	}
	if err := grid.WriteASCIIGrid(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write grid export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close grid export: %w", err)
	}
	s.logger.Debug("grid exported", "column", column, "path", path)
	return nil
}

func (s *Stage) observe(stage string, start time.Time) {
	s.metrics.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// FileName turns a column name into a file-system friendly stem.
func FileName(column string) string {
	var b strings.Builder
	underscore := false
	for _, r := range column {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
