package region

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/heat-flex-etl/internal/grid"
)

// ErrUnresolvedRegions is returned when a fill pass makes no progress while
// regions are still missing a value.
var ErrUnresolvedRegions = errors.New("unresolved regions")

// UnresolvedError names the regions no fill pass could reach.
type UnresolvedError struct {
	Column string
	Keys   []string
}

func (e *UnresolvedError) Error() string {
	keys := e.Keys
	suffix := ""
	if len(keys) > 10 {
		keys, suffix = keys[:10], fmt.Sprintf(" and %d more", len(e.Keys)-10)
	}
	return fmt.Sprintf("%s: column %q: %s%s", ErrUnresolvedRegions, e.Column, strings.Join(keys, ", "), suffix)
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolvedRegions }

// Sampler attaches raster values to layer regions.
type Sampler struct {
	Workers int
	Logger  *slog.Logger
}

// NewSampler creates a sampler evaluating fill passes on up to workers
// goroutines.
func NewSampler(workers int, logger *slog.Logger) *Sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{Workers: workers, Logger: logger}
}

// Sample stores the raster value at each region's representative point in
// column, then fills the gaps from touching neighbours. It returns the
// number of fill passes run.
func (s *Sampler) Sample(ctx context.Context, l *Layer, r *grid.Raster, column string) (int, error) {
	if !sameCRS(l.CRS, r.CRS) {
		return 0, fmt.Errorf("%w: layer is %s, raster is %s", ErrCRSMismatch, l.CRS, r.CRS)
	}

	missing := 0
	for i, reg := range l.Regions {
		p := RepresentativePoint(reg.Geometry)
		v := r.Sample(p[0], p[1])
		if math.IsNaN(v) {
			missing++
		}
		l.SetValue(i, column, v)
	}
	s.Logger.Debug("raster sampled", "column", column, "regions", l.Len(), "missing", missing)

	return s.FillMissing(ctx, l, column)
}

// FillMissing replaces missing values in column with the mean of the
// region's touching neighbours that have one. Each pass reads the values of
// the previous generation only. A complete column takes zero passes.
func (s *Sampler) FillMissing(ctx context.Context, l *Layer, column string) (int, error) {
	current := l.Column(column)
	pending := missingIndexes(current)
	if len(pending) == 0 {
		return 0, nil
	}

	neighbours, err := s.neighbours(ctx, l, pending)
	if err != nil {
		return 0, err
	}

	passes := 0
	for len(pending) > 0 {
		next := make([]float64, len(pending))
		g, _ := errgroup.WithContext(ctx)
		g.SetLimit(s.Workers)
		for k, i := range pending {
			g.Go(func() error {
				next[k] = neighbourMean(current, neighbours[i])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return passes, err
		}
		passes++

		filled := make([]float64, len(current))
		copy(filled, current)
		var still []int
		for k, i := range pending {
			if math.IsNaN(next[k]) {
				still = append(still, i)
				continue
			}
			filled[i] = next[k]
		}

		if len(still) == len(pending) {
			keys := make([]string, len(still))
			for k, i := range still {
				keys[k] = l.Regions[i].Key
			}
			s.Logger.Error("regions unresolved", "column", column, "count", len(keys), "pass", passes)
			return passes, &UnresolvedError{Column: column, Keys: keys}
		}

		s.Logger.Info("replacing missing values", "column", column, "pass", passes,
			"filled", len(pending)-len(still), "remaining", len(still))
		current, pending = filled, still

		if err := ctx.Err(); err != nil {
			return passes, err
		}
	}

	return passes, l.SetColumn(column, current)
}

// neighbours finds the touching regions of each pending region.
func (s *Sampler) neighbours(ctx context.Context, l *Layer, pending []int) (map[int][]int, error) {
	found := make([][]int, len(pending))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Workers)
	for k, i := range pending {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			found[k] = touching(l, i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[int][]int, len(pending))
	for k, i := range pending {
		out[i] = found[k]
	}
	return out, nil
}

func touching(l *Layer, i int) []int {
	target := l.Regions[i]
	var out []int
	for j, other := range l.Regions {
		if j == i || !target.bound.Intersects(other.bound) {
			continue
		}
		if Touches(target.Geometry, other.Geometry) {
			out = append(out, j)
		}
	}
	return out
}

func neighbourMean(values []float64, neighbours []int) float64 {
	var sum float64
	n := 0
	for _, j := range neighbours {
		if v := values[j]; !math.IsNaN(v) {
			sum += v
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

func missingIndexes(values []float64) []int {
	var out []int
	for i, v := range values {
		if math.IsNaN(v) {
			out = append(out, i)
		}
	}
	return out
}
