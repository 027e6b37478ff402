package pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
)

// BuildingSource lists and loads per-building sensor exports.
type BuildingSource interface {
	Paths(ctx context.Context) ([]string, error)
	Load(ctx context.Context, path string) (domain.Building, error)
}

// Transformer estimates one building's time constants.
type Transformer interface {
	Transform(ctx context.Context, b domain.Building) (domain.BuildingResult, error)
}

// BatchLoader writes the finished estimates table to a destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, estimates []domain.Estimate) error
}

// NamedLoader pairs a loader with the sink label used in logs and metrics.
type NamedLoader struct {
	Name   string
	Loader BatchLoader
}

// Pipeline runs the building time-constant batch: extract every building,
// transform them on a bounded worker pool, then load the ordered table into
// each sink.
type Pipeline struct {
	source      BuildingSource
	transformer Transformer
	loaders     []NamedLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	workers     int

	ready atomic.Bool
	total atomic.Int64
	done  atomic.Int64
}

// New creates a Pipeline with the given stages and observability.
func New(s BuildingSource, t Transformer, loaders []NamedLoader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{
		source:      s,
		transformer: t,
		loaders:     loaders,
		logger:      logger,
		metrics:     metrics,
		workers:     workers,
	}
}

// CheckReadiness returns nil once a run has loaded its results.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Status reports progress through the current run.
func (p *Pipeline) Status() any {
	return map[string]any{
		"buildings_total": p.total.Load(),
		"buildings_done":  p.done.Load(),
		"ready":           p.ready.Load(),
	}
}

// Run processes every building and loads the estimates. Any read or load
// failure aborts the run; a building without usable data yields NaN
// estimates rather than an error.
func (p *Pipeline) Run(ctx context.Context) ([]domain.Estimate, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	paths, err := p.source.Paths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	p.total.Store(int64(len(paths)))
	p.done.Store(0)
	p.logger.Info("pipeline started", "buildings", len(paths), "workers", p.workers)

	results := make([][]domain.Estimate, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range paths {
		g.Go(func() error {
			est, err := p.process(gctx, path)
			if err != nil {
				return err
			}
			results[i] = est
			p.done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	estimates := slices.Concat(results...)
	slices.SortStableFunc(estimates, func(a, b domain.Estimate) int {
		return cmp.Or(
			cmp.Compare(a.BuildingID, b.BuildingID),
			cmp.Compare(a.MinDurationMinutes, b.MinDurationMinutes),
		)
	})

	for _, l := range p.loaders {
		if err := l.Loader.LoadBatch(ctx, estimates); err != nil {
			p.logger.Error("load estimates failed", "sink", l.Name, "error", err)
			return nil, fmt.Errorf("load %s: %w", l.Name, err)
		}
		p.metrics.EstimatesLoaded.WithLabelValues(l.Name).Add(float64(len(estimates)))
		p.logger.Info("estimates loaded", "sink", l.Name, "rows", len(estimates))
	}

	p.metrics.StageDuration.WithLabelValues("eoh").Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	p.logger.Info("pipeline finished", "buildings", len(paths), "rows", len(estimates), "elapsed", time.Since(start))
	return estimates, nil
}

func (p *Pipeline) process(ctx context.Context, path string) ([]domain.Estimate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	b, err := p.source.Load(ctx, path)
	if err != nil {
		p.metrics.BuildingsProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("load building: %w", err)
	}

	res, err := p.transformer.Transform(ctx, b)
	if err != nil {
		p.metrics.BuildingsProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("building %s: %w", b.ID, err)
	}

	p.metrics.BuildingDuration.Observe(time.Since(start).Seconds())
	return res.Estimates, nil
}
