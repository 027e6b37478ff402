package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
)

// EstimateTransformer implements Transformer with the domain estimation
// routine, logging rejected fits and recording outcome metrics.
type EstimateTransformer struct {
	params  domain.EstimateParams
	fitter  domain.Fitter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewTransformer creates an EstimateTransformer.
func NewTransformer(params domain.EstimateParams, fitter domain.Fitter, logger *slog.Logger, metrics *observability.Metrics) *EstimateTransformer {
	return &EstimateTransformer{
		params:  params,
		fitter:  fitter,
		logger:  logger,
		metrics: metrics,
	}
}

func (t *EstimateTransformer) Transform(ctx context.Context, b domain.Building) (domain.BuildingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.BuildingResult{}, err
	}

	res := domain.EstimateTimeConstants(b, t.params, t.fitter)

	for _, fo := range res.Fits {
		if fo.Err != nil {
			t.logger.Warn("interval fit rejected",
				"building", b.ID, "start", fo.Start, "samples", fo.Samples, "error", fo.Err)
		}
	}
	failed := res.FailedFits()
	t.metrics.IntervalsFitted.Add(float64(len(res.Fits)))
	t.metrics.FitFailures.Add(float64(failed))

	outcome := "estimated"
	switch {
	case !b.Signals.HeatPump:
		outcome = "no_heat_pump"
		t.logger.Info("no heat pump output signal, estimates are NaN", "building", b.ID)
	case len(res.Fits) == failed:
		outcome = "no_intervals"
		t.logger.Info("no usable cooling intervals", "building", b.ID, "failed_fits", failed)
	default:
		t.logger.Debug("building estimated", "building", b.ID, "intervals", len(res.Fits), "failed_fits", failed)
	}
	t.metrics.BuildingsProcessed.WithLabelValues(outcome).Inc()

	return res, nil
}
