package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "heatflex"

// Metrics holds the Prometheus counters, histograms, and gauges for the pipeline stages.
type Metrics struct {
	BuildingsProcessed *prometheus.CounterVec // labels: outcome={estimated,no_heat_pump,no_intervals,error}
	IntervalsFitted    prometheus.Counter
	FitFailures        prometheus.Counter
	EstimatesLoaded    *prometheus.CounterVec // labels: sink
	PipelineRunning    prometheus.Gauge

	// Regional stages.
	FillPasses        *prometheus.CounterVec // labels: column
	UnresolvedRegions prometheus.Counter
	StageDuration     *prometheus.HistogramVec // labels: stage
	BuildingDuration  prometheus.Histogram
	RegionsSampled    prometheus.Counter
}

func newMetrics() *Metrics {
	return &Metrics{
		BuildingsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buildings_processed_total",
			Help:      "Buildings run through time-constant estimation, by outcome.",
		}, []string{"outcome"}),
		IntervalsFitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "intervals_fitted_total",
			Help:      "Cooling intervals passed to the decay fitter.",
		}),
		FitFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fit_failures_total",
			Help:      "Cooling intervals the decay fitter rejected.",
		}),
		EstimatesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_loaded_total",
			Help:      "Estimates written, by sink.",
		}, []string{"sink"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a pipeline run is active, 0 otherwise.",
		}),
		FillPasses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fill_passes_total",
			Help:      "Neighbour fill passes run while sampling gridded fields onto regions.",
		}, []string{"column"}),
		UnresolvedRegions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "unresolved_regions_total",
			Help:      "Regions left without a value after neighbour filling stalled.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of a pipeline stage.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}, []string{"stage"}),
		BuildingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "building_duration_seconds",
			Help:      "Time to estimate one building's time constants.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		RegionsSampled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "regions_sampled_total",
			Help:      "Region values assigned from gridded fields.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.BuildingsProcessed,
		m.IntervalsFitted,
		m.FitFailures,
		m.EstimatesLoaded,
		m.PipelineRunning,
		m.FillPasses,
		m.UnresolvedRegions,
		m.StageDuration,
		m.BuildingDuration,
		m.RegionsSampled,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
