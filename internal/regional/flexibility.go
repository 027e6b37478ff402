package regional

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

// Winter temperature columns.
const (
	ColColdest          = "Coldest temperature"
	ColWarmest          = "Warmest temperature"
	ColComfortableHours = "Comfortable heat-free hours"
)

var quantileLabels = map[float64]string{
	0.05: "Fifth percentile temperature",
	0.2:  "First quartile temperature",
	0.4:  "Second quartile temperature",
	0.6:  "Third quartile temperature",
	0.8:  "Fourth quartile temperature",
}

// QuantileColumn names the column holding the q-quantile winter temperature.
func QuantileColumn(q float64) string {
	if label, ok := quantileLabels[q]; ok {
		return label
	}
	return strconv.FormatFloat(q*100, 'g', -1, 64) + "th percentile temperature"
}

// HeatFreeColumn names the heat-free hours derived from a temperature column.
func HeatFreeColumn(temperature string) string { return temperature + " heat-free hours" }

// Comfort bounds the indoor temperatures of a heat-free period.
type Comfort struct {
	Start          float64
	Min            float64
	UniformOutdoor float64
}

// WinterMean averages daily maximum and minimum temperatures and keeps
// December, January and February.
func WinterMean(tasmax, tasmin *grid.Series) (*grid.Series, error) {
	mean, err := grid.MeanOf(tasmax, tasmin)
	if err != nil {
		return nil, fmt.Errorf("mean temperature: %w", err)
	}
	winter := mean.Months(time.December, time.January, time.February)
	if winter.Len() == 0 {
		return nil, fmt.Errorf("no winter days in %d days of temperature data", mean.Len())
	}
	return winter, nil
}

// Flexibility samples the coldest, quantile and warmest winter temperatures
// onto l and turns the cold ones into heat-free hours using the layer's
// thermal time constants.
func (s *Stage) Flexibility(ctx context.Context, l *region.Layer, winter *grid.Series, quantiles []float64, c Comfort) error {
	defer s.observe("flexibility", time.Now())

	if !l.HasColumn(ColTimeConstant) {
		return fmt.Errorf("layer %s: missing column %q", l.IndexKey, ColTimeConstant)
	}

	cold := []string{ColColdest}
	if err := s.Assign(ctx, winter.Min(), ColColdest, l); err != nil {
		return err
	}
	for _, q := range quantiles {
		column := QuantileColumn(q)
		if err := s.Assign(ctx, winter.Quantile(q), column, l); err != nil {
			return err
		}
		cold = append(cold, column)
	}
	if err := s.Assign(ctx, winter.Max(), ColWarmest, l); err != nil {
		return err
	}

	for i := range l.Regions {
		tau := l.Value(i, ColTimeConstant)
		for _, column := range cold {
			l.SetValue(i, HeatFreeColumn(column), heatFree(tau, l.Value(i, column), c))
		}
		l.SetValue(i, ColComfortableHours, heatFree(tau, c.UniformOutdoor, c))
	}

	s.logger.Info("heat-free hours computed", "layer", l.IndexKey, "regions", l.Len(), "temperatures", len(cold))
	return nil
}

func heatFree(tau, outdoor float64, c Comfort) float64 {
	h := domain.HeatFreeHours(tau, outdoor, c.Start, c.Min)
	if math.IsInf(h, 0) {
		return math.NaN()
	}
	return h
}
