package regional

import (
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

// Heating loss columns.
const (
	ColDemandTotal  = "Mean household gas space heating demand 2017-2021"
	ColHDDTotal     = "Total gas HDDs 2017-2021"
	ColLosses       = "Mean gas heating losses 2017-2021 (kW/C)"
	ColCapacity     = "Thermal capacity (kWh/C)"
	ColTimeConstant = "Thermal time constant [h]"
)

// ConsumptionColumn names a year's mean gas consumption per meter.
func ConsumptionColumn(year int) string {
	return fmt.Sprintf("%d Mean consumption (kWh per meter) gas demand", year)
}

// SpaceHeatingColumn names a year's space-heating share of that consumption.
func SpaceHeatingColumn(year int) string {
	return fmt.Sprintf("%d Mean space heating gas demand (kWh per meter)", year)
}

// HeatLossInputs carries the tabular inputs of the heating loss stage.
// Capacity is optional.
type HeatLossInputs struct {
	Consumption map[int]map[string]float64 // year -> region -> kWh per meter
	Shares      map[int]float64            // year -> space heating / total
	Capacity    map[string]float64         // region -> kWh/°C
}

// HeatLosses derives each region's heating loss coefficient from gas
// space-heating demand and the gas-year HDD columns, and its thermal time
// constant when capacities are given. Regions without consumption for every
// year are dropped, as are regions without a capacity. Sums propagate NaN.
func (s *Stage) HeatLosses(l *region.Layer, years []GasYear, in HeatLossInputs) error {
	defer s.observe("heatloss", time.Now())

	for _, gy := range years {
		if !l.HasColumn(HDDColumn(gy.Year)) {
			return fmt.Errorf("layer %s: missing column %q", l.IndexKey, HDDColumn(gy.Year))
		}
		consumption, ok := in.Consumption[gy.Year]
		if !ok {
			return fmt.Errorf("no gas consumption for %d", gy.Year)
		}
		share, ok := in.Shares[gy.Year]
		if !ok {
			return fmt.Errorf("no space heating share for %d", gy.Year)
		}

		before := l.Len()
		l.JoinInner(ConsumptionColumn(gy.Year), consumption)
		if dropped := before - l.Len(); dropped > 0 {
			s.logger.Warn("regions without gas consumption dropped",
				"layer", l.IndexKey, "year", gy.Year, "dropped", dropped)
		}
		for i := range l.Regions {
			l.SetValue(i, SpaceHeatingColumn(gy.Year), l.Value(i, ConsumptionColumn(gy.Year))*share)
		}
	}

	for i := range l.Regions {
		var demand, hdd float64
		if len(years) == 0 {
			demand, hdd = math.NaN(), math.NaN()
		}
		for _, gy := range years {
			demand += l.Value(i, SpaceHeatingColumn(gy.Year))
			hdd += l.Value(i, HDDColumn(gy.Year))
		}
		l.SetValue(i, ColDemandTotal, demand)
		l.SetValue(i, ColHDDTotal, hdd)
		l.SetValue(i, ColLosses, domain.HeatingLosses(demand, hdd))
	}

	if in.Capacity != nil {
		before := l.Len()
		l.JoinInner(ColCapacity, in.Capacity)
		s.logger.Info("thermal capacities joined", "layer", l.IndexKey, "regions", l.Len(), "dropped", before-l.Len())
		for i := range l.Regions {
			l.SetValue(i, ColTimeConstant, domain.TimeConstant(l.Value(i, ColCapacity), l.Value(i, ColLosses)))
		}
	}

	s.logger.Info("heating losses computed", "layer", l.IndexKey, "regions", l.Len())
	return nil
}
