package domain

import (
	"math"
	"time"
)

// Reading is one row of a building's sensor export. Missing values are NaN.
type Reading struct {
	Time           time.Time
	Internal       float64 // indoor air temperature, °C
	External       float64 // outdoor air temperature, °C
	HeatPumpOutput float64 // cumulative kWh
	FlowTemp       float64 // heat-pump flow temperature, °C
	Boiler         float64 // cumulative kWh
	Backup         float64 // cumulative kWh
	Immersion      float64 // cumulative kWh
}

// Signals records which optional columns a building's export carries.
type Signals struct {
	HeatPump  bool
	FlowTemp  bool
	Boiler    bool
	Backup    bool
	Immersion bool
}

// Building is one property's full, time-ordered reading history.
type Building struct {
	ID       string
	Signals  Signals
	Readings []Reading
}

// Interval is a contiguous run of readings with no gap above the break
// threshold. It aliases the building's reading slice and must not be mutated.
type Interval struct {
	Readings []Reading
}

// Len returns the number of readings in the interval.
func (iv Interval) Len() int { return len(iv.Readings) }

// Start returns the time of the first reading.
func (iv Interval) Start() time.Time {
	if len(iv.Readings) == 0 {
		return time.Time{}
	}
	return iv.Readings[0].Time
}

// Elapsed returns seconds since the first reading for every reading.
func (iv Interval) Elapsed() []float64 {
	out := make([]float64, len(iv.Readings))
	start := iv.Start()
	for i, r := range iv.Readings {
		out[i] = r.Time.Sub(start).Seconds()
	}
	return out
}

// Internal returns the indoor temperature column.
func (iv Interval) Internal() []float64 {
	out := make([]float64, len(iv.Readings))
	for i, r := range iv.Readings {
		out[i] = r.Internal
	}
	return out
}

// External returns the outdoor temperature column.
func (iv Interval) External() []float64 {
	out := make([]float64, len(iv.Readings))
	for i, r := range iv.Readings {
		out[i] = r.External
	}
	return out
}

// Estimate is a building's outlier-filtered time constant for one minimum
// interval duration. Mean and Std are NaN when nothing could be fitted.
type Estimate struct {
	BuildingID         string    `json:"building_id"`
	MinDurationMinutes int       `json:"min_duration_minutes"`
	MeanTauHours       float64   `json:"mean_tau_h"`
	StdTauHours        float64   `json:"std_tau_h"`
	Intervals          int       `json:"intervals"`
	FitFailures        int       `json:"fit_failures"`
	ComputedAt         time.Time `json:"computed_at"`
}

// Valid reports whether the estimate carries a finite mean time constant.
func (e Estimate) Valid() bool {
	return !math.IsNaN(e.MeanTauHours) && !math.IsInf(e.MeanTauHours, 0)
}
