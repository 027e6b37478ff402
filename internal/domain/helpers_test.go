package domain

import (
	"math"
	"time"
)

var testStart = time.Date(2021, time.January, 10, 22, 0, 0, 0, time.UTC)

// decaySeries builds n readings at the given cadence following
// A·exp(-t/tau) + outdoor with the heat pump idle throughout.
func decaySeries(start time.Time, n int, step time.Duration, a float64, tau time.Duration, outdoor float64) []Reading {
	rs := make([]Reading, n)
	for i := range rs {
		t := time.Duration(i) * step
		rs[i] = Reading{
			Time:           start.Add(t),
			Internal:       a*math.Exp(-t.Seconds()/tau.Seconds()) + outdoor,
			External:       outdoor,
			HeatPumpOutput: 1520.5,
			FlowTemp:       30,
			Boiler:         math.NaN(),
			Backup:         math.NaN(),
			Immersion:      math.NaN(),
		}
	}
	return rs
}

func defaultCriteria(minSamples int) Criteria {
	return Criteria{
		MaxGap:          DefaultMaxGap,
		MinSamples:      minSamples,
		MinTempGap:      5,
		MaxOutdoorRange: 2,
	}
}
