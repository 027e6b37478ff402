package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultFilter() FilterParams {
	return FilterParams{MaxOutdoorTemp: 15.5, MaxStepDrop: 5}
}

func heatPumpBuilding(rs []Reading) Building {
	return Building{ID: "EOH0001", Signals: Signals{HeatPump: true, FlowTemp: true}, Readings: rs}
}

func TestHeatOff_DropsFirstReadingOfEachDifferencingStage(t *testing.T) {
	rs := decaySeries(testStart, 20, time.Minute, 12, 4*time.Hour, 4)

	out := HeatOff(heatPumpBuilding(rs), defaultFilter())
	require.Len(t, out, 17)
	assert.Equal(t, rs[3].Time, out[0].Time)
}

func TestHeatOff_NoHeatPumpSignal(t *testing.T) {
	rs := decaySeries(testStart, 20, time.Minute, 12, 4*time.Hour, 4)
	b := Building{ID: "EOH0002", Readings: rs}
	assert.Nil(t, HeatOff(b, defaultFilter()))
}

func TestHeatOff_Conditions(t *testing.T) {
	tests := []struct {
		name    string
		signals Signals
		mutate  func(rs []Reading)
		dropped time.Time
	}{
		{
			name:    "heat pump running",
			signals: Signals{HeatPump: true, FlowTemp: true},
			mutate: func(rs []Reading) {
				for i := 10; i < len(rs); i++ {
					rs[i].HeatPumpOutput += 0.1
				}
			},
			dropped: testStart.Add(10 * time.Minute),
		},
		{
			name:    "flow temperature rising",
			signals: Signals{HeatPump: true, FlowTemp: true},
			mutate: func(rs []Reading) {
				for i := 10; i < len(rs); i++ {
					rs[i].FlowTemp = 35
				}
			},
			dropped: testStart.Add(10 * time.Minute),
		},
		{
			name:    "boiler firing",
			signals: Signals{HeatPump: true, FlowTemp: true, Boiler: true},
			mutate: func(rs []Reading) {
				for i := range rs {
					rs[i].Boiler = 50
				}
				for i := 10; i < len(rs); i++ {
					rs[i].Boiler = 51
				}
			},
			dropped: testStart.Add(10 * time.Minute),
		},
		{
			name:    "missing heat pump output",
			signals: Signals{HeatPump: true, FlowTemp: true},
			mutate:  func(rs []Reading) { rs[10].HeatPumpOutput = math.NaN() },
			dropped: testStart.Add(10 * time.Minute),
		},
		{
			name:    "warm outdoors",
			signals: Signals{HeatPump: true, FlowTemp: true},
			mutate:  func(rs []Reading) { rs[10].External = 15.5 },
			dropped: testStart.Add(10 * time.Minute),
		},
		{
			name:    "indoor warming",
			signals: Signals{HeatPump: true, FlowTemp: true},
			mutate:  func(rs []Reading) { rs[10].Internal = rs[9].Internal + 0.5 },
			dropped: testStart.Add(10 * time.Minute),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rs := decaySeries(testStart, 20, time.Minute, 12, 4*time.Hour, 4)
			tc.mutate(rs)

			out := HeatOff(Building{ID: "EOH0003", Signals: tc.signals, Readings: rs}, defaultFilter())
			for _, r := range out {
				assert.NotEqual(t, tc.dropped, r.Time)
			}
		})
	}
}

func TestHeatOff_SuddenDrop(t *testing.T) {
	rs := decaySeries(testStart, 20, time.Minute, 12, 4*time.Hour, 4)
	for i := 10; i < len(rs); i++ {
		rs[i].Internal -= 6
	}
	// Outdoor must stay below indoor after the drop.
	for i := range rs {
		rs[i].External = 0
	}

	out := HeatOff(heatPumpBuilding(rs), defaultFilter())
	for _, r := range out {
		assert.NotEqual(t, rs[10].Time, r.Time)
	}
	assert.Len(t, out, 16)
}

func TestHeatOff_Seasons(t *testing.T) {
	rs := decaySeries(time.Date(2021, time.April, 30, 23, 50, 0, 0, time.UTC), 20, time.Minute, 12, 4*time.Hour, 4)
	p := defaultFilter()
	p.Seasons = []Season{{
		From: time.Date(2020, time.November, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2021, time.May, 1, 0, 0, 0, 0, time.UTC),
	}}

	out := HeatOff(heatPumpBuilding(rs), p)
	require.NotEmpty(t, out)
	for _, r := range out {
		assert.True(t, r.Time.Before(p.Seasons[0].To))
	}
	assert.Len(t, out, 7)
}
