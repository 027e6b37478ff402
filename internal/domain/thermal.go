package domain

import "math"

// Comfort window used for heat-free hours.
const (
	DefaultComfortStart   = 21.0
	DefaultComfortMin     = 18.0
	DefaultUniformOutdoor = 5.0
)

// HeatFreeHours returns how long a home with time constant tauHours takes to
// cool from start to minimum indoor temperature at a fixed outdoor temperature.
// NaN when the outdoor temperature is at or above the minimum.
func HeatFreeHours(tauHours, outdoor, start, minimum float64) float64 {
	if outdoor >= minimum {
		return math.NaN()
	}
	return -tauHours * math.Log((minimum-outdoor)/(start-outdoor))
}

// HeatingLosses converts seasonal space-heating demand (kWh) and heating
// degree days into a heat loss coefficient in kW/°C.
func HeatingLosses(demandKWh, hdd float64) float64 {
	return demandKWh / (hdd * 24)
}

// TimeConstant returns capacity (kWh/°C) over losses (kW/°C), in hours.
func TimeConstant(capacity, losses float64) float64 {
	return capacity / losses
}
