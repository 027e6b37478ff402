// Package domain models heat-pump trial sensor data and the thermal
// quantities derived from it.
//
// # Data Source
//
// Readings come from the Electrification of Heat (EoH) trial per-property
// CSV exports, one file per home named "Property_ID=<id>.csv". Columns used:
//
//	Timestamp                           reading time (UTC)
//	Internal_Air_Temperature            indoor air temperature, °C
//	External_Air_Temperature            outdoor air temperature, °C
//	Heat_Pump_Energy_Output             cumulative heat-pump output, kWh
//	Heat_Pump_Heating_Flow_Temperature  flow temperature, °C
//	Boiler_Energy_Output                optional, cumulative kWh
//	Back-up_Heater_Energy_Consumed      optional, cumulative kWh
//	Immersion_Heater_Energy_Consumed    optional, cumulative kWh
//
// Energy columns are meter totals, so a zero first difference means the
// device produced nothing between two readings. Sampling is nominally one
// minute but irregular, and any column may be blank.
//
// # Decay Model
//
// With the heating off, indoor temperature relaxes toward the outdoor
// temperature following Newton's law of cooling:
//
//	T(t) = A·exp(-t/tau) + C
//
// where t is seconds since the start of a cooling interval, C is the
// asymptote (outdoor temperature) and tau is the thermal time constant.
// Fits report tau in hours.
//
// # Interval Selection
//
// A building's filtered readings are split wherever consecutive readings are
// more than two minutes apart. A run is a usable cooling interval when it is
// long enough, has no blank temperatures, is on average more than 5 °C warmer
// inside than out, shows a net indoor temperature change and sees the outdoor
// temperature move by no more than 2 °C. See [Criteria].
//
// # Regional Quantities
//
//	heating losses [kW/°C]     = space-heating demand [kWh] / (HDD × 24)
//	time constant [h]          = thermal capacity [kWh/°C] / heating losses
//	heat-free hours [h]        = -tau × ln((T_min - T_out) / (T_start - T_out))
package domain
