package csvfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

// GasDemandRow is one region-year of sub-national domestic gas statistics.
type GasDemandRow struct {
	Region          string    `csv:"region_code"`
	Year            int       `csv:"year"`
	MeanConsumption nullFloat `csv:"mean_consumption_kwh_per_meter"`
}

// ShareRow is one year of the ECUK domestic natural gas end-use table.
type ShareRow struct {
	Year         int       `csv:"year"`
	SpaceHeating nullFloat `csv:"space_heating"`
	OverallTotal nullFloat `csv:"overall_total"`
}

// CapacityRow is a region's mean thermal capacity.
type CapacityRow struct {
	Region   string    `csv:"region_code"`
	Capacity nullFloat `csv:"thermal_capacity_kwh_per_c"`
}

// ReadGasDemand returns mean consumption per meter (kWh) by year and region.
func ReadGasDemand(path string) (map[int]map[string]float64, error) {
	var rows []GasDemandRow
	if err := readFile(path, &rows); err != nil {
		return nil, err
	}
	out := make(map[int]map[string]float64)
	for _, r := range rows {
		if out[r.Year] == nil {
			out[r.Year] = make(map[string]float64)
		}
		out[r.Year][r.Region] = float64(r.MeanConsumption)
	}
	return out, nil
}

// ReadSpaceHeatingShares returns the space-heating share of domestic gas use
// by year.
func ReadSpaceHeatingShares(path string) (map[int]float64, error) {
	var rows []ShareRow
	if err := readFile(path, &rows); err != nil {
		return nil, err
	}
	out := make(map[int]float64, len(rows))
	for _, r := range rows {
		if r.OverallTotal == 0 {
			return nil, fmt.Errorf("%s: year %d has zero overall total", path, r.Year)
		}
		out[r.Year] = float64(r.SpaceHeating) / float64(r.OverallTotal)
	}
	return out, nil
}

// ReadCapacities returns thermal capacity (kWh/°C) by region.
func ReadCapacities(path string) (map[string]float64, error) {
	var rows []CapacityRow
	if err := readFile(path, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(rows))
	for _, r := range rows {
		out[r.Region] = float64(r.Capacity)
	}
	return out, nil
}

func readFile(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := gocsv.UnmarshalBytes(bytes.TrimPrefix(data, utf8BOM), out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
