package csvfile

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

// WriteBuilding writes b as a Property_ID=<id>.csv export in dir, including
// only the optional columns its Signals mark present. It returns the path.
func WriteBuilding(dir string, b domain.Building) (string, error) {
	header := []string{ColTimestamp, ColInternal, ColExternal}
	type column struct {
		name    string
		present bool
		value   func(domain.Reading) float64
	}
	optional := []column{
		{ColHeatPump, b.Signals.HeatPump, func(r domain.Reading) float64 { return r.HeatPumpOutput }},
		{ColFlowTemp, b.Signals.FlowTemp, func(r domain.Reading) float64 { return r.FlowTemp }},
		{ColBoiler, b.Signals.Boiler, func(r domain.Reading) float64 { return r.Boiler }},
		{ColBackup, b.Signals.Backup, func(r domain.Reading) float64 { return r.Backup }},
		{ColImmersion, b.Signals.Immersion, func(r domain.Reading) float64 { return r.Immersion }},
	}
	for _, c := range optional {
		if c.present {
			header = append(header, c.name)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, buildingFilePrefix+b.ID+".csv")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	for _, r := range b.Readings {
		ts, _ := timestamp{r.Time}.MarshalCSV()
		record := []string{ts, formatFloat(r.Internal), formatFloat(r.External)}
		for _, c := range optional {
			if c.present {
				record = append(record, formatFloat(c.value(r)))
			}
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func formatFloat(v float64) string {
	s, _ := nullFloat(v).MarshalCSV()
	return s
}

// WriteGasDemand writes consumption by year and region, sorted.
func WriteGasDemand(path string, consumption map[int]map[string]float64) error {
	var rows []GasDemandRow
	for _, year := range slices.Sorted(maps.Keys(consumption)) {
		for _, code := range slices.Sorted(maps.Keys(consumption[year])) {
			rows = append(rows, GasDemandRow{Region: code, Year: year, MeanConsumption: nullFloat(consumption[year][code])})
		}
	}
	return writeFile(path, &rows)
}

// WriteSpaceHeatingShares writes one row per year with the given space
// heating and overall totals.
func WriteSpaceHeatingShares(path string, rows []ShareRow) error {
	rows = slices.Clone(rows)
	slices.SortFunc(rows, func(a, b ShareRow) int { return cmp.Compare(a.Year, b.Year) })
	return writeFile(path, &rows)
}

// NewShareRow builds a ShareRow from totals in any consistent unit.
func NewShareRow(year int, spaceHeating, overallTotal float64) ShareRow {
	return ShareRow{Year: year, SpaceHeating: nullFloat(spaceHeating), OverallTotal: nullFloat(overallTotal)}
}

// WriteCapacities writes thermal capacity by region, sorted.
func WriteCapacities(path string, capacity map[string]float64) error {
	rows := make([]CapacityRow, 0, len(capacity))
	for _, code := range slices.Sorted(maps.Keys(capacity)) {
		rows = append(rows, CapacityRow{Region: code, Capacity: nullFloat(capacity[code])})
	}
	return writeFile(path, &rows)
}
