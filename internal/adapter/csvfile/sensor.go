package csvfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gocarina/gocsv"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

// Column names of an Electrification of Heat sensor export.
const (
	ColTimestamp = "Timestamp"
	ColInternal  = "Internal_Air_Temperature"
	ColExternal  = "External_Air_Temperature"
	ColHeatPump  = "Heat_Pump_Energy_Output"
	ColFlowTemp  = "Heat_Pump_Heating_Flow_Temperature"
	ColBoiler    = "Boiler_Energy_Output"
	ColBackup    = "Back-up_Heater_Energy_Consumed"
	ColImmersion = "Immersion_Heater_Energy_Consumed"
)

const buildingFilePrefix = "Property_ID="

var utf8BOM = []byte("\xef\xbb\xbf")

type sensorRow struct {
	Timestamp timestamp `csv:"Timestamp"`
	Internal  nullFloat `csv:"Internal_Air_Temperature"`
	External  nullFloat `csv:"External_Air_Temperature"`
	HeatPump  nullFloat `csv:"Heat_Pump_Energy_Output"`
	FlowTemp  nullFloat `csv:"Heat_Pump_Heating_Flow_Temperature"`
	Boiler    nullFloat `csv:"Boiler_Energy_Output"`
	Backup    nullFloat `csv:"Back-up_Heater_Energy_Consumed"`
	Immersion nullFloat `csv:"Immersion_Heater_Energy_Consumed"`
}

// BuildingID extracts the property id from a "Property_ID=<id>.csv" path.
// Other file names yield their base name without extension.
func BuildingID(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return strings.TrimPrefix(name, buildingFilePrefix)
}

// BuildingFiles lists the sensor exports under each directory, sorted.
func BuildingFiles(dirs ...string) ([]string, error) {
	var files []string
	for _, dir := range dirs {
		matches, err := filepath.Glob(filepath.Join(dir, "*.csv"))
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", dir, err)
		}
		files = append(files, matches...)
	}
	slices.Sort(files)
	return files, nil
}

// ReadBuilding loads one sensor export. Optional columns absent from the
// header are NaN throughout and recorded as missing in Signals. Readings are
// sorted by time.
func ReadBuilding(path string) (domain.Building, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Building{}, fmt.Errorf("read %s: %w", path, err)
	}
	b, err := ParseBuilding(BuildingID(path), data)
	if err != nil {
		return domain.Building{}, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}

// ParseBuilding decodes a sensor export held in memory.
func ParseBuilding(id string, data []byte) (domain.Building, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return domain.Building{}, fmt.Errorf("read header: %w", err)
	}
	has := func(col string) bool { return slices.Contains(header, col) }
	for _, col := range []string{ColTimestamp, ColInternal, ColExternal} {
		if !has(col) {
			return domain.Building{}, fmt.Errorf("missing column %q", col)
		}
	}

	var rows []sensorRow
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return domain.Building{}, fmt.Errorf("decode rows: %w", err)
	}

	b := domain.Building{
		ID: id,
		Signals: domain.Signals{
			HeatPump:  has(ColHeatPump),
			FlowTemp:  has(ColFlowTemp),
			Boiler:    has(ColBoiler),
			Backup:    has(ColBackup),
			Immersion: has(ColImmersion),
		},
		Readings: make([]domain.Reading, len(rows)),
	}
	for i, r := range rows {
		b.Readings[i] = domain.Reading{
			Time:           r.Timestamp.Time,
			Internal:       float64(r.Internal),
			External:       float64(r.External),
			HeatPumpOutput: optional(b.Signals.HeatPump, r.HeatPump),
			FlowTemp:       optional(b.Signals.FlowTemp, r.FlowTemp),
			Boiler:         optional(b.Signals.Boiler, r.Boiler),
			Backup:         optional(b.Signals.Backup, r.Backup),
			Immersion:      optional(b.Signals.Immersion, r.Immersion),
		}
	}
	slices.SortStableFunc(b.Readings, func(x, y domain.Reading) int {
		return x.Time.Compare(y.Time)
	})
	return b, nil
}

func optional(present bool, v nullFloat) float64 {
	if !present {
		return math.NaN()
	}
	return float64(v)
}
