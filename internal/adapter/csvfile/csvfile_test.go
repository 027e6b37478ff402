package csvfile

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/grid"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestBuildingID(t *testing.T) {
	assert.Equal(t, "EOH0042", BuildingID("Data/Dataset 1/Property_ID=EOH0042.csv"))
	assert.Equal(t, "house", BuildingID("/tmp/house.csv"))
}

func TestReadBuilding(t *testing.T) {
	path := writeTemp(t, "Property_ID=EOH1001.csv", "\ufeff"+
		"Timestamp,Internal_Air_Temperature,External_Air_Temperature,Heat_Pump_Energy_Output,Heat_Pump_Heating_Flow_Temperature,Boiler_Energy_Output\n"+
		"2021-01-10 22:02:00,19.5,4.9,1520.5,30,\n"+
		"2021-01-10 22:00:00,19.6,5.0,1520.5,31,88\n"+
		"2021-01-10 22:04:00,,5.1,NaN,30,88\n")

	b, err := ReadBuilding(path)
	require.NoError(t, err)

	assert.Equal(t, "EOH1001", b.ID)
	assert.Equal(t, domain.Signals{HeatPump: true, FlowTemp: true, Boiler: true}, b.Signals)
	require.Len(t, b.Readings, 3)

	first := b.Readings[0]
	assert.Equal(t, time.Date(2021, 1, 10, 22, 0, 0, 0, time.UTC), first.Time)
	assert.Equal(t, 19.6, first.Internal)
	assert.Equal(t, 88.0, first.Boiler)
	assert.True(t, math.IsNaN(first.Backup), "absent column reads as NaN")
	assert.True(t, math.IsNaN(first.Immersion))

	assert.True(t, math.IsNaN(b.Readings[1].Boiler), "blank cell reads as NaN")
	assert.True(t, math.IsNaN(b.Readings[2].Internal))
	assert.True(t, math.IsNaN(b.Readings[2].HeatPumpOutput))
}

func TestReadBuilding_NoHeatPump(t *testing.T) {
	path := writeTemp(t, "Property_ID=EOH2.csv",
		"Timestamp,Internal_Air_Temperature,External_Air_Temperature\n2021-01-10T22:00:00Z,19,4\n")

	b, err := ReadBuilding(path)
	require.NoError(t, err)
	assert.False(t, b.Signals.HeatPump)
	assert.True(t, math.IsNaN(b.Readings[0].HeatPumpOutput))
}

func TestReadBuilding_Errors(t *testing.T) {
	_, err := ReadBuilding(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)

	path := writeTemp(t, "Property_ID=bad.csv", "Timestamp,Internal_Air_Temperature\n2021-01-10 22:00:00,19\n")
	_, err = ReadBuilding(path)
	require.ErrorContains(t, err, "External_Air_Temperature")

	path = writeTemp(t, "Property_ID=bad.csv", "Timestamp,Internal_Air_Temperature,External_Air_Temperature\nyesterday,19,4\n")
	_, err = ReadBuilding(path)
	require.Error(t, err)
}

func TestBuildingFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"Property_ID=B.csv", "Property_ID=A.csv", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o600))
	}

	files, err := BuildingFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "Property_ID=A.csv"), filepath.Join(dir, "Property_ID=B.csv")}, files)
}

func TestReadSeries_MergesFiles(t *testing.T) {
	jan := writeTemp(t, "tas_jan.csv",
		"time,projection_x_coordinate,projection_y_coordinate,value\n"+
			"2021-01-01,500,500,1.5\n"+
			"2021-01-01,1500,500,2.5\n"+
			"2021-01-01,500,1500,\n")
	feb := writeTemp(t, "tas_feb.csv",
		"time,projection_x_coordinate,projection_y_coordinate,value\n"+
			"2021-02-01,1500,1500,7\n")

	s, err := ReadSeries("EPSG:27700", jan, feb)
	require.NoError(t, err)
	require.NoError(t, s.Validate())

	assert.Equal(t, []float64{500, 1500}, s.X)
	assert.Equal(t, []float64{500, 1500}, s.Y)
	require.Equal(t, 2, s.Len())
	assert.Equal(t, 1.5, s.Slices[0][0])
	assert.Equal(t, 2.5, s.Slices[0][1])
	assert.True(t, math.IsNaN(s.Slices[0][2]))
	assert.True(t, math.IsNaN(s.Slices[0][3]), "cell absent that day")
	assert.Equal(t, 7.0, s.Slices[1][3])

	_, err = ReadSeries("EPSG:27700")
	require.Error(t, err)
}

func TestWriteSeries(t *testing.T) {
	s := &grid.Series{
		CRS:    "EPSG:27700",
		X:      []float64{500, 1500},
		Y:      []float64{500},
		Times:  []time.Time{time.Date(2021, 12, 1, 0, 0, 0, 0, time.UTC)},
		Slices: [][]float64{{3, math.NaN()}},
	}
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteSeries(path, s))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "time,projection_x_coordinate,projection_y_coordinate,value\n2021-12-01T00:00:00Z,500,500,3\n", string(data))
}

func TestReadTables(t *testing.T) {
	gas := writeTemp(t, "gas.csv", "region_code,year,mean_consumption_kwh_per_meter\nE01000001,2017,12000\nE01000001,2018,\nS01006506,2017,15000\n")
	demand, err := ReadGasDemand(gas)
	require.NoError(t, err)
	assert.Equal(t, 12000.0, demand[2017]["E01000001"])
	assert.Equal(t, 15000.0, demand[2017]["S01006506"])
	assert.True(t, math.IsNaN(demand[2018]["E01000001"]))

	shares := writeTemp(t, "ecuk.csv", "year,space_heating,overall_total\n2017,200,250\n")
	got, err := ReadSpaceHeatingShares(shares)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, got[2017], 1e-12)

	zero := writeTemp(t, "ecuk.csv", "year,space_heating,overall_total\n2017,200,0\n")
	_, err = ReadSpaceHeatingShares(zero)
	require.Error(t, err)

	capacity := writeTemp(t, "cap.csv", "region_code,thermal_capacity_kwh_per_c\nE01000001,9.5\n")
	caps, err := ReadCapacities(capacity)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"E01000001": 9.5}, caps)
}

func TestEstimates_WriteRead(t *testing.T) {
	at := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	in := []domain.Estimate{
		{BuildingID: "EOH1", MinDurationMinutes: 30, MeanTauHours: 31.25, StdTauHours: 4.5, Intervals: 12, FitFailures: 1, ComputedAt: at},
		{BuildingID: "EOH2", MinDurationMinutes: 30, MeanTauHours: math.NaN(), StdTauHours: math.NaN(), ComputedAt: at},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEstimates(&buf, in))
	assert.Contains(t, buf.String(), "building_id,min_duration_minutes,mean_tau_h,std_tau_h,intervals,fit_failures,computed_at\n")
	assert.Contains(t, buf.String(), "EOH2,30,,,0,0,2024-01-05T09:00:00Z\n")

	out, err := ReadEstimates(&buf)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, in[0], out[0])
	assert.True(t, math.IsNaN(out[1].MeanTauHours))
	assert.False(t, out[1].Valid())
}

func TestBuildingSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Property_ID=EOH9.csv")
	require.NoError(t, os.WriteFile(path, []byte("Timestamp,Internal_Air_Temperature,External_Air_Temperature\n2021-01-10 22:00:00,19,4\n"), 0o600))

	src := NewBuildingSource([]string{dir}, nil)
	paths, err := src.Paths(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{path}, paths)

	b, err := src.Load(context.Background(), paths[0])
	require.NoError(t, err)
	assert.Equal(t, "EOH9", b.ID)

	_, err = NewBuildingSource([]string{t.TempDir()}, nil).Paths(context.Background())
	require.Error(t, err)
}
