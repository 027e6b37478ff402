package csvfile

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

func TestWriteBuilding_RoundTrip(t *testing.T) {
	start := time.Date(2021, time.January, 10, 22, 0, 0, 0, time.UTC)
	b := domain.Building{
		ID:      "EOH0007",
		Signals: domain.Signals{HeatPump: true, FlowTemp: true},
		Readings: []domain.Reading{
			{Time: start, Internal: 20.25, External: 4, HeatPumpOutput: 100, FlowTemp: 31, Boiler: math.NaN(), Backup: math.NaN(), Immersion: math.NaN()},
			{Time: start.Add(time.Minute), Internal: math.NaN(), External: 4, HeatPumpOutput: 100, FlowTemp: 30, Boiler: math.NaN(), Backup: math.NaN(), Immersion: math.NaN()},
		},
	}

	dir := t.TempDir()
	path, err := WriteBuilding(dir, b)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Property_ID=EOH0007.csv"), path)

	got, err := ReadBuilding(path)
	require.NoError(t, err)
	assert.Equal(t, "EOH0007", got.ID)
	assert.Equal(t, b.Signals, got.Signals)
	require.Len(t, got.Readings, 2)
	assert.True(t, got.Readings[0].Time.Equal(start))
	assert.InDelta(t, 20.25, got.Readings[0].Internal, 1e-12)
	assert.True(t, math.IsNaN(got.Readings[1].Internal))
	assert.True(t, math.IsNaN(got.Readings[1].Boiler))
	assert.InDelta(t, 30, got.Readings[1].FlowTemp, 1e-12)
}

func TestWriteTables_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	demand := map[int]map[string]float64{2017: {"E01": 12000, "S01": 14000}, 2018: {"E01": 11500}}
	require.NoError(t, WriteGasDemand(filepath.Join(dir, "demand.csv"), demand))
	gotDemand, err := ReadGasDemand(filepath.Join(dir, "demand.csv"))
	require.NoError(t, err)
	assert.Equal(t, demand, gotDemand)

	shares := []ShareRow{NewShareRow(2018, 200, 400), NewShareRow(2017, 300, 400)}
	require.NoError(t, WriteSpaceHeatingShares(filepath.Join(dir, "nested", "ecuk.csv"), shares))
	gotShares, err := ReadSpaceHeatingShares(filepath.Join(dir, "nested", "ecuk.csv"))
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{2017: 0.75, 2018: 0.5}, gotShares)

	capacity := map[string]float64{"E01": 3.5, "S01": 4}
	require.NoError(t, WriteCapacities(filepath.Join(dir, "capacity.csv"), capacity))
	gotCapacity, err := ReadCapacities(filepath.Join(dir, "capacity.csv"))
	require.NoError(t, err)
	assert.Equal(t, capacity, gotCapacity)
}
