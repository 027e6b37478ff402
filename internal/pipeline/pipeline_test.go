package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/pipeline"
)

var runAt = time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC)

// --- mocks ---

type mockSource struct {
	buildings map[string]domain.Building
	order     []string
	loadErr   error
}

func (m *mockSource) Paths(_ context.Context) ([]string, error) { return m.order, nil }

func (m *mockSource) Load(_ context.Context, path string) (domain.Building, error) {
	if m.loadErr != nil {
		return domain.Building{}, m.loadErr
	}
	return m.buildings[path], nil
}

type mockTransformer struct {
	err error
}

func (m *mockTransformer) Transform(_ context.Context, b domain.Building) (domain.BuildingResult, error) {
	if m.err != nil {
		return domain.BuildingResult{}, m.err
	}
	return domain.BuildingResult{Estimates: []domain.Estimate{
		{BuildingID: b.ID, MinDurationMinutes: 60, MeanTauHours: 1},
		{BuildingID: b.ID, MinDurationMinutes: 30, MeanTauHours: 2},
	}}, nil
}

type mockLoader struct {
	mu     sync.Mutex
	loaded []domain.Estimate
	err    error
}

func (m *mockLoader) LoadBatch(_ context.Context, estimates []domain.Estimate) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = append(m.loaded, estimates...)
	return nil
}

func newTestSource(ids ...string) *mockSource {
	s := &mockSource{buildings: map[string]domain.Building{}}
	for _, id := range ids {
		path := "Property_ID=" + id + ".csv"
		s.order = append(s.order, path)
		s.buildings[path] = domain.Building{ID: id}
	}
	return s
}

func discard() *slog.Logger { return observability.DiscardLogger() }

// --- pipeline ---

func TestPipeline_Run_OrdersByBuildingAndDuration(t *testing.T) {
	src := newTestSource("EOH3", "EOH1", "EOH2")
	ldr := &mockLoader{}

	p := pipeline.New(src, &mockTransformer{}, []pipeline.NamedLoader{{Name: "mock", Loader: ldr}},
		discard(), observability.NewMetricsForTesting(), 3)

	got, err := p.Run(context.Background())
	require.NoError(t, err)

	var keys []string
	for _, e := range got {
		keys = append(keys, fmt.Sprintf("%s/%d", e.BuildingID, e.MinDurationMinutes))
	}
	assert.Equal(t, []string{"EOH1/30", "EOH1/60", "EOH2/30", "EOH2/60", "EOH3/30", "EOH3/60"}, keys)
	assert.Equal(t, got, ldr.loaded)
	require.NoError(t, p.CheckReadiness(context.Background()))
	assert.Equal(t, map[string]any{"buildings_total": int64(3), "buildings_done": int64(3), "ready": true}, p.Status())
}

func TestPipeline_Run_LoadsEverySink(t *testing.T) {
	a, b := &mockLoader{}, &mockLoader{}
	p := pipeline.New(newTestSource("EOH1"), &mockTransformer{},
		[]pipeline.NamedLoader{{Name: "csv", Loader: a}, {Name: "sqlite", Loader: b}},
		discard(), observability.NewMetricsForTesting(), 1)

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, a.loaded, 2)
	assert.Len(t, b.loaded, 2)
}

func TestPipeline_Run_Failures(t *testing.T) {
	tests := []struct {
		name string
		src  *mockSource
		tfm  *mockTransformer
		ldr  *mockLoader
		want string
	}{
		{"read error", &mockSource{order: []string{"x.csv"}, loadErr: errors.New("malformed csv")}, &mockTransformer{}, &mockLoader{}, "malformed csv"},
		{"transform error", newTestSource("EOH1"), &mockTransformer{err: context.Canceled}, &mockLoader{}, "building EOH1"},
		{"load error", newTestSource("EOH1"), &mockTransformer{}, &mockLoader{err: errors.New("disk full")}, "load sink: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pipeline.New(tt.src, tt.tfm, []pipeline.NamedLoader{{Name: "sink", Loader: tt.ldr}},
				discard(), observability.NewMetricsForTesting(), 2)

			_, err := p.Run(context.Background())
			require.ErrorContains(t, err, tt.want)
			assert.Error(t, p.CheckReadiness(context.Background()))
		})
	}
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(newTestSource("EOH1", "EOH2"), &mockTransformer{},
		[]pipeline.NamedLoader{{Name: "mock", Loader: ldr}}, discard(), observability.NewMetricsForTesting(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ldr.loaded)
}

// --- transformer ---

// coolingBuilding is a two-hour-plus cooldown at one-minute cadence with
// the heat pump idle, tau = 4 h, outdoor flat at 5 °C.
func coolingBuilding(id string, heatPump bool) domain.Building {
	start := time.Date(2021, time.January, 10, 22, 0, 0, 0, time.UTC)
	tau := (4 * time.Hour).Seconds()
	b := domain.Building{ID: id, Signals: domain.Signals{HeatPump: heatPump, FlowTemp: heatPump}}
	for i := range 200 {
		t := time.Duration(i) * time.Minute
		b.Readings = append(b.Readings, domain.Reading{
			Time:           start.Add(t),
			Internal:       15*math.Exp(-t.Seconds()/tau) + 5,
			External:       5,
			HeatPumpOutput: 1520.5,
			FlowTemp:       30,
			Boiler:         math.NaN(),
			Backup:         math.NaN(),
			Immersion:      math.NaN(),
		})
	}
	return b
}

func testParams() domain.EstimateParams {
	return domain.EstimateParams{
		Filter: domain.FilterParams{
			Seasons:        []domain.Season{{From: time.Date(2020, 11, 1, 0, 0, 0, 0, time.UTC), To: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)}},
			MaxOutdoorTemp: 15.5,
			MaxStepDrop:    5,
		},
		Criteria:       domain.Criteria{MaxGap: domain.DefaultMaxGap, MinTempGap: 5, MaxOutdoorRange: 2},
		MinDurations:   []int{30, 240},
		SampleInterval: time.Minute,
		OutlierZ:       domain.DefaultOutlierZ,
	}
}

func TestEstimateTransformer_RecoversTimeConstant(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(runAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	metrics := observability.NewMetricsForTesting()
	tfm := pipeline.NewTransformer(testParams(), domain.LogLinearFitter{}, discard(), metrics)

	res, err := tfm.Transform(context.Background(), coolingBuilding("EOH1", true))
	require.NoError(t, err)

	want := []domain.Estimate{
		{BuildingID: "EOH1", MinDurationMinutes: 30, MeanTauHours: 4, StdTauHours: math.NaN(), Intervals: 1, ComputedAt: runAt},
		{BuildingID: "EOH1", MinDurationMinutes: 240, MeanTauHours: math.NaN(), StdTauHours: math.NaN(), ComputedAt: runAt},
	}
	if diff := cmp.Diff(want, res.Estimates, cmpopts.EquateNaNs(), cmpopts.EquateApprox(1e-6, 0)); diff != "" {
		t.Errorf("estimates mismatch (-want +got):\n%s", diff)
	}
}

func TestEstimateTransformer_NoHeatPump(t *testing.T) {
	tfm := pipeline.NewTransformer(testParams(), domain.LogLinearFitter{}, discard(), observability.NewMetricsForTesting())

	res, err := tfm.Transform(context.Background(), coolingBuilding("EOH2", false))
	require.NoError(t, err)

	require.Len(t, res.Estimates, 2)
	for _, e := range res.Estimates {
		assert.True(t, math.IsNaN(e.MeanTauHours))
		assert.False(t, e.Valid())
	}
	assert.Empty(t, res.Fits)
}

func TestEstimateTransformer_Cancelled(t *testing.T) {
	tfm := pipeline.NewTransformer(testParams(), domain.LogLinearFitter{}, discard(), observability.NewMetricsForTesting())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tfm.Transform(ctx, coolingBuilding("EOH1", true))
	require.ErrorIs(t, err, context.Canceled)
}
