package region

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const layerJSON = `{
  "type": "FeatureCollection",
  "crs": {"type": "name", "properties": {"name": "urn:ogc:def:crs:EPSG::27700"}},
  "features": [
    {"type": "Feature", "properties": {"DataZone": "S01006506", "Thermal time constant [h]": 31.5},
     "geometry": {"type": "Polygon", "coordinates": [[[0,0],[1000,0],[1000,1000],[0,1000],[0,0]]]}},
    {"type": "Feature", "properties": {"DataZone": "S01006507", "Thermal time constant [h]": null},
     "geometry": {"type": "MultiPolygon", "coordinates": [[[[1000,0],[2000,0],[2000,1000],[1000,1000],[1000,0]]]]}}
  ]
}`

func TestRead(t *testing.T) {
	l, err := Read(strings.NewReader(layerJSON), "DataZone", testCRS)
	require.NoError(t, err)

	assert.Equal(t, []string{"S01006506", "S01006507"}, l.Keys())
	got := l.Column("Thermal time constant [h]")
	assert.Equal(t, 31.5, got[0])
	assert.True(t, math.IsNaN(got[1]))
	assert.True(t, math.IsNaN(l.Value(0, "missing column")))

	r, ok := l.Region("S01006507")
	require.True(t, ok)
	assert.Equal(t, 1000.0, r.Bound().Min[0])
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(layerJSON), "DataZone", "EPSG:4326")
	require.ErrorIs(t, err, ErrCRSMismatch)

	_, err = Read(strings.NewReader(layerJSON), "LSOA11CD", testCRS)
	require.ErrorContains(t, err, "missing index property")

	dup := strings.ReplaceAll(layerJSON, "S01006507", "S01006506")
	_, err = Read(strings.NewReader(dup), "DataZone", testCRS)
	require.ErrorContains(t, err, "duplicate key")

	point := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"DataZone":"x"},"geometry":{"type":"Point","coordinates":[0,0]}}]}`
	_, err = Read(strings.NewReader(point), "DataZone", testCRS)
	require.ErrorContains(t, err, "unsupported geometry")

	_, err = Read(strings.NewReader("{"), "DataZone", testCRS)
	require.Error(t, err)
}

func TestWrite_NaNAsNull(t *testing.T) {
	l, err := Read(strings.NewReader(layerJSON), "DataZone", testCRS)
	require.NoError(t, err)
	require.NoError(t, l.SetColumn("Comfortable heat-free hours", []float64{7.25, math.NaN()}))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, l))

	var doc struct {
		CRS struct {
			Properties struct {
				Name string `json:"name"`
			} `json:"properties"`
		} `json:"crs"`
		Features []struct {
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "urn:ogc:def:crs:EPSG::27700", doc.CRS.Properties.Name)
	require.Len(t, doc.Features, 2)
	assert.Equal(t, 7.25, doc.Features[0].Properties["Comfortable heat-free hours"])
	v, present := doc.Features[1].Properties["Comfortable heat-free hours"]
	assert.True(t, present)
	assert.Nil(t, v)

	again, err := Read(&buf, "DataZone", testCRS)
	require.NoError(t, err)
	assert.Equal(t, 7.25, again.Value(0, "Comfortable heat-free hours"))
}

func TestLayer_JoinInner(t *testing.T) {
	l := testLayer(t,
		testRegion{"a", square(0, 0, 1)},
		testRegion{"b", square(1, 0, 1)},
		testRegion{"c", square(2, 0, 1)},
	)

	l.JoinInner("2018 gas demand", map[string]float64{"c": 9000, "a": 11000, "zz": 1})

	assert.Equal(t, []string{"a", "c"}, l.Keys())
	assert.Equal(t, []float64{11000, 9000}, l.Column("2018 gas demand"))
	_, ok := l.Region("b")
	assert.False(t, ok)
	r, ok := l.Region("c")
	require.True(t, ok)
	assert.Equal(t, "c", r.Key)
}

func TestLayer_SetColumnLength(t *testing.T) {
	l := testLayer(t, testRegion{"a", square(0, 0, 1)})
	require.Error(t, l.SetColumn("x", []float64{1, 2}))
	assert.False(t, l.HasColumn("x"))
	require.NoError(t, l.SetColumn("x", []float64{1}))
	assert.True(t, l.HasColumn("x"))
}
