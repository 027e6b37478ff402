package regional

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

func TestParseLayerFiles(t *testing.T) {
	files, err := ParseLayerFiles("in/LSOA.geojson=LSOA11CD, in/DZ.geojson=DataZone")
	require.NoError(t, err)
	assert.Equal(t, []LayerFile{
		{Path: "in/LSOA.geojson", IndexKey: "LSOA11CD"},
		{Path: "in/DZ.geojson", IndexKey: "DataZone"},
	}, files)

	for _, bad := range []string{"", "LSOA.geojson", "=LSOA11CD", "a.geojson="} {
		_, err := ParseLayerFiles(bad)
		assert.Error(t, err, bad)
	}
}

func TestSaveAndLoadLayers(t *testing.T) {
	l := testLayer(t, "a", "b")
	require.NoError(t, l.SetColumn(ColTimeConstant, []float64{12, 24}))

	dir := t.TempDir()
	files := []LayerFile{{Path: "somewhere/LSOA.geojson", IndexKey: "LSOA11CD"}}
	require.NoError(t, SaveLayers(dir, files, []*region.Layer{l}))

	loaded, err := LoadLayers([]LayerFile{{Path: filepath.Join(dir, "LSOA.geojson"), IndexKey: "LSOA11CD"}}, testCRS)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, []string{"a", "b"}, loaded[0].Keys())
	assert.Equal(t, []float64{12, 24}, loaded[0].Column(ColTimeConstant))

	_, err = LoadLayers([]LayerFile{{Path: filepath.Join(dir, "LSOA.geojson"), IndexKey: "LSOA11CD"}}, "EPSG:4326")
	assert.Error(t, err)
}
