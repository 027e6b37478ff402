package region

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/heat-flex-etl/internal/grid"
)

const testCRS = "EPSG:27700"

func square(x0, y0, size float64) orb.Polygon {
	return orb.Polygon{orb.Ring{
		{x0, y0}, {x0 + size, y0}, {x0 + size, y0 + size}, {x0, y0 + size}, {x0, y0},
	}}
}

type testRegion struct {
	key  string
	geom orb.Geometry
}

func testLayer(t *testing.T, regions ...testRegion) *Layer {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	for _, r := range regions {
		f := geojson.NewFeature(r.geom)
		f.Properties["LSOA11CD"] = r.key
		fc.Append(f)
	}
	l, err := NewLayer(fc, "LSOA11CD", testCRS)
	require.NoError(t, err)
	return l
}

// rowRaster is a one-row raster of 1 km cells starting at the origin.
func rowRaster(t *testing.T, values ...float64) *grid.Raster {
	t.Helper()
	x := make([]float64, len(values))
	for i := range x {
		x[i] = 500 + 1000*float64(i)
	}
	f := &grid.Field{CRS: testCRS, X: x, Y: []float64{500}, Values: values}
	r, err := f.Raster()
	require.NoError(t, err)
	return r
}
