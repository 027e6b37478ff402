// Package region holds polygon region layers (LSOAs, DataZones) and the
// sampler that attaches gridded values to them.
package region

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrCRSMismatch is returned when a layer and a raster declare different
// coordinate reference systems. Nothing is reprojected.
var ErrCRSMismatch = errors.New("crs mismatch")

// Region is one polygon of a layer with its attribute columns.
type Region struct {
	Key        string
	Geometry   orb.Geometry
	Properties geojson.Properties

	bound orb.Bound
}

// Bound returns the region's bounding box.
func (r *Region) Bound() orb.Bound { return r.bound }

// Layer is an ordered set of regions keyed by an index property.
type Layer struct {
	CRS      string
	IndexKey string
	Regions  []*Region

	byKey map[string]int
}

// NewLayer builds a layer from a feature collection. Every feature must
// carry a unique indexKey property and a polygonal geometry.
func NewLayer(fc *geojson.FeatureCollection, indexKey, crs string) (*Layer, error) {
	l := &Layer{CRS: crs, IndexKey: indexKey, byKey: make(map[string]int, len(fc.Features))}
	for i, f := range fc.Features {
		key, err := featureKey(f, indexKey)
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			return nil, fmt.Errorf("region %s: unsupported geometry %T", key, f.Geometry)
		}
		if _, dup := l.byKey[key]; dup {
			return nil, fmt.Errorf("region %s: duplicate key", key)
		}
		props := f.Properties.Clone()
		if props == nil {
			props = geojson.Properties{}
		}
		l.byKey[key] = len(l.Regions)
		l.Regions = append(l.Regions, &Region{
			Key:        key,
			Geometry:   f.Geometry,
			Properties: props,
			bound:      f.Geometry.Bound(),
		})
	}
	return l, nil
}

func featureKey(f *geojson.Feature, indexKey string) (string, error) {
	v, ok := f.Properties[indexKey]
	if !ok && indexKey == "" {
		v, ok = f.ID, f.ID != nil
	}
	if !ok || v == nil {
		return "", fmt.Errorf("missing index property %q", indexKey)
	}
	switch k := v.(type) {
	case string:
		return k, nil
	case float64:
		return strconv.FormatFloat(k, 'f', -1, 64), nil
	default:
		return fmt.Sprint(k), nil
	}
}

// Len returns the number of regions.
func (l *Layer) Len() int { return len(l.Regions) }

// Keys returns the region keys in layer order.
func (l *Layer) Keys() []string {
	keys := make([]string, len(l.Regions))
	for i, r := range l.Regions {
		keys[i] = r.Key
	}
	return keys
}

// Region looks a region up by key.
func (l *Layer) Region(key string) (*Region, bool) {
	i, ok := l.byKey[key]
	if !ok {
		return nil, false
	}
	return l.Regions[i], true
}

// Value returns a numeric attribute of region i. Missing, null and
// non-numeric values read as NaN.
func (l *Layer) Value(i int, column string) float64 {
	return number(l.Regions[i].Properties[column])
}

// SetValue stores a numeric attribute on region i.
func (l *Layer) SetValue(i int, column string, v float64) {
	l.Regions[i].Properties[column] = v
}

// Column returns a numeric attribute for every region in layer order.
func (l *Layer) Column(column string) []float64 {
	out := make([]float64, len(l.Regions))
	for i := range l.Regions {
		out[i] = l.Value(i, column)
	}
	return out
}

// SetColumn replaces a numeric attribute for every region.
func (l *Layer) SetColumn(column string, values []float64) error {
	if len(values) != len(l.Regions) {
		return fmt.Errorf("column %q: %d values for %d regions", column, len(values), len(l.Regions))
	}
	for i, v := range values {
		l.SetValue(i, column, v)
	}
	return nil
}

// HasColumn reports whether any region carries the attribute.
func (l *Layer) HasColumn(column string) bool {
	for _, r := range l.Regions {
		if _, ok := r.Properties[column]; ok {
			return true
		}
	}
	return false
}

// JoinInner keeps only the regions with a value in values and stores it
// under column. Layer order is preserved.
func (l *Layer) JoinInner(column string, values map[string]float64) {
	kept := l.Regions[:0]
	for _, r := range l.Regions {
		v, ok := values[r.Key]
		if !ok {
			continue
		}
		r.Properties[column] = v
		kept = append(kept, r)
	}
	clear(l.Regions[len(kept):])
	l.Regions = kept
	l.reindex()
}

func (l *Layer) reindex() {
	l.byKey = make(map[string]int, len(l.Regions))
	for i, r := range l.Regions {
		l.byKey[r.Key] = i
	}
}

// FeatureCollection converts the layer back to GeoJSON features. NaN and
// infinite values become null.
func (l *Layer) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, r := range l.Regions {
		f := geojson.NewFeature(r.Geometry)
		f.Properties = make(geojson.Properties, len(r.Properties))
		for k, v := range r.Properties {
			if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
				v = nil
			}
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return fc
}

func number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	default:
		return math.NaN()
	}
}
