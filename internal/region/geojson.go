package region

import (
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb/geojson"
)

// Read decodes a GeoJSON feature collection into a layer. A named "crs"
// member, when present, must agree with crs.
func Read(r io.Reader, indexKey, crs string) (*Layer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	if declared := declaredCRS(fc); declared != "" && !sameCRS(declared, crs) {
		return nil, fmt.Errorf("%w: layer is %s, expected %s", ErrCRSMismatch, declared, crs)
	}
	return NewLayer(fc, indexKey, crs)
}

// Write encodes the layer as a GeoJSON feature collection carrying a named
// "crs" member.
func Write(w io.Writer, l *Layer) error {
	fc := l.FeatureCollection()
	if l.CRS != "" {
		fc.ExtraMembers = geojson.Properties{
			"crs": map[string]any{
				"type":       "name",
				"properties": map[string]any{"name": crsURN(l.CRS)},
			},
		}
	}
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

func declaredCRS(fc *geojson.FeatureCollection) string {
	member, ok := fc.ExtraMembers["crs"].(map[string]any)
	if !ok {
		return ""
	}
	props, ok := member["properties"].(map[string]any)
	if !ok {
		return ""
	}
	name, _ := props["name"].(string)
	return name
}

// crsURN renders "EPSG:27700" as "urn:ogc:def:crs:EPSG::27700".
func crsURN(crs string) string {
	auth, code, ok := strings.Cut(crs, ":")
	if !ok || strings.HasPrefix(crs, "urn:") {
		return crs
	}
	return "urn:ogc:def:crs:" + auth + "::" + code
}

// sameCRS compares CRS identifiers written as "EPSG:27700" or as OGC URNs.
func sameCRS(a, b string) bool {
	return strings.EqualFold(normalizeCRS(a), normalizeCRS(b))
}

func normalizeCRS(crs string) string {
	if rest, ok := strings.CutPrefix(strings.ToLower(crs), "urn:ogc:def:crs:"); ok {
		parts := strings.Split(rest, ":")
		if len(parts) >= 2 {
			return parts[0] + ":" + parts[len(parts)-1]
		}
	}
	return strings.ToLower(crs)
}
