package regional

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/heat-flex-etl/internal/region"
)

// LayerFile names a GeoJSON region file and its index property.
type LayerFile struct {
	Path     string
	IndexKey string
}

// ParseLayerFiles parses a comma-separated list of path=indexKey pairs, for
// example "LSOA.geojson=LSOA11CD,DZ.geojson=DataZone".
func ParseLayerFiles(s string) ([]LayerFile, error) {
	var files []LayerFile
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		path, key, ok := strings.Cut(part, "=")
		if !ok || path == "" || key == "" {
			return nil, fmt.Errorf("layer %q: want path=index_key", part)
		}
		files = append(files, LayerFile{Path: path, IndexKey: key})
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no layers given")
	}
	return files, nil
}

// LoadLayers reads every layer file in the given CRS.
func LoadLayers(files []LayerFile, crs string) ([]*region.Layer, error) {
	layers := make([]*region.Layer, 0, len(files))
	for _, lf := range files {
		f, err := os.Open(lf.Path)
		if err != nil {
			return nil, fmt.Errorf("open layer: %w", err)
		}
		l, err := region.Read(f, lf.IndexKey, crs)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", lf.Path, err)
		}
		layers = append(layers, l)
	}
	return layers, nil
}

// SaveLayers writes each layer to dir under its source file's base name.
func SaveLayers(dir string, files []LayerFile, layers []*region.Layer) error {
	if len(files) != len(layers) {
		return fmt.Errorf("%d layer files for %d layers", len(files), len(layers))
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for i, lf := range files {
		path := filepath.Join(dir, filepath.Base(lf.Path))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create layer: %w", err)
		}
		if err := region.Write(f, layers[i]); err != nil {
			f.Close()
			return fmt.Errorf("layer %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close layer %s: %w", path, err)
		}
	}
	return nil
}
