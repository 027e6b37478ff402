package csvfile

import (
	"context"
	"fmt"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

// BuildingSource lists sensor exports from directories or explicit files.
// It implements pipeline.BuildingSource.
type BuildingSource struct {
	dirs  []string
	files []string
}

// NewBuildingSource reads every *.csv under dirs plus the given files.
func NewBuildingSource(dirs, files []string) *BuildingSource {
	return &BuildingSource{dirs: dirs, files: files}
}

// Paths returns the export files in a stable order.
func (s *BuildingSource) Paths(_ context.Context) ([]string, error) {
	paths, err := BuildingFiles(s.dirs...)
	if err != nil {
		return nil, err
	}
	paths = append(paths, s.files...)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no building files found in %v", s.dirs)
	}
	return paths, nil
}

// Load reads one export.
func (s *BuildingSource) Load(ctx context.Context, path string) (domain.Building, error) {
	if err := ctx.Err(); err != nil {
		return domain.Building{}, err
	}
	return ReadBuilding(path)
}
