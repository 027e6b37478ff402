// Command hdd assigns gas-year heating degree days to region layers from
// daily HadUK-Grid style maximum and minimum temperature exports.
//
// Usage:
//
//	go run ./cmd/hdd \
//	  -tasmax data/tasmax/2017.csv,data/tasmax/2018.csv \
//	  -tasmin data/tasmin/2017.csv,data/tasmin/2018.csv \
//	  -layers data/LSOA.geojson=LSOA11CD,data/DZ.geojson=DataZone \
//	  -out-dir data/out/hdd
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/config"
	"github.com/couchcryptid/heat-flex-etl/internal/grid"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
	"github.com/couchcryptid/heat-flex-etl/internal/regional"
)

func main() {
	tasmax := flag.String("tasmax", "", "comma-separated daily maximum temperature grid CSVs")
	tasmin := flag.String("tasmin", "", "comma-separated daily minimum temperature grid CSVs")
	layers := flag.String("layers", "", "comma-separated path=index_key region layers")
	outDir := flag.String("out-dir", "", "directory for the updated layers")
	gridDir := flag.String("grid-dir", "", "optional directory for ESRI ASCII exports of each HDD grid")
	flag.Parse()

	if *tasmax == "" || *tasmin == "" || *layers == "" || *outDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger, splitPaths(*tasmax), splitPaths(*tasmin), *layers, *outDir, *gridDir); err != nil {
		logger.Error("hdd failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, tasmax, tasmin []string, layerFlag, outDir, gridDir string) error {
	files, err := regional.ParseLayerFiles(layerFlag)
	if err != nil {
		return err
	}
	layers, err := regional.LoadLayers(files, cfg.GridCRS)
	if err != nil {
		return err
	}

	maxSeries, err := csvfile.ReadSeries(cfg.GridCRS, tasmax...)
	if err != nil {
		return fmt.Errorf("tasmax: %w", err)
	}
	minSeries, err := csvfile.ReadSeries(cfg.GridCRS, tasmin...)
	if err != nil {
		return fmt.Errorf("tasmin: %w", err)
	}
	daily, err := grid.MeanOf(maxSeries, minSeries)
	if err != nil {
		return fmt.Errorf("mean temperature: %w", err)
	}
	logger.Info("temperatures loaded", "days", daily.Len(), "cells", daily.Cells())

	if gridDir != "" {
		if err := os.MkdirAll(gridDir, 0o755); err != nil {
			return fmt.Errorf("create grid dir: %w", err)
		}
	}
	stage := regional.NewStage(region.NewSampler(cfg.Workers, logger), logger, observability.NewMetrics(), gridDir)
	if err := stage.HDDs(ctx, daily, regional.GasYears(), cfg.HDDThreshold, layers...); err != nil {
		return err
	}

	if err := regional.SaveLayers(outDir, files, layers); err != nil {
		return err
	}
	logger.Info("layers written", "dir", outDir, "layers", len(layers))
	return nil
}

func splitPaths(s string) []string {
	var out []string
	for p := range strings.SplitSeq(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
