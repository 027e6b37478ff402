// Command flexibility samples winter temperature extremes and quantiles onto
// region layers and converts them into heat-free hours using each region's
// thermal time constant.
//
// Usage:
//
//	go run ./cmd/flexibility \
//	  -tasmax data/tasmax/2021.csv -tasmin data/tasmin/2021.csv \
//	  -layers data/out/heatloss/LSOA.geojson=LSOA11CD \
//	  -out-dir data/out/flexibility
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
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
	"github.com/couchcryptid/heat-flex-etl/internal/regional"
)

func main() {
	tasmax := flag.String("tasmax", "", "comma-separated daily maximum temperature grid CSVs")
	tasmin := flag.String("tasmin", "", "comma-separated daily minimum temperature grid CSVs")
	layers := flag.String("layers", "", "comma-separated path=index_key layers carrying thermal time constants")
	outDir := flag.String("out-dir", "", "directory for the updated layers")
	gridDir := flag.String("grid-dir", "", "optional directory for ESRI ASCII exports of each temperature grid")
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
		logger.Error("flexibility failed", "error", err)
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
	winter, err := regional.WinterMean(maxSeries, minSeries)
	if err != nil {
		return err
	}
	logger.Info("winter temperatures loaded", "days", winter.Len(), "cells", winter.Cells())

	if gridDir != "" {
		if err := os.MkdirAll(gridDir, 0o755); err != nil {
			return fmt.Errorf("create grid dir: %w", err)
		}
	}
	stage := regional.NewStage(region.NewSampler(cfg.Workers, logger), logger, observability.NewMetrics(), gridDir)
	comfort := regional.Comfort{
		Start:          cfg.ComfortStart,
		Min:            cfg.ComfortMin,
		UniformOutdoor: cfg.UniformOutdoorTemp,
	}
	for _, l := range layers {
		if err := stage.Flexibility(ctx, l, winter, cfg.WinterQuantiles, comfort); err != nil {
			return err
		}
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
