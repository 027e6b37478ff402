// Command heatloss derives regional heating losses from gas space-heating
// demand and gas-year HDDs and, given regional thermal capacities, regional
// thermal time constants.
//
// Usage:
//
//	go run ./cmd/heatloss \
//	  -layers data/out/hdd/LSOA.geojson=LSOA11CD,data/out/hdd/DZ.geojson=DataZone \
//	  -gas-demand data/gas_demand.csv \
//	  -ecuk data/ecuk_shares.csv \
//	  -capacity data/thermal_capacity.csv \
//	  -out-dir data/out/heatloss
package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/config"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/region"
	"github.com/couchcryptid/heat-flex-etl/internal/regional"
)

func main() {
	layers := flag.String("layers", "", "comma-separated path=index_key region layers carrying gas-year HDDs")
	gasDemand := flag.String("gas-demand", "", "gas consumption CSV (region_code, year, mean_consumption_kwh_per_meter)")
	ecuk := flag.String("ecuk", "", "space heating share CSV (year, space_heating, overall_total)")
	capacity := flag.String("capacity", "", "optional thermal capacity CSV (region_code, thermal_capacity_kwh_per_c)")
	outDir := flag.String("out-dir", "", "directory for the updated layers")
	flag.Parse()

	if *layers == "" || *gasDemand == "" || *ecuk == "" || *outDir == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger, *layers, *gasDemand, *ecuk, *capacity, *outDir); err != nil {
		logger.Error("heatloss failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, layerFlag, gasDemand, ecuk, capacity, outDir string) error {
	files, err := regional.ParseLayerFiles(layerFlag)
	if err != nil {
		return err
	}
	layers, err := regional.LoadLayers(files, cfg.GridCRS)
	if err != nil {
		return err
	}

	var in regional.HeatLossInputs
	if in.Consumption, err = csvfile.ReadGasDemand(gasDemand); err != nil {
		return err
	}
	if in.Shares, err = csvfile.ReadSpaceHeatingShares(ecuk); err != nil {
		return err
	}
	if capacity != "" {
		if in.Capacity, err = csvfile.ReadCapacities(capacity); err != nil {
			return err
		}
	}

	stage := regional.NewStage(region.NewSampler(cfg.Workers, logger), logger, observability.NewMetrics(), "")
	for _, l := range layers {
		if err := stage.HeatLosses(l, regional.GasYears(), in); err != nil {
			return err
		}
	}

	if err := regional.SaveLayers(outDir, files, layers); err != nil {
		return err
	}
	logger.Info("layers written", "dir", outDir, "layers", len(layers))
	return nil
}
