// Command eoh estimates building thermal time constants from per-building
// sensor exports and writes one row per building and minimum interval
// duration.
//
// Usage:
//
//	go run ./cmd/eoh \
//	  -data-dir data/eoh/2020,data/eoh/2021 \
//	  -out data/out/eoh_time_constants.csv
//
// RESULTS_DB additionally records the run in a sqlite database and
// KAFKA_BROKERS publishes every estimate to KAFKA_TOPIC.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/heat-flex-etl/internal/adapter/kafka"
	"github.com/couchcryptid/heat-flex-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/heat-flex-etl/internal/config"
	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
	"github.com/couchcryptid/heat-flex-etl/internal/pipeline"
)

func main() {
	dataDirs := flag.String("data-dir", "", "comma-separated directories of Property_ID=<id>.csv exports")
	out := flag.String("out", "", "output path for the estimates CSV")
	flag.Parse()

	if *out == "" || (*dataDirs == "" && flag.NArg() == 0) {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg, logger, splitDirs(*dataDirs), flag.Args(), *out); err != nil {
		logger.Error("eoh failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger, dirs, files []string, out string) error {
	metrics := observability.NewMetrics()

	fitter, err := domain.NewFitter(cfg.FitStrategy, cfg.FitMaxIterations)
	if err != nil {
		return err
	}

	loaders := []pipeline.NamedLoader{{Name: "csv", Loader: csvfile.NewEstimateWriter(out)}}

	if cfg.ResultsDB != "" {
		store, err := sqlite.Open(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer store.Close()
		loaders = append(loaders, pipeline.NamedLoader{Name: "sqlite", Loader: store})
		logger.Info("sqlite sink enabled", "path", cfg.ResultsDB)
	}

	if len(cfg.KafkaBrokers) > 0 {
		writer := kafkaadapter.NewWriter(cfg, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, pipeline.NamedLoader{Name: "kafka", Loader: writer})
		logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	source := csvfile.NewBuildingSource(dirs, files)
	transformer := pipeline.NewTransformer(cfg.EstimateParams(), fitter, logger, metrics)
	p := pipeline.New(source, transformer, loaders, logger, metrics, cfg.Workers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srvDone := make(chan error, 1)
	srvCtx, stopServer := context.WithCancel(ctx)
	if cfg.HTTPAddr != "" {
		srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)
		go func() { srvDone <- srv.Serve(srvCtx, cfg.ShutdownTimeout) }()
	} else {
		srvDone <- nil
	}

	estimates, runErr := p.Run(ctx)

	stopServer()
	if err := <-srvDone; err != nil {
		logger.Error("http server error", "error", err)
	}
	if runErr != nil {
		return runErr
	}

	valid := 0
	for _, e := range estimates {
		if e.Valid() {
			valid++
		}
	}
	logger.Info("estimates written", "path", out, "rows", len(estimates), "with_time_constant", valid)
	return nil
}

func splitDirs(s string) []string {
	var dirs []string
	for d := range strings.SplitSeq(s, ",") {
		if d = strings.TrimSpace(d); d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
