package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

// Config holds all pipeline settings, populated from environment variables.
// Input and output paths are command flags, not configuration.
type Config struct {
	LogLevel        string
	LogFormat       string
	HTTPAddr        string
	ShutdownTimeout time.Duration
	Workers         int

	// Building time constants.
	MinDurations     []int
	SampleInterval   time.Duration
	MaxGap           time.Duration
	MinTempGap       float64
	MaxOutdoorRange  float64
	MaxOutdoorTemp   float64
	MaxStepDrop      float64
	HeatingSeasons   []domain.Season
	FitStrategy      string
	FitMaxIterations int
	OutlierZ         float64

	// Regional stages.
	GridCRS            string
	HDDThreshold       float64
	ComfortStart       float64
	ComfortMin         float64
	UniformOutdoorTemp float64
	WinterQuantiles    []float64

	// Optional sinks.
	ResultsDB    string
	KafkaBrokers []string
	KafkaTopic   string
	BatchSize    int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = sharedcfg.ParseBrokers(raw)
	}

	p := &parser{}
	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		ShutdownTimeout: shutdownTimeout,
		Workers:         p.int("WORKERS", "4"),

		MinDurations:     p.ints("MIN_DURATIONS", "30,60,90,120,180,240"),
		SampleInterval:   p.duration("SAMPLE_INTERVAL", "1m"),
		MaxGap:           p.duration("MAX_GAP", "120s"),
		MinTempGap:       p.float("MIN_TEMP_GAP", "5"),
		MaxOutdoorRange:  p.float("MAX_OUTDOOR_RANGE", "2"),
		MaxOutdoorTemp:   p.float("MAX_OUTDOOR_TEMP", "15.5"),
		MaxStepDrop:      p.float("MAX_STEP_DROP", "5"),
		HeatingSeasons:   p.seasons("HEATING_SEASONS", "2020-11-01/2021-05-01,2021-10-01/2022-05-01"),
		FitStrategy:      sharedcfg.EnvOrDefault("FIT_STRATEGY", "loglinear"),
		FitMaxIterations: p.int("FIT_MAX_ITERATIONS", strconv.Itoa(domain.DefaultMaxIterations)),
		OutlierZ:         p.float("OUTLIER_Z", "3"),

		GridCRS:            sharedcfg.EnvOrDefault("GRID_CRS", "EPSG:27700"),
		HDDThreshold:       p.float("HDD_THRESHOLD", "15.5"),
		ComfortStart:       p.float("COMFORT_START", "21"),
		ComfortMin:         p.float("COMFORT_MIN", "18"),
		UniformOutdoorTemp: p.float("UNIFORM_OUTDOOR_TEMP", "5"),
		WinterQuantiles:    p.floats("WINTER_QUANTILES", "0.05,0.2,0.4,0.6,0.8"),

		ResultsDB:    os.Getenv("RESULTS_DB"),
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "building-time-constants"),
		BatchSize:    batchSize,
	}
	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Workers <= 0:
		return errors.New("WORKERS must be positive")
	case len(c.MinDurations) == 0:
		return errors.New("MIN_DURATIONS is required")
	case c.SampleInterval <= 0:
		return errors.New("SAMPLE_INTERVAL must be positive")
	case c.MaxGap <= 0:
		return errors.New("MAX_GAP must be positive")
	case c.FitMaxIterations <= 0:
		return errors.New("FIT_MAX_ITERATIONS must be positive")
	case c.OutlierZ <= 0:
		return errors.New("OUTLIER_Z must be positive")
	case c.ComfortMin >= c.ComfortStart:
		return errors.New("COMFORT_MIN must be below COMFORT_START")
	}
	for _, m := range c.MinDurations {
		if m <= 0 {
			return errors.New("MIN_DURATIONS must be positive")
		}
	}
	for _, q := range c.WinterQuantiles {
		if q < 0 || q > 1 {
			return errors.New("WINTER_QUANTILES must lie in [0, 1]")
		}
	}
	switch c.FitStrategy {
	case "loglinear", "nonlinear":
	default:
		return fmt.Errorf("FIT_STRATEGY must be loglinear or nonlinear, got %q", c.FitStrategy)
	}
	return nil
}

// EstimateParams assembles the building estimation settings.
func (c *Config) EstimateParams() domain.EstimateParams {
	return domain.EstimateParams{
		Filter: domain.FilterParams{
			Seasons:        c.HeatingSeasons,
			MaxOutdoorTemp: c.MaxOutdoorTemp,
			MaxStepDrop:    c.MaxStepDrop,
		},
		Criteria: domain.Criteria{
			MaxGap:          c.MaxGap,
			MinTempGap:      c.MinTempGap,
			MaxOutdoorRange: c.MaxOutdoorRange,
		},
		MinDurations:   c.MinDurations,
		SampleInterval: c.SampleInterval,
		OutlierZ:       c.OutlierZ,
	}
}

// parser records the first malformed variable and keeps going with zero
// values so Load reports one error.
type parser struct {
	err error
}

func (p *parser) fail(key, raw string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
}

func (p *parser) int(key, def string) int {
	raw := sharedcfg.EnvOrDefault(key, def)
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		p.fail(key, raw, err)
	}
	return v
}

func (p *parser) float(key, def string) float64 {
	raw := sharedcfg.EnvOrDefault(key, def)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		p.fail(key, raw, err)
	}
	return v
}

func (p *parser) duration(key, def string) time.Duration {
	raw := sharedcfg.EnvOrDefault(key, def)
	v, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		p.fail(key, raw, err)
	}
	return v
}

func (p *parser) ints(key, def string) []int {
	raw := sharedcfg.EnvOrDefault(key, def)
	var out []int
	for _, part := range splitList(raw) {
		v, err := strconv.Atoi(part)
		if err != nil {
			p.fail(key, raw, err)
			return nil
		}
		out = append(out, v)
	}
	return out
}

func (p *parser) floats(key, def string) []float64 {
	raw := sharedcfg.EnvOrDefault(key, def)
	var out []float64
	for _, part := range splitList(raw) {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			p.fail(key, raw, err)
			return nil
		}
		out = append(out, v)
	}
	return out
}

// seasons parses "from/to" date pairs; to is exclusive.
func (p *parser) seasons(key, def string) []domain.Season {
	raw := sharedcfg.EnvOrDefault(key, def)
	var out []domain.Season
	for _, part := range splitList(raw) {
		from, to, ok := strings.Cut(part, "/")
		if !ok {
			p.fail(key, raw, errors.New("want from/to"))
			return nil
		}
		f, err := time.Parse(time.DateOnly, strings.TrimSpace(from))
		if err != nil {
			p.fail(key, raw, err)
			return nil
		}
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(to))
		if err != nil {
			p.fail(key, raw, err)
			return nil
		}
		if !t.After(f) {
			p.fail(key, raw, errors.New("season ends before it starts"))
			return nil
		}
		out = append(out, domain.Season{From: f, To: t})
	}
	return out
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
