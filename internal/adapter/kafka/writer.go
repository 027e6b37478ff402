package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/heat-flex-etl/internal/config"
	"github.com/couchcryptid/heat-flex-etl/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the adapter uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes building estimates to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer    messageWriter
	logger    *slog.Logger
	batchSize int
}

// NewWriter creates a Kafka producer for the configured estimates topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger, batchSize: cfg.BatchSize}
}

// LoadBatch serializes the estimates and publishes them in chunks of the
// configured batch size.
func (w *Writer) LoadBatch(ctx context.Context, estimates []domain.Estimate) error {
	if len(estimates) == 0 {
		return nil
	}
	size := w.batchSize
	if size <= 0 {
		size = len(estimates)
	}

	msgs := make([]kafkago.Message, 0, size)
	for i := range estimates {
		msg, err := serializeToMessage(estimates[i])
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
		if len(msgs) == size || i == len(estimates)-1 {
			if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
				return fmt.Errorf("publish estimates: %w", err)
			}
			w.logger.Debug("estimates published", "count", len(msgs))
			msgs = msgs[:0]
		}
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// estimateMessage is the wire form of an estimate. NaN time constants are
// published as null.
type estimateMessage struct {
	BuildingID         string    `json:"building_id"`
	MinDurationMinutes int       `json:"min_duration_minutes"`
	MeanTauHours       *float64  `json:"mean_tau_h"`
	StdTauHours        *float64  `json:"std_tau_h"`
	Intervals          int       `json:"intervals"`
	FitFailures        int       `json:"fit_failures"`
	ComputedAt         time.Time `json:"computed_at"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// serializeToMessage marshals an Estimate into a Kafka message keyed by
// building so every threshold for a building lands on one partition.
func serializeToMessage(e domain.Estimate) (kafkago.Message, error) {
	data, err := json.Marshal(estimateMessage{
		BuildingID:         e.BuildingID,
		MinDurationMinutes: e.MinDurationMinutes,
		MeanTauHours:       finite(e.MeanTauHours),
		StdTauHours:        finite(e.StdTauHours),
		Intervals:          e.Intervals,
		FitFailures:        e.FitFailures,
		ComputedAt:         e.ComputedAt,
	})
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize estimate: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(e.BuildingID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "min_duration_minutes", Value: []byte(strconv.Itoa(e.MinDurationMinutes))},
			{Key: "computed_at", Value: []byte(e.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
