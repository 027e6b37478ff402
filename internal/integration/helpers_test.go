//go:build integration

package integration_test

import (
	"context"
	"log/slog"
	"math"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/heat-flex-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/heat-flex-etl/internal/domain"
	"github.com/couchcryptid/heat-flex-etl/internal/observability"
)

func discardLogger() *slog.Logger { return observability.DiscardLogger() }

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("heat-flex-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// writeCoolingBuilding writes a building export holding one overnight
// cooldown with time constant tauHours.
func writeCoolingBuilding(t *testing.T, dir, id string, tauHours float64) {
	t.Helper()
	start := time.Date(2021, time.January, 10, 22, 0, 0, 0, time.UTC)
	b := domain.Building{ID: id, Signals: domain.Signals{HeatPump: true, FlowTemp: true}}
	for m := range 300 {
		b.Readings = append(b.Readings, domain.Reading{
			Time:           start.Add(time.Duration(m) * time.Minute),
			Internal:       5 + 15*math.Exp(-float64(m)/60/tauHours),
			External:       5,
			HeatPumpOutput: 1520.5,
			FlowTemp:       30,
			Boiler:         math.NaN(),
			Backup:         math.NaN(),
			Immersion:      math.NaN(),
		})
	}
	_, err := csvfile.WriteBuilding(dir, b)
	require.NoError(t, err)
}
