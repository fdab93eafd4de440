//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	kafkaadapter "github.com/couchcryptid/weather-report/internal/adapter/kafka"
	"github.com/couchcryptid/weather-report/internal/alert"
	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/ingest"
	"github.com/couchcryptid/weather-report/internal/observability"
	"github.com/couchcryptid/weather-report/internal/store"
)

const testAlertTopic = "test-alerts"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	c, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("weather-report-test"))
	testcontainers.CleanupContainer(t, c)
	require.NoError(t, err, "start kafka container")

	brokers, err := c.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	cc, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer cc.Close()

	require.NoError(t, cc.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type receivedAlert struct {
	Alert   domain.Alert
	Key     string
	Headers map[string]string
}

func readAlert(ctx context.Context, t *testing.T, consumer *kafkago.Reader) receivedAlert {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from alert topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var a domain.Alert
	require.NoError(t, json.Unmarshal(msg.Value, &a), "unmarshal alert message")

	return receivedAlert{Alert: a, Key: string(msg.Key), Headers: headers}
}

func newConsumer(broker string) *kafkago.Reader {
	return kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testAlertTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
		MaxWait:     500 * time.Millisecond,
	})
}

// TestAlertWriterPublishes verifies that the alert writer delivers a keyed,
// header-tagged alert message to the topic.
func TestAlertWriterPublishes(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaAlertTopic: testAlertTopic}
	metrics := observability.NewMetricsForTesting()
	w := kafkaadapter.NewAlertWriter(cfg, discardLogger(), metrics)

	w.NotifyViolation(ctx, []domain.Operator{{Email: "john@example.com"}, {Email: "jane@example.com"}}, "S_000001")
	require.NoError(t, w.Close())

	consumer := newConsumer(broker)
	defer consumer.Close()

	got := readAlert(ctx, t, consumer)
	assert.Equal(t, "S_000001", got.Key)
	assert.Equal(t, "S_000001", got.Alert.SensorCode)
	assert.Equal(t, []string{"john@example.com", "jane@example.com"}, got.Alert.Recipients)
	assert.Equal(t, "threshold_violation", got.Headers["alert_type"])
	assert.NotEmpty(t, got.Headers["raised_at"])
}

// TestImportPublishesAlerts runs a CSV import with the Kafka writer in the
// dispatcher fanout and checks that only the dispatched violations reach the topic.
func TestImportPublishesAlerts(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testAlertTopic)

	mem := store.NewMemory()
	_, err := mem.Networks.Create(ctx, domain.Network{Code: "NET_01", Operators: []domain.Operator{{Email: "john@example.com"}}})
	require.NoError(t, err)
	_, err = mem.Networks.Create(ctx, domain.Network{Code: "NET_02"})
	require.NoError(t, err)
	_, err = mem.Gateways.Create(ctx, domain.Gateway{Code: "GW_0001", NetworkCode: "NET_01"})
	require.NoError(t, err)
	_, err = mem.Gateways.Create(ctx, domain.Gateway{Code: "GW_0002", NetworkCode: "NET_02"})
	require.NoError(t, err)
	_, err = mem.Sensors.Create(ctx, domain.Sensor{Code: "S_01", GatewayCode: "GW_0001",
		Threshold: &domain.Threshold{Kind: domain.GreaterThan, Value: 40}})
	require.NoError(t, err)
	_, err = mem.Sensors.Create(ctx, domain.Sensor{Code: "S_02", GatewayCode: "GW_0002",
		Threshold: &domain.Threshold{Kind: domain.GreaterThan, Value: 40}})
	require.NoError(t, err)

	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()
	cfg := &config.Config{KafkaBrokers: []string{broker}, KafkaAlertTopic: testAlertTopic}
	w := kafkaadapter.NewAlertWriter(cfg, logger, metrics)
	dispatchers := alert.Fanout{alert.NewLogDispatcher(logger), w}

	importer := ingest.New(mem.Measurements, mem.Sensors, mem.Networks, dispatchers, domain.DefaultTimestampLayout, logger, metrics)
	sum, err := importer.Import(ctx, strings.NewReader(
		"timestamp,networkCode,gatewayCode,sensorCode,value\n"+
			"2025-01-01 10:00:00,NET_01,GW_0001,S_01,45.0\n"+
			"2025-01-01 10:05:00,NET_02,GW_0002,S_02,50.0\n"+
			"2025-01-01 10:10:00,NET_01,GW_0001,S_01,30.0\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, ingest.Summary{Imported: 3, Violations: 2, AlertsDispatched: 1, AlertsSuppressed: 1}, sum)

	consumer := newConsumer(broker)
	defer consumer.Close()

	got := readAlert(ctx, t, consumer)
	assert.Equal(t, "S_01", got.Key)
	assert.Equal(t, []string{"john@example.com"}, got.Alert.Recipients)

	// NET_02 has no operators, so nothing else was published.
	emptyCtx, emptyCancel := context.WithTimeout(ctx, 3*time.Second)
	defer emptyCancel()
	_, err = consumer.ReadMessage(emptyCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
