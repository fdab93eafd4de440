package kafka

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
)

func TestSerializeToMessage(t *testing.T) {
	raised := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	a := domain.Alert{
		SensorCode: "S_000001",
		Recipients: []string{"john@example.com"},
		RaisedAt:   raised,
	}

	msg, err := serializeToMessage(a)
	require.NoError(t, err)

	assert.Equal(t, []byte("S_000001"), msg.Key)
	assert.JSONEq(t, `{"sensor_code":"S_000001","recipients":["john@example.com"],"raised_at":"2025-01-01T10:00:00Z"}`, string(msg.Value))
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "alert_type", msg.Headers[0].Key)
	assert.Equal(t, []byte("threshold_violation"), msg.Headers[0].Value)
	assert.Equal(t, "raised_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(raised.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestNewAlertWriter(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"broker1:9092", "broker2:9092"}, KafkaAlertTopic: "alerts"}

	w := NewAlertWriter(cfg, slog.Default(), observability.NewMetricsForTesting())

	assert.Equal(t, "alerts", w.writer.Topic)
	assert.True(t, w.writer.Async)
	assert.Equal(t, kafkago.RequireAll, w.writer.RequiredAcks)
}

func TestAlertWriter_CompletionCountsFailures(t *testing.T) {
	var buf bytes.Buffer
	metrics := observability.NewMetricsForTesting()
	w := &AlertWriter{logger: slog.New(slog.NewTextHandler(&buf, nil)), metrics: metrics}

	w.completed([]kafkago.Message{{Key: []byte("S_000001")}, {Key: []byte("S_000002")}}, errors.New("leader not available"))
	w.completed([]kafkago.Message{{Key: []byte("S_000003")}}, nil)

	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.AlertPublishErrors), 0)
	assert.Contains(t, buf.String(), "sensor=S_000002")
	assert.NotContains(t, buf.String(), "S_000003")
}

func TestAlertWriter_NotifyAfterCloseIsCounted(t *testing.T) {
	cfg := &config.Config{KafkaBrokers: []string{"localhost:1"}, KafkaAlertTopic: "alerts"}
	metrics := observability.NewMetricsForTesting()
	w := NewAlertWriter(cfg, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)), metrics)
	require.NoError(t, w.Close())

	w.NotifyViolation(context.Background(), []domain.Operator{{Email: "john@example.com"}}, "S_000001")

	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.AlertPublishErrors), 0)
}
