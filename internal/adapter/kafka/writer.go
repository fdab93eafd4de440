package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
)

// AlertWriter publishes threshold alerts to a Kafka topic.
// It implements domain.AlertDispatcher.
type AlertWriter struct {
	writer  *kafkago.Writer
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewAlertWriter creates an asynchronous Kafka producer for the alert topic.
// Delivery failures are logged and counted, never returned to the importer.
func NewAlertWriter(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *AlertWriter {
	w := &AlertWriter{logger: logger, metrics: metrics}
	w.writer = &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAlertTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
		Async:        true,
		Completion:   w.completed,
	}
	return w
}

func (w *AlertWriter) NotifyViolation(ctx context.Context, operators []domain.Operator, sensorCode string) {
	msg, err := serializeToMessage(domain.NewAlert(operators, sensorCode))
	if err != nil {
		w.metrics.AlertPublishErrors.Inc()
		w.logger.Error("serialize alert failed", "sensor", sensorCode, "error", err)
		return
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		w.metrics.AlertPublishErrors.Inc()
		w.logger.Error("publish alert failed", "sensor", sensorCode, "error", err)
	}
}

// Close flushes pending alerts and closes the producer.
func (w *AlertWriter) Close() error {
	return w.writer.Close()
}

func (w *AlertWriter) completed(msgs []kafkago.Message, err error) {
	if err == nil {
		return
	}
	w.metrics.AlertPublishErrors.Add(float64(len(msgs)))
	for _, m := range msgs {
		w.logger.Error("deliver alert failed", "sensor", string(m.Key), "error", err)
	}
}

// serializeToMessage marshals an Alert into a Kafka message keyed by sensor
// code, so alerts for one sensor stay ordered within a partition.
func serializeToMessage(a domain.Alert) (kafkago.Message, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize alert: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(a.SensorCode),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "alert_type", Value: []byte("threshold_violation")},
			{Key: "raised_at", Value: []byte(a.RaisedAt.Format(time.RFC3339))},
		},
	}, nil
}
