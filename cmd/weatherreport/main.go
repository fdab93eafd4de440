package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/weather-report/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-report/internal/adapter/kafka"
	"github.com/couchcryptid/weather-report/internal/alert"
	"github.com/couchcryptid/weather-report/internal/config"
	"github.com/couchcryptid/weather-report/internal/ingest"
	"github.com/couchcryptid/weather-report/internal/observability"
	"github.com/couchcryptid/weather-report/internal/report"
	"github.com/couchcryptid/weather-report/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mem := store.NewMemory()
	if cfg.TopologyFile != "" {
		topo, err := store.LoadTopologyFile(ctx, cfg.TopologyFile, mem)
		if err != nil {
			logger.Error("failed to load topology", "path", cfg.TopologyFile, "error", err)
			os.Exit(1)
		}
		logger.Info("topology loaded",
			"networks", len(topo.Networks), "gateways", len(topo.Gateways), "sensors", len(topo.Sensors))
	}

	// Alerts always go to the log; Kafka publishing is feature-flagged via
	// ALERTS_KAFKA_ENABLED / KAFKA_BROKERS.
	dispatchers := alert.Fanout{alert.NewLogDispatcher(logger)}
	var alertWriter *kafkaadapter.AlertWriter
	if cfg.AlertsKafkaEnabled {
		alertWriter = kafkaadapter.NewAlertWriter(cfg, logger, metrics)
		dispatchers = append(dispatchers, alertWriter)
		logger.Info("kafka alert publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publishing disabled")
	}

	importer := ingest.New(mem.Measurements, mem.Sensors, mem.Networks, dispatchers, cfg.TimestampLayout, logger, metrics)
	svc := report.NewService(report.Stores{
		Networks:     mem.Networks,
		Gateways:     mem.Gateways,
		Sensors:      mem.Sensors,
		Measurements: mem.Measurements,
	}, cfg.TimestampLayout, logger, metrics)
	reports := report.NewCachedService(svc, mem, metrics, cfg.ReportCacheSize)

	if cfg.ImportFile != "" {
		if _, err := importer.ImportFile(ctx, cfg.ImportFile); err != nil {
			// Lines before the failure stay imported; keep serving them.
			logger.Error("startup import failed", "path", cfg.ImportFile, "error", err)
		}
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, importer, importer, reports, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if alertWriter != nil {
		if err := alertWriter.Close(); err != nil {
			logger.Error("kafka alert writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete", "measurements", mem.Measurements.Len(), "store_revision", mem.Revision())
}
