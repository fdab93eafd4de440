package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const defaultTimestampLayout = "2006-01-02 15:04:05"

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Ingestion and reporting.
	TimestampLayout string
	TopologyFile    string
	ImportFile      string
	ReportCacheSize int

	// Kafka alert publishing.
	AlertsKafkaEnabled bool
	KafkaBrokers       []string
	KafkaAlertTopic    string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseReportCacheSize()
	if err != nil {
		return nil, err
	}

	brokersEnv := os.Getenv("KAFKA_BROKERS")
	alertsEnabled := brokersEnv != ""
	if v := os.Getenv("ALERTS_KAFKA_ENABLED"); v != "" {
		alertsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		TimestampLayout: sharedcfg.EnvOrDefault("TIMESTAMP_LAYOUT", defaultTimestampLayout),
		TopologyFile:    os.Getenv("TOPOLOGY_FILE"),
		ImportFile:      os.Getenv("IMPORT_FILE"),
		ReportCacheSize: cacheSize,

		AlertsKafkaEnabled: alertsEnabled,
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic:    sharedcfg.EnvOrDefault("KAFKA_ALERT_TOPIC", "sensor-threshold-alerts"),
	}

	if !strings.Contains(cfg.TimestampLayout, "2006") {
		return nil, errors.New("invalid TIMESTAMP_LAYOUT: must contain a year reference (2006)")
	}
	if cfg.AlertsKafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("ALERTS_KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("KAFKA_ALERT_TOPIC is required when Kafka alerts are enabled")
		}
	}

	return cfg, nil
}

func parseReportCacheSize() (int, error) {
	s := os.Getenv("REPORT_CACHE_SIZE")
	if s == "" {
		return 256, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid REPORT_CACHE_SIZE %q: must be a positive integer", s)
	}
	return n, nil
}
