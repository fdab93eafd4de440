package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
)

// Report levels, used in error messages, log attributes and metric labels.
const (
	LevelNetwork = "network"
	LevelGateway = "gateway"
	LevelSensor  = "sensor"
)

// Finder resolves an entity by its code.
type Finder[V any] interface {
	FindByKey(ctx context.Context, key string) (V, bool, error)
}

// Lister returns every stored record.
type Lister[V any] interface {
	FindAll(ctx context.Context) ([]V, error)
}

// Stores groups the store collaborators the report service reads from.
type Stores struct {
	Networks     Finder[domain.Network]
	Gateways     Finder[domain.Gateway]
	Sensors      Finder[domain.Sensor]
	Measurements Lister[domain.Measurement]
}

// Reporter produces the three report levels. Dates are optional strings in
// the ingestion timestamp layout; an empty string leaves that bound open.
type Reporter interface {
	NetworkReport(ctx context.Context, code, startDate, endDate string) (NetworkReport, error)
	GatewayReport(ctx context.Context, code, startDate, endDate string) (GatewayReport, error)
	SensorReport(ctx context.Context, code, startDate, endDate string) (SensorReport, error)
}

// Service builds reports from the store. It fetches every measurement and
// filters in memory.
type Service struct {
	stores  Stores
	layout  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a report service reading from stores. layout is the
// timestamp layout used to parse date filters.
func NewService(stores Stores, layout string, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		stores:  stores,
		layout:  layout,
		logger:  logger,
		metrics: metrics,
	}
}

func (s *Service) NetworkReport(ctx context.Context, code, startDate, endDate string) (NetworkReport, error) {
	w, err := s.prepare(LevelNetwork, code, startDate, endDate)
	if err != nil {
		return NetworkReport{}, err
	}
	start := domain.Now()
	if err := lookup(ctx, s.stores.Networks, LevelNetwork, code); err != nil {
		return NetworkReport{}, err
	}
	ms, err := s.measurements(ctx)
	if err != nil {
		return NetworkReport{}, err
	}
	r, err := BuildNetworkReport(code, w, ms)
	if err != nil {
		return NetworkReport{}, err
	}
	s.observe(LevelNetwork, code, start, r.NumberOfMeasurements)
	return r, nil
}

func (s *Service) GatewayReport(ctx context.Context, code, startDate, endDate string) (GatewayReport, error) {
	w, err := s.prepare(LevelGateway, code, startDate, endDate)
	if err != nil {
		return GatewayReport{}, err
	}
	start := domain.Now()
	gw, ok, err := s.stores.Gateways.FindByKey(ctx, code)
	if err != nil {
		return GatewayReport{}, fmt.Errorf("find gateway %q: %w", code, err)
	}
	if !ok {
		return GatewayReport{}, fmt.Errorf("gateway %q: %w", code, domain.ErrNotFound)
	}
	ms, err := s.measurements(ctx)
	if err != nil {
		return GatewayReport{}, err
	}
	r := BuildGatewayReport(gw, w, ms)
	s.observe(LevelGateway, code, start, r.NumberOfMeasurements)
	return r, nil
}

func (s *Service) SensorReport(ctx context.Context, code, startDate, endDate string) (SensorReport, error) {
	w, err := s.prepare(LevelSensor, code, startDate, endDate)
	if err != nil {
		return SensorReport{}, err
	}
	start := domain.Now()
	if err := lookup(ctx, s.stores.Sensors, LevelSensor, code); err != nil {
		return SensorReport{}, err
	}
	ms, err := s.measurements(ctx)
	if err != nil {
		return SensorReport{}, err
	}
	r := BuildSensorReport(code, w, ms)
	s.observe(LevelSensor, code, start, r.NumberOfMeasurements)
	return r, nil
}

// prepare validates the request before any store access.
func (s *Service) prepare(level, code, startDate, endDate string) (Window, error) {
	if code == "" {
		return Window{}, fmt.Errorf("%s code is required: %w", level, domain.ErrInvalidInput)
	}
	return ParseWindow(s.layout, startDate, endDate)
}

func (s *Service) measurements(ctx context.Context) ([]domain.Measurement, error) {
	ms, err := s.stores.Measurements.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	return ms, nil
}

func (s *Service) observe(level, code string, start time.Time, n int) {
	s.metrics.ReportsGenerated.WithLabelValues(level).Inc()
	s.metrics.ReportDuration.WithLabelValues(level).Observe(domain.Since(start).Seconds())
	s.logger.Debug("report generated", "level", level, "code", code, "measurements", n)
}

func lookup[V any](ctx context.Context, f Finder[V], level, code string) error {
	_, ok, err := f.FindByKey(ctx, code)
	if err != nil {
		return fmt.Errorf("find %s %q: %w", level, code, err)
	}
	if !ok {
		return fmt.Errorf("%s %q: %w", level, code, domain.ErrNotFound)
	}
	return nil
}
