package report_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
	"github.com/couchcryptid/weather-report/internal/report"
)

// --- mocks ---

type mapFinder[V any] struct {
	items map[string]V
	err   error
	calls int
}

func (f *mapFinder[V]) FindByKey(_ context.Context, key string) (V, bool, error) {
	f.calls++
	v, ok := f.items[key]
	return v, ok, f.err
}

type sliceLister struct {
	items []domain.Measurement
	err   error
	calls int
}

func (l *sliceLister) FindAll(_ context.Context) ([]domain.Measurement, error) {
	l.calls++
	return l.items, l.err
}

type fixture struct {
	networks     *mapFinder[domain.Network]
	gateways     *mapFinder[domain.Gateway]
	sensors      *mapFinder[domain.Sensor]
	measurements *sliceLister
	metrics      *observability.Metrics
	svc          *report.Service
}

func newFixture() *fixture {
	f := &fixture{
		networks: &mapFinder[domain.Network]{items: map[string]domain.Network{
			"NET_01": {Code: "NET_01"},
		}},
		gateways: &mapFinder[domain.Gateway]{items: map[string]domain.Gateway{
			"GW_0001": {Code: "GW_0001", NetworkCode: "NET_01", Parameters: []domain.Parameter{
				{Code: domain.ParamBatteryCharge, Value: 64},
			}},
		}},
		sensors: &mapFinder[domain.Sensor]{items: map[string]domain.Sensor{
			"S_000001": {Code: "S_000001", GatewayCode: "GW_0001"},
		}},
		measurements: &sliceLister{items: []domain.Measurement{
			{NetworkCode: "NET_01", GatewayCode: "GW_0001", SensorCode: "S_000001", Value: 10, Timestamp: time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)},
			{NetworkCode: "NET_01", GatewayCode: "GW_0001", SensorCode: "S_000001", Value: 20, Timestamp: time.Date(2025, 1, 1, 11, 0, 0, 0, time.UTC)},
			{NetworkCode: "NET_01", GatewayCode: "GW_0001", SensorCode: "S_000001", Value: 30, Timestamp: time.Date(2025, 1, 2, 10, 0, 0, 0, time.UTC)},
		}},
		metrics: observability.NewMetricsForTesting(),
	}
	f.svc = report.NewService(report.Stores{
		Networks:     f.networks,
		Gateways:     f.gateways,
		Sensors:      f.sensors,
		Measurements: f.measurements,
	}, domain.DefaultTimestampLayout, slog.New(slog.NewTextHandler(io.Discard, nil)), f.metrics)
	return f
}

func (f *fixture) storeCalls() int {
	return f.networks.calls + f.gateways.calls + f.sensors.calls + f.measurements.calls
}

// --- tests ---

func TestService_SensorReport(t *testing.T) {
	f := newFixture()

	r, err := f.svc.SensorReport(context.Background(), "S_000001", "2025-01-01 00:00:00", "2025-01-01 23:59:59")
	require.NoError(t, err)

	assert.Equal(t, 2, r.NumberOfMeasurements)
	assert.InDelta(t, 15.0, r.Mean, 1e-12)
	assert.Equal(t, "2025-01-01 00:00:00", r.StartDate)
	assert.InDelta(t, 1.0, testutil.ToFloat64(f.metrics.ReportsGenerated.WithLabelValues(report.LevelSensor)), 0)
}

func TestService_GatewayReportUsesGatewayParameters(t *testing.T) {
	f := newFixture()

	r, err := f.svc.GatewayReport(context.Background(), "GW_0001", "", "")
	require.NoError(t, err)

	assert.Equal(t, 3, r.NumberOfMeasurements)
	assert.InDelta(t, 64.0, r.BatteryChargePercentage, 0)
	assert.Equal(t, []string{"S_000001"}, r.MostActiveSensors)
}

func TestService_NetworkReport(t *testing.T) {
	f := newFixture()

	r, err := f.svc.NetworkReport(context.Background(), "NET_01", "", "")
	require.NoError(t, err)

	assert.Equal(t, 3, r.NumberOfMeasurements)
	assert.Equal(t, []string{"GW_0001"}, r.MostActiveGateways)
	assert.NotEmpty(t, r.Histogram)
}

func TestService_MissingCodeIsRejectedBeforeStoreAccess(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.NetworkReport(ctx, "", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.GatewayReport(ctx, "", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.SensorReport(ctx, "", "", "")
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	assert.Zero(t, f.storeCalls())
}

func TestService_MalformedDateIsInvalidInput(t *testing.T) {
	f := newFixture()

	_, err := f.svc.SensorReport(context.Background(), "S_000001", "2025-13-45", "")

	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, f.storeCalls())
}

func TestService_UnknownCodeIsNotFound(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.NetworkReport(ctx, "NET_99", "", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.GatewayReport(ctx, "GW_9999", "", "")
	require.ErrorIs(t, err, domain.ErrNotFound)
	_, err = f.svc.SensorReport(ctx, "S_999999", "", "")
	require.ErrorIs(t, err, domain.ErrNotFound)

	assert.Zero(t, f.measurements.calls)
}

func TestService_StoreErrorsPropagate(t *testing.T) {
	boom := errors.New("store offline")

	f := newFixture()
	f.sensors.err = boom
	_, err := f.svc.SensorReport(context.Background(), "S_000001", "", "")
	require.ErrorIs(t, err, boom)

	f = newFixture()
	f.measurements.err = boom
	_, err = f.svc.GatewayReport(context.Background(), "GW_0001", "", "")
	require.ErrorIs(t, err, boom)
}
