// Package ingest imports measurement CSV files into the store and raises
// threshold alerts as each reading is recorded.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/observability"
)

// minFields is the number of fields in a data line:
// timestamp, network, gateway, sensor, value.
const minFields = 5

// Creator persists a new measurement and returns the stored copy.
type Creator interface {
	Create(ctx context.Context, m domain.Measurement) (domain.Measurement, error)
}

// Finder resolves an entity by its code.
type Finder[V any] interface {
	FindByKey(ctx context.Context, key string) (V, bool, error)
}

// Summary counts what an import did.
type Summary struct {
	Imported         int `json:"imported"`
	Skipped          int `json:"skipped"`
	Violations       int `json:"violations"`
	AlertsDispatched int `json:"alerts_dispatched"`
	AlertsSuppressed int `json:"alerts_suppressed"`
}

// ImportError reports the line at which an import was aborted.
type ImportError struct {
	Line int
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import line %d: %v", e.Line, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

// Importer reads measurement CSV, stores each reading and checks it against
// its sensor's threshold.
type Importer struct {
	measurements Creator
	sensors      Finder[domain.Sensor]
	networks     Finder[domain.Network]
	alerts       domain.AlertDispatcher
	layout       string
	logger       *slog.Logger
	metrics      *observability.Metrics
	ready        atomic.Bool
}

// New creates an Importer. layout is the timestamp layout of the first field.
func New(measurements Creator, sensors Finder[domain.Sensor], networks Finder[domain.Network], alerts domain.AlertDispatcher, layout string, logger *slog.Logger, metrics *observability.Metrics) *Importer {
	return &Importer{
		measurements: measurements,
		sensors:      sensors,
		networks:     networks,
		alerts:       alerts,
		layout:       layout,
		logger:       logger,
		metrics:      metrics,
	}
}

// CheckReadiness returns nil once at least one import has completed.
func (i *Importer) CheckReadiness(_ context.Context) error {
	if !i.ready.Load() {
		return errors.New("no measurements have been imported yet")
	}
	return nil
}

// ImportFile opens path and imports it with Import.
func (i *Importer) ImportFile(ctx context.Context, path string) (Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Summary{}, fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()
	return i.Import(ctx, f)
}

// Import reads a header line followed by data lines. Blank lines and lines
// with fewer than five fields are skipped. An unparseable timestamp or value
// aborts the import with an *ImportError; lines stored before it are kept.
func (i *Importer) Import(ctx context.Context, r io.Reader) (Summary, error) {
	start := domain.Now()
	var sum Summary

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header := true
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return sum, i.fail(&ImportError{Line: csvLine(err), Err: fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)})
		}
		line, _ := cr.FieldPos(0)

		if header {
			header = false
			continue
		}
		if len(rec) < minFields {
			sum.Skipped++
			i.metrics.LinesSkipped.Inc()
			continue
		}

		m, err := parseRecord(rec, i.layout)
		if err != nil {
			return sum, i.fail(&ImportError{Line: line, Err: err})
		}

		created, err := i.measurements.Create(ctx, m)
		if err != nil {
			return sum, i.fail(&ImportError{Line: line, Err: fmt.Errorf("store measurement: %w", err)})
		}
		sum.Imported++
		i.metrics.MeasurementsImported.Inc()

		if err := i.checkThreshold(ctx, created, &sum); err != nil {
			return sum, i.fail(&ImportError{Line: line, Err: err})
		}
	}

	i.metrics.ImportDuration.Observe(domain.Since(start).Seconds())
	i.ready.Store(true)
	i.logger.Info("import finished",
		"imported", sum.Imported,
		"skipped", sum.Skipped,
		"violations", sum.Violations,
		"alerts_dispatched", sum.AlertsDispatched,
		"alerts_suppressed", sum.AlertsSuppressed,
	)
	return sum, nil
}

// checkThreshold alerts the network's operators when m violates its sensor's
// threshold. A missing sensor, threshold, network or operator list is not an
// error.
func (i *Importer) checkThreshold(ctx context.Context, m domain.Measurement, sum *Summary) error {
	sensor, ok, err := i.sensors.FindByKey(ctx, m.SensorCode)
	if err != nil {
		return fmt.Errorf("find sensor %q: %w", m.SensorCode, err)
	}
	if !ok || sensor.Threshold == nil || !sensor.Threshold.ViolatedBy(m.Value) {
		return nil
	}
	sum.Violations++
	i.metrics.ThresholdViolations.Inc()

	network, ok, err := i.networks.FindByKey(ctx, m.NetworkCode)
	if err != nil {
		return fmt.Errorf("find network %q: %w", m.NetworkCode, err)
	}
	if !ok || len(network.Operators) == 0 {
		sum.AlertsSuppressed++
		i.metrics.AlertsSuppressed.Inc()
		i.logger.Debug("threshold violated, no operators to notify",
			"sensor", sensor.Code, "network", m.NetworkCode, "value", m.Value)
		return nil
	}

	i.alerts.NotifyViolation(ctx, network.Operators, sensor.Code)
	sum.AlertsDispatched++
	i.metrics.AlertsDispatched.Inc()
	i.logger.Info("threshold violated",
		"sensor", sensor.Code,
		"kind", sensor.Threshold.Kind,
		"threshold", sensor.Threshold.Value,
		"value", m.Value,
		"operators", len(network.Operators),
	)
	return nil
}

func (i *Importer) fail(err *ImportError) error {
	i.metrics.ImportFailures.Inc()
	i.logger.Error("import aborted", "line", err.Line, "error", err.Err)
	return err
}

// parseRecord converts one data line into a measurement.
func parseRecord(rec []string, layout string) (domain.Measurement, error) {
	ts, err := domain.ParseTimestamp(layout, rec[0])
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("%w: %w", domain.ErrMalformedInput, err)
	}
	raw := strings.TrimSpace(rec[4])
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return domain.Measurement{}, fmt.Errorf("%w: parse value %q: %w", domain.ErrMalformedInput, raw, err)
	}
	return domain.Measurement{
		NetworkCode: strings.TrimSpace(rec[1]),
		GatewayCode: strings.TrimSpace(rec[2]),
		SensorCode:  strings.TrimSpace(rec[3]),
		Value:       value,
		Timestamp:   ts,
	}, nil
}

func csvLine(err error) int {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return perr.Line
	}
	return 0
}
