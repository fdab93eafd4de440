// Package alert provides in-process alert dispatchers.
package alert

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// LogDispatcher writes each alert to the service log.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a dispatcher that logs alerts at warn level.
func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) NotifyViolation(ctx context.Context, operators []domain.Operator, sensorCode string) {
	a := domain.NewAlert(operators, sensorCode)
	d.logger.WarnContext(ctx, "sensor threshold alert",
		"sensor", a.SensorCode,
		"recipients", a.Recipients,
		"raised_at", a.RaisedAt,
	)
}

// Fanout forwards every alert to each of its dispatchers in order.
type Fanout []domain.AlertDispatcher

func (f Fanout) NotifyViolation(ctx context.Context, operators []domain.Operator, sensorCode string) {
	for _, d := range f {
		d.NotifyViolation(ctx, operators, sensorCode)
	}
}
