package store

import (
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// DefaultActor is recorded in audit fields when a record names no author.
const DefaultActor = "system"

var (
	_ domain.Repository[domain.Network]     = (*Table[domain.Network])(nil)
	_ domain.Repository[domain.Gateway]     = (*Table[domain.Gateway])(nil)
	_ domain.Repository[domain.Sensor]      = (*Table[domain.Sensor])(nil)
	_ domain.Repository[domain.Measurement] = (*Table[domain.Measurement])(nil)
)

// Memory holds one table per entity. Every write to any table bumps a shared
// revision counter.
type Memory struct {
	Networks     *Table[domain.Network]
	Gateways     *Table[domain.Gateway]
	Sensors      *Table[domain.Sensor]
	Measurements *Table[domain.Measurement]

	rev atomic.Uint64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	m := &Memory{}

	m.Networks = newTable("network", &m.rev, func(n domain.Network) string { return n.Code })
	m.Networks.clone = func(n domain.Network) domain.Network {
		n.Operators = slices.Clone(n.Operators)
		return n
	}
	m.Networks.onCreate = func(n domain.Network) domain.Network {
		n.Audit = stampCreated(n.Audit)
		return n
	}
	m.Networks.onUpdate = func(prev, next domain.Network) domain.Network {
		next.Audit = stampModified(prev.Audit, next.Audit)
		return next
	}

	m.Gateways = newTable("gateway", &m.rev, func(g domain.Gateway) string { return g.Code })
	m.Gateways.clone = func(g domain.Gateway) domain.Gateway {
		g.Parameters = slices.Clone(g.Parameters)
		return g
	}
	m.Gateways.onCreate = func(g domain.Gateway) domain.Gateway {
		g.Audit = stampCreated(g.Audit)
		return g
	}
	m.Gateways.onUpdate = func(prev, next domain.Gateway) domain.Gateway {
		next.Audit = stampModified(prev.Audit, next.Audit)
		return next
	}

	m.Sensors = newTable("sensor", &m.rev, func(s domain.Sensor) string { return s.Code })
	m.Sensors.clone = func(s domain.Sensor) domain.Sensor {
		if s.Threshold != nil {
			th := *s.Threshold
			s.Threshold = &th
		}
		return s
	}
	m.Sensors.onCreate = func(s domain.Sensor) domain.Sensor {
		s.Audit = stampCreated(s.Audit)
		return s
	}
	m.Sensors.onUpdate = func(prev, next domain.Sensor) domain.Sensor {
		next.Audit = stampModified(prev.Audit, next.Audit)
		return next
	}

	m.Measurements = newTable("measurement", &m.rev, func(ms domain.Measurement) string { return ms.ID })
	m.Measurements.onCreate = func(ms domain.Measurement) domain.Measurement {
		if ms.ID == "" {
			ms.ID = uuid.NewString()
		}
		return ms
	}

	return m
}

// Revision returns a counter that changes on every successful write.
func (m *Memory) Revision() uint64 {
	return m.rev.Load()
}

func stampCreated(a domain.Audit) domain.Audit {
	if a.CreatedBy == "" {
		a.CreatedBy = DefaultActor
	}
	a.CreatedAt = domain.Now()
	a.ModifiedBy = ""
	a.ModifiedAt = time.Time{}
	return a
}

func stampModified(prev, next domain.Audit) domain.Audit {
	next.CreatedBy = prev.CreatedBy
	next.CreatedAt = prev.CreatedAt
	if next.ModifiedBy == "" {
		next.ModifiedBy = DefaultActor
	}
	next.ModifiedAt = domain.Now()
	return next
}
