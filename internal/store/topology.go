package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// Topology is the seed document describing networks, gateways and sensors.
type Topology struct {
	Networks []domain.Network `json:"networks"`
	Gateways []domain.Gateway `json:"gateways"`
	Sensors  []domain.Sensor  `json:"sensors"`
}

// LoadTopology decodes a topology document from r and creates every entity
// in m. Gateways must reference a known network and sensors a known gateway.
// Threshold kinds are validated and normalized.
func LoadTopology(ctx context.Context, r io.Reader, m *Memory) (Topology, error) {
	var topo Topology
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&topo); err != nil {
		return Topology{}, fmt.Errorf("decode topology: %w: %w", domain.ErrMalformedInput, err)
	}

	for _, n := range topo.Networks {
		if _, err := m.Networks.Create(ctx, n); err != nil {
			return Topology{}, err
		}
	}

	for _, g := range topo.Gateways {
		if err := requireParent(ctx, m.Networks, "gateway", g.Code, "network", g.NetworkCode); err != nil {
			return Topology{}, err
		}
		if _, err := m.Gateways.Create(ctx, g); err != nil {
			return Topology{}, err
		}
	}

	for _, s := range topo.Sensors {
		if err := requireParent(ctx, m.Gateways, "sensor", s.Code, "gateway", s.GatewayCode); err != nil {
			return Topology{}, err
		}
		if s.Threshold != nil {
			kind, err := domain.ParseThresholdKind(string(s.Threshold.Kind))
			if err != nil {
				return Topology{}, fmt.Errorf("sensor %q: %w", s.Code, err)
			}
			s.Threshold = &domain.Threshold{Kind: kind, Value: s.Threshold.Value}
		}
		if _, err := m.Sensors.Create(ctx, s); err != nil {
			return Topology{}, err
		}
	}

	return topo, nil
}

// LoadTopologyFile opens path and loads it with LoadTopology.
func LoadTopologyFile(ctx context.Context, path string, m *Memory) (Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return Topology{}, fmt.Errorf("open topology: %w", err)
	}
	defer f.Close()
	return LoadTopology(ctx, f, m)
}

func requireParent[V any](ctx context.Context, parents *Table[V], kind, code, parentKind, parentCode string) error {
	if parentCode == "" {
		return nil
	}
	_, ok, err := parents.FindByKey(ctx, parentCode)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s %q references unknown %s %q: %w", kind, code, parentKind, parentCode, domain.ErrInvalidInput)
	}
	return nil
}
