// Command genmock generates a deterministic topology document and measurement
// CSV for local runs and test fixtures. It replays the generated data through
// the real importer and report service so the printed stats match what the
// service will report for the same files.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -topology-out data/mock/topology.json \
//	  -csv-out data/mock/measurements.csv \
//	  -networks 2 -gateways 3 -sensors 4 -readings 48
package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-report/internal/alert"
	"github.com/couchcryptid/weather-report/internal/domain"
	"github.com/couchcryptid/weather-report/internal/ingest"
	"github.com/couchcryptid/weather-report/internal/observability"
	"github.com/couchcryptid/weather-report/internal/report"
	"github.com/couchcryptid/weather-report/internal/store"
)

var baseDate = time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

type options struct {
	networks int
	gateways int
	sensors  int
	readings int
	interval time.Duration
	spikeP   float64
	seed     uint64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	topologyOut := flag.String("topology-out", "", "output path for the topology JSON fixture")
	csvOut := flag.String("csv-out", "", "output path for the measurement CSV fixture")
	var opts options
	flag.IntVar(&opts.networks, "networks", 2, "number of networks")
	flag.IntVar(&opts.gateways, "gateways", 3, "gateways per network")
	flag.IntVar(&opts.sensors, "sensors", 4, "sensors per gateway")
	flag.IntVar(&opts.readings, "readings", 48, "readings per sensor")
	flag.DurationVar(&opts.interval, "interval", 30*time.Minute, "time between readings of one sensor")
	flag.Float64Var(&opts.spikeP, "spike-probability", 0.02, "probability that a reading is a spike")
	flag.Uint64Var(&opts.seed, "seed", 42, "random seed")
	flag.Parse()

	if *topologyOut == "" || *csvOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -topology-out, -csv-out")
	}

	// Set a fixed clock for reproducible audit timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(baseDate))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	topo := generateTopology(opts, rng)
	measurements := generateMeasurements(topo, opts, rng)

	if err := writeJSON(*topologyOut, topo); err != nil {
		return fmt.Errorf("writing topology fixture: %w", err)
	}
	log.Printf("wrote topology fixture: %s", *topologyOut)

	var buf bytes.Buffer
	if err := writeCSV(&buf, measurements); err != nil {
		return fmt.Errorf("encoding measurements: %w", err)
	}
	if err := writeFile(*csvOut, buf.Bytes()); err != nil {
		return fmt.Errorf("writing measurement fixture: %w", err)
	}
	log.Printf("wrote measurement fixture: %s (%d readings)", *csvOut, len(measurements))

	return printStats(topo, buf.Bytes())
}

func generateTopology(opts options, rng *rand.Rand) store.Topology {
	var topo store.Topology
	kinds := []domain.ThresholdKind{domain.GreaterThan, domain.GreaterOrEqual, domain.LessThan, domain.LessOrEqual}

	for n := range opts.networks {
		netCode := fmt.Sprintf("NET_%02d", n+1)
		network := domain.Network{
			Code:        netCode,
			Name:        fmt.Sprintf("Network %d", n+1),
			Description: "generated by genmock",
		}
		// Leave the last network without operators so suppressed alerts show up.
		if n < opts.networks-1 || opts.networks == 1 {
			network.Operators = []domain.Operator{{
				Email:     fmt.Sprintf("operator%d@example.com", n+1),
				FirstName: "Operator",
				LastName:  strconv.Itoa(n + 1),
			}}
		}
		topo.Networks = append(topo.Networks, network)

		for g := range opts.gateways {
			gwCode := fmt.Sprintf("GW_%04d", n*opts.gateways+g+1)
			mean := 10 + rng.Float64()*20
			topo.Gateways = append(topo.Gateways, domain.Gateway{
				Code:        gwCode,
				NetworkCode: netCode,
				Name:        fmt.Sprintf("Gateway %s", gwCode),
				Parameters: []domain.Parameter{
					{Code: domain.ParamExpectedMean, Name: "Expected mean", Value: round(mean)},
					{Code: domain.ParamExpectedStdDev, Name: "Expected std dev", Value: round(1 + rng.Float64()*4)},
					{Code: domain.ParamBatteryCharge, Name: "Battery charge", Value: round(20 + rng.Float64()*80)},
				},
			})

			for s := range opts.sensors {
				sensorNo := (n*opts.gateways+g)*opts.sensors + s + 1
				sensor := domain.Sensor{
					Code:        fmt.Sprintf("S_%06d", sensorNo),
					GatewayCode: gwCode,
					Name:        fmt.Sprintf("Sensor %d", sensorNo),
				}
				// Every other sensor carries a threshold.
				if s%2 == 0 {
					kind := kinds[sensorNo%len(kinds)]
					limit := mean + 15
					if kind == domain.LessThan || kind == domain.LessOrEqual {
						limit = mean - 15
					}
					sensor.Threshold = &domain.Threshold{Kind: kind, Value: round(limit)}
				}
				topo.Sensors = append(topo.Sensors, sensor)
			}
		}
	}
	return topo
}

func generateMeasurements(topo store.Topology, opts options, rng *rand.Rand) []domain.Measurement {
	gateways := make(map[string]domain.Gateway, len(topo.Gateways))
	for _, g := range topo.Gateways {
		gateways[g.Code] = g
	}

	out := make([]domain.Measurement, 0, len(topo.Sensors)*opts.readings)
	for i := range opts.readings {
		for _, s := range topo.Sensors {
			gw := gateways[s.GatewayCode]
			mean, _ := gw.Parameter(domain.ParamExpectedMean)
			std, _ := gw.Parameter(domain.ParamExpectedStdDev)

			v := rng.NormFloat64()*std.Value + mean.Value
			if rng.Float64() < opts.spikeP {
				v += 10 * std.Value
			}
			jitter := time.Duration(rng.IntN(60)) * time.Second
			out = append(out, domain.Measurement{
				NetworkCode: gw.NetworkCode,
				GatewayCode: gw.Code,
				SensorCode:  s.Code,
				Value:       round(v),
				Timestamp:   baseDate.Add(time.Duration(i)*opts.interval + jitter),
			})
		}
	}
	return out
}

func writeCSV(w io.Writer, ms []domain.Measurement) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "networkCode", "gatewayCode", "sensorCode", "value"}); err != nil {
		return err
	}
	for _, m := range ms {
		rec := []string{
			m.Timestamp.Format(domain.DefaultTimestampLayout),
			m.NetworkCode,
			m.GatewayCode,
			m.SensorCode,
			strconv.FormatFloat(m.Value, 'f', -1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// printStats loads the fixtures into a fresh store and prints the figures
// tests are likely to assert on.
func printStats(topo store.Topology, csvData []byte) error {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	topoJSON, err := json.Marshal(topo)
	if err != nil {
		return err
	}
	mem := store.NewMemory()
	if _, err := store.LoadTopology(ctx, bytes.NewReader(topoJSON), mem); err != nil {
		return fmt.Errorf("reload topology: %w", err)
	}

	importer := ingest.New(mem.Measurements, mem.Sensors, mem.Networks, alert.Fanout{}, domain.DefaultTimestampLayout, logger, metrics)
	sum, err := importer.Import(ctx, bytes.NewReader(csvData))
	if err != nil {
		return fmt.Errorf("replay import: %w", err)
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Imported: %d, skipped: %d\n", sum.Imported, sum.Skipped)
	fmt.Printf("Violations: %d (dispatched=%d, suppressed=%d)\n", sum.Violations, sum.AlertsDispatched, sum.AlertsSuppressed)

	svc := report.NewService(report.Stores{
		Networks:     mem.Networks,
		Gateways:     mem.Gateways,
		Sensors:      mem.Sensors,
		Measurements: mem.Measurements,
	}, domain.DefaultTimestampLayout, logger, metrics)

	for _, n := range topo.Networks {
		r, err := svc.NetworkReport(ctx, n.Code, "", "")
		if err != nil {
			return err
		}
		fmt.Printf("\n%s: %d measurements, %d histogram buckets, most active %v\n",
			n.Code, r.NumberOfMeasurements, len(r.Histogram), r.MostActiveGateways)
	}
	for _, g := range topo.Gateways {
		r, err := svc.GatewayReport(ctx, g.Code, "", "")
		if err != nil {
			return err
		}
		fmt.Printf("  %s: battery=%g outlier sensors=%v\n", g.Code, r.BatteryChargePercentage, r.OutlierSensors)
	}
	var outliers int
	for _, s := range topo.Sensors {
		r, err := svc.SensorReport(ctx, s.Code, "", "")
		if err != nil {
			return err
		}
		outliers += len(r.Outliers)
	}
	fmt.Printf("\nSensor-level outliers: %d\n", outliers)
	return nil
}

func round(v float64) float64 {
	return float64(int64(v*100)) / 100
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFile(path, data)
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
