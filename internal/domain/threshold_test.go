package domain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViolated(t *testing.T) {
	tests := []struct {
		name      string
		kind      ThresholdKind
		threshold float64
		measured  float64
		expected  bool
	}{
		{"less than below", LessThan, 10, 9.99, true},
		{"less than at threshold", LessThan, 10, 10, false},
		{"less than above", LessThan, 10, 10.01, false},
		{"greater than above", GreaterThan, 40, 45, true},
		{"greater than at threshold", GreaterThan, 40, 40, false},
		{"greater than below", GreaterThan, 40, 39.5, false},
		{"less or equal at threshold", LessOrEqual, 5, 5, true},
		{"less or equal below", LessOrEqual, 5, -5, true},
		{"less or equal above", LessOrEqual, 5, 5.0001, false},
		{"greater or equal at threshold", GreaterOrEqual, -3, -3, true},
		{"greater or equal above", GreaterOrEqual, -3, 0, true},
		{"greater or equal below", GreaterOrEqual, -3, -3.5, false},
		{"equal exact", Equal, 21.5, 21.5, true},
		{"equal off by ulp", Equal, 21.5, math.Nextafter(21.5, 22), false},
		{"not equal different", NotEqual, 1, 2, true},
		{"not equal same", NotEqual, 1, 1, false},
		{"not equal off by ulp", NotEqual, 1, math.Nextafter(1, 2), true},
		{"unknown kind", ThresholdKind("BETWEEN"), 1, 100, false},
		{"empty kind", ThresholdKind(""), 1, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Violated(tt.kind, tt.threshold, tt.measured))
			assert.Equal(t, tt.expected, Threshold{Kind: tt.kind, Value: tt.threshold}.ViolatedBy(tt.measured))
		})
	}
}

func TestParseThresholdKind(t *testing.T) {
	for _, k := range ThresholdKinds {
		got, err := ParseThresholdKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseThresholdKind(" greater_than ")
	require.NoError(t, err)
	assert.Equal(t, GreaterThan, got)

	_, err = ParseThresholdKind("ABOUT")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestGatewayParameter(t *testing.T) {
	gw := Gateway{Code: "GW_0001", Parameters: []Parameter{
		{Code: ParamExpectedMean, Value: 20},
		{Code: ParamBatteryCharge, Value: 87.5},
	}}

	p, ok := gw.Parameter(ParamBatteryCharge)
	require.True(t, ok)
	assert.Equal(t, 87.5, p.Value)

	_, ok = gw.Parameter(ParamExpectedStdDev)
	assert.False(t, ok)
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp(DefaultTimestampLayout, " 2025-01-01 10:00:00 ")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC), got)

	_, err = ParseTimestamp(DefaultTimestampLayout, "2025-01-01T10:00:00Z")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse timestamp")
}

func TestClock(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2025, time.March, 3, 12, 0, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	start := Now()
	fake.Advance(90 * time.Second)
	assert.Equal(t, 90*time.Second, Since(start))
}

func TestNewAlert(t *testing.T) {
	raised := time.Date(2025, time.January, 1, 10, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(raised))
	t.Cleanup(func() { SetClock(nil) })

	a := NewAlert([]Operator{{Email: "john@example.com"}, {Email: "ana@example.com"}}, "S_000001")

	assert.Equal(t, "S_000001", a.SensorCode)
	assert.Equal(t, []string{"john@example.com", "ana@example.com"}, a.Recipients)
	assert.Equal(t, raised, a.RaisedAt)
}
