package domain

import (
	"context"
	"time"
)

// Well-known gateway parameter codes.
const (
	ParamExpectedMean   = "EXPECTED_MEAN"
	ParamExpectedStdDev = "EXPECTED_STD_DEV"
	ParamBatteryCharge  = "BATTERY_CHARGE"
)

// Measurement is a single timestamped reading. It is created once by the
// importer and never mutated; ID is assigned by the store.
type Measurement struct {
	ID          string    `json:"id"`
	NetworkCode string    `json:"network_code"`
	GatewayCode string    `json:"gateway_code"`
	SensorCode  string    `json:"sensor_code"`
	Value       float64   `json:"value"`
	Timestamp   time.Time `json:"timestamp"`
}

// Audit records who created or last modified an entity, and when.
type Audit struct {
	CreatedBy  string    `json:"created_by,omitempty"`
	CreatedAt  time.Time `json:"created_at,omitzero"`
	ModifiedBy string    `json:"modified_by,omitempty"`
	ModifiedAt time.Time `json:"modified_at,omitzero"`
}

// Operator receives notifications when a sensor in one of their networks
// violates its threshold. Operators are identified by email.
type Operator struct {
	Email       string `json:"email"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// Network is a logical group of gateways with the operators responsible for it.
type Network struct {
	Code        string     `json:"code"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Operators   []Operator `json:"operators,omitempty"`
	Audit
}

// Parameter is a configuration or state value attached to a gateway.
type Parameter struct {
	Code        string  `json:"code"`
	Name        string  `json:"name,omitempty"`
	Description string  `json:"description,omitempty"`
	Value       float64 `json:"value"`
}

// Gateway groups sensors monitoring the same physical quantity.
type Gateway struct {
	Code        string      `json:"code"`
	NetworkCode string      `json:"network_code,omitempty"`
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Parameters  []Parameter `json:"parameters,omitempty"`
	Audit
}

// Parameter returns the gateway parameter with the given code.
func (g Gateway) Parameter(code string) (Parameter, bool) {
	for _, p := range g.Parameters {
		if p.Code == code {
			return p, true
		}
	}
	return Parameter{}, false
}

// Sensor measures a physical quantity. Threshold is nil when none is defined.
type Sensor struct {
	Code        string     `json:"code"`
	GatewayCode string     `json:"gateway_code,omitempty"`
	Name        string     `json:"name,omitempty"`
	Description string     `json:"description,omitempty"`
	Threshold   *Threshold `json:"threshold,omitempty"`
	Audit
}

// Repository is the keyed store collaborator used by the importer and the
// report service. FindByKey reports absence with ok=false rather than an error.
type Repository[V any] interface {
	Create(ctx context.Context, v V) (V, error)
	FindAll(ctx context.Context) ([]V, error)
	FindByKey(ctx context.Context, key string) (V, bool, error)
	Update(ctx context.Context, v V) (V, error)
}

// AlertDispatcher notifies operators about a threshold violation on a sensor.
// Dispatch is fire-and-forget: implementations handle their own failures.
type AlertDispatcher interface {
	NotifyViolation(ctx context.Context, operators []Operator, sensorCode string)
}

// Alert is the notification raised when a reading violates its sensor's
// threshold.
type Alert struct {
	SensorCode string    `json:"sensor_code"`
	Recipients []string  `json:"recipients"`
	RaisedAt   time.Time `json:"raised_at"`
}

// NewAlert builds an alert for sensorCode addressed to the operators' emails.
func NewAlert(operators []Operator, sensorCode string) Alert {
	recipients := make([]string, len(operators))
	for i, op := range operators {
		recipients[i] = op.Email
	}
	return Alert{SensorCode: sensorCode, Recipients: recipients, RaisedAt: Now()}
}
