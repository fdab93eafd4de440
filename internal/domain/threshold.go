package domain

import (
	"fmt"
	"strings"
)

// ThresholdKind is the comparison a threshold applies to a measured value.
type ThresholdKind string

const (
	LessThan       ThresholdKind = "LESS_THAN"
	GreaterThan    ThresholdKind = "GREATER_THAN"
	LessOrEqual    ThresholdKind = "LESS_OR_EQUAL"
	GreaterOrEqual ThresholdKind = "GREATER_OR_EQUAL"
	Equal          ThresholdKind = "EQUAL"
	NotEqual       ThresholdKind = "NOT_EQUAL"
)

// ThresholdKinds lists every supported kind.
var ThresholdKinds = []ThresholdKind{LessThan, GreaterThan, LessOrEqual, GreaterOrEqual, Equal, NotEqual}

// ParseThresholdKind validates a kind name. Matching is case-insensitive.
func ParseThresholdKind(s string) (ThresholdKind, error) {
	kind := ThresholdKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range ThresholdKinds {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown threshold kind %q", ErrInvalidInput, s)
}

// Violated reports whether measured breaks a threshold of this kind set at
// threshold. Comparisons are exact; unknown kinds are never violated.
func (k ThresholdKind) Violated(threshold, measured float64) bool {
	switch k {
	case LessThan:
		return measured < threshold
	case GreaterThan:
		return measured > threshold
	case LessOrEqual:
		return measured <= threshold
	case GreaterOrEqual:
		return measured >= threshold
	case Equal:
		return measured == threshold
	case NotEqual:
		return measured != threshold
	default:
		return false
	}
}

// Violated is the free-function form of ThresholdKind.Violated.
func Violated(kind ThresholdKind, threshold, measured float64) bool {
	return kind.Violated(threshold, measured)
}

// Threshold defines the acceptable limit for a sensor's readings.
type Threshold struct {
	Kind  ThresholdKind `json:"kind"`
	Value float64       `json:"value"`
}

// ViolatedBy reports whether the measured value breaks the threshold.
func (t Threshold) ViolatedBy(measured float64) bool {
	return t.Kind.Violated(t.Value, measured)
}
