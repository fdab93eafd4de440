// Package domain models weather-sensor deployments and the measurements they
// produce.
//
// # Topology
//
// Deployments are hierarchical:
//
//	network  →  gateway  →  sensor
//	NET_01      GW_0001     S_000001
//
// A network owns a list of operators who receive threshold-violation alerts.
// A gateway carries configuration parameters that tune how its readings are
// interpreted. A sensor may carry a single threshold. Parents are referenced by
// code (Gateway.NetworkCode, Sensor.GatewayCode) and resolved through a
// [Repository]; entities never hold pointers to each other.
//
// # Gateway parameters
//
// Three parameter codes have a fixed meaning:
//
//	EXPECTED_MEAN     expected mean of a sensor's readings
//	EXPECTED_STD_DEV  expected standard deviation around EXPECTED_MEAN
//	BATTERY_CHARGE    last reported battery charge, in percent
//
// Outlier-sensor detection is enabled only when both EXPECTED_MEAN and
// EXPECTED_STD_DEV are present. A missing BATTERY_CHARGE reads as 0.
//
// # Measurements
//
// Measurements arrive as CSV rows:
//
//	timestamp,networkCode,gatewayCode,sensorCode,value
//	2025-01-01 10:00:00,NET_01,GW_0001,S_000001,45.0
//
// Timestamps use a single configured layout ([DefaultTimestampLayout] unless
// overridden) and are interpreted as UTC. Values use '.' as the decimal
// separator regardless of locale. The same layout is used for report date
// filters.
//
// # Thresholds
//
// A threshold pairs a [ThresholdKind] with a value. [Violated] compares with
// exact floating-point semantics, so EQUAL and NOT_EQUAL match bit-for-bit.
// An unknown kind never reports a violation.
package domain
