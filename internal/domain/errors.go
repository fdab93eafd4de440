package domain

import "errors"

var (
	// ErrMalformedInput is returned when an ingested timestamp or value cannot be parsed.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNotFound is returned when a report is requested for an unknown entity.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for missing codes or unparseable report filters.
	ErrInvalidInput = errors.New("invalid input")
)
