package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultTimestampLayout is the Go layout for "yyyy-MM-dd HH:mm:ss".
const DefaultTimestampLayout = "2006-01-02 15:04:05"

// ParseTimestamp parses s with layout as a UTC wall-clock time.
func ParseTimestamp(layout, s string) (time.Time, error) {
	t, err := time.ParseInLocation(layout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
