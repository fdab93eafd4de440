// Package store provides the in-memory keyed repositories used by the
// importer and the report service.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// ErrDuplicateKey is returned when creating a record whose key already exists.
var ErrDuplicateKey = errors.New("duplicate key")

// Table is a thread-safe keyed collection. Records are copied on the way in
// and out, so callers never share mutable state with the table.
type Table[V any] struct {
	name     string
	key      func(V) string
	clone    func(V) V
	onCreate func(V) V
	onUpdate func(prev, next V) V
	rev      *atomic.Uint64

	mu    sync.RWMutex
	rows  map[string]V
	order []string
}

func newTable[V any](name string, rev *atomic.Uint64, key func(V) string) *Table[V] {
	return &Table[V]{
		name: name,
		key:  key,
		rev:  rev,
		rows: make(map[string]V),
	}
}

// Create inserts v and returns the stored copy.
func (t *Table[V]) Create(_ context.Context, v V) (V, error) {
	if t.onCreate != nil {
		v = t.onCreate(v)
	}
	k := t.key(v)
	if k == "" {
		var zero V
		return zero, fmt.Errorf("create %s: empty key: %w", t.name, domain.ErrInvalidInput)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[k]; ok {
		var zero V
		return zero, fmt.Errorf("create %s %q: %w", t.name, k, ErrDuplicateKey)
	}
	t.rows[k] = t.copy(v)
	t.order = append(t.order, k)
	t.rev.Add(1)
	return t.copy(v), nil
}

// FindAll returns every record in insertion order.
func (t *Table[V]) FindAll(_ context.Context) ([]V, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.copy(t.rows[k]))
	}
	return out, nil
}

// FindByKey returns the record stored under key. ok is false when absent.
func (t *Table[V]) FindByKey(_ context.Context, key string) (V, bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	v, ok := t.rows[key]
	if !ok {
		var zero V
		return zero, false, nil
	}
	return t.copy(v), true, nil
}

// Update replaces the record with the same key and returns the stored copy.
func (t *Table[V]) Update(_ context.Context, v V) (V, error) {
	k := t.key(v)

	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.rows[k]
	if !ok {
		var zero V
		return zero, fmt.Errorf("update %s %q: %w", t.name, k, domain.ErrNotFound)
	}
	if t.onUpdate != nil {
		v = t.onUpdate(prev, v)
	}
	t.rows[k] = t.copy(v)
	t.rev.Add(1)
	return t.copy(v), nil
}

// Len returns the number of stored records.
func (t *Table[V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *Table[V]) copy(v V) V {
	if t.clone == nil {
		return v
	}
	return t.clone(v)
}
