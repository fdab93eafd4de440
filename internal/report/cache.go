package report

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/weather-report/internal/observability"
)

// Revisioner exposes a counter that changes on every store write.
type Revisioner interface {
	Revision() uint64
}

// CachedService wraps a Reporter with in-memory LRU caches. Keys include the
// store revision, so any write makes earlier entries unreachable. Cached
// reports are shared between callers and must not be modified.
type CachedService struct {
	inner    Reporter
	rev      Revisioner
	metrics  *observability.Metrics
	networks *lruCache[NetworkReport]
	gateways *lruCache[GatewayReport]
	sensors  *lruCache[SensorReport]
}

// NewCachedService creates a cache decorator around a report service. Each
// report level keeps up to maxEntries reports.
func NewCachedService(inner Reporter, rev Revisioner, metrics *observability.Metrics, maxEntries int) *CachedService {
	return &CachedService{
		inner:    inner,
		rev:      rev,
		metrics:  metrics,
		networks: newLRUCache[NetworkReport](maxEntries),
		gateways: newLRUCache[GatewayReport](maxEntries),
		sensors:  newLRUCache[SensorReport](maxEntries),
	}
}

func (c *CachedService) NetworkReport(ctx context.Context, code, startDate, endDate string) (NetworkReport, error) {
	return cached(c, c.networks, LevelNetwork, code, startDate, endDate, func() (NetworkReport, error) {
		return c.inner.NetworkReport(ctx, code, startDate, endDate)
	})
}

func (c *CachedService) GatewayReport(ctx context.Context, code, startDate, endDate string) (GatewayReport, error) {
	return cached(c, c.gateways, LevelGateway, code, startDate, endDate, func() (GatewayReport, error) {
		return c.inner.GatewayReport(ctx, code, startDate, endDate)
	})
}

func (c *CachedService) SensorReport(ctx context.Context, code, startDate, endDate string) (SensorReport, error) {
	return cached(c, c.sensors, LevelSensor, code, startDate, endDate, func() (SensorReport, error) {
		return c.inner.SensorReport(ctx, code, startDate, endDate)
	})
}

// cached serves a report from cache or builds it. Errors are never cached.
func cached[V any](c *CachedService, cache *lruCache[V], level, code, startDate, endDate string, build func() (V, error)) (V, error) {
	key := fmt.Sprintf("%s|%s|%s@%d", code, startDate, endDate, c.rev.Revision())
	if r, ok := cache.get(key); ok {
		c.metrics.ReportCache.WithLabelValues(level, "hit").Inc()
		return r, nil
	}
	c.metrics.ReportCache.WithLabelValues(level, "miss").Inc()

	r, err := build()
	if err != nil {
		return r, err
	}
	cache.put(key, r)
	return r, nil
}

// lruCache is a simple thread-safe LRU cache.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry[V]
	head       *entry[V] // most recently used
	tail       *entry[V] // least recently used
}

type entry[V any] struct {
	key   string
	value V
	prev  *entry[V]
	next  *entry[V]
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry[V]),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry[V]{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache[V]) moveToFront(e *entry[V]) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache[V]) addToFront(e *entry[V]) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache[V]) remove(e *entry[V]) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache[V]) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
