// Package cache provides the process-wide TTL cache that sits in front of upstream fetches.
package cache

import (
	"fmt"
	"sync"
	"time"

	"StockLens/internal/metrics"
	"StockLens/internal/model"
)

// Strategy selects how entries age out.
type Strategy string

const (
	// WholeEntry expires an entry as a unit once its TTL has elapsed.
	WholeEntry Strategy = "whole-entry"
	// PerSample filters price series on read, keeping only samples observed within the
	// sample TTL. Values that are not price series still expire as a whole.
	PerSample Strategy = "per-sample"
)

// ParseStrategy validates a configured strategy name. Empty means WholeEntry.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", WholeEntry:
		return WholeEntry, nil
	case PerSample:
		return PerSample, nil
	default:
		return "", fmt.Errorf("unknown cache strategy %q", s)
	}
}

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

type entry struct {
	value     any
	expiresAt time.Time
}

// Cache is a TTL key-value store safe for concurrent use. Writes to the same key are
// last-write-wins.
type Cache struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       Clock
	strategy  Strategy
	sampleTTL time.Duration
}

// Option configures a Cache at construction.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now Clock) Option {
	return func(c *Cache) { c.now = now }
}

// WithStrategy sets the eviction strategy.
func WithStrategy(s Strategy) Option {
	return func(c *Cache) { c.strategy = s }
}

// WithSampleTTL sets how old a sample may be under PerSample.
func WithSampleTTL(d time.Duration) Option {
	return func(c *Cache) { c.sampleTTL = d }
}

// New creates an empty cache. The default strategy is WholeEntry.
func New(opts ...Option) *Cache {
	c := &Cache{
		entries:   make(map[string]entry),
		now:       time.Now,
		strategy:  WholeEntry,
		sampleTTL: 5 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Strategy reports the configured eviction strategy.
func (c *Cache) Strategy() Strategy { return c.strategy }

// Get returns the value for key if it is still fresh. A stale entry is reported as a miss,
// never returned.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return nil, false
	}

	v, fresh := c.visible(e, c.now())
	if !fresh {
		metrics.CacheLookupsTotal.WithLabelValues("expired").Inc()
		return nil, false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return v, true
}

// Set stores value under key until now+ttl, replacing any previous entry.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key if present.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep drops entries that can no longer be served and, under PerSample, rewrites series
// entries without their aged samples. It returns the number of entries removed.
func (c *Cache) Sweep() int {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		v, fresh := c.visible(e, now)
		if !fresh {
			delete(c.entries, k)
			removed++
			continue
		}
		if _, ok := v.(model.PriceSeries); ok && c.strategy == PerSample {
			c.entries[k] = entry{value: v, expiresAt: e.expiresAt}
		}
	}
	return removed
}

// visible applies the eviction strategy to e at time now.
func (c *Cache) visible(e entry, now time.Time) (any, bool) {
	if c.strategy == PerSample {
		if series, ok := e.value.(model.PriceSeries); ok {
			kept := series.Since(now.Add(-c.sampleTTL))
			if len(kept) == 0 {
				return nil, false
			}
			return kept, true
		}
	}
	if !now.Before(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}
