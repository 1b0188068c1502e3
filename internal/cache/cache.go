// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache is a TTL response cache. Each adapter owns one cache per
// cached operation; entries expire lazily on read and can be swept eagerly
// with Cleanup.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	timestamp time.Time
	ttl       time.Duration
	hits      int
}

func (e *entry[V]) expired(now time.Time) bool {
	return now.Sub(e.timestamp) > e.ttl
}

// Cache maps string keys to values with a per-entry TTL. Safe for
// concurrent use.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[string]*entry[V]

	// now is replaceable in tests.
	now func() time.Time
}

// New returns an empty cache.
func New[V any]() *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]*entry[V]),
		now:     time.Now,
	}
}

// Key derives a deterministic cache key from an operation name and its
// parameters. Parameters are serialized as JSON (map keys sorted by the
// encoder), so identical calls share an entry while structurally different
// filter values do not. Semantically equivalent filters that serialize
// differently are distinct keys; that imprecision is accepted.
func Key(op string, params any) string {
	data, err := json.Marshal(params)
	if err != nil {
		data = []byte(fmt.Sprintf("%v", params))
	}
	sum := sha256.Sum256(append([]byte(op+":"), data...))
	return op + ":" + hex.EncodeToString(sum[:])[:24]
}

// Set stores value under key with the given TTL, replacing any previous
// entry and resetting its hit count.
func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry[V]{
		value:     value,
		timestamp: c.now(),
		ttl:       ttl,
	}
}

// Get returns the cached value for key. An expired entry is deleted and
// reported as absent.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return zero, false
	}
	e.hits++
	return e.value, true
}

// Has reports whether key holds a live entry. It does not count as a hit.
func (c *Cache[V]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.expired(c.now()) {
		delete(c.entries, key)
		return false
	}
	return true
}

// Delete removes key.
func (c *Cache[V]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes every entry.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry[V])
}

// Cleanup sweeps all expired entries and returns how many were removed.
func (c *Cache[V]) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats summarizes cache contents for observability.
type Stats struct {
	Size      int
	TotalHits int
	Keys      []string
}

// GetStats returns the live entry count, cumulative hit count, and keys.
// Expired entries still awaiting eviction are excluded.
func (c *Cache[V]) GetStats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{}
	for key, e := range c.entries {
		if e.expired(now) {
			continue
		}
		stats.Size++
		stats.TotalHits += e.hits
		stats.Keys = append(stats.Keys, key)
	}
	return stats
}
