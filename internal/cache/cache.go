// Package cache provides a small in-memory TTL cache with ETag
// support for read-heavy API endpoints.
package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	data    []byte
	etag    string
	expires time.Time
}

// Cache is a concurrency-safe TTL cache keyed by string.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	enabled bool
}

// New creates a cache with the given default TTL. A disabled cache is
// safe to use; every lookup misses.
func New(ttl time.Duration, enabled bool) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		enabled: enabled,
	}
}

// Get returns the cached payload and its ETag if present and fresh.
func (c *Cache) Get(key string) ([]byte, string, bool) {
	if !c.enabled {
		return nil, "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		return nil, "", false
	}
	return e.data, e.etag, true
}

// Set stores a payload under the default TTL and returns its ETag.
func (c *Cache) Set(key string, data []byte) string {
	etag := ETag(data)
	if !c.enabled {
		return etag
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{data: data, etag: etag, expires: time.Now().Add(c.ttl)}
	return etag
}

// Invalidate drops one key.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Stats reports active and expired entry counts.
func (c *Cache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	active, expired := 0, 0
	now := time.Now()
	for _, e := range c.entries {
		if now.After(e.expires) {
			expired++
		} else {
			active++
		}
	}
	return map[string]interface{}{
		"enabled":      c.enabled,
		"active_keys":  active,
		"expired_keys": expired,
	}
}

// ETag computes a strong validator for a payload.
func ETag(data []byte) string {
	sum := sha1.Sum(data)
	return `"` + hex.EncodeToString(sum[:]) + `"`
}
