package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"salessense-go/internal/types"
)

const (
	DefaultCapacity = 50
	DefaultTTL      = 24 * time.Hour
)

// Key identifies one (recording, context) pair.
type Key string

// ComputeKey hashes the audio bytes followed by the UTF-8 context.
func ComputeKey(audio []byte, context string) Key {
	h := sha256.New()
	h.Write(audio)
	h.Write([]byte(context))
	return Key(hex.EncodeToString(h.Sum(nil)))
}

type entry struct {
	value    types.FinalResult
	storedAt time.Time
}

// Stats is the cache summary exposed over HTTP.
type Stats struct {
	Count    int     `json:"count"`
	Capacity int     `json:"capacity"`
	TTLHours float64 `json:"ttl_hours"`
}

// Cache holds recent analysis results in memory. Entries expire after the TTL
// and the oldest insertion is evicted when full. Safe for concurrent use.
type Cache struct {
	mu       sync.Mutex
	entries  map[Key]entry
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// New builds a cache; non-positive arguments select the defaults.
func New(capacity int, ttl time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		entries:  make(map[Key]entry),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns a copy of the stored result. Expired entries are purged first.
func (c *Cache) Get(key Key) (types.FinalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.purgeLocked()
	e, ok := c.entries[key]
	if !ok {
		return types.FinalResult{}, false
	}
	return e.value.Clone(), true
}

// Put stores a copy of value, evicting the oldest entry if the cache is full.
func (c *Cache) Put(key Key, value types.FinalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.capacity {
		c.evictOldestLocked()
	}
	c.entries[key] = entry{value: value.Clone(), storedAt: c.now()}
}

// Stats reports the current entry count and configuration.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Count: len(c.entries), Capacity: c.capacity, TTLHours: c.ttl.Hours()}
}

// Clear drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

func (c *Cache) purgeLocked() {
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
		}
	}
}

func (c *Cache) evictOldestLocked() {
	var (
		oldestKey Key
		oldestAt  time.Time
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.storedAt.Before(oldestAt) {
			oldestKey, oldestAt, found = k, e.storedAt, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}
