// Package textcache memoizes computation results keyed by text content.
// Keys are derived from the whole normalized input with a cryptographic
// hash, so near-identical long texts never collide.
package textcache

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/unicode/norm"
)

const (
	// DefaultMaxEntries bounds the cache size.
	DefaultMaxEntries = 100
	// DefaultTTL is how long an entry stays valid.
	DefaultTTL = time.Hour

	// evictFraction of maxEntries is dropped in bulk when the cache is
	// full, keeping amortized insert cost low.
	evictFraction = 0.2

	keyHexLen = 32
)

type entry[V any] struct {
	value     V
	createdAt time.Time
	expiresAt time.Time
}

// Stats summarizes cache occupancy for the monitoring endpoint.
type Stats struct {
	TotalEntries       int `json:"totalEntries"`
	ValidEntries       int `json:"validEntries"`
	ExpiredEntries     int `json:"expiredEntries"`
	MaxSize            int `json:"maxSize"`
	UtilizationPercent int `json:"utilizationPercent"`
	TTLMinutes         int `json:"ttlMinutes"`
}

// Cache is a size-bounded TTL cache shared across requests. Entries are
// written whole under the lock; duplicate-key writes are last-writer-wins.
type Cache[V any] struct {
	mu         sync.Mutex
	entries    map[string]*entry[V]
	maxEntries int
	ttl        time.Duration
}

func New[V any](maxEntries int, ttl time.Duration) *Cache[V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		entries:    make(map[string]*entry[V]),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Key derives the deterministic cache key for text: Unicode-normalized,
// whitespace-collapsed, lower-cased, then hashed in full.
func Key(text string) string {
	normalized := norm.NFKC.String(text)
	normalized = strings.ToLower(strings.Join(strings.Fields(normalized), " "))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:keyHexLen]
}

// Get returns the cached value for text, expiring it lazily.
func (c *Cache[V]) Get(text string) (V, bool) {
	var zero V
	key := Key(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Put stores value under the key of text. Storing twice for the same text
// overwrites the entry and refreshes its TTL. When the cache is full the
// oldest 20% of entries are evicted first.
func (c *Cache[V]) Put(text string, value V) {
	key := Key(text)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictOldestLocked()
	}
	c.entries[key] = &entry[V]{
		value:     value,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// evictOldestLocked removes ceil(maxEntries * evictFraction) entries by
// creation time. Caller holds the lock.
func (c *Cache[V]) evictOldestLocked() {
	toRemove := int(math.Ceil(float64(c.maxEntries) * evictFraction))
	if toRemove < 1 {
		toRemove = 1
	}

	type aged struct {
		key       string
		createdAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for k, e := range c.entries {
		all = append(all, aged{key: k, createdAt: e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.Before(all[j].createdAt) })

	for i := 0; i < toRemove && i < len(all); i++ {
		delete(c.entries, all[i].key)
	}
}

// CleanupExpired drops expired entries eagerly and returns the count
// removed. Wired as a cron job.
func (c *Cache[V]) CleanupExpired() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Clear empties the cache and returns how many entries were dropped.
func (c *Cache[V]) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[string]*entry[V])
	return n
}

// Len returns the current entry count, expired entries included.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats reports occupancy split into valid and expired entries.
func (c *Cache[V]) Stats() Stats {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := Stats{
		TotalEntries: len(c.entries),
		MaxSize:      c.maxEntries,
		TTLMinutes:   int(c.ttl / time.Minute),
	}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.ExpiredEntries++
		} else {
			stats.ValidEntries++
		}
	}
	stats.UtilizationPercent = int(math.Round(float64(len(c.entries)) / float64(c.maxEntries) * 100))
	return stats
}
