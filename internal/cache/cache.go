// Package cache stores recognition results keyed by frame fingerprints so
// visually identical input skips the expensive matching path.
package cache

import (
	"log"
	"sync"
	"time"

	"github.com/kozaktomas/memory-mirror/internal/recognize"
)

const (
	DefaultMaxSize         = 1000
	DefaultTTL             = 30 * time.Second
	DefaultCleanupInterval = 60 * time.Second
)

// entry wraps one cached recognition result.
type entry struct {
	result      recognize.Result
	fingerprint string
	timestamp   time.Time
	hits        int
}

// expired reports whether the entry is older than ttl. Strictly greater:
// an entry queried at exactly ttl seconds of age is still a hit.
func (e *entry) expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(e.timestamp) > ttl
}

// Cache is an LRU cache with per-entry TTL. All operations are serialized
// under a single mutex because the capture tick and administrative actions
// run on different goroutines.
type Cache struct {
	mu sync.Mutex

	maxSize int
	ttl     time.Duration

	entries map[string]*entry
	// order holds fingerprints from least to most recently used. Every
	// key in entries appears here exactly once and vice versa.
	order []string

	hits     int
	misses   int
	requests int

	cleanupInterval time.Duration
	lastCleanup     time.Time

	now func() time.Time
}

// New creates a cache. Non-positive arguments select the defaults.
func New(maxSize int, ttl, cleanupInterval time.Duration) *Cache {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Cache{
		maxSize:         maxSize,
		ttl:             ttl,
		entries:         make(map[string]*entry),
		cleanupInterval: cleanupInterval,
		lastCleanup:     time.Now(),
		now:             time.Now,
	}
}

// Get returns the cached result for a fingerprint. Expired entries are
// evicted as a side effect and reported as misses. A hit increments the
// entry's hit counter and promotes it to most recently used.
func (c *Cache) Get(fingerprint string) (recognize.Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests++

	e, ok := c.entries[fingerprint]
	if !ok {
		c.misses++
		return recognize.Result{}, false
	}

	if e.expired(c.ttl, c.now()) {
		c.remove(fingerprint)
		c.misses++
		return recognize.Result{}, false
	}

	c.promote(fingerprint)
	e.hits++
	c.hits++

	return e.result, true
}

// Put stores a result under a fingerprint, evicting the least recently used
// entry when at capacity. Expired entries are swept opportunistically, at
// most once per cleanup interval; there is no background goroutine.
func (c *Cache) Put(fingerprint string, result recognize.Result) {
	if fingerprint == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[fingerprint]; !ok && len(c.entries) >= c.maxSize {
		c.evictLRU()
	}

	c.entries[fingerprint] = &entry{
		result:      result,
		fingerprint: fingerprint,
		timestamp:   c.now(),
	}
	c.promote(fingerprint)

	c.maybeCleanup()
}

// Invalidate removes entries. An empty person id clears the whole cache;
// otherwise only entries whose result matches that person are removed.
func (c *Cache) Invalidate(personID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if personID == "" {
		c.entries = make(map[string]*entry)
		c.order = c.order[:0]
		log.Printf("cache: cleared completely")
		return
	}

	var keys []string
	for key, e := range c.entries {
		if e.result.PersonID == personID {
			keys = append(keys, key)
		}
	}
	for _, key := range keys {
		c.remove(key)
	}
	log.Printf("cache: invalidated %d entries for person %s", len(keys), personID)
}

// MostAccessed describes the entry with the highest hit count.
type MostAccessed struct {
	PersonID   string  `json:"person_id"`
	Hits       int     `json:"hit_count"`
	Confidence float64 `json:"confidence"`
}

// Stats is a snapshot of cache performance counters.
type Stats struct {
	Size           int           `json:"size"`
	MaxSize        int           `json:"max_size"`
	Hits           int           `json:"hit_count"`
	Misses         int           `json:"miss_count"`
	Requests       int           `json:"total_requests"`
	HitRatePercent float64       `json:"hit_rate_percent"`
	TTLSeconds     float64       `json:"ttl_seconds"`
	OldestAge      float64       `json:"oldest_entry_seconds"`
	MostAccessed   *MostAccessed `json:"most_accessed,omitempty"`
}

// Stats returns current cache statistics.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if c.requests > 0 {
		hitRate = float64(c.hits) / float64(c.requests) * 100
	}

	s := Stats{
		Size:           len(c.entries),
		MaxSize:        c.maxSize,
		Hits:           c.hits,
		Misses:         c.misses,
		Requests:       c.requests,
		HitRatePercent: hitRate,
		TTLSeconds:     c.ttl.Seconds(),
	}

	now := c.now()
	var oldest *entry
	var top *entry
	for _, e := range c.entries {
		if oldest == nil || e.timestamp.Before(oldest.timestamp) {
			oldest = e
		}
		if top == nil || e.hits > top.hits {
			top = e
		}
	}
	if oldest != nil {
		s.OldestAge = now.Sub(oldest.timestamp).Seconds()
	}
	if top != nil {
		s.MostAccessed = &MostAccessed{
			PersonID:   top.result.PersonID,
			Hits:       top.hits,
			Confidence: top.result.Confidence,
		}
	}

	return s
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// evictLRU removes the entry at the front of the access order. Lock held.
func (c *Cache) evictLRU() {
	if len(c.order) == 0 {
		return
	}
	c.remove(c.order[0])
}

// remove deletes an entry from the map and the access order. Lock held.
func (c *Cache) remove(fingerprint string) {
	delete(c.entries, fingerprint)
	for i, key := range c.order {
		if key == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// promote moves a fingerprint to the most-recently-used position. Lock held.
func (c *Cache) promote(fingerprint string) {
	for i, key := range c.order {
		if key == fingerprint {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, fingerprint)
}

// maybeCleanup sweeps expired entries when the cleanup interval has passed.
// Lock held.
func (c *Cache) maybeCleanup() {
	now := c.now()
	if now.Sub(c.lastCleanup) <= c.cleanupInterval {
		return
	}
	c.lastCleanup = now

	var expired []string
	for key, e := range c.entries {
		if e.expired(c.ttl, now) {
			expired = append(expired, key)
		}
	}
	for _, key := range expired {
		c.remove(key)
	}
	if len(expired) > 0 {
		log.Printf("cache: swept %d expired entries", len(expired))
	}
}
