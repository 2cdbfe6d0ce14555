package llm

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Cache defaults. TTL is deliberately short: cached completions go stale as
// prompt templates and catalogs evolve.
const (
	DefaultCacheCapacity = 256
	DefaultCacheTTL      = 30 * time.Minute
)

// CacheKey derives the content address of a generation call. Two semantically
// identical calls (same prompt, model and sampling parameters) always map to
// the same key.
func CacheKey(prompt, model string, opts GenerateOptions) string {
	h := sha256.New()
	parts := []string{
		prompt,
		model,
		strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
		strconv.FormatFloat(opts.TopP, 'f', -1, 64),
		strconv.Itoa(opts.NumPredict),
	}
	h.Write([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(h.Sum(nil))
}

// cacheEntry is the internal storage structure for each entry.
type cacheEntry struct {
	key        string
	value      string
	createdAt  time.Time
	accessedAt time.Time
	expiresAt  time.Time
}

// ResponseCache is a TTL + LRU bounded cache for generation responses.
// It is an explicitly constructed, injectable service so concurrent pipelines
// and tests can hold isolated instances. All operations are safe for
// concurrent use.
type ResponseCache struct {
	mu       sync.Mutex
	entries  map[string]*list.Element
	order    *list.List // front = most recently used
	capacity int
	ttl      time.Duration

	// now is swappable for tests.
	now func() time.Time
}

// NewResponseCache creates a cache with the given capacity bound and default
// TTL. Non-positive arguments fall back to the package defaults.
func NewResponseCache(capacity int, ttl time.Duration) *ResponseCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResponseCache{
		entries:  make(map[string]*list.Element),
		order:    list.New(),
		capacity: capacity,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get retrieves a cached response by key. Expired entries are removed and
// reported as misses. A hit refreshes the entry's recency.
func (c *ResponseCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return "", false
	}

	entry := elem.Value.(*cacheEntry)
	if c.now().After(entry.expiresAt) {
		c.removeLocked(elem)
		return "", false
	}

	entry.accessedAt = c.now()
	c.order.MoveToFront(elem)
	return entry.value, true
}

// Put stores a response under key with the cache's default TTL.
func (c *ResponseCache) Put(key, value string) {
	c.PutTTL(key, value, c.ttl)
}

// PutTTL stores a response under key with an explicit TTL. When the capacity
// bound is exceeded the least-recently-used entry is evicted first.
func (c *ResponseCache) PutTTL(key, value string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*cacheEntry)
		entry.value = value
		entry.accessedAt = now
		entry.expiresAt = now.Add(ttl)
		c.order.MoveToFront(elem)
		return
	}

	elem := c.order.PushFront(&cacheEntry{
		key:        key,
		value:      value,
		createdAt:  now,
		accessedAt: now,
		expiresAt:  now.Add(ttl),
	})
	c.entries[key] = elem

	for len(c.entries) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest)
	}
}

// Delete removes an entry. Returns true if the entry existed.
func (c *ResponseCache) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Clear removes all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*list.Element)
	c.order.Init()
}

// Len returns the number of live entries, counting expired-but-unreaped ones.
func (c *ResponseCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ResponseCache) removeLocked(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.order.Remove(elem)
	delete(c.entries, entry.key)
}
