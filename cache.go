package tilekit

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Cache stores response bodies keyed by URL. Get returns ErrCacheMiss when
// the URL is absent; any other error means the tier is unavailable and the
// caller should fall back to the network. Returned slices are shared and
// must not be modified.
type Cache interface {
	Get(url string) ([]byte, error)
	Put(url string, data []byte) error
}

// CacheStats is a snapshot of cache occupancy and effectiveness.
type CacheStats struct {
	Entries   int
	Bytes     int64
	Capacity  int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

func (s CacheStats) String() string {
	return fmt.Sprintf("Cache[%d entries, %d/%d bytes, %d hits, %d misses, %d evictions]",
		s.Entries, s.Bytes, s.Capacity, s.Hits, s.Misses, s.Evictions)
}

// MemoryCache is a byte-bounded in-memory LRU cache. After every Put the
// total size of all entries is at most the capacity.
//
// MemoryCache is safe for concurrent use. Lookups that refresh recency take
// the write lock; Peek and the accessors share the read lock.
type MemoryCache struct {
	mu   sync.RWMutex
	lru  *byteLRU
	data map[string][]byte

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewMemoryCache creates a cache holding at most capacity bytes. A capacity
// <= 0 selects DefaultCacheCapacity.
func NewMemoryCache(capacity int64) *MemoryCache {
	return newMemoryCache(capacity, nil)
}

func newMemoryCache(capacity int64, now func() time.Time) *MemoryCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &MemoryCache{
		lru:  newByteLRU(capacity, now),
		data: make(map[string][]byte),
	}
}

// Get returns the bytes cached for url and marks the entry most recently
// used.
func (c *MemoryCache) Get(url string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, ok := c.data[url]
	if !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	c.lru.touch(url)
	c.hits.Add(1)
	return data, nil
}

// Peek returns the bytes cached for url without affecting recency or stats.
func (c *MemoryCache) Peek(url string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, ok := c.data[url]
	return data, ok
}

// LastAccess returns when url was last stored or read.
func (c *MemoryCache) LastAccess(url string) (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.lru.get(url)
	if !ok {
		return time.Time{}, false
	}
	return e.lastAccess, true
}

// Put stores data for url, evicting least recently used entries until the
// capacity holds. Payloads larger than the whole capacity are rejected with
// ErrEntryTooLarge and leave the cache unchanged.
func (c *MemoryCache) Put(url string, data []byte) error {
	size := int64(len(data))

	c.mu.Lock()
	defer c.mu.Unlock()

	if size > c.lru.capacity {
		return fmt.Errorf("%w: %d bytes > %d", ErrEntryTooLarge, size, c.lru.capacity)
	}
	c.data[url] = data
	for _, key := range c.lru.add(url, size, c.lru.now()) {
		delete(c.data, key)
	}
	return nil
}

// Remove drops url from the cache. Reports whether it was present.
func (c *MemoryCache) Remove(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, url)
	return c.lru.remove(url)
}

// Clear drops every entry. Statistics are kept.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.clear()
	c.data = make(map[string][]byte)
}

// SetCapacity changes the byte budget, evicting immediately if the cache
// no longer fits.
func (c *MemoryCache) SetCapacity(capacity int64) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.capacity = capacity
	for _, key := range c.lru.evictOver(capacity, "") {
		delete(c.data, key)
	}
}

// Len returns the number of cached entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.len()
}

// Size returns the total cached bytes.
func (c *MemoryCache) Size() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.used
}

// Capacity returns the byte budget.
func (c *MemoryCache) Capacity() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lru.capacity
}

// Stats returns a snapshot of the cache.
func (c *MemoryCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries:   c.lru.len(),
		Bytes:     c.lru.used,
		Capacity:  c.lru.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.lru.evictions,
	}
}

// TieredCache serves from a fast front tier and falls back to a slower
// back tier, promoting back-tier hits to the front.
type TieredCache struct {
	Front Cache
	Back  Cache
}

// Get tries Front, then Back. A Back error other than a miss is returned
// as is so the caller can treat the cache as unavailable.
func (t *TieredCache) Get(url string) ([]byte, error) {
	data, err := t.Front.Get(url)
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		Logger().Warn("front cache tier failed", "url", url, "kind", CacheUnavailable, "err", err)
	}
	data, err = t.Back.Get(url)
	if err != nil {
		return nil, err
	}
	if perr := t.Front.Put(url, data); perr != nil && !errors.Is(perr, ErrEntryTooLarge) {
		Logger().Warn("promote to front cache tier", "url", url, "kind", CacheUnavailable, "err", perr)
	}
	return data, nil
}

// Put writes to both tiers. Oversized entries are not an error for the
// tiered cache as long as one tier accepted them.
func (t *TieredCache) Put(url string, data []byte) error {
	ferr := t.Front.Put(url, data)
	berr := t.Back.Put(url, data)
	if errors.Is(ferr, ErrEntryTooLarge) && berr == nil {
		ferr = nil
	}
	if errors.Is(berr, ErrEntryTooLarge) && ferr == nil {
		berr = nil
	}
	return errors.Join(ferr, berr)
}
