package tilekit

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

const diskEntryExt = ".tile"

// DiskCache persists response bodies as one file per URL under a directory,
// bounded by a byte budget with least-recently-used eviction. File
// modification times record last access so recency survives restarts.
//
// DiskCache is safe for concurrent use within one process. Two processes
// sharing a directory are not coordinated.
type DiskCache struct {
	dir string

	mu  sync.Mutex
	lru *byteLRU

	hits   atomic.Uint64
	misses atomic.Uint64
}

// OpenDiskCache opens or creates a cache in dir holding at most capacity
// bytes. The index is rebuilt from the files already present, and the
// cache is trimmed if it exceeds capacity.
func OpenDiskCache(dir string, capacity int64) (*DiskCache, error) {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}

	type found struct {
		name string
		size int64
		mod  time.Time
	}
	var files []found
	for _, de := range entries {
		if de.IsDir() {
			continue
		}
		name := de.Name()
		if strings.HasSuffix(name, ".tmp") {
			// Leftover from an interrupted write.
			_ = os.Remove(filepath.Join(dir, name))
			continue
		}
		if !strings.HasSuffix(name, diskEntryExt) {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		files = append(files, found{name: name, size: info.Size(), mod: info.ModTime()})
	}
	// Oldest first so the newest file ends up most recently used.
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	c := &DiskCache{dir: dir, lru: newByteLRU(capacity, nil)}
	var trimmed []string
	for _, f := range files {
		trimmed = append(trimmed, c.lru.add(f.name, f.size, f.mod)...)
	}
	trimmed = append(trimmed, c.lru.evictOver(capacity, "")...)
	for _, name := range trimmed {
		_ = os.Remove(filepath.Join(dir, name))
	}
	c.lru.evictions = 0
	Logger().Info("disk cache opened", "dir", dir, "entries", c.lru.len(), "bytes", c.lru.used)
	return c, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	return c.dir
}

func diskEntryName(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:]) + diskEntryExt
}

// Get reads the cached body for url. A file that disappeared or cannot be
// read is dropped from the index and the disk, and reported as an error.
func (c *DiskCache) Get(url string) ([]byte, error) {
	name := diskEntryName(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lru.get(name); !ok {
		c.misses.Add(1)
		return nil, ErrCacheMiss
	}
	path := filepath.Join(c.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		c.lru.remove(name)
		if errors.Is(err, fs.ErrNotExist) {
			c.misses.Add(1)
			return nil, ErrCacheMiss
		}
		_ = os.Remove(path)
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	c.lru.touch(name)
	now := time.Now()
	_ = os.Chtimes(path, now, now)
	c.hits.Add(1)
	return data, nil
}

// Put writes data for url through a temporary file and an atomic rename,
// then evicts least recently used files until the budget holds.
func (c *DiskCache) Put(url string, data []byte) error {
	size := int64(len(data))
	if size > c.Capacity() {
		return fmt.Errorf("%w: %d bytes > %d", ErrEntryTooLarge, size, c.Capacity())
	}

	tmp, err := os.CreateTemp(c.dir, "entry-*.tmp")
	if err != nil {
		return fmt.Errorf("create cache entry: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write cache entry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close cache entry: %w", err)
	}

	name := diskEntryName(url)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Rename(tmpName, filepath.Join(c.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("commit cache entry: %w", err)
	}
	for _, victim := range c.lru.add(name, size, time.Now()) {
		if err := os.Remove(filepath.Join(c.dir, victim)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			Logger().Warn("evict disk cache entry", "file", victim, "err", err)
		}
	}
	return nil
}

// Remove deletes the entry for url. Reports whether it was indexed.
func (c *DiskCache) Remove(url string) bool {
	name := diskEntryName(url)
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.lru.remove(name) {
		return false
	}
	_ = os.Remove(filepath.Join(c.dir, name))
	return true
}

// Clear deletes every entry file.
func (c *DiskCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for name := range c.lru.items {
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	c.lru.clear()
	return errors.Join(errs...)
}

// Capacity returns the byte budget.
func (c *DiskCache) Capacity() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.capacity
}

// Stats returns a snapshot of the cache.
func (c *DiskCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   c.lru.len(),
		Bytes:     c.lru.used,
		Capacity:  c.lru.capacity,
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.lru.evictions,
	}
}
