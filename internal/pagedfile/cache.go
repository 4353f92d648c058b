package pagedfile

import (
	"sort"
	"sync"
)

// page holds the bytes of one cached page.
type page struct {
	data       []byte
	lastAccess uint64
}

// CacheStats counts cache activity since construction.
type CacheStats struct {
	Hits      uint64
	Misses    uint64
	Loads     uint64 // successful populations
	Clears    uint64
	Evictions uint64
}

// PageCache is a thread-safe map from page index to page bytes.
//
// It is shared between the accessor, which inserts on miss, and the change
// watcher, which clears it. A single mutex serialises lookups, populations
// and clears, so a clear either completes before a population starts or
// discards the page that population inserted.
type PageCache struct {
	mu       sync.Mutex
	pages    map[int64]*page
	maxPages int
	tick     uint64
	gen      uint64
	stats    CacheStats
}

// NewPageCache creates a cache holding at most maxPages pages.
// maxPages <= 0 disables eviction.
func NewPageCache(maxPages int) *PageCache {
	return &PageCache{
		pages:    make(map[int64]*page),
		maxPages: maxPages,
	}
}

// GetOrLoad returns the cached page at idx, calling load to populate it on a
// miss. load runs with the cache locked and is called at most once per call.
// A load error is returned as is and nothing is inserted.
func (c *PageCache) GetOrLoad(idx int64, load func() ([]byte, error)) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.tick++
	if p, ok := c.pages[idx]; ok {
		p.lastAccess = c.tick
		c.stats.Hits++
		return p.data, nil
	}
	c.stats.Misses++

	data, err := load()
	if err != nil {
		return nil, err
	}
	c.pages[idx] = &page{data: data, lastAccess: c.tick}
	c.stats.Loads++
	c.evictOldestLocked()
	return data, nil
}

// contains reports whether page idx is cached, without touching its recency.
func (c *PageCache) contains(idx int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pages[idx]
	return ok
}

// Clear drops every page and advances the generation.
func (c *PageCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.pages)
	c.gen++
	c.stats.Clears++
}

// Generation changes every time the cache is cleared.
func (c *PageCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Len returns the number of cached pages.
func (c *PageCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Stats returns a snapshot of the cache counters.
func (c *PageCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// evictOldestLocked removes least recently used pages when over capacity.
// Must be called with lock held.
func (c *PageCache) evictOldestLocked() {
	if c.maxPages <= 0 {
		return
	}
	excess := len(c.pages) - c.maxPages
	if excess <= 0 {
		return
	}

	type indexAccess struct {
		idx        int64
		lastAccess uint64
	}
	entries := make([]indexAccess, 0, len(c.pages))
	for idx, p := range c.pages {
		entries = append(entries, indexAccess{idx, p.lastAccess})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].lastAccess < entries[j].lastAccess
	})

	for i := range excess {
		delete(c.pages, entries[i].idx)
		c.stats.Evictions++
	}
}
