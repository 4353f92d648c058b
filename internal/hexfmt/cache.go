package hexfmt

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// MaxCacheEntries is the number of formatted rows kept before the cache is
// reset.
const MaxCacheEntries = 4096

// RowCache memoises FormatRow. Entries are keyed by content, so a row whose
// bytes changed on disk simply misses.
type RowCache struct {
	mu    sync.RWMutex
	width int
	cache map[uint64]string
}

// NewRowCache creates a cache for rows of width bytes.
func NewRowCache(width int) *RowCache {
	return &RowCache{
		width: width,
		cache: make(map[uint64]string),
	}
}

// Format returns FormatRow(offset, row, width), from cache when possible.
func (r *RowCache) Format(offset int64, row []byte) string {
	key := r.cacheKey(offset, row)

	r.mu.RLock()
	if cached, ok := r.cache[key]; ok {
		r.mu.RUnlock()
		return cached
	}
	r.mu.RUnlock()

	line := FormatRow(offset, row, r.width)

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.cache) >= MaxCacheEntries {
		r.cache = make(map[uint64]string)
	}
	r.cache[key] = line
	return line
}

// Len returns the number of cached rows.
func (r *RowCache) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

// cacheKey hashes offset, length and content with xxhash.
func (r *RowCache) cacheKey(offset int64, row []byte) uint64 {
	var hdr [16]byte
	binary.LittleEndian.PutUint64(hdr[:8], uint64(offset))
	binary.LittleEndian.PutUint64(hdr[8:], uint64(len(row)))

	h := xxhash.New()
	h.Write(hdr[:])
	h.Write(row)
	return h.Sum64()
}
