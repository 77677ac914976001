package loader

import (
	"sync"

	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

// Key identifies one line file of one year.
type Key struct {
	Year string
	File string
}

func (key Key) String() string {
	return key.Year + "/" + key.File
}

// Cache holds fetched line files. Entries are write-once: PutIfAbsent never
// replaces an existing value and returns whichever value ends up stored.
type Cache interface {
	Get(key Key) ([]feed.Cancellation, bool)
	PutIfAbsent(key Key, records []feed.Cancellation) []feed.Cancellation
}

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[Key][]feed.Cancellation
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[Key][]feed.Cancellation)}
}

func (cache *MemoryCache) Get(key Key) ([]feed.Cancellation, bool) {
	cache.mu.RLock()
	defer cache.mu.RUnlock()

	records, ok := cache.entries[key]
	return records, ok
}

func (cache *MemoryCache) PutIfAbsent(key Key, records []feed.Cancellation) []feed.Cancellation {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	if existing, ok := cache.entries[key]; ok {
		return existing
	}
	cache.entries[key] = records
	return records
}

func (cache *MemoryCache) Len() int {
	cache.mu.RLock()
	defer cache.mu.RUnlock()
	return len(cache.entries)
}
