package loader

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"tarediiran-industries.com/transit-cancellations/internal/feed"
)

func TestMemoryCacheIsWriteOnce(t *testing.T) {
	cache := NewMemoryCache()
	key := Key{Year: "2025", File: "S1.json"}

	_, ok := cache.Get(key)
	assert.False(t, ok)

	first := []feed.Cancellation{{TrainNumber: "first"}}
	stored := cache.PutIfAbsent(key, first)
	assert.Equal(t, first, stored)

	stored = cache.PutIfAbsent(key, []feed.Cancellation{{TrainNumber: "second"}})
	assert.Equal(t, first, stored)

	got, ok := cache.Get(key)
	assert.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, "2025/S1.json", key.String())
}

func TestMemoryCacheConcurrentInsert(t *testing.T) {
	cache := NewMemoryCache()
	key := Key{Year: "2025", File: "S1.json"}

	var wg sync.WaitGroup
	results := make([][]feed.Cancellation, 32)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = cache.PutIfAbsent(key, []feed.Cancellation{{TrainNumber: string(rune('a' + i))}})
		}()
	}
	wg.Wait()

	for _, result := range results {
		assert.Equal(t, results[0], result)
	}
}
