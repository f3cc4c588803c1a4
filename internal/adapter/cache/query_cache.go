package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"
	"time"

	"ragqa/internal/domain"
)

// QueryCache is an LRU cache of retrieval results with a TTL. Entries are
// tagged with the index generation they were computed against and are
// dropped once the index has moved on.
type QueryCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	order   []string
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	results    []domain.RetrievalResult
	storedAt   time.Time
	generation uint64
}

func NewQueryCache(maxSize int, ttl time.Duration) *QueryCache {
	if maxSize <= 0 {
		maxSize = 128
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{
		entries: make(map[string]*cacheEntry),
		order:   make([]string, 0, maxSize),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func cacheKey(query string, topK int) string {
	data := make([]byte, 8, 8+len(query))
	binary.BigEndian.PutUint64(data, uint64(topK))
	data = append(data, query...)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:16])
}

// Get returns cached results for query computed at the given index generation.
func (c *QueryCache) Get(query string, topK int, generation uint64) ([]domain.RetrievalResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry, exists := c.entries[key]
	if !exists {
		c.misses++
		return nil, false
	}

	if entry.generation != generation || c.now().Sub(entry.storedAt) > c.ttl {
		delete(c.entries, key)
		c.removeFromOrder(key)
		c.misses++
		return nil, false
	}

	c.moveToEnd(key)
	c.hits++
	return cloneResults(entry.results), true
}

func (c *QueryCache) Put(query string, topK int, generation uint64, results []domain.RetrievalResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(query, topK)
	entry := &cacheEntry{
		results:    cloneResults(results),
		storedAt:   c.now(),
		generation: generation,
	}

	if _, exists := c.entries[key]; exists {
		c.entries[key] = entry
		c.moveToEnd(key)
		return
	}

	if len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = entry
	c.order = append(c.order, key)
}

func (c *QueryCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns hit and miss counts since creation.
func (c *QueryCache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *QueryCache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
}

func (c *QueryCache) moveToEnd(key string) {
	c.removeFromOrder(key)
	c.order = append(c.order, key)
}

func (c *QueryCache) removeFromOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// cloneResults copies the slice so callers cannot mutate cached state.
func cloneResults(results []domain.RetrievalResult) []domain.RetrievalResult {
	if results == nil {
		return nil
	}
	out := make([]domain.RetrievalResult, len(results))
	copy(out, results)
	return out
}
