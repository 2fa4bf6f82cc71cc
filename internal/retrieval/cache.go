package retrieval

import (
	"container/list"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultCacheTTL bounds how long a fetched context stays servable.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultCacheMaxEntries bounds the number of cached topics.
	DefaultCacheMaxEntries = 20

	// significantWordLen is the minimum length for a query word to count
	// toward the topic fingerprint.
	significantWordLen = 4
)

// CacheEntry is a cached retrieval result for one topic.
type CacheEntry struct {
	Context   string
	Entities  []string
	CreatedAt time.Time
}

// CacheStats exposes cache configuration and occupancy for observability.
type CacheStats struct {
	Size       int           `json:"size"`
	MaxEntries int           `json:"max_entries"`
	TTL        time.Duration `json:"ttl"`
}

type cacheItem struct {
	key   string
	entry CacheEntry
}

// TopicCache is an in-memory, capacity- and time-bounded store mapping a
// topic-derived key to a previously fetched context blob. It is shared across
// concurrently in-flight turns; all operations are mutex-guarded. Eviction is
// by insertion order (oldest inserted first), not access recency, and expired
// entries are dropped lazily on read.
type TopicCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	items      map[string]*list.Element
	order      *list.List // front = oldest insertion
	now        func() time.Time
}

// NewTopicCache creates a cache with the given TTL and capacity. Zero or
// negative values fall back to the defaults, so isolated test instances can
// configure both explicitly.
func NewTopicCache(ttl time.Duration, maxEntries int) *TopicCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultCacheMaxEntries
	}
	return &TopicCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}
}

// GenerateKey derives a topic fingerprint from a query, namespaced by deal.
// Words of length <= 3 are discarded, the remainder deduplicated, sorted and
// joined, so reordered queries with the same significant words collide
// intentionally while different deals never do.
func GenerateKey(query, dealID string) string {
	fields := strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})

	seen := make(map[string]struct{}, len(fields))
	words := make([]string, 0, len(fields))
	for _, w := range fields {
		if len(w) < significantWordLen {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	sort.Strings(words)

	return dealID + "::" + strings.Join(words, "+")
}

// Get returns the entry for key if present and younger than the TTL. An
// expired entry is deleted and reported as a miss; it is never served.
func (c *TopicCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return CacheEntry{}, false
	}
	item := elem.Value.(*cacheItem)
	if c.now().Sub(item.entry.CreatedAt) >= c.ttl {
		c.order.Remove(elem)
		delete(c.items, key)
		return CacheEntry{}, false
	}
	return item.entry, true
}

// Set inserts or overwrites an entry. When inserting a new key would exceed
// the capacity, the single oldest-inserted entry is evicted first. Overwrites
// keep the key's original insertion position.
func (c *TopicCache) Set(key string, entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheItem).entry = entry
		return
	}

	if len(c.items) >= c.maxEntries {
		if oldest := c.order.Front(); oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*cacheItem).key)
		}
	}

	c.items[key] = c.order.PushBack(&cacheItem{key: key, entry: entry})
}

// Has reports whether the key is present. It is a pure probe: no TTL
// eviction, no order mutation.
func (c *TopicCache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// Stats returns current occupancy and configuration.
func (c *TopicCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:       len(c.items),
		MaxEntries: c.maxEntries,
		TTL:        c.ttl,
	}
}
