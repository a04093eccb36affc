package usgs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/couchcryptid/streamflow-etl/internal/domain"
	"github.com/couchcryptid/streamflow-etl/internal/observability"
)

// CachedFetcher wraps a SeriesFetcher with an in-memory LRU cache. Keys
// include the window end date, so entries roll over with the calendar. A
// series is cached only once it holds a usable reading for the end date;
// until the gauge reports that day every lookup goes upstream.
type CachedFetcher struct {
	inner   domain.SeriesFetcher
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedFetcher creates a cache decorator around a fetcher.
func NewCachedFetcher(inner domain.SeriesFetcher, maxEntries int, metrics *observability.Metrics) *CachedFetcher {
	return &CachedFetcher{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

// FetchDailySeries returns a cached series when one exists for the same site
// and window. Callers must treat the returned series as read-only.
func (c *CachedFetcher) FetchDailySeries(ctx context.Context, siteCode string, start, end time.Time) (*domain.Series, error) {
	key := fmt.Sprintf("%s|%s|%s", siteCode, start.Format(domain.DateLayout), end.Format(domain.DateLayout))
	if series, ok := c.cache.get(key); ok {
		c.metrics.USGSCache.WithLabelValues("hit").Inc()
		return series, nil
	}
	c.metrics.USGSCache.WithLabelValues("miss").Inc()

	series, err := c.inner.FetchDailySeries(ctx, siteCode, start, end)
	if err != nil {
		return nil, err
	}
	if series.HasUsableReading(end) {
		c.cache.put(key, series)
	}
	return series, nil
}

// lruCache is a simple thread-safe LRU cache of series.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *domain.Series
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*domain.Series, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *domain.Series) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
