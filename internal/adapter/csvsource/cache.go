package csvsource

import (
	"container/list"

	"github.com/couchcryptid/weather-data-etl/internal/domain"
)

// dateCache memoizes parsed observation dates. Hourly feeds repeat the same
// date text 24 times per site, so most lookups hit.
type dateCache struct {
	cache *lruCache
	parse func(string) (domain.Date, error)
}

func newDateCache(maxEntries int) *dateCache {
	return &dateCache{
		cache: newLRUCache(maxEntries),
		parse: domain.ParseDate,
	}
}

// Parse returns the cached date for raw, parsing it on a miss. Failures are
// not cached.
func (c *dateCache) Parse(raw string) (domain.Date, error) {
	if d, ok := c.cache.get(raw); ok {
		return d, nil
	}
	d, err := c.parse(raw)
	if err != nil {
		return 0, err
	}
	c.cache.put(raw, d)
	return d, nil
}

// lruCache is a bounded least-recently-used map from raw date text to the
// parsed day. It is owned by a single Reader and is not safe for concurrent
// use.
type lruCache struct {
	maxEntries int
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type cached struct {
	raw  string
	date domain.Date
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) len() int { return len(c.entries) }

func (c *lruCache) get(raw string) (domain.Date, bool) {
	el, ok := c.entries[raw]
	if !ok {
		return 0, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).date, true
}

func (c *lruCache) put(raw string, d domain.Date) {
	if el, ok := c.entries[raw]; ok {
		el.Value.(*cached).date = d
		c.order.MoveToFront(el)
		return
	}
	c.entries[raw] = c.order.PushFront(&cached{raw: raw, date: d})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cached).raw)
	}
}
