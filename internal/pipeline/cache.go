package pipeline

import (
	"container/list"

	"github.com/jblairy/techwatch/internal/query"
	"github.com/jblairy/techwatch/internal/record"
)

// resultCache memoizes evaluated queries with least-recently-used
// eviction. Entries reference the store snapshot they were computed from,
// so the whole cache is discarded when the store is replaced. Not
// goroutine-safe: the coordinator serializes access under its lock.
type resultCache struct {
	max     int
	entries map[query.Query]*list.Element
	order   *list.List // front = most recently used
}

type cacheEntry struct {
	key     query.Query
	records []record.Record
}

func newResultCache(max int) *resultCache {
	return &resultCache{
		max:     max,
		entries: make(map[query.Query]*list.Element, max),
		order:   list.New(),
	}
}

// get returns the cached result for q and marks it most recently used.
func (c *resultCache) get(q query.Query) ([]record.Record, bool) {
	el, ok := c.entries[q]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).records, true
}

// put inserts a result, evicting the least-recently-used entry when the
// cache is full.
func (c *resultCache) put(q query.Query, records []record.Record) {
	if el, ok := c.entries[q]; ok {
		el.Value.(*cacheEntry).records = records
		c.order.MoveToFront(el)
		return
	}
	c.entries[q] = c.order.PushFront(&cacheEntry{key: q, records: records})
	if c.order.Len() > c.max {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// reset discards every entry.
func (c *resultCache) reset() {
	c.entries = make(map[query.Query]*list.Element, c.max)
	c.order.Init()
}

func (c *resultCache) len() int {
	return c.order.Len()
}
