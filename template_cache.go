package ygggo_cassandra

import (
	"container/list"
	"sync"
	"sync/atomic"
)

// templateCache is an LRU cache of parsed query templates so hot statements
// skip the placeholder scanner.
type templateCache struct {
	cap    int
	mu     sync.Mutex
	ll     *list.List               // front = most recently used
	m      map[string]*list.Element // raw query -> element
	hits   uint64
	misses uint64
}

type templateEntry struct {
	key string
	tpl QueryTemplate
}

func newTemplateCache(capacity int) *templateCache {
	if capacity < 0 {
		capacity = 0
	}
	return &templateCache{cap: capacity, ll: list.New(), m: make(map[string]*list.Element)}
}

func (c *templateCache) getOrParse(query string) (QueryTemplate, error) {
	if c == nil || c.cap == 0 {
		return ParseTemplate(query)
	}
	c.mu.Lock()
	if ele, ok := c.m[query]; ok {
		c.ll.MoveToFront(ele)
		atomic.AddUint64(&c.hits, 1)
		tpl := ele.Value.(*templateEntry).tpl
		c.mu.Unlock()
		return tpl, nil
	}
	c.mu.Unlock()
	// parse outside the lock; templates are cheap to duplicate on a race
	tpl, err := ParseTemplate(query)
	if err != nil {
		return QueryTemplate{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if ele, ok := c.m[query]; ok {
		c.ll.MoveToFront(ele)
		atomic.AddUint64(&c.hits, 1)
		return ele.Value.(*templateEntry).tpl, nil
	}
	atomic.AddUint64(&c.misses, 1)
	ele := c.ll.PushFront(&templateEntry{key: query, tpl: tpl})
	c.m[query] = ele
	if c.ll.Len() > c.cap {
		c.evictLRU()
	}
	return tpl, nil
}

func (c *templateCache) evictLRU() {
	back := c.ll.Back()
	if back == nil {
		return
	}
	c.ll.Remove(back)
	delete(c.m, back.Value.(*templateEntry).key)
}

func (c *templateCache) stats() (hits, misses uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses)
}
