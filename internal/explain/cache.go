package explain

import (
	"container/list"
	"sync"

	"maternal-risk/internal/models"
)

// globalKey identifies one reusable global-importance computation.
type globalKey struct {
	sampleSize int
	seed       int64
}

// importanceCache is a bounded LRU for global-importance results, safe
// for concurrent readers and writers. Only complete results are ever
// stored; callers must not cache partial or cancelled computations.
type importanceCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[globalKey]*list.Element
}

type cacheEntry struct {
	key   globalKey
	value models.GlobalImportance
}

func newImportanceCache(capacity int) *importanceCache {
	if capacity <= 0 {
		capacity = 32
	}
	return &importanceCache{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[globalKey]*list.Element, capacity),
	}
}

func (c *importanceCache) get(key globalKey) (models.GlobalImportance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return models.GlobalImportance{}, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*cacheEntry).value, true
}

func (c *importanceCache) set(key globalKey, value models.GlobalImportance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value.(*cacheEntry).value = value
		c.order.MoveToFront(elem)
		return
	}
	c.items[key] = c.order.PushFront(&cacheEntry{key: key, value: value})
	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*cacheEntry).key)
	}
}

func (c *importanceCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
