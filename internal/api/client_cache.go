package api

import (
	"container/list"
	"sync"

	"optiondash-desktop/internal/models"
)

// lruCache implements a thread-safe LRU (Least Recently Used) cache of task details
type lruCache struct {
	capacity int
	cache    map[string]*list.Element
	lru      *list.List
	mu       sync.Mutex
}

// cacheEntry represents a key-value pair in the cache
type cacheEntry struct {
	key   string
	value models.Task
}

// newLRUCache creates a new LRU cache with the specified capacity
func newLRUCache(capacity int) *lruCache {
	return &lruCache{
		capacity: capacity,
		cache:    make(map[string]*list.Element),
		lru:      list.New(),
	}
}

// Get retrieves a task from the cache
func (c *lruCache) Get(key string) (models.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheEntry).value, true
	}
	return models.Task{}, false
}

// Put adds or updates a task in the cache
func (c *lruCache) Put(key string, value models.Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		c.lru.MoveToFront(elem)
		elem.Value.(*cacheEntry).value = value
		return
	}

	// Evict oldest if at capacity
	if c.lru.Len() >= c.capacity {
		if oldest := c.lru.Back(); oldest != nil {
			c.lru.Remove(oldest)
			delete(c.cache, oldest.Value.(*cacheEntry).key)
		}
	}

	c.cache[key] = c.lru.PushFront(&cacheEntry{key: key, value: value})
}

// Remove drops a key, used when the task is deleted or vanished
func (c *lruCache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.cache[key]; exists {
		c.lru.Remove(elem)
		delete(c.cache, key)
	}
}

// Len returns the current number of items in the cache
func (c *lruCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
