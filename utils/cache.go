package utils

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Cache holds short-lived interaction state (registration drafts, lookup
// pages) under random IDs that fit into component custom IDs.
type Cache[T any] struct {
	mu    sync.RWMutex
	items map[string]cacheItem[T]
	ttl   time.Duration
	now   func() time.Time

	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

type cacheItem[T any] struct {
	value     T
	createdAt time.Time
}

// NewCache starts a cache whose entries expire after ttl.
func NewCache[T any](ttl time.Duration) *Cache[T] {
	c := &Cache[T]{
		items: make(map[string]cacheItem[T]),
		ttl:   ttl,
		now:   time.Now,
		done:  make(chan struct{}),
	}
	c.wg.Add(1)
	go c.janitor()
	return c
}

// Add stores value and returns its ID.
func (c *Cache[T]) Add(value T) string {
	id := uuid.New().String()
	c.Set(id, value)
	return id
}

// Set stores value under id, resetting its expiry.
func (c *Cache[T]) Set(id string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[id] = cacheItem[T]{value: value, createdAt: c.now()}
}

// Get returns the value for id if present and not expired.
func (c *Cache[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	it, ok := c.items[id]
	if !ok || c.now().Sub(it.createdAt) > c.ttl {
		var zero T
		return zero, false
	}
	return it.value, true
}

// Take returns and removes the value for id.
func (c *Cache[T]) Take(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[id]
	delete(c.items, id)
	if !ok || c.now().Sub(it.createdAt) > c.ttl {
		var zero T
		return zero, false
	}
	return it.value, true
}

// TakeIf removes and returns the value for id only when keep accepts it.
// A rejected value stays in place.
func (c *Cache[T]) TakeIf(id string, keep func(T) bool) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero T
	it, ok := c.items[id]
	if !ok || c.now().Sub(it.createdAt) > c.ttl || !keep(it.value) {
		return zero, false
	}
	delete(c.items, id)
	return it.value, true
}

// Remove deletes id.
func (c *Cache[T]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, id)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stop ends the janitor goroutine.
func (c *Cache[T]) Stop() {
	c.stopOnce.Do(func() { close(c.done) })
	c.wg.Wait()
}

func (c *Cache[T]) janitor() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.purgeExpired()
		}
	}
}

func (c *Cache[T]) purgeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for id, it := range c.items {
		if now.Sub(it.createdAt) > c.ttl {
			delete(c.items, id)
		}
	}
}
