package clientcache

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache keeps one SDK client per configuration key. Concurrent misses for the
// same key share a single factory call.
type Cache[T any] struct {
	clients sync.Map
	group   singleflight.Group
}

// NewCache creates an empty cache
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{}
}

// GetOrCreate returns the client stored under key, building it with factory
// on a miss. Factory errors are returned and nothing is stored.
func (c *Cache[T]) GetOrCreate(key string, factory func() (T, error)) (T, error) {
	if cached, ok := c.clients.Load(key); ok {
		return cached.(T), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		if cached, ok := c.clients.Load(key); ok {
			return cached, nil
		}
		client, err := factory()
		if err != nil {
			return nil, err
		}
		c.clients.Store(key, client)
		return client, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Delete evicts the client stored under key
func (c *Cache[T]) Delete(key string) {
	c.clients.Delete(key)
}

// Len returns the number of cached clients
func (c *Cache[T]) Len() int {
	n := 0
	c.clients.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
