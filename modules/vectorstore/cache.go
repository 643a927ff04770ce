package vectorstore

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Cache shares Memory stores opened from the same path with the same
// embedder. Stores are reference counted and closed when the last handle is.
type Cache struct {
	group  singleflight.Group
	mu     sync.Mutex
	stores map[string]*cached
}

type cached struct {
	store *Memory
	refs  int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{stores: make(map[string]*cached)}
}

// Identifier is implemented by embedders that can name their configuration.
// Embedders with equal identities produce the same vectors.
type Identifier interface {
	Identity() string
}

// cacheKey identifies a store by its path and the identity of its embedder.
// Embedders without an Identity are told apart by pointer.
func cacheKey(path string, embedder any) string {
	if id, ok := embedder.(Identifier); ok {
		return fmt.Sprintf("%s|%T|%s", path, embedder, id.Identity())
	}
	return fmt.Sprintf("%s|%p", path, embedder)
}

// Acquire returns a handle to the store under key, calling open at most once
// for concurrent callers.
func (c *Cache) Acquire(key string, open func() (*Memory, error)) (*Shared, error) {
	for {
		if h := c.acquireExisting(key); h != nil {
			return h, nil
		}
		_, err, _ := c.group.Do(key, func() (any, error) {
			c.mu.Lock()
			_, ok := c.stores[key]
			c.mu.Unlock()
			if ok {
				return nil, nil
			}
			m, err := open()
			if err != nil {
				return nil, err
			}
			c.mu.Lock()
			c.stores[key] = &cached{store: m}
			c.mu.Unlock()
			return nil, nil
		})
		if err != nil {
			return nil, err
		}
	}
}

func (c *Cache) acquireExisting(key string) *Shared {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.stores[key]
	if !ok {
		return nil
	}
	entry.refs++
	return &Shared{Memory: entry.store, release: func() error { return c.release(key, entry) }}
}

func (c *Cache) release(key string, entry *cached) error {
	c.mu.Lock()
	entry.refs--
	last := entry.refs == 0
	if last && c.stores[key] == entry {
		delete(c.stores, key)
	}
	c.mu.Unlock()
	if last {
		return entry.store.Close()
	}
	return nil
}

// Len returns the number of open stores.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stores)
}

// Shared is a counted handle to a cached Memory store.
type Shared struct {
	*Memory
	once    sync.Once
	release func() error
}

// Close releases the handle. The store closes with its last handle.
func (s *Shared) Close() error {
	var err error
	s.once.Do(func() { err = s.release() })
	return err
}
