package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryCache is an in-process cache with TTL support, used when Redis is not
// configured and in tests.
type MemoryCache struct {
	entries sync.Map
	stop    chan struct{}
	once    sync.Once
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryCache creates a memory cache that sweeps expired entries every interval.
// A non-positive interval disables the sweeper; expired entries are still
// dropped lazily on read.
func NewMemoryCache(sweep time.Duration) *MemoryCache {
	c := &MemoryCache{stop: make(chan struct{})}
	if sweep > 0 {
		go c.cleanup(sweep)
	}
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	value, ok := c.entries.Load(key)
	if !ok {
		return false, nil
	}
	entry := value.(*memoryEntry)
	if entry.expired(time.Now()) {
		c.entries.Delete(key)
		return false, nil
	}
	if err := json.Unmarshal(entry.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	entry := &memoryEntry{value: b}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	c.entries.Store(key, entry)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.entries.Delete(key)
	return nil
}

// Close stops the background sweeper.
func (c *MemoryCache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (c *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			c.entries.Range(func(key, value interface{}) bool {
				if value.(*memoryEntry).expired(now) {
					c.entries.Delete(key)
				}
				return true
			})
		}
	}
}
