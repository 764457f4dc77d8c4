package cache

import (
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"panel/internal/core"
)

// Cache defines a generic cache interface
type Cache[T any] interface {
	// Get retrieves a value from the cache
	Get(key string) (T, bool)

	// Set stores a value in the cache
	Set(key string, data T)

	// Delete removes a key from the cache
	Delete(key string)

	// Size returns the current number of items in the cache
	Size() int
}

// TTLCache is a typed view over a go-cache store. Expired entries are
// removed by the store's janitor every cleanup interval.
type TTLCache[T any] struct {
	store *gocache.Cache
}

func NewTTLCache[T any](ttl, cleanup time.Duration) *TTLCache[T] {
	return &TTLCache[T]{store: gocache.New(ttl, cleanup)}
}

func (c *TTLCache[T]) Get(key string) (T, bool) {
	var zero T
	v, ok := c.store.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := v.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}

func (c *TTLCache[T]) Set(key string, data T) {
	c.store.Set(key, data, gocache.DefaultExpiration)
}

func (c *TTLCache[T]) Delete(key string) {
	c.store.Delete(key)
}

func (c *TTLCache[T]) Size() int {
	return c.store.ItemCount()
}

// Flush drops every entry.
func (c *TTLCache[T]) Flush() {
	c.store.Flush()
}

// SnapshotCache holds computed snapshots keyed by range and comparison mode.
type SnapshotCache struct {
	*TTLCache[core.Snapshot]
}

func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{TTLCache: NewTTLCache[core.Snapshot](ttl, 2*ttl)}
}

// Key identifies a snapshot request. The label is part of the key because
// it is echoed in the snapshot.
func Key(rng core.DateRange, compare bool) string {
	return fmt.Sprintf("%s|%s|%s|%t", rng.From, rng.To, rng.Label, compare)
}

func (c *SnapshotCache) Lookup(rng core.DateRange, compare bool) (core.Snapshot, bool) {
	return c.Get(Key(rng, compare))
}

func (c *SnapshotCache) Store(rng core.DateRange, compare bool, s core.Snapshot) {
	c.Set(Key(rng, compare), s)
}

var _ Cache[core.Snapshot] = (*TTLCache[core.Snapshot])(nil)
