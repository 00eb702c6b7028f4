// Package handoff hands large results from one screen to the next without
// encoding them into navigation parameters. A producer stores a payload and
// passes the returned id along; the consumer retrieves it by that id.
package handoff

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

const (
	// DefaultCapacity is the number of entries kept before the oldest is evicted
	DefaultCapacity = 10

	// IDPrefix prefixes every generated entry id
	IDPrefix = "scan_"

	idSuffixLen = 9
)

// entry represents a single stored payload
type entry[T any] struct {
	id      string
	payload T
	element *list.Element // position in insertion order
}

// Cache is a bounded in-memory store with strict FIFO eviction.
// Reads never refresh an entry's position.
// Thread-safe implementation using sync.RWMutex
type Cache[T any] struct {
	mu       sync.RWMutex
	entries  map[string]*entry[T]
	order    *list.List // front is oldest
	capacity int
	newID    func() string

	stores    atomic.Uint64
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

// New creates a Cache holding at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func New[T any](capacity int) *Cache[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache[T]{
		entries:  make(map[string]*entry[T]),
		order:    list.New(),
		capacity: capacity,
		newID:    NewID,
	}
}

// NewID returns a fresh identifier: scan_<unix millis>_<random>.
// The result is safe to use as a single URL path segment.
func NewID() string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("%s%d_%s", IDPrefix, time.Now().UnixMilli(), random[:idSuffixLen])
}

// Store inserts payload at the end of insertion order and returns its id.
// When the cache grows past capacity the single oldest entry is removed.
func (c *Cache[T]) Store(payload T) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.newID()
	for _, taken := c.entries[id]; taken; _, taken = c.entries[id] {
		id = c.newID()
	}

	e := &entry[T]{id: id, payload: payload}
	e.element = c.order.PushBack(id)
	c.entries[id] = e
	c.stores.Inc()

	if c.order.Len() > c.capacity {
		c.evictOldest()
	}

	return id
}

// Retrieve returns the payload stored under id.
// The boolean is false when the id was never stored, was cleared, or aged out.
func (c *Cache[T]) Retrieve(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[id]
	if !exists {
		c.misses.Inc()
		var zero T
		return zero, false
	}

	c.hits.Inc()
	return e.payload, true
}

// Clear removes the entry stored under id. Absent ids are ignored.
func (c *Cache[T]) Clear(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeEntry(id)
}

// ClearAll removes every entry from the cache
func (c *Cache[T]) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry[T])
	c.order.Init()
}

// Len returns the number of stored entries
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.order.Len()
}

// IDs returns the stored ids from oldest to newest
func (c *Cache[T]) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]string, 0, c.order.Len())
	for el := c.order.Front(); el != nil; el = el.Next() {
		ids = append(ids, el.Value.(string))
	}
	return ids
}

// Stats returns cache statistics
func (c *Cache[T]) Stats() Stats {
	c.mu.RLock()
	size := c.order.Len()
	c.mu.RUnlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	return Stats{
		Size:      size,
		Capacity:  c.capacity,
		Stores:    c.stores.Load(),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
		HitRate:   hitRate(hits, misses),
	}
}

// Stats represents cache statistics
type Stats struct {
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	Stores    uint64  `json:"stores"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// removeEntry removes an entry from the cache (must be called with lock held)
func (c *Cache[T]) removeEntry(id string) {
	if e, exists := c.entries[id]; exists {
		c.order.Remove(e.element)
		delete(c.entries, id)
	}
}

// evictOldest drops the earliest inserted entry (must be called with lock held)
func (c *Cache[T]) evictOldest() {
	front := c.order.Front()
	if front == nil {
		return
	}
	id := front.Value.(string)
	c.order.Remove(front)
	delete(c.entries, id)
	c.evictions.Inc()
}
