// Package cache holds the last full fetch of each collection. Entries are
// replaced wholesale and never patched field by field.
package cache

import (
	"slices"
	"sync"
	"time"

	"github.com/vbonduro/restock/internal/domain"
)

type entry struct {
	items     []domain.Item
	fetchedAt time.Time
}

type Cache struct {
	mu      sync.RWMutex
	entries map[domain.Collection]entry
	now     func() time.Time
}

func New() *Cache {
	return &Cache{
		entries: make(map[domain.Collection]entry),
		now:     time.Now,
	}
}

// Replace swaps the cached items of c for a copy of items.
func (c *Cache) Replace(coll domain.Collection, items []domain.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[coll] = entry{items: slices.Clone(items), fetchedAt: c.now()}
}

// Invalidate forgets c so the next read fetches it again.
func (c *Cache) Invalidate(coll domain.Collection) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, coll)
}

// Snapshot returns a copy of the cached items and whether c was ever fetched.
func (c *Cache) Snapshot(coll domain.Collection) ([]domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[coll]
	if !ok {
		return nil, false
	}
	return slices.Clone(e.items), true
}

// Find looks up an item by id in the cached copy of c.
func (c *Cache) Find(coll domain.Collection, id string) (domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, item := range c.entries[coll].items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.Item{}, false
}

// FetchedAt reports when c was last replaced. Zero if never.
func (c *Cache) FetchedAt(coll domain.Collection) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.entries[coll].fetchedAt
}
