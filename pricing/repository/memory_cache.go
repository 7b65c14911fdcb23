package repository

import (
	"context"
	"sync"

	"github.com/AzielCF/az-pricing/pricing/domain"
)

// MemoryPricingCache is an in-process implementation of domain.PricingCache.
// Entries are never swept; stale ones are skipped by readers and replaced on refresh.
type MemoryPricingCache struct {
	mu      sync.RWMutex
	entries map[string]*domain.CacheEntry
}

// NewMemoryPricingCache creates an empty in-memory pricing cache.
func NewMemoryPricingCache() *MemoryPricingCache {
	return &MemoryPricingCache{
		entries: make(map[string]*domain.CacheEntry),
	}
}

func (c *MemoryPricingCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, nil
	}
	return cloneEntry(entry), nil
}

func (c *MemoryPricingCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cloneEntry(entry)
	return nil
}

func (c *MemoryPricingCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range keys {
		delete(c.entries, key)
	}
	return nil
}

// Len returns the number of stored entries, fresh or stale.
func (c *MemoryPricingCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cloneEntry(e *domain.CacheEntry) *domain.CacheEntry {
	if e == nil {
		return nil
	}
	out := &domain.CacheEntry{StoredAt: e.StoredAt, Table: e.Table.Clone()}
	if e.Tables != nil {
		out.Tables = make([]*domain.PricingTable, len(e.Tables))
		for i, t := range e.Tables {
			out.Tables[i] = t.Clone()
		}
	}
	return out
}
