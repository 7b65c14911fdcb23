package domain

import (
	"context"
	"fmt"
	"time"
)

// CacheEntry is a snapshot of store data. Collection entries carry Tables,
// item entries carry Table.
type CacheEntry struct {
	Tables   []*PricingTable `json:"tables,omitempty"`
	Table    *PricingTable   `json:"table,omitempty"`
	StoredAt time.Time       `json:"stored_at"`
}

// IsFresh reports whether the entry is still within ttl at now.
func (e *CacheEntry) IsFresh(now time.Time, ttl time.Duration) bool {
	return e != nil && now.Sub(e.StoredAt) < ttl
}

// IsItem reports whether the entry holds a single table rather than a listing.
func (e *CacheEntry) IsItem() bool {
	return e != nil && e.Table != nil
}

// PricingCache stores entries by key. Implementations never decide freshness;
// callers check IsFresh on every read.
type PricingCache interface {
	// Get returns nil, nil when the key is absent.
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, keys ...string) error
}

// CollectionKey is the cache key for all tables of a supplier.
func CollectionKey(supplierID string) string {
	return fmt.Sprintf("pricing_%s", supplierID)
}

// ItemKey is the cache key for one table of a supplier.
func ItemKey(supplierID, id string) string {
	return fmt.Sprintf("pricing_%s_%s", supplierID, id)
}
