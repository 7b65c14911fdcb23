package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkeylib "github.com/valkey-io/valkey-go"

	"github.com/AzielCF/az-pricing/infrastructure/valkey"
	"github.com/AzielCF/az-pricing/pricing/domain"
)

// ValkeyPricingCache implements domain.PricingCache using Valkey.
// Keys expire server-side after ttl as a memory bound; freshness is still
// decided by the reader from StoredAt.
type ValkeyPricingCache struct {
	client *valkey.Client
	ttl    time.Duration
}

// NewValkeyPricingCache creates a new ValkeyPricingCache instance.
func NewValkeyPricingCache(client *valkey.Client, ttl time.Duration) *ValkeyPricingCache {
	return &ValkeyPricingCache{client: client, ttl: ttl}
}

func (s *ValkeyPricingCache) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyPricingCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	cmd := s.inner().B().Get().Key(s.client.Key(key)).Build()

	data, err := s.inner().Do(ctx, cmd).AsBytes()
	if err != nil {
		if valkey.IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get pricing cache: %w", err)
	}

	var entry domain.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pricing cache: %w", err)
	}
	return &entry, nil
}

func (s *ValkeyPricingCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing cache: %w", err)
	}

	var cmd valkeylib.Completed
	if s.ttl > 0 {
		cmd = s.inner().B().Set().Key(s.client.Key(key)).Value(string(data)).Ex(s.ttl).Build()
	} else {
		cmd = s.inner().B().Set().Key(s.client.Key(key)).Value(string(data)).Build()
	}

	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to save pricing cache: %w", err)
	}
	return nil
}

func (s *ValkeyPricingCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.client.Key(k)
	}

	cmd := s.inner().B().Del().Key(full...).Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to delete pricing cache: %w", err)
	}
	return nil
}
