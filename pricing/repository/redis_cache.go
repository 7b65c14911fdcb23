package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AzielCF/az-pricing/infrastructure/redis"
	"github.com/AzielCF/az-pricing/pricing/domain"
)

// RedisPricingCache implements domain.PricingCache on top of go-redis.
type RedisPricingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisPricingCache creates a new RedisPricingCache instance.
func NewRedisPricingCache(client *redis.Client, ttl time.Duration) *RedisPricingCache {
	return &RedisPricingCache{client: client, ttl: ttl}
}

func (s *RedisPricingCache) Get(ctx context.Context, key string) (*domain.CacheEntry, error) {
	data, err := s.client.Inner().Get(ctx, s.client.Key(key)).Bytes()
	if err != nil {
		if redis.IsNil(err) {
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

func (s *RedisPricingCache) Set(ctx context.Context, key string, entry *domain.CacheEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal pricing cache: %w", err)
	}

	// A zero expiration keeps the key until it is deleted.
	if err := s.client.Inner().Set(ctx, s.client.Key(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save pricing cache: %w", err)
	}
	return nil
}

func (s *RedisPricingCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.client.Key(k)
	}

	if err := s.client.Inner().Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("failed to delete pricing cache: %w", err)
	}
	return nil
}
