package cmd

import (
	"context"
	"fmt"

	coreconfig "github.com/AzielCF/az-pricing/core/config"
	coreDB "github.com/AzielCF/az-pricing/core/database"
	"github.com/AzielCF/az-pricing/infrastructure/redis"
	"github.com/AzielCF/az-pricing/infrastructure/valkey"
	"github.com/AzielCF/az-pricing/pkg/accessmonitor"
	"github.com/AzielCF/az-pricing/pkg/connpool"
	"github.com/AzielCF/az-pricing/pricing/application"
	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/AzielCF/az-pricing/pricing/repository"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// appComponents is everything a command needs to serve pricing tables.
type appComponents struct {
	pool    *connpool.Pool
	service *application.PricingService
	closers []func()
}

// Close releases cache clients and the database in reverse order of creation.
func (a *appComponents) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// openStore connects to the database and ensures the pricing schema exists.
func openStore(ctx context.Context, cfg *coreconfig.Config) (*gorm.DB, *repository.PricingGormRepository, error) {
	db, err := coreDB.NewDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	store := repository.NewPricingGormRepository(db)
	if err := store.InitSchema(ctx); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("failed to migrate pricing schema: %w", err)
	}
	return db, store, nil
}

// buildApp wires database, cache backend, pool and service from the configuration.
func buildApp(ctx context.Context, cfg *coreconfig.Config) (*appComponents, error) {
	db, store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &appComponents{}
	app.closers = append(app.closers, func() { closeDB(db) })

	cache, closeCache, err := newPricingCache(cfg.Cache)
	if err != nil {
		app.Close()
		return nil, err
	}
	if closeCache != nil {
		app.closers = append(app.closers, closeCache)
	}

	app.pool = connpool.New(cfg.Pool.MaxConnections, cfg.Pool.AcquireTimeout)
	app.service = application.NewPricingService(store, cache, app.pool,
		application.WithCacheTTL(cfg.Cache.TTL),
		application.WithMonitor(accessmonitor.New(cfg.Monitor.Buffer, cfg.Monitor.Retention)),
	)

	logrus.WithFields(logrus.Fields{
		"db_driver":     cfg.Database.Driver,
		"cache_backend": cfg.Cache.Backend,
		"cache_ttl":     cfg.Cache.TTL.String(),
		"pool_max":      app.pool.Capacity(),
		"pool_timeout":  cfg.Pool.AcquireTimeout.String(),
	}).Info("[APP] Pricing service ready")

	return app, nil
}

// newPricingCache returns the configured cache backend and an optional closer.
func newPricingCache(cfg coreconfig.CacheConfig) (domain.PricingCache, func(), error) {
	switch cfg.Backend {
	case "", coreconfig.CacheBackendMemory:
		return repository.NewMemoryPricingCache(), nil, nil
	case coreconfig.CacheBackendValkey:
		client, err := valkey.NewClient(valkey.Config{
			Address:   cfg.Address,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewValkeyPricingCache(client, cfg.TTL), client.Close, nil
	case coreconfig.CacheBackendRedis:
		client, err := redis.NewClient(redis.Config{
			Address:   cfg.Address,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisPricingCache(client, cfg.TTL), client.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cache backend: %q", cfg.Backend)
	}
}

func closeDB(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logrus.Errorf("[APP] Error closing database: %v", err)
	}
}
