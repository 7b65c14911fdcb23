package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AzielCF/az-pricing/pkg/accessmonitor"
	"github.com/AzielCF/az-pricing/pkg/connpool"
	"github.com/AzielCF/az-pricing/pricing/domain"
	"github.com/AzielCF/az-pricing/validations"
	"github.com/sirupsen/logrus"
)

// DefaultCacheTTL is how long a cached listing or table is served without refetching.
const DefaultCacheTTL = 5 * time.Minute

// Stats contains cache and pool metrics for the pricing service
type Stats struct {
	CacheTTL      time.Duration       `json:"cache_ttl"`
	CacheHits     int64               `json:"cache_hits"`
	CacheMisses   int64               `json:"cache_misses"`
	Invalidations int64               `json:"invalidations"`
	StoreErrors   int64               `json:"store_errors"`
	StartedAt     time.Time           `json:"started_at"`
	Pool          connpool.Stats      `json:"pool"`
	Accesses      accessmonitor.Stats `json:"accesses"`
}

// PricingService serves supplier pricing tables from a short-lived cache and
// routes every store access through a bounded pool. Mutations clear the
// affected cache keys once the store has accepted them.
type PricingService struct {
	store   domain.PricingStore
	cache   domain.PricingCache
	pool    *connpool.Pool
	monitor *accessmonitor.Monitor
	ttl     time.Duration
	now     func() time.Time

	// generations is bumped per supplier on every successful mutation; reads
	// that started under an older generation do not write back.
	generations sync.Map // supplierID -> *atomic.Uint64

	startedAt     time.Time
	cacheHits     int64
	cacheMisses   int64
	invalidations int64
	storeErrors   int64
}

// Option customizes a PricingService.
type Option func(*PricingService)

// WithCacheTTL overrides DefaultCacheTTL. Non-positive values are ignored.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *PricingService) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PricingService) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMonitor replaces the default access monitor.
func WithMonitor(m *accessmonitor.Monitor) Option {
	return func(s *PricingService) {
		if m != nil {
			s.monitor = m
		}
	}
}

// NewPricingService crea una nueva instancia de PricingService
func NewPricingService(store domain.PricingStore, cache domain.PricingCache, pool *connpool.Pool, opts ...Option) *PricingService {
	s := &PricingService{
		store:   store,
		cache:   cache,
		pool:    pool,
		monitor: accessmonitor.New(accessmonitor.DefaultSize, 0),
		ttl:     DefaultCacheTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startedAt = s.now()
	return s
}

// List returns every pricing table of a supplier.
func (s *PricingService) List(ctx context.Context, supplierID string) ([]*domain.PricingTable, error) {
	if err := validations.ValidateSupplierID(ctx, supplierID); err != nil {
		return nil, err
	}

	key := domain.CollectionKey(supplierID)
	if entry := s.lookup(ctx, key, false); entry != nil {
		return cloneTables(entry.Tables), nil
	}
	gen := s.generation(supplierID).Load()

	var tables []*domain.PricingTable
	err := s.withSlot(ctx, "list", supplierID, "", func(ctx context.Context) error {
		var err error
		tables, err = s.store.ListBySupplier(ctx, supplierID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.remember(ctx, supplierID, gen, key, &domain.CacheEntry{Tables: tables, StoredAt: s.now()})
	return cloneTables(tables), nil
}

// Get returns one pricing table of a supplier, or domain.ErrPricingTableNotFound.
// Misses are not cached.
func (s *PricingService) Get(ctx context.Context, supplierID, id string) (*domain.PricingTable, error) {
	if err := validations.ValidateSupplierScope(ctx, supplierID, id); err != nil {
		return nil, err
	}

	key := domain.ItemKey(supplierID, id)
	if entry := s.lookup(ctx, key, true); entry != nil {
		return entry.Table.Clone(), nil
	}
	gen := s.generation(supplierID).Load()

	var table *domain.PricingTable
	err := s.withSlot(ctx, "get", supplierID, id, func(ctx context.Context) error {
		var err error
		table, err = s.store.GetByID(ctx, supplierID, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.remember(ctx, supplierID, gen, key, &domain.CacheEntry{Table: table, StoredAt: s.now()})
	return table.Clone(), nil
}

// Create stores a new pricing table for the supplier.
func (s *PricingService) Create(ctx context.Context, supplierID string, input domain.CreatePricingTableInput) (*domain.PricingTable, error) {
	if err := validations.ValidateCreatePricingTable(ctx, supplierID, input); err != nil {
		return nil, err
	}

	table := &domain.PricingTable{
		SupplierID:  supplierID,
		ServiceName: input.ServiceName,
		PriceAmount: input.PriceAmount,
		PriceUnit:   input.PriceUnit,
		Features:    append([]domain.Feature{}, input.Features...),
		Duration:    input.Duration,
		Includes:    input.Includes,
		Description: input.Description,
	}

	err := s.withSlot(ctx, "create", supplierID, "", func(ctx context.Context) error {
		return s.store.Create(ctx, table)
	})
	if err != nil {
		return nil, err
	}

	// No item entry can exist for a table that did not exist.
	s.invalidate(ctx, supplierID, domain.CollectionKey(supplierID))

	logrus.WithFields(logrus.Fields{"supplier_id": supplierID, "id": table.ID}).Info("[PRICING] Pricing table created")
	return table.Clone(), nil
}

// Update applies a partial update to a table owned by the supplier.
func (s *PricingService) Update(ctx context.Context, supplierID, id string, patch domain.PricingTablePatch) (*domain.PricingTable, error) {
	if err := validations.ValidateUpdatePricingTable(ctx, supplierID, id, patch); err != nil {
		return nil, err
	}

	var updated *domain.PricingTable
	err := s.withSlot(ctx, "update", supplierID, id, func(ctx context.Context) error {
		var err error
		updated, err = s.store.Update(ctx, supplierID, id, patch)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, supplierID, domain.CollectionKey(supplierID), domain.ItemKey(supplierID, id))

	logrus.WithFields(logrus.Fields{"supplier_id": supplierID, "id": id}).Info("[PRICING] Pricing table updated")
	return updated.Clone(), nil
}

// Delete removes a table owned by the supplier.
func (s *PricingService) Delete(ctx context.Context, supplierID, id string) error {
	if err := validations.ValidateSupplierScope(ctx, supplierID, id); err != nil {
		return err
	}

	err := s.withSlot(ctx, "delete", supplierID, id, func(ctx context.Context) error {
		return s.store.Delete(ctx, supplierID, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, supplierID, domain.CollectionKey(supplierID), domain.ItemKey(supplierID, id))

	logrus.WithFields(logrus.Fields{"supplier_id": supplierID, "id": id}).Info("[PRICING] Pricing table deleted")
	return nil
}

// Stats returns a snapshot of cache and pool metrics.
func (s *PricingService) Stats() Stats {
	return Stats{
		CacheTTL:      s.ttl,
		CacheHits:     atomic.LoadInt64(&s.cacheHits),
		CacheMisses:   atomic.LoadInt64(&s.cacheMisses),
		Invalidations: atomic.LoadInt64(&s.invalidations),
		StoreErrors:   atomic.LoadInt64(&s.storeErrors),
		StartedAt:     s.startedAt,
		Pool:          s.pool.Stats(),
		Accesses:      s.monitor.GetStats(),
	}
}

// withSlot runs fn while holding a pool slot. The slot is released on every path.
func (s *PricingService) withSlot(ctx context.Context, op, supplierID, id string, fn func(ctx context.Context) error) error {
	event := accessmonitor.Event{Op: op, SupplierID: supplierID, ID: id, Status: accessmonitor.StatusOK}
	waitStart := time.Now()

	slot, err := s.pool.Acquire(ctx)
	event.WaitMs = time.Since(waitStart).Milliseconds()
	if err != nil {
		atomic.AddInt64(&s.storeErrors, 1)
		event.Status, event.Error = accessmonitor.StatusError, err.Error()
		s.monitor.Record(event)
		return &domain.AccessError{Op: op, SupplierID: supplierID, ID: id, Err: err}
	}
	defer s.pool.Release(slot)

	runStart := time.Now()
	err = fn(ctx)
	event.DurationMs = time.Since(runStart).Milliseconds()

	switch {
	case err == nil:
		s.monitor.Record(event)
		return nil
	case errors.Is(err, domain.ErrPricingTableNotFound):
		event.Status = accessmonitor.StatusNotFound
		s.monitor.Record(event)
		return err
	default:
		atomic.AddInt64(&s.storeErrors, 1)
		event.Status, event.Error = accessmonitor.StatusError, err.Error()
		s.monitor.Record(event)
		logrus.WithError(err).WithFields(logrus.Fields{"supplier_id": supplierID, "id": id}).
			Errorf("[PRICING] Store %s failed", op)
		return &domain.AccessError{Op: op, SupplierID: supplierID, ID: id, Err: err}
	}
}

// lookup returns a fresh entry of the wanted shape or nil. Cache backend
// errors count as misses.
func (s *PricingService) lookup(ctx context.Context, key string, item bool) *domain.CacheEntry {
	entry, err := s.cache.Get(ctx, key)
	if err != nil {
		logrus.WithError(err).Warnf("[PRICING] Cache read failed for %s, falling back to store", key)
	}
	if err != nil || !entry.IsFresh(s.now(), s.ttl) || entry.IsItem() != item {
		atomic.AddInt64(&s.cacheMisses, 1)
		return nil
	}
	atomic.AddInt64(&s.cacheHits, 1)
	return entry
}

func (s *PricingService) generation(supplierID string) *atomic.Uint64 {
	v, _ := s.generations.LoadOrStore(supplierID, new(atomic.Uint64))
	return v.(*atomic.Uint64)
}

// remember stores entry unless a mutation for the supplier landed after the
// read began. A mutation racing the Set is caught by the second check.
func (s *PricingService) remember(ctx context.Context, supplierID string, gen uint64, key string, entry *domain.CacheEntry) {
	current := s.generation(supplierID)
	if current.Load() != gen {
		return
	}
	if err := s.cache.Set(ctx, key, entry); err != nil {
		logrus.WithError(err).Warnf("[PRICING] Cache write failed for %s", key)
		return
	}
	if current.Load() != gen {
		if err := s.cache.Delete(context.WithoutCancel(ctx), key); err != nil {
			logrus.WithError(err).Errorf("[PRICING] Cache cleanup failed for %s", key)
		}
	}
}

// invalidate runs detached from the caller's cancellation: the store already
// accepted the write, so the keys must go even if the request is gone.
func (s *PricingService) invalidate(ctx context.Context, supplierID string, keys ...string) {
	s.generation(supplierID).Add(1)
	if err := s.cache.Delete(context.WithoutCancel(ctx), keys...); err != nil {
		logrus.WithError(err).Errorf("[PRICING] Cache invalidation failed for %v", keys)
		return
	}
	atomic.AddInt64(&s.invalidations, int64(len(keys)))
}

func cloneTables(tables []*domain.PricingTable) []*domain.PricingTable {
	out := make([]*domain.PricingTable, len(tables))
	for i, t := range tables {
		out[i] = t.Clone()
	}
	return out
}
