package connpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

// DefaultCapacity is the number of concurrent store accesses allowed when none is configured.
const DefaultCapacity = 10

// ErrAcquireTimeout is returned when no slot frees up within the pool's acquire timeout.
var ErrAcquireTimeout = errors.New("connection pool: timed out waiting for a free slot")

// Slot is one unit of concurrent access capacity. Slots are fungible; the
// identity only serves the in-use bookkeeping.
type Slot struct {
	id         string
	acquiredAt time.Time
}

// ID returns the opaque slot handle.
func (s *Slot) ID() string {
	return s.id
}

// Stats contains real-time pool metrics
type Stats struct {
	Capacity      int   `json:"capacity"`
	InUse         int   `json:"in_use"`
	Waiting       int64 `json:"waiting"`
	TotalAcquired int64 `json:"total_acquired"`
	TotalReleased int64 `json:"total_released"`
	TotalTimeouts int64 `json:"total_timeouts"`
}

// Pool caps the number of concurrent in-flight accesses to a shared resource.
// Waiters are served in FIFO order.
type Pool struct {
	capacity       int
	acquireTimeout time.Duration
	sem            *semaphore.Weighted

	mu    sync.Mutex
	inUse map[string]*Slot

	waiting       int64
	totalAcquired int64
	totalReleased int64
	totalTimeouts int64
}

// New creates a pool with the given capacity. An acquireTimeout of zero makes
// Acquire wait until a slot frees or the caller's context is done.
func New(capacity int, acquireTimeout time.Duration) *Pool {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if acquireTimeout < 0 {
		acquireTimeout = 0
	}
	return &Pool{
		capacity:       capacity,
		acquireTimeout: acquireTimeout,
		sem:            semaphore.NewWeighted(int64(capacity)),
		inUse:          make(map[string]*Slot, capacity),
	}
}

// Acquire returns a slot, blocking while the pool is saturated. Every
// successful Acquire must be paired with a Release.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	waitCtx := ctx
	if p.acquireTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, p.acquireTimeout)
		defer cancel()
	}

	atomic.AddInt64(&p.waiting, 1)
	err := p.sem.Acquire(waitCtx, 1)
	atomic.AddInt64(&p.waiting, -1)

	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			atomic.AddInt64(&p.totalTimeouts, 1)
			logrus.Warnf("[CONN_POOL] No slot freed within %s (%d/%d in use)", p.acquireTimeout, p.InUse(), p.capacity)
			return nil, fmt.Errorf("%w after %s", ErrAcquireTimeout, p.acquireTimeout)
		}
		return nil, err
	}

	slot := &Slot{id: uuid.NewString(), acquiredAt: time.Now()}

	p.mu.Lock()
	p.inUse[slot.id] = slot
	p.mu.Unlock()

	atomic.AddInt64(&p.totalAcquired, 1)
	return slot, nil
}

// Release returns a slot to the pool. Releasing nil, or a slot that is not
// currently tracked, is a no-op.
func (p *Pool) Release(slot *Slot) {
	if slot == nil {
		return
	}

	p.mu.Lock()
	_, tracked := p.inUse[slot.id]
	if tracked {
		delete(p.inUse, slot.id)
	}
	p.mu.Unlock()

	if !tracked {
		return
	}

	p.sem.Release(1)
	atomic.AddInt64(&p.totalReleased, 1)

	if held := time.Since(slot.acquiredAt); held > 5*time.Second {
		logrus.Debugf("[CONN_POOL] Slot %s held for %s", slot.id, held)
	}
}

// InUse returns the number of slots currently acquired.
func (p *Pool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}

// Capacity returns the configured maximum number of concurrent slots.
func (p *Pool) Capacity() int {
	return p.capacity
}

// Stats returns a snapshot of the pool metrics.
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity:      p.capacity,
		InUse:         p.InUse(),
		Waiting:       atomic.LoadInt64(&p.waiting),
		TotalAcquired: atomic.LoadInt64(&p.totalAcquired),
		TotalReleased: atomic.LoadInt64(&p.totalReleased),
		TotalTimeouts: atomic.LoadInt64(&p.totalTimeouts),
	}
}
