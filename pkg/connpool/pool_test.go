package connpool

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_DefaultsCapacity(t *testing.T) {
	p := New(0, 0)
	assert.Equal(t, DefaultCapacity, p.Capacity())
}

func TestPool_AcquireUnderCapacityIsImmediate(t *testing.T) {
	p := New(3, 0)

	start := time.Now()
	slots := make([]*Slot, 0, 3)
	for i := 0; i < 3; i++ {
		s, err := p.Acquire(context.Background())
		require.NoError(t, err)
		slots = append(slots, s)
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, 3, p.InUse())

	for _, s := range slots {
		p.Release(s)
	}
	assert.Equal(t, 0, p.InUse())
}

func TestPool_BlocksAtCapacityUntilRelease(t *testing.T) {
	p := New(2, 0)

	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	b, err := p.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan *Slot, 1)
	go func() {
		s, err := p.Acquire(context.Background())
		if err == nil {
			acquired <- s
		}
	}()

	select {
	case <-acquired:
		t.Fatal("third acquire must wait while the pool is saturated")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 2, p.InUse())

	p.Release(a)

	select {
	case s := <-acquired:
		assert.NotNil(t, s)
	case <-time.After(time.Second):
		t.Fatal("waiter was not woken after release")
	}
	assert.Equal(t, 2, p.InUse())
	p.Release(b)
}

func TestPool_WaitersServedInFIFOOrder(t *testing.T) {
	p := New(1, 0)

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		order []string
		wg    sync.WaitGroup
	)
	enqueue := func(name string, expectWaiting int64) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := p.Acquire(context.Background())
			if err != nil {
				return
			}
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			p.Release(s)
		}()
		require.Eventually(t, func() bool { return p.Stats().Waiting == expectWaiting },
			time.Second, 5*time.Millisecond)
		// let the goroutine park inside the semaphore queue
		time.Sleep(10 * time.Millisecond)
	}

	enqueue("first", 1)
	enqueue("second", 2)
	enqueue("third", 3)

	p.Release(held)
	wg.Wait()

	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestPool_AcquireTimeout(t *testing.T) {
	p := New(1, 30*time.Millisecond)

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release(held)

	s, err := p.Acquire(context.Background())
	assert.Nil(t, s)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAcquireTimeout))
	assert.Equal(t, 1, p.InUse())
	assert.Equal(t, int64(1), p.Stats().TotalTimeouts)
}

func TestPool_AcquireHonoursContextCancellation(t *testing.T) {
	p := New(1, 0)

	held, err := p.Acquire(context.Background())
	require.NoError(t, err)
	defer p.Release(held)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err = p.Acquire(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrAcquireTimeout))
	assert.Equal(t, int64(0), p.Stats().Waiting)
}

func TestPool_ReleaseIsIdempotent(t *testing.T) {
	p := New(2, 0)

	s, err := p.Acquire(context.Background())
	require.NoError(t, err)

	p.Release(s)
	p.Release(s)
	p.Release(nil)
	p.Release(&Slot{id: "never-acquired"})

	stats := p.Stats()
	assert.Equal(t, 0, stats.InUse)
	assert.Equal(t, int64(1), stats.TotalAcquired)
	assert.Equal(t, int64(1), stats.TotalReleased)

	// Double release must not have inflated capacity.
	a, err := p.Acquire(context.Background())
	require.NoError(t, err)
	b, err := p.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = p.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	p.Release(a)
	p.Release(b)
}
