package roster

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type blockingRun struct {
	release chan struct{}
	started chan TriggerSource

	mu      sync.Mutex
	active  int
	maxSeen int
	runs    int
}

func newBlockingRun() *blockingRun {
	return &blockingRun{
		release: make(chan struct{}),
		started: make(chan TriggerSource, 16),
	}
}

func (b *blockingRun) run(_ context.Context, source TriggerSource) {
	b.mu.Lock()
	b.active++
	b.runs++
	if b.active > b.maxSeen {
		b.maxSeen = b.active
	}
	b.mu.Unlock()

	b.started <- source
	<-b.release

	b.mu.Lock()
	b.active--
	b.mu.Unlock()
}

func (b *blockingRun) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.runs
}

func TestCoordinatorCoalescesTriggers(t *testing.T) {
	b := newBlockingRun()
	c := NewCoordinator(b.run, nil)

	require.True(t, c.Trigger(TriggerStartup))
	require.Equal(t, TriggerStartup, <-b.started)
	require.Equal(t, StateRunning, c.State())

	require.True(t, c.Trigger(TriggerPoll))
	require.True(t, c.Trigger(TriggerPush))
	require.True(t, c.Trigger(TriggerPoll))
	require.Equal(t, StateRunningWithPending, c.State())

	b.release <- struct{}{}
	require.Equal(t, TriggerPoll, <-b.started, "pending run keeps the first coalesced source")
	b.release <- struct{}{}

	require.Eventually(t, func() bool { return c.State() == StateIdle }, time.Second, 5*time.Millisecond)
	require.Equal(t, 2, b.count())

	b.mu.Lock()
	require.Equal(t, 1, b.maxSeen)
	b.mu.Unlock()
}

func TestCoordinatorNeverRunsConcurrently(t *testing.T) {
	var active, maxActive, runs int32
	c := NewCoordinator(func(context.Context, TriggerSource) {
		n := atomic.AddInt32(&active, 1)
		for {
			m := atomic.LoadInt32(&maxActive)
			if n <= m || atomic.CompareAndSwapInt32(&maxActive, m, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&runs, 1)
		atomic.AddInt32(&active, -1)
	}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				c.Trigger(TriggerPoll)
			}
		}()
	}
	wg.Wait()

	require.Eventually(t, func() bool { return c.State() == StateIdle }, 2*time.Second, 5*time.Millisecond)
	require.EqualValues(t, 1, atomic.LoadInt32(&maxActive))
	require.GreaterOrEqual(t, atomic.LoadInt32(&runs), int32(1))
}

func TestCoordinatorCloseWaitsAndDropsPending(t *testing.T) {
	b := newBlockingRun()
	c := NewCoordinator(b.run, nil)

	c.Trigger(TriggerStartup)
	<-b.started
	c.Trigger(TriggerPush)

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	select {
	case <-closed:
		t.Fatal("Close returned while a run was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	b.release <- struct{}{}
	<-closed

	require.Equal(t, StateClosed, c.State())
	require.Equal(t, 1, b.count(), "pending run is discarded on close")
	require.False(t, c.Trigger(TriggerManual))
}

func TestCoordinatorRecoversFromPanickingRun(t *testing.T) {
	var calls int32
	c := NewCoordinator(func(context.Context, TriggerSource) {
		if atomic.AddInt32(&calls, 1) == 1 {
			panic("boom")
		}
	}, nil)

	c.Trigger(TriggerPoll)
	require.Eventually(t, func() bool { return c.State() == StateIdle }, time.Second, 5*time.Millisecond)

	c.Trigger(TriggerPoll)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
	c.Close()
}
