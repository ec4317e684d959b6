package threadpool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitRunsAllTasks(t *testing.T) {
	p := New(4, 0)
	defer p.Shutdown()

	var count int64
	var wg sync.WaitGroup
	wg.Add(100)
	for i := 0; i < 100; i++ {
		require.NoError(t, p.Submit(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.Equal(t, int64(100), atomic.LoadInt64(&count))
}

func TestShutdownDrainsQueuedTasksThenStops(t *testing.T) {
	p := New(2, 0)

	var ran int64
	for i := 0; i < 20; i++ {
		require.NoError(t, p.Submit(func() {
			time.Sleep(time.Millisecond)
			atomic.AddInt64(&ran, 1)
		}))
	}

	p.Shutdown()
	assert.Equal(t, int64(20), atomic.LoadInt64(&ran))
	assert.ErrorIs(t, p.Submit(func() {}), ErrStopped)
}

func TestQueueFullRejectsSubmit(t *testing.T) {
	p := New(1, 1)
	defer p.Shutdown()

	block := make(chan struct{})
	require.NoError(t, p.Submit(func() { <-block }))
	time.Sleep(10 * time.Millisecond) // let the sole worker pick up the blocking task
	require.NoError(t, p.Submit(func() {})) // fills the one queue slot

	err := p.Submit(func() {})
	assert.Error(t, err)

	close(block)
}
