package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEventLoop_ExecutionOrder tests execution order
// Main test items:
// 1. Submit multiple tasks to the loop
// 2. Verify tasks execute in submission order (FIFO)
func TestEventLoop_ExecutionOrder(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var mu sync.Mutex
	var order []int
	for i := 0; i < 10; i++ {
		id := i
		loop.PostTask(func() {
			mu.Lock()
			order = append(order, id)
			mu.Unlock()
		})
	}

	require.NoError(t, loop.WaitIdle(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, order)
}

// TestEventLoop_ThreadAffinity tests that every task runs on the loop goroutine
// Main test items:
// 1. RunsTasksInCurrentSequence is true inside tasks
// 2. RunsTasksInCurrentSequence is false from the test goroutine
func TestEventLoop_ThreadAffinity(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var inside atomic.Bool
	require.NoError(t, loop.Invoke(func() {
		inside.Store(loop.RunsTasksInCurrentSequence())
	}))

	assert.True(t, inside.Load())
	assert.False(t, loop.RunsTasksInCurrentSequence())
}

// TestEventLoop_InvokeFromLoop_RunsInline verifies a nested Invoke does not
// deadlock and runs before the outer task returns
func TestEventLoop_InvokeFromLoop_RunsInline(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var steps []string
	err := loop.Invoke(func() {
		steps = append(steps, "outer")
		_ = loop.Invoke(func() {
			steps = append(steps, "inner")
		})
		steps = append(steps, "outer-end")
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"outer", "inner", "outer-end"}, steps)
}

// TestEventLoop_PanicRecovery verifies a panicking task does not kill the loop
func TestEventLoop_PanicRecovery(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	loop.PostTask(func() { panic("boom") })

	var ran atomic.Bool
	require.NoError(t, loop.Invoke(func() { ran.Store(true) }))
	assert.True(t, ran.Load())
}

// TestEventLoop_PostDelayedTask verifies delayed tasks run after the delay
// and can be cancelled
func TestEventLoop_PostDelayedTask(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var fired, cancelled atomic.Bool
	start := time.Now()
	loop.PostDelayedTask(func() { fired.Store(true) }, 20*time.Millisecond)
	cancel := loop.PostDelayedTask(func() { cancelled.Store(true) }, 20*time.Millisecond)
	cancel()

	require.Eventually(t, fired.Load, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	assert.False(t, cancelled.Load())
}

// TestEventLoop_Shutdown_FromTask verifies Shutdown can be called by a task
// and that later Invoke calls report the stopped loop
func TestEventLoop_Shutdown_FromTask(t *testing.T) {
	loop := NewEventLoop("test", nil)

	require.NoError(t, loop.Invoke(func() { loop.Shutdown() }))

	select {
	case <-loop.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not exit after Shutdown")
	}

	assert.True(t, loop.IsClosed())
	assert.False(t, loop.PostTask(func() {}))
	assert.ErrorIs(t, loop.Invoke(func() {}), ErrLoopStopped)
	assert.ErrorIs(t, loop.WaitIdle(context.Background()), ErrLoopStopped)
	require.NoError(t, loop.WaitShutdown(context.Background()))
}

// TestEventLoop_Stop_Idempotent verifies Stop can be called repeatedly
func TestEventLoop_Stop_Idempotent(t *testing.T) {
	loop := NewEventLoop("test", nil)
	loop.Stop()
	loop.Stop()
	assert.True(t, loop.IsClosed())
}
