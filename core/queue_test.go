package core

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// queueHarness drives an ExecutionQueue[string] whose worker records the
// item and completes it immediately, unless the item is listed in hold.
type queueHarness struct {
	loop    *EventLoop
	q       *ExecutionQueue[string]
	seen    []string
	held    map[string]func(error)
	hold    map[string]bool
	results map[string]error
	drains  int
}

func newQueueHarness(t *testing.T) *queueHarness {
	t.Helper()
	h := &queueHarness{
		loop:    NewEventLoop("queue-test", nil),
		held:    make(map[string]func(error)),
		hold:    make(map[string]bool),
		results: make(map[string]error),
	}
	t.Cleanup(h.loop.Stop)
	h.q = NewExecutionQueue[string](h.loop, func(item string, done func(error)) {
		h.seen = append(h.seen, item)
		if h.hold[item] {
			h.held[item] = done
			return
		}
		done(h.results[item])
	})
	h.q.SetDrain(func() { h.drains++ })
	return h
}

// on runs fn on the loop and waits for every task it posted
func (h *queueHarness) on(t *testing.T, fn func()) {
	t.Helper()
	require.NoError(t, h.loop.Invoke(fn))
	for i := 0; i < 5; i++ {
		require.NoError(t, h.loop.Invoke(func() {}))
	}
}

// TestExecutionQueue_FIFO verifies items are processed in push order
func TestExecutionQueue_FIFO(t *testing.T) {
	h := newQueueHarness(t)

	h.on(t, func() {
		h.q.Push("a", nil)
		h.q.Push("b", nil)
		h.q.Push("c", nil)
	})

	h.on(t, func() {
		assert.Equal(t, []string{"a", "b", "c"}, h.seen)
		assert.True(t, h.q.Idle())
		assert.Equal(t, 1, h.drains)
	})
}

// TestExecutionQueue_DeferredOneTick verifies Push never runs the worker
// synchronously
func TestExecutionQueue_DeferredOneTick(t *testing.T) {
	h := newQueueHarness(t)

	require.NoError(t, h.loop.Invoke(func() {
		h.q.Push("a", nil)
		assert.Empty(t, h.seen)
		assert.Equal(t, 1, h.q.Running())
		assert.False(t, h.q.Idle())
	}))
}

// TestExecutionQueue_SingleFlight verifies the next item waits for done
func TestExecutionQueue_SingleFlight(t *testing.T) {
	h := newQueueHarness(t)
	h.hold["a"] = true

	h.on(t, func() {
		h.q.Push("a", nil)
		h.q.Push("b", nil)
	})
	h.on(t, func() {
		assert.Equal(t, []string{"a"}, h.seen)
		assert.Equal(t, 1, h.q.Len())
		h.held["a"](nil)
	})
	h.on(t, func() {
		assert.Equal(t, []string{"a", "b"}, h.seen)
	})
}

// TestExecutionQueue_PauseResume verifies paused queues hold items and that
// resuming an empty idle queue fires drain
func TestExecutionQueue_PauseResume(t *testing.T) {
	h := newQueueHarness(t)

	h.on(t, func() {
		h.q.Pause()
		h.q.Push("a", nil)
	})
	h.on(t, func() {
		assert.Empty(t, h.seen)
		assert.True(t, h.q.Paused())
		h.q.Resume()
	})
	h.on(t, func() {
		assert.Equal(t, []string{"a"}, h.seen)
		assert.Equal(t, 1, h.drains)

		h.q.Pause()
		h.q.Resume()
		assert.Equal(t, 2, h.drains)

		// resuming an unpaused queue is a no-op
		h.q.Resume()
		assert.Equal(t, 2, h.drains)
	})
}

// TestExecutionQueue_Unshift verifies unshifted items jump the line
func TestExecutionQueue_Unshift(t *testing.T) {
	h := newQueueHarness(t)

	h.on(t, func() {
		h.q.Pause()
		h.q.Push("a", nil)
		h.q.Unshift("h1", nil)
		h.q.Unshift("h2", nil)
		h.q.Resume()
	})
	h.on(t, func() {
		assert.Equal(t, []string{"h2", "h1", "a"}, h.seen)
	})
}

// TestExecutionQueue_CallbackBeforeNextItem verifies item callbacks receive
// the worker's error before the next item starts
func TestExecutionQueue_CallbackBeforeNextItem(t *testing.T) {
	h := newQueueHarness(t)
	boom := errors.New("boom")
	h.results["a"] = boom

	var got error
	var seenAtCallback int
	h.on(t, func() {
		h.q.Push("a", func(err error) {
			got = err
			seenAtCallback = len(h.seen)
		})
		h.q.Push("b", nil)
	})
	h.on(t, func() {
		assert.ErrorIs(t, got, boom)
		assert.Equal(t, 1, seenAtCallback)
		assert.Equal(t, []string{"a", "b"}, h.seen)
	})
}

// TestExecutionQueue_PauseInsideWorker verifies a worker can pause its own
// queue, leaving later items waiting without firing drain
func TestExecutionQueue_PauseInsideWorker(t *testing.T) {
	loop := NewEventLoop("queue-test", nil)
	defer loop.Stop()

	var seen []string
	var drains atomic.Int32
	var q *ExecutionQueue[string]
	q = NewExecutionQueue[string](loop, func(item string, done func(error)) {
		seen = append(seen, item)
		if item == "barrier" {
			q.Pause()
		}
		done(nil)
	})
	q.SetDrain(func() { drains.Add(1) })

	require.NoError(t, loop.Invoke(func() {
		q.Push("a", nil)
		q.Push("barrier", nil)
		q.Push("b", nil)
	}))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, loop.Invoke(func() {
		assert.Equal(t, []string{"a", "barrier"}, seen)
		assert.Equal(t, 1, q.Len())
		assert.Equal(t, int32(0), drains.Load())
		q.Resume()
	}))
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, loop.Invoke(func() {
		assert.Equal(t, []string{"a", "barrier", "b"}, seen)
		assert.Equal(t, int32(1), drains.Load())
	}))
}
