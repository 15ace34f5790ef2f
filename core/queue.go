package core

const (
	defaultQueueCap     = 16
	compactMinCap       = 64 // Don't compact if capacity is less than this
	compactShrinkFactor = 4  // Trigger compaction when len < cap/4
)

// QueueWorker processes one queued item and reports completion through done.
// done must be called exactly once, on the queue's EventLoop.
type QueueWorker[T any] func(item T, done func(error))

type queueItem[T any] struct {
	value    T
	callback func(error)
}

// ExecutionQueue is a single-flight FIFO queue driven by an EventLoop.
// At most one item is in flight; the next item is handed to the worker on a
// later loop tick after the previous one completed.
//
// The queue is confined to its loop: every method must be called from a task
// running on that loop.
type ExecutionQueue[T any] struct {
	loop    *EventLoop
	worker  QueueWorker[T]
	items   []queueItem[T]
	paused  bool
	running bool
	drain   func()
}

// NewExecutionQueue creates an unpaused queue.
func NewExecutionQueue[T any](loop *EventLoop, worker QueueWorker[T]) *ExecutionQueue[T] {
	return &ExecutionQueue[T]{
		loop:   loop,
		worker: worker,
		items:  make([]queueItem[T], 0, defaultQueueCap),
	}
}

// Push appends an item. callback, when non-nil, receives the worker's result
// before the next item is considered.
func (q *ExecutionQueue[T]) Push(value T, callback func(error)) {
	q.items = append(q.items, queueItem[T]{value: value, callback: callback})
	q.process()
}

// Unshift places an item ahead of everything queued.
func (q *ExecutionQueue[T]) Unshift(value T, callback func(error)) {
	q.items = append(q.items, queueItem[T]{})
	copy(q.items[1:], q.items)
	q.items[0] = queueItem[T]{value: value, callback: callback}
	q.process()
}

// Pause stops handing out items. The item in flight is not affected.
func (q *ExecutionQueue[T]) Pause() {
	q.paused = true
}

// Resume restarts a paused queue. Resuming an empty idle queue fires the
// drain hook immediately.
func (q *ExecutionQueue[T]) Resume() {
	if !q.paused {
		return
	}
	q.paused = false

	if len(q.items) == 0 {
		if !q.running {
			q.fireDrain()
		}
		return
	}
	q.process()
}

// SetDrain installs the hook called whenever the queue becomes empty with
// nothing in flight. A nil hook disables it.
func (q *ExecutionQueue[T]) SetDrain(fn func()) {
	q.drain = fn
}

// Len returns the number of items waiting, excluding the one in flight.
func (q *ExecutionQueue[T]) Len() int {
	return len(q.items)
}

// Running returns the number of items in flight (0 or 1).
func (q *ExecutionQueue[T]) Running() int {
	if q.running {
		return 1
	}
	return 0
}

// Idle reports whether nothing is waiting and nothing is in flight.
func (q *ExecutionQueue[T]) Idle() bool {
	return len(q.items) == 0 && !q.running
}

// Paused reports whether the queue is paused.
func (q *ExecutionQueue[T]) Paused() bool {
	return q.paused
}

func (q *ExecutionQueue[T]) process() {
	if q.paused || q.running || len(q.items) == 0 {
		return
	}

	item := q.items[0]
	// Zero out the element in the underlying array to prevent memory leak
	q.items[0] = queueItem[T]{}
	q.items = q.items[1:]
	q.maybeCompact()
	q.running = true

	q.loop.PostTask(func() {
		q.worker(item.value, func(err error) {
			q.release(item, err)
		})
	})
}

func (q *ExecutionQueue[T]) release(item queueItem[T], err error) {
	if item.callback != nil {
		item.callback(err)
	}
	q.running = false

	if len(q.items) > 0 {
		q.process()
		return
	}
	q.fireDrain()
}

func (q *ExecutionQueue[T]) fireDrain() {
	if q.drain != nil {
		q.drain()
	}
}

func (q *ExecutionQueue[T]) maybeCompact() {
	c := cap(q.items)
	if c < compactMinCap || len(q.items) >= c/compactShrinkFactor {
		return
	}
	items := make([]queueItem[T], len(q.items), len(q.items)*2+defaultQueueCap)
	copy(items, q.items)
	q.items = items
}
