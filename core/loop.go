package core

import (
	"bytes"
	"context"
	"errors"
	"runtime"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopStopped is returned by Invoke when the loop stops before the task ran.
var ErrLoopStopped = errors.New("avvio: event loop stopped")

// EventLoop binds a dedicated goroutine that executes tasks one at a time in
// submission order. Every Boot owns one loop and keeps all of its scheduling
// state on it, so that state needs no locking.
//
// Key differences from running work directly on goroutines:
// - Tasks never run concurrently with each other
// - A task posted from inside a task runs after every task already queued
// - Invoke from the loop goroutine itself runs inline instead of deadlocking
type EventLoop struct {
	mu    sync.Mutex
	tasks []Task
	wake  chan struct{}

	// Lifecycle control
	ctx    context.Context
	cancel context.CancelFunc

	stopped      chan struct{}
	once         sync.Once
	closed       atomic.Bool
	shutdownChan chan struct{}
	shutdownOnce sync.Once

	goroutineID atomic.Uint64
	delays      *DelayManager

	name   string
	logger Logger
}

// NewEventLoop creates and starts a new EventLoop.
// It immediately spawns the dedicated goroutine.
func NewEventLoop(name string, logger Logger) *EventLoop {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	l := &EventLoop{
		tasks:        make([]Task, 0, defaultQueueCap),
		wake:         make(chan struct{}, 1),
		ctx:          ctx,
		cancel:       cancel,
		stopped:      make(chan struct{}),
		shutdownChan: make(chan struct{}),
		delays:       NewDelayManager(),
		name:         name,
		logger:       logger,
	}

	go l.runLoop()

	return l
}

// Name returns the name of the loop
func (l *EventLoop) Name() string {
	return l.name
}

// PostTask submits a task for execution. It reports false when the loop no
// longer accepts tasks.
func (l *EventLoop) PostTask(task Task) bool {
	if task == nil || l.closed.Load() {
		return false
	}

	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// PostDelayedTask submits a task to run after delay. The returned function
// cancels the timer; a task whose timer already fired still runs.
func (l *EventLoop) PostDelayedTask(task Task, delay time.Duration) (cancel func()) {
	if l.closed.Load() {
		return func() {}
	}

	return l.delays.AddDelayedTask(task, delay, l)
}

// RunsTasksInCurrentSequence reports whether the caller is running on the
// loop goroutine.
func (l *EventLoop) RunsTasksInCurrentSequence() bool {
	id := l.goroutineID.Load()
	return id != 0 && id == currentGoroutineID()
}

// Invoke runs task on the loop and waits for it to finish. Called from the
// loop goroutine it runs the task inline.
func (l *EventLoop) Invoke(task Task) error {
	if l.RunsTasksInCurrentSequence() {
		task()
		return nil
	}

	done := make(chan struct{})
	if !l.PostTask(func() {
		defer close(done)
		task()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// Len returns the number of queued tasks.
func (l *EventLoop) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks)
}

// Shutdown marks the loop as closed and lets the goroutine exit once the
// current task returns. Unlike Stop(), it does not wait, so it can be called
// from a task running on the loop. Tasks still queued are dropped.
func (l *EventLoop) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.closed.Store(true)
		l.cancel()
		l.delays.Stop()
		close(l.shutdownChan)
	})
}

// IsClosed returns true if the loop no longer accepts tasks
func (l *EventLoop) IsClosed() bool {
	return l.closed.Load()
}

// Stop shuts the loop down and waits for the goroutine to exit. From the
// loop goroutine it behaves like Shutdown.
func (l *EventLoop) Stop() {
	l.Shutdown()
	if l.RunsTasksInCurrentSequence() {
		return
	}
	l.once.Do(func() {
		<-l.stopped
	})
}

// Done is closed once the loop goroutine has exited.
func (l *EventLoop) Done() <-chan struct{} {
	return l.stopped
}

// WaitIdle blocks until all currently queued tasks have completed execution.
// Tasks posted after WaitIdle is called are not waited for.
func (l *EventLoop) WaitIdle(ctx context.Context) error {
	if l.IsClosed() {
		return ErrLoopStopped
	}

	done := make(chan struct{})
	if !l.PostTask(func() { close(done) }) {
		return ErrLoopStopped
	}

	select {
	case <-done:
		return nil
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WaitShutdown blocks until Shutdown() is called on this loop.
func (l *EventLoop) WaitShutdown(ctx context.Context) error {
	select {
	case <-l.shutdownChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runLoop occupies the dedicated goroutine
func (l *EventLoop) runLoop() {
	defer close(l.stopped)
	l.goroutineID.Store(currentGoroutineID())

	for {
		task, ok := l.next()
		if !ok {
			return
		}
		l.runTask(task)
	}
}

func (l *EventLoop) next() (Task, bool) {
	for {
		if l.ctx.Err() != nil {
			return nil, false
		}

		l.mu.Lock()
		if len(l.tasks) > 0 {
			task := l.tasks[0]
			l.tasks[0] = nil
			l.tasks = l.tasks[1:]
			if len(l.tasks) == 0 && cap(l.tasks) > compactMinCap {
				l.tasks = make([]Task, 0, defaultQueueCap)
			}
			l.mu.Unlock()
			return task, true
		}
		l.mu.Unlock()

		select {
		case <-l.wake:
		case <-l.ctx.Done():
			return nil, false
		}
	}
}

func (l *EventLoop) runTask(task Task) {
	defer func() {
		if rec := recover(); rec != nil {
			l.logger.Error("event loop task panicked",
				F("loop", l.name),
				F("panic", rec),
				F("stack", string(debug.Stack())))
		}
	}()
	task()
}

// currentGoroutineID parses "goroutine 123 [running]:" from the stack header.
func currentGoroutineID() uint64 {
	var buf [64]byte
	b := buf[:runtime.Stack(buf[:], false)]
	b = bytes.TrimPrefix(b, []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i >= 0 {
		b = b[:i]
	}
	id, err := strconv.ParseUint(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
