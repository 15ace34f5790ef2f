package core

import (
	"container/heap"
	"context"
	"sync"
	"time"
)

// delayedTask represents a task scheduled for the future
type delayedTask struct {
	runAt  time.Time
	task   Task
	target *EventLoop
	index  int // for heap interface, -1 once removed
}

// delayedTaskHeap implements heap.Interface
type delayedTaskHeap []*delayedTask

func (h delayedTaskHeap) Len() int           { return len(h) }
func (h delayedTaskHeap) Less(i, j int) bool { return h[i].runAt.Before(h[j].runAt) }
func (h delayedTaskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayedTaskHeap) Push(x any) {
	n := len(*h)
	item := x.(*delayedTask)
	item.index = n
	*h = append(*h, item)
}

func (h *delayedTaskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // avoid memory leak
	item.index = -1
	*h = old[0 : n-1]
	return item
}

func (h *delayedTaskHeap) Peek() *delayedTask {
	if len(*h) == 0 {
		return nil
	}
	return (*h)[0]
}

// DelayManager keeps the pending timeouts of a loop in one heap served by a
// single timer goroutine. Due tasks are posted back to their target loop.
type DelayManager struct {
	pq     delayedTaskHeap
	mu     sync.Mutex
	wakeup chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
}

func NewDelayManager() *DelayManager {
	ctx, cancel := context.WithCancel(context.Background())
	dm := &DelayManager{
		pq:     make(delayedTaskHeap, 0),
		wakeup: make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	heap.Init(&dm.pq)
	go dm.loop()
	return dm
}

// AddDelayedTask schedules task on target after delay. The returned function
// removes it if it has not fired yet.
func (dm *DelayManager) AddDelayedTask(task Task, delay time.Duration, target *EventLoop) (cancel func()) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	if dm.ctx.Err() != nil {
		return func() {}
	}

	item := &delayedTask{
		runAt:  time.Now().Add(delay),
		task:   task,
		target: target,
	}
	heap.Push(&dm.pq, item)

	if item.index == 0 {
		select {
		case dm.wakeup <- struct{}{}:
		default:
		}
	}

	return func() { dm.remove(item) }
}

func (dm *DelayManager) remove(item *delayedTask) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	if item.index < 0 || item.index >= len(dm.pq) || dm.pq[item.index] != item {
		return
	}
	heap.Remove(&dm.pq, item.index)
}

func (dm *DelayManager) loop() {
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		nextRun := dm.calculateNextRun()
		if nextRun < 0 {
			// No tasks, wait indefinitely
			nextRun = 1000 * time.Hour
		}

		timer.Reset(nextRun)

		select {
		case <-dm.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			dm.processExpiredTasks()
		case <-dm.wakeup:
			// New earliest task, recalculate
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
		}
	}
}

// calculateNextRun returns how long to wait for the earliest task: zero when
// it is due, negative when there is none.
func (dm *DelayManager) calculateNextRun() time.Duration {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	item := dm.pq.Peek()
	if item == nil {
		return -1
	}

	wait := time.Until(item.runAt)
	if wait < 0 {
		return 0
	}
	return wait
}

func (dm *DelayManager) processExpiredTasks() {
	dm.mu.Lock()

	now := time.Now()
	var expired []*delayedTask
	for dm.pq.Len() > 0 {
		item := dm.pq.Peek()
		if item.runAt.After(now) {
			break
		}
		heap.Pop(&dm.pq)
		expired = append(expired, item)
	}

	dm.mu.Unlock()

	// Post outside the lock
	for _, item := range expired {
		item.target.PostTask(item.task)
	}
}

// Stop ends the timer goroutine and drops every pending task.
func (dm *DelayManager) Stop() {
	dm.mu.Lock()
	dm.cancel()
	for _, item := range dm.pq {
		item.index = -1
	}
	dm.pq = make(delayedTaskHeap, 0)
	dm.mu.Unlock()
}

// TaskCount returns the number of pending delayed tasks.
func (dm *DelayManager) TaskCount() int {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	return len(dm.pq)
}
