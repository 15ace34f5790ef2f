package core

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// DelayManager Tests
// =============================================================================

// TestDelayManager_BatchProcessing verifies that many tasks expiring together
// are all posted to the target loop
func TestDelayManager_BatchProcessing(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var executed atomic.Int32
	for range 100 {
		dm.AddDelayedTask(func() { executed.Add(1) }, 20*time.Millisecond, loop)
	}

	deadline := time.Now().Add(2 * time.Second)
	for executed.Load() < 100 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if count := executed.Load(); count != 100 {
		t.Errorf("Expected 100 tasks executed, got %d", count)
	}
	if n := dm.TaskCount(); n != 0 {
		t.Errorf("TaskCount() = %d, want 0", n)
	}
}

// TestDelayManager_Ordering verifies tasks run in deadline order regardless
// of insertion order
func TestDelayManager_Ordering(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	record := func(id int) Task {
		return func() {
			mu.Lock()
			order = append(order, id)
			n := len(order)
			mu.Unlock()
			if n == 3 {
				close(done)
			}
		}
	}

	dm.AddDelayedTask(record(3), 60*time.Millisecond, loop)
	dm.AddDelayedTask(record(1), 10*time.Millisecond, loop)
	dm.AddDelayedTask(record(2), 35*time.Millisecond, loop)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("delayed tasks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	for i, id := range order {
		if id != i+1 {
			t.Fatalf("order = %v, want [1 2 3]", order)
		}
	}
}

// TestDelayManager_Cancel verifies a cancelled task never reaches the loop
func TestDelayManager_Cancel(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var cancelled, kept atomic.Bool
	cancel := dm.AddDelayedTask(func() { cancelled.Store(true) }, 20*time.Millisecond, loop)
	dm.AddDelayedTask(func() { kept.Store(true) }, 40*time.Millisecond, loop)

	if n := dm.TaskCount(); n != 2 {
		t.Fatalf("TaskCount() = %d, want 2", n)
	}

	cancel()
	// Cancelling twice is harmless
	cancel()

	if n := dm.TaskCount(); n != 1 {
		t.Fatalf("TaskCount() after cancel = %d, want 1", n)
	}

	time.Sleep(100 * time.Millisecond)
	if err := loop.WaitIdle(context.Background()); err != nil {
		t.Fatalf("WaitIdle: %v", err)
	}

	if cancelled.Load() {
		t.Error("cancelled task was executed")
	}
	if !kept.Load() {
		t.Error("remaining task was not executed")
	}
}

// TestDelayManager_EarlierTaskWakesTimer verifies a task added ahead of the
// current earliest deadline is not held back by it
func TestDelayManager_EarlierTaskWakesTimer(t *testing.T) {
	dm := NewDelayManager()
	defer dm.Stop()

	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	dm.AddDelayedTask(func() {}, time.Hour, loop)

	fired := make(chan time.Time, 1)
	start := time.Now()
	dm.AddDelayedTask(func() { fired <- time.Now() }, 10*time.Millisecond, loop)

	select {
	case at := <-fired:
		if elapsed := at.Sub(start); elapsed > 500*time.Millisecond {
			t.Errorf("task fired after %v, want close to 10ms", elapsed)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("earlier task did not fire")
	}
}

// TestDelayManager_Stop verifies Stop drops pending tasks and ignores new ones
func TestDelayManager_Stop(t *testing.T) {
	dm := NewDelayManager()

	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	var executed atomic.Int32
	cancel := dm.AddDelayedTask(func() { executed.Add(1) }, 20*time.Millisecond, loop)

	dm.Stop()
	if n := dm.TaskCount(); n != 0 {
		t.Fatalf("TaskCount() after Stop = %d, want 0", n)
	}

	// Cancel after Stop must not touch the cleared heap
	cancel()

	dm.AddDelayedTask(func() { executed.Add(1) }, time.Millisecond, loop)
	if n := dm.TaskCount(); n != 0 {
		t.Fatalf("TaskCount() after post-Stop add = %d, want 0", n)
	}

	time.Sleep(60 * time.Millisecond)
	if n := executed.Load(); n != 0 {
		t.Errorf("executed %d tasks after Stop, want 0", n)
	}
}

// TestDelayManager_EventLoopTimer verifies the loop's own timer runs tasks on
// the loop goroutine and is stopped by Shutdown
func TestDelayManager_EventLoopTimer(t *testing.T) {
	loop := NewEventLoop("test", nil)
	defer loop.Stop()

	onLoop := make(chan bool, 1)
	loop.PostDelayedTask(func() {
		onLoop <- loop.RunsTasksInCurrentSequence()
	}, 10*time.Millisecond)

	select {
	case ok := <-onLoop:
		if !ok {
			t.Error("delayed task did not run on the loop goroutine")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed task did not run")
	}

	var late atomic.Bool
	loop.PostDelayedTask(func() { late.Store(true) }, 30*time.Millisecond)
	loop.Shutdown()

	time.Sleep(80 * time.Millisecond)
	if late.Load() {
		t.Error("delayed task ran after Shutdown")
	}
}
