package core

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/Swind/go-avvio/timetree"
)

// Boot loads a tree of plugins in a strict, predictable order, runs barrier
// and ready handlers, and tears everything down in reverse on Close.
//
// All scheduling state lives on a dedicated EventLoop. Plugin bodies and
// user handlers run on their own goroutines and report back to the loop, so
// a blocking body never stalls timers or other bookkeeping. Only one plugin
// body is in flight at a time.
//
// Every method is safe to call from any goroutine.
type Boot struct {
	name      string
	cfg       BootConfig
	loop      *EventLoop
	logger    Logger
	metrics   Metrics
	fatal     FatalHandler
	tree      *timetree.Tree
	history   *executionHistory
	rootScope *Scope

	state      atomic.Int32
	registered atomic.Int64
	loaded     atomic.Int64
	failed     atomic.Int64
	skipped    atomic.Int64
	timedOut   atomic.Int64
	rejected   atomic.Int64

	// Confined to the event loop.
	stack     []*pluginNode
	err       error
	started   bool
	released  bool
	booted    bool
	closed    bool
	root      *pluginNode
	doStart   func(error)
	override  OverrideFunc
	readyQ    *ExecutionQueue[*queuedHandler]
	closeQ    *ExecutionQueue[*queuedHandler]
	listeners map[Event][]func()
	fired     map[Event]bool
}

type queuedHandler struct {
	h     *handler
	scope *Scope
}

// New creates a Boot and loads its root plugin. A nil cfg means
// DefaultBootConfig().
func New(cfg *BootConfig) (*Boot, error) {
	if cfg == nil {
		cfg = DefaultBootConfig()
	}
	c := cfg.withDefaults()

	b := &Boot{
		name:      c.Name,
		cfg:       c,
		logger:    c.Logger,
		metrics:   c.Metrics,
		fatal:     c.FatalHandler,
		override:  c.Override,
		tree:      timetree.New(),
		history:   newExecutionHistory(c.HistoryCapacity),
		listeners: make(map[Event][]func()),
		fired:     make(map[Event]bool),
	}
	b.rootScope = newScope("root", nil, b)
	if err := b.expose(c.Server, c.Expose); err != nil {
		return nil, err
	}

	b.loop = NewEventLoop(c.Name, c.Logger)

	b.readyQ = NewExecutionQueue[*queuedHandler](b.loop, b.runReadyHandler)
	b.readyQ.Pause()
	b.readyQ.SetDrain(b.onReadyDrain)

	b.closeQ = NewExecutionQueue[*queuedHandler](b.loop, b.runCloseHandler)
	b.closeQ.Pause()
	b.closeQ.SetDrain(b.onCloseDrain)

	if err := b.loop.Invoke(b.loadRoot); err != nil {
		return nil, err
	}

	b.logger.Debug("boot created",
		F("boot", b.name), F("autostart", c.Autostart), F("timeout", c.Timeout))
	return b, nil
}

func (b *Boot) expose(server map[string]any, ex Expose) error {
	if _, ok := server[reservedAttribute]; ok {
		return fmt.Errorf("%w: %q", ErrAttributeAlreadyDefined, reservedAttribute)
	}
	for k, v := range server {
		b.rootScope.values[k] = v
	}

	api := []struct {
		name string
		fn   any
	}{
		{ex.Use, UseFunc(b.Use)},
		{ex.After, RegisterFunc(b.After)},
		{ex.Ready, RegisterFunc(b.Ready)},
		{ex.OnClose, RegisterFunc(b.OnClose)},
		{ex.Close, RegisterFunc(b.Close)},
	}
	for _, a := range api {
		if _, ok := b.rootScope.values[a.name]; ok || a.name == reservedAttribute {
			return fmt.Errorf("%w: %q", ErrExposeAlreadyDefined, a.name)
		}
		b.rootScope.values[a.name] = a.fn
	}
	b.rootScope.values[reservedAttribute] = b
	return nil
}

// =============================================================================
// Registration API
// =============================================================================

// Use registers a plugin as a child of the plugin currently loading (the
// root when called before Start). fn is a SyncPlugin, CallbackPlugin,
// FuturePlugin, an unnamed func of one of those shapes, or a *Future[any]
// resolving to one.
//
// Errors returned here are registration errors only. Failures of the plugin
// body are delivered to the next after or ready handler.
func (b *Boot) Use(fn any, opts ...PluginOption) error {
	pf, err := newPluginFunc(fn)
	if err != nil {
		b.reject("plugin_not_valid", err)
		return err
	}

	var settings pluginSettings
	for _, opt := range opts {
		opt(&settings)
	}

	err = b.do(func() error {
		_, err := b.addPlugin(pf, settings)
		return err
	})
	if err != nil {
		b.reject(rejectReason(err), err)
	}
	return err
}

// After registers a barrier at the current level: it runs once everything
// registered before it at that level has loaded, and before anything
// registered after it.
func (b *Boot) After(h any) error {
	hd, err := newHandler(h)
	if err != nil {
		b.reject("callback_not_function", err)
		return err
	}

	err = b.do(func() error { return b.addAfter(hd) })
	if err != nil {
		b.reject(rejectReason(err), err)
	}
	return err
}

// AfterAsync returns a future settled once everything registered so far at
// the current level has loaded. It rejects with the pending error, which
// stays pending for the next handler.
func (b *Boot) AfterAsync() *Future[struct{}] {
	fut := NewFuture[struct{}]()
	err := b.do(func() error {
		if b.closed {
			return ErrBootClosed
		}
		top := b.top()
		if top == nil {
			fut.Resolve(struct{}{})
			return nil
		}
		top.loadedSoFar(fut)
		return nil
	})
	if err != nil {
		fut.Reject(err)
	}
	return fut
}

// Ready registers a handler that runs once the whole tree has loaded. It
// receives the pending error and the root scope.
func (b *Boot) Ready(h any) error {
	return b.ready(h, b.rootScope)
}

func (b *Boot) ready(h any, s *Scope) error {
	hd, err := newHandler(h)
	if err != nil {
		b.reject("callback_not_function", err)
		return err
	}

	return b.do(func() error {
		if b.closed {
			return ErrBootClosed
		}
		b.pushReady(hd, s)
		b.autostart()
		return nil
	})
}

// ReadyAsync returns a future resolved with the scope of the plugin that was
// loading when it was called (the root scope from outside any plugin) once
// the tree has loaded, or rejected with the pending error, consuming it.
func (b *Boot) ReadyAsync() *Future[*Scope] {
	fut := NewFuture[*Scope]()
	err := b.do(func() error {
		if b.closed {
			return ErrBootClosed
		}
		scope := b.rootScope
		if top := b.top(); top != nil && top.scope != nil {
			scope = top.scope
		}
		h := internalHandler("readyAsync", KindErrorContextDone, func(err error, _ *Scope, done func(error)) {
			if err != nil {
				fut.Reject(err)
			} else {
				fut.Resolve(scope)
			}
			done(nil)
		})
		b.pushReady(h, scope)
		b.autostart()
		return nil
	})
	if err != nil {
		fut.Reject(err)
	}
	return fut
}

// Wait blocks until the boot is ready. It is equivalent to
// ReadyAsync().Await(ctx).
func (b *Boot) Wait(ctx context.Context) (*Scope, error) {
	return b.ReadyAsync().Await(ctx)
}

// OnClose registers a teardown handler. Handlers run in reverse
// registration order, before the Close body.
func (b *Boot) OnClose(h any) error {
	return b.onClose(h, b.rootScope)
}

func (b *Boot) onClose(h any, s *Scope) error {
	hd, err := newCloseHandler(h)
	if err != nil {
		b.reject("callback_not_function", err)
		return err
	}

	return b.do(func() error {
		if b.closed {
			return ErrBootClosed
		}
		b.closeQ.Unshift(&queuedHandler{h: hd, scope: s}, func(err error) {
			if err != nil && b.err == nil {
				b.err = err
			}
		})
		b.recordDepth("close", b.closeQ.Len())
		return nil
	})
}

// Close waits for ready, runs the onClose handlers and then h, which
// receives the first onClose error. h may be nil.
func (b *Boot) Close(h any) error {
	body := internalHandler("close", KindNoArg, func(_ error, _ *Scope, done func(error)) { done(nil) })
	if h != nil {
		hd, err := newHandler(h)
		if err != nil {
			b.reject("callback_not_function", err)
			return err
		}
		body = hd
	}
	return b.do(func() error { return b.close(body) })
}

// CloseAsync is Close returning a future. It rejects with the first onClose
// error. On a boot that already closed it resolves immediately.
func (b *Boot) CloseAsync() *Future[struct{}] {
	fut := NewFuture[struct{}]()
	body := internalHandler("closeAsync", KindErrorOnly, func(err error, _ *Scope, done func(error)) {
		if err != nil {
			fut.Reject(err)
		} else {
			fut.Resolve(struct{}{})
		}
		done(nil)
	})
	if err := b.do(func() error { return b.close(body) }); err != nil {
		fut.Resolve(struct{}{})
	}
	return fut
}

func (b *Boot) close(body *handler) error {
	if b.closed {
		return ErrBootClosed
	}
	trigger := internalHandler("closeTrigger", KindNoArg, func(_ error, _ *Scope, done func(error)) {
		b.err = nil
		b.closeQ.Push(&queuedHandler{h: body, scope: b.rootScope}, nil)
		b.setState(StateClosing)
		b.loop.PostTask(b.closeQ.Resume)
		done(nil)
	})
	b.pushReady(trigger, b.rootScope)
	b.autostart()
	return nil
}

// Start begins loading. With Autostart it is implied by Ready, ReadyAsync,
// Wait, Close and CloseAsync.
func (b *Boot) Start() *Boot {
	_ = b.do(func() error {
		b.start()
		return nil
	})
	return b
}

// On registers fn for a lifecycle event. fn runs on the event loop and must
// not block on the boot; listeners registered after the event fired are
// never called.
func (b *Boot) On(ev Event, fn func()) error {
	if fn == nil {
		return fmt.Errorf("%w: nil listener", ErrCallbackNotFunction)
	}
	return b.do(func() error {
		b.listeners[ev] = append(b.listeners[ev], fn)
		return nil
	})
}

// SetOverride replaces the encapsulation hook for plugins not yet loaded.
func (b *Boot) SetOverride(fn OverrideFunc) error {
	if fn == nil {
		fn = IdentityOverride
	}
	return b.do(func() error {
		b.override = fn
		return nil
	})
}

// Stop terminates the event loop without running close handlers. Pending
// futures stay unsettled.
func (b *Boot) Stop() {
	b.loop.Stop()
}

// =============================================================================
// Introspection
// =============================================================================

// Name returns the boot name.
func (b *Boot) Name() string {
	return b.name
}

// Root returns the root scope.
func (b *Boot) Root() *Scope {
	return b.rootScope
}

// State returns the current lifecycle state.
func (b *Boot) State() State {
	return State(b.state.Load())
}

// Errored reports whether an error is pending.
func (b *Boot) Errored() bool {
	var errored bool
	_ = b.loop.Invoke(func() { errored = b.err != nil })
	return errored
}

// PrettyPrint renders the load tree with per-plugin durations.
func (b *Boot) PrettyPrint() string {
	return b.tree.PrettyPrint()
}

// ToJSON renders the load tree as JSON.
func (b *Boot) ToJSON() ([]byte, error) {
	return b.tree.ToJSON()
}

// Draw renders the load tree as a top-down diagram.
func (b *Boot) Draw() string {
	return b.tree.Draw()
}

// RecentExecutions returns up to limit execution records, newest first.
func (b *Boot) RecentExecutions(limit int) []PluginRecord {
	return b.history.Recent(limit)
}

// Stats returns a snapshot of the boot's counters and queues.
func (b *Boot) Stats() BootStats {
	stats := BootStats{
		Name:       b.name,
		State:      b.State(),
		Registered: b.registered.Load(),
		Loaded:     b.loaded.Load(),
		Failed:     b.failed.Load(),
		Skipped:    b.skipped.Load(),
		TimedOut:   b.timedOut.Load(),
		Rejected:   b.rejected.Load(),
	}
	_ = b.loop.Invoke(func() {
		stats.Depth = len(b.stack)
		stats.ReadyPending = b.readyQ.Len()
		stats.ClosePending = b.closeQ.Len()
		stats.Errored = b.err != nil
	})
	if last, ok := b.history.Last(); ok {
		stats.LastPlugin = last.Name
		stats.LastPluginAt = last.FinishedAt
	}
	return stats
}

// =============================================================================
// Loop-confined scheduling
// =============================================================================

// do runs fn on the loop and maps a stopped loop to ErrBootClosed.
func (b *Boot) do(fn func() error) error {
	var err error
	if ierr := b.loop.Invoke(func() { err = fn() }); ierr != nil {
		return ErrBootClosed
	}
	return err
}

func (b *Boot) top() *pluginNode {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *Boot) pop(p *pluginNode) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		if b.stack[i] == p {
			b.stack = append(b.stack[:i], b.stack[i+1:]...)
			return
		}
	}
}

func (b *Boot) loadRoot() {
	root := pluginFunc{kind: PluginCallback, call: func(_ *Scope, _ any, done func(error)) {
		b.doStart = done
	}}
	b.root = b.newPluginNode(root, pluginSettings{name: "root"}, false, 0)
	b.root.internal = true
	b.loadPlugin(b.root, b.onRootLoaded)
}

func (b *Boot) autostart() {
	if b.cfg.Autostart {
		b.start()
	}
}

func (b *Boot) start() {
	if b.closed {
		return
	}
	b.started = true
	b.state.CompareAndSwap(int32(StateNotStarted), int32(StateStarting))

	if !b.released {
		b.released = true
		b.logger.Debug("boot starting", F("boot", b.name))
		b.loop.PostTask(func() { b.doStart(nil) })
		return
	}
	// A barrier may have paused the root queue after the root was released.
	if !b.root.loaded {
		b.loop.PostTask(b.root.queue.Resume)
	}
}

func (b *Boot) addPlugin(fn pluginFunc, settings pluginSettings) (*pluginNode, error) {
	return b.addNode(fn, settings, false)
}

func (b *Boot) addAfter(h *handler) error {
	fn := pluginFunc{kind: PluginCallback, fn: h.fn, call: func(s *Scope, _ any, done func(error)) {
		b.callHandler(h, s, done)
	}}
	_, err := b.addNode(fn, pluginSettings{name: h.name}, true)
	return err
}

func (b *Boot) addNode(fn pluginFunc, settings pluginSettings, isAfter bool) (*pluginNode, error) {
	if b.closed {
		return nil, ErrBootClosed
	}
	cur := b.top()
	if b.booted || cur == nil {
		return nil, fmt.Errorf("%w: cannot register %q", ErrRootAlreadyBooted, resolveName(fn.fn, settings.name))
	}

	timeout := b.cfg.Timeout
	if settings.hasTimeout {
		timeout = settings.timeout
	} else if cur.started && !cur.loaded && cur.timeout > 0 {
		// the child must time out before its parent does
		timeout = cur.timeout - (time.Since(cur.startTime) + 3*time.Millisecond)
		if timeout < time.Millisecond {
			timeout = time.Millisecond
		}
	}

	p := b.newPluginNode(fn, settings, isAfter, timeout)
	p.parentName = cur.name
	if cur.loaded {
		return nil, fmt.Errorf("%w: %q cannot register %q", ErrParentPluginLoaded, cur.name, p.name)
	}

	cur.enqueue(p, func(err error) {
		if err != nil {
			b.err = err
		}
	})
	b.registered.Add(1)
	b.logger.Debug("plugin registered",
		F("boot", b.name), F("plugin", p.name), F("parent", cur.name), F("after", isAfter))
	return p, nil
}

// loadPlugin is the worker of every plugin queue.
func (b *Boot) loadPlugin(p *pluginNode, cb func(error)) {
	if p.fn.lazy != nil {
		b.resolveLazy(p, cb)
		return
	}

	scope := b.rootScope
	if last := b.top(); last != nil && last.scope != nil {
		scope = last.scope
	}
	b.stack = append(b.stack, p)

	execCallback := func(err error) {
		p.finish(err, func(err error) {
			b.pop(p)
			cb(err)
		})
	}

	if b.err != nil && !p.isAfter {
		b.skipped.Add(1)
		b.logger.Debug("skipping plugin, boot errored",
			F("boot", b.name), F("plugin", p.name), F("error", b.err))
		b.loop.PostTask(func() { execCallback(nil) })
		return
	}

	if !p.isAfter && p != b.root {
		s, err := b.applyOverride(scope, p)
		if err != nil {
			b.logger.Warn("override failed", F("boot", b.name), F("plugin", p.name), F("error", err))
			execCallback(err)
			return
		}
		scope = s
	}

	p.exec(scope, execCallback)
}

func (b *Boot) resolveLazy(p *pluginNode, cb func(error)) {
	lazy := p.fn.lazy
	go func() {
		v, err := lazy.Await(context.Background())
		b.loop.PostTask(func() {
			if err != nil {
				b.failed.Add(1)
				cb(err)
				return
			}
			fn, err := newPluginFunc(v)
			if err != nil {
				b.failed.Add(1)
				cb(err)
				return
			}
			p.fn = fn
			if p.settings.name == "" && fn.kind != PluginLazy {
				p.name = resolveName(fn.fn, "")
			}
			b.loadPlugin(p, cb)
		})
	}()
}

func (b *Boot) applyOverride(parent *Scope, p *pluginNode) (s *Scope, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Name: p.name + " override", Value: rec, Stack: debug.Stack()}
		}
	}()

	info := PluginInfo{Name: p.name, Fn: p.fn.fn, SkipOverride: p.settings.skipOverride}
	s, err = b.override(parent, info, p.settings.opts)
	if err == nil && s == nil {
		s = parent
	}
	return s, err
}

// callHandler runs an after or ready handler. The pending error is handed
// to the handler and the slot is refilled from its result, except for
// no-arg handlers which leave the slot alone unless they fail themselves.
func (b *Boot) callHandler(h *handler, s *Scope, done func(error)) {
	err := b.err
	b.err = nil
	if !h.kind.consumesError() {
		b.err = err
	}

	finished := false
	var stopTimer func()
	complete := func(res error) {
		if finished {
			b.logger.Warn("late handler completion discarded",
				F("boot", b.name), F("handler", h.name), F("error", res))
			return
		}
		finished = true
		if stopTimer != nil {
			stopTimer()
		}
		if h.kind.consumesError() || res != nil {
			b.err = res
		}
		done(res)
	}

	if h.kind.callback() && !h.internal && b.cfg.Timeout > 0 {
		stopTimer = b.loop.PostDelayedTask(func() {
			if finished {
				return
			}
			b.logger.Warn("handler timed out",
				F("boot", b.name), F("handler", h.name), F("timeout", b.cfg.Timeout))
			complete(&TimeoutError{Name: h.name, Fn: h.fn, Timeout: b.cfg.Timeout, kind: ErrReadyTimeout})
		}, b.cfg.Timeout)
	}

	if h.internal {
		h.call(err, s, complete)
		return
	}
	b.runUser(h.name, func(report func(error)) {
		h.call(err, s, report)
	}, complete)
}

// runUser runs body on its own goroutine. Every report, and a panic, is
// posted back to the loop as a call to complete.
func (b *Boot) runUser(name string, body func(report func(error)), complete func(error)) {
	report := func(err error) {
		b.loop.PostTask(func() { complete(err) })
	}
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				report(&PanicError{Name: name, Value: rec, Stack: debug.Stack()})
			}
		}()
		body(report)
	}()
}

func (b *Boot) runReadyHandler(item *queuedHandler, done func(error)) {
	b.callHandler(item.h, item.scope, done)
}

// runCloseHandler runs an onClose handler or the close body. The close body
// receives the pending error without consuming it.
func (b *Boot) runCloseHandler(item *queuedHandler, done func(error)) {
	h := item.h
	err := b.err

	finished := false
	complete := func(res error) {
		if finished {
			return
		}
		finished = true
		if res != nil {
			b.logger.Warn("close handler failed", F("boot", b.name), F("handler", h.name), F("error", res))
		}
		done(res)
	}

	if h.internal {
		h.call(err, item.scope, complete)
		return
	}
	b.runUser(h.name, func(report func(error)) {
		h.call(err, item.scope, report)
	}, complete)
}

func (b *Boot) pushReady(h *handler, s *Scope) {
	b.readyQ.Push(&queuedHandler{h: h, scope: s}, nil)
	b.recordDepth("ready", b.readyQ.Len())
}

func (b *Boot) onRootLoaded(err error) {
	b.booted = true
	b.setState(StateBooted)
	b.logger.Debug("root plugin loaded", F("boot", b.name), F("error", b.err))
	b.emit(EventPreReady)

	if err != nil {
		b.err = err
	}
	if b.err != nil && b.readyQ.Len() == 0 {
		fatalErr := b.err
		b.logger.Error("boot failed with no ready handler", F("boot", b.name), F("error", fatalErr))
		go b.fatal.HandleFatal(b.name, fatalErr)
	}
	b.readyQ.Resume()
}

func (b *Boot) onReadyDrain() {
	if b.fired[EventStart] {
		return
	}
	b.state.CompareAndSwap(int32(StateBooted), int32(StateReady))
	b.logger.Debug("boot ready", F("boot", b.name))
	b.emit(EventStart)
}

func (b *Boot) onCloseDrain() {
	if b.closed {
		return
	}
	b.closed = true
	b.setState(StateClosed)
	b.logger.Debug("boot closed", F("boot", b.name))
	b.emit(EventClose)
	b.loop.Shutdown()
}

func (b *Boot) emit(ev Event) {
	if b.fired[ev] {
		return
	}
	b.fired[ev] = true
	listeners := b.listeners[ev]
	delete(b.listeners, ev)
	for _, fn := range listeners {
		b.callListener(ev, fn)
	}
}

func (b *Boot) callListener(ev Event, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("event listener panicked",
				F("boot", b.name), F("event", string(ev)), F("panic", rec))
		}
	}()
	fn()
}

func (b *Boot) setState(s State) {
	b.state.Store(int32(s))
}

// =============================================================================
// Bookkeeping
// =============================================================================

func (b *Boot) pluginStarted(p *pluginNode) {
	var parent *string
	if p != b.root {
		name := p.parentName
		parent = &name
	}
	p.treeID = b.tree.Start(parent, p.name, p.startTime)
	p.tracked = true
	b.logger.Debug("plugin started",
		F("boot", b.name), F("plugin", p.name), F("id", p.id.String()), F("timeout", p.timeout))
}

func (b *Boot) pluginExecuted(p *pluginNode, err error) {
	if p == b.root {
		return
	}

	finishedAt := time.Now()
	kind := "plugin"
	if p.isAfter {
		kind = "after"
	}
	record := PluginRecord{
		TaskID:     p.id,
		Name:       p.name,
		Kind:       kind,
		Parent:     p.parentName,
		StartedAt:  p.startTime,
		FinishedAt: finishedAt,
		Duration:   finishedAt.Sub(p.startTime),
		Err:        err,
	}

	if err != nil {
		reason := failureReason(err)
		record.TimedOut = reason == "timeout"
		record.Panicked = reason == "panic"
		b.failed.Add(1)
		if record.TimedOut {
			b.timedOut.Add(1)
		}
		b.metrics.RecordPluginFailure(b.name, p.name, reason)
		b.logger.Warn("plugin failed",
			F("boot", b.name), F("plugin", p.name), F("reason", reason), F("error", err))
	}

	b.metrics.RecordPluginDuration(b.name, kind, record.Duration)
	b.history.Add(record)
}

func (b *Boot) pluginLoaded(p *pluginNode, err error) {
	if p.tracked {
		b.tree.Stop(p.treeID, time.Now())
	}
	if p != b.root {
		b.loaded.Add(1)
	}
	b.logger.Debug("plugin loaded", F("boot", b.name), F("plugin", p.name), F("error", err))
}

func (b *Boot) reject(reason string, err error) {
	b.rejected.Add(1)
	b.metrics.RecordRegistrationRejected(b.name, reason)
	b.logger.Debug("registration rejected", F("boot", b.name), F("reason", reason), F("error", err))
}

func (b *Boot) recordDepth(queue string, depth int) {
	b.metrics.RecordQueueDepth(b.name, queue, depth)
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrRootAlreadyBooted):
		return "root_already_booted"
	case errors.Is(err, ErrParentPluginLoaded):
		return "parent_plugin_loaded"
	case errors.Is(err, ErrBootClosed):
		return "closed"
	default:
		return "unknown"
	}
}
