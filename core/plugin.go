package core

import (
	"runtime/debug"
	"time"
)

// pluginNode is one unit of the load tree. Its child queue holds the plugins
// registered while it was the active node; the queue stays paused while the
// node's own body runs.
//
// All fields are confined to the boot's event loop.
type pluginNode struct {
	boot     *Boot
	id       TaskID
	name     string
	fn       pluginFunc
	settings pluginSettings
	isAfter  bool
	internal bool
	timeout  time.Duration

	parentName string
	queue      *ExecutionQueue[*pluginNode]
	scope      *Scope

	started   bool
	loaded    bool
	err       error
	startTime time.Time

	treeID  int
	tracked bool
}

func (b *Boot) newPluginNode(fn pluginFunc, settings pluginSettings, isAfter bool, timeout time.Duration) *pluginNode {
	name := resolveName(fn.fn, settings.name)
	if fn.kind == PluginLazy && settings.name == "" {
		name = "lazy"
	}
	p := &pluginNode{
		boot:     b,
		id:       GenerateTaskID(),
		name:     name,
		fn:       fn,
		settings: settings,
		isAfter:  isAfter,
		internal: isAfter,
		timeout:  timeout,
	}
	p.queue = NewExecutionQueue[*pluginNode](b.loop, b.loadPlugin)
	p.queue.Pause()
	return p
}

// exec runs the node's body with s and reports the body's own completion to
// cb, at most once.
func (p *pluginNode) exec(s *Scope, cb func(error)) {
	b := p.boot
	p.scope = s

	opts, err := p.resolveOptions(s)
	if err != nil {
		cb(err)
		return
	}

	p.started = true
	p.startTime = time.Now()
	b.pluginStarted(p)

	completed := false
	var stopTimer func()
	done := func(err error) {
		if completed {
			b.logger.Warn("late plugin completion discarded",
				F("boot", b.name), F("plugin", p.name), F("error", err))
			return
		}
		completed = true
		if stopTimer != nil {
			stopTimer()
		}
		p.err = err
		b.pluginExecuted(p, err)
		cb(err)
	}

	if p.timeout > 0 {
		stopTimer = b.loop.PostDelayedTask(func() {
			if completed {
				return
			}
			b.logger.Warn("plugin timed out",
				F("boot", b.name), F("plugin", p.name), F("timeout", p.timeout))
			done(&TimeoutError{Name: p.name, Fn: p.fn.fn, Timeout: p.timeout, kind: ErrPluginExecTimeout})
		}, p.timeout)
	}

	p.queue.Pause()
	if p.internal {
		p.fn.call(s, opts, done)
		return
	}
	b.runUser(p.name, func(report func(error)) {
		p.fn.call(s, opts, report)
	}, done)
}

func (p *pluginNode) resolveOptions(s *Scope) (opts any, err error) {
	if p.settings.optsFn == nil {
		return p.settings.opts, nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Name: p.name + " options", Value: rec, Stack: debug.Stack()}
		}
	}()
	return p.settings.optsFn(s), nil
}

// finish marks the node loaded once its body completed and its child queue
// drained. An error skips the wait.
func (p *pluginNode) finish(err error, cb func(error)) {
	b := p.boot
	done := func() {
		if p.loaded {
			return
		}
		p.loaded = true
		b.pluginLoaded(p, err)
		cb(err)
	}

	if err != nil {
		done()
		return
	}

	var check func()
	check = func() {
		if p.loaded {
			return
		}
		if p.queue.Idle() {
			done()
			return
		}
		b.logger.Debug("plugin waiting for children",
			F("boot", b.name), F("plugin", p.name), F("queued", p.queue.Len()))
		p.queue.SetDrain(func() {
			p.queue.SetDrain(nil)
			b.loop.PostTask(check)
		})
	}

	b.loop.PostTask(check)
	p.queue.Resume()
}

func (p *pluginNode) enqueue(child *pluginNode, cb func(error)) {
	p.queue.Push(child, cb)
}

// loadedSoFar settles fut once everything queued on p so far has loaded. The
// barrier pauses p's queue again so the awaiting code can register more
// children before loading moves on.
func (p *pluginNode) loadedSoFar(fut *Future[struct{}]) {
	if p.loaded {
		fut.Resolve(struct{}{})
		return
	}

	b := p.boot
	barrier := internalHandler("afterAsync", KindErrorAndDone, func(err error, _ *Scope, done func(error)) {
		p.queue.Pause()
		done(err)
		// settle after the barrier node left the stack, so registrations
		// made by the awaiting code land on p
		b.loop.PostTask(func() {
			if err != nil {
				fut.Reject(err)
			} else {
				fut.Resolve(struct{}{})
			}
		})
	})
	if err := b.addAfter(barrier); err != nil {
		fut.Reject(err)
		return
	}
	p.queue.Resume()
}
