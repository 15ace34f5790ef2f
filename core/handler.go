package core

import (
	"fmt"
)

// DoneFunc signals completion of a callback-style plugin or handler.
type DoneFunc func(err error)

// SyncPlugin completes when it returns.
type SyncPlugin func(s *Scope, opts any) error

// CallbackPlugin completes when it calls done.
type CallbackPlugin func(s *Scope, opts any, done DoneFunc)

// FuturePlugin completes when the returned future settles. A nil future
// counts as resolved.
type FuturePlugin func(s *Scope, opts any) *Future[struct{}]

// PluginKind is the calling convention of a plugin function.
type PluginKind int

const (
	PluginSync PluginKind = iota
	PluginCallback
	PluginFuture
	PluginLazy
)

func (k PluginKind) String() string {
	switch k {
	case PluginSync:
		return "sync"
	case PluginCallback:
		return "callback"
	case PluginFuture:
		return "future"
	case PluginLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// pluginFunc is a plugin normalized to the callback convention.
type pluginFunc struct {
	kind PluginKind
	fn   any
	lazy *Future[any]
	call func(s *Scope, opts any, done func(error))
}

func newPluginFunc(fn any) (pluginFunc, error) {
	var call func(*Scope, any, func(error))

	switch f := fn.(type) {
	case SyncPlugin:
		call = syncPluginCall(f)
	case func(*Scope, any) error:
		call = syncPluginCall(f)
	case CallbackPlugin:
		call = func(s *Scope, opts any, done func(error)) { f(s, opts, done) }
	case func(*Scope, any, DoneFunc):
		call = func(s *Scope, opts any, done func(error)) { f(s, opts, done) }
	case func(*Scope, any, func(error)):
		call = f
	case FuturePlugin:
		call = futurePluginCall(f)
	case func(*Scope, any) *Future[struct{}]:
		call = futurePluginCall(f)
	case *Future[any]:
		if f == nil {
			return pluginFunc{}, fmt.Errorf("%w: got nil future", ErrPluginNotValid)
		}
		return pluginFunc{kind: PluginLazy, fn: fn, lazy: f}, nil
	default:
		return pluginFunc{}, fmt.Errorf("%w: got %T", ErrPluginNotValid, fn)
	}

	return pluginFunc{kind: kindOfPlugin(fn), fn: fn, call: call}, nil
}

func kindOfPlugin(fn any) PluginKind {
	switch fn.(type) {
	case CallbackPlugin, func(*Scope, any, DoneFunc), func(*Scope, any, func(error)):
		return PluginCallback
	case FuturePlugin, func(*Scope, any) *Future[struct{}]:
		return PluginFuture
	default:
		return PluginSync
	}
}

func syncPluginCall(f func(*Scope, any) error) func(*Scope, any, func(error)) {
	return func(s *Scope, opts any, done func(error)) {
		done(f(s, opts))
	}
}

func futurePluginCall(f func(*Scope, any) *Future[struct{}]) func(*Scope, any, func(error)) {
	return func(s *Scope, opts any, done func(error)) {
		done(f(s, opts).wait())
	}
}

// HandlerKind is the calling convention of an after, ready, close or onClose
// handler. It is fixed at registration time.
type HandlerKind int

const (
	// KindNoArg takes nothing; the error slot is left in place.
	KindNoArg HandlerKind = iota
	// KindErrorOnly receives the error and returns the error to keep.
	KindErrorOnly
	// KindErrorAndDone receives the error and a done callback.
	KindErrorAndDone
	// KindErrorContextDone receives the error, the scope and a done callback.
	KindErrorContextDone
	// KindFutureReturning receives the error and returns a future.
	KindFutureReturning
	// KindScope is an onClose handler receiving the scope.
	KindScope
	// KindScopeDone is an onClose handler receiving the scope and done.
	KindScopeDone
	// KindScopeFuture is an onClose handler returning a future.
	KindScopeFuture
)

func (k HandlerKind) String() string {
	switch k {
	case KindNoArg:
		return "no-arg"
	case KindErrorOnly:
		return "error-only"
	case KindErrorAndDone:
		return "error-and-done"
	case KindErrorContextDone:
		return "error-context-done"
	case KindFutureReturning:
		return "future-returning"
	case KindScope:
		return "scope"
	case KindScopeDone:
		return "scope-done"
	case KindScopeFuture:
		return "scope-future"
	default:
		return "unknown"
	}
}

// consumesError reports whether the handler takes the error slot over.
func (k HandlerKind) consumesError() bool {
	return k != KindNoArg
}

// callback reports whether completion depends on the handler calling done.
func (k HandlerKind) callback() bool {
	return k == KindErrorAndDone || k == KindErrorContextDone || k == KindScopeDone
}

// handler is a registered after/ready/close/onClose function with its kind.
// call takes the incoming error and delivers the resulting error to done.
type handler struct {
	kind     HandlerKind
	fn       any
	name     string
	internal bool
	call     func(err error, s *Scope, done func(error))
}

// newHandler accepts the after, ready and close shapes.
func newHandler(fn any) (*handler, error) {
	h := &handler{fn: fn}

	switch f := fn.(type) {
	case func():
		h.kind = KindNoArg
		h.call = func(_ error, _ *Scope, done func(error)) {
			f()
			done(nil)
		}
	case func() error:
		h.kind = KindNoArg
		h.call = func(_ error, _ *Scope, done func(error)) { done(f()) }
	case func(error) error:
		h.kind = KindErrorOnly
		h.call = func(err error, _ *Scope, done func(error)) { done(f(err)) }
	case func(error, DoneFunc):
		h.kind = KindErrorAndDone
		h.call = func(err error, _ *Scope, done func(error)) { f(err, done) }
	case func(error, func(error)):
		h.kind = KindErrorAndDone
		h.call = func(err error, _ *Scope, done func(error)) { f(err, done) }
	case func(error, *Scope, DoneFunc):
		h.kind = KindErrorContextDone
		h.call = func(err error, s *Scope, done func(error)) { f(err, s, done) }
	case func(error, *Scope, func(error)):
		h.kind = KindErrorContextDone
		h.call = f
	case func(error) *Future[struct{}]:
		h.kind = KindFutureReturning
		h.call = func(err error, _ *Scope, done func(error)) { done(f(err).wait()) }
	default:
		return nil, fmt.Errorf("%w: got %T", ErrCallbackNotFunction, fn)
	}

	h.name = resolveName(fn, "")
	return h, nil
}

// newCloseHandler accepts the onClose shapes.
func newCloseHandler(fn any) (*handler, error) {
	h := &handler{fn: fn}

	switch f := fn.(type) {
	case func(*Scope) error:
		h.kind = KindScope
		h.call = func(_ error, s *Scope, done func(error)) { done(f(s)) }
	case func(*Scope, DoneFunc):
		h.kind = KindScopeDone
		h.call = func(_ error, s *Scope, done func(error)) { f(s, done) }
	case func(*Scope, func(error)):
		h.kind = KindScopeDone
		h.call = func(_ error, s *Scope, done func(error)) { f(s, done) }
	case func(*Scope) *Future[struct{}]:
		h.kind = KindScopeFuture
		h.call = func(_ error, s *Scope, done func(error)) { done(f(s).wait()) }
	default:
		return nil, fmt.Errorf("%w: got %T", ErrCallbackNotFunction, fn)
	}

	h.name = resolveName(fn, "")
	return h, nil
}

// internalHandler wraps scheduler-owned logic. It runs inline on the loop.
func internalHandler(name string, kind HandlerKind, call func(err error, s *Scope, done func(error))) *handler {
	return &handler{kind: kind, name: name, internal: true, call: call}
}
