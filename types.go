package avvio

import (
	"context"

	"github.com/Swind/go-avvio/core"
)

// Re-export commonly used types from core package for convenience.
// This allows users to import only the avvio package for most use cases.

// Boot loads a plugin tree in order and tears it down in reverse
type Boot = core.Boot

// BootConfig holds configuration options for a Boot
type BootConfig = core.BootConfig

// Scope is the context a plugin runs with
type Scope = core.Scope

// DoneFunc completes a callback-style plugin or handler
type DoneFunc = core.DoneFunc

// Plugin shapes accepted by Use
type (
	SyncPlugin     = core.SyncPlugin
	CallbackPlugin = core.CallbackPlugin
	FuturePlugin   = core.FuturePlugin
)

// PluginOption configures a single Use registration
type PluginOption = core.PluginOption

// OverrideFunc derives the scope a plugin runs with
type OverrideFunc = core.OverrideFunc

// PluginInfo describes the plugin an OverrideFunc is called for
type PluginInfo = core.PluginInfo

// Expose names the root scope attributes the API is bound to
type Expose = core.Expose

// Future is a single-assignment result
type Future[T any] = core.Future[T]

// State and Event describe the boot lifecycle
type (
	State = core.State
	Event = core.Event
)

// Logger, Metrics and FatalHandler are the pluggable ambient interfaces
type (
	Logger       = core.Logger
	Metrics      = core.Metrics
	FatalHandler = core.FatalHandler
)

// Plain text logging
type Level = core.Level

const (
	LevelDebug = core.LevelDebug
	LevelInfo  = core.LevelInfo
	LevelWarn  = core.LevelWarn
	LevelError = core.LevelError
)

var NewDefaultLogger = core.NewDefaultLogger

// Errors
type (
	TimeoutError = core.TimeoutError
	PanicError   = core.PanicError
)

var (
	ErrPluginNotValid          = core.ErrPluginNotValid
	ErrRootAlreadyBooted       = core.ErrRootAlreadyBooted
	ErrParentPluginLoaded      = core.ErrParentPluginLoaded
	ErrCallbackNotFunction     = core.ErrCallbackNotFunction
	ErrExposeAlreadyDefined    = core.ErrExposeAlreadyDefined
	ErrAttributeAlreadyDefined = core.ErrAttributeAlreadyDefined
	ErrReadyTimeout            = core.ErrReadyTimeout
	ErrPluginExecTimeout       = core.ErrPluginExecTimeout
	ErrBootClosed              = core.ErrBootClosed
)

// Lifecycle constants
const (
	StateNotStarted = core.StateNotStarted
	StateStarting   = core.StateStarting
	StateBooted     = core.StateBooted
	StateReady      = core.StateReady
	StateClosing    = core.StateClosing
	StateClosed     = core.StateClosed

	EventPreReady = core.EventPreReady
	EventStart    = core.EventStart
	EventClose    = core.EventClose
)

// Plugin options and overrides
var (
	WithName          = core.WithName
	WithOptions       = core.WithOptions
	WithOptionsFunc   = core.WithOptionsFunc
	WithTimeout       = core.WithTimeout
	WithSkipOverride  = core.WithSkipOverride
	IdentityOverride  = core.IdentityOverride
	Encapsulate       = core.Encapsulate
	DefaultBootConfig = core.DefaultBootConfig
)

// New creates a Boot from cfg; nil means DefaultBootConfig().
func New(cfg *BootConfig) (*Boot, error) {
	return core.New(cfg)
}

// Lazy defers loading a plugin until it is its turn.
func Lazy(load func() (any, error)) *Future[any] {
	return core.Lazy(load)
}

// Async runs fn on its own goroutine and settles the returned future with
// its result. It is the usual body of a FuturePlugin.
func Async(fn func() error) *Future[struct{}] {
	return core.Async(fn)
}

// Run boots a plugin tree with the default config: it registers plugins in
// order, waits for ready and returns the boot. The caller closes it.
func Run(ctx context.Context, plugins ...any) (*Boot, error) {
	b, err := core.New(nil)
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		if err := b.Use(p); err != nil {
			b.Stop()
			return nil, err
		}
	}
	if _, err := b.Wait(ctx); err != nil {
		b.Stop()
		return nil, err
	}
	return b, nil
}
