package core

import (
	"time"
)

// Expose names the root scope attributes the registration API is bound to.
// Empty fields fall back to the defaults.
type Expose struct {
	Use     string
	After   string
	Ready   string
	OnClose string
	Close   string
}

// DefaultExpose returns the default attribute names.
func DefaultExpose() Expose {
	return Expose{
		Use:     "use",
		After:   "after",
		Ready:   "ready",
		OnClose: "onClose",
		Close:   "close",
	}
}

func (e Expose) withDefaults() Expose {
	d := DefaultExpose()
	if e.Use == "" {
		e.Use = d.Use
	}
	if e.After == "" {
		e.After = d.After
	}
	if e.Ready == "" {
		e.Ready = d.Ready
	}
	if e.OnClose == "" {
		e.OnClose = d.OnClose
	}
	if e.Close == "" {
		e.Close = d.Close
	}
	return e
}

// reservedAttribute is the root scope attribute holding the *Boot.
const reservedAttribute = "avvio"

// =============================================================================
// BootConfig: Configuration for Boot
// =============================================================================

// BootConfig holds configuration options for a Boot.
// Start from DefaultBootConfig(); nil handlers fall back to their defaults.
type BootConfig struct {
	// Name identifies the boot in logs and metrics. Defaults to "avvio".
	Name string

	// Autostart makes Ready, ReadyAsync, Wait, Close and CloseAsync begin
	// loading. When false, loading begins only with Start().
	Autostart bool

	// Timeout bounds every plugin and callback-style handler. Zero disables it.
	Timeout time.Duration

	// Expose names the API attributes set on the root scope.
	Expose Expose

	// Server seeds the root scope attributes.
	Server map[string]any

	// Override derives the scope each plugin runs with. Defaults to IdentityOverride.
	Override OverrideFunc

	// Logger defaults to NoOpLogger.
	Logger Logger

	// Metrics defaults to NilMetrics.
	Metrics Metrics

	// FatalHandler receives errors nobody consumed. Defaults to DefaultFatalHandler.
	FatalHandler FatalHandler

	// HistoryCapacity is the number of PluginRecords kept. Defaults to 100.
	HistoryCapacity int
}

// DefaultBootConfig returns a config with autostart enabled and default handlers.
func DefaultBootConfig() *BootConfig {
	return &BootConfig{
		Name:            "avvio",
		Autostart:       true,
		Expose:          DefaultExpose(),
		Override:        IdentityOverride,
		Logger:          NewNoOpLogger(),
		Metrics:         &NilMetrics{},
		FatalHandler:    &DefaultFatalHandler{},
		HistoryCapacity: defaultHistoryCapacity,
	}
}

func (c BootConfig) withDefaults() BootConfig {
	if c.Name == "" {
		c.Name = "avvio"
	}
	c.Expose = c.Expose.withDefaults()
	if c.Override == nil {
		c.Override = IdentityOverride
	}
	if c.Logger == nil {
		c.Logger = NewNoOpLogger()
	}
	if c.Metrics == nil {
		c.Metrics = &NilMetrics{}
	}
	if c.FatalHandler == nil {
		c.FatalHandler = &DefaultFatalHandler{}
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = defaultHistoryCapacity
	}
	return c
}

// =============================================================================
// Plugin options
// =============================================================================

type pluginSettings struct {
	name         string
	opts         any
	optsFn       func(*Scope) any
	timeout      time.Duration
	hasTimeout   bool
	skipOverride bool
}

// PluginOption configures a single Use registration.
type PluginOption func(*pluginSettings)

// WithName sets the plugin name used in logs, errors and the load tree.
func WithName(name string) PluginOption {
	return func(s *pluginSettings) { s.name = name }
}

// WithOptions passes opts to the plugin function.
func WithOptions(opts any) PluginOption {
	return func(s *pluginSettings) {
		s.opts = opts
		s.optsFn = nil
	}
}

// WithOptionsFunc computes the plugin options from the plugin's scope just
// before it runs.
func WithOptionsFunc(fn func(*Scope) any) PluginOption {
	return func(s *pluginSettings) {
		s.optsFn = fn
		s.opts = nil
	}
}

// WithTimeout overrides the timeout this plugin would otherwise inherit.
// Zero disables it.
func WithTimeout(d time.Duration) PluginOption {
	return func(s *pluginSettings) {
		s.timeout = d
		s.hasTimeout = true
	}
}

// WithSkipOverride asks Encapsulate to run the plugin in its parent's scope.
func WithSkipOverride() PluginOption {
	return func(s *pluginSettings) { s.skipOverride = true }
}

// =============================================================================
// Encapsulation
// =============================================================================

// PluginInfo describes the plugin an OverrideFunc is deriving a scope for.
type PluginInfo struct {
	Name         string
	Fn           any
	SkipOverride bool
}

// OverrideFunc derives the scope a plugin runs with from its parent's scope.
// It runs on the boot's event loop right before the plugin, once per plugin.
type OverrideFunc func(parent *Scope, plugin PluginInfo, opts any) (*Scope, error)

// IdentityOverride runs every plugin in its parent's scope.
func IdentityOverride(parent *Scope, _ PluginInfo, _ any) (*Scope, error) {
	return parent, nil
}

// Encapsulate gives every plugin its own child scope unless it was
// registered WithSkipOverride. Values set in a child are invisible to the
// parent and siblings; values of the parent stay readable.
func Encapsulate(parent *Scope, plugin PluginInfo, _ any) (*Scope, error) {
	if plugin.SkipOverride {
		return parent, nil
	}
	return parent.Child(plugin.Name), nil
}

// =============================================================================
// Lifecycle
// =============================================================================

// State is the lifecycle phase of a Boot.
type State int32

const (
	StateNotStarted State = iota
	StateStarting
	StateBooted
	StateReady
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateStarting:
		return "starting"
	case StateBooted:
		return "booted"
	case StateReady:
		return "ready"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Event names a lifecycle notification. Each event fires at most once.
type Event string

const (
	// EventPreReady fires when the root plugin finished loading.
	EventPreReady Event = "preReady"
	// EventStart fires when the ready queue drained.
	EventStart Event = "start"
	// EventClose fires when the close queue drained.
	EventClose Event = "close"
)
