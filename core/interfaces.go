package core

import (
	"fmt"
	"time"
)

// =============================================================================
// FatalHandler: Interface for errors nobody consumed
// =============================================================================

// FatalHandler is called when the root finishes loading with an error in the
// error slot and no ready handler is queued to receive it.
//
// It is called on its own goroutine, so a panic inside it is not recovered by
// the scheduler.
type FatalHandler interface {
	HandleFatal(bootName string, err error)
}

// FatalHandlerFunc adapts a function to FatalHandler.
type FatalHandlerFunc func(bootName string, err error)

// HandleFatal calls f.
func (f FatalHandlerFunc) HandleFatal(bootName string, err error) {
	f(bootName, err)
}

// DefaultFatalHandler re-raises the error as a panic, terminating the process.
type DefaultFatalHandler struct{}

// HandleFatal panics with err.
func (h *DefaultFatalHandler) HandleFatal(bootName string, err error) {
	panic(fmt.Errorf("[Boot %s] unhandled boot error: %w", bootName, err))
}

// =============================================================================
// Metrics: Interface for observability and monitoring
// =============================================================================

// Metrics defines the interface for collecting boot metrics.
// Implementations can send metrics to monitoring systems (see observability/prometheus).
//
// Methods are called from the boot's event loop and should be non-blocking.
type Metrics interface {
	// RecordPluginDuration records how long a plugin or after handler took,
	// from start until its own body completed.
	//
	// Parameters:
	// - bootName: The name of the boot
	// - kind: "plugin" or "after"
	// - duration: Execution time
	RecordPluginDuration(bootName string, kind string, duration time.Duration)

	// RecordPluginFailure records a plugin or handler that failed.
	//
	// Parameters:
	// - bootName: The name of the boot
	// - plugin: The resolved plugin name
	// - reason: "error", "timeout" or "panic"
	RecordPluginFailure(bootName string, plugin string, reason string)

	// RecordQueueDepth records the number of waiting entries of a queue.
	//
	// Parameters:
	// - bootName: The name of the boot
	// - queue: "ready" or "close"
	// - depth: The current number of queued entries
	RecordQueueDepth(bootName string, queue string, depth int)

	// RecordRegistrationRejected records a registration call that failed
	// synchronously.
	//
	// Parameters:
	// - bootName: The name of the boot
	// - reason: Why the registration was rejected
	RecordRegistrationRejected(bootName string, reason string)
}

// NilMetrics provides a no-op metrics implementation that does nothing.
// This is the default when no metrics interface is provided.
type NilMetrics struct{}

// RecordPluginDuration is a no-op.
func (m *NilMetrics) RecordPluginDuration(bootName string, kind string, duration time.Duration) {
}

// RecordPluginFailure is a no-op.
func (m *NilMetrics) RecordPluginFailure(bootName string, plugin string, reason string) {
}

// RecordQueueDepth is a no-op.
func (m *NilMetrics) RecordQueueDepth(bootName string, queue string, depth int) {
}

// RecordRegistrationRejected is a no-op.
func (m *NilMetrics) RecordRegistrationRejected(bootName string, reason string) {
}
