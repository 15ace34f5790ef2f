package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrPluginNotValid is returned by Use for values that are neither a
	// supported plugin function nor a *Future[any].
	ErrPluginNotValid = errors.New("avvio: plugin must be a function or a future")

	// ErrRootAlreadyBooted is returned when registering a plugin after the
	// root finished loading.
	ErrRootAlreadyBooted = errors.New("avvio: root plugin has already booted")

	// ErrParentPluginLoaded is returned when the active plugin already loaded.
	ErrParentPluginLoaded = errors.New("avvio: parent plugin has already been loaded")

	// ErrCallbackNotFunction is returned for handlers of an unsupported shape.
	ErrCallbackNotFunction = errors.New("avvio: callback is not a function of a supported shape")

	// ErrExposeAlreadyDefined is returned by New when an exposed API name is
	// already a root scope attribute.
	ErrExposeAlreadyDefined = errors.New("avvio: expose name already defined on the server")

	// ErrAttributeAlreadyDefined is returned by New when the reserved "avvio"
	// attribute is already present.
	ErrAttributeAlreadyDefined = errors.New("avvio: attribute already defined on the server")

	// ErrReadyTimeout marks a callback-style after, ready or close handler
	// that did not call done in time.
	ErrReadyTimeout = errors.New("avvio: handler did not complete in time")

	// ErrPluginExecTimeout marks a plugin that did not complete in time.
	ErrPluginExecTimeout = errors.New("avvio: plugin did not start in time")

	// ErrBootClosed is returned by registration calls after the boot closed.
	ErrBootClosed = errors.New("avvio: boot is closed")
)

// TimeoutError reports a plugin or handler that exceeded its time budget.
// It matches ErrPluginExecTimeout or ErrReadyTimeout with errors.Is.
type TimeoutError struct {
	Name    string
	Fn      any
	Timeout time.Duration

	kind error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %q after %s. You may have forgotten to call done or to settle a future",
		e.kind.Error(), e.Name, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return e.kind
}

// PanicError carries a panic recovered from a plugin or handler.
type PanicError struct {
	Name  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("avvio: %s panicked: %v", e.Name, e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

func failureReason(err error) string {
	var panicErr *PanicError
	switch {
	case errors.Is(err, ErrPluginExecTimeout), errors.Is(err, ErrReadyTimeout):
		return "timeout"
	case errors.As(err, &panicErr):
		return "panic"
	default:
		return "error"
	}
}
