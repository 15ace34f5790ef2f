package core

import (
	"context"
	"sync"
)

// UseFunc is the signature of the "use" attribute bound on the root scope.
type UseFunc func(fn any, opts ...PluginOption) error

// RegisterFunc is the signature of the "after", "ready", "onClose" and
// "close" attributes bound on the root scope.
type RegisterFunc func(handler any) error

// Scope is the context a plugin runs with. Reads fall through to the parent
// chain; writes stay local. It also carries the registration API so plugins
// can register children, barriers and teardown.
//
// Scope is safe for concurrent use.
type Scope struct {
	name   string
	parent *Scope
	boot   *Boot

	mu     sync.RWMutex
	values map[string]any
}

func newScope(name string, parent *Scope, boot *Boot) *Scope {
	return &Scope{
		name:   name,
		parent: parent,
		boot:   boot,
		values: make(map[string]any),
	}
}

// Name returns the scope name.
func (s *Scope) Name() string {
	return s.name
}

// Parent returns the enclosing scope, nil for the root.
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Boot returns the boot the scope belongs to.
func (s *Scope) Boot() *Boot {
	return s.boot
}

// Child derives a scope whose reads fall through to s.
func (s *Scope) Child(name string) *Scope {
	return newScope(name, s, s.boot)
}

// Get looks key up in s and then in its ancestors.
func (s *Scope) Get(key string) (any, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		cur.mu.RLock()
		v, ok := cur.values[key]
		cur.mu.RUnlock()
		if ok {
			return v, true
		}
	}
	return nil, false
}

// Set stores key in s only.
func (s *Scope) Set(key string, value any) {
	s.mu.Lock()
	s.values[key] = value
	s.mu.Unlock()
}

// Has reports whether key is visible from s.
func (s *Scope) Has(key string) bool {
	_, ok := s.Get(key)
	return ok
}

// HasOwn reports whether key is set on s itself.
func (s *Scope) HasOwn(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.values[key]
	return ok
}

// Keys returns the keys set on s itself.
func (s *Scope) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Value is a typed Get. ok is false when the key is missing or holds
// another type.
func Value[T any](s *Scope, key string) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// Use registers a plugin as a child of the plugin currently loading.
func (s *Scope) Use(fn any, opts ...PluginOption) error {
	return s.boot.Use(fn, opts...)
}

// After registers a barrier at the current level.
func (s *Scope) After(h any) error {
	return s.boot.After(h)
}

// AfterAsync resolves once everything registered so far at the current
// level has loaded.
func (s *Scope) AfterAsync() *Future[struct{}] {
	return s.boot.AfterAsync()
}

// Ready registers a ready handler that receives s as its scope.
func (s *Scope) Ready(h any) error {
	return s.boot.ready(h, s)
}

// OnClose registers a teardown handler that receives s as its scope.
func (s *Scope) OnClose(h any) error {
	return s.boot.onClose(h, s)
}

// Close closes the boot the scope belongs to.
func (s *Scope) Close(h any) error {
	return s.boot.Close(h)
}

// Wait blocks until the boot is ready.
func (s *Scope) Wait(ctx context.Context) (*Scope, error) {
	return s.boot.Wait(ctx)
}
