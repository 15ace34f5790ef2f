package core

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScope_ReadThrough verifies reads fall through to ancestors while
// writes stay local
func TestScope_ReadThrough(t *testing.T) {
	root := newScope("root", nil, nil)
	root.Set("shared", "root-value")
	child := root.Child("child")
	child.Set("own", 1)

	v, ok := child.Get("shared")
	require.True(t, ok)
	assert.Equal(t, "root-value", v)

	assert.True(t, child.Has("shared"))
	assert.False(t, child.HasOwn("shared"))
	assert.False(t, root.Has("own"))
	assert.Same(t, root, child.Parent())
	assert.Equal(t, "child", child.Name())

	// shadowing
	child.Set("shared", "child-value")
	v, _ = child.Get("shared")
	assert.Equal(t, "child-value", v)
	v, _ = root.Get("shared")
	assert.Equal(t, "root-value", v)

	keys := child.Keys()
	sort.Strings(keys)
	assert.Equal(t, []string{"own", "shared"}, keys)
}

func TestScope_Value(t *testing.T) {
	s := newScope("root", nil, nil)
	s.Set("port", 8080)

	port, ok := Value[int](s, "port")
	assert.True(t, ok)
	assert.Equal(t, 8080, port)

	_, ok = Value[string](s, "port")
	assert.False(t, ok)

	_, ok = Value[int](s, "missing")
	assert.False(t, ok)
}

// TestScope_ReadyReceivesOwnScope verifies ready handlers registered through
// a plugin scope get that scope
func TestScope_ReadyReceivesOwnScope(t *testing.T) {
	b, _ := newTestBoot(t, func(c *BootConfig) { c.Override = Encapsulate })
	pluginScope := make(chan *Scope, 1)
	readyScope := make(chan *Scope, 1)

	require.NoError(t, b.Use(func(s *Scope, _ any) error {
		pluginScope <- s
		return s.Ready(func(err error, s *Scope, done DoneFunc) {
			readyScope <- s
			done(err)
		})
	}, WithName("web")))

	_, err := waitReady(t, b)
	require.NoError(t, err)

	ps := <-pluginScope
	assert.Equal(t, "web", ps.Name())
	assert.Same(t, ps, <-readyScope)
	assert.Same(t, b, ps.Boot())
}
