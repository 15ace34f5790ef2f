package config

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Swind/go-avvio/core"
)

func durationPtr(d time.Duration) *time.Duration { return &d }

func wantFullFile() *File {
	autostart := false
	return &File{
		Name:      "api",
		Autostart: &autostart,
		Timeout:   250 * time.Millisecond,
		Expose:    core.Expose{Use: "register"},
		Log:       LogSettings{Level: "debug", Format: "json"},
		Metrics:   MetricsSettings{Enabled: true, Namespace: "api"},
		Plugins: map[string]PluginSettings{
			"db":     {Timeout: durationPtr(2 * time.Second), Options: map[string]string{"dsn": "postgres://localhost/app"}},
			"cache":  {},
			"worker": {Timeout: durationPtr(0)},
		},
	}
}

// TestLoad_Formats verifies TOML and HCL files decode to the same File
func TestLoad_Formats(t *testing.T) {
	for _, path := range []string{"testdata/boot.toml", "testdata/boot.hcl"} {
		t.Run(path, func(t *testing.T) {
			f, err := Load(path)
			require.NoError(t, err)

			// empty and nil option maps are equivalent
			opt := cmp.Transformer("nilMap", func(m map[string]string) map[string]string {
				if len(m) == 0 {
					return nil
				}
				return m
			})
			if diff := cmp.Diff(wantFullFile(), f, opt); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoad_Minimal(t *testing.T) {
	f, err := Load("testdata/minimal.hcl")
	require.NoError(t, err)
	assert.Equal(t, "minimal", f.Name)
	assert.Nil(t, f.Autostart)
	assert.Zero(t, f.Timeout)
	assert.Empty(t, f.Plugins)
}

func TestLoad_Errors(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"testdata/bad_timeout.toml", "parse timeout"},
		{"testdata/unknown_key.toml", "unknown key"},
		{"testdata/missing.toml", "load boot config"},
		{"testdata/missing.hcl", "failed to parse HCL file"},
		{"testdata/boot.yaml", "unsupported extension"},
	}
	for _, tc := range cases {
		t.Run(tc.path, func(t *testing.T) {
			_, err := Load(tc.path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

// TestFile_BootConfig verifies the decoded file drives a working boot
// Given: the full TOML file with autostart off and a custom use name
// When: building a boot from it and starting it by hand
// Then: the plugin is registered under the configured name with its
// options and timeout, and logs are written as JSON
func TestFile_BootConfig(t *testing.T) {
	// Arrange
	f, err := Load("testdata/boot.toml")
	require.NoError(t, err)

	var logs bytes.Buffer
	reg := prom.NewRegistry()
	cfg, err := f.BootConfig(&logs, reg)
	require.NoError(t, err)
	assert.Equal(t, "api", cfg.Name)
	assert.False(t, cfg.Autostart)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)

	b, err := core.New(cfg)
	require.NoError(t, err)
	t.Cleanup(b.Stop)

	register, ok := core.Value[core.UseFunc](b.Root(), "register")
	require.True(t, ok)

	got := make(chan any, 1)
	require.NoError(t, register(func(_ *core.Scope, opts any) error {
		got <- opts
		return nil
	}, f.PluginOptions("db")...))

	// Act
	ready := b.ReadyAsync()
	b.Start()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = ready.Await(ctx)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dsn": "postgres://localhost/app"}, <-got)
	assert.Contains(t, logs.String(), `"plugin":"db"`)

	families, err := reg.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "api_plugin_duration_seconds")
}

// TestFile_PluginOptions_ZeroTimeout verifies a plugin configured with a zero
// timeout opts out of the boot timeout while unconfigured plugins inherit it
// Given: a 20ms boot timeout and "worker" configured with timeout 0s
// When: worker and an unconfigured plugin each run for 80ms
// Then: worker loads and the unconfigured plugin times out
func TestFile_PluginOptions_ZeroTimeout(t *testing.T) {
	f := &File{
		Name:    "zero",
		Timeout: 20 * time.Millisecond,
		Plugins: map[string]PluginSettings{"worker": {Timeout: durationPtr(0)}},
	}
	cfg, err := f.BootConfig(nil, nil)
	require.NoError(t, err)
	cfg.FatalHandler = core.FatalHandlerFunc(func(string, error) {})

	run := func(t *testing.T, name string) error {
		b, err := core.New(cfg)
		require.NoError(t, err)
		t.Cleanup(b.Stop)

		require.NoError(t, b.Use(func(*core.Scope, any) error {
			time.Sleep(80 * time.Millisecond)
			return nil
		}, f.PluginOptions(name)...))

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = b.Wait(ctx)
		return err
	}

	assert.NoError(t, run(t, "worker"))
	assert.ErrorIs(t, run(t, "other"), core.ErrPluginExecTimeout)
}

func TestFile_PluginOptions_Unknown(t *testing.T) {
	f := &File{}
	assert.Len(t, f.PluginOptions("anything"), 1)
}
