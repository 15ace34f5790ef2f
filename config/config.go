// Package config loads boot settings from TOML or HCL files.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/Swind/go-avvio/core"
	"github.com/Swind/go-avvio/observability/logadapter"
	"github.com/Swind/go-avvio/observability/prometheus"
)

// File is a decoded boot configuration file.
type File struct {
	Name      string
	Autostart *bool
	Timeout   time.Duration
	Expose    core.Expose
	Log       LogSettings
	Metrics   MetricsSettings
	Plugins   map[string]PluginSettings
}

// LogSettings selects the logger built by BootConfig.
type LogSettings struct {
	Level  string
	Format string
}

// MetricsSettings controls the Prometheus exporter built by BootConfig.
type MetricsSettings struct {
	Enabled   bool
	Namespace string
}

// PluginSettings carries per-plugin overrides keyed by plugin name. A nil
// Timeout inherits the parent's; a zero Timeout disables it.
type PluginSettings struct {
	Timeout *time.Duration
	Options map[string]string
}

type exposeSection struct {
	Use     string `toml:"use" hcl:"use,optional"`
	After   string `toml:"after" hcl:"after,optional"`
	Ready   string `toml:"ready" hcl:"ready,optional"`
	OnClose string `toml:"on_close" hcl:"on_close,optional"`
	Close   string `toml:"close" hcl:"close,optional"`
}

type logSection struct {
	Level  string `toml:"level" hcl:"level,optional"`
	Format string `toml:"format" hcl:"format,optional"`
}

type metricsSection struct {
	Enabled   bool   `toml:"enabled" hcl:"enabled,optional"`
	Namespace string `toml:"namespace" hcl:"namespace,optional"`
}

type pluginSection struct {
	Name    string            `toml:"name" hcl:"name,label"`
	Timeout string            `toml:"timeout" hcl:"timeout,optional"`
	Options map[string]string `toml:"options" hcl:"options,optional"`
}

type tomlFile struct {
	Name      string          `toml:"name"`
	Autostart *bool           `toml:"autostart"`
	Timeout   string          `toml:"timeout"`
	Expose    *exposeSection  `toml:"expose"`
	Log       *logSection     `toml:"log"`
	Metrics   *metricsSection `toml:"metrics"`
	Plugins   []pluginSection `toml:"plugin"`
}

type hclFile struct {
	Name      string          `hcl:"name,optional"`
	Autostart cty.Value       `hcl:"autostart,optional"`
	Timeout   string          `hcl:"timeout,optional"`
	Expose    *exposeSection  `hcl:"expose,block"`
	Log       *logSection     `hcl:"log,block"`
	Metrics   *metricsSection `hcl:"metrics,block"`
	Plugins   []pluginSection `hcl:"plugin,block"`
}

// Load decodes path by extension: .toml, or .hcl.
func Load(path string) (*File, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return loadTOML(path)
	case ".hcl":
		return loadHCL(path)
	default:
		return nil, fmt.Errorf("load boot config %s: unsupported extension", path)
	}
}

func loadTOML(path string) (*File, error) {
	var raw tomlFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load boot config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("load boot config %s: unknown key %q", path, undecoded[0].String())
	}
	return build(raw.Name, raw.Autostart, raw.Timeout, raw.Expose, raw.Log, raw.Metrics, raw.Plugins)
}

func loadHCL(path string) (*File, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var raw hclFile
	diags = gohcl.DecodeBody(file.Body, nil, &raw)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	var autostart *bool
	if !raw.Autostart.IsNull() {
		var v bool
		if err := gocty.FromCtyValue(raw.Autostart, &v); err != nil {
			return nil, fmt.Errorf("parse autostart: %w", err)
		}
		autostart = &v
	}
	return build(raw.Name, autostart, raw.Timeout, raw.Expose, raw.Log, raw.Metrics, raw.Plugins)
}

func build(name string, autostart *bool, timeout string, ex *exposeSection, log *logSection, metrics *metricsSection, plugins []pluginSection) (*File, error) {
	f := &File{
		Name:      strings.TrimSpace(name),
		Autostart: autostart,
		Plugins:   make(map[string]PluginSettings, len(plugins)),
	}

	d, err := parseDuration("timeout", timeout)
	if err != nil {
		return nil, err
	}
	f.Timeout = d

	if ex != nil {
		f.Expose = core.Expose{Use: ex.Use, After: ex.After, Ready: ex.Ready, OnClose: ex.OnClose, Close: ex.Close}
	}
	if log != nil {
		f.Log = LogSettings{Level: log.Level, Format: log.Format}
	}
	if metrics != nil {
		f.Metrics = MetricsSettings{Enabled: metrics.Enabled, Namespace: metrics.Namespace}
	}

	for _, p := range plugins {
		pname := strings.TrimSpace(p.Name)
		if pname == "" {
			return nil, fmt.Errorf("plugin entry without a name")
		}
		if _, dup := f.Plugins[pname]; dup {
			return nil, fmt.Errorf("plugin %q configured twice", pname)
		}
		settings := PluginSettings{Options: p.Options}
		if strings.TrimSpace(p.Timeout) != "" {
			d, err := parseDuration("plugin "+pname+" timeout", p.Timeout)
			if err != nil {
				return nil, err
			}
			settings.Timeout = &d
		}
		f.Plugins[pname] = settings
	}
	return f, nil
}

func parseDuration(field, v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("parse %s: negative duration %s", field, v)
	}
	return d, nil
}

// BootConfig applies f onto core.DefaultBootConfig(). Logs go to logOut
// (stderr when nil). A Prometheus exporter is attached when metrics are
// enabled and reg is not nil.
func (f *File) BootConfig(logOut io.Writer, reg prom.Registerer) (*core.BootConfig, error) {
	cfg := core.DefaultBootConfig()
	if f.Name != "" {
		cfg.Name = f.Name
	}
	if f.Autostart != nil {
		cfg.Autostart = *f.Autostart
	}
	cfg.Timeout = f.Timeout
	cfg.Expose = f.Expose

	if f.Log.Format != "" || f.Log.Level != "" {
		if logOut == nil {
			logOut = os.Stderr
		}
		logger, err := logadapter.New(f.Log.Format, f.Log.Level, logOut)
		if err != nil {
			return nil, err
		}
		cfg.Logger = logger
	}

	if f.Metrics.Enabled && reg != nil {
		exporter, err := prometheus.NewMetricsExporter(f.Metrics.Namespace, reg, prometheus.ExporterOptions{})
		if err != nil {
			return nil, fmt.Errorf("create metrics exporter: %w", err)
		}
		cfg.Metrics = exporter
	}
	return cfg, nil
}

// PluginOptions returns the Use options configured for name: its name, and
// its timeout and options when set.
func (f *File) PluginOptions(name string) []core.PluginOption {
	opts := []core.PluginOption{core.WithName(name)}
	p, ok := f.Plugins[name]
	if !ok {
		return opts
	}
	if p.Timeout != nil {
		opts = append(opts, core.WithTimeout(*p.Timeout))
	}
	if len(p.Options) > 0 {
		opts = append(opts, core.WithOptions(p.Options))
	}
	return opts
}
