package prometheus

import (
	"context"
	"sync"
	"time"

	"github.com/Swind/go-avvio/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// BootSnapshotProvider provides current boot stats snapshots.
type BootSnapshotProvider interface {
	Stats() core.BootStats
}

// SnapshotPoller periodically exports boot Stats() snapshots into Prometheus gauges.
type SnapshotPoller struct {
	interval time.Duration

	bootsMu sync.RWMutex
	boots   map[string]BootSnapshotProvider

	bootState      *prom.GaugeVec
	bootRegistered *prom.GaugeVec
	bootLoaded     *prom.GaugeVec
	bootFailed     *prom.GaugeVec
	bootSkipped    *prom.GaugeVec
	bootDepth      *prom.GaugeVec
	bootPending    *prom.GaugeVec
	bootErrored    *prom.GaugeVec

	stateMu sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSnapshotPoller creates a snapshot poller and registers its collectors.
func NewSnapshotPoller(reg prom.Registerer, interval time.Duration) (*SnapshotPoller, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	if interval <= 0 {
		interval = time.Second
	}

	bootState := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_state",
		Help:      "Boot lifecycle state (1 for the current state, 0 otherwise).",
	}, []string{"boot", "state"})
	bootRegistered := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_plugins_registered",
		Help:      "Registered plugin count snapshot.",
	}, []string{"boot"})
	bootLoaded := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_plugins_loaded",
		Help:      "Loaded plugin count snapshot.",
	}, []string{"boot"})
	bootFailed := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_plugins_failed",
		Help:      "Failed plugin count snapshot.",
	}, []string{"boot"})
	bootSkipped := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_plugins_skipped",
		Help:      "Plugins skipped because of a pending error.",
	}, []string{"boot"})
	bootDepth := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_load_depth",
		Help:      "Number of plugins currently on the load stack.",
	}, []string{"boot"})
	bootPending := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_handlers_pending",
		Help:      "Handlers waiting in the ready and close queues.",
	}, []string{"boot", "queue"})
	bootErrored := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: "avvio",
		Name:      "boot_errored",
		Help:      "Pending error state (1=errored, 0=clean).",
	}, []string{"boot"})

	var err error
	if bootState, err = registerCollector(reg, bootState); err != nil {
		return nil, err
	}
	if bootRegistered, err = registerCollector(reg, bootRegistered); err != nil {
		return nil, err
	}
	if bootLoaded, err = registerCollector(reg, bootLoaded); err != nil {
		return nil, err
	}
	if bootFailed, err = registerCollector(reg, bootFailed); err != nil {
		return nil, err
	}
	if bootSkipped, err = registerCollector(reg, bootSkipped); err != nil {
		return nil, err
	}
	if bootDepth, err = registerCollector(reg, bootDepth); err != nil {
		return nil, err
	}
	if bootPending, err = registerCollector(reg, bootPending); err != nil {
		return nil, err
	}
	if bootErrored, err = registerCollector(reg, bootErrored); err != nil {
		return nil, err
	}

	return &SnapshotPoller{
		interval:       interval,
		boots:          make(map[string]BootSnapshotProvider),
		bootState:      bootState,
		bootRegistered: bootRegistered,
		bootLoaded:     bootLoaded,
		bootFailed:     bootFailed,
		bootSkipped:    bootSkipped,
		bootDepth:      bootDepth,
		bootPending:    bootPending,
		bootErrored:    bootErrored,
	}, nil
}

// AddBoot adds or replaces a boot snapshot provider by name.
func (p *SnapshotPoller) AddBoot(name string, provider BootSnapshotProvider) {
	if p == nil || provider == nil {
		return
	}
	name = normalizeLabel(name, "boot")
	p.bootsMu.Lock()
	p.boots[name] = provider
	p.bootsMu.Unlock()
}

// RemoveBoot stops exporting the named boot.
func (p *SnapshotPoller) RemoveBoot(name string) {
	if p == nil {
		return
	}
	name = normalizeLabel(name, "boot")
	p.bootsMu.Lock()
	delete(p.boots, name)
	p.bootsMu.Unlock()
}

// Start begins periodic polling; repeated calls are no-ops.
func (p *SnapshotPoller) Start(ctx context.Context) {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if p.running {
		p.stateMu.Unlock()
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})
	p.running = true
	p.stateMu.Unlock()

	go p.loop(pollCtx)
}

// Stop stops periodic polling; repeated calls are safe.
func (p *SnapshotPoller) Stop() {
	if p == nil {
		return
	}

	p.stateMu.Lock()
	if !p.running {
		p.stateMu.Unlock()
		return
	}
	cancel := p.cancel
	done := p.done
	p.stateMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}

	p.stateMu.Lock()
	p.running = false
	p.cancel = nil
	p.done = nil
	p.stateMu.Unlock()
}

func (p *SnapshotPoller) loop(ctx context.Context) {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.collectOnce()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.collectOnce()
		}
	}
}

var exportedStates = []core.State{
	core.StateNotStarted,
	core.StateStarting,
	core.StateBooted,
	core.StateReady,
	core.StateClosing,
	core.StateClosed,
}

func (p *SnapshotPoller) collectOnce() {
	p.bootsMu.RLock()
	defer p.bootsMu.RUnlock()

	for name, provider := range p.boots {
		stats := provider.Stats()
		for _, s := range exportedStates {
			p.bootState.WithLabelValues(name, s.String()).Set(boolGauge(stats.State == s))
		}
		p.bootRegistered.WithLabelValues(name).Set(float64(stats.Registered))
		p.bootLoaded.WithLabelValues(name).Set(float64(stats.Loaded))
		p.bootFailed.WithLabelValues(name).Set(float64(stats.Failed))
		p.bootSkipped.WithLabelValues(name).Set(float64(stats.Skipped))
		p.bootDepth.WithLabelValues(name).Set(float64(stats.Depth))
		p.bootPending.WithLabelValues(name, "ready").Set(float64(stats.ReadyPending))
		p.bootPending.WithLabelValues(name, "close").Set(float64(stats.ClosePending))
		p.bootErrored.WithLabelValues(name).Set(boolGauge(stats.Errored))
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}
