package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/Swind/go-avvio/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	pluginDurationSeconds *prom.HistogramVec
	pluginFailureTotal    *prom.CounterVec
	registrationRejected  *prom.CounterVec
	queueDepth            *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "avvio"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "plugin_duration_seconds",
		Help:      "Plugin and after handler execution duration in seconds.",
		Buckets:   buckets,
	}, []string{"boot", "kind"})
	failureVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "plugin_failure_total",
		Help:      "Total number of failed plugins by reason.",
	}, []string{"boot", "reason"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "registration_rejected_total",
		Help:      "Total number of rejected registrations.",
	}, []string{"boot", "reason"})
	queueDepthVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current ready and close queue depth.",
	}, []string{"boot", "queue"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if failureVec, err = registerCollector(reg, failureVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if queueDepthVec, err = registerCollector(reg, queueDepthVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		pluginDurationSeconds: durationVec,
		pluginFailureTotal:    failureVec,
		registrationRejected:  rejectedVec,
		queueDepth:            queueDepthVec,
	}, nil
}

// RecordPluginDuration records plugin execution duration.
func (m *MetricsExporter) RecordPluginDuration(bootName string, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.pluginDurationSeconds.WithLabelValues(normalizeLabel(bootName, "unknown"), normalizeLabel(kind, "plugin")).Observe(duration.Seconds())
}

// RecordPluginFailure records a failed plugin. Plugin names are left out of
// the labels to keep cardinality bounded.
func (m *MetricsExporter) RecordPluginFailure(bootName string, plugin string, reason string) {
	if m == nil {
		return
	}
	m.pluginFailureTotal.WithLabelValues(normalizeLabel(bootName, "unknown"), normalizeLabel(reason, "error")).Inc()
}

// RecordQueueDepth records queue depth.
func (m *MetricsExporter) RecordQueueDepth(bootName string, queue string, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(normalizeLabel(bootName, "unknown"), normalizeLabel(queue, "unknown")).Set(float64(depth))
}

// RecordRegistrationRejected records registration rejections.
func (m *MetricsExporter) RecordRegistrationRejected(bootName string, reason string) {
	if m == nil {
		return
	}
	m.registrationRejected.WithLabelValues(normalizeLabel(bootName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
