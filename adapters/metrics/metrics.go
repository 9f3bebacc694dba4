// Package metrics provides Prometheus metrics collection for lowcode.
//
// The CLI is short-lived, so nothing is served over HTTP: the registry is
// written to a node_exporter textfile when a command finishes.
package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for lowcode.
type Collector struct {
	gatherer prometheus.Gatherer

	// Schema builder metrics
	DDLTotal    *prometheus.CounterVec
	DDLDuration *prometheus.HistogramVec

	// Generator metrics
	GeneratedTotal *prometheus.CounterVec

	// Validator metrics
	ValidationFailures *prometheus.CounterVec

	// Schema metrics
	CollectionsLoaded prometheus.Gauge

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
	ConfigLastReload   prometheus.Gauge
}

// New creates a collector on its own registry.
func New() *Collector {
	return NewWithRegistry(prometheus.NewRegistry())
}

// NewWithRegistry creates a collector registered with reg. WriteTextfile
// gathers from reg when it is also a Gatherer.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	c := &Collector{
		DDLTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Name:      "ddl_total",
				Help:      "Total number of schema builder operations",
			},
			[]string{"op", "result"},
		),
		DDLDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lowcode",
				Name:      "ddl_duration_seconds",
				Help:      "Schema builder operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op"},
		),
		GeneratedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Name:      "generated_total",
				Help:      "Total number of generated artifacts",
			},
			[]string{"kind"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Name:      "validation_failures_total",
				Help:      "Total number of failed validation rules",
			},
			[]string{"rule"},
		),
		CollectionsLoaded: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lowcode",
				Name:      "collections_loaded",
				Help:      "Number of collections loaded from definitions",
			},
		),
		ConfigReloads: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: "lowcode",
				Name:      "config_reload_errors_total",
				Help:      "Total number of config reload errors",
			},
		),
		ConfigLastReload: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lowcode",
				Name:      "config_last_reload_timestamp",
				Help:      "Unix timestamp of last successful config reload",
			},
		),
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	}
	return c
}

// ObserveDDL records one schema builder operation.
func (c *Collector) ObserveDDL(op string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.DDLTotal.WithLabelValues(op, result).Inc()
	c.DDLDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveGenerated records one generated artifact.
func (c *Collector) ObserveGenerated(kind string) {
	c.GeneratedTotal.WithLabelValues(kind).Inc()
}

// ObserveValidationFailure records one failed rule. Only the rule name is
// used as label, so "max:120" and "max:5" share a series.
func (c *Collector) ObserveValidationFailure(rule string) {
	c.ValidationFailures.WithLabelValues(RuleName(rule)).Inc()
}

// ObserveConfigReload records a config reload attempt.
func (c *Collector) ObserveConfigReload(err error) {
	if err != nil {
		c.ConfigReloadErrors.Inc()
		return
	}
	c.ConfigReloads.Inc()
	c.ConfigLastReload.SetToCurrentTime()
}

// WriteTextfile writes every gathered metric to path in the text
// exposition format, atomically.
func (c *Collector) WriteTextfile(path string) error {
	if c.gatherer == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, c.gatherer)
}

// RuleName strips the parameter from a rule, e.g. "max:120" -> "max".
func RuleName(rule string) string {
	name, _, _ := strings.Cut(rule, ":")
	return name
}
