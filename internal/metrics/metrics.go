package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Run holds the summary of one export for the node_exporter textfile
// collector.
type Run struct {
	registry *prometheus.Registry

	Interfaces  *prometheus.GaugeVec
	Skipped     *prometheus.GaugeVec
	Duration    prometheus.Gauge
	LastSuccess prometheus.Gauge
}

// NewRun registers the export metrics on a private registry.
func NewRun(variant string) (*Run, error) {
	reg := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"variant": variant}

	r := &Run{
		registry: reg,
		Interfaces: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "ifexport_interfaces",
			Help:        "Interfaces written to the last export, by export type.",
			ConstLabels: constLabels,
		}, []string{"type"}),
		Skipped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "ifexport_skipped_interfaces",
			Help:        "Interfaces left out of the last export, by reason.",
			ConstLabels: constLabels,
		}, []string{"reason"}),
		Duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ifexport_run_duration_seconds",
			Help:        "Wall time of the last export run.",
			ConstLabels: constLabels,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "ifexport_last_success_timestamp_seconds",
			Help:        "Unix time of the last successful export.",
			ConstLabels: constLabels,
		}),
	}
	for name, c := range map[string]prometheus.Collector{
		"ifexport_interfaces":                     r.Interfaces,
		"ifexport_skipped_interfaces":             r.Skipped,
		"ifexport_run_duration_seconds":           r.Duration,
		"ifexport_last_success_timestamp_seconds": r.LastSuccess,
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return r, nil
}

// Observe records one exported interface of the given type.
func (r *Run) Observe(exportType string) {
	r.Interfaces.WithLabelValues(exportType).Inc()
}

// Skip records an interface that produced no row.
func (r *Run) Skip(reason string) {
	r.Skipped.WithLabelValues(reason).Inc()
}

// Succeed stamps the run as successful.
func (r *Run) Succeed(start, now time.Time) {
	r.Duration.Set(now.Sub(start).Seconds())
	r.LastSuccess.Set(float64(now.Unix()))
}

// Gatherer exposes the registry.
func (r *Run) Gatherer() prometheus.Gatherer { return r.registry }

// WriteTextfile writes the metrics in text format for node_exporter.
func (r *Run) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
