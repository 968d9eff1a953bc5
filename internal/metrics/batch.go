// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records batch extraction counters in a private Prometheus
// registry. A run writes them once, at the end, in the node-exporter text
// file format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pdiddy/kiga-extract/pkg/types"
)

const namespace = "kiga"

// BatchMetrics tracks one extraction run. A nil *BatchMetrics is valid and
// records nothing.
type BatchMetrics struct {
	registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	fileDuration  *prometheus.HistogramVec
	filesInFlight prometheus.Gauge
	recordsTotal  *prometheus.CounterVec
	failuresTotal *prometheus.CounterVec
}

// NewBatchMetrics registers the batch collectors for extraction type typ.
func NewBatchMetrics(typ string) *BatchMetrics {
	registry := prometheus.NewRegistry()
	labels := prometheus.Labels{"type": typ}

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "batch",
			Name:        "files_total",
			Help:        "Workbook files processed by outcome.",
			ConstLabels: labels,
		},
		[]string{"status"},
	)
	fileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "batch",
			Name:        "file_duration_seconds",
			Help:        "Time spent extracting one workbook file.",
			Buckets:     []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			ConstLabels: labels,
		},
		[]string{"status"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "batch",
			Name:        "files_in_flight",
			Help:        "Workbook files currently being extracted.",
			ConstLabels: labels,
		},
	)
	recordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "batch",
			Name:        "records_total",
			Help:        "Records assembled, by sheet section.",
			ConstLabels: labels,
		},
		[]string{"section"},
	)
	failuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "batch",
			Name:        "failures_total",
			Help:        "Failure manifest entries by stage.",
			ConstLabels: labels,
		},
		[]string{"stage"},
	)

	registry.MustRegister(filesTotal, fileDuration, filesInFlight, recordsTotal, failuresTotal)

	return &BatchMetrics{
		registry:      registry,
		filesTotal:    filesTotal,
		fileDuration:  fileDuration,
		filesInFlight: filesInFlight,
		recordsTotal:  recordsTotal,
		failuresTotal: failuresTotal,
	}
}

// Registry exposes the underlying registry.
func (m *BatchMetrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// StartFile marks a file as in flight.
func (m *BatchMetrics) StartFile() {
	if m == nil {
		return
	}
	m.filesInFlight.Inc()
}

// FinishFile records a file outcome. A file is "failed" when a fatal stage
// stopped it.
func (m *BatchMetrics) FinishFile(duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	m.filesInFlight.Dec()

	status := "success"
	if failed {
		status = "failed"
	}
	m.filesTotal.WithLabelValues(status).Inc()
	m.fileDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// AddRecords counts n records assembled from section.
func (m *BatchMetrics) AddRecords(section string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.recordsTotal.WithLabelValues(section).Add(float64(n))
}

// ObserveFailures counts failure entries by stage.
func (m *BatchMetrics) ObserveFailures(failures []types.FailureEntry) {
	if m == nil {
		return
	}
	for _, f := range failures {
		m.failuresTotal.WithLabelValues(string(f.Stage)).Inc()
	}
}

// WriteTextfile writes every collected metric to path.
func (m *BatchMetrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	return nil
}
