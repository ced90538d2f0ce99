// Package metrics exposes Prometheus metrics for schema discovery.
//
// # Overview
//
// Every connector owns a Collector labelled with its backend kind. The
// collector records:
//   - connect/list/describe/close outcomes and their latency
//   - retries of failed listing/describe calls
//   - the number of open connection pools
//
// The schema manager records batch lookups and registry size directly
// through the package-level vectors.
//
// # Basic Usage
//
//	collector := metrics.NewCollector("postgresql")
//	start := time.Now()
//	tables, err := listTables(ctx)
//	collector.RecordOperation("get_tables", start, err)
//
// Metrics are registered with the default Prometheus registry through
// promauto on package init.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "seaschema"

// Status label values
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

var (
	// ConnectorOperations counts connector operations.
	// Labels: kind, operation (connect/get_tables/get_columns/close), status
	ConnectorOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connector",
			Name:      "operations_total",
			Help:      "Total number of connector operations",
		},
		[]string{"kind", "operation", "status"},
	)

	// ConnectorLatency tracks connector operation latency in seconds,
	// including retry backoff.
	ConnectorLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "connector",
			Name:      "operation_duration_seconds",
			Help:      "Connector operation latency in seconds",
			Buckets: []float64{
				0.001, // 1ms - cached catalog reads
				0.01,  // 10ms
				0.1,   // 100ms - typical catalog query
				0.5,
				1,
				2.5, // first retry backoff
				7,   // second retry backoff
				15,  // exhausted retries
				60,  // default lookup deadline
			},
		},
		[]string{"kind", "operation"},
	)

	// ConnectorRetries counts retried listing/describe attempts
	ConnectorRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "connector",
			Name:      "retries_total",
			Help:      "Total number of retried connector calls",
		},
		[]string{"kind", "operation"},
	)

	// ActivePools tracks connected pools per kind
	ActivePools = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "connector",
			Name:      "active_pools",
			Help:      "Number of open connection pools",
		},
		[]string{"kind"},
	)

	// RegisteredConnectors counts connectors registered across all schema
	// managers in the process
	RegisteredConnectors = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "registered_connectors",
			Help:      "Number of connectors registered with the schema manager",
		},
	)

	// TableLookups counts per-table results of batch lookups.
	// Labels: status (found/empty/failed)
	TableLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "table_lookups_total",
			Help:      "Total number of table schema lookups by outcome",
		},
		[]string{"status"},
	)

	// BatchSize tracks the number of distinct tables per batch lookup
	BatchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "manager",
			Name:      "batch_tables",
			Help:      "Distinct tables requested per batch lookup",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
)

// Collector records metrics for one connector kind.
type Collector struct {
	kind       string
	operations *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	retries    *prometheus.CounterVec
	pools      *prometheus.GaugeVec
}

// NewCollector creates a collector labelled with the given backend kind.
//
// Example:
//
//	collector := metrics.NewCollector("mysql")
//	collector.RecordRetry("get_columns")
func NewCollector(kind string) *Collector {
	return &Collector{
		kind:       kind,
		operations: ConnectorOperations,
		latency:    ConnectorLatency,
		retries:    ConnectorRetries,
		pools:      ActivePools,
	}
}

// Kind returns the label value the collector reports under
func (c *Collector) Kind() string {
	return c.kind
}

// RecordOperation counts an operation and observes its latency since start
func (c *Collector) RecordOperation(operation string, start time.Time, err error) {
	c.operations.WithLabelValues(c.kind, operation, Status(err)).Inc()
	c.latency.WithLabelValues(c.kind, operation).Observe(time.Since(start).Seconds())
}

// RecordRetry counts one retry of the operation
func (c *Collector) RecordRetry(operation string) {
	c.retries.WithLabelValues(c.kind, operation).Inc()
}

// SetActiveConnectors adjusts the open pool gauge by delta
func (c *Collector) SetActiveConnectors(delta int) {
	c.pools.WithLabelValues(c.kind).Add(float64(delta))
}

// Status maps an error to a status label value
func Status(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
