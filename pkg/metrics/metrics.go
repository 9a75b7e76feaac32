// Package metrics provides Prometheus instrumentation for strata stores.
//
// # Overview
//
// A Collector owns its own registry, so several stores (or tests) can
// record side by side without colliding in the default registry:
//   - Rows appended and rows skipped during ingestion
//   - Null values per column
//   - Distinct values per dictionary column
//   - Store memory and bytes per record
//   - Ingest latency and throughput
//
// # Basic Usage
//
//	collector := metrics.NewCollector("strata")
//	collector.RowsAppended("events", 1000)
//
//	timer := metrics.NewTimer("ingest")
//	load(file)
//	collector.ObserveIngest("events", timer.Stop(), rows)
//
//	http.Handle("/metrics", collector.Handler())
//
// # Metric Types
//
// Counter: rows appended, rows skipped, null values
// Gauge: distinct values, store bytes, throughput, process memory
// Histogram: ingest latency
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ajitpratap0/strata/pkg/columnar"
)

// Collector records store and ingest metrics on a private registry.
// Safe for concurrent use.
type Collector struct {
	registry       *prometheus.Registry
	rowsAppended   *prometheus.CounterVec   // Rows accepted by a store
	rowsSkipped    *prometheus.CounterVec   // Rows dropped as invalid
	nullValues     *prometheus.CounterVec   // Null cells per column
	distinctValues *prometheus.GaugeVec     // Distinct values per column
	storeBytes     *prometheus.GaugeVec     // Estimated store memory
	bytesPerRecord *prometheus.GaugeVec     // Store memory divided by rows
	ingestLatency  *prometheus.HistogramVec // Duration of whole loads
	throughput     *prometheus.GaugeVec     // Rows per second of the last load
	residentBytes  prometheus.Gauge         // Process resident set size
	startTime      time.Time
}

// NewCollector creates a collector whose metric names start with namespace.
//
// Example:
//
//	collector := metrics.NewCollector("strata")
//	collector.ObserveStore("events", store.Stats())
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		rowsAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_appended_total",
				Help:      "Total number of rows appended to a store",
			},
			[]string{"store"},
		),
		rowsSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rows_skipped_total",
				Help:      "Total number of input rows skipped as invalid",
			},
			[]string{"store"},
		),
		nullValues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "null_values_total",
				Help:      "Total number of null values appended",
			},
			[]string{"store", "column"},
		),
		distinctValues: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "distinct_values",
				Help:      "Distinct values held by a column",
			},
			[]string{"store", "column", "encoding"},
		),
		storeBytes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_memory_bytes",
				Help:      "Estimated memory held by a store in bytes",
			},
			[]string{"store"},
		),
		bytesPerRecord: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "store_bytes_per_record",
				Help:      "Estimated store memory per row in bytes",
			},
			[]string{"store"},
		),
		ingestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ingest_duration_seconds",
				Help:      "Duration of a complete load in seconds",
				Buckets: []float64{
					0.001, // 1ms - Tiny files
					0.01,  // 10ms
					0.1,   // 100ms
					1,     // 1s - Typical files
					10,    // 10s
					60,    // 1m - Large files
					600,   // 10m
				},
			},
			[]string{"store"},
		),
		throughput: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ingest_rows_per_second",
				Help:      "Rows per second of the most recent load",
			},
			[]string{"store"},
		),
		residentBytes: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "process_resident_bytes",
				Help:      "Resident set size of the process after the last load",
			},
		),
		startTime: time.Now(),
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler returns an HTTP handler exposing the collector's metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// StartTime returns when the collector was created
func (c *Collector) StartTime() time.Time { return c.startTime }

// RowsAppended adds n appended rows for store.
func (c *Collector) RowsAppended(store string, n int) {
	c.rowsAppended.WithLabelValues(store).Add(float64(n))
}

// RowsSkipped adds n skipped rows for store.
func (c *Collector) RowsSkipped(store string, n int) {
	c.rowsSkipped.WithLabelValues(store).Add(float64(n))
}

// NullValues adds n null cells for a column.
func (c *Collector) NullValues(store, column string, n int) {
	c.nullValues.WithLabelValues(store, column).Add(float64(n))
}

// ObserveStore sets the memory and cardinality gauges from stats.
func (c *Collector) ObserveStore(store string, stats columnar.StoreStats) {
	c.storeBytes.WithLabelValues(store).Set(float64(stats.MemoryBytes))
	c.bytesPerRecord.WithLabelValues(store).Set(stats.BytesPerRecord)
	for _, col := range stats.Columns {
		c.distinctValues.WithLabelValues(store, col.Name, col.Encoding).Set(float64(col.Distinct))
	}
}

// ObserveIngest records the duration of a load of rows rows and the
// resulting throughput.
func (c *Collector) ObserveIngest(store string, d time.Duration, rows int) {
	c.ingestLatency.WithLabelValues(store).Observe(d.Seconds())
	if d > 0 {
		c.throughput.WithLabelValues(store).Set(float64(rows) / d.Seconds())
	}
}

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs or metrics.
//
// Example:
//
//	timer := metrics.NewTimer("ingest")
//	loadFile(path)
//	duration := timer.Stop()
//	logger.Info("file loaded", zap.Duration("duration", duration))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Name returns the timer name.
func (t *Timer) Name() string { return t.name }

// Stop returns the elapsed duration since creation. The timer can be stopped
// multiple times, each returning the total elapsed time since creation.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}

// ThroughputTracker tracks rows per second over time windows for one store.
// Thread-safe for concurrent use.
type ThroughputTracker struct {
	mu        sync.Mutex
	count     int64     // Rows processed since last reset
	lastReset time.Time // Time of last reset
	store     string
	collector *Collector
}

// NewThroughputTracker creates a tracker that reports to collector under
// the store label. A nil collector only computes the rate.
func NewThroughputTracker(collector *Collector, store string) *ThroughputTracker {
	return &ThroughputTracker{
		lastReset: time.Now(),
		store:     store,
		collector: collector,
	}
}

// Increment adds n to the row count. Safe for concurrent use.
func (t *ThroughputTracker) Increment(n int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.count += n
}

// GetAndReset calculates the current throughput (rows/second), updates the
// throughput gauge, resets the counter, and returns the calculated value.
func (t *ThroughputTracker) GetAndReset() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	elapsed := time.Since(t.lastReset).Seconds()
	if elapsed == 0 {
		return 0
	}

	throughput := float64(t.count) / elapsed

	// Reset for next period
	t.count = 0
	t.lastReset = time.Now()

	if t.collector != nil {
		t.collector.throughput.WithLabelValues(t.store).Set(throughput)
	}

	return throughput
}

// Snapshot returns the current value of every collector metric as a flat
// map keyed by metric name and labels. Intended for logs and tests.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "," + lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key+",count"] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out, nil
}
