package vm

import (
	"fmt"
	"io"
	"net/http"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"

	"github.com/arloliu/chorus/types"
)

// Option configures a Collector.
type Option func(*Collector)

// WithPrefix sets the metric name prefix.
//
// Default: "chorus"
//
// Parameters:
//   - prefix: The prefix to use for all metric names
//
// Returns:
//   - Option: A configuration option
func WithPrefix(prefix string) Option {
	return func(c *Collector) {
		c.prefix = prefix
	}
}

// WithMetricsSet sets the metrics set to use.
//
// If provided, the collector will register metrics with this set instead of
// creating a new one. The caller is responsible for exposing this set
// (e.g., via metrics.WritePrometheus or a custom handler).
//
// Parameters:
//   - set: The metrics set to use
//
// Returns:
//   - Option: A configuration option
func WithMetricsSet(set *metrics.Set) Option {
	return func(c *Collector) {
		c.set = set
	}
}

// Collector implements types.MetricsCollector using VictoriaMetrics.
//
// Cluster-wide metrics are pre-created at initialization time. Host-labelled
// metrics are created on first use, since replicas are only known at runtime.
// Thread-safe for concurrent use.
type Collector struct {
	set    *metrics.Set
	prefix string

	// Health check metrics
	reachableHosts atomic.Int64

	// Failover metrics
	clusterUnavailable *metrics.Counter

	// Async queue metrics
	pendingQueueDepth atomic.Int64
	batchFlushTotal   *metrics.Counter
	batchFileErrors   *metrics.Counter
}

var _ types.MetricsCollector = (*Collector)(nil)

// New creates a new VictoriaMetrics-based metrics collector.
//
// The collector creates its own metrics.Set and registers it globally.
//
// Parameters:
//   - opts: Configuration options (e.g., WithPrefix)
//
// Returns:
//   - *Collector: A new metrics collector ready for use
//
// Example:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithMetrics(collector),
//	)
func New(opts ...Option) *Collector {
	c := &Collector{
		prefix: "chorus",
	}

	for _, opt := range opts {
		opt(c)
	}

	// If no set is provided, create a new one and register it globally.
	// If a set is provided, we assume the caller manages it.
	if c.set == nil {
		c.set = metrics.NewSet()
		metrics.RegisterSet(c.set)
	}

	c.initMetrics()

	return c
}

// initMetrics pre-creates the cluster-wide metrics with the configured prefix.
func (c *Collector) initMetrics() {
	p := c.prefix

	c.set.NewGauge(p+"_reachable_hosts", func() float64 {
		return float64(c.reachableHosts.Load())
	})

	c.clusterUnavailable = c.set.NewCounter(p + "_cluster_unavailable_total")

	c.set.NewGauge(p+"_pending_queue_depth", func() float64 {
		return float64(c.pendingQueueDepth.Load())
	})
	c.batchFlushTotal = c.set.NewCounter(p + "_batch_flush_total")
	c.batchFileErrors = c.set.NewCounter(p + "_batch_file_errors_total")
}

func (c *Collector) Set() *metrics.Set {
	return c.set
}

// Handler returns an HTTP handler that exposes metrics in Prometheus format.
//
// Example:
//
//	http.HandleFunc("/metrics", collector.Handler)
func (c *Collector) Handler(w http.ResponseWriter, _ *http.Request) {
	c.set.WritePrometheus(w)
}

// WritePrometheus writes all metrics in Prometheus format to the given writer.
//
// Parameters:
//   - w: The writer to write metrics to
func (c *Collector) WritePrometheus(w io.Writer) {
	c.set.WritePrometheus(w)
}

func (c *Collector) hostName(metric string, host types.HostAddress) string {
	return fmt.Sprintf(`%s_%s{host=%q}`, c.prefix, metric, host)
}

// ----------------------
// Health Checks
// ----------------------

// IncProbeTotal increments the probe counter for a host.
func (c *Collector) IncProbeTotal(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("probe_total", host)).Inc()
}

// IncProbeError increments the failed probe counter for a host.
func (c *Collector) IncProbeError(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("probe_errors_total", host)).Inc()
}

// ObserveProbeDuration records a probe duration in seconds.
func (c *Collector) ObserveProbeDuration(host types.HostAddress, seconds float64) {
	c.set.GetOrCreateHistogram(c.hostName("probe_duration_seconds", host)).Update(seconds)
}

// SetReachableHosts sets the number of hosts found reachable by the last check.
func (c *Collector) SetReachableHosts(n int) {
	c.reachableHosts.Store(int64(n))
}

// ----------------------
// Failover
// ----------------------

// IncFailoverTotal increments the active host change counter.
func (c *Collector) IncFailoverTotal(from, to types.HostAddress) {
	name := fmt.Sprintf(`%s_failover_total{from=%q,to=%q}`, c.prefix, from, to)
	c.set.GetOrCreateCounter(name).Inc()
}

// IncClusterUnavailable increments the counter when no host is reachable.
func (c *Collector) IncClusterUnavailable() {
	c.clusterUnavailable.Inc()
}

// ----------------------
// Read Operations
// ----------------------

// IncReadTotal increments the total read operations counter.
func (c *Collector) IncReadTotal(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("read_total", host)).Inc()
}

// IncReadError increments the read error counter.
func (c *Collector) IncReadError(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("read_errors_total", host)).Inc()
}

// ObserveReadDuration records a read operation duration in seconds.
func (c *Collector) ObserveReadDuration(host types.HostAddress, seconds float64) {
	c.set.GetOrCreateHistogram(c.hostName("read_duration_seconds", host)).Update(seconds)
}

// ----------------------
// Write Operations
// ----------------------

// IncWriteTotal increments the total write operations counter.
func (c *Collector) IncWriteTotal(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("write_total", host)).Inc()
}

// IncWriteError increments the write error counter.
func (c *Collector) IncWriteError(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("write_errors_total", host)).Inc()
}

// ObserveWriteDuration records a write operation duration in seconds.
func (c *Collector) ObserveWriteDuration(host types.HostAddress, seconds float64) {
	c.set.GetOrCreateHistogram(c.hostName("write_duration_seconds", host)).Update(seconds)
}

// ----------------------
// Async Write Queue
// ----------------------

// SetPendingQueueDepth sets the number of submitted but not executed writes.
func (c *Collector) SetPendingQueueDepth(depth int) {
	c.pendingQueueDepth.Store(int64(depth))
}

// IncBatchFlushTotal increments the counter of executed async batches.
func (c *Collector) IncBatchFlushTotal() {
	c.batchFlushTotal.Inc()
}

// IncBatchFileError increments the counter of failed files in batch ingestion.
func (c *Collector) IncBatchFileError() {
	c.batchFileErrors.Inc()
}

// ----------------------
// Partitions
// ----------------------

// IncPartitionDropped increments the counter of dropped partitions for a table.
func (c *Collector) IncPartitionDropped(table string) {
	name := fmt.Sprintf(`%s_partitions_dropped_total{table=%q}`, c.prefix, table)
	c.set.GetOrCreateCounter(name).Inc()
}

// ----------------------
// Host Drain
// ----------------------

// SetHostDraining sets the drain status gauge for a host.
func (c *Collector) SetHostDraining(host types.HostAddress, draining bool) {
	val := 0.0
	if draining {
		val = 1
	}
	c.set.GetOrCreateGauge(c.hostName("host_draining", host), nil).Set(val)
}

// IncDrainModeEntered increments the counter when a host enters drain mode.
func (c *Collector) IncDrainModeEntered(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("drain_mode_entered_total", host)).Inc()
}

// IncDrainModeExited increments the counter when a host exits drain mode.
func (c *Collector) IncDrainModeExited(host types.HostAddress) {
	c.set.GetOrCreateCounter(c.hostName("drain_mode_exited_total", host)).Inc()
}
