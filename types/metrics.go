package types

// MetricsCollector defines methods for collecting operational metrics.
//
// Host-scoped methods accept a HostAddress parameter for labeling.
// Implementations should be thread-safe as methods may be called concurrently.
//
// Example usage with VictoriaMetrics (via contrib/metrics/vm):
//
//	import vmmetrics "github.com/arloliu/chorus/contrib/metrics/vm"
//
//	collector := vmmetrics.New(vmmetrics.WithPrefix("myapp"))
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithMetrics(collector),
//	)
//
//	// Expose metrics via HTTP
//	http.HandleFunc("/metrics", collector.Handler)
type MetricsCollector interface {
	// ----------------------
	// Health Checks
	// ----------------------

	// IncProbeTotal increments the probe counter for a host.
	IncProbeTotal(host HostAddress)

	// IncProbeError increments the failed probe counter for a host.
	IncProbeError(host HostAddress)

	// ObserveProbeDuration records a probe duration in seconds.
	ObserveProbeDuration(host HostAddress, seconds float64)

	// SetReachableHosts sets the number of hosts found reachable by the last check.
	SetReachableHosts(n int)

	// ----------------------
	// Failover
	// ----------------------

	// IncFailoverTotal increments the counter when the active host changes.
	// from is empty on the first selection.
	IncFailoverTotal(from, to HostAddress)

	// IncClusterUnavailable increments the counter when no host is reachable.
	IncClusterUnavailable()

	// ----------------------
	// Read Operations
	// ----------------------

	// IncReadTotal increments the total read operations counter.
	IncReadTotal(host HostAddress)

	// IncReadError increments the read error counter.
	IncReadError(host HostAddress)

	// ObserveReadDuration records a read operation duration in seconds.
	ObserveReadDuration(host HostAddress, seconds float64)

	// ----------------------
	// Write Operations
	// ----------------------

	// IncWriteTotal increments the total write operations counter.
	IncWriteTotal(host HostAddress)

	// IncWriteError increments the write error counter.
	IncWriteError(host HostAddress)

	// ObserveWriteDuration records a write operation duration in seconds.
	ObserveWriteDuration(host HostAddress, seconds float64)

	// ----------------------
	// Async Write Queue
	// ----------------------

	// SetPendingQueueDepth sets the number of submitted but not executed writes.
	SetPendingQueueDepth(depth int)

	// IncBatchFlushTotal increments the counter of executed async batches.
	IncBatchFlushTotal()

	// IncBatchFileError increments the counter of failed files in batch ingestion.
	IncBatchFileError()

	// ----------------------
	// Partitions
	// ----------------------

	// IncPartitionDropped increments the counter of dropped partitions for a table.
	IncPartitionDropped(table string)

	// ----------------------
	// Host Drain
	// ----------------------

	// SetHostDraining sets the drain status gauge for a host.
	SetHostDraining(host HostAddress, draining bool)

	// IncDrainModeEntered increments the counter when a host enters drain mode.
	IncDrainModeEntered(host HostAddress)

	// IncDrainModeExited increments the counter when a host exits drain mode.
	IncDrainModeExited(host HostAddress)
}
