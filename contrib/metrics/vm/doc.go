// Package vm provides a VictoriaMetrics-based implementation of the MetricsCollector interface.
//
// This package uses github.com/VictoriaMetrics/metrics for lightweight,
// high-performance Prometheus-compatible metrics collection.
//
// # Basic Usage
//
// Create a collector with default prefix "chorus":
//
//	collector := vm.New()
//	client, _ := chorus.NewClient(transport,
//	    chorus.WithMetrics(collector),
//	)
//
// # Custom Prefix
//
// Use WithPrefix to customize the metric name prefix:
//
//	collector := vm.New(vm.WithPrefix("myapp"))
//
// This produces metrics like:
//   - myapp_write_total{host="10.0.0.1:8123"}
//   - myapp_probe_duration_seconds{host="10.0.0.2:8123"}
//
// # Exposing Metrics
//
// Use the Handler method to expose metrics via HTTP:
//
//	http.HandleFunc("/metrics", collector.Handler)
//	http.ListenAndServe(":8080", nil)
//
// # Metrics Provided
//
// Health checks:
//   - {prefix}_probe_total{host} - Counter of probes
//   - {prefix}_probe_errors_total{host} - Counter of failed probes
//   - {prefix}_probe_duration_seconds{host} - Histogram of probe latencies
//   - {prefix}_reachable_hosts - Gauge of reachable hosts in the last check
//
// Failover:
//   - {prefix}_failover_total{from,to} - Counter of active host changes
//   - {prefix}_cluster_unavailable_total - Counter of checks with no reachable host
//
// Reads and writes:
//   - {prefix}_read_total{host}, {prefix}_read_errors_total{host}, {prefix}_read_duration_seconds{host}
//   - {prefix}_write_total{host}, {prefix}_write_errors_total{host}, {prefix}_write_duration_seconds{host}
//
// Async queue:
//   - {prefix}_pending_queue_depth - Gauge of queued submissions
//   - {prefix}_batch_flush_total - Counter of executed batches
//   - {prefix}_batch_file_errors_total - Counter of failed batch files
//
// Partitions:
//   - {prefix}_partitions_dropped_total{table} - Counter of dropped partitions
//
// Host drain:
//   - {prefix}_host_draining{host} - Gauge (1=draining, 0=serving)
//   - {prefix}_drain_mode_entered_total{host} - Counter of drain entries
//   - {prefix}_drain_mode_exited_total{host} - Counter of drain exits
//
// # Performance Notes
//
// Cluster-wide metrics are pre-created with the NewXXX pattern. Host-labelled
// metrics use GetOrCreateXXX because replica addresses are discovered at runtime;
// the lookup is a read-locked map access after the first call.
package vm
