// Package metrics provides internal metrics utilities for chorus.
package metrics

import "github.com/arloliu/chorus/types"

// NopMetrics is a no-op metrics collector that discards all metrics.
//
// This is used as the default metrics collector when no collector is configured,
// avoiding nil checks throughout the codebase.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements types.MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNopMetrics creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A collector that discards all metrics
func NewNopMetrics() *NopMetrics {
	return &NopMetrics{}
}

// OrNop returns m, or a NopMetrics when m is nil.
func OrNop(m types.MetricsCollector) types.MetricsCollector {
	if m == nil {
		return NewNopMetrics()
	}

	return m
}

// ----------------------
// Health Checks
// ----------------------

// IncProbeTotal discards the metric.
func (m *NopMetrics) IncProbeTotal(_ types.HostAddress) {}

// IncProbeError discards the metric.
func (m *NopMetrics) IncProbeError(_ types.HostAddress) {}

// ObserveProbeDuration discards the metric.
func (m *NopMetrics) ObserveProbeDuration(_ types.HostAddress, _ float64) {}

// SetReachableHosts discards the metric.
func (m *NopMetrics) SetReachableHosts(_ int) {}

// ----------------------
// Failover
// ----------------------

// IncFailoverTotal discards the metric.
func (m *NopMetrics) IncFailoverTotal(_, _ types.HostAddress) {}

// IncClusterUnavailable discards the metric.
func (m *NopMetrics) IncClusterUnavailable() {}

// ----------------------
// Read Operations
// ----------------------

// IncReadTotal discards the metric.
func (m *NopMetrics) IncReadTotal(_ types.HostAddress) {}

// IncReadError discards the metric.
func (m *NopMetrics) IncReadError(_ types.HostAddress) {}

// ObserveReadDuration discards the metric.
func (m *NopMetrics) ObserveReadDuration(_ types.HostAddress, _ float64) {}

// ----------------------
// Write Operations
// ----------------------

// IncWriteTotal discards the metric.
func (m *NopMetrics) IncWriteTotal(_ types.HostAddress) {}

// IncWriteError discards the metric.
func (m *NopMetrics) IncWriteError(_ types.HostAddress) {}

// ObserveWriteDuration discards the metric.
func (m *NopMetrics) ObserveWriteDuration(_ types.HostAddress, _ float64) {}

// ----------------------
// Async Write Queue
// ----------------------

// SetPendingQueueDepth discards the metric.
func (m *NopMetrics) SetPendingQueueDepth(_ int) {}

// IncBatchFlushTotal discards the metric.
func (m *NopMetrics) IncBatchFlushTotal() {}

// IncBatchFileError discards the metric.
func (m *NopMetrics) IncBatchFileError() {}

// ----------------------
// Partitions
// ----------------------

// IncPartitionDropped discards the metric.
func (m *NopMetrics) IncPartitionDropped(_ string) {}

// ----------------------
// Host Drain
// ----------------------

// SetHostDraining discards the metric.
func (m *NopMetrics) SetHostDraining(_ types.HostAddress, _ bool) {}

// IncDrainModeEntered discards the metric.
func (m *NopMetrics) IncDrainModeEntered(_ types.HostAddress) {}

// IncDrainModeExited discards the metric.
func (m *NopMetrics) IncDrainModeExited(_ types.HostAddress) {}
