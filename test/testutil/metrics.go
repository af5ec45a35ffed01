package testutil

import (
	"sync"
	"sync/atomic"

	"github.com/arloliu/chorus/types"
)

// TestMetricsCollector is a test implementation of types.MetricsCollector
// that tracks method calls for assertion in tests.
type TestMetricsCollector struct {
	mu sync.RWMutex

	// Health checks
	ProbeTotal     map[types.HostAddress]int64
	ProbeErrors    map[types.HostAddress]int64
	ReachableHosts int

	// Read operations
	ReadTotal    map[types.HostAddress]int64
	ReadErrors   map[types.HostAddress]int64
	ReadDuration map[types.HostAddress][]float64

	// Write operations
	WriteTotal    map[types.HostAddress]int64
	WriteErrors   map[types.HostAddress]int64
	WriteDuration map[types.HostAddress][]float64

	// Failover
	FailoverTotal map[string]int64 // key: "from->to"

	// Async queue
	PendingQueueDepth int
	BatchFileErrors   int64

	// Partitions
	PartitionsDropped map[string]int64

	// Drain mode
	HostDraining     map[types.HostAddress]bool
	DrainModeEntered map[types.HostAddress]int64
	DrainModeExited  map[types.HostAddress]int64

	// Atomic counters for quick access
	totalFailovers      atomic.Int64
	clusterUnavailable  atomic.Int64
	batchFlushes        atomic.Int64
	totalProbeDurations atomic.Int64
}

// Compile-time assertion that TestMetricsCollector implements types.MetricsCollector.
var _ types.MetricsCollector = (*TestMetricsCollector)(nil)

// NewTestMetricsCollector creates a new test metrics collector.
func NewTestMetricsCollector() *TestMetricsCollector {
	m := &TestMetricsCollector{}
	m.reset()

	return m
}

// ----------------------
// Health Checks
// ----------------------

func (m *TestMetricsCollector) IncProbeTotal(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProbeTotal[host]++
}

func (m *TestMetricsCollector) IncProbeError(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProbeErrors[host]++
}

func (m *TestMetricsCollector) ObserveProbeDuration(_ types.HostAddress, _ float64) {
	m.totalProbeDurations.Add(1)
}

func (m *TestMetricsCollector) SetReachableHosts(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReachableHosts = n
}

// ----------------------
// Failover
// ----------------------

func (m *TestMetricsCollector) IncFailoverTotal(from, to types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := string(from) + "->" + string(to)
	m.FailoverTotal[key]++
	m.totalFailovers.Add(1)
}

func (m *TestMetricsCollector) IncClusterUnavailable() {
	m.clusterUnavailable.Add(1)
}

// ----------------------
// Read Operations
// ----------------------

func (m *TestMetricsCollector) IncReadTotal(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadTotal[host]++
}

func (m *TestMetricsCollector) IncReadError(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadErrors[host]++
}

func (m *TestMetricsCollector) ObserveReadDuration(host types.HostAddress, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReadDuration[host] = append(m.ReadDuration[host], seconds)
}

// ----------------------
// Write Operations
// ----------------------

func (m *TestMetricsCollector) IncWriteTotal(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteTotal[host]++
}

func (m *TestMetricsCollector) IncWriteError(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteErrors[host]++
}

func (m *TestMetricsCollector) ObserveWriteDuration(host types.HostAddress, seconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WriteDuration[host] = append(m.WriteDuration[host], seconds)
}

// ----------------------
// Async Write Queue
// ----------------------

func (m *TestMetricsCollector) SetPendingQueueDepth(depth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PendingQueueDepth = depth
}

func (m *TestMetricsCollector) IncBatchFlushTotal() {
	m.batchFlushes.Add(1)
}

func (m *TestMetricsCollector) IncBatchFileError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.BatchFileErrors++
}

// ----------------------
// Partitions
// ----------------------

func (m *TestMetricsCollector) IncPartitionDropped(table string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PartitionsDropped[table]++
}

// ----------------------
// Host Drain
// ----------------------

func (m *TestMetricsCollector) SetHostDraining(host types.HostAddress, draining bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HostDraining[host] = draining
}

func (m *TestMetricsCollector) IncDrainModeEntered(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DrainModeEntered[host]++
}

func (m *TestMetricsCollector) IncDrainModeExited(host types.HostAddress) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DrainModeExited[host]++
}

// ----------------------
// Test Helpers
// ----------------------

// GetTotalFailovers returns the total failover count across all host pairs.
func (m *TestMetricsCollector) GetTotalFailovers() int64 {
	return m.totalFailovers.Load()
}

// GetFailoverCount returns the failover count from one host to another.
func (m *TestMetricsCollector) GetFailoverCount(from, to types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := string(from) + "->" + string(to)
	return m.FailoverTotal[key]
}

// GetClusterUnavailable returns how often no host was reachable.
func (m *TestMetricsCollector) GetClusterUnavailable() int64 {
	return m.clusterUnavailable.Load()
}

// GetBatchFlushes returns the number of executed async batches.
func (m *TestMetricsCollector) GetBatchFlushes() int64 {
	return m.batchFlushes.Load()
}

// GetProbeTotal returns the probe count for a host.
func (m *TestMetricsCollector) GetProbeTotal(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ProbeTotal[host]
}

// GetWriteTotal returns the total write count for a host.
func (m *TestMetricsCollector) GetWriteTotal(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.WriteTotal[host]
}

// GetWriteErrors returns the total write error count for a host.
func (m *TestMetricsCollector) GetWriteErrors(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.WriteErrors[host]
}

// GetReadErrors returns the total read error count for a host.
func (m *TestMetricsCollector) GetReadErrors(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ReadErrors[host]
}

// GetPartitionsDropped returns the number of partitions dropped for a table.
func (m *TestMetricsCollector) GetPartitionsDropped(table string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PartitionsDropped[table]
}

// GetDrainModeEntered returns how often host entered drain mode.
func (m *TestMetricsCollector) GetDrainModeEntered(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.DrainModeEntered[host]
}

// GetDrainModeExited returns how often host left drain mode.
func (m *TestMetricsCollector) GetDrainModeExited(host types.HostAddress) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.DrainModeExited[host]
}

// IsHostDraining returns the last drain gauge value for host.
func (m *TestMetricsCollector) IsHostDraining(host types.HostAddress) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.HostDraining[host]
}

// GetPendingQueueDepth returns the last queue depth gauge value.
func (m *TestMetricsCollector) GetPendingQueueDepth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.PendingQueueDepth
}

// Reset clears all collected metrics.
func (m *TestMetricsCollector) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *TestMetricsCollector) reset() {
	m.ProbeTotal = make(map[types.HostAddress]int64)
	m.ProbeErrors = make(map[types.HostAddress]int64)
	m.ReachableHosts = 0
	m.ReadTotal = make(map[types.HostAddress]int64)
	m.ReadErrors = make(map[types.HostAddress]int64)
	m.ReadDuration = make(map[types.HostAddress][]float64)
	m.WriteTotal = make(map[types.HostAddress]int64)
	m.WriteErrors = make(map[types.HostAddress]int64)
	m.WriteDuration = make(map[types.HostAddress][]float64)
	m.FailoverTotal = make(map[string]int64)
	m.PendingQueueDepth = 0
	m.BatchFileErrors = 0
	m.PartitionsDropped = make(map[string]int64)
	m.HostDraining = make(map[types.HostAddress]bool)
	m.DrainModeEntered = make(map[types.HostAddress]int64)
	m.DrainModeExited = make(map[types.HostAddress]int64)

	m.totalFailovers.Store(0)
	m.clusterUnavailable.Store(0)
	m.batchFlushes.Store(0)
	m.totalProbeDurations.Store(0)
}
