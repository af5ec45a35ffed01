package vm

import (
	"bytes"
	"net/http/httptest"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/stretchr/testify/require"
)

func newTestCollector(t *testing.T) *Collector {
	t.Helper()

	return New(WithPrefix("test"), WithMetricsSet(metrics.NewSet()))
}

func render(c *Collector) string {
	var buf bytes.Buffer
	c.WritePrometheus(&buf)

	return buf.String()
}

func TestCollectorHostMetrics(t *testing.T) {
	c := newTestCollector(t)

	c.IncProbeTotal("10.0.0.1:8123")
	c.IncProbeTotal("10.0.0.1:8123")
	c.IncProbeError("10.0.0.2:8123")
	c.ObserveProbeDuration("10.0.0.1:8123", 0.01)
	c.IncWriteTotal("10.0.0.1:8123")
	c.IncWriteError("10.0.0.1:8123")
	c.IncReadTotal("10.0.0.2:8123")
	c.IncFailoverTotal("10.0.0.1:8123", "10.0.0.2:8123")

	out := render(c)
	require.Contains(t, out, `test_probe_total{host="10.0.0.1:8123"} 2`)
	require.Contains(t, out, `test_probe_errors_total{host="10.0.0.2:8123"} 1`)
	require.Contains(t, out, `test_write_errors_total{host="10.0.0.1:8123"} 1`)
	require.Contains(t, out, `test_read_total{host="10.0.0.2:8123"} 1`)
	require.Contains(t, out, `test_failover_total{from="10.0.0.1:8123",to="10.0.0.2:8123"} 1`)
	require.Contains(t, out, `test_probe_duration_seconds_bucket{host="10.0.0.1:8123"`)
}

func TestCollectorClusterMetrics(t *testing.T) {
	c := newTestCollector(t)

	c.SetReachableHosts(2)
	c.IncClusterUnavailable()
	c.SetPendingQueueDepth(3)
	c.IncBatchFlushTotal()
	c.IncBatchFileError()
	c.IncPartitionDropped("events")

	out := render(c)
	require.Contains(t, out, "test_reachable_hosts 2")
	require.Contains(t, out, "test_cluster_unavailable_total 1")
	require.Contains(t, out, "test_pending_queue_depth 3")
	require.Contains(t, out, "test_batch_flush_total 1")
	require.Contains(t, out, "test_batch_file_errors_total 1")
	require.Contains(t, out, `test_partitions_dropped_total{table="events"} 1`)
}

func TestCollectorDrainMetrics(t *testing.T) {
	c := newTestCollector(t)

	c.SetHostDraining("10.0.0.1:8123", true)
	c.IncDrainModeEntered("10.0.0.1:8123")
	require.Contains(t, render(c), `test_host_draining{host="10.0.0.1:8123"} 1`)

	c.SetHostDraining("10.0.0.1:8123", false)
	c.IncDrainModeExited("10.0.0.1:8123")

	out := render(c)
	require.Contains(t, out, `test_host_draining{host="10.0.0.1:8123"} 0`)
	require.Contains(t, out, `test_drain_mode_entered_total{host="10.0.0.1:8123"} 1`)
	require.Contains(t, out, `test_drain_mode_exited_total{host="10.0.0.1:8123"} 1`)
}

func TestCollectorHandler(t *testing.T) {
	c := newTestCollector(t)
	c.IncClusterUnavailable()

	rec := httptest.NewRecorder()
	c.Handler(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Contains(t, rec.Body.String(), "test_cluster_unavailable_total 1")
}
