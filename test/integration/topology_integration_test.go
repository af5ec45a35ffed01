package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/test/testutil"
	"github.com/arloliu/chorus/topology"
	"github.com/arloliu/chorus/types"
)

const (
	replicaA types.HostAddress = "10.0.0.1:8123"
	replicaB types.HostAddress = "10.0.0.2:8123"
)

func TestNATSDrainSteersFailoverIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	js := testutil.StartEmbeddedNATS(t)

	ctx := t.Context()
	kv := testutil.CreateDrainBucket(t, js, "test-drain-failover")

	watcher, err := topology.NewNATS(kv, topology.WithPollInterval(100*time.Millisecond))
	require.NoError(t, err)
	defer watcher.Close()

	tr := testutil.NewFakeTransport(replicaA, replicaB)
	metrics := testutil.NewTestMetricsCollector()
	client, err := chorus.NewClient(tr,
		chorus.WithTopologyWatcher(watcher),
		chorus.WithMetrics(metrics),
	)
	require.NoError(t, err)
	defer client.Close()

	// An operator takes replica A out of rotation
	require.NoError(t, watcher.SetDrain(ctx, replicaA, true, "disk replacement"))

	require.Eventually(t, func() bool {
		return client.IsDraining(replicaA)
	}, 5*time.Second, 20*time.Millisecond)
	assert.Equal(t, "disk replacement", watcher.GetDrainReason())

	for range 10 {
		_, host, err := client.FindActiveHost(ctx, time.Second, true)
		require.NoError(t, err)
		require.Equal(t, replicaB, host)
	}
	assert.Zero(t, tr.ProbeCount(replicaA))

	// Draining every replica leaves nothing reachable
	require.NoError(t, watcher.SetDrain(ctx, replicaB, true, "disk replacement"))
	require.Eventually(t, func() bool {
		return client.IsDraining(replicaB)
	}, 5*time.Second, 20*time.Millisecond)

	_, _, err = client.FindActiveHost(ctx, time.Second, true)
	require.ErrorIs(t, err, types.ErrClusterUnavailable)
	require.ErrorIs(t, err, types.ErrHostDraining)

	// Clearing the key brings both back
	require.NoError(t, kv.Delete(ctx, topology.DefaultWatcherConfig().Key))
	require.Eventually(t, func() bool {
		return !client.IsDraining(replicaA) && !client.IsDraining(replicaB)
	}, 5*time.Second, 20*time.Millisecond)

	result, _, err := client.FindActiveHost(ctx, time.Second, true)
	require.NoError(t, err)
	assert.Len(t, result.Reachable, 2)
	assert.Equal(t, int64(1), metrics.GetDrainModeExited(replicaA))
}

func TestLocalDrainReasonIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	watcher := topology.NewLocal()
	defer watcher.Close()

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	updates := watcher.Watch(ctx)

	assert.Empty(t, watcher.GetDrainReason())

	_ = watcher.SetDrain(ctx, replicaA, true, "OS Patching")

	select {
	case update := <-updates:
		assert.Equal(t, replicaA, update.Host)
		assert.True(t, update.DrainMode)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for drain update")
	}

	assert.Equal(t, "OS Patching", watcher.GetDrainReason())

	_ = watcher.SetDrain(ctx, replicaB, true, "Scaling")
	<-updates

	_ = watcher.SetDrain(ctx, replicaA, false, "")
	<-updates

	// Reason stays while another replica is draining
	assert.NotEmpty(t, watcher.GetDrainReason())
	assert.Equal(t, []types.HostAddress{replicaB}, watcher.Drained())

	_ = watcher.SetDrain(ctx, replicaB, false, "")
	<-updates

	assert.Empty(t, watcher.GetDrainReason())
}
