package topology_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/chorus"
	"github.com/arloliu/chorus/test/testutil"
	"github.com/arloliu/chorus/topology"
	"github.com/arloliu/chorus/types"
)

const (
	drainKey = "chorus.topology.drain"

	hostA types.HostAddress = "10.0.0.1:8123"
	hostB types.HostAddress = "10.0.0.2:8123"
	hostC types.HostAddress = "10.0.0.3:8123"
)

// drainUpdates drains a topology update channel in the background.
func drainUpdates(ch <-chan chorus.TopologyUpdate) {
	go func() {
		for range ch {
			_ = struct{}{} // consume item
		}
	}()
}

func putDrain(t *testing.T, ctx context.Context, kv jetstream.KeyValue, config topology.DrainConfig) {
	t.Helper()

	data, err := json.Marshal(config)
	require.NoError(t, err)
	_, err = kv.Put(ctx, drainKey, data)
	require.NoError(t, err)
}

func waitUpdate(t *testing.T, updates <-chan chorus.TopologyUpdate) chorus.TopologyUpdate {
	t.Helper()

	select {
	case update := <-updates:
		return update
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for topology update")
	}

	return chorus.TopologyUpdate{}
}

func TestNewNATSNilKV(t *testing.T) {
	_, err := topology.NewNATS(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KeyValue store is nil")
}

func TestNewNATSDefaults(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-defaults")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	assert.Equal(t, drainKey, watcher.Config().Key)
	assert.Equal(t, 5*time.Second, watcher.Config().PollInterval)
	assert.Equal(t, 10*time.Second, watcher.Config().InitialFetchTimeout)
	assert.Equal(t, 32, watcher.Config().BufferSize)
}

func TestNewNATSOptions(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-options")

	watcher, err := topology.NewNATS(kv,
		topology.WithKey("custom.drain.key"),
		topology.WithPollInterval(10*time.Second),
		topology.WithInitialFetchTimeout(30*time.Second),
		topology.WithBufferSize(4),
	)
	require.NoError(t, err)
	defer watcher.Close()

	assert.Equal(t, "custom.drain.key", watcher.Config().Key)
	assert.Equal(t, 10*time.Second, watcher.Config().PollInterval)
	assert.Equal(t, 30*time.Second, watcher.Config().InitialFetchTimeout)
	assert.Equal(t, 4, watcher.Config().BufferSize)
}

func TestNATSDrainOneHost(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-drain-one")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)

	assert.False(t, watcher.IsDraining(hostA))
	assert.False(t, watcher.IsDraining(hostB))

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostB}, Reason: "OS Patching"})

	update := waitUpdate(t, updates)
	assert.Equal(t, hostB, update.Host)
	assert.True(t, update.DrainMode)
	assert.False(t, update.Available)

	assert.False(t, watcher.IsDraining(hostA))
	assert.True(t, watcher.IsDraining(hostB))
	assert.Equal(t, "OS Patching", watcher.GetDrainReason())
}

func TestNATSDrainChangesEmitOnlyDiff(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-drain-diff")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostA, hostB}})
	first := []chorus.TopologyUpdate{waitUpdate(t, updates), waitUpdate(t, updates)}
	assert.Equal(t, hostA, first[0].Host)
	assert.Equal(t, hostB, first[1].Host)

	// hostA leaves, hostC joins, hostB unchanged
	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostB, hostC}})
	second := []chorus.TopologyUpdate{waitUpdate(t, updates), waitUpdate(t, updates)}

	assert.Equal(t, hostA, second[0].Host)
	assert.False(t, second[0].DrainMode)
	assert.Equal(t, hostC, second[1].Host)
	assert.True(t, second[1].DrainMode)

	assert.Equal(t, []types.HostAddress{hostB, hostC}, watcher.Drained())
}

func TestNATSClearDrain(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-clear-drain")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	// Pre-set drain before watching
	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostB}, Reason: "Upgrade"})

	updates := watcher.Watch(ctx)

	update := waitUpdate(t, updates)
	assert.Equal(t, hostB, update.Host)
	assert.True(t, update.DrainMode)

	require.NoError(t, kv.Delete(ctx, drainKey))

	update = waitUpdate(t, updates)
	assert.Equal(t, hostB, update.Host)
	assert.False(t, update.DrainMode)
	assert.True(t, update.Available)

	assert.False(t, watcher.IsDraining(hostB))
	assert.Empty(t, watcher.GetDrainReason())
}

func TestNATSEmptyDrainList(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-empty-drain")

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostA}, Reason: "Test"})

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	updates := watcher.Watch(ctx)
	waitUpdate(t, updates)
	assert.True(t, watcher.IsDraining(hostA))

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{}})

	update := waitUpdate(t, updates)
	assert.Equal(t, hostA, update.Host)
	assert.False(t, update.DrainMode)
	assert.False(t, watcher.IsDraining(hostA))
}

func TestNATSInvalidJSON(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-invalid-json")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostA}})
	waitUpdate(t, updates)

	_, err = kv.Put(ctx, drainKey, []byte("not valid json"))
	require.NoError(t, err)

	// invalid JSON clears the drain list
	update := waitUpdate(t, updates)
	assert.Equal(t, hostA, update.Host)
	assert.True(t, update.Available)
	assert.False(t, watcher.IsDraining(hostA))
}

func TestNATSSetDrainRoundTrip(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-set-drain")

	operator, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer operator.Close()

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	updates := watcher.Watch(ctx)

	require.NoError(t, operator.SetDrain(ctx, hostA, true, "disk swap"))
	require.NoError(t, operator.SetDrain(ctx, hostB, true, "disk swap"))
	require.NoError(t, operator.SetDrain(ctx, hostB, true, "again")) // no-op

	require.Eventually(t, func() bool {
		return watcher.IsDraining(hostA) && watcher.IsDraining(hostB)
	}, 2*time.Second, 20*time.Millisecond)

	entry, err := kv.Get(ctx, drainKey)
	require.NoError(t, err)

	var stored topology.DrainConfig
	require.NoError(t, json.Unmarshal(entry.Value(), &stored))
	assert.Equal(t, []types.HostAddress{hostA, hostB}, stored.Drain)
	assert.Equal(t, "disk swap", stored.Reason)

	require.NoError(t, operator.SetDrain(ctx, hostA, false, ""))
	require.Eventually(t, func() bool {
		return !watcher.IsDraining(hostA) && watcher.IsDraining(hostB)
	}, 2*time.Second, 20*time.Millisecond)

	drainUpdates(updates)
}

func TestNATSSetDrainKeepsMalformedDocument(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-set-drain-malformed")

	operator, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer operator.Close()

	ctx := t.Context()
	_, err = kv.Put(ctx, drainKey, []byte(`{"drain": ["10.0.0.1:8123"`))
	require.NoError(t, err)

	err = operator.SetDrain(ctx, hostB, true, "disk swap")
	require.ErrorIs(t, err, topology.ErrMalformedDrainConfig)
	assert.Contains(t, err.Error(), drainKey)

	entry, err := kv.Get(ctx, drainKey)
	require.NoError(t, err)
	assert.Equal(t, `{"drain": ["10.0.0.1:8123"`, string(entry.Value()), "document is not overwritten")

	// once the key is cleared the operator can publish again
	require.NoError(t, kv.Delete(ctx, drainKey))
	require.NoError(t, operator.SetDrain(ctx, hostB, true, "disk swap"))
}

func TestNATSClose(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-close")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)

	updates := watcher.Watch(t.Context())

	require.NoError(t, watcher.Close())
	require.NoError(t, watcher.Close())

	select {
	case _, ok := <-updates:
		if ok {
			drainUpdates(updates)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after Close()")
	}
}

func TestNATSContextCancellation(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-ctx-cancel")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(t.Context())
	updates := watcher.Watch(ctx)

	cancel()

	select {
	case _, ok := <-updates:
		if ok {
			drainUpdates(updates)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestNATSMultipleWatchCalls(t *testing.T) {
	js := testutil.StartEmbeddedNATS(t)
	kv := testutil.CreateDrainBucket(t, js, "test-multi-watch")

	watcher, err := topology.NewNATS(kv)
	require.NoError(t, err)
	defer watcher.Close()

	ctx := t.Context()

	updates1 := watcher.Watch(ctx)
	updates2 := watcher.Watch(ctx)
	assert.Equal(t, updates1, updates2)

	putDrain(t, ctx, kv, topology.DrainConfig{Drain: []types.HostAddress{hostA}, Reason: "test"})

	update := waitUpdate(t, updates1)
	assert.Equal(t, hostA, update.Host)
	assert.True(t, update.DrainMode)
}

func TestDrainConfigContainsHost(t *testing.T) {
	tests := []struct {
		name     string
		drain    []types.HostAddress
		host     types.HostAddress
		expected bool
	}{
		{"empty drain list", []types.HostAddress{}, hostA, false},
		{"host in list", []types.HostAddress{hostA}, hostA, true},
		{"host not in list", []types.HostAddress{hostB}, hostA, false},
		{"several hosts", []types.HostAddress{hostA, hostB}, hostB, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := topology.DrainConfig{Drain: tt.drain}
			assert.Equal(t, tt.expected, config.ContainsHost(tt.host))
		})
	}
}

func TestDrainConfigJSON(t *testing.T) {
	var config topology.DrainConfig
	require.NoError(t, json.Unmarshal([]byte(`{"drain":["10.0.0.1:8123"],"reason":"Upgrade"}`), &config))

	assert.Equal(t, []types.HostAddress{hostA}, config.Drain)
	assert.Equal(t, "Upgrade", config.Reason)
}
