package testutil

import (
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
)

const natsReadyTimeout = 5 * time.Second

// StartEmbeddedNATS runs an in-process JetStream server for drain signal tests.
//
// The server listens on a random loopback port and stores JetStream data in
// t.TempDir(). Connection and server are shut down by t.Cleanup.
//
// Parameters:
//   - t: The testing context
//
// Returns:
//   - jetstream.JetStream: JetStream context connected to the server
func StartEmbeddedNATS(t *testing.T) jetstream.JetStream {
	t.Helper()

	ns, err := server.NewServer(&server.Options{
		ServerName: "chorus-test",
		Host:       "127.0.0.1",
		Port:       server.RANDOM_PORT,
		JetStream:  true,
		StoreDir:   t.TempDir(),
		NoSigs:     true,
	})
	require.NoError(t, err, "create NATS server")

	ns.Start()
	if !ns.ReadyForConnections(natsReadyTimeout) {
		ns.Shutdown()
		t.Fatal("embedded NATS server did not become ready")
	}

	nc, err := nats.Connect(ns.ClientURL(), nats.Name(t.Name()))
	require.NoError(t, err, "connect to embedded NATS")

	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	})

	js, err := jetstream.New(nc)
	require.NoError(t, err, "create JetStream context")

	return js
}

// CreateDrainBucket creates the KV bucket that holds a drain key.
//
// Only the latest revision of the drain document is kept; watchers need no
// history beyond it.
//
// Parameters:
//   - t: The testing context
//   - js: JetStream context from StartEmbeddedNATS
//   - bucket: Bucket name, unique per test
//
// Returns:
//   - jetstream.KeyValue: The created bucket
func CreateDrainBucket(t *testing.T, js jetstream.JetStream, bucket string) jetstream.KeyValue {
	t.Helper()

	kv, err := js.CreateKeyValue(t.Context(), jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "chorus replica drain signals",
		History:     1,
		Storage:     jetstream.MemoryStorage,
	})
	require.NoError(t, err, "create drain bucket %s", bucket)

	return kv
}
