// Package testutil provides test utilities and fake implementations for chorus testing.
//
// # Fake Implementations
//
//   - [FakeTransport]: In-memory chorus.Transport with controllable replica health
//   - [FakeHandle]: Pending handle settled by FakeTransport.ExecuteAsyncBatch
//   - [SequenceSource]: Deterministic policy.RandomSource
//   - [TestMetricsCollector]: Recording types.MetricsCollector
//
// # Usage
//
//	tr := testutil.NewFakeTransport("10.0.0.1:8123", "10.0.0.2:8123")
//	tr.SetDown("10.0.0.1:8123", errors.New("connection refused"))
//
//	client, _ := chorus.NewClient(tr,
//	    chorus.WithRandomSource(testutil.NewSequenceSource(0)),
//	)
//
//	_, host, err := client.FindActiveHost(ctx, time.Second, true)
//	// host == "10.0.0.2:8123"
//
// # Integration Test Helpers
//
//   - StartEmbeddedNATS, CreateDrainBucket: Embedded JetStream server and drain KV bucket for topology tests
//   - StartClickHouse: Starts a ClickHouse test container (requires Docker)
package testutil
