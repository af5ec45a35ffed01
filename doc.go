// Package chorus provides a client-side orchestration layer for a replicated
// ClickHouse cluster reached over HTTP.
//
// Chorus keeps one replica active at a time and moves away from it only when
// asked: a health check probes every known replica concurrently under one
// shared timeout, and a reachable replica is picked uniformly at random.
//
// # Key Features
//
//   - Replica Health Checks: Concurrent probes bounded by a single deadline
//   - Random Failover: Uniform choice among reachable replicas
//   - Async CSV Ingestion: Streamed FORMAT CSV uploads executed as a batch
//   - Partition Retention: Drop MergeTree partitions older than N days
//   - Drain Mode: Take replicas out of rotation via topology.Local or topology.NATS
//
// # Basic Usage
//
//	conn, err := settings.Load("clickhouse.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	tr, err := transport.New(conn)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client, err := chorus.NewClient(tr,
//	    chorus.WithHealthTimeout(2*time.Second),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Pick a reachable replica (the first operation does this lazily)
//	_, host, err := client.FindActiveHost(ctx, 2*time.Second, true)
//
//	// Insert rows through the active replica
//	err = client.Insert(ctx, "events", [][]any{{1, "start"}}, []string{"id", "name"})
//
// # Error Handling
//
// A health check with no reachable replica returns a
// *types.ClusterUnavailableError carrying every replica's diagnostic:
//
//	_, _, err := client.FindActiveHost(ctx, timeout, true)
//	var unavailable *types.ClusterUnavailableError
//	if errors.As(err, &unavailable) {
//	    for host, cause := range unavailable.Unreachable {
//	        log.Printf("%s: %v", host, cause)
//	    }
//	}
//
// Failed writes are wrapped in *types.StatementError and are never retried.
// IngestFiles reports each failed file as a *types.BatchFileError; several
// failures are combined with go-multierror.
//
// # Sentinel Errors
//
//   - types.ErrClusterUnavailable: No replica answered the health check
//   - types.ErrQueueNotEmpty: IngestFiles called with asynchronous writes queued
//   - types.ErrUnreadableInput: A batch input file can't be read
//   - types.ErrStatementFailed: The server rejected a statement
//   - types.ErrClientClosed: Operation attempted on a closed client
//
// Check for sentinel errors using errors.Is:
//
//	if errors.Is(err, types.ErrQueueNotEmpty) {
//	    _ = client.ExecuteAsync(ctx)
//	}
//
// # Thread Safety
//
// Client is safe for concurrent use. Each Client owns its active host and
// asynchronous queue; separate clients share nothing.
package chorus
