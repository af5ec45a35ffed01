package chorus

import (
	"context"
)

// Transport is the network side of a client: it reaches individual
// ClickHouse replicas over HTTP.
//
// The client owns host selection; the transport only remembers the active
// host it was told about and sends statements there.
//
// Implementations MUST be safe for concurrent use from multiple goroutines.
// transport.ClickHouse is the reference implementation.
type Transport interface {
	// Probe checks whether host answers.
	//
	// The context deadline carries the shared probe timeout.
	//
	// Parameters:
	//   - ctx: Context carrying the probe deadline
	//   - host: The replica to probe
	//
	// Returns:
	//   - error: nil if the replica answered
	Probe(ctx context.Context, host HostAddress) error

	// Execute runs a statement that returns no rows on host.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - host: The replica to run the statement on
	//   - query: Statement text with placeholders already resolved
	//
	// Returns:
	//   - error: The server's error payload if the statement failed
	Execute(ctx context.Context, host HostAddress, query string) error

	// SubmitAsyncCSV records an INSERT ... FORMAT CSV whose data is streamed
	// from path when the batch executes.
	//
	// It must not perform network I/O and must not read the file into memory.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - query: INSERT ... FORMAT CSV statement
	//   - path: CSV file to stream
	//
	// Returns:
	//   - PendingHandle: Handle settled by ExecuteAsyncBatch
	//   - error: Error if the submission can't be recorded
	SubmitAsyncCSV(ctx context.Context, query string, path string) (PendingHandle, error)

	// ExecuteAsyncBatch runs every recorded submission on the active host,
	// in submission order, and settles their handles.
	//
	// Returns:
	//   - error: Error if the batch could not run at all; per-submission
	//     failures are reported through the handles
	ExecuteAsyncBatch(ctx context.Context) error

	// Select runs a query on the active host and materializes the result.
	//
	// Parameters:
	//   - ctx: Context for the operation
	//   - query: Query text with placeholders already resolved
	//
	// Returns:
	//   - RowSet: All result rows
	//   - error: Error if the query failed
	Select(ctx context.Context, query string) (RowSet, error)

	// SetActiveHost directs subsequent Select and async batches to host.
	SetActiveHost(host HostAddress)

	// KnownHosts returns every replica address of the cluster.
	KnownHosts(ctx context.Context) ([]HostAddress, error)

	// Settings returns the session settings shared by all requests.
	Settings() Settings

	// Close releases connections.
	Close() error
}

// Settings is the session state sent with every request.
//
// settings.Settings is the reference implementation.
type Settings interface {
	// SetDatabase selects the database for unqualified table names.
	SetDatabase(name string)

	// Database returns the selected database.
	Database() string

	// Apply merges server settings; a nil value removes a setting.
	Apply(options map[string]any)

	// EnableCompression turns HTTP compression on or off.
	EnableCompression(enabled bool)
}

// TopologyWatcher monitors replica drain signals.
//
// Implementations include topology.Local (in-memory) and topology.NATS (NATS KV backed).
type TopologyWatcher interface {
	// Watch returns a channel that receives topology updates.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//
	// Returns:
	//   - <-chan TopologyUpdate: Channel of topology changes
	Watch(ctx context.Context) <-chan TopologyUpdate
}

// TopologyOperator allows setting replica drain states.
//
// This interface is typically used by operations tools and tests to take
// replicas out of rotation. Implementations include topology.Local and
// topology.NATS.
type TopologyOperator interface {
	// SetDrain sets the drain state for a replica.
	//
	// Parameters:
	//   - ctx: Context for cancellation/timeout
	//   - host: The replica to update
	//   - draining: true to enable drain mode, false to disable
	//   - reason: Human-readable reason for the drain (only used when draining=true)
	//
	// Returns:
	//   - error: nil on success, error if the operation fails
	SetDrain(ctx context.Context, host HostAddress, draining bool, reason string) error
}

// TopologyUpdate represents a change in replica drain state.
type TopologyUpdate struct {
	// Host that was updated.
	Host HostAddress

	// Available indicates if the host may receive traffic.
	Available bool

	// DrainMode indicates if the host is in drain mode.
	DrainMode bool
}
